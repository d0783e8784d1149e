package usage

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/miplata/core/pkg/logger"
	"github.com/miplata/core/pkg/plans"
)

// Accountant aggregates per-user consumption into snapshots. Limits come
// from the plan passed by the caller, so a plan change is reflected on the
// very next call; nothing is cached here.
type Accountant struct {
	counters Registry
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures an Accountant.
type Option func(*Accountant)

// WithLocation sets the timezone used to compute monthly windows.
func WithLocation(loc *time.Location) Option {
	return func(a *Accountant) {
		if loc != nil {
			a.loc = loc
		}
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Accountant) {
		if now != nil {
			a.now = now
		}
	}
}

// WithLogger sets the logger for counter failures.
func WithLogger(log *slog.Logger) Option {
	return func(a *Accountant) {
		if log != nil {
			a.logger = log
		}
	}
}

// NewAccountant creates an Accountant over the given counter registry.
func NewAccountant(counters Registry, opts ...Option) *Accountant {
	a := &Accountant{
		counters: counters,
		loc:      DefaultLocation,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Current returns a snapshot for every defined limit key. A counter failure
// marks only that key unavailable; the rest of the map is still usable.
func (a *Accountant) Current(ctx context.Context, userID uuid.UUID, plan plans.Plan) map[plans.LimitKey]Snapshot {
	out := make(map[plans.LimitKey]Snapshot, len(plans.LimitKeys()))
	for _, key := range plans.LimitKeys() {
		out[key] = a.Key(ctx, userID, plan, key)
	}
	return out
}

// Key returns the snapshot for a single limit key.
func (a *Accountant) Key(ctx context.Context, userID uuid.UUID, plan plans.Plan, key plans.LimitKey) Snapshot {
	limit, ok := plan.Limit(key)
	if !ok {
		// Catalog validation makes this unreachable for catalog-loaded
		// plans; report unavailable rather than inventing a quota.
		a.logger.LogAttrs(ctx, slog.LevelError, "plan has no quota for limit key",
			logger.PlanID(plan.ID), logger.LimitKey(string(key)))
		return unavailableSnapshot(0)
	}

	counter, ok := a.counters[key]
	if !ok {
		a.logger.LogAttrs(ctx, slog.LevelError, "no counter registered for limit key",
			logger.LimitKey(string(key)))
		return unavailableSnapshot(limit)
	}

	var since time.Time
	if key.Cadence() == plans.CadenceMonthly {
		since = MonthStart(a.now(), a.loc)
	}

	used, err := counter(ctx, userID, since)
	if err != nil {
		a.logger.LogAttrs(ctx, slog.LevelWarn, "usage counter failed",
			logger.UserID(userID.String()), logger.LimitKey(string(key)), logger.Error(err))
		return unavailableSnapshot(limit)
	}

	return newSnapshot(used, limit)
}
