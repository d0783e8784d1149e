package entitlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/miplata/core/pkg/logger"
	"github.com/miplata/core/pkg/plans"
	"github.com/miplata/core/pkg/usage"
)

// PlanResolver returns the plan a user is currently on. Backed by the
// userplan repository in production; a stub in tests.
type PlanResolver func(ctx context.Context, userID uuid.UUID) (plans.Plan, error)

// LimitCheck is the outcome of a quota check. When Allowed is false,
// Reason is non-empty and is surfaced to the end user verbatim.
type LimitCheck struct {
	Allowed   bool   `json:"allowed"`
	Reason    string `json:"reason,omitempty"`
	Limit     int64  `json:"limit"`
	Used      int64  `json:"used"`
	Remaining int64  `json:"remaining"`
	Unlimited bool   `json:"is_unlimited"`
}

// PermissionCheck is the outcome of a capability check.
type PermissionCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Evaluator is the single authority for "may this user do X now" and
// "does this user's plan include Y". Checks are read-only and advisory:
// nothing is reserved or decremented here, and two concurrent callers may
// both see the last unit free. The persistence layer owns the final,
// transactional word where exactness matters.
type Evaluator struct {
	resolve    PlanResolver
	accountant *usage.Accountant
	logger     *slog.Logger
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithEvaluatorLogger sets the evaluator's logger.
func WithEvaluatorLogger(log *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if log != nil {
			e.logger = log
		}
	}
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(resolve PlanResolver, accountant *usage.Accountant, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		resolve:    resolve,
		accountant: accountant,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanPerform reports whether the user may consume amount units of the
// metered resource right now. The whole amount is checked at once; partial
// admission is not an outcome. A returned error is a configuration
// problem, never a user-facing denial.
func (e *Evaluator) CanPerform(ctx context.Context, userID uuid.UUID, key plans.LimitKey, amount int64) (LimitCheck, error) {
	if !key.Valid() {
		return LimitCheck{}, fmt.Errorf("%w: %w: %q", ErrConfiguration, plans.ErrInvalidLimitKey, key)
	}
	if amount <= 0 {
		return LimitCheck{}, fmt.Errorf("%w: non-positive amount %d for %q", ErrConfiguration, amount, key)
	}

	plan, err := e.resolve(ctx, userID)
	if err != nil {
		return LimitCheck{}, fmt.Errorf("%w: resolving plan for %s: %v", ErrConfiguration, userID, err)
	}

	limit, ok := plan.Limit(key)
	if !ok {
		return LimitCheck{}, fmt.Errorf("%w: %w: plan %q, limit %q", ErrConfiguration, plans.ErrLimitNotConfigured, plan.ID, key)
	}

	if plans.IsUnlimited(limit) {
		// Usage never blocks an unlimited quota; it is still reported
		// for display, best effort.
		snap := e.accountant.Key(ctx, userID, plan, key)
		return LimitCheck{
			Allowed:   true,
			Limit:     plans.Unlimited,
			Used:      snap.Used,
			Remaining: plans.Unlimited,
			Unlimited: true,
		}, nil
	}

	snap := e.accountant.Key(ctx, userID, plan, key)
	if snap.Unavailable {
		// Fail closed: the system cannot prove the action is safe.
		e.logger.LogAttrs(ctx, slog.LevelWarn, "limit check denied, usage unavailable",
			logger.UserID(userID.String()), logger.LimitKey(string(key)))
		return LimitCheck{
			Allowed: false,
			Reason:  fmt.Sprintf("usage unavailable for %s, try again shortly", key.Label()),
			Limit:   limit,
		}, nil
	}

	if snap.Remaining < amount {
		return LimitCheck{
			Allowed:   false,
			Reason:    fmt.Sprintf("limit of %d %s reached for your plan", limit, key.Label()),
			Limit:     limit,
			Used:      snap.Used,
			Remaining: snap.Remaining,
		}, nil
	}

	return LimitCheck{
		Allowed:   true,
		Limit:     limit,
		Used:      snap.Used,
		Remaining: snap.Remaining,
	}, nil
}

// CheckRequest is one item of a batch limit check.
type CheckRequest struct {
	Key    plans.LimitKey `json:"key"`
	Amount int64          `json:"amount"`
}

// BatchCheck is the all-or-nothing outcome of a batch limit check.
// Allowed is true only when every request passed; Results is keyed by
// limit and carries the per-key verdicts either way.
type BatchCheck struct {
	Allowed bool                          `json:"allowed"`
	Reason  string                        `json:"reason,omitempty"`
	Results map[plans.LimitKey]LimitCheck `json:"results"`
}

// CanPerformAll checks a batch of limit consumptions as a unit: the batch
// is allowed only if every request is individually allowed, and requests
// naming the same key have their amounts summed before checking, so a
// batch cannot sneak past a limit by splitting itself. Partial admission
// is never an outcome.
func (e *Evaluator) CanPerformAll(ctx context.Context, userID uuid.UUID, reqs []CheckRequest) (BatchCheck, error) {
	if len(reqs) == 0 {
		return BatchCheck{}, fmt.Errorf("%w: empty batch", ErrConfiguration)
	}

	totals := make(map[plans.LimitKey]int64, len(reqs))
	order := make([]plans.LimitKey, 0, len(reqs))
	for _, req := range reqs {
		if !req.Key.Valid() {
			return BatchCheck{}, fmt.Errorf("%w: %w: %q", ErrConfiguration, plans.ErrInvalidLimitKey, req.Key)
		}
		if req.Amount <= 0 {
			return BatchCheck{}, fmt.Errorf("%w: non-positive amount %d for %q", ErrConfiguration, req.Amount, req.Key)
		}
		if _, seen := totals[req.Key]; !seen {
			order = append(order, req.Key)
		}
		totals[req.Key] += req.Amount
	}

	out := BatchCheck{
		Allowed: true,
		Results: make(map[plans.LimitKey]LimitCheck, len(totals)),
	}
	for _, key := range order {
		check, err := e.CanPerform(ctx, userID, key, totals[key])
		if err != nil {
			return BatchCheck{}, err
		}
		out.Results[key] = check
		if !check.Allowed && out.Allowed {
			out.Allowed = false
			out.Reason = check.Reason
		}
	}
	return out, nil
}

// HasPermission reports whether the user's plan grants the capability.
// Pure set membership: usage is never involved, so repeated calls are
// stable until the plan changes.
func (e *Evaluator) HasPermission(ctx context.Context, userID uuid.UUID, key plans.PermissionKey) (PermissionCheck, error) {
	if !key.Valid() {
		return PermissionCheck{}, fmt.Errorf("%w: unknown permission key %q", ErrConfiguration, key)
	}

	plan, err := e.resolve(ctx, userID)
	if err != nil {
		return PermissionCheck{}, fmt.Errorf("%w: resolving plan for %s: %v", ErrConfiguration, userID, err)
	}

	if !plan.HasPermission(key) {
		return PermissionCheck{
			Allowed: false,
			Reason:  fmt.Sprintf("your plan does not include %s", key.Label()),
		}, nil
	}

	return PermissionCheck{Allowed: true}, nil
}
