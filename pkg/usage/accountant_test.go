package usage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miplata/core/pkg/logger"
	"github.com/miplata/core/pkg/plans"
	"github.com/miplata/core/pkg/usage"
)

func staticCounter(n int64) usage.CounterFunc {
	return func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
		return n, nil
	}
}

func failingCounter(err error) usage.CounterFunc {
	return func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
		return 0, err
	}
}

func fullRegistry(n int64) usage.Registry {
	r := usage.NewRegistry()
	for _, key := range plans.LimitKeys() {
		r.Register(key, staticCounter(n))
	}
	return r
}

func basicPlan(t *testing.T) plans.Plan {
	t.Helper()

	p, ok := plans.Builtin()["basic"]
	require.True(t, ok)
	return p
}

func TestAccountantCurrent(t *testing.T) {
	t.Parallel()

	acc := usage.NewAccountant(fullRegistry(1), usage.WithLogger(logger.NewDiscard()))
	snaps := acc.Current(context.Background(), uuid.New(), basicPlan(t))

	require.Len(t, snaps, len(plans.LimitKeys()))

	cards := snaps[plans.LimitMaxCards]
	assert.Equal(t, int64(1), cards.Used)
	assert.Equal(t, int64(2), cards.Limit)
	assert.Equal(t, int64(1), cards.Remaining)
	assert.False(t, cards.Unavailable)

	// basic grants no cartola allowance: zero quota, not unlimited.
	cartolas := snaps[plans.LimitMonthlyCartolas]
	assert.Equal(t, int64(0), cartolas.Limit)
	assert.Equal(t, int64(0), cartolas.Remaining)
	assert.False(t, cartolas.Unlimited())
}

func TestAccountantResolvesLimitsFromPassedPlan(t *testing.T) {
	t.Parallel()

	acc := usage.NewAccountant(fullRegistry(5), usage.WithLogger(logger.NewDiscard()))
	userID := uuid.New()

	before := acc.Key(context.Background(), userID, basicPlan(t), plans.LimitMaxCards)
	assert.Equal(t, int64(2), before.Limit)

	// After an upgrade the very next call must reflect the new plan:
	// stale limits are a correctness bug, never a cache win.
	pro := plans.Builtin()["pro"]
	after := acc.Key(context.Background(), userID, pro, plans.LimitMaxCards)
	assert.True(t, after.Unlimited())
	assert.Equal(t, plans.Unlimited, after.Remaining)
	assert.Equal(t, int64(5), after.Used, "usage is still reported for display")
}

func TestAccountantRemainingNeverNegative(t *testing.T) {
	t.Parallel()

	acc := usage.NewAccountant(fullRegistry(50), usage.WithLogger(logger.NewDiscard()))
	snap := acc.Key(context.Background(), uuid.New(), basicPlan(t), plans.LimitMaxCards)

	assert.Equal(t, int64(50), snap.Used)
	assert.Equal(t, int64(0), snap.Remaining)
}

func TestAccountantCounterFailureIsolation(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	reg := fullRegistry(1)
	reg.Register(plans.LimitManualMovements, failingCounter(boom))

	acc := usage.NewAccountant(reg, usage.WithLogger(logger.NewDiscard()))
	snaps := acc.Current(context.Background(), uuid.New(), basicPlan(t))

	assert.True(t, snaps[plans.LimitManualMovements].Unavailable,
		"failed key must be reported unavailable, not silently zero")
	assert.False(t, snaps[plans.LimitMaxCards].Unavailable,
		"other keys must be unaffected")
}

func TestAccountantMissingCounter(t *testing.T) {
	t.Parallel()

	reg := usage.NewRegistry()
	reg.Register(plans.LimitMaxCards, staticCounter(0))

	acc := usage.NewAccountant(reg, usage.WithLogger(logger.NewDiscard()))
	snap := acc.Key(context.Background(), uuid.New(), basicPlan(t), plans.LimitManualMovements)

	assert.True(t, snap.Unavailable)
}

func TestAccountantMonthlyWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.March, 15, 18, 30, 0, 0, time.UTC)

	var gotMonthly, gotLifetime time.Time
	reg := fullRegistry(0)
	reg.Register(plans.LimitManualMovements, func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
		gotMonthly = since
		return 0, nil
	})
	reg.Register(plans.LimitMaxCards, func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error) {
		gotLifetime = since
		return 0, nil
	})

	acc := usage.NewAccountant(reg,
		usage.WithLocation(time.UTC),
		usage.WithClock(func() time.Time { return now }),
		usage.WithLogger(logger.NewDiscard()),
	)

	userID := uuid.New()
	acc.Key(context.Background(), userID, basicPlan(t), plans.LimitManualMovements)
	acc.Key(context.Background(), userID, basicPlan(t), plans.LimitMaxCards)

	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), gotMonthly)
	assert.True(t, gotLifetime.IsZero(), "lifetime keys carry no window")
}

func TestRegistryRegisterPanics(t *testing.T) {
	t.Parallel()

	t.Run("nil counter", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			usage.NewRegistry().Register(plans.LimitMaxCards, nil)
		})
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			usage.NewRegistry().Register(plans.LimitKey("widgets"), staticCounter(0))
		})
	})
}
