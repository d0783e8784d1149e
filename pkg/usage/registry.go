package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/miplata/core/pkg/plans"
)

// CounterFunc returns the current raw count of a user's records for one
// metered resource. For monthly-cadence keys, since is the first instant of
// the current calendar month in the user's timezone and the count must only
// include records from since onward; for lifetime keys since is the zero
// time and must be ignored.
//
// Counters should be fast: aggregate at the repository level, never page
// through rows.
type CounterFunc func(ctx context.Context, userID uuid.UUID, since time.Time) (int64, error)

// Registry maps a limit key to its CounterFunc.
// Not safe for concurrent mutation: register all counters at startup.
type Registry map[plans.LimitKey]CounterFunc

// NewRegistry returns a new, empty Registry.
func NewRegistry() Registry {
	return make(Registry)
}

// Register sets or replaces the counter for a key. Panics on a nil counter
// or an unknown key: both are startup wiring mistakes.
func (r Registry) Register(key plans.LimitKey, fn CounterFunc) {
	if !key.Valid() {
		panic(fmt.Sprintf("usage: cannot register counter for unknown limit key %q", key))
	}
	if fn == nil {
		panic(fmt.Sprintf("usage: counter for %q cannot be nil", key))
	}
	r[key] = fn
}
