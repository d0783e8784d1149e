package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/miplata/core/pkg/usage"
)

// Sessions is the process-wide registry of per-user entitlement stores.
// Each active user owns exactly one Store; it is created lazily on first
// access and torn down on logout via End.
type Sessions struct {
	resolve    PlanResolver
	accountant *usage.Accountant
	logger     *slog.Logger

	mu     sync.Mutex
	stores map[uuid.UUID]*Store
	closed bool
}

// SessionsOption configures a Sessions registry.
type SessionsOption func(*Sessions)

// WithSessionsLogger sets the logger passed down to each store.
func WithSessionsLogger(log *slog.Logger) SessionsOption {
	return func(s *Sessions) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewSessions creates a registry backed by the given plan resolver and
// usage accountant.
func NewSessions(resolve PlanResolver, accountant *usage.Accountant, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		resolve:    resolve,
		accountant: accountant,
		logger:     slog.Default(),
		stores:     make(map[uuid.UUID]*Store),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the user's store, creating it if this is the first access of
// the session. The new store starts unloaded; callers that need data
// immediately should Refresh it.
func (s *Sessions) Get(userID uuid.UUID) (*Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	st, ok := s.stores[userID]
	if !ok {
		st = NewStore(userID, s.resolve, s.accountant, WithStoreLogger(s.logger))
		s.stores[userID] = st
	}
	return st, nil
}

// Invalidate schedules an asynchronous refresh of the user's store. A user
// with no active store is a no-op: there is nothing cached to go stale.
func (s *Sessions) Invalidate(ctx context.Context, userID uuid.UUID) {
	s.mu.Lock()
	st := s.stores[userID]
	s.mu.Unlock()
	if st != nil {
		st.Invalidate(ctx)
	}
}

// PlanChanged forces a synchronous reload after the user's plan changed,
// so the session reflects new limits before the caller responds. Returns
// the refreshed state, or a zero state if the user has no active session.
func (s *Sessions) PlanChanged(ctx context.Context, userID uuid.UUID) State {
	s.mu.Lock()
	st := s.stores[userID]
	s.mu.Unlock()
	if st == nil {
		return State{Status: StatusUnloaded}
	}
	return st.PlanChanged(ctx)
}

// End closes and removes the user's store. Logout path.
func (s *Sessions) End(userID uuid.UUID) error {
	s.mu.Lock()
	st := s.stores[userID]
	delete(s.stores, userID)
	s.mu.Unlock()
	if st == nil {
		return nil
	}
	return st.Close()
}

// Close tears down every active session. Used on server shutdown.
func (s *Sessions) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stores := make([]*Store, 0, len(s.stores))
	for _, st := range s.stores {
		stores = append(stores, st)
	}
	s.stores = nil
	s.mu.Unlock()

	var errs []error
	for _, st := range stores {
		if err := st.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
