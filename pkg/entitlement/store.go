package entitlement

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miplata/core/pkg/broadcast"
	"github.com/miplata/core/pkg/logger"
	"github.com/miplata/core/pkg/usage"
)

// Store holds the one authoritative EntitlementState for an active session
// and pushes every change to all subscribed observers. It is session
// scoped: created at login, Close()d at logout, never shared across users.
//
// Refreshes coalesce: concurrent triggers join the reload already in
// flight instead of queuing redundant ones, and an in-flight reload is not
// cancelled when its original trigger goes away - its result is cached for
// whoever is still listening.
type Store struct {
	userID     uuid.UUID
	resolve    PlanResolver
	accountant *usage.Accountant
	clock      func() time.Time
	logger     *slog.Logger

	bus *broadcast.Broadcaster[State]

	mu       sync.Mutex
	state    State
	inflight chan struct{} // non-nil while a reload is running
	closed   bool
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store's logger.
func WithStoreLogger(log *slog.Logger) StoreOption {
	return func(s *Store) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithStoreClock replaces the time source, for tests.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.clock = now
		}
	}
}

// subscriberBuffer absorbs a refresh burst without dropping observers.
const subscriberBuffer = 8

// NewStore creates an entitlement store for one user's session.
func NewStore(userID uuid.UUID, resolve PlanResolver, accountant *usage.Accountant, opts ...StoreOption) *Store {
	s := &Store{
		userID:     userID,
		resolve:    resolve,
		accountant: accountant,
		clock:      time.Now,
		logger:     slog.Default(),
		bus:        broadcast.NewBroadcaster[State](subscriberBuffer),
		state:      State{Status: StatusUnloaded},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UserID returns the session owner.
func (s *Store) UserID() uuid.UUID {
	return s.userID
}

// State returns the current state without triggering any I/O.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers an observer. If the store has loaded at least once
// this session, the observer receives the latest state synchronously;
// afterwards it receives every update until ctx is cancelled or the
// subscriber is closed. Unsubscribing stops delivery but does not cancel
// reloads already in flight.
func (s *Store) Subscribe(ctx context.Context) *broadcast.Subscriber[State] {
	return s.bus.Subscribe(ctx)
}

// Refresh recomputes the state and publishes it, returning the state the
// session ends up with. If a reload is already in flight the call waits
// for and shares its result rather than starting another.
func (s *Store) Refresh(ctx context.Context) State {
	s.mu.Lock()
	if s.closed {
		st := s.state.clone()
		s.mu.Unlock()
		return st
	}
	if ch := s.inflight; ch != nil {
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
		}
		return s.State()
	}

	ch := make(chan struct{})
	s.inflight = ch
	prev := s.state
	s.state.Status = StatusLoading
	s.mu.Unlock()

	// The reload outlives the trigger's context on purpose: a dialog
	// closing must not abort the load other observers are waiting on.
	next, err := s.load(context.WithoutCancel(ctx))

	s.mu.Lock()
	if err != nil {
		// Stale-but-available beats blank. Advisory data only; the
		// server re-checks at the point of mutation regardless.
		s.state = prev
		if prev.Status == StatusLoading {
			s.state.Status = StatusUnloaded
		}
		s.logger.LogAttrs(ctx, slog.LevelWarn, "entitlement refresh failed, keeping last known state",
			logger.UserID(s.userID.String()), logger.Error(err))
	} else {
		s.state = next
	}
	out := s.state.clone()
	s.inflight = nil
	closed := s.closed
	s.mu.Unlock()

	close(ch)
	if !closed && err == nil {
		s.bus.Publish(out)
	}
	return out
}

// Invalidate schedules an asynchronous refresh. Called after any mutation
// that changes usage; safe to call from request handlers without blocking
// the response.
func (s *Store) Invalidate(ctx context.Context) {
	go s.Refresh(context.WithoutCancel(ctx))
}

// PlanChanged forces a reload after a payment confirmation or
// administrative plan change and returns the refreshed state.
func (s *Store) PlanChanged(ctx context.Context) State {
	return s.Refresh(ctx)
}

// Close tears the session down: state is discarded and every subscriber's
// channel is closed. The store must not be reused; the next session gets a
// fresh one, so no state can leak across users.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = State{Status: StatusUnloaded}
	s.mu.Unlock()

	return s.bus.Close()
}

func (s *Store) load(ctx context.Context) (State, error) {
	plan, err := s.resolve(ctx, s.userID)
	if err != nil {
		return State{}, err
	}

	return State{
		Status:   StatusLoaded,
		Plan:     plan,
		Usage:    s.accountant.Current(ctx, s.userID, plan),
		Features: NewFeatureControl(plan),
		LoadedAt: s.clock().UTC(),
	}, nil
}
