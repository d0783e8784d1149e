package billing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miplata/core/pkg/entitlement"
	"github.com/miplata/core/pkg/plans"
)

// Config holds the Stripe webhook settings.
type Config struct {
	WebhookSecret    string        `env:"STRIPE_WEBHOOK_SECRET"`
	WebhookTolerance time.Duration `env:"STRIPE_WEBHOOK_TOLERANCE" envDefault:"5m"`
	// FallbackPlanID is applied when a subscription ends.
	FallbackPlanID string `env:"BILLING_FALLBACK_PLAN_ID" envDefault:"free"`
}

// PlanSetter persists a user's plan assignment.
type PlanSetter interface {
	SetPlan(ctx context.Context, userID uuid.UUID, planID string) error
}

// Service turns Stripe webhook events into plan assignments and pushes the
// change into any active entitlement session.
type Service struct {
	cfg      Config
	catalog  *plans.Catalog
	repo     PlanSetter
	sessions *entitlement.Sessions
	logger   *slog.Logger

	// replayed webhook deliveries are ignored by event id
	mu        sync.Mutex
	seen      map[string]struct{}
	seenOrder []string
}

// seenCapacity bounds the replay-protection window.
const seenCapacity = 1024

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// NewService assembles the billing webhook service.
func NewService(cfg Config, catalog *plans.Catalog, repo PlanSetter, sessions *entitlement.Sessions, opts ...Option) *Service {
	s := &Service{
		cfg:      cfg,
		catalog:  catalog,
		repo:     repo,
		sessions: sessions,
		logger:   slog.Default(),
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// markSeen records an event id, reporting whether it was already known.
func (s *Service) markSeen(eventID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[eventID]; dup {
		return true
	}
	s.seen[eventID] = struct{}{}
	s.seenOrder = append(s.seenOrder, eventID)
	if len(s.seenOrder) > seenCapacity {
		oldest := s.seenOrder[0]
		s.seenOrder = s.seenOrder[1:]
		delete(s.seen, oldest)
	}
	return false
}

// forget drops an event id so a retried delivery is processed again.
// Called when applying the event failed and Stripe is asked to retry.
func (s *Service) forget(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[eventID]; !ok {
		return
	}
	delete(s.seen, eventID)
	for i, id := range s.seenOrder {
		if id == eventID {
			s.seenOrder = append(s.seenOrder[:i], s.seenOrder[i+1:]...)
			break
		}
	}
}

// applyPlan validates the plan against the catalog, persists it and
// refreshes the user's session if one is active.
func (s *Service) applyPlan(ctx context.Context, userID uuid.UUID, planID string) error {
	if _, err := s.catalog.Get(planID); err != nil {
		return err
	}
	if err := s.repo.SetPlan(ctx, userID, planID); err != nil {
		return err
	}
	s.sessions.PlanChanged(ctx, userID)
	return nil
}
