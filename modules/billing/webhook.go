package billing

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/miplata/core/pkg/logger"
)

// maxWebhookBody caps the payload read from Stripe.
const maxWebhookBody = 1 << 20

// Handle mounts the webhook route. Signature verification is the only
// auth; the path is exposed publicly.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()
	r.Post("/webhook/stripe", s.stripeWebhook)
	return r
}

func (s *Service) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	if strings.TrimSpace(s.cfg.WebhookSecret) == "" {
		http.Error(w, "stripe webhook not configured", http.StatusServiceUnavailable)
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if strings.TrimSpace(sigHeader) == "" {
		http.Error(w, "missing Stripe-Signature header", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	event, err := webhook.ConstructEventWithTolerance(body, sigHeader, s.cfg.WebhookSecret, s.cfg.WebhookTolerance)
	if err != nil {
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	if s.markSeen(event.ID) {
		s.logger.LogAttrs(r.Context(), slog.LevelInfo, "duplicate stripe event ignored",
			slog.String("event_id", event.ID), slog.String("event_type", string(event.Type)))
		writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
		return
	}

	s.logger.LogAttrs(r.Context(), slog.LevelInfo, "stripe event received",
		slog.String("event_id", event.ID), slog.String("event_type", string(event.Type)))

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			s.logger.LogAttrs(r.Context(), slog.LevelError, "invalid checkout session payload", logger.Error(err))
			break
		}
		s.handleCheckoutCompleted(w, r, event.ID, session)
		return

	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			s.logger.LogAttrs(r.Context(), slog.LevelError, "invalid subscription payload", logger.Error(err))
			break
		}
		// only active or trialing subscriptions grant entitlements
		if sub.Status != stripe.SubscriptionStatusActive && sub.Status != stripe.SubscriptionStatusTrialing {
			break
		}
		userID, planID, ok := subscriptionTarget(sub.Metadata)
		if !ok {
			s.logger.LogAttrs(r.Context(), slog.LevelWarn, "subscription event missing user_id/plan_id metadata",
				slog.String("event_id", event.ID))
			break
		}
		if err := s.applyPlan(r.Context(), userID, planID); err != nil {
			s.planApplyError(w, r, event.ID, userID, planID, err)
			return
		}

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			s.logger.LogAttrs(r.Context(), slog.LevelError, "invalid subscription payload", logger.Error(err))
			break
		}
		userID, ok := subscriptionUser(sub.Metadata)
		if !ok {
			s.logger.LogAttrs(r.Context(), slog.LevelWarn, "subscription event missing user_id metadata",
				slog.String("event_id", event.ID))
			break
		}
		if err := s.applyPlan(r.Context(), userID, s.cfg.FallbackPlanID); err != nil {
			s.planApplyError(w, r, event.ID, userID, s.cfg.FallbackPlanID, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleCheckoutCompleted(w http.ResponseWriter, r *http.Request, eventID string, session stripe.CheckoutSession) {
	userID, planID, ok := subscriptionTarget(session.Metadata)
	if !ok {
		s.logger.LogAttrs(r.Context(), slog.LevelWarn, "checkout session missing user_id/plan_id metadata",
			slog.String("session_id", session.ID))
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	if err := s.applyPlan(r.Context(), userID, planID); err != nil {
		s.planApplyError(w, r, eventID, userID, planID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// planApplyError reports a failed plan assignment. A 500 makes Stripe
// retry the delivery, which is what we want for transient storage errors,
// so the event id is forgotten to let the retry through the dedup check.
func (s *Service) planApplyError(w http.ResponseWriter, r *http.Request, eventID string, userID uuid.UUID, planID string, err error) {
	s.forget(eventID)
	s.logger.LogAttrs(r.Context(), slog.LevelError, "failed to apply plan from stripe event",
		logger.UserID(userID.String()), logger.PlanID(planID), logger.Error(err))
	http.Error(w, "failed to apply plan", http.StatusInternalServerError)
}

func subscriptionTarget(metadata map[string]string) (uuid.UUID, string, bool) {
	userID, ok := subscriptionUser(metadata)
	if !ok {
		return uuid.Nil, "", false
	}
	planID := strings.TrimSpace(strings.ToLower(metadata["plan_id"]))
	if planID == "" {
		return uuid.Nil, "", false
	}
	return userID, planID, true
}

func subscriptionUser(metadata map[string]string) (uuid.UUID, bool) {
	raw := strings.TrimSpace(metadata["user_id"])
	if raw == "" {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
