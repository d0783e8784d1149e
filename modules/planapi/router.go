package planapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/miplata/core/pkg/entitlement"
	"github.com/miplata/core/pkg/logger"
	"github.com/miplata/core/pkg/plans"
)

// Handle mounts the plan API routes.
func (s *Service) Handle() http.Handler {
	r := chi.NewRouter()

	r.Get("/plans", s.listPlans)

	r.Group(func(r chi.Router) {
		r.Use(RequireUser)
		r.Get("/me/entitlements", s.entitlements)
		r.Get("/me/limits", s.limits)
		r.Get("/me/permissions", s.permissions)
		r.Get("/me/permissions/{key}", s.permission)
		r.Get("/me/usage", s.usage)
		r.Get("/me/features", s.features)
		r.Post("/me/check", s.check)
		r.Post("/me/check/batch", s.checkBatch)
	})

	return r
}

// listPlans returns the public catalog, cheapest first.
func (s *Service) listPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"plans": s.catalog.List()})
}

// loadedState returns the session state, triggering the initial load when
// this is the first touch of the session.
func (s *Service) loadedState(r *http.Request, userID uuid.UUID) (entitlement.State, error) {
	store, err := s.sessions.Get(userID)
	if err != nil {
		return entitlement.State{}, err
	}
	state := store.State()
	if !state.Loaded() {
		state = store.Refresh(r.Context())
	}
	return state, nil
}

func (s *Service) entitlements(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	state, err := s.loadedState(r, userID)
	if err != nil {
		s.logger.LogAttrs(r.Context(), slog.LevelError, "failed to load entitlement state",
			logger.UserID(userID.String()), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load entitlements")
		return
	}
	if !state.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "entitlements unavailable, try again shortly")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Service) limits(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	state, err := s.loadedState(r, userID)
	if err != nil || !state.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "limits unavailable, try again shortly")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id": state.Plan.ID,
		"limits":  state.Plan.Limits,
	})
}

func (s *Service) permissions(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	state, err := s.loadedState(r, userID)
	if err != nil || !state.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "permissions unavailable, try again shortly")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id":     state.Plan.ID,
		"permissions": state.Plan.Permissions,
	})
}

func (s *Service) permission(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	key := plans.PermissionKey(chi.URLParam(r, "key"))

	check, err := s.evaluator.HasPermission(r.Context(), userID, key)
	if err != nil {
		if errors.Is(err, entitlement.ErrConfiguration) {
			writeError(w, http.StatusBadRequest, "unknown permission key")
			return
		}
		writeError(w, http.StatusInternalServerError, "permission check failed")
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (s *Service) usage(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	store, err := s.sessions.Get(userID)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "usage unavailable, try again shortly")
		return
	}

	// usage is the one endpoint that always recounts: it backs the
	// dashboard widgets users refresh to watch their consumption
	state := store.Refresh(r.Context())
	if !state.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "usage unavailable, try again shortly")
		return
	}
	if s.observer != nil {
		go s.observer.Observe(context.WithoutCancel(r.Context()), userID, state.Usage)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plan_id": state.Plan.ID,
		"usage":   state.Usage,
	})
}

func (s *Service) features(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	state, err := s.loadedState(r, userID)
	if err != nil || !state.Loaded() {
		writeError(w, http.StatusServiceUnavailable, "features unavailable, try again shortly")
		return
	}
	writeJSON(w, http.StatusOK, state.Features)
}

type checkRequest struct {
	Key    plans.LimitKey `json:"key"`
	Amount int64          `json:"amount"`
}

func (s *Service) check(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Amount == 0 {
		req.Amount = 1
	}

	check, err := s.evaluator.CanPerform(r.Context(), userID, req.Key, req.Amount)
	if err != nil {
		if errors.Is(err, entitlement.ErrConfiguration) {
			writeError(w, http.StatusBadRequest, "invalid limit check")
			return
		}
		writeError(w, http.StatusInternalServerError, "limit check failed")
		return
	}
	writeJSON(w, http.StatusOK, check)
}

type batchCheckRequest struct {
	Checks []entitlement.CheckRequest `json:"checks"`
}

func (s *Service) checkBatch(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	var req batchCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	batch, err := s.evaluator.CanPerformAll(r.Context(), userID, req.Checks)
	if err != nil {
		if errors.Is(err, entitlement.ErrConfiguration) {
			writeError(w, http.StatusBadRequest, "invalid batch check")
			return
		}
		writeError(w, http.StatusInternalServerError, "limit check failed")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}
