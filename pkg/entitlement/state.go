package entitlement

import (
	"time"

	"github.com/miplata/core/pkg/plans"
	"github.com/miplata/core/pkg/usage"
)

// Status is the lifecycle phase of a session's entitlement state.
type Status string

const (
	// StatusUnloaded means nothing has been loaded this session yet.
	StatusUnloaded Status = "unloaded"
	// StatusLoading means a reload is in flight. Previously loaded data,
	// if any, remains readable.
	StatusLoading Status = "loading"
	// StatusLoaded means Plan, Usage and Features reflect the last
	// successful load. A failed refresh keeps the previous loaded state.
	StatusLoaded Status = "loaded"
)

// State is the session-scoped bundle of everything entitlement consumers
// need: the user's plan, a usage snapshot for every metered key, and the
// derived feature flags. It is a value: observers receive copies and can
// never mutate the store's view.
type State struct {
	Status   Status                            `json:"status"`
	Plan     plans.Plan                        `json:"plan"`
	Usage    map[plans.LimitKey]usage.Snapshot `json:"usage"`
	Features FeatureControl                    `json:"features"`
	LoadedAt time.Time                         `json:"loaded_at"`
}

// Loaded reports whether the state carries usable data.
func (s State) Loaded() bool {
	return s.Status == StatusLoaded
}

func (s State) clone() State {
	cp := s
	cp.Plan = clonePlan(s.Plan)
	cp.Usage = make(map[plans.LimitKey]usage.Snapshot, len(s.Usage))
	for k, v := range s.Usage {
		cp.Usage[k] = v
	}
	return cp
}

func clonePlan(p plans.Plan) plans.Plan {
	cp := p
	cp.Limits = make(map[plans.LimitKey]int64, len(p.Limits))
	for k, v := range p.Limits {
		cp.Limits[k] = v
	}
	cp.Permissions = append([]plans.PermissionKey(nil), p.Permissions...)
	cp.Features = append([]string(nil), p.Features...)
	return cp
}
