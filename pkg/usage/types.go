package usage

import "github.com/miplata/core/pkg/plans"

// Snapshot is the current consumption of one metered resource for one user,
// with the quota resolved from the user's current plan at call time.
//
// Remaining is limit - used for finite quotas (never below zero) and -1 for
// unlimited ones. Unavailable means the count could not be computed; such a
// snapshot must never be read as "zero usage".
type Snapshot struct {
	Used        int64 `json:"used"`
	Limit       int64 `json:"limit"`
	Remaining   int64 `json:"remaining"`
	Unavailable bool  `json:"unavailable,omitempty"`
}

// Unlimited reports whether the resolved quota has no cap.
func (s Snapshot) Unlimited() bool {
	return plans.IsUnlimited(s.Limit)
}

func newSnapshot(used, limit int64) Snapshot {
	if plans.IsUnlimited(limit) {
		return Snapshot{Used: used, Limit: plans.Unlimited, Remaining: plans.Unlimited}
	}
	return Snapshot{Used: used, Limit: limit, Remaining: max(limit-used, 0)}
}

func unavailableSnapshot(limit int64) Snapshot {
	return Snapshot{Limit: limit, Unavailable: true}
}
