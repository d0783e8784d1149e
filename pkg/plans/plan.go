package plans

import "slices"

// Plan describes a subscription tier and the limits and capabilities it
// grants. Plans are immutable reference data: created by configuration or
// migration, never mutated at runtime.
type Plan struct {
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	Rank        int                `json:"rank" yaml:"rank"` // free < basic < premium < pro
	PriceCLP    int64              `json:"price_clp" yaml:"price_clp"`
	Limits      map[LimitKey]int64 `json:"limits" yaml:"limits"`
	Permissions []PermissionKey    `json:"permissions" yaml:"permissions"`
	Features    []string           `json:"features" yaml:"features"` // human-readable plan page bullets
}

// Limit returns the quota for a key and whether the plan defines it.
// A missing key is a configuration problem, never an implicit allow or deny.
func (p Plan) Limit(key LimitKey) (int64, bool) {
	v, ok := p.Limits[key]
	return v, ok
}

// HasPermission reports whether the plan grants the capability.
func (p Plan) HasPermission(key PermissionKey) bool {
	return slices.Contains(p.Permissions, key)
}

// AtLeast reports whether the plan's tier is at least as capable as other,
// by rank ordering only.
func (p Plan) AtLeast(other Plan) bool {
	return p.Rank >= other.Rank
}

// clone returns a deep copy so catalog consumers can never mutate the
// shared definitions.
func (p Plan) clone() Plan {
	cp := p
	cp.Limits = make(map[LimitKey]int64, len(p.Limits))
	for k, v := range p.Limits {
		cp.Limits[k] = v
	}
	cp.Permissions = slices.Clone(p.Permissions)
	cp.Features = slices.Clone(p.Features)
	return cp
}
