package plans

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Source defines how plan definitions are loaded into a Catalog.
type Source interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// Catalog resolves plan identifiers to their limits and permissions.
// It holds immutable data loaded once at startup and is safe for
// concurrent use without locking.
type Catalog struct {
	plans  map[string]Plan
	byName map[string]string
}

// NewCatalog loads and validates plan definitions from the given source.
func NewCatalog(ctx context.Context, src Source) (*Catalog, error) {
	loaded, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if err := validate(loaded); err != nil {
		return nil, err
	}

	plans := make(map[string]Plan, len(loaded))
	byName := make(map[string]string, len(loaded))
	for id, p := range loaded {
		plans[id] = p.clone()
		byName[p.Name] = id
	}

	return &Catalog{plans: plans, byName: byName}, nil
}

// Get resolves a plan by identifier.
func (c *Catalog) Get(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotFound, id)
	}
	return p.clone(), nil
}

// GetByName resolves a plan by its display name.
func (c *Catalog) GetByName(name string) (Plan, error) {
	id, ok := c.byName[name]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrPlanNotFound, name)
	}
	return c.Get(id)
}

// Limits returns every defined limit key mapped to the plan's quota.
func (c *Catalog) Limits(id string) (map[LimitKey]int64, error) {
	p, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	return p.Limits, nil
}

// Permissions returns the capability set the plan grants.
func (c *Catalog) Permissions(id string) ([]PermissionKey, error) {
	p, err := c.Get(id)
	if err != nil {
		return nil, err
	}
	return p.Permissions, nil
}

// HasPermission reports whether a plan grants the given capability.
func (c *Catalog) HasPermission(id string, key PermissionKey) (bool, error) {
	if !key.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidPermissionKey, key)
	}
	p, err := c.Get(id)
	if err != nil {
		return false, err
	}
	return p.HasPermission(key), nil
}

// Rank returns the plan's tier rank, used only for ordered comparisons.
func (c *Catalog) Rank(id string) (int, error) {
	p, err := c.Get(id)
	if err != nil {
		return 0, err
	}
	return p.Rank, nil
}

// List returns all plans ordered by ascending tier rank.
func (c *Catalog) List() []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// validate rejects catalogs that would make runtime checks ambiguous:
// duplicate ranks, quotas below -1, unknown keys, or a limit key left
// undefined for any plan.
func validate(plans map[string]Plan) error {
	ranks := make(map[int]string, len(plans))
	for id, p := range plans {
		if p.ID != id {
			return fmt.Errorf("%w: plan %q has mismatched id %q", ErrInvalidConfiguration, id, p.ID)
		}
		if prev, dup := ranks[p.Rank]; dup {
			return fmt.Errorf("%w: plans %q and %q share rank %d", ErrInvalidConfiguration, prev, id, p.Rank)
		}
		ranks[p.Rank] = id

		for _, key := range LimitKeys() {
			v, ok := p.Limits[key]
			if !ok {
				return fmt.Errorf("%w: plan %q missing limit %q", ErrInvalidConfiguration, id, key)
			}
			if v < Unlimited {
				return fmt.Errorf("%w: plan %q limit %q is %d", ErrInvalidConfiguration, id, key, v)
			}
		}
		for key := range p.Limits {
			if !key.Valid() {
				return fmt.Errorf("%w: plan %q defines unknown limit %q", ErrInvalidConfiguration, id, key)
			}
		}
		for _, key := range p.Permissions {
			if !key.Valid() {
				return fmt.Errorf("%w: plan %q grants unknown permission %q", ErrInvalidConfiguration, id, key)
			}
		}
	}
	return nil
}
