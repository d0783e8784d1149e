package plans

import (
	"context"
	"sync"
)

// inMemSource implements Source over a static plan map.
type inMemSource struct {
	mu    sync.RWMutex
	plans map[string]Plan
}

// NewInMemSource returns a Source backed by a deep copy of the given plans.
func NewInMemSource(plans map[string]Plan) Source {
	cp := make(map[string]Plan, len(plans))
	for id, p := range plans {
		cp[id] = p.clone()
	}
	return &inMemSource{plans: cp}
}

// Load returns a copy of all plans from memory.
func (s *inMemSource) Load(ctx context.Context) (map[string]Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make(map[string]Plan, len(s.plans))
	for id, p := range s.plans {
		cp[id] = p.clone()
	}
	return cp, nil
}
