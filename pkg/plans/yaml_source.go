package plans

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSource loads plan definitions from a YAML file, allowing deployments
// to override the built-in tiers without a code change.
type fileSource struct {
	path string
}

// NewFileSource returns a Source reading plans from the YAML file at path.
//
// Expected document shape:
//
//	plans:
//	  free:
//	    id: free
//	    name: Gratis
//	    rank: 0
//	    limits:
//	      manual_movements: 30
//	      ...
//	    permissions: [manual_movements, manual_cards]
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

type planFile struct {
	Plans map[string]Plan `yaml:"plans"`
}

func (s *fileSource) Load(ctx context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var doc planFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	if len(doc.Plans) == 0 {
		return nil, fmt.Errorf("%w: %s defines no plans", ErrFailedToLoadPlans, s.path)
	}

	return doc.Plans, nil
}
