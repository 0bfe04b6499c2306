// Package standards resolves the per-article-type rule sets that
// parameterize the dimension checkers.
package standards

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"

	"github.com/releasegate/releasegate/internal/model"
)

const (
	cacheTTL        = 5 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// Resolver looks up validation standards for an article type.
// Precedence: request override → per-type YAML file → generic fallback.
// File loads are cached; resolved standards are treated as read-only.
type Resolver struct {
	dir   string
	cache *gocache.Cache
}

// NewResolver creates a resolver reading standards files from dir.
// An empty dir disables file lookup (override or fallback only).
func NewResolver(dir string) *Resolver {
	return &Resolver{
		dir:   dir,
		cache: gocache.New(cacheTTL, cleanupInterval),
	}
}

// Resolve returns the standards for an article type
func (r *Resolver) Resolve(articleType string, override *model.ValidationStandards) (*model.ValidationStandards, error) {
	if override != nil {
		validated, err := model.NewValidationStandards(articleType, override.QualityRules, override.Contextual, override.Factual)
		if err != nil {
			return nil, fmt.Errorf("quality standards override: %w", err)
		}
		return validated, nil
	}

	if r.dir != "" {
		if cached, found := r.cache.Get(articleType); found {
			return cached.(*model.ValidationStandards), nil
		}
		if loaded, err := r.loadFile(articleType); err == nil {
			r.cache.Set(articleType, loaded, gocache.DefaultExpiration)
			return loaded, nil
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return GenericFallback(articleType), nil
}

// loadFile reads {dir}/{articleType}.yaml
func (r *Resolver) loadFile(articleType string) (*model.ValidationStandards, error) {
	path := filepath.Join(r.dir, articleType+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw model.ValidationStandards
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse standards file %s: %w", path, err)
	}

	validated, err := model.NewValidationStandards(articleType, raw.QualityRules, raw.Contextual, raw.Factual)
	if err != nil {
		return nil, fmt.Errorf("standards file %s: %w", path, err)
	}
	return validated, nil
}

// GenericFallback is the builtin two-rule standard used when nothing more
// specific exists for an article type.
func GenericFallback(articleType string) *model.ValidationStandards {
	standards, err := model.NewValidationStandards(articleType,
		[]model.QualityRule{
			{
				ID:          "completeness",
				Description: "The article must have a non-empty headline and body content.",
				Weight:      2.0,
				Severity:    model.SeverityCritical,
				Enabled:     true,
				Metadata:    map[string]any{"required_fields": []any{"headline", "content"}},
			},
			{
				ID:          "readability",
				Description: "The article reads as coherent, publishable sports journalism.",
				Weight:      1.0,
				Severity:    model.SeverityWarning,
				Enabled:     true,
			},
		},
		nil, nil)
	if err != nil {
		// Static rule set; construction cannot fail.
		panic(err)
	}
	return standards
}
