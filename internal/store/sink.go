// Package store persists validation reports. Persistence is best-effort:
// sink failures are logged by the caller, never surfaced to the requester.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/releasegate/releasegate/internal/model"
)

// Sink accepts serialized validation reports
type Sink interface {
	Save(ctx context.Context, report *model.ValidationReport) error
}

// NewSink creates a sink from persistence configuration; a nil sink means
// persistence is disabled.
func NewSink(cfg model.PersistenceConfig) (Sink, error) {
	switch strings.ToLower(cfg.Driver) {
	case "":
		return nil, nil
	case "file":
		return NewFileSink(cfg.Path)
	case "sqlite":
		return NewSQLiteSink(cfg.Path, cfg.Table)
	default:
		return nil, fmt.Errorf("unknown persistence driver: %s", cfg.Driver)
	}
}

// FileSink writes each report as a timestamped JSON artifact
type FileSink struct {
	dir string
}

// NewFileSink creates a sink writing into dir, creating it if needed
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		dir = "reports"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory: %w", err)
	}
	return &FileSink{dir: dir}, nil
}

// Save writes the serialized report to a unique file
func (s *FileSink) Save(_ context.Context, report *model.ValidationReport) error {
	data, err := report.Serialize()
	if err != nil {
		return fmt.Errorf("serialize report: %w", err)
	}

	name := fmt.Sprintf("%s-%s.json", report.ArticleType, time.Now().UTC().Format("20060102T150405.000"))
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
