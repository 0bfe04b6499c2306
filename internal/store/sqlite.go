package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/releasegate/releasegate/internal/model"
)

// ReportRecord is the persisted row for one validation run
type ReportRecord struct {
	ID           uint   `gorm:"primaryKey"`
	ArticleType  string `gorm:"index"`
	Status       string
	Decision     string
	IsReleasable bool
	Payload      string `gorm:"type:text"`
	CreatedAt    time.Time
}

// SQLiteSink persists reports into a sqlite database
type SQLiteSink struct {
	db    *gorm.DB
	table string
}

// NewSQLiteSink opens (or creates) the database and migrates the table
func NewSQLiteSink(path, table string) (*SQLiteSink, error) {
	if path == "" {
		path = "releasegate.db"
	}
	if table == "" {
		table = "validation_reports"
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.Table(table).AutoMigrate(&ReportRecord{}); err != nil {
		return nil, fmt.Errorf("migrate %s: %w", table, err)
	}

	return &SQLiteSink{db: db, table: table}, nil
}

// Save inserts one report row
func (s *SQLiteSink) Save(ctx context.Context, report *model.ValidationReport) error {
	payload, err := report.Serialize()
	if err != nil {
		return fmt.Errorf("serialize report: %w", err)
	}

	record := ReportRecord{
		ArticleType:  report.ArticleType,
		Status:       string(report.Status),
		Decision:     string(report.Decision),
		IsReleasable: report.IsReleasable,
		Payload:      string(payload),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Table(s.table).Create(&record).Error; err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}
