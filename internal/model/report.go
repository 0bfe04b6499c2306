package model

import (
	"encoding/json"
	"time"
)

// ReportStatus describes how the validation run completed
type ReportStatus string

const (
	StatusSuccess ReportStatus = "success"
	StatusPartial ReportStatus = "partial" // at least one dimension timed out
	StatusError   ReportStatus = "error"   // orchestration itself failed
)

// Decision is the final releasability verdict
type Decision string

const (
	DecisionRelease        Decision = "release"
	DecisionReject         Decision = "reject"
	DecisionReviewRequired Decision = "review_required"
)

// ValidationReport is the single structured output of a gate run.
// Created exactly once per validation; immutable after return.
type ValidationReport struct {
	Status       ReportStatus `json:"status"`
	Decision     Decision     `json:"decision"`
	IsReleasable bool         `json:"is_releasable"`

	Factual    *ValidationDimension `json:"factual"`
	Contextual *ValidationDimension `json:"contextual"`
	Quality    *ValidationDimension `json:"quality"`

	RejectionReasons []string `json:"rejection_reasons"`
	ReviewReasons    []string `json:"review_reasons"`

	ArticleType         string `json:"article_type"`
	ValidationTimestamp string `json:"validation_timestamp"`
	ProcessingTimeMS    int64  `json:"processing_time_ms"`
	Error               string `json:"error,omitempty"`
}

// NewReport creates a report stamped with the current UTC time
func NewReport(articleType string) *ValidationReport {
	return &ValidationReport{
		Status:              StatusSuccess,
		Decision:            DecisionReviewRequired,
		ArticleType:         articleType,
		ValidationTimestamp: time.Now().UTC().Format(time.RFC3339),
		RejectionReasons:    []string{},
		ReviewReasons:       []string{},
	}
}

// Dimension returns the stored dimension by name
func (r *ValidationReport) Dimension(name DimensionName) *ValidationDimension {
	switch name {
	case DimensionFactual:
		return r.Factual
	case DimensionContextual:
		return r.Contextual
	case DimensionQuality:
		return r.Quality
	}
	return nil
}

// SetDimension stores a dimension result by name
func (r *ValidationReport) SetDimension(name DimensionName, dim *ValidationDimension) {
	switch name {
	case DimensionFactual:
		r.Factual = dim
	case DimensionContextual:
		r.Contextual = dim
	case DimensionQuality:
		r.Quality = dim
	}
}

// Serialize renders the report as indented JSON for sinks and CLI output
func (r *ValidationReport) Serialize() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
