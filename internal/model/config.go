package model

import (
	"fmt"
	"strings"
)

const (
	// MinTimeoutSeconds and MaxTimeoutSeconds bound the overall validation deadline
	MinTimeoutSeconds = 30
	MaxTimeoutSeconds = 120
)

// LLMConfig holds connection settings for the model endpoint
type LLMConfig struct {
	Provider             string  `json:"provider" yaml:"provider"`
	Model                string  `json:"model" yaml:"model"`
	APIKey               string  `json:"api_key,omitempty" yaml:"api_key"`
	BaseURL              string  `json:"base_url,omitempty" yaml:"base_url"`
	MaxTokens            int     `json:"max_tokens" yaml:"max_tokens"`
	Temperature          float32 `json:"temperature" yaml:"temperature"`
	RequestTimeout       int     `json:"request_timeout" yaml:"request_timeout"` // seconds, per call
	MaxRequestsPerMinute int     `json:"max_requests_per_minute" yaml:"max_requests_per_minute"`
}

// DefaultLLMConfig returns sensible defaults
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:             "openai",
		Model:                "",
		MaxTokens:            1500,
		Temperature:          0.2,
		RequestTimeout:       30,
		MaxRequestsPerMinute: 30,
	}
}

// Validate checks LLM configuration for fail-fast errors
func (c LLMConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("llm provider is required")
	}
	if c.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("max_requests_per_minute must be positive, got %d", c.MaxRequestsPerMinute)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %d", c.RequestTimeout)
	}
	return nil
}

// ValidationConfig controls which dimensions run and how they pass.
// Created once per request, immutable after validation.
type ValidationConfig struct {
	EnableFactual    bool `json:"enable_factual" yaml:"enable_factual"`
	EnableContextual bool `json:"enable_contextual" yaml:"enable_contextual"`
	EnableQuality    bool `json:"enable_quality" yaml:"enable_quality"`

	FactualThreshold    float64 `json:"factual_threshold" yaml:"factual_threshold"`
	ContextualThreshold float64 `json:"contextual_threshold" yaml:"contextual_threshold"`
	QualityThreshold    float64 `json:"quality_threshold" yaml:"quality_threshold"`
	ConfidenceThreshold float64 `json:"confidence_threshold" yaml:"confidence_threshold"`

	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// DefaultValidationConfig returns the standard gate configuration
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		EnableFactual:       true,
		EnableContextual:    true,
		EnableQuality:       true,
		FactualThreshold:    0.8,
		ContextualThreshold: 0.7,
		QualityThreshold:    0.7,
		ConfidenceThreshold: 0.5,
		TimeoutSeconds:      60,
	}
}

// Validate checks thresholds and bounds the timeout.
// Configuration errors fail fast at request-construction time.
func (c *ValidationConfig) Validate() error {
	for name, v := range map[string]float64{
		"factual_threshold":    c.FactualThreshold,
		"contextual_threshold": c.ContextualThreshold,
		"quality_threshold":    c.QualityThreshold,
		"confidence_threshold": c.ConfidenceThreshold,
	} {
		if v < 0.0 || v > 1.0 {
			return fmt.Errorf("%s must be in [0.0, 1.0], got %.2f", name, v)
		}
	}
	if c.TimeoutSeconds < MinTimeoutSeconds {
		c.TimeoutSeconds = MinTimeoutSeconds
	}
	if c.TimeoutSeconds > MaxTimeoutSeconds {
		c.TimeoutSeconds = MaxTimeoutSeconds
	}
	return nil
}

// Threshold returns the pass threshold configured for a dimension
func (c ValidationConfig) Threshold(name DimensionName) float64 {
	switch name {
	case DimensionFactual:
		return c.FactualThreshold
	case DimensionContextual:
		return c.ContextualThreshold
	case DimensionQuality:
		return c.QualityThreshold
	}
	return 0
}

// Enabled reports whether a dimension is switched on
func (c ValidationConfig) Enabled(name DimensionName) bool {
	switch name {
	case DimensionFactual:
		return c.EnableFactual
	case DimensionContextual:
		return c.EnableContextual
	case DimensionQuality:
		return c.EnableQuality
	}
	return false
}

// PersistenceConfig selects the report sink
type PersistenceConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "", "file" or "sqlite"
	Path   string `json:"path" yaml:"path"`     // directory (file) or database path (sqlite)
	Table  string `json:"table,omitempty" yaml:"table"`
}

// Validate checks the sink selection
func (c PersistenceConfig) Validate() error {
	switch strings.ToLower(c.Driver) {
	case "", "file", "sqlite":
		return nil
	default:
		return fmt.Errorf("unknown persistence driver: %s (supported: file, sqlite)", c.Driver)
	}
}
