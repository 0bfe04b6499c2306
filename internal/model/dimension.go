package model

// DimensionName identifies one validation axis
type DimensionName string

const (
	DimensionFactual    DimensionName = "factual"
	DimensionContextual DimensionName = "contextual"
	DimensionQuality    DimensionName = "quality"
)

// ValidationDimension is the outcome of one dimension check.
// Score and confidence are always clamped to [0, 1]; a disabled dimension
// is never marked passed.
type ValidationDimension struct {
	Name       DimensionName     `json:"-"`
	Enabled    bool              `json:"enabled"`
	Score      float64           `json:"score"`
	Confidence float64           `json:"confidence"`
	Passed     bool              `json:"passed"`
	Issues     []ValidationIssue `json:"issues"`
	Details    map[string]any    `json:"details,omitempty"`
}

// NewDimension creates a dimension result with clamped score/confidence
func NewDimension(name DimensionName, enabled bool, score, confidence float64, passed bool) *ValidationDimension {
	if !enabled {
		passed = false
	}
	return &ValidationDimension{
		Name:       name,
		Enabled:    enabled,
		Score:      Clamp01(score),
		Confidence: Clamp01(confidence),
		Passed:     passed,
		Issues:     []ValidationIssue{},
		Details:    map[string]any{},
	}
}

// DisabledDimension synthesizes the placeholder used when a dimension is
// switched off: non-penalizing score, never passed.
func DisabledDimension(name DimensionName) *ValidationDimension {
	d := NewDimension(name, false, 1.0, 1.0, false)
	d.Details["skipped"] = true
	return d
}

// AddIssue appends a single issue
func (d *ValidationDimension) AddIssue(issue ValidationIssue) {
	d.Issues = append(d.Issues, issue)
}

// ExtendIssues appends multiple issues preserving order
func (d *ValidationDimension) ExtendIssues(issues []ValidationIssue) {
	d.Issues = append(d.Issues, issues...)
}

// HasSeverity reports whether any issue carries the given severity
func (d *ValidationDimension) HasSeverity(severity Severity) bool {
	for _, issue := range d.Issues {
		if issue.Severity == severity {
			return true
		}
	}
	return false
}

// Clamp01 bounds a value to [0.0, 1.0]
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
