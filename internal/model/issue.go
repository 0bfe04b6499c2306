package model

// Severity indicates how serious a validation issue is
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// IssueCategory classifies which validation axis produced an issue
type IssueCategory string

const (
	CategoryFactual    IssueCategory = "factual"
	CategoryContextual IssueCategory = "contextual"
	CategoryQuality    IssueCategory = "quality"
	CategoryGeneral    IssueCategory = "general"
)

// ValidationIssue is a single finding attached to a dimension.
// Immutable after construction.
type ValidationIssue struct {
	Severity   Severity      `json:"severity"`
	Category   IssueCategory `json:"category"`
	Message    string        `json:"message"`
	Location   string        `json:"location,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
	SourceURL  string        `json:"source_url,omitempty"`
}

// NewIssue creates a validation issue, normalizing unknown severity/category
// values to safe defaults so malformed model output can never produce an
// unclassifiable issue.
func NewIssue(severity Severity, category IssueCategory, message string) ValidationIssue {
	switch severity {
	case SeverityCritical, SeverityWarning, SeverityInfo:
	default:
		severity = SeverityInfo
	}
	switch category {
	case CategoryFactual, CategoryContextual, CategoryQuality, CategoryGeneral:
	default:
		category = CategoryGeneral
	}
	if message == "" {
		message = "unspecified issue"
	}
	return ValidationIssue{
		Severity: severity,
		Category: category,
		Message:  message,
	}
}
