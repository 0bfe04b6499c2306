package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TeamContext describes the team an article is supposed to be about
type TeamContext struct {
	Name         string   `json:"name"`
	Aliases      []string `json:"aliases,omitempty"`
	Abbreviation string   `json:"abbreviation,omitempty"`
	League       string   `json:"league,omitempty"`
}

// Tokens returns the lower-cased set of tokens identifying the team
func (t *TeamContext) Tokens() []string {
	if t == nil {
		return nil
	}
	var tokens []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			tokens = append(tokens, s)
		}
	}
	add(t.Name)
	add(t.Abbreviation)
	for _, alias := range t.Aliases {
		add(alias)
	}
	return tokens
}

// ValidationRequest is the validated input to one gate run.
// Article is always a mapping (raw strings are wrapped as {content: text})
// and ArticleType is always non-empty and lower-cased.
type ValidationRequest struct {
	Article         map[string]any       `json:"article"`
	ArticleType     string               `json:"article_type"`
	TeamContext     *TeamContext         `json:"team_context,omitempty"`
	SourceSummaries []string             `json:"source_summaries,omitempty"`
	QualityOverride *ValidationStandards `json:"quality_standards,omitempty"`

	LLM         LLMConfig         `json:"llm"`
	Validation  ValidationConfig  `json:"validation_config"`
	Persistence PersistenceConfig `json:"persistence"`
}

// NewValidationRequest builds a normalized request from a raw article payload.
// The article may be a string, a mapping, or anything JSON-shaped; anything
// that is not a mapping is wrapped under a "content" key.
func NewValidationRequest(article any, articleType string) (*ValidationRequest, error) {
	articleType = strings.ToLower(strings.TrimSpace(articleType))
	if articleType == "" {
		return nil, fmt.Errorf("article_type is required")
	}

	req := &ValidationRequest{
		Article:     NormalizeArticle(article),
		ArticleType: articleType,
		LLM:         DefaultLLMConfig(),
		Validation:  DefaultValidationConfig(),
	}
	return req, nil
}

// NormalizeArticle coerces an arbitrary payload into a mapping
func NormalizeArticle(article any) map[string]any {
	switch v := article.(type) {
	case nil:
		return map[string]any{}
	case map[string]any:
		return v
	case string:
		return map[string]any{"content": v}
	default:
		return map[string]any{"content": fmt.Sprintf("%v", v)}
	}
}

// ParseRequest decodes a JSON request body into a normalized ValidationRequest.
// Config blocks merge field-by-field onto the defaults: keys absent from a
// partial block keep their default values. The result is re-validated.
func ParseRequest(data []byte) (*ValidationRequest, error) {
	var raw struct {
		Article         json.RawMessage      `json:"article"`
		ArticleType     string               `json:"article_type"`
		TeamContext     *TeamContext         `json:"team_context"`
		SourceSummaries []string             `json:"source_summaries"`
		QualityOverride *ValidationStandards `json:"quality_standards"`
		LLM             json.RawMessage      `json:"llm"`
		Validation      json.RawMessage      `json:"validation_config"`
		Persistence     json.RawMessage      `json:"persistence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	var article any
	if len(raw.Article) > 0 {
		if err := json.Unmarshal(raw.Article, &article); err != nil {
			return nil, fmt.Errorf("decode article: %w", err)
		}
	}

	req, err := NewValidationRequest(article, raw.ArticleType)
	if err != nil {
		return nil, err
	}
	req.TeamContext = raw.TeamContext
	req.SourceSummaries = raw.SourceSummaries
	req.QualityOverride = raw.QualityOverride

	// req.LLM and req.Validation already hold the defaults; unmarshalling on
	// top only overwrites the keys the request actually supplies.
	if len(raw.LLM) > 0 {
		if err := json.Unmarshal(raw.LLM, &req.LLM); err != nil {
			return nil, fmt.Errorf("decode llm config: %w", err)
		}
	}
	if len(raw.Validation) > 0 {
		if err := json.Unmarshal(raw.Validation, &req.Validation); err != nil {
			return nil, fmt.Errorf("decode validation config: %w", err)
		}
	}
	if len(raw.Persistence) > 0 {
		if err := json.Unmarshal(raw.Persistence, &req.Persistence); err != nil {
			return nil, fmt.Errorf("decode persistence config: %w", err)
		}
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate applies fail-fast configuration checks
func (r *ValidationRequest) Validate() error {
	if r.ArticleType == "" {
		return fmt.Errorf("article_type is required")
	}
	if err := r.LLM.Validate(); err != nil {
		return fmt.Errorf("llm config: %w", err)
	}
	if err := r.Validation.Validate(); err != nil {
		return fmt.Errorf("validation config: %w", err)
	}
	if err := r.Persistence.Validate(); err != nil {
		return fmt.Errorf("persistence config: %w", err)
	}
	return nil
}
