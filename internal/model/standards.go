package model

import "fmt"

// QualityRule is one weighted editorial check applied to an article
type QualityRule struct {
	ID          string         `json:"id" yaml:"id"`
	Description string         `json:"description" yaml:"description"`
	Weight      float64        `json:"weight" yaml:"weight"`
	Severity    Severity       `json:"severity" yaml:"severity"`
	Enabled     bool           `json:"enabled" yaml:"enabled"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata"`
}

// ContextualRequirement is one check against the focus team context
type ContextualRequirement struct {
	ID          string   `json:"id" yaml:"id"`
	Description string   `json:"description" yaml:"description"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Enabled     bool     `json:"enabled" yaml:"enabled"`
}

// FactualVerificationRule parameterizes claim verification for an article type
type FactualVerificationRule struct {
	ID             string   `json:"id" yaml:"id"`
	Description    string   `json:"description" yaml:"description"`
	TrustedDomains []string `json:"trusted_domains,omitempty" yaml:"trusted_domains"`
	Enabled        bool     `json:"enabled" yaml:"enabled"`
}

// ValidationStandards is the per-article-type rule set.
// Resolved once per run and treated as read-only thereafter.
type ValidationStandards struct {
	ArticleType  string                    `json:"article_type" yaml:"article_type"`
	QualityRules []QualityRule             `json:"quality_rules" yaml:"quality_rules"`
	Contextual   []ContextualRequirement   `json:"contextual_requirements,omitempty" yaml:"contextual_requirements"`
	Factual      []FactualVerificationRule `json:"factual_rules,omitempty" yaml:"factual_rules"`
}

// NewValidationStandards validates a rule set at construction: duplicate
// identifiers within a set and non-positive weights are rejected.
func NewValidationStandards(articleType string, quality []QualityRule, contextual []ContextualRequirement, factual []FactualVerificationRule) (*ValidationStandards, error) {
	seen := make(map[string]bool)
	for _, rule := range quality {
		if rule.ID == "" {
			return nil, fmt.Errorf("quality rule with empty id")
		}
		if seen[rule.ID] {
			return nil, fmt.Errorf("duplicate quality rule id: %s", rule.ID)
		}
		seen[rule.ID] = true
		if rule.Weight <= 0 {
			return nil, fmt.Errorf("quality rule %s: weight must be positive, got %.2f", rule.ID, rule.Weight)
		}
	}

	seen = make(map[string]bool)
	for _, req := range contextual {
		if req.ID == "" || seen[req.ID] {
			return nil, fmt.Errorf("duplicate or empty contextual requirement id: %q", req.ID)
		}
		seen[req.ID] = true
	}

	seen = make(map[string]bool)
	for _, rule := range factual {
		if rule.ID == "" || seen[rule.ID] {
			return nil, fmt.Errorf("duplicate or empty factual rule id: %q", rule.ID)
		}
		seen[rule.ID] = true
	}

	return &ValidationStandards{
		ArticleType:  articleType,
		QualityRules: quality,
		Contextual:   contextual,
		Factual:      factual,
	}, nil
}

// EnabledQualityRules returns the quality rules switched on, in declared order
func (s *ValidationStandards) EnabledQualityRules() []QualityRule {
	var rules []QualityRule
	for _, rule := range s.QualityRules {
		if rule.Enabled {
			rules = append(rules, rule)
		}
	}
	return rules
}

// TrustedDomains collects the union of trusted domains from enabled factual rules
func (s *ValidationStandards) TrustedDomains() []string {
	var domains []string
	seen := make(map[string]bool)
	for _, rule := range s.Factual {
		if !rule.Enabled {
			continue
		}
		for _, d := range rule.TrustedDomains {
			if !seen[d] {
				seen[d] = true
				domains = append(domains, d)
			}
		}
	}
	return domains
}
