package check

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/releasegate/releasegate/internal/extract"
	"github.com/releasegate/releasegate/internal/model"
)

// ruleConcurrency bounds parallel rule evaluations
const ruleConcurrency = 3

// ruleResult is one rule's outcome, slotted by input index
type ruleResult struct {
	passed      bool
	confidence  float64
	explanation string
	errored     bool
}

// QualityValidator evaluates the article against the enabled quality rules
// for its type. Rules carrying a required_fields metadata list are checked
// structurally without a model call; everything else is judged by the LLM
// under the entity context policy.
type QualityValidator struct {
	client ModelClient
	logger *zap.Logger
}

// NewQualityValidator creates a quality validator
func NewQualityValidator(client ModelClient, logger *zap.Logger) *QualityValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QualityValidator{client: client, logger: logger}
}

// Validate produces the quality dimension for the resolved standards
func (v *QualityValidator) Validate(ctx context.Context, article map[string]any, standards *model.ValidationStandards, articleType string) *model.ValidationDimension {
	rules := standards.EnabledQualityRules()
	dim := model.NewDimension(model.DimensionQuality, true, 1.0, 1.0, true)
	dim.Details["article_type"] = articleType

	if len(rules) == 0 {
		dim.Details["rules_evaluated"] = 0
		return dim
	}

	articleText := truncate(extract.FlattenText(article), articleTextLimit)
	results := v.evaluateRules(ctx, article, articleText, rules)

	totalWeight := 0.0
	passedWeight := 0.0
	weightedConfidence := 0.0
	violations := 0
	errorCount := 0

	for i, rule := range rules {
		result := results[i]
		totalWeight += rule.Weight
		weightedConfidence += rule.Weight * result.confidence

		switch {
		case result.errored:
			errorCount++
			dim.AddIssue(model.NewIssue(rule.Severity, model.CategoryQuality,
				fmt.Sprintf("rule %s could not be evaluated: %s", rule.ID, result.explanation)))
		case result.passed:
			passedWeight += rule.Weight
		default:
			violations++
			issue := model.NewIssue(rule.Severity, model.CategoryQuality,
				fmt.Sprintf("rule %s failed: %s", rule.ID, result.explanation))
			issue.Suggestion = rule.Description
			dim.AddIssue(issue)
		}
	}

	dim.Score = model.Clamp01(passedWeight / totalWeight)
	dim.Confidence = model.Clamp01(weightedConfidence / totalWeight)
	dim.Passed = violations == 0 && errorCount == 0

	dim.Details["rules_evaluated"] = len(rules)
	dim.Details["violations"] = violations
	dim.Details["evaluation_errors"] = errorCount

	return dim
}

// evaluateRules runs the rules under bounded concurrency; results are
// slotted by input index, never by completion order.
func (v *QualityValidator) evaluateRules(ctx context.Context, article map[string]any, articleText string, rules []model.QualityRule) []ruleResult {
	results := make([]ruleResult, len(rules))
	semaphore := make(chan struct{}, ruleConcurrency)
	var wg sync.WaitGroup

	for i, rule := range rules {
		// Structural rules never touch the model.
		if fields := requiredFields(rule); len(fields) > 0 {
			results[i] = checkRequiredFields(article, fields)
			continue
		}

		wg.Add(1)
		go func(idx int, r model.QualityRule) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = ruleResult{errored: true, explanation: "evaluation cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			verdict, err := v.client.EvaluateQualityRule(ctx, r, articleText)
			if err != nil {
				v.logger.Warn("rule evaluation failed", zap.String("rule", r.ID), zap.Error(err))
				results[idx] = ruleResult{errored: true, explanation: err.Error()}
				return
			}
			results[idx] = ruleResult{
				passed:      verdict.Passed,
				confidence:  verdict.Confidence,
				explanation: verdict.Explanation,
			}
		}(i, rule)
	}
	wg.Wait()

	return results
}

// requiredFields reads the required_fields metadata list off a rule
func requiredFields(rule model.QualityRule) []string {
	raw, ok := rule.Metadata["required_fields"]
	if !ok {
		return nil
	}

	var fields []string
	switch list := raw.(type) {
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				fields = append(fields, s)
			}
		}
	case []string:
		fields = list
	}
	return fields
}

// checkRequiredFields verifies each named field is present and non-empty
func checkRequiredFields(article map[string]any, fields []string) ruleResult {
	var missing []string
	for _, field := range fields {
		value, ok := extract.FieldValue(article, field)
		if !ok || strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}

	if len(missing) > 0 {
		return ruleResult{
			passed:      false,
			confidence:  1.0,
			explanation: fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
		}
	}
	return ruleResult{passed: true, confidence: 1.0, explanation: "all required fields present"}
}
