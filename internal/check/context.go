package check

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/releasegate/releasegate/internal/extract"
	"github.com/releasegate/releasegate/internal/llm"
	"github.com/releasegate/releasegate/internal/model"
)

const (
	// maxEntities caps how many named entities are verified per run
	maxEntities = 12

	// entityConcurrency bounds parallel entity verifications
	entityConcurrency = 3

	// contextPassBar is the deliberately lenient pass threshold, tolerating
	// partial model unreliability.
	contextPassBar = 0.70

	// articleTextLimit keeps entity extraction prompts within budget
	articleTextLimit = 6000
)

// transactionVocabulary marks legitimate counterparty or former-team
// mentions; a mismatch carrying one of these words alongside a team token is
// re-accepted.
var transactionVocabulary = []string{
	"traded", "trade", "acquired", "signed", "waived", "released",
	"claimed", "dealt", "sent", "exchange", "former", "previous team",
}

// contextEntity is one named entity extracted from the article
type contextEntity struct {
	Name     string
	Type     string
	Evidence string
}

// entityResult is one entity's verification outcome, slotted by input index
type entityResult struct {
	isMatch    bool
	matchScore float64
	message    string
	overridden bool
	failed     bool
}

// ContextValidator checks that every named entity in the article aligns with
// the focus team. Verification is biased toward is_match=true unless there
// is clear disproving evidence, tolerating stale model knowledge.
type ContextValidator struct {
	client ModelClient
	logger *zap.Logger
}

// NewContextValidator creates a context validator
func NewContextValidator(client ModelClient, logger *zap.Logger) *ContextValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContextValidator{client: client, logger: logger}
}

// Validate produces the contextual dimension. Without a team context the
// dimension fails with a single diagnostic warning: there is no subject team
// to validate against.
func (v *ContextValidator) Validate(ctx context.Context, article map[string]any, teamCtx *model.TeamContext, standards *model.ValidationStandards) *model.ValidationDimension {
	teamTokens := teamCtx.Tokens()
	if len(teamTokens) == 0 {
		dim := model.NewDimension(model.DimensionContextual, true, 0, 0, false)
		dim.AddIssue(model.NewIssue(model.SeverityWarning, model.CategoryContextual,
			"no team context provided; cannot validate article focus"))
		return dim
	}

	articleText := truncate(extract.FlattenText(article), articleTextLimit)

	entities := v.extractEntities(ctx, articleText)
	if len(entities) == 0 {
		dim := model.NewDimension(model.DimensionContextual, true, 0, 0, false)
		dim.AddIssue(model.NewIssue(model.SeverityWarning, model.CategoryContextual,
			"no named entities extracted; cannot validate article focus"))
		return dim
	}

	results := v.verifyEntities(ctx, entities, teamCtx, teamTokens)

	dim := model.NewDimension(model.DimensionContextual, true, 1.0, 1.0, true)
	scoreSum := 0.0
	mismatches := 0
	overrides := 0
	failures := 0

	for i, result := range results {
		scoreSum += result.matchScore
		if result.overridden {
			overrides++
		}
		if result.failed {
			failures++
		}
		if !result.isMatch {
			mismatches++
			issue := model.NewIssue(model.SeverityWarning, model.CategoryContextual,
				fmt.Sprintf("entity %q may not belong to %s: %s", entities[i].Name, teamCtx.Name, result.message))
			dim.AddIssue(issue)
		}
	}

	dim.Score = model.Clamp01(scoreSum / float64(len(results)))
	dim.Confidence = dim.Score
	dim.Passed = dim.Score >= contextPassBar

	dim.Details["entities_checked"] = len(entities)
	dim.Details["mismatches"] = mismatches
	dim.Details["transaction_overrides"] = overrides
	dim.Details["verification_failures"] = failures

	return dim
}

// extractEntities asks the model for up to 12 team/player/event entities
func (v *ContextValidator) extractEntities(ctx context.Context, articleText string) []contextEntity {
	prompt := fmt.Sprintf(`Extract the named entities (teams, players, events) mentioned in this article, at most %d.

Article:
%s

Respond with a JSON array: [{"name": "...", "type": "team|player|event", "evidence": "<sentence where it appears>"}]`, maxEntities, articleText)

	text, err := v.client.Invoke(ctx, []llm.Turn{
		{Role: llm.RoleSystem, Content: "You extract named entities from sports articles. Respond with JSON only."},
		{Role: llm.RoleUser, Content: prompt},
	}, false)
	if err != nil {
		v.logger.Warn("entity extraction failed", zap.Error(err))
		return nil
	}

	items, ok := llm.ExtractArray(text)
	if !ok {
		return nil
	}

	var entities []contextEntity
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := obj["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		entityType, _ := obj["type"].(string)
		evidence, _ := obj["evidence"].(string)
		entities = append(entities, contextEntity{Name: name, Type: entityType, Evidence: evidence})
		if len(entities) >= maxEntities {
			break
		}
	}
	return entities
}

// verifyEntities checks each entity under bounded concurrency; results are
// slotted by input index, never by completion order.
func (v *ContextValidator) verifyEntities(ctx context.Context, entities []contextEntity, teamCtx *model.TeamContext, teamTokens []string) []entityResult {
	results := make([]entityResult, len(entities))
	semaphore := make(chan struct{}, entityConcurrency)
	var wg sync.WaitGroup

	for i, entity := range entities {
		wg.Add(1)
		go func(idx int, e contextEntity) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				// Fail open: unverifiable entities do not penalize.
				results[idx] = entityResult{isMatch: true, matchScore: 1.0, failed: true, message: "verification cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.verifySingle(ctx, e, teamCtx, teamTokens)
		}(i, entity)
	}
	wg.Wait()

	return results
}

// verifySingle checks one entity against the focus team, then applies the
// transaction override to re-accept legitimate counterparty mentions.
func (v *ContextValidator) verifySingle(ctx context.Context, entity contextEntity, teamCtx *model.TeamContext, teamTokens []string) entityResult {
	prompt := fmt.Sprintf(`Entity: %q (%s)
Mentioned as: %s

Is this entity plausibly associated with the %s? Assume is_match=true UNLESS
you have clear, current evidence the entity belongs elsewhere and its mention
is an editorial mistake. Your knowledge may be stale; when unsure, answer true.

Respond with JSON: {"is_match": true|false, "match_score": 0.0-1.0, "explanation": "..."}`,
		entity.Name, entity.Type, entity.Evidence, teamCtx.Name)

	text, err := v.client.Invoke(ctx, []llm.Turn{
		{Role: llm.RoleSystem, Content: "You verify entity-team alignment for sports editorial review."},
		{Role: llm.RoleUser, Content: prompt},
	}, true)
	if err != nil {
		// Fail open on client errors.
		return entityResult{isMatch: true, matchScore: 1.0, failed: true, message: err.Error()}
	}

	obj, ok := llm.ExtractObject(text)
	if !ok {
		return entityResult{isMatch: true, matchScore: 1.0, failed: true, message: "unparseable verification response"}
	}

	result := entityResult{
		isMatch:    boolField(obj, "is_match", true),
		matchScore: model.Clamp01(floatField(obj, "match_score", 1.0)),
		message:    stringField(obj, "explanation"),
	}

	if !result.isMatch && v.transactionOverride(result.message, entity.Evidence, teamTokens) {
		result.isMatch = true
		result.overridden = true
		if result.matchScore < 0.9 {
			result.matchScore = 0.9
		}
	}
	return result
}

// transactionOverride re-accepts a mismatch when transaction vocabulary
// appears together with a team token in the verification message or the
// entity's own evidence.
func (v *ContextValidator) transactionOverride(message, evidence string, teamTokens []string) bool {
	combined := strings.ToLower(message + " " + evidence)
	return containsAnyToken(combined, transactionVocabulary) && containsAnyToken(combined, teamTokens)
}

func containsAnyToken(lower string, tokens []string) bool {
	for _, token := range tokens {
		if token != "" && strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func boolField(obj map[string]any, key string, fallback bool) bool {
	if b, ok := obj[key].(bool); ok {
		return b
	}
	return fallback
}

func floatField(obj map[string]any, key string, fallback float64) float64 {
	if f, ok := obj[key].(float64); ok {
		return f
	}
	return fallback
}

func stringField(obj map[string]any, key string) string {
	if s, ok := obj[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
