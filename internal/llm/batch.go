package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/releasegate/releasegate/internal/model"
)

// claimBatchSize bounds how many claims go into one prompt. Smaller batches
// keep the model focused and reduce truncation risk.
const claimBatchSize = 5

// ClaimStatus is the model's verdict on one claim
type ClaimStatus string

const (
	ClaimVerified     ClaimStatus = "verified"
	ClaimContradicted ClaimStatus = "contradicted"
	ClaimUncertain    ClaimStatus = "uncertain"
)

// ClaimVerdict is one claim's verification outcome, matched back to its
// input position by Index.
type ClaimVerdict struct {
	Index       int
	Status      ClaimStatus
	Confidence  float64
	Explanation string
	Sources     []string
}

// RuleVerdict is the outcome of evaluating one quality rule
type RuleVerdict struct {
	Passed      bool
	Confidence  float64
	Explanation string
}

const claimSystemPrompt = `You are a sports editorial fact checker operating under a falsification policy.

For each claim:
- Mark it "contradicted" ONLY if you have positive, citable evidence disproving it.
- Mark it "verified" only with at least one supporting source URL.
- Otherwise mark it "uncertain". When in doubt, prefer "uncertain".
Your own knowledge may be stale; absence of confirmation is NOT contradiction.`

// VerifyClaimsBatch checks claims in sub-batches of at most 5 and
// concatenates the results, preserving input order via the explicit index
// embedded in the prompt. An error from any sub-batch aborts the whole call.
func (c *Client) VerifyClaimsBatch(ctx context.Context, claims []model.ClaimCandidate, teamName string, sourceSummaries []string) ([]ClaimVerdict, error) {
	var verdicts []ClaimVerdict

	for start := 0; start < len(claims); start += claimBatchSize {
		end := start + claimBatchSize
		if end > len(claims) {
			end = len(claims)
		}

		text, err := c.Invoke(ctx, []Turn{
			{Role: RoleSystem, Content: claimSystemPrompt},
			{Role: RoleUser, Content: buildClaimPrompt(claims[start:end], start, teamName, sourceSummaries)},
		}, true)
		if err != nil {
			return nil, fmt.Errorf("verify claims batch [%d:%d]: %w", start, end, err)
		}

		verdicts = append(verdicts, parseClaimVerdicts(text, start, end)...)
	}

	return verdicts, nil
}

// buildClaimPrompt renders one sub-batch with absolute claim indexes so
// responses can be matched regardless of ordering.
func buildClaimPrompt(claims []model.ClaimCandidate, offset int, teamName string, sourceSummaries []string) string {
	var b strings.Builder

	if teamName != "" {
		fmt.Fprintf(&b, "The article is about: %s\n\n", teamName)
	}
	if len(sourceSummaries) > 0 {
		b.WriteString("Source material the article was generated from:\n")
		for _, s := range sourceSummaries {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString("Claims to check:\n")
	for i, claim := range claims {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", offset+i, claim.Category, claim.Text)
	}

	b.WriteString(`
Respond with a JSON array, one object per claim:
[{"index": <claim index>, "status": "verified|contradicted|uncertain", "confidence": 0.0-1.0, "explanation": "...", "sources": ["url", ...]}]`)

	return b.String()
}

// parseClaimVerdicts extracts verdicts for indexes in [start, end); anything
// unparseable or out of range is dropped so the caller can fall back.
func parseClaimVerdicts(text string, start, end int) []ClaimVerdict {
	items, ok := ExtractArray(text)
	if !ok {
		return nil
	}

	var verdicts []ClaimVerdict
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		index := asInt(obj["index"], -1)
		if index < start || index >= end {
			continue
		}

		status := ClaimStatus(strings.ToLower(asString(obj["status"])))
		switch status {
		case ClaimVerified, ClaimContradicted, ClaimUncertain:
		default:
			status = ClaimUncertain
		}

		var sources []string
		if rawSources, ok := obj["sources"].([]any); ok {
			for _, s := range rawSources {
				if url := asString(s); url != "" {
					sources = append(sources, url)
				}
			}
		}

		verdicts = append(verdicts, ClaimVerdict{
			Index:       index,
			Status:      status,
			Confidence:  model.Clamp01(asFloat(obj["confidence"], 0.5)),
			Explanation: asString(obj["explanation"]),
			Sources:     sources,
		})
	}
	return verdicts
}

const ruleSystemPrompt = `You evaluate sports articles against editorial quality rules.

Entity context policy: mentions of other teams as opponents, trade or signing
counterparties, or a player's past affiliations are legitimate non-focus
mentions and must NOT be penalized.`

// EvaluateQualityRule checks the article text against one rule description.
// A parse failure degrades to an uncertain pass rather than an error.
func (c *Client) EvaluateQualityRule(ctx context.Context, rule model.QualityRule, articleText string) (RuleVerdict, error) {
	prompt := fmt.Sprintf(`Rule %q: %s

Article text:
%s

Does the article satisfy this rule? Respond with JSON:
{"passed": true|false, "confidence": 0.0-1.0, "explanation": "..."}`, rule.ID, rule.Description, articleText)

	text, err := c.Invoke(ctx, []Turn{
		{Role: RoleSystem, Content: ruleSystemPrompt},
		{Role: RoleUser, Content: prompt},
	}, false)
	if err != nil {
		return RuleVerdict{}, fmt.Errorf("evaluate rule %s: %w", rule.ID, err)
	}

	obj, ok := ExtractObject(text)
	if !ok {
		return RuleVerdict{
			Passed:      true,
			Confidence:  0.3,
			Explanation: "unparseable model response",
		}, nil
	}

	return RuleVerdict{
		Passed:      asBool(obj["passed"], true),
		Confidence:  model.Clamp01(asFloat(obj["confidence"], 0.5)),
		Explanation: asString(obj["explanation"]),
	}, nil
}
