// Package check implements the three validation dimensions: factual,
// contextual and quality. Checkers share one model client and are built
// fresh per validation run.
package check

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/releasegate/releasegate/internal/extract"
	"github.com/releasegate/releasegate/internal/llm"
	"github.com/releasegate/releasegate/internal/model"
)

// maxClaims caps how many extracted claims go to verification
const maxClaims = 10

// ModelClient is the slice of the llm client the checkers consume
type ModelClient interface {
	Invoke(ctx context.Context, turns []llm.Turn, allowWebSearch bool) (string, error)
	VerifyClaimsBatch(ctx context.Context, claims []model.ClaimCandidate, teamName string, sourceSummaries []string) ([]llm.ClaimVerdict, error)
	EvaluateQualityRule(ctx context.Context, rule model.QualityRule, articleText string) (llm.RuleVerdict, error)
}

// defaultTrustedDomains is the builtin citation allowlist; a "verified"
// verdict without a citation from one of these is downgraded to uncertain.
var defaultTrustedDomains = []string{
	"nfl.com", "espn.com", "nba.com", "mlb.com", "nhl.com",
	"reuters.com", "apnews.com", "si.com", "cbssports.com",
	"theathletic.com", "pro-football-reference.com",
}

// FactChecker verifies extracted claims under a falsification policy:
// a claim fails only with positive disproving evidence, never on ambiguity.
type FactChecker struct {
	client         ModelClient
	extractor      *extract.ClaimExtractor
	trustedDomains []string
	logger         *zap.Logger
}

// NewFactChecker creates a fact checker. extraDomains augment the builtin
// citation allowlist (typically from the resolved standards).
func NewFactChecker(client ModelClient, extraDomains []string, logger *zap.Logger) *FactChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FactChecker{
		client:         client,
		extractor:      extract.NewClaimExtractor(),
		trustedDomains: append(append([]string{}, defaultTrustedDomains...), extraDomains...),
		logger:         logger,
	}
}

// Verify extracts claims and checks them against the model, producing the
// factual dimension. Client errors degrade to uncertain; only positively
// contradicted claims fail the dimension.
func (f *FactChecker) Verify(ctx context.Context, article map[string]any, teamCtx *model.TeamContext, sourceSummaries []string) *model.ValidationDimension {
	claims := f.extractor.Extract(article, teamCtx)
	if len(claims) > maxClaims {
		claims = claims[:maxClaims]
	}

	if len(claims) == 0 {
		// Nothing checkable; trivially passing.
		dim := model.NewDimension(model.DimensionFactual, true, 1.0, 1.0, true)
		dim.Details["claims_checked"] = 0
		return dim
	}

	teamName := ""
	if teamCtx != nil {
		teamName = teamCtx.Name
	}

	verdicts := f.verdictsByClaim(ctx, claims, teamName, sourceSummaries)

	contradicted := 0
	uncertain := 0
	verified := 0
	confidenceSum := 0.0
	dim := model.NewDimension(model.DimensionFactual, true, 1.0, 1.0, true)

	for i, claim := range claims {
		verdict := verdicts[i]
		confidenceSum += verdict.Confidence

		// "verified" requires at least one allow-listed citation.
		if verdict.Status == llm.ClaimVerified && !f.hasTrustedSource(verdict.Sources) {
			verdict.Status = llm.ClaimUncertain
		}

		switch verdict.Status {
		case llm.ClaimContradicted:
			contradicted++
			issue := model.NewIssue(model.SeverityCritical, model.CategoryFactual,
				fmt.Sprintf("contradicted claim: %q (%s)", claim.Text, verdict.Explanation))
			issue.Location = claim.SourceField
			if len(verdict.Sources) > 0 {
				issue.SourceURL = verdict.Sources[0]
			}
			dim.AddIssue(issue)
		case llm.ClaimVerified:
			verified++
		default:
			uncertain++
		}
	}

	total := len(claims)
	dim.Score = model.Clamp01(1.0 - float64(contradicted)/float64(total))
	dim.Confidence = model.Clamp01(confidenceSum / float64(total))
	dim.Passed = contradicted == 0

	dim.Details["claims_checked"] = total
	dim.Details["verified"] = verified
	dim.Details["contradicted"] = contradicted
	dim.Details["uncertain"] = uncertain

	return dim
}

// verdictsByClaim runs the batch call, falling back to per-claim checks if
// the batch response is entirely empty. The result always has one verdict
// per claim; anything unanswered is uncertain.
func (f *FactChecker) verdictsByClaim(ctx context.Context, claims []model.ClaimCandidate, teamName string, sourceSummaries []string) []llm.ClaimVerdict {
	byIndex := make([]llm.ClaimVerdict, len(claims))
	for i := range byIndex {
		byIndex[i] = llm.ClaimVerdict{Index: i, Status: llm.ClaimUncertain, Confidence: 0.5}
	}

	verdicts, err := f.client.VerifyClaimsBatch(ctx, claims, teamName, sourceSummaries)
	if err != nil {
		f.logger.Warn("claim batch failed, treating claims as uncertain", zap.Error(err))
		for i := range byIndex {
			byIndex[i].Confidence = 0.3
		}
		return byIndex
	}

	if len(verdicts) == 0 {
		// Batch came back empty; check each claim on its own.
		for i := range claims {
			single, err := f.client.VerifyClaimsBatch(ctx, claims[i:i+1], teamName, sourceSummaries)
			if err != nil || len(single) == 0 {
				byIndex[i].Confidence = 0.3
				continue
			}
			verdict := single[0]
			verdict.Index = i
			byIndex[i] = verdict
		}
		return byIndex
	}

	for _, verdict := range verdicts {
		if verdict.Index >= 0 && verdict.Index < len(byIndex) {
			byIndex[verdict.Index] = verdict
		}
	}
	return byIndex
}

// hasTrustedSource reports whether any source URL's host falls under an
// allow-listed domain.
func (f *FactChecker) hasTrustedSource(sources []string) bool {
	for _, raw := range sources {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Host == "" {
			continue
		}
		host := strings.ToLower(parsed.Host)
		for _, domain := range f.trustedDomains {
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return true
			}
		}
	}
	return false
}
