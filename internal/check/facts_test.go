package check

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/releasegate/releasegate/internal/llm"
	"github.com/releasegate/releasegate/internal/model"
)

// fakeClient scripts the three client operations per call site.
// Mutex-guarded because checkers call it from multiple goroutines.
type fakeClient struct {
	mu sync.Mutex

	invokeResponses []string
	invokeErr       error
	invokeCalls     int

	batchVerdicts [][]llm.ClaimVerdict
	batchErr      error
	batchCalls    int

	ruleVerdicts map[string]llm.RuleVerdict
	ruleErrs     map[string]error
}

func (c *fakeClient) Invoke(ctx context.Context, turns []llm.Turn, allowWebSearch bool) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.invokeCalls
	c.invokeCalls++
	if c.invokeErr != nil {
		return "", c.invokeErr
	}
	if i < len(c.invokeResponses) {
		return c.invokeResponses[i], nil
	}
	return "", errors.New("no scripted invoke response")
}

func (c *fakeClient) VerifyClaimsBatch(ctx context.Context, claims []model.ClaimCandidate, teamName string, sourceSummaries []string) ([]llm.ClaimVerdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.batchCalls
	c.batchCalls++
	if c.batchErr != nil {
		return nil, c.batchErr
	}
	if i < len(c.batchVerdicts) {
		return c.batchVerdicts[i], nil
	}
	return nil, nil
}

func (c *fakeClient) EvaluateQualityRule(ctx context.Context, rule model.QualityRule, articleText string) (llm.RuleVerdict, error) {
	if err, ok := c.ruleErrs[rule.ID]; ok {
		return llm.RuleVerdict{}, err
	}
	if verdict, ok := c.ruleVerdicts[rule.ID]; ok {
		return verdict, nil
	}
	return llm.RuleVerdict{Passed: true, Confidence: 0.9}, nil
}

var teamCtx = &model.TeamContext{Name: "Green Bay Packers", Aliases: []string{"Packers"}}

func claimArticle() map[string]any {
	return map[string]any{
		"content": "The Packers signed a veteran safety on Tuesday afternoon. The quarterback threw for 310 yards in the opener.",
	}
}

func TestFactChecker_NoClaimsTriviallyPasses(t *testing.T) {
	checker := NewFactChecker(&fakeClient{}, nil, nil)
	article := map[string]any{"content": "A quiet afternoon of light training unfolded without incident today."}

	dim := checker.Verify(context.Background(), article, nil, nil)
	if !dim.Passed || dim.Score != 1.0 || dim.Confidence != 1.0 {
		t.Errorf("empty claim set must pass trivially: passed=%v score=%.2f conf=%.2f",
			dim.Passed, dim.Score, dim.Confidence)
	}
	if dim.Details["claims_checked"] != 0 {
		t.Errorf("expected 0 claims checked, got %v", dim.Details["claims_checked"])
	}
}

func TestFactChecker_ContradictedClaimFails(t *testing.T) {
	client := &fakeClient{batchVerdicts: [][]llm.ClaimVerdict{{
		{Index: 0, Status: llm.ClaimContradicted, Confidence: 0.9, Explanation: "player signed elsewhere", Sources: []string{"https://www.espn.com/story"}},
		{Index: 1, Status: llm.ClaimUncertain, Confidence: 0.5},
	}}}
	checker := NewFactChecker(client, nil, nil)

	dim := checker.Verify(context.Background(), claimArticle(), teamCtx, nil)
	if dim.Passed {
		t.Error("contradicted claim must fail the dimension")
	}
	if dim.Score != 0.5 {
		t.Errorf("expected score 1 - 1/2 = 0.5, got %.2f", dim.Score)
	}
	if len(dim.Issues) != 1 {
		t.Fatalf("expected 1 critical issue, got %d", len(dim.Issues))
	}
	if dim.Issues[0].Severity != model.SeverityCritical {
		t.Errorf("contradiction must be critical, got %s", dim.Issues[0].Severity)
	}
	if dim.Issues[0].SourceURL != "https://www.espn.com/story" {
		t.Errorf("expected first source url cited, got %q", dim.Issues[0].SourceURL)
	}
}

func TestFactChecker_UncertainNeverFails(t *testing.T) {
	client := &fakeClient{batchVerdicts: [][]llm.ClaimVerdict{{
		{Index: 0, Status: llm.ClaimUncertain, Confidence: 0.4},
		{Index: 1, Status: llm.ClaimUncertain, Confidence: 0.6},
	}}}
	checker := NewFactChecker(client, nil, nil)

	dim := checker.Verify(context.Background(), claimArticle(), teamCtx, nil)
	if !dim.Passed {
		t.Error("uncertain claims must not fail the dimension")
	}
	if dim.Score != 1.0 {
		t.Errorf("expected score 1.0 with zero contradictions, got %.2f", dim.Score)
	}
}

func TestFactChecker_VerifiedWithoutTrustedSourceDowngraded(t *testing.T) {
	client := &fakeClient{batchVerdicts: [][]llm.ClaimVerdict{{
		{Index: 0, Status: llm.ClaimVerified, Confidence: 0.9, Sources: []string{"https://randomblog.example.com/post"}},
		{Index: 1, Status: llm.ClaimVerified, Confidence: 0.9, Sources: []string{"https://www.nfl.com/news/item"}},
	}}}
	checker := NewFactChecker(client, nil, nil)

	dim := checker.Verify(context.Background(), claimArticle(), teamCtx, nil)
	if dim.Details["verified"] != 1 {
		t.Errorf("expected 1 verified (other downgraded), got %v", dim.Details["verified"])
	}
	if dim.Details["uncertain"] != 1 {
		t.Errorf("expected 1 uncertain after downgrade, got %v", dim.Details["uncertain"])
	}
	if !dim.Passed {
		t.Error("downgrade to uncertain must not fail the dimension")
	}
}

func TestFactChecker_ClientErrorTreatedAsUncertain(t *testing.T) {
	client := &fakeClient{batchErr: errors.New("provider unavailable")}
	checker := NewFactChecker(client, nil, nil)

	dim := checker.Verify(context.Background(), claimArticle(), teamCtx, nil)
	if !dim.Passed {
		t.Error("verification errors are uncertain, not failures")
	}
	if dim.Details["uncertain"] != dim.Details["claims_checked"] {
		t.Errorf("all claims should be uncertain: %v", dim.Details)
	}
}

func TestFactChecker_EmptyBatchFallsBackPerClaim(t *testing.T) {
	client := &fakeClient{batchVerdicts: [][]llm.ClaimVerdict{
		{}, // batch response entirely empty
		{{Index: 0, Status: llm.ClaimContradicted, Confidence: 0.8}},
		{{Index: 0, Status: llm.ClaimUncertain, Confidence: 0.5}},
	}}
	checker := NewFactChecker(client, nil, nil)

	dim := checker.Verify(context.Background(), claimArticle(), teamCtx, nil)
	if client.batchCalls < 3 {
		t.Errorf("expected per-claim fallback calls, got %d total calls", client.batchCalls)
	}
	if dim.Details["contradicted"] != 1 {
		t.Errorf("fallback verdicts should be applied, got %v", dim.Details)
	}
	if dim.Passed {
		t.Error("contradiction found via fallback must fail the dimension")
	}
}

func TestFactChecker_ExtraTrustedDomains(t *testing.T) {
	client := &fakeClient{batchVerdicts: [][]llm.ClaimVerdict{{
		{Index: 0, Status: llm.ClaimVerified, Confidence: 0.9, Sources: []string{"https://packerswire.usatoday.com/x"}},
		{Index: 1, Status: llm.ClaimUncertain, Confidence: 0.5},
	}}}
	checker := NewFactChecker(client, []string{"usatoday.com"}, nil)

	dim := checker.Verify(context.Background(), claimArticle(), teamCtx, nil)
	if dim.Details["verified"] != 1 {
		t.Errorf("standards-supplied domain should be trusted, got %v", dim.Details)
	}
}
