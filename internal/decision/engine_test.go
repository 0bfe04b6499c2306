package decision

import (
	"reflect"
	"testing"

	"github.com/releasegate/releasegate/internal/model"
)

func passingDim(name model.DimensionName) *model.ValidationDimension {
	return model.NewDimension(name, true, 0.95, 0.9, true)
}

func allPassing() (*model.ValidationDimension, *model.ValidationDimension, *model.ValidationDimension) {
	return passingDim(model.DimensionFactual),
		passingDim(model.DimensionContextual),
		passingDim(model.DimensionQuality)
}

func TestDecide_AllPassingReleases(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	outcome := Decide(cfg, factual, contextual, quality)

	if outcome.Decision != model.DecisionRelease {
		t.Errorf("expected release, got %s", outcome.Decision)
	}
	if !outcome.IsReleasable {
		t.Error("release must imply is_releasable")
	}
	if len(outcome.RejectionReasons) != 0 || len(outcome.ReviewReasons) != 0 {
		t.Errorf("expected no reasons, got %v / %v", outcome.RejectionReasons, outcome.ReviewReasons)
	}
}

func TestDecide_CriticalIssueRejects(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	factual.AddIssue(model.NewIssue(model.SeverityCritical, model.CategoryFactual, "claim contradicted"))

	outcome := Decide(cfg, factual, contextual, quality)
	if outcome.Decision != model.DecisionReject {
		t.Errorf("critical issue must reject, got %s", outcome.Decision)
	}
	if outcome.IsReleasable {
		t.Error("reject must not be releasable")
	}
	if len(outcome.RejectionReasons) != 1 {
		t.Errorf("expected 1 rejection reason, got %v", outcome.RejectionReasons)
	}
}

func TestDecide_WarningIssueRequiresReview(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	quality.AddIssue(model.NewIssue(model.SeverityWarning, model.CategoryQuality, "tone concern"))

	outcome := Decide(cfg, factual, contextual, quality)
	if outcome.Decision != model.DecisionReviewRequired {
		t.Errorf("warning should require review, got %s", outcome.Decision)
	}
	if outcome.IsReleasable {
		t.Error("review_required must not be releasable")
	}
}

func TestDecide_BelowThresholdRejects(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	contextual.Score = 0.5 // below 0.7 threshold

	outcome := Decide(cfg, factual, contextual, quality)
	if outcome.Decision != model.DecisionReject {
		t.Errorf("below threshold must reject, got %s", outcome.Decision)
	}
	found := false
	for _, r := range outcome.RejectionReasons {
		if r == "contextual score 0.50 below threshold 0.70" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected threshold message, got %v", outcome.RejectionReasons)
	}
}

func TestDecide_ThresholdMessageTakesPrecedence(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	quality.Score = 0.4
	quality.Passed = false

	outcome := Decide(cfg, factual, contextual, quality)
	for _, r := range outcome.RejectionReasons {
		if r == "quality checks did not pass" {
			t.Error("generic message should be suppressed when threshold message applies")
		}
	}
}

func TestDecide_FailedAboveThresholdGetsGenericMessage(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	factual.Passed = false // score still 0.95

	outcome := Decide(cfg, factual, contextual, quality)
	found := false
	for _, r := range outcome.RejectionReasons {
		if r == "factual checks did not pass" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected generic failure message, got %v", outcome.RejectionReasons)
	}
}

func TestDecide_LowConfidenceOnFailedDimensionFlagged(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	factual.Score = 0.5      // below 0.8 threshold
	factual.Confidence = 0.3 // below 0.5 confidence threshold

	outcome := Decide(cfg, factual, contextual, quality)
	if outcome.Decision != model.DecisionReject {
		t.Errorf("below threshold must still reject, got %s", outcome.Decision)
	}
	found := false
	for _, r := range outcome.ReviewReasons {
		if r == "factual confidence 0.30 below threshold 0.50" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected low-confidence review reason, got %v", outcome.ReviewReasons)
	}
}

func TestDecide_LowConfidenceSuppressedWhenPassed(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	quality.Confidence = 0.2 // below confidence threshold, but dimension passed

	outcome := Decide(cfg, factual, contextual, quality)
	if outcome.Decision != model.DecisionRelease {
		t.Errorf("passing dimensions must release, got %s", outcome.Decision)
	}
	if len(outcome.ReviewReasons) != 0 {
		t.Errorf("confidence concerns on passing dimensions are suppressed, got %v", outcome.ReviewReasons)
	}
}

func TestDecide_DisabledDimensionNeverPenalizes(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	disabled := model.DisabledDimension(model.DimensionContextual)
	disabled.AddIssue(model.NewIssue(model.SeverityCritical, model.CategoryContextual, "ignored"))
	_ = contextual

	outcome := Decide(cfg, factual, disabled, quality)
	if outcome.Decision != model.DecisionRelease {
		t.Errorf("disabled dimension must not affect decision, got %s", outcome.Decision)
	}
}

func TestDecide_ReasonsDeduplicated(t *testing.T) {
	cfg := model.DefaultValidationConfig()
	factual, contextual, quality := allPassing()
	factual.AddIssue(model.NewIssue(model.SeverityCritical, model.CategoryFactual, "same problem"))
	factual.AddIssue(model.NewIssue(model.SeverityCritical, model.CategoryFactual, "same problem"))

	outcome := Decide(cfg, factual, contextual, quality)
	if len(outcome.RejectionReasons) != 1 {
		t.Errorf("expected deduplicated reasons, got %v", outcome.RejectionReasons)
	}
}

func TestDecide_Deterministic(t *testing.T) {
	cfg := model.DefaultValidationConfig()

	build := func() (*model.ValidationDimension, *model.ValidationDimension, *model.ValidationDimension) {
		f, c, q := allPassing()
		f.AddIssue(model.NewIssue(model.SeverityWarning, model.CategoryFactual, "minor"))
		c.Score = 0.6
		return f, c, q
	}

	f1, c1, q1 := build()
	f2, c2, q2 := build()
	first := Decide(cfg, f1, c1, q1)
	second := Decide(cfg, f2, c2, q2)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("decision not deterministic: %+v vs %+v", first, second)
	}
}
