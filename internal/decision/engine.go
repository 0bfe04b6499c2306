// Package decision maps three validation dimensions onto a single
// releasability verdict. Pure and deterministic: identical inputs always
// yield identical decisions and reason lists.
package decision

import (
	"fmt"

	"github.com/releasegate/releasegate/internal/model"
)

// Outcome is the aggregated verdict over all dimensions
type Outcome struct {
	Decision         model.Decision
	IsReleasable     bool
	RejectionReasons []string
	ReviewReasons    []string
}

// Decide applies the release policy, in order:
//  1. any critical issue on an enabled dimension → rejection reason
//  2. any warning issue on an enabled dimension → review reason
//  3. enabled dimension below its threshold, or not passed → rejection
//     reason (threshold failure takes precedence over the generic message);
//     a non-passing dimension whose confidence is also below the confidence
//     threshold additionally carries a low-confidence review reason
//  4. rejections → reject; else reviews → review_required; else release
//
// Confidence-only concerns are suppressed once a dimension passed its
// threshold, to avoid duplicate noise.
func Decide(cfg model.ValidationConfig, factual, contextual, quality *model.ValidationDimension) Outcome {
	dims := []*model.ValidationDimension{factual, contextual, quality}

	var rejections, reviews []string

	for _, dim := range dims {
		if dim == nil || !dim.Enabled {
			continue
		}
		for _, issue := range dim.Issues {
			switch issue.Severity {
			case model.SeverityCritical:
				rejections = append(rejections, fmt.Sprintf("%s: %s", dim.Name, issue.Message))
			case model.SeverityWarning:
				reviews = append(reviews, fmt.Sprintf("%s: %s", dim.Name, issue.Message))
			}
		}
	}

	for _, dim := range dims {
		if dim == nil || !dim.Enabled {
			continue
		}
		threshold := cfg.Threshold(dim.Name)
		failed := dim.Score < threshold || !dim.Passed
		switch {
		case dim.Score < threshold:
			rejections = append(rejections,
				fmt.Sprintf("%s score %.2f below threshold %.2f", dim.Name, dim.Score, threshold))
		case !dim.Passed:
			rejections = append(rejections,
				fmt.Sprintf("%s checks did not pass", dim.Name))
		}
		if failed && dim.Confidence < cfg.ConfidenceThreshold {
			reviews = append(reviews,
				fmt.Sprintf("%s confidence %.2f below threshold %.2f", dim.Name, dim.Confidence, cfg.ConfidenceThreshold))
		}
	}

	rejections = dedupe(rejections)
	reviews = dedupe(reviews)

	outcome := Outcome{
		RejectionReasons: rejections,
		ReviewReasons:    reviews,
	}
	switch {
	case len(rejections) > 0:
		outcome.Decision = model.DecisionReject
	case len(reviews) > 0:
		outcome.Decision = model.DecisionReviewRequired
	default:
		outcome.Decision = model.DecisionRelease
		outcome.IsReleasable = true
	}
	return outcome
}

// dedupe removes duplicates preserving first-seen order
func dedupe(reasons []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
