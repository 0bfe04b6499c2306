package extract

import (
	"testing"

	"github.com/releasegate/releasegate/internal/model"
)

var packers = &model.TeamContext{
	Name:         "Green Bay Packers",
	Aliases:      []string{"Packers", "Green Bay"},
	Abbreviation: "GB",
}

func extractOne(t *testing.T, sentence string) model.ClaimCandidate {
	t.Helper()
	claims := NewClaimExtractor().Extract(map[string]any{"content": sentence}, packers)
	if len(claims) != 1 {
		t.Fatalf("expected 1 claim for %q, got %d", sentence, len(claims))
	}
	return claims[0]
}

func TestClaimExtractor_Categories(t *testing.T) {
	tests := []struct {
		sentence string
		want     model.ClaimCategory
	}{
		{`"We came here to win every single game," the coach said after practice.`, model.ClaimQuote},
		{`The Packers signed the veteran linebacker to bolster their defense.`, model.ClaimRoster},
		{`Green Bay won the season opener in dramatic fashion at home.`, model.ClaimEvent},
		{`The quarterback threw for 320 yards against a stout defense.`, model.ClaimStatistic},
		{`The stadium holds 81441 fans on a sold-out night this year.`, model.ClaimFactual},
		{`The Packers travel west for the next stretch of away fixtures.`, model.ClaimFactual},
	}

	for _, tt := range tests {
		claim := extractOne(t, tt.sentence)
		if claim.Category != tt.want {
			t.Errorf("classify(%q) = %s, want %s", tt.sentence, claim.Category, tt.want)
		}
	}
}

func TestClaimExtractor_GenericDiscarded(t *testing.T) {
	claims := NewClaimExtractor().Extract(map[string]any{
		"content": "Football remains a beloved pastime across the country every autumn.",
	}, packers)
	if len(claims) != 0 {
		t.Errorf("expected generic sentence discarded, got %d claims", len(claims))
	}
}

func TestClaimExtractor_NestedFields(t *testing.T) {
	article := map[string]any{
		"headline": "Packers signed a new kicker this week after tryouts concluded.",
		"sections": []any{
			map[string]any{"body": "Green Bay won the divisional game by three points."},
		},
	}

	claims := NewClaimExtractor().Extract(article, packers)
	if len(claims) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(claims))
	}

	paths := map[string]bool{}
	for _, c := range claims {
		paths[c.SourceField] = true
	}
	if !paths["headline"] || !paths["sections[0].body"] {
		t.Errorf("unexpected source fields: %v", paths)
	}
}

func TestClaimExtractor_SentenceCap(t *testing.T) {
	long := ""
	for i := 0; i < 20; i++ {
		long += "The Packers won another important divisional game this weekend. "
	}
	extractor := NewClaimExtractorWithCap(5)
	claims := extractor.Extract(map[string]any{"content": long}, packers)
	// Identical sentences dedupe to one, but never more than the cap.
	if len(claims) > 5 {
		t.Errorf("expected at most 5 claims under cap, got %d", len(claims))
	}
}

func TestClaimExtractor_NoTeamContext(t *testing.T) {
	claims := NewClaimExtractor().Extract(map[string]any{
		"content": "The quarterback threw for 320 yards in the second half.",
	}, nil)
	if len(claims) != 1 {
		t.Fatalf("expected numeric claim without team context, got %d", len(claims))
	}
	if claims[0].Category != model.ClaimStatistic {
		t.Errorf("expected statistic, got %s", claims[0].Category)
	}
}

func TestFlatten_HTMLStripped(t *testing.T) {
	fields := Flatten(map[string]any{
		"body": "<p>The Packers <b>signed</b> a kicker.</p><script>alert(1)</script>",
	})
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if got := fields[0].Text; got != "The Packers signed a kicker." {
		t.Errorf("unexpected visible text: %q", got)
	}
}

func TestFlatten_DeterministicOrder(t *testing.T) {
	article := map[string]any{"b": "second field text", "a": "first field text"}
	fields := Flatten(article)
	if len(fields) != 2 || fields[0].Path != "a" || fields[1].Path != "b" {
		t.Errorf("expected sorted key order, got %+v", fields)
	}
}

func TestSplitSentences_Terminators(t *testing.T) {
	sentences := SplitSentences("The team won the game yesterday afternoon! Was it a surprise to anyone watching? Nobody thought so at the time.")
	if len(sentences) != 3 {
		t.Errorf("expected 3 sentences, got %d: %v", len(sentences), sentences)
	}
}
