// Package extract turns article payloads into checkable claims.
package extract

import (
	"regexp"
	"strings"

	"github.com/releasegate/releasegate/internal/model"
)

// defaultSentenceCap bounds how many sentences are classified per run
const defaultSentenceCap = 40

var (
	numberPattern = regexp.MustCompile(`\b\d[\d,.]*\b`)
	quotePattern  = regexp.MustCompile(`"[^"]{2,}"|“[^”]{2,}”`)
)

// ClaimExtractor classifies article sentences into checkable claim
// candidates. Pure heuristics, no LLM involvement; false negatives are
// acceptable, false positives waste model budget.
type ClaimExtractor struct {
	sentenceCap   int
	roleKeywords  []string
	eventKeywords []string
	statKeywords  []string
}

// NewClaimExtractor creates an extractor with the default sentence cap
func NewClaimExtractor() *ClaimExtractor {
	return NewClaimExtractorWithCap(defaultSentenceCap)
}

// NewClaimExtractorWithCap creates an extractor with a custom sentence cap
func NewClaimExtractorWithCap(sentenceCap int) *ClaimExtractor {
	if sentenceCap <= 0 {
		sentenceCap = defaultSentenceCap
	}
	return &ClaimExtractor{
		sentenceCap: sentenceCap,
		roleKeywords: []string{
			"signed", "signing", "traded", "trade", "acquired", "waived",
			"released", "injured", "injury", "activated", "drafted",
			"re-signed", "extension", "contract", "roster", "lineup",
		},
		eventKeywords: []string{
			"win", "won", "loss", "lost", "defeat", "beat", "game",
			"match", "matchup", "season", "playoff", "kickoff", "schedule",
			"opener", "victory", "tie", "overtime",
		},
		statKeywords: []string{
			"yards", "points", "touchdowns", "touchdown", "goals", "assists",
			"rebounds", "passing", "rushing", "receiving", "interceptions",
			"sacks", "completions", "record", "average", "percent",
		},
	}
}

// Extract flattens the article and classifies each sentence, returning
// claim candidates in field-then-sentence order. Generic sentences are
// discarded.
func (e *ClaimExtractor) Extract(article map[string]any, teamCtx *model.TeamContext) []model.ClaimCandidate {
	teamTokens := teamCtx.Tokens()

	var claims []model.ClaimCandidate
	budget := e.sentenceCap

	for _, field := range Flatten(article) {
		if budget <= 0 {
			break
		}
		sentences := SplitSentences(field.Text)
		for i, sentence := range sentences {
			if budget <= 0 {
				break
			}
			budget--

			category := e.classify(sentence, teamTokens)
			if category == model.ClaimGeneric {
				continue
			}
			claims = append(claims, model.ClaimCandidate{
				Text:          sentence,
				Category:      category,
				SourceField:   field.Path,
				SentenceIndex: i,
			})
		}
	}

	return dedupeClaims(claims)
}

// classify applies the category ladder: quote, roster, event, statistic,
// factual, generic.
func (e *ClaimExtractor) classify(sentence string, teamTokens []string) model.ClaimCategory {
	lower := strings.ToLower(sentence)
	hasTeam := containsAny(lower, teamTokens)
	hasNumber := numberPattern.MatchString(sentence)

	switch {
	case quotePattern.MatchString(sentence):
		return model.ClaimQuote
	case hasTeam && containsAny(lower, e.roleKeywords):
		return model.ClaimRoster
	case hasTeam && containsAny(lower, e.eventKeywords):
		return model.ClaimEvent
	case hasNumber && containsAny(lower, e.statKeywords):
		return model.ClaimStatistic
	case hasNumber || hasTeam:
		return model.ClaimFactual
	default:
		return model.ClaimGeneric
	}
}

// SplitSentences splits text on sentence terminators (.!?), dropping
// fragments too short to be checkable.
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 20 && len(sentence) <= 500 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			// Look ahead to avoid splitting on abbreviations.
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' {
				flush()
			}
		}
	}
	if current.Len() > 0 {
		flush()
	}

	return sentences
}

func containsAny(lower string, tokens []string) bool {
	for _, token := range tokens {
		if token != "" && strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func dedupeClaims(claims []model.ClaimCandidate) []model.ClaimCandidate {
	seen := make(map[string]bool)
	var unique []model.ClaimCandidate
	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.Text))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}
	return unique
}
