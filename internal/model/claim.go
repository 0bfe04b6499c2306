package model

// ClaimCategory classifies the nature of an extracted claim
type ClaimCategory string

const (
	ClaimQuote     ClaimCategory = "quote"     // Direct quotation
	ClaimRoster    ClaimCategory = "roster"    // Signing, trade, injury, lineup
	ClaimEvent     ClaimCategory = "event"     // Game, win, loss, schedule
	ClaimStatistic ClaimCategory = "statistic" // Numeric performance figure
	ClaimFactual   ClaimCategory = "factual"   // Other checkable assertion
	ClaimGeneric   ClaimCategory = "generic"   // Not checkable, excluded from verification
)

// ClaimCandidate is a checkable sentence extracted from an article.
// Produced fresh per run, never persisted.
type ClaimCandidate struct {
	Text          string        `json:"text"`
	Category      ClaimCategory `json:"category"`
	SourceField   string        `json:"source_field"`
	SentenceIndex int           `json:"sentence_index"`
}
