// Package models defines data structures for stored text analyses.
package models

import "time"

// Sentiment values accepted on an analysis. Anything else normalizes
// to SentimentNeutral before persistence.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// ValidSentiment reports whether s is one of the accepted sentiment values.
func ValidSentiment(s string) bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// Analysis is the persisted result of one text's LLM plus heuristic
// processing. Created once; only updated_at changes afterwards.
type Analysis struct {
	ID              int64      `json:"id"`
	OriginalText    string     `json:"original_text"`
	Summary         string     `json:"summary"`
	Title           *string    `json:"title"`
	Topics          []string   `json:"topics"`
	Sentiment       string     `json:"sentiment"`
	Keywords        []string   `json:"keywords"`
	ConfidenceScore float64    `json:"confidence_score"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty"`
}

// LLMResult holds the fields parsed from the model's JSON output.
// It is merged into an Analysis and never persisted on its own.
type LLMResult struct {
	Summary   string   `json:"summary"`
	Title     *string  `json:"title"`
	Topics    []string `json:"topics"`
	Sentiment string   `json:"sentiment"`
}
