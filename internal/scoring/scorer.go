// Package scoring computes a heuristic confidence score for an analysis.
package scoring

import (
	"math"
	"strings"

	"github.com/raphaelgruber/textlens/internal/models"
)

// fallbackScore is returned when scoring itself faults. Scoring must never
// abort the analysis pipeline.
const fallbackScore = 0.5

// Score rates an analysis in [0, 1] from four independent checks, each worth
// up to 0.25: input length, a usable summary, non-empty topics, and non-empty
// keywords. The length check always awards a baseline, so the score is never
// zero. The result is rounded to two decimals. Any internal fault yields 0.5
// instead of an error.
func Score(text string, result *models.LLMResult, keywords []string) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			score = fallbackScore
		}
	}()

	switch {
	case len(text) > 100:
		score += 0.25
	case len(text) > 50:
		score += 0.15
	default:
		score += 0.10
	}

	if len(strings.TrimSpace(result.Summary)) > 10 {
		score += 0.25
	}

	if len(result.Topics) > 0 {
		score += 0.25
	}

	if len(keywords) > 0 {
		score += 0.25
	}

	score = math.Max(0, math.Min(1, score))
	return math.Round(score*100) / 100
}
