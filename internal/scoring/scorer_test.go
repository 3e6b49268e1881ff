package scoring

import (
	"strings"
	"testing"

	"github.com/raphaelgruber/textlens/internal/models"
)

func TestScore(t *testing.T) {
	longText := strings.Repeat("x", 101)
	midText := strings.Repeat("x", 51)

	tests := []struct {
		name     string
		text     string
		result   *models.LLMResult
		keywords []string
		want     float64
	}{
		{
			name:     "all checks satisfied",
			text:     longText,
			result:   &models.LLMResult{Summary: "a summary longer than ten chars", Topics: []string{"go"}},
			keywords: []string{"compiler"},
			want:     1.0,
		},
		{
			name:     "short text baseline only",
			text:     "tiny",
			result:   &models.LLMResult{},
			keywords: nil,
			want:     0.1,
		},
		{
			name:     "medium length text",
			text:     midText,
			result:   &models.LLMResult{},
			keywords: nil,
			want:     0.15,
		},
		{
			name:     "summary too short after trim",
			text:     "tiny",
			result:   &models.LLMResult{Summary: "  short   "},
			keywords: nil,
			want:     0.1,
		},
		{
			name:     "topics only",
			text:     "tiny",
			result:   &models.LLMResult{Topics: []string{"a", "b"}},
			keywords: nil,
			want:     0.35,
		},
		{
			name:     "keywords only",
			text:     "tiny",
			result:   &models.LLMResult{},
			keywords: []string{"word"},
			want:     0.35,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.text, tt.result, tt.keywords)
			if got != tt.want {
				t.Errorf("Score() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("Score() = %v outside [0,1]", got)
			}
		})
	}
}

// Satisfying an additional check must never lower the score.
func TestScoreMonotonic(t *testing.T) {
	longText := strings.Repeat("x", 101)

	base := Score("tiny", &models.LLMResult{}, nil)
	steps := []float64{
		Score(longText, &models.LLMResult{}, nil),
		Score(longText, &models.LLMResult{Summary: "summary with plenty of characters"}, nil),
		Score(longText, &models.LLMResult{Summary: "summary with plenty of characters", Topics: []string{"t"}}, nil),
		Score(longText, &models.LLMResult{Summary: "summary with plenty of characters", Topics: []string{"t"}}, []string{"k"}),
	}

	prev := base
	for i, s := range steps {
		if s < prev {
			t.Errorf("step %d: score %v dropped below %v", i, s, prev)
		}
		prev = s
	}
}

func TestScoreNeverPanics(t *testing.T) {
	// A nil result would dereference inside the checks; the recover guard
	// must turn it into the fixed fallback.
	got := Score("some text", nil, []string{"kw"})
	if got != 0.5 {
		t.Errorf("Score() with nil result = %v, want 0.5", got)
	}
}
