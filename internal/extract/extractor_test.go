package extract

import (
	"strings"
	"testing"
)

func TestKeywords(t *testing.T) {
	tests := []struct {
		name string
		text string
		topK int
		want []string
	}{
		{
			name: "empty text",
			text: "",
			topK: 3,
			want: []string{},
		},
		{
			name: "whitespace only",
			text: "   \n\t  ",
			topK: 3,
			want: []string{},
		},
		{
			name: "stop words and short tokens only",
			text: "the of and to in is it was",
			topK: 3,
			want: []string{},
		},
		{
			name: "proper noun repeated mid-sentence ranks first",
			text: "I admire Kubernetes deeply. Many teams run Kubernetes daily. We trust Kubernetes completely.",
			topK: 1,
			want: []string{"kubernetes"},
		},
		{
			name: "word after article is a candidate",
			text: "yesterday the database crashed",
			topK: 2,
			want: []string{"yesterday", "database"},
		},
		{
			name: "frequency ties keep first-seen order",
			text: "alpha beta alpha beta gamma",
			topK: 3,
			want: []string{"alpha", "beta", "gamma"},
		},
		{
			name: "verb and adjective suffixes excluded",
			text: "Paris is beautiful. Paris always wins.",
			topK: 3,
			want: []string{"paris", "always", "wins"},
		},
		{
			name: "fallback counts all words when no noun candidates",
			text: "running quickly jumping loudly",
			topK: 3,
			want: []string{"running", "quickly", "jumping"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Keywords(tt.text, tt.topK)
			if len(got) != len(tt.want) {
				t.Fatalf("Keywords(%q, %d) = %v, want %v", tt.text, tt.topK, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Keywords(%q, %d)[%d] = %q, want %q", tt.text, tt.topK, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestKeywordsInvariants(t *testing.T) {
	text := "The Compiler optimizes the Compiler pipeline. A parser feeds the Compiler. " +
		"Tokens stream into the parser and the scheduler balances work."

	for _, topK := range []int{1, 2, 3, 5, 10} {
		got := Keywords(text, topK)
		if len(got) > topK {
			t.Errorf("topK=%d returned %d keywords", topK, len(got))
		}
		seen := make(map[string]bool)
		for _, kw := range got {
			if kw != strings.ToLower(kw) {
				t.Errorf("keyword %q not lowercase", kw)
			}
			if len(kw) < 3 {
				t.Errorf("keyword %q shorter than 3 chars", kw)
			}
			if seen[kw] {
				t.Errorf("duplicate keyword %q", kw)
			}
			seen[kw] = true
		}
	}

	// Deterministic across calls.
	first := Keywords(text, 3)
	for i := 0; i < 5; i++ {
		again := Keywords(text, 3)
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("extraction not deterministic: %v vs %v", first, again)
			}
		}
	}

	if len(first) == 0 || first[0] != "compiler" {
		t.Errorf("expected repeated proper noun %q first, got %v", "compiler", first)
	}

	if got := Keywords("", 3); len(got) != 0 {
		t.Errorf("empty text should yield no keywords, got %v", got)
	}
}
