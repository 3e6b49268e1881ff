// Package extract implements heuristic keyword extraction over plain text.
//
// The extractor guesses likely nouns without any NLP dependency: capitalized
// mid-sentence words, words following an article, and words whose shape does
// not look like a verb or adjective. Candidates are ranked by frequency.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// DefaultTopK is the number of keywords returned when the caller does not
// ask for a specific count.
const DefaultTopK = 3

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	wordPattern   = regexp.MustCompile(`[a-zA-Z]+`)
)

// stopWords are common function words excluded from keyword candidates.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"in": {}, "on": {}, "at": {}, "to": {}, "for": {}, "of": {},
	"with": {}, "by": {}, "from": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "is": {}, "are": {}, "was": {},
	"were": {}, "be": {}, "been": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "will": {}, "would": {},
	"could": {}, "should": {}, "can": {}, "may": {}, "might": {},
	"must": {},
}

// articles often precede nouns.
var articles = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
}

var verbSuffixes = []string{"ing", "ed", "er", "ly"}

var adjectiveSuffixes = []string{"ful", "less", "ous", "ive", "able", "ible", "al"}

// Keywords returns the topK most frequent likely-noun keywords in text,
// lowercase, ranked by frequency with ties kept in first-encountered order.
// It is pure and safe for concurrent use. Empty or all-stop-word input may
// yield an empty slice; callers must tolerate zero keywords.
func Keywords(text string, topK int) []string {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if strings.TrimSpace(text) == "" {
		return []string{}
	}

	var candidates []string
	for _, sentence := range sentenceSplit.Split(text, -1) {
		originals := wordPattern.FindAllString(sentence, -1)
		words := make([]string, len(originals))
		for i, w := range originals {
			words[i] = strings.ToLower(w)
		}

		for i, word := range words {
			if len(word) < 3 {
				continue
			}
			if _, stop := stopWords[word]; stop {
				continue
			}

			// Capitalized words that do not open the sentence are
			// treated as proper nouns.
			if i > 0 && unicode.IsUpper(rune(originals[i][0])) {
				candidates = append(candidates, word)
				continue
			}

			// Words following an article.
			if i > 0 {
				if _, ok := articles[words[i-1]]; ok {
					candidates = append(candidates, word)
					continue
				}
			}

			if !looksLikeVerbOrAdjective(word) {
				candidates = append(candidates, word)
			}
		}
	}

	// No noun candidates anywhere: fall back to plain frequency over all
	// non-stop-word tokens so short or unusual texts still yield keywords.
	if len(candidates) == 0 {
		for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
			if len(w) < 3 {
				continue
			}
			if _, stop := stopWords[w]; stop {
				continue
			}
			candidates = append(candidates, w)
		}
	}

	return topByFrequency(candidates, topK)
}

// looksLikeVerbOrAdjective reports whether word carries a common verb or
// adjective suffix and should be excluded from noun candidates.
func looksLikeVerbOrAdjective(word string) bool {
	for _, s := range verbSuffixes {
		if strings.HasSuffix(word, s) {
			return true
		}
	}
	for _, s := range adjectiveSuffixes {
		if strings.HasSuffix(word, s) {
			return true
		}
	}
	return false
}

// topByFrequency ranks words by occurrence count, breaking ties by first
// appearance, and returns at most topK distinct entries.
func topByFrequency(words []string, topK int) []string {
	counts := make(map[string]int, len(words))
	order := make([]string, 0, len(words))
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	ranked := make([]string, len(order))
	copy(ranked, order)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] > counts[ranked[j]]
	})

	if len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked
}
