package service

import (
	"fmt"
	"strings"
)

// analysisSystemPrompt instructs the model to behave as a JSON-only analyst.
const analysisSystemPrompt = "You are a helpful text analysis assistant. Always respond with valid JSON only."

// analysisPromptTemplate describes the exact JSON shape the model must return.
// The %s verb at the end receives the text under analysis.
const analysisPromptTemplate = `You are an expert text analyst. Analyze the provided text and return your analysis as valid JSON with exactly this structure:

{
    "summary": "A concise 1-2 sentence summary capturing the main point",
    "title": "A descriptive title for the text (or null if no clear title can be determined)",
    "topics": ["topic1", "topic2", "topic3"],
    "sentiment": "positive|neutral|negative",
    "keywords": ["keyword1", "keyword2", "keyword3"]
}

Requirements:
- summary: Must be 1-2 sentences maximum, capturing the core message
- title: Extract existing title or create a descriptive one; use null if text is too fragmented
- topics: Identify exactly 3 key themes, subjects, or topics discussed
- sentiment: Classify overall emotional tone as "positive", "neutral", or "negative"
- keywords: Extract exactly 3 most important/frequent nouns or key terms from the text

Return ONLY the JSON object with no additional text, explanations, or markdown formatting.

Text to analyze:
%s`

// buildAnalysisPrompt renders the analysis prompt for the given text.
func buildAnalysisPrompt(text string) string {
	return fmt.Sprintf(analysisPromptTemplate, text)
}

// stripCodeFence removes a surrounding markdown code fence if the model
// wrapped its JSON despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
