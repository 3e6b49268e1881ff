package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/textlens/internal/models"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <text>",
	Short: "Analyze a text and store the result",
	Long: `Analyze a text: the server summarizes and classifies it with an LLM,
extracts keyword nouns locally, and stores the combined result.

Pass "-" to read the text from stdin.

Examples:
  textlens analyze "Go ships a new release every six months."
  cat article.txt | textlens analyze -`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text := args[0]
	if text == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	analysis, err := apiClient.Analyze(context.Background(), text)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	printAnalysis(analysis)
	return nil
}

// printAnalysis renders one analysis in the fixed-width key/value style shared
// by the analyze, get, and search commands.
func printAnalysis(a *models.Analysis) {
	fmt.Printf("ID:         %d\n", a.ID)
	if a.Title != nil && *a.Title != "" {
		fmt.Printf("Title:      %s\n", *a.Title)
	}
	fmt.Printf("Summary:    %s\n", a.Summary)
	fmt.Printf("Sentiment:  %s\n", a.Sentiment)
	fmt.Printf("Topics:     %s\n", strings.Join(a.Topics, ", "))
	fmt.Printf("Keywords:   %s\n", strings.Join(a.Keywords, ", "))
	fmt.Printf("Confidence: %.2f\n", a.ConfidenceScore)
	fmt.Printf("Created:    %s\n", a.CreatedAt.Format("2006-01-02 15:04:05"))
	if verbose {
		fmt.Printf("Text:       %s\n", a.OriginalText)
	}
}
