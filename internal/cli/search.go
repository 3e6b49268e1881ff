package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/textlens/internal/client"
)

var (
	searchTopic   string
	searchKeyword string
	searchLimit   int
	searchOffset  int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored analyses by topic or keyword",
	Long: `Search stored analyses. Topic matches the LLM-assigned topics, keyword
matches the locally extracted keyword nouns; both are substring matches and
combine when given together. Without filters, lists all analyses newest first.

Examples:
  textlens search --topic kubernetes
  textlens search --keyword compiler --limit 5
  textlens search`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchTopic, "topic", "t", "", "filter by topic")
	searchCmd.Flags().StringVarP(&searchKeyword, "keyword", "k", "", "filter by keyword")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 50, "max results")
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "results to skip")
}

func runSearch(cmd *cobra.Command, args []string) error {
	result, err := apiClient.Search(context.Background(), client.SearchOptions{
		Topic:   searchTopic,
		Keyword: searchKeyword,
		Limit:   searchLimit,
		Offset:  searchOffset,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if result.Total == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results (showing %d):\n\n", result.Total, len(result.Analyses))
	for i, a := range result.Analyses {
		title := "(untitled)"
		if a.Title != nil && *a.Title != "" {
			title = *a.Title
		}
		fmt.Printf("%d. [#%d] %s\n", i+1, a.ID, title)
		fmt.Printf("   %s\n", a.Summary)
		fmt.Printf("   topics: %s | sentiment: %s | confidence: %.2f\n",
			strings.Join(a.Topics, ", "), a.Sentiment, a.ConfidenceScore)
		fmt.Println()
	}

	return nil
}
