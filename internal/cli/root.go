// Package cli provides the command-line interface for textlens.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/textlens/internal/client"
	"github.com/raphaelgruber/textlens/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// Global config and API client
	cfg       config.Config
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "textlens",
	Short: "Analyze unstructured text with an LLM",
	Long: `Textlens sends unstructured text to a textlens server, which summarizes
and classifies it with an LLM, extracts likely keyword nouns locally, scores
its own confidence, and stores the result for later search.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		url := serverURL
		if url == "" {
			url = cfg.ServerURL
		}
		apiClient = client.New(url)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server base URL (default from config)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(statsCmd)
}
