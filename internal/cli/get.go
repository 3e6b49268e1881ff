package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/textlens/internal/client"
)

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch a stored analysis by ID",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q", args[0])
	}

	analysis, err := apiClient.Get(context.Background(), id)
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("analysis %d not found", id)
		}
		return fmt.Errorf("get analysis: %w", err)
	}

	printAnalysis(analysis)
	return nil
}
