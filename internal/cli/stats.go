package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/textlens/internal/metrics"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server runtime statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := apiClient.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("fetch stats: %w", err)
		}

		fmt.Printf("Uptime: %.0fs\n\n", snap.UptimeSeconds)
		printOp("analyze", snap.Analyze)
		printOp("llm_call", snap.LLMCall)
		printOp("db_query", snap.DBQuery)
		printOp("db_search", snap.DBSearch)
		printOp("batch", snap.Batch)
		return nil
	},
}

func printOp(name string, op *metrics.OperationSnapshot) {
	if op == nil {
		return
	}
	fmt.Printf("%-10s count=%d errors=%d avg=%.1fms min=%dms max=%dms\n",
		name, op.Count, op.Errors, op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}
