package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check server health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := apiClient.Health(context.Background())
		if err != nil {
			return fmt.Errorf("health check: %w", err)
		}
		fmt.Printf("%s: %s\n", status.Status, status.Message)
		return nil
	},
}
