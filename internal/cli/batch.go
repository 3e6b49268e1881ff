package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/textlens/internal/client"
	"github.com/raphaelgruber/textlens/internal/service"
)

var (
	batchFile  string
	batchWatch bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Submit and track batch analyses",
}

var batchSubmitCmd = &cobra.Command{
	Use:   "submit [texts...]",
	Short: "Submit texts for background analysis",
	Long: `Submit multiple texts for background analysis. Each argument is one text;
with --file, texts are read one per line instead.

Examples:
  textlens batch submit "first text" "second text"
  textlens batch submit --file texts.txt --watch`,
	RunE: runBatchSubmit,
}

var batchStatusCmd = &cobra.Command{
	Use:   "status <batch-id>",
	Short: "Show the current state of a batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchStatus,
}

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted batches, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runBatchList,
}

var batchWatchCmd = &cobra.Command{
	Use:   "watch <batch-id>",
	Short: "Follow a batch until it completes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunBatchProgress(apiClient, args[0])
	},
}

func init() {
	batchSubmitCmd.Flags().StringVarP(&batchFile, "file", "f", "", "read texts from file, one per line")
	batchSubmitCmd.Flags().BoolVarP(&batchWatch, "watch", "w", false, "follow progress until completion")

	batchCmd.AddCommand(batchSubmitCmd)
	batchCmd.AddCommand(batchStatusCmd)
	batchCmd.AddCommand(batchListCmd)
	batchCmd.AddCommand(batchWatchCmd)
}

func runBatchSubmit(cmd *cobra.Command, args []string) error {
	texts := args
	if batchFile != "" {
		fileTexts, err := readTextsFile(batchFile)
		if err != nil {
			return err
		}
		texts = append(texts, fileTexts...)
	}
	if len(texts) == 0 {
		return fmt.Errorf("no texts given: pass arguments or --file")
	}

	resp, err := apiClient.BatchSubmit(context.Background(), texts)
	if err != nil {
		return fmt.Errorf("submit batch: %w", err)
	}

	fmt.Printf("Batch %s submitted (%d texts).\n", resp.BatchID, resp.TotalTexts)

	if batchWatch {
		return RunBatchProgress(apiClient, resp.BatchID)
	}

	fmt.Printf("Use 'textlens batch status %s' to check progress.\n", resp.BatchID)
	return nil
}

func runBatchStatus(cmd *cobra.Command, args []string) error {
	snap, err := apiClient.BatchStatus(context.Background(), args[0])
	if err != nil {
		if client.IsNotFound(err) {
			return fmt.Errorf("batch %s not found", args[0])
		}
		return fmt.Errorf("batch status: %w", err)
	}

	printBatch(snap)
	return nil
}

func runBatchList(cmd *cobra.Command, args []string) error {
	list, err := apiClient.BatchList(context.Background())
	if err != nil {
		return fmt.Errorf("list batches: %w", err)
	}

	if list.Total == 0 {
		fmt.Println("No batches submitted.")
		return nil
	}

	for _, snap := range list.Batches {
		fmt.Printf("%s  [%s]  %d/%d done  (%d ok, %d failed)  %s\n",
			snap.BatchID, snap.Status,
			snap.SuccessCount+snap.FailureCount, snap.Total,
			snap.SuccessCount, snap.FailureCount,
			snap.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func printBatch(snap *service.BatchSnapshot) {
	fmt.Printf("Batch:     %s\n", snap.BatchID)
	fmt.Printf("Status:    %s\n", snap.Status)
	fmt.Printf("Total:     %d\n", snap.Total)
	fmt.Printf("Succeeded: %d\n", snap.SuccessCount)
	fmt.Printf("Failed:    %d\n", snap.FailureCount)
	for _, failure := range snap.Failed {
		fmt.Printf("  ✗ %s\n", failure)
	}
	if verbose {
		for _, a := range snap.Successful {
			fmt.Printf("  ✓ #%d %s\n", a.ID, a.Summary)
		}
	}
}

func readTextsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texts file: %w", err)
	}
	defer f.Close()

	var texts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read texts file: %w", err)
	}
	return texts, nil
}
