package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Reload the index snapshot from disk",
	Long: `Discards the loaded index snapshot and reloads it from the index
file. Run after ingestion finishes writing a new index. Queries in
flight complete against the old snapshot.`,
	Args: cobra.NoArgs,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	if err := retrievalService.Reindex(cmd.Context()); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	cmd.Println("Index reloaded.")
	return nil
}
