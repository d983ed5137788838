package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

var (
	contextUser    string
	contextSession string
	contextJSON    bool
)

var contextCmd = &cobra.Command{
	Use:     "context [query]",
	Aliases: []string{"ask"},
	Short:   "Retrieve ranked context for a query",
	Long: `Runs the full retrieval pipeline for a query: query expansion,
hybrid dense and keyword search, long-term memories and ephemeral
session uploads, fused with reciprocal rank fusion.`,
	Args: cobra.ExactArgs(1),
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVarP(&contextUser, "user", "u", "default", "user whose memories to include")
	contextCmd.Flags().StringVarP(&contextSession, "session", "s", "", "session id with ephemeral uploads")
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "output the full bundle as JSON")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	bundle, err := retrievalService.BuildContext(cmd.Context(), contextUser, args[0], contextSession)
	if err != nil {
		if errors.Is(err, domain.ErrRetrieverNotReady) {
			return fmt.Errorf("no index loaded: %w", err)
		}
		return fmt.Errorf("building context: %w", err)
	}

	if contextJSON {
		data, err := json.MarshalIndent(bundle, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal bundle: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(bundle.Hits) == 0 && bundle.Context == "" {
		cmd.Println("No context found.")
		return nil
	}

	cmd.Println(bundle.Context)
	if bundle.UploadsInfo != "" {
		cmd.Println()
		cmd.Printf("Uploads: %s\n", bundle.UploadsInfo)
	}
	return nil
}
