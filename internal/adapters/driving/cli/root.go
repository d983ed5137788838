// Package cli provides the cobra command tree for the keeva binary.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/keeva-labs/keeva/internal/core/ports/driven"
	"github.com/keeva-labs/keeva/internal/core/ports/driving"
	"github.com/keeva-labs/keeva/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by main before Execute.
var (
	retrievalService driving.RetrievalService
	sessionService   driving.SessionService
	memoryStore      driven.MemoryStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "keeva",
	Short: "Personal assistant retrieval engine",
	Long: `Keeva retrieves ranked personal context for an assistant backend.
It fuses dense vector search, keyword search, long-term memories and
ephemeral session uploads into one context bundle per query.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetServices injects the driving ports the commands call. Must run
// before Execute.
func SetServices(retrieval driving.RetrievalService, session driving.SessionService, memory driven.MemoryStore) {
	retrievalService = retrieval
	sessionService = session
	memoryStore = memory
}

// SetVersion overrides the reported version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
