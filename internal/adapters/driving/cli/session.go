package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/keeva-labs/keeva/internal/core/domain"
)

// uploadChunkSize splits files into fragments small enough to embed
// and rank individually.
const uploadChunkSize = 1500

var sessionID string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage ephemeral upload sessions",
}

var sessionAddCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Upload files into a session",
	Long: `Reads the given files, splits them into fragments and stores them
under the session id. Uploads live in process memory only and are
never written to the index. Without --session a fresh id is generated
and printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSessionAdd,
}

var sessionStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show live session and upload counts",
	Args:  cobra.NoArgs,
	RunE:  runSessionStats,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear [session-id]",
	Short: "Drop a session's uploads",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionClear,
}

func init() {
	sessionAddCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id (generated when empty)")
	sessionCmd.AddCommand(sessionAddCmd)
	sessionCmd.AddCommand(sessionStatsCmd)
	sessionCmd.AddCommand(sessionClearCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionAdd(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	sid := sessionID
	if sid == "" {
		sid = uuid.NewString()
	}

	var items []domain.SessionItem
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		name := filepath.Base(path)
		for i, fragment := range splitFragments(string(data), uploadChunkSize) {
			items = append(items, domain.SessionItem{
				Text: fragment,
				Path: fmt.Sprintf("%s::%d", name, i),
			})
		}
	}
	if len(items) == 0 {
		return errors.New("nothing to upload")
	}

	if err := sessionService.Add(cmd.Context(), sid, items); err != nil {
		return fmt.Errorf("adding to session: %w", err)
	}

	cmd.Printf("Session %s: added %d fragments\n", sid, len(items))
	return nil
}

// splitFragments cuts text into size-bounded pieces at paragraph
// boundaries where possible.
func splitFragments(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var fragments []string
	var current strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if current.Len() > 0 && current.Len()+len(para) > size {
			fragments = append(fragments, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)

		// A single paragraph larger than the limit is cut hard.
		for current.Len() > size {
			s := current.String()
			fragments = append(fragments, s[:size])
			current.Reset()
			current.WriteString(strings.TrimSpace(s[size:]))
		}
	}
	if current.Len() > 0 {
		fragments = append(fragments, current.String())
	}
	return fragments
}

func runSessionStats(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	stats := sessionService.Stats()
	cmd.Printf("Sessions: %d\n", stats.Sessions)
	cmd.Printf("Items:    %d\n", stats.Items)
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	sessionService.Clear(args[0])
	cmd.Printf("Cleared session %s\n", args[0])
	return nil
}
