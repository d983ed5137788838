package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	memoryUser  string
	memoryType  string
	memoryLimit int
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Manage long-term memories",
}

var memoryAddCmd = &cobra.Command{
	Use:   "add [content]",
	Short: "Store a fact about the user",
	Args:  cobra.ExactArgs(1),
	RunE:  runMemoryAdd,
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored facts, newest first",
	Args:  cobra.NoArgs,
	RunE:  runMemoryList,
}

func init() {
	memoryCmd.PersistentFlags().StringVarP(&memoryUser, "user", "u", "default", "user the memories belong to")
	memoryAddCmd.Flags().StringVarP(&memoryType, "type", "t", "note", "memory category (preference, bio, note)")
	memoryListCmd.Flags().IntVarP(&memoryLimit, "limit", "n", 20, "maximum number of memories to show")
	memoryCmd.AddCommand(memoryAddCmd)
	memoryCmd.AddCommand(memoryListCmd)
	rootCmd.AddCommand(memoryCmd)
}

func runMemoryAdd(cmd *cobra.Command, args []string) error {
	if memoryStore == nil {
		return errors.New("memory store not configured")
	}

	id, err := memoryStore.AddMemory(cmd.Context(), memoryUser, memoryType, args[0])
	if err != nil {
		return fmt.Errorf("adding memory: %w", err)
	}

	cmd.Printf("Stored memory %d\n", id)
	return nil
}

func runMemoryList(cmd *cobra.Command, _ []string) error {
	if memoryStore == nil {
		return errors.New("memory store not configured")
	}

	records, err := memoryStore.ListMemories(cmd.Context(), memoryUser, memoryLimit)
	if err != nil {
		return fmt.Errorf("listing memories: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No memories stored.")
		return nil
	}

	for _, r := range records {
		cmd.Printf("[%d] (%s) %s\n", r.ID, r.Type, r.Content)
	}
	return nil
}
