package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keeva-labs/keeva/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve retrieval and memory tools over MCP",
	Long: `Expose context building, memory, and session tools to MCP clients.

The server speaks JSON-RPC over stdio by default, which is what desktop
assistant clients expect. Pass --port to serve the streamable HTTP
transport instead (useful with the MCP Inspector or remote clients).

Examples:
  keeva mcp serve
  keeva mcp serve --port 8080

Client configuration (stdio):
  {
    "mcpServers": {
      "keeva": {
        "command": "/path/to/keeva",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Session:   sessionService,
		Memory:    memoryStore,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
