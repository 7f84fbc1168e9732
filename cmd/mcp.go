package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the editor as an MCP server on stdin/stdout",
	Long: `Run a standalone MCP server so an agent can build pages.

Publishing tools wait for a human decision. Pending requests are listed at
GET /api/approvals of a running "pagebuilder serve" sharing the same database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()
		return a.ServeMCP(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
