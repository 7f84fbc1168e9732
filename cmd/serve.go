package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve public pages and the editor API",
	Long: `Start the HTTP server.

Public pages are served by a catch-all route: "/" is the home page,
"/{slug}" a page and "/{slug}/{identifier}" a page rendered with context data.
The editor API lives under /api, draft previews under /preview/{id} and the
MCP endpoint under /mcp.

Examples:
  pagebuilder serve
  pagebuilder serve --addr :3000 --watch`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		err = a.Serve(ctx)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Bool("watch", false, "reload sections when the theme directory changes")
	_ = viper.BindPFlag("http.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("theme.watch", serveCmd.Flags().Lookup("watch"))
	rootCmd.AddCommand(serveCmd)
}
