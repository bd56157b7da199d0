package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/tasknest/internal/metrics"
	"github.com/josephgoksu/tasknest/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only HTTP API of the projects",
	Long: `Serve the projects over a local read-only HTTP API. Changes made by any
tasknest process are picked up live and streamed on /api/events.

Endpoints:
  GET /api/info
  GET /api/projects
  GET /api/projects/{id}
  GET /api/projects/{id}/tasks[?search=q]
  GET /api/projects/{id}/export[?format=json|yaml|toml]
  GET /api/events
  GET /metrics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		origins, _ := cmd.Flags().GetStringSlice("origin")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(a.tracker, server.Options{
			Addr:     addr,
			Backend:  a.kv.Name(),
			Version:  version,
			Origins:  origins,
			Gatherer: metrics.Gatherer(),
		})

		var wg sync.WaitGroup
		errChan := make(chan error, 1)
		srv.Start(&wg, errChan)

		select {
		case <-ctx.Done():
		case err = <-errChan:
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		wg.Wait()
		return err
	},
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:7420", "listen address")
	serveCmd.Flags().StringSlice("origin", nil, "allowed CORS origin (repeatable)")
	rootCmd.AddCommand(serveCmd)
}
