package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"semcache/internal/adapters/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve queries, cache statistics and metrics over HTTP",
	Long: `Serve the query cache over HTTP.

Routes:
  GET  /health
  GET  /metrics          prometheus metrics
  GET  /api/query        conditions, printout, limit, offset, sort, order, context
  POST /api/query        JSON request
  POST /api/invalidate   {"entities": [...], "reason": "..."}
  GET  /api/stats
  POST /api/sync         ?full=true rebuilds the index`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := serveAddr
		if addr == "" {
			addr = container.Config.HTTP.Addr
		}
		logger := container.Logger.Named("http")

		router := httpapi.NewRouter(container.Cache, container.Data, container.Index, container.Registry, logger)
		srv := &http.Server{
			Addr:              addr,
			Handler:           router.Setup(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}
