package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/combo-clustering/pkg/api"
	"github.com/gilchrisn/combo-clustering/pkg/combo"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve partitioning over HTTP",
		Long: `Start an HTTP server exposing
  POST /api/v1/partition   partition an edge list or matrix
  GET  /api/v1/health      liveness check

Algorithm flags set the defaults that every request may override.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().StringSlice("allowed-origins", []string{"*"}, "CORS allowed origins")
	cmd.Flags().Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", 5*time.Minute, "HTTP write timeout")
	cmd.Flags().Int("max-nodes", combo.DefaultMaxNodes, "Largest graph accepted per request")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.BindFlag("server.max_nodes", cmd.Flags().Lookup("max-nodes")); err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}
	logger := config.CreateLogger()
	log.Logger = logger

	addr, _ := cmd.Flags().GetString("addr")
	origins, _ := cmd.Flags().GetStringSlice("allowed-origins")
	readTimeout, _ := cmd.Flags().GetDuration("read-timeout")
	writeTimeout, _ := cmd.Flags().GetDuration("write-timeout")

	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(api.NewHandlers(config, logger), origins),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, server)
}

// serve runs server until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("Server shutdown complete")
	return nil
}
