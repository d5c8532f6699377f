package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/PabloGalante/scam-harness/internal/adapters/http"
)

const shutdownTimeout = 10 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the websocket state stream",
	Long: `Starts the harness server. The session is kept in memory and shared by
all clients; every state change is pushed on /api/stream.

When HARNESS_SCENARIO_DIR is set, scenario files in it are reloaded on change.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (overrides HARNESS_PORT)")
	serveCmd.Flags().StringVar(&language, "language", "", "initial session language")
	serveCmd.Flags().StringVar(&channel, "channel", "", "initial session channel")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	port := cfg.Port
	if servePort != "" {
		port = servePort
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpadapter.NewServer(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("harness listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// close the service first so websocket streams end and let Shutdown drain
		svc.Close()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.ScenarioDir != "" {
		g.Go(func() error {
			return svc.Catalog().Watch(gctx, cfg.ScenarioDir)
		})
	}

	return g.Wait()
}
