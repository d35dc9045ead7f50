package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ecodetect/ecodetect/internal/config"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var (
		address     string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the estimation HTTP API",
		Long: `Starts an HTTP server exposing the estimators:

  POST /api/v1/footprint        footprint from a snapshot and water flow
  POST /api/v1/emissions        tiered emissions estimate
  POST /api/v1/emissions/batch  many emissions estimates in one request
  GET  /api/v1/vehicle-types    emission factor table
  GET  /healthz                 liveness
  GET  /metrics                 Prometheus metrics

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  ecodetect serve
  ecodetect serve --address 127.0.0.1:9090`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			cfg := config.GetGlobalConfig()

			est, err := newEstimator(cfg)
			if err != nil {
				return err
			}

			opts := server.Options{
				Address:          cfg.Server.Address,
				ReadTimeout:      cfg.Server.ReadTimeout,
				WriteTimeout:     cfg.Server.WriteTimeout,
				CORSOrigins:      cfg.Server.CORSOrigins,
				MaxBatchSize:     cfg.Server.MaxBatchSize,
				BatchConcurrency: concurrency,
			}
			if address != "" {
				opts.Address = address
			}

			srvLogger := logging.ComponentLogger(*logging.FromContext(ctx), "server")
			return server.New(est, opts, srvLogger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&address, "address", "", "listen address (default from config)")
	cmd.Flags().IntVar(&concurrency, "batch-concurrency", 0, "batches evaluated in parallel per request")

	return cmd
}
