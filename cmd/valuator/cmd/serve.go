package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/valuator/internal/config"
	"github.com/aristath/valuator/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		port int
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored valuations over a read-only HTTP API",
		Long: `Serve the store over HTTP:

  GET /api/health
  GET /api/valuations
  GET /api/valuations/{symbol}
  GET /api/prices/{symbol}?limit=N
  GET /api/forecasts/{symbol}
  GET /metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, log, err := root.wire(cmd, func(cfg *config.Config) {
				if port > 0 {
					cfg.HTTPPort = port
				}
			})
			if err != nil {
				return err
			}
			defer container.Close()

			srv := server.New(server.Config{
				Log:     log,
				DB:      container.DB,
				API:     container.APIHandler,
				Metrics: container.Metrics.Handler(),
				Port:    container.Config.HTTPPort,
				DevMode: dev,
			})

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (HTTP_PORT)")
	cmd.Flags().BoolVar(&dev, "dev", false, "disable response compression")

	return cmd
}
