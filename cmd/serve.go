package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fakhrymubarak/weather-history-api/internal/handler"
	"github.com/fakhrymubarak/weather-history-api/internal/metrics"
	"github.com/fakhrymubarak/weather-history-api/internal/repository"
	"github.com/fakhrymubarak/weather-history-api/internal/router"
	"github.com/fakhrymubarak/weather-history-api/internal/server"
	"github.com/fakhrymubarak/weather-history-api/internal/service"
	"github.com/fakhrymubarak/weather-history-api/internal/store"
	"github.com/fakhrymubarak/weather-history-api/internal/telemetry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func serveCommand(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, app)
		},
	}
	cmd.Flags().String("port", "", "Port to listen on (overrides SERVER_PORT)")
	return cmd
}

// runServe wires every component and serves until ctx is cancelled.
func runServe(ctx context.Context, app *appContext) error {
	cfg, logger := app.cfg, app.logger

	shutdownTracing, err := telemetry.Setup(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warnw("Failed to flush traces", "error", err)
		}
	}()

	history, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}
	defer history.Close()

	m := metrics.New()
	repo := repository.NewWeatherRepository(cfg, logger)
	svc := service.NewWeatherService(repo, history,
		service.WithMetrics(m),
		service.WithLogger(logger),
	)
	h := handler.NewWeatherHandler(svc, cfg.Weather, logger)

	g, ctx := errgroup.WithContext(ctx)

	api := server.New(":"+cfg.Server.Port, cfg.Server, router.New(h, logger), logger)
	g.Go(func() error { return api.Run(ctx) })

	if cfg.Metrics.Addr != "" {
		metricsSrv := server.New(cfg.Metrics.Addr, cfg.Server, m.Handler(), logger)
		g.Go(func() error { return metricsSrv.Run(ctx) })
	}

	logger.Infow("Weather history API started", "port", cfg.Server.Port, "store", cfg.Store.Driver, "metrics_addr", cfg.Metrics.Addr)
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Infow("Weather history API stopped")
	return nil
}
