package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/leads-import-worker/internal/app"
	"github.com/joseph-ayodele/leads-import-worker/internal/common"
	"github.com/joseph-ayodele/leads-import-worker/internal/metrics"
	"github.com/joseph-ayodele/leads-import-worker/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(os.Stdout, cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, logger)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, common.ErrInvalidInput):
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	default:
		logger.Error("import worker exited with error", "error", err)
		os.Exit(1)
	}
}

// run starts the worker and blocks until ctx ends. A disabled worker returns
// before touching the database or opening any listener.
func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	if !cfg.Worker.Enabled {
		logger.Info("import worker disabled")
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("start import worker: %w", err)
	}
	defer a.Close()

	var hs *server.HealthServer
	if cfg.Server.HealthAddr != "" {
		hs = server.NewHealthServer(a.Pool, 0, logger)
	}
	if err := serve(ctx, a.Scheduler(workerID()), cfg.Server, hs, logger); err != nil {
		return err
	}
	logger.Info("import worker shut down")
	return nil
}

type runner interface {
	Run(ctx context.Context) error
}

// serve runs the scheduler with the optional side listeners. The listeners stop
// as soon as the scheduler returns.
func serve(ctx context.Context, sched runner, srv common.ServerConfig, hs *server.HealthServer, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return sched.Run(gctx)
	})
	if addr := srv.MetricsAddr; addr != "" {
		g.Go(func() error { return metrics.Serve(gctx, addr, logger) })
	}
	if addr := srv.HealthAddr; addr != "" && hs != nil {
		g.Go(func() error { return hs.Serve(gctx, addr) })
	}
	return g.Wait()
}

func workerID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
