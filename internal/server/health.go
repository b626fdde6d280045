package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// WorkerService is the health service name reported alongside the overall status.
const WorkerService = "leads.import.Worker"

// Pinger checks a dependency, e.g. *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer exposes grpc.health.v1 and reports NOT_SERVING while the database is unreachable.
type HealthServer struct {
	grpc     *grpc.Server
	health   *health.Server
	db       Pinger
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

func NewHealthServer(db Pinger, interval time.Duration, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	grpc_health_v1.RegisterHealthServer(gs, hs)
	return &HealthServer{
		grpc:     gs,
		health:   hs,
		db:       db,
		interval: interval,
		timeout:  5 * time.Second,
		logger:   logger,
	}
}

// Serve listens on addr until ctx is cancelled.
func (h *HealthServer) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		h.logger.Error("failed to listen on address", "addr", addr, "error", err)
		return err
	}
	return h.ServeListener(ctx, lis)
}

func (h *HealthServer) ServeListener(ctx context.Context, lis net.Listener) error {
	h.Refresh(ctx)

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("health server listening", "addr", lis.Addr().String())
		errCh <- h.grpc.Serve(lis)
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			h.Refresh(ctx)
		case <-ctx.Done():
			h.health.Shutdown()
			h.grpc.GracefulStop()
			h.logger.Info("health server stopped")
			return nil
		}
	}
}

// Refresh pings the database and updates the reported status.
func (h *HealthServer) Refresh(ctx context.Context) {
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if h.db != nil {
		pctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.db.Ping(pctx)
		cancel()
		if err != nil {
			h.logger.Warn("health check: database unreachable", "error", err)
			status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		}
	}
	// empty name is the overall server health
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(WorkerService, status)
}
