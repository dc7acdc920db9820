package health

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the gRPC health service name reported alongside "".
const ServiceName = "akashic"

// GRPCServer mirrors the monitor's status on the standard gRPC health service.
type GRPCServer struct {
	monitor *Monitor
	port    int
	health  *grpchealth.Server
	server  *grpc.Server
	log     *slog.Logger
}

// NewGRPCServer creates a gRPC health server.
func NewGRPCServer(monitor *Monitor, port int) *GRPCServer {
	hs := grpchealth.NewServer()
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, hs)

	return &GRPCServer{
		monitor: monitor,
		port:    port,
		health:  hs,
		server:  s,
		log:     slog.Default().With("component", "grpc_health"),
	}
}

// Sync pushes the current monitor status to the health service.
func (g *GRPCServer) Sync(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := servingStatus(g.monitor.CheckHealth(ctx).SystemStatus)
	g.health.SetServingStatus("", status)
	g.health.SetServingStatus(ServiceName, status)
	return status
}

// Start listens and serves until Stop. Status is refreshed every interval.
func (g *GRPCServer) Start(ctx context.Context, interval time.Duration) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", g.port))
	if err != nil {
		return fmt.Errorf("failed to listen on %d: %w", g.port, err)
	}

	g.Sync(ctx)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				g.Sync(ctx)
			}
		}
	}()

	g.log.Info("gRPC health listening", "port", g.port)
	return g.server.Serve(lis)
}

// Stop marks the service as not serving and stops the server.
func (g *GRPCServer) Stop() {
	g.health.Shutdown()
	g.server.GracefulStop()
}

func servingStatus(s SystemStatus) healthpb.HealthCheckResponse_ServingStatus {
	if s == StatusCritical {
		return healthpb.HealthCheckResponse_NOT_SERVING
	}
	return healthpb.HealthCheckResponse_SERVING
}
