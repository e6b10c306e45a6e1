// Package grpc hosts the backend health endpoint and the client-side
// readiness probe that waits on it.
package grpc

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthServer couples a gRPC server with the standard health service.
type HealthServer struct {
	Server *gogrpc.Server
	Health *health.Server
}

// NewHealthServer builds a traced gRPC server with the health service
// registered and reporting NOT_SERVING until MarkServing is called.
func NewHealthServer(opts ...gogrpc.ServerOption) *HealthServer {
	opts = append([]gogrpc.ServerOption{gogrpc.StatsHandler(otelgrpc.NewServerHandler())}, opts...)
	server := gogrpc.NewServer(opts...)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{Server: server, Health: healthServer}
}

// MarkServing reports SERVING for the overall server and each named service.
func (h *HealthServer) MarkServing(services ...string) {
	h.Health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	for _, service := range services {
		h.Health.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_SERVING)
	}
}

// Shutdown flips every status to NOT_SERVING and stops the server, forcing
// a stop when ctx ends first.
func (h *HealthServer) Shutdown(ctx context.Context) {
	h.Health.Shutdown()
	done := make(chan struct{})
	go func() {
		h.Server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		h.Server.Stop()
	}
}

// WaitForHealth blocks until the health check for service reports SERVING or
// ctx ends.
func WaitForHealth(ctx context.Context, conn gogrpc.ClientConnInterface, service string, logf func(string, ...any)) error {
	if conn == nil {
		return fmt.Errorf("gRPC connection is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if logf == nil {
		logf = func(string, ...any) {}
	}

	client := grpc_health_v1.NewHealthClient(conn)
	backoff := 100 * time.Millisecond
	for {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		resp, err := client.Check(callCtx, &grpc_health_v1.HealthCheckRequest{Service: service})
		cancel()
		switch {
		case err == nil && resp.GetStatus() == grpc_health_v1.HealthCheckResponse_SERVING:
			logf("backend health is SERVING")
			return nil
		case err != nil:
			logf("waiting for backend health: %v", err)
		default:
			logf("waiting for backend health: status=%s", resp.GetStatus())
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for gRPC health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, time.Second)
	}
}
