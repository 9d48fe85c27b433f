// Package admin exposes the proxy's liveness surface: a gRPC health
// service external monitoring can poll, standing in for the admin/RPC
// plane spec.md §6 treats as an external collaborator.
package admin

import (
	"context"
	"fmt"
	"net"

	"go.minekube.com/gate/pkg/config"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server runs the admin gRPC listener while Serve blocks; Stop tears it
// down for a graceful shutdown.
type Server struct {
	cfg     config.AdminConfig
	grpcSrv *grpc.Server
	health  *health.Server
}

// New builds a Server bound to cfg; it does not listen until Serve runs.
func New(cfg config.AdminConfig) *Server {
	h := health.NewServer()
	g := grpc.NewServer()
	healthpb.RegisterHealthServer(g, h)
	return &Server{cfg: cfg, grpcSrv: g, health: h}
}

// Serve blocks, accepting connections on cfg.Bind until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	if !s.cfg.Enabled {
		<-ctx.Done()
		return nil
	}
	ln, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		return fmt.Errorf("admin: binding %s: %w", s.cfg.Bind, err)
	}
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 1)
	go func() { errCh <- s.grpcSrv.Serve(ln) }()

	select {
	case <-ctx.Done():
		s.grpcSrv.GracefulStop()
		zap.L().Info("admin health service stopped")
		return nil
	case err := <-errCh:
		return err
	}
}

// SetNotServing marks the proxy as going away, e.g. during Shutdown.
func (s *Server) SetNotServing() {
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
}
