// Package grpc runs the gRPC listener. It serves the standard health
// service and the Portal service; Portal calls are authenticated with the
// same access tokens the HTTP API accepts.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type GRPCServer struct {
	address      string
	guard        *auth.AccessGuard
	enforcer     *auth.RoleEnforcer
	users        userService
	applications applicationService
	health       *health.Server
	logger       logging.Logger
}

func NewGRPCServer(address string, l logging.Logger, guard *auth.AccessGuard, enforcer *auth.RoleEnforcer, us userService, as applicationService) *GRPCServer {
	return &GRPCServer{
		address:      address,
		guard:        guard,
		enforcer:     enforcer,
		users:        us,
		applications: as,
		health:       health.NewServer(),
		logger:       l.With("module", "grpc_server"),
	}
}

// SetServing flips the overall health status reported to probes.
func (s *GRPCServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then reports
// NOT_SERVING and stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	srv.RegisterService(&portalServiceDesc, s)
	s.SetServing(true)

	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stopped:
			return
		}
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()
	defer close(stopped)

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
