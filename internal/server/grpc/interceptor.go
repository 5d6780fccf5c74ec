package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/appli/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var publicServicePrefix = "/" + healthpb.Health_ServiceDesc.ServiceName + "/"

func isPublic(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, publicServicePrefix)
}

func (s *GRPCServer) authenticate(ctx context.Context) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	p, err := s.guard.AuthenticateMetadata(md)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	return auth.WithPrincipal(ctx, p), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	authed, err := s.authenticate(ctx)
	if err != nil {
		s.logger.Warn(ctx, "rejected gRPC call", "method", info.FullMethod)
		return nil, err
	}
	return handler(authed, req)
}
