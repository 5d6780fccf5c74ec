package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/logging"
	"github.com/dmitrijs2005/appli/internal/server/auth"
	"github.com/dmitrijs2005/appli/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// PortalServiceName is the gRPC service serving the caller's account and
// applications. Messages are protobuf well-known types: requests are Empty
// or Struct, responses Struct or ListValue.
const PortalServiceName = "appli.v1.Portal"

const (
	MethodMe                 = "/" + PortalServiceName + "/Me"
	MethodListMyApplications = "/" + PortalServiceName + "/ListMyApplications"
	MethodChangeStatus       = "/" + PortalServiceName + "/ChangeStatus"
)

type userService interface {
	Me(ctx context.Context, p auth.Principal) (*models.User, error)
}

type applicationService interface {
	ListMine(ctx context.Context, userID string) ([]*models.Application, error)
	ChangeStatus(ctx context.Context, id string, status models.ApplicationStatus, adminID string) (*models.Application, error)
}

// portalServer is the handler type checked by grpc.RegisterService.
type portalServer interface {
	Me(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListMyApplications(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	ChangeStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var portalServiceDesc = grpc.ServiceDesc{
	ServiceName: PortalServiceName,
	HandlerType: (*portalServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Me", Handler: portalMeHandler},
		{MethodName: "ListMyApplications", Handler: portalListMyApplicationsHandler},
		{MethodName: "ChangeStatus", Handler: portalChangeStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "appli/v1/portal.proto",
}

func (s *GRPCServer) Me(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	p, _ := auth.PrincipalFromContext(ctx)

	u, err := s.users.Me(ctx, p)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	return s.toStruct(ctx, map[string]any{
		"id":         u.ID,
		"name":       u.Name,
		"email":      u.Email,
		"role":       u.Role,
		"created_at": u.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (s *GRPCServer) ListMyApplications(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	p, _ := auth.PrincipalFromContext(ctx)

	apps, err := s.applications.ListMine(ctx, p.ID)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}

	items := make([]any, 0, len(apps))
	for _, a := range apps {
		items = append(items, applicationFields(a))
	}

	list, err := structpb.NewList(items)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return list, nil
}

// ChangeStatus expects {"id": ..., "status": ...} and is admin only.
func (s *GRPCServer) ChangeStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, _ := auth.PrincipalFromContext(ctx)
	if err := s.enforcer.Require(p, auth.RoleAdmin); err != nil {
		s.logger.Warn(ctx, "access denied", "user_id", p.ID, "method", MethodChangeStatus)
		return nil, s.statusError(ctx, err)
	}

	fields := req.GetFields()
	id := fields["id"].GetStringValue()
	st := models.ApplicationStatus(fields["status"].GetStringValue())

	app, err := s.applications.ChangeStatus(ctx, id, st, p.ID)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return s.toStruct(ctx, applicationFields(app))
}

func applicationFields(a *models.Application) map[string]any {
	m := map[string]any{
		"id":           a.ID,
		"user_id":      a.UserID,
		"job_id":       a.JobID,
		"resume_url":   a.ResumeURL,
		"status":       string(a.Status),
		"cover_letter": nil,
		"created_at":   a.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at":   a.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if a.CoverLetter != nil {
		m["cover_letter"] = *a.CoverLetter
	}
	return m
}

func (s *GRPCServer) toStruct(ctx context.Context, m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, s.statusError(ctx, err)
	}
	return out, nil
}

// statusError maps service errors to gRPC codes the same way the HTTP API
// maps them to statuses. Unknown errors are logged and reported as Internal.
func (s *GRPCServer) statusError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, common.ErrUnauthenticated.Error())
	case errors.Is(err, common.ErrForbidden):
		return status.Error(codes.PermissionDenied, common.ErrForbidden.Error())
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrInvalidStatus):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, common.ErrorNotFound.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, common.ErrorAlreadyExists.Error())
	default:
		logging.LogError(ctx, s.logger, "grpc call failed", err)
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
}

func portalMeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(portalServer).Me(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodMe}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(portalServer).Me(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func portalListMyApplicationsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(portalServer).ListMyApplications(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodListMyApplications}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(portalServer).ListMyApplications(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func portalChangeStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(portalServer).ChangeStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodChangeStatus}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(portalServer).ChangeStatus(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
