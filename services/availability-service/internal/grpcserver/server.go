package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/md-rashed-zaman/bookavail/libs/grpcx"
	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName    = "bookavail.availability.v1.AvailabilityService"
	GenerateMethod = "/" + ServiceName + "/Generate"
)

// The request is the JSON availability request as a Struct; the response carries the
// days under "days".
type AvailabilityServer interface {
	Generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AvailabilityServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bookavail/availability/v1/availability.proto",
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AvailabilityServer).Generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GenerateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AvailabilityServer).Generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type Generator interface {
	Generate(ctx context.Context, req availability.Request) ([]availability.AvailabilityDay, error)
}

type Server struct {
	svc    Generator
	logger *slog.Logger
}

func New(svc Generator, logger *slog.Logger) *Server {
	return &Server{svc: svc, logger: logger}
}

// Register installs the availability and health services on s.
func Register(s *grpc.Server, srv *Server) *health.Server {
	s.RegisterService(&serviceDesc, srv)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return hs
}

// NewGRPCServer builds a server with the shared interceptors and registers srv on it.
func NewGRPCServer(logger *slog.Logger, srv *Server) (*grpc.Server, *health.Server) {
	s := grpcx.NewServer(logger)
	return s, Register(s, srv)
}

func (s *Server) Generate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req availability.Request
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, "malformed availability request")
	}

	days, err := s.svc.Generate(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	if days == nil {
		days = []availability.AvailabilityDay{}
	}
	out, err := toStruct(map[string]any{"days": days})
	if err != nil {
		s.logger.ErrorContext(ctx, "encode availability response", "err", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, availability.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, availability.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// The Struct and the domain types meet through their JSON encodings.
func fromStruct(in *structpb.Struct, dst any) error {
	raw, err := in.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return out, nil
}
