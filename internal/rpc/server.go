// Package rpc exposes the dashboard over gRPC. The Dashboard service is
// registered by hand with google.protobuf.Struct messages carrying the same
// JSON shapes as the REST API, so no generated code is needed.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"screener/internal/dashboard"
	"screener/internal/heatmap"
	"screener/internal/store"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "screener.v1.Dashboard"

// Full method names.
const (
	HeatmapMethod = "/" + ServiceName + "/Heatmap"
	HistoryMethod = "/" + ServiceName + "/History"
)

// DashboardServer is the server API of the Dashboard service.
type DashboardServer interface {
	Heatmap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	History(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Server implements DashboardServer over a dashboard.Service.
type Server struct {
	svc *dashboard.Service
	log *slog.Logger
}

var _ DashboardServer = (*Server)(nil)

// NewServer creates a Server backed by svc.
func NewServer(svc *dashboard.Service, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log}
}

// RegisterGRPC registers the Dashboard and health services on gs. Health
// reports SERVING for the server and the Dashboard service.
func (s *Server) RegisterGRPC(gs *grpc.Server) *health.Server {
	gs.RegisterService(&serviceDesc, s)
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)
	return hs
}

// Heatmap renders a heatmap. Request fields: date, groupBy, sizeBy, width,
// height; all optional.
func (s *Server) Heatmap(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	v, err := s.svc.Heatmap(ctx, dashboard.HeatmapRequest{
		Date:    stringField(req, "date"),
		GroupBy: stringField(req, "groupBy"),
		SizeBy:  stringField(req, "sizeBy"),
		Width:   numberField(req, "width"),
		Height:  numberField(req, "height"),
	})
	if err != nil {
		return nil, s.toStatus("Heatmap", err)
	}
	return toStruct(v)
}

// History reconstructs a ticker's series. Request fields: ticker
// (required), max.
func (s *Server) History(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ticker := strings.ToUpper(stringField(req, "ticker"))
	if ticker == "" {
		return nil, status.Error(codes.InvalidArgument, "ticker required")
	}
	v, err := s.svc.History(ctx, ticker, int(numberField(req, "max")))
	if err != nil {
		return nil, s.toStatus("History", err)
	}
	return toStruct(v)
}

func (s *Server) toStatus(method string, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, store.ErrInvalidDate),
		errors.Is(err, heatmap.ErrUnknownGroupBy),
		errors.Is(err, heatmap.ErrUnknownWeightMetric):
		code = codes.InvalidArgument
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		code = codes.Internal
		s.log.Error("grpc request failed", "method", method, "error", err)
	}
	return status.Error(code, err.Error())
}

func stringField(req *structpb.Struct, name string) string {
	if v, ok := req.GetFields()[name]; ok {
		return v.GetStringValue()
	}
	return ""
}

func numberField(req *structpb.Struct, name string) float64 {
	if v, ok := req.GetFields()[name]; ok {
		return v.GetNumberValue()
	}
	return 0
}

// toStruct converts a JSON-tagged view into a Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encoding response: %v", err))
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("decoding response: %v", err))
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("building struct: %v", err))
	}
	return out, nil
}

func heatmapHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardServer).Heatmap(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HeatmapMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DashboardServer).Heatmap(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func historyHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DashboardServer).History(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(DashboardServer).History(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Heatmap", Handler: heatmapHandler},
		{MethodName: "History", Handler: historyHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "screener/v1/dashboard.proto",
}
