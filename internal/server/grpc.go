package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"runtime/debug"
	"time"

	"github.com/ElodielAirea/WoWAnalyzer/internal/repository"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// AnalyzerServiceName is the fully qualified gRPC service name.
const AnalyzerServiceName = "analyzer.v1.Analyzer"

// AnalyzerServer is the gRPC Analyzer service. Messages are generic structs
// carrying the JSON form of reports.
type AnalyzerServer interface {
	// Analyze expects {"recording": "<name>"} and returns the report.
	Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// GetReport expects {"session_id": "<id>"} and returns the stored report.
	GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// ListReports accepts {"limit": N} and returns {"reports": [...]}.
	ListReports(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(method string, call func(AnalyzerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AnalyzerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + AnalyzerServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(AnalyzerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AnalyzerServiceDesc describes the Analyzer service for grpc.Server.RegisterService.
var AnalyzerServiceDesc = grpc.ServiceDesc{
	ServiceName: AnalyzerServiceName,
	HandlerType: (*AnalyzerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Analyze", Handler: unaryHandler("Analyze", AnalyzerServer.Analyze)},
		{MethodName: "GetReport", Handler: unaryHandler("GetReport", AnalyzerServer.GetReport)},
		{MethodName: "ListReports", Handler: unaryHandler("ListReports", AnalyzerServer.ListReports)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "analyzer/v1/analyzer.proto",
}

// RegisterAnalyzerServer registers srv on s.
func RegisterAnalyzerServer(s grpc.ServiceRegistrar, srv AnalyzerServer) {
	s.RegisterService(&AnalyzerServiceDesc, srv)
}

// AnalyzerClient calls the Analyzer service.
type AnalyzerClient struct {
	cc grpc.ClientConnInterface
}

// NewAnalyzerClient creates a client on cc.
func NewAnalyzerClient(cc grpc.ClientConnInterface) *AnalyzerClient {
	return &AnalyzerClient{cc: cc}
}

func (c *AnalyzerClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+AnalyzerServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Analyze calls Analyzer/Analyze.
func (c *AnalyzerClient) Analyze(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Analyze", in, opts...)
}

// GetReport calls Analyzer/GetReport.
func (c *AnalyzerClient) GetReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetReport", in, opts...)
}

// ListReports calls Analyzer/ListReports.
func (c *AnalyzerClient) ListReports(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListReports", in, opts...)
}

// analyzerServer implements AnalyzerServer on top of AnalyzerService.
type analyzerServer struct {
	svc    *AnalyzerService
	logger *zap.Logger
}

// NewAnalyzerServer adapts svc to the gRPC surface.
func NewAnalyzerServer(svc *AnalyzerService, logger *zap.Logger) AnalyzerServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &analyzerServer{svc: svc, logger: logger}
}

func (s *analyzerServer) Analyze(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := req.GetFields()["recording"].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "recording is required")
	}
	report, err := s.svc.Analyze(ctx, name)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(report)
}

func (s *analyzerServer) GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["session_id"].GetStringValue()
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id is required")
	}
	report, err := s.svc.Report(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(report)
}

func (s *analyzerServer) ListReports(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := limitFrom(req)
	if err != nil {
		return nil, err
	}
	reports, err := s.svc.Reports(ctx, limit)
	if err != nil {
		return nil, toStatus(err)
	}
	if reports == nil {
		reports = []repository.ReportSummary{}
	}
	return toStruct(map[string]any{"reports": reports})
}

// limitFrom reads the optional "limit" field. It must be a whole number
// between 0 and math.MaxInt32.
func limitFrom(req *structpb.Struct) (int, error) {
	v, ok := req.GetFields()["limit"]
	if !ok {
		return 0, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber {
		return 0, status.Error(codes.InvalidArgument, "limit must be a number")
	}
	f := n.NumberValue
	if math.IsNaN(f) || f < 0 || f > math.MaxInt32 || f != math.Trunc(f) {
		return 0, status.Errorf(codes.InvalidArgument, "invalid limit %v", f)
	}
	return int(f), nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrInvalidRecordingName):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, ErrRecordingNotFound), errors.Is(err, repository.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// toStruct converts any JSON-encodable value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// RecoveryInterceptor turns handler panics into Internal errors.
func RecoveryInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in grpc handler",
					zap.String("method", info.FullMethod),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = status.Error(codes.Internal, fmt.Sprintf("internal error: %v", r))
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor logs every unary call with its outcome.
func LoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

// NewGRPCServer builds a gRPC server with the Analyzer and health services registered.
func NewGRPCServer(svc *AnalyzerService, logger *zap.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = zap.NewNop()
	}
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor(logger),
			LoggingInterceptor(logger),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 10 * time.Second,
		}),
	)

	RegisterAnalyzerServer(grpcServer, NewAnalyzerServer(svc, logger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(AnalyzerServiceName, healthpb.HealthCheckResponse_SERVING)

	return grpcServer, healthServer
}
