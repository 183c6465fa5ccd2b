package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"letraz-jobboard/internal/logging"
	"letraz-jobboard/pkg/utils"
)

// RequestIDHeader is the metadata key carrying a caller-supplied request id
const RequestIDHeader = "x-request-id"

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(RequestIDHeader); len(ids) > 0 && ids[0] != "" {
			return ids[0]
		}
	}
	return utils.GenerateRequestID()
}

func statusCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Internal
}

// LoggingInterceptor returns a gRPC unary interceptor that logs requests and responses
func LoggingInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	logger = logger.WithField("component", "grpc")
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		id := requestID(ctx)
		// echoed back so callers can correlate logs
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))

		resp, err := handler(ctx, req)

		fields := map[string]interface{}{
			"request_id":      id,
			"method":          info.FullMethod,
			"processing_time": time.Since(start).String(),
			"status_code":     statusCode(err).String(),
		}
		l := logger.WithContext(ctx)
		if err != nil {
			fields["error"] = err.Error()
			l.Error("gRPC request failed", fields)
		} else {
			l.Info("gRPC request completed", fields)
		}
		return resp, err
	}
}

// StreamLoggingInterceptor logs stream lifetimes, e.g. health Watch calls
func StreamLoggingInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	logger = logger.WithField("component", "grpc")
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		id := requestID(ss.Context())

		err := handler(srv, ss)

		fields := map[string]interface{}{
			"request_id":      id,
			"method":          info.FullMethod,
			"processing_time": time.Since(start).String(),
			"status_code":     statusCode(err).String(),
		}
		if err != nil {
			fields["error"] = err.Error()
			logger.Error("gRPC stream failed", fields)
		} else {
			logger.Debug("gRPC stream completed", fields)
		}
		return err
	}
}
