package server

import (
	"context"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/grpc/interceptors"
	"letraz-jobboard/internal/logging"
)

type Server struct {
	cfg     *config.Config
	grpc    *grpc.Server
	health  *health.Server
	metrics *interceptors.MetricsCollector
	logger  logging.Logger
}

func NewServer(cfg *config.Config, svc Service, logger logging.Logger) *Server {
	logger = logger.WithField("component", "grpc")
	metrics := interceptors.NewMetricsCollector()

	grpcServer := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.MaxRecvMsgSize(4*1024*1024),
		grpc.MaxSendMsgSize(16*1024*1024),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(logger),
			interceptors.LoggingInterceptor(logger),
			interceptors.MetricsInterceptor(metrics),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(logger),
			interceptors.StreamLoggingInterceptor(logger),
		),
	)

	healthServer := health.NewServer()
	grpcServer.RegisterService(&ExtractionServiceDesc, &extractionService{svc: svc})
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Server{
		cfg:     cfg,
		grpc:    grpcServer,
		health:  healthServer,
		metrics: metrics,
		logger:  logger,
	}
}

// Serve blocks until lis is closed or Stop is called
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpc.Serve(lis)
}

// SetServing flips the health status reported for the whole server
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_SERVING
	if !serving {
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Stop drains in-flight calls, forcing a stop when ctx ends first
func (s *Server) Stop(ctx context.Context) {
	s.logger.Info("Shutting down gRPC server...")
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.grpc.Stop()
	}
}

// Metrics returns per-method call counters
func (s *Server) Metrics() *interceptors.MetricsCollector {
	return s.metrics
}
