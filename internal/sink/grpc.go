package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/logging"
)

// callbackConn is the part of *grpc.ClientConn the sink uses
type callbackConn interface {
	Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error
	Close() error
}

// GRPCSink calls a unary ingestion method on a remote service with each batch
// encoded as a google.protobuf.Struct.
type GRPCSink struct {
	conn    callbackConn
	method  string
	timeout time.Duration
	logger  logging.Logger
}

// DialCallback connects to cfg.Callback.ServerAddress. Localhost gets a
// plaintext connection, anything else TLS.
func DialCallback(cfg *config.Config, logger logging.Logger) (*GRPCSink, error) {
	if cfg.Callback.ServerAddress == "" {
		return nil, fmt.Errorf("callback server address is required")
	}
	timeout := cfg.Callback.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	addr, creds := connectionParams(cfg.Callback.ServerAddress)
	conn, err := grpc.NewClient(
		addr,
		grpc.WithTransportCredentials(creds),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                30 * time.Second,
			Timeout:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
			// prefer IPv4
			return (&net.Dialer{Timeout: timeout}).DialContext(ctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to %s: %w", addr, err)
	}

	logger.Info("Callback sink configured", map[string]interface{}{
		"address": addr,
		"method":  cfg.Callback.Method,
	})
	return newGRPCSink(conn, cfg.Callback.Method, timeout, logger), nil
}

func newGRPCSink(conn callbackConn, method string, timeout time.Duration, logger logging.Logger) *GRPCSink {
	return &GRPCSink{conn: conn, method: method, timeout: timeout, logger: logger}
}

func (s *GRPCSink) Name() string { return config.SinkGRPC }

func (s *GRPCSink) Deliver(ctx context.Context, batch Batch) error {
	req, err := batchStruct(batch)
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.conn.Invoke(callCtx, s.method, req, new(structpb.Struct)); err != nil {
		return fmt.Errorf("callback %s failed: %w", s.method, err)
	}

	s.logger.Debug("Batch sent to callback", map[string]interface{}{
		"run_id": batch.RunID,
		"jobs":   len(batch.Jobs),
	})
	return nil
}

// Ping asks the remote side's standard health service
func (s *GRPCSink) Ping(ctx context.Context) error {
	resp := new(healthpb.HealthCheckResponse)
	if err := s.conn.Invoke(ctx, "/grpc.health.v1.Health/Check", &healthpb.HealthCheckRequest{}, resp); err != nil {
		return err
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("callback server is %s", resp.Status)
	}
	return nil
}

func (s *GRPCSink) Close() error {
	return s.conn.Close()
}

func batchStruct(batch Batch) (*structpb.Struct, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}
	return structpb.NewStruct(m)
}

func connectionParams(serverAddress string) (string, credentials.TransportCredentials) {
	host := serverAddress
	if h, _, err := net.SplitHostPort(serverAddress); err == nil {
		host = h
	}
	if host == "localhost" || host == "127.0.0.1" {
		return ensurePort(serverAddress, "9090"), insecure.NewCredentials()
	}
	return ensurePort(serverAddress, "443"), credentials.NewTLS(nil)
}

// ensurePort appends defaultPort when addr has none
func ensurePort(addr, defaultPort string) string {
	if strings.Contains(addr, ":") {
		return addr
	}
	return net.JoinHostPort(addr, defaultPort)
}
