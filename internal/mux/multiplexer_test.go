package mux

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/grpc/server"
	"letraz-jobboard/internal/logging"
	"letraz-jobboard/pkg/models"
)

type stubService struct{}

func (stubService) Extract(context.Context, models.ExtractRequest) (*models.ExtractResult, error) {
	return &models.ExtractResult{}, nil
}

func (stubService) ExtractCareerPage(context.Context, models.CareerPageRequest) (*models.CareerPageResult, error) {
	return &models.CareerPageResult{}, nil
}

func (stubService) ClassifyURL(string) models.Classification { return models.Classification{} }

func (stubService) ValidateURL(string) models.URLValidationResponse {
	return models.URLValidationResponse{}
}

func TestServesBothProtocolsOnOnePort(t *testing.T) {
	cfg := config.Default()
	logger := logging.NewMultiLogger()

	httpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "pong")
	})
	m := NewMultiplexer(cfg, server.NewServer(cfg, stubService{}, logger), httpHandler, logger)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Serve(lis); err != nil {
		t.Fatal(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.Stop(ctx)
	}()

	resp, err := http.Get("http://" + m.Addr() + "/ping")
	if err != nil {
		t.Fatalf("http: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("http body = %q", body)
	}

	conn, err := grpc.NewClient(m.Addr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	hc, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: server.ServiceName})
	if err != nil {
		t.Fatalf("grpc health: %v", err)
	}
	if hc.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("grpc status = %v", hc.Status)
	}
}
