package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/logging"
	"letraz-jobboard/internal/logging/adapters"
	"letraz-jobboard/pkg/models"
)

func testLogger(t *testing.T) (logging.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := logging.NewMultiLogger()
	if err := logger.AddAdapter(adapters.NewStdoutAdapter("test", adapters.StdoutConfig{Format: "json", Writer: &buf})); err != nil {
		t.Fatal(err)
	}
	logger.SetLevel(logging.DebugLevel)
	return logger, &buf
}

func testBatch() Batch {
	return Batch{
		RunID:  "run_test",
		Source: SourceBoardSearch,
		Jobs: []models.JobRecord{
			{Title: "Go Engineer", Company: "Acme", SourcePlatform: "indeed"},
			{Title: "SRE", Company: "Initech", SourcePlatform: "dice"},
		},
	}
}

type fakeRedis struct {
	adds    []*redis.XAddArgs
	failAt  int
	pingErr error
	closed  bool
}

func (f *fakeRedis) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if f.failAt > 0 && len(f.adds)+1 == f.failAt {
		cmd.SetErr(errors.New("READONLY"))
		return cmd
	}
	f.adds = append(f.adds, a)
	cmd.SetVal("1-0")
	return cmd
}

func (f *fakeRedis) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetErr(f.pingErr)
	return cmd
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisSinkDeliver(t *testing.T) {
	logger, _ := testLogger(t)
	client := &fakeRedis{}
	s := newRedisSink(client, "jobboard:jobs", 500, logger)

	if err := s.Deliver(context.Background(), testBatch()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(client.adds) != 2 {
		t.Fatalf("got %d XADDs, want 2", len(client.adds))
	}

	first := client.adds[0]
	if first.Stream != "jobboard:jobs" || first.MaxLen != 500 || !first.Approx {
		t.Errorf("args = %+v", first)
	}
	values := first.Values.(map[string]interface{})
	if values["run_id"] != "run_test" || values["platform"] != "indeed" {
		t.Errorf("values = %v", values)
	}
	var job models.JobRecord
	if err := json.Unmarshal([]byte(values["job"].(string)), &job); err != nil || job.Title != "Go Engineer" {
		t.Errorf("job payload = %v (%v)", values["job"], err)
	}
}

func TestRedisSinkDeliverStopsOnError(t *testing.T) {
	logger, _ := testLogger(t)
	client := &fakeRedis{failAt: 2}
	s := newRedisSink(client, "jobs", 0, logger)

	err := s.Deliver(context.Background(), testBatch())
	if err == nil || !strings.Contains(err.Error(), "after 1 of 2") {
		t.Errorf("err = %v", err)
	}
}

func TestRedisSinkPingAndClose(t *testing.T) {
	logger, _ := testLogger(t)
	client := &fakeRedis{pingErr: errors.New("connection refused")}
	s := newRedisSink(client, "jobs", 0, logger)

	if err := s.Ping(context.Background()); err == nil {
		t.Error("Ping should surface client error")
	}
	s.Close()
	if !client.closed {
		t.Error("Close not forwarded")
	}
}

type fakeNATS struct {
	msgs     []*nats.Msg
	flushErr error
}

func (f *fakeNATS) PublishMsg(m *nats.Msg) error {
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeNATS) FlushWithContext(context.Context) error { return f.flushErr }

func (f *fakeNATS) Close() {}

func TestNATSSinkInjectsTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger, _ := testLogger(t)
	conn := &fakeNATS{}
	s := newNATSSink(conn, "jobboard.jobs.extracted", logger)

	if err := s.Deliver(ctx, testBatch()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(conn.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(conn.msgs))
	}

	msg := conn.msgs[0]
	if msg.Subject != "jobboard.jobs.extracted" || msg.Header.Get("Run-Id") != "run_test" {
		t.Errorf("msg = %+v", msg)
	}
	if tp := msg.Header.Get("traceparent"); !strings.Contains(tp, "4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Errorf("traceparent = %q", tp)
	}

	var got Batch
	if err := json.Unmarshal(msg.Data, &got); err != nil || len(got.Jobs) != 2 {
		t.Errorf("payload = %s (%v)", msg.Data, err)
	}
}

func TestNATSSinkFlushError(t *testing.T) {
	logger, _ := testLogger(t)
	s := newNATSSink(&fakeNATS{flushErr: nats.ErrConnectionClosed}, "jobs", logger)

	if err := s.Deliver(context.Background(), testBatch()); !errors.Is(err, nats.ErrConnectionClosed) {
		t.Errorf("err = %v, want ErrConnectionClosed", err)
	}
}

func TestLogSinkWritesSummary(t *testing.T) {
	logger, buf := testLogger(t)
	if err := NewLogSink(logger).Deliver(context.Background(), testBatch()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Batch delivered") || !strings.Contains(out, "Initech") {
		t.Errorf("log output = %s", out)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		sinkType string
		want     string
		wantErr  bool
	}{
		{config.SinkNone, config.SinkNone, false},
		{"", config.SinkNone, false},
		{config.SinkLog, config.SinkLog, false},
		{config.SinkRedis, config.SinkRedis, false},
		{config.SinkGRPC, config.SinkGRPC, false},
		{"kafka", "", true},
	}

	for _, tt := range tests {
		cfg := config.Default()
		cfg.Sink.Type = tt.sinkType
		cfg.Callback.ServerAddress = "localhost:9090"
		s, err := New(cfg, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) err = %v", tt.sinkType, err)
			continue
		}
		if err == nil {
			if s.Name() != tt.want {
				t.Errorf("New(%q).Name() = %q, want %q", tt.sinkType, s.Name(), tt.want)
			}
			s.Close()
		}
	}
}

type fakeCallback struct {
	methods []string
	payload *structpb.Struct
	health  healthpb.HealthCheckResponse_ServingStatus
	err     error
}

func (f *fakeCallback) Invoke(ctx context.Context, method string, args, reply interface{}, opts ...grpc.CallOption) error {
	f.methods = append(f.methods, method)
	if f.err != nil {
		return f.err
	}
	switch req := args.(type) {
	case *structpb.Struct:
		f.payload = req
	case *healthpb.HealthCheckRequest:
		reply.(*healthpb.HealthCheckResponse).Status = f.health
	}
	return nil
}

func (f *fakeCallback) Close() error { return nil }

func TestGRPCSinkDeliver(t *testing.T) {
	logger, _ := testLogger(t)
	conn := &fakeCallback{}
	s := newGRPCSink(conn, "/jobboard.v1.IngestionService/Ingest", time.Second, logger)

	if err := s.Deliver(context.Background(), testBatch()); err != nil {
		t.Fatal(err)
	}
	if len(conn.methods) != 1 || conn.methods[0] != "/jobboard.v1.IngestionService/Ingest" {
		t.Errorf("methods = %v", conn.methods)
	}
	if got := conn.payload.Fields["runId"].GetStringValue(); got != "run_test" {
		t.Errorf("runId = %q, payload %v", got, conn.payload)
	}
	if got := len(conn.payload.Fields["jobs"].GetListValue().GetValues()); got != 2 {
		t.Errorf("jobs in payload = %d", got)
	}

	conn.err = errors.New("unavailable")
	if err := s.Deliver(context.Background(), testBatch()); err == nil {
		t.Error("expected invoke error")
	}
}

func TestGRPCSinkPing(t *testing.T) {
	logger, _ := testLogger(t)
	conn := &fakeCallback{health: healthpb.HealthCheckResponse_SERVING}
	s := newGRPCSink(conn, "/x/Y", time.Second, logger)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("serving ping: %v", err)
	}
	conn.health = healthpb.HealthCheckResponse_NOT_SERVING
	if err := s.Ping(context.Background()); err == nil {
		t.Error("not serving ping succeeded")
	}
}

func TestConnectionParams(t *testing.T) {
	tests := []struct {
		in       string
		wantAddr string
		wantTLS  bool
	}{
		{"localhost", "localhost:9090", false},
		{"127.0.0.1:7000", "127.0.0.1:7000", false},
		{"ingest.example.com", "ingest.example.com:443", true},
		{"ingest.example.com:8443", "ingest.example.com:8443", true},
	}
	for _, tt := range tests {
		addr, creds := connectionParams(tt.in)
		if addr != tt.wantAddr {
			t.Errorf("connectionParams(%q) addr = %q, want %q", tt.in, addr, tt.wantAddr)
		}
		if gotTLS := creds.Info().SecurityProtocol == "tls"; gotTLS != tt.wantTLS {
			t.Errorf("connectionParams(%q) tls = %v", tt.in, gotTLS)
		}
	}
}
