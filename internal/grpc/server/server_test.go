package server

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"letraz-jobboard/internal/config"
	"letraz-jobboard/internal/logging"
	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

type fakeService struct {
	lastExtract models.ExtractRequest
	extractErr  error
	careerErr   error
}

func (f *fakeService) Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResult, error) {
	f.lastExtract = req
	if f.extractErr != nil {
		return nil, f.extractErr
	}
	return &models.ExtractResult{
		Jobs:       []models.JobRecord{{Title: "Go Engineer", Company: "Acme", SourcePlatform: "indeed"}},
		TotalFound: 1,
		BoardStats: map[string]models.BoardStat{"indeed": {JobsFound: 1, Success: true}},
		Errors:     []models.RunError{},
		Metadata:   models.RunMetadata{RunID: "run-1"},
	}, nil
}

func (f *fakeService) ExtractCareerPage(ctx context.Context, req models.CareerPageRequest) (*models.CareerPageResult, error) {
	if f.careerErr != nil {
		return nil, f.careerErr
	}
	return &models.CareerPageResult{URL: req.URL, CardsFound: 2}, nil
}

func (f *fakeService) ClassifyURL(rawURL string) models.Classification {
	return models.Classification{Type: "lever", CompanyID: "acme", URL: rawURL, Known: true}
}

func (f *fakeService) ValidateURL(rawURL string) models.URLValidationResponse {
	return models.URLValidationResponse{URL: rawURL, IsDirectJobPosting: true, ClassificationType: "lever"}
}

func startServer(t *testing.T, svc Service) (*Server, *grpc.ClientConn) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(config.Default(), svc, logging.NewMultiLogger())
	go srv.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv, conn
}

func call(t *testing.T, conn *grpc.ClientConn, method string, in map[string]interface{}, opts ...grpc.CallOption) (*structpb.Struct, error) {
	t.Helper()
	req, err := structpb.NewStruct(in)
	if err != nil {
		t.Fatal(err)
	}
	out := new(structpb.Struct)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-request-id", "req-42")
	err = conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...)
	return out, err
}

func TestExtract(t *testing.T) {
	svc := &fakeService{}
	srv, conn := startServer(t, svc)

	var header metadata.MD
	out, err := call(t, conn, "Extract", map[string]interface{}{
		"jobTitle": "Go Engineer",
		"maxJobs":  5,
		"boards":   []interface{}{"indeed"},
	}, grpc.Header(&header))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got := header.Get("x-request-id"); len(got) != 1 || got[0] != "req-42" {
		t.Errorf("x-request-id header = %v", got)
	}

	if svc.lastExtract.JobTitle != "Go Engineer" || svc.lastExtract.MaxJobs != 5 || len(svc.lastExtract.Boards) != 1 {
		t.Errorf("decoded request = %+v", svc.lastExtract)
	}
	if got := out.Fields["totalFound"].GetNumberValue(); got != 1 {
		t.Errorf("totalFound = %v", got)
	}
	jobs := out.Fields["jobs"].GetListValue().GetValues()
	if len(jobs) != 1 || jobs[0].GetStructValue().Fields["title"].GetStringValue() != "Go Engineer" {
		t.Errorf("jobs = %v", jobs)
	}

	snapshot := srv.Metrics().Snapshot()
	if len(snapshot) != 1 || snapshot[0].Method != "/"+ServiceName+"/Extract" || snapshot[0].RequestCount != 1 {
		t.Errorf("metrics = %+v", snapshot)
	}
}

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"invalid criteria", utils.NewInvalidCriteriaError("jobTitle is required"), codes.InvalidArgument},
		{"unsupported platform", utils.NewUnsupportedPlatformError("monster"), codes.InvalidArgument},
		{"cancelled", utils.NewExtractionError(utils.KindCancelled, "", "stopped", context.Canceled), codes.Canceled},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"upstream", utils.NewExtractionError(utils.KindRateLimited, "indeed", "slow down", nil), codes.Unavailable},
		{"unknown", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, conn := startServer(t, &fakeService{extractErr: tt.err})
			_, err := call(t, conn, "Extract", map[string]interface{}{"jobTitle": "x"})
			if got := status.Code(err); got != tt.want {
				t.Errorf("code = %v, want %v (err %v)", got, tt.want, err)
			}
		})
	}
}

func TestCareerPageMethods(t *testing.T) {
	svc := &fakeService{}
	_, conn := startServer(t, svc)

	out, err := call(t, conn, "ExtractCareerPage", map[string]interface{}{"url": "https://jobs.lever.co/acme"})
	if err != nil {
		t.Fatalf("ExtractCareerPage: %v", err)
	}
	if out.Fields["cardsFound"].GetNumberValue() != 2 {
		t.Errorf("career page result = %v", out)
	}

	out, err = call(t, conn, "ClassifyCareerPage", map[string]interface{}{"url": "https://jobs.lever.co/acme"})
	if err != nil {
		t.Fatalf("ClassifyCareerPage: %v", err)
	}
	if out.Fields["type"].GetStringValue() != "lever" || !out.Fields["known"].GetBoolValue() {
		t.Errorf("classification = %v", out)
	}

	out, err = call(t, conn, "ValidateURL", map[string]interface{}{"url": "https://jobs.lever.co/acme/123"})
	if err != nil {
		t.Fatalf("ValidateURL: %v", err)
	}
	if !out.Fields["is_direct_job_posting"].GetBoolValue() {
		t.Errorf("validation = %v", out)
	}

	if _, err := call(t, conn, "ValidateURL", map[string]interface{}{}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("missing url code = %v", status.Code(err))
	}

	svc.careerErr = utils.NewExtractionError(utils.KindUnrecognizedPage, "", "no pattern", nil)
	if _, err := call(t, conn, "ExtractCareerPage", map[string]interface{}{"url": "https://example.com"}); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("unrecognized page code = %v", status.Code(err))
	}
}

func TestHealth(t *testing.T) {
	srv, conn := startServer(t, &fakeService{})
	client := healthpb.NewHealthClient(conn)

	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status = %v", resp.Status)
	}

	srv.SetServing(false)
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Status != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status after SetServing(false) = %v", resp.Status)
	}
}
