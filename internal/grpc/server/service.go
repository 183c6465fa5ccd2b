package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"letraz-jobboard/pkg/models"
	"letraz-jobboard/pkg/utils"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "jobboard.v1.ExtractionService"

// Service is the extraction surface exposed over gRPC; *extraction.Engine implements it
type Service interface {
	Extract(ctx context.Context, req models.ExtractRequest) (*models.ExtractResult, error)
	ExtractCareerPage(ctx context.Context, req models.CareerPageRequest) (*models.CareerPageResult, error)
	ClassifyURL(rawURL string) models.Classification
	ValidateURL(rawURL string) models.URLValidationResponse
}

// ExtractionServiceServer carries JSON-shaped messages as google.protobuf.Struct,
// using the same field names as the REST API.
type ExtractionServiceServer interface {
	Extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ExtractCareerPage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ClassifyCareerPage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ValidateURL(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type structCall func(srv ExtractionServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call structCall) grpc.MethodHandler {
	fullMethod := "/" + ServiceName + "/" + method
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ExtractionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ExtractionServiceServer), ctx, req.(*structpb.Struct))
		})
	}
}

// ExtractionServiceDesc registers ExtractionServiceServer without generated stubs
var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ExtractionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: unaryHandler("Extract", ExtractionServiceServer.Extract)},
		{MethodName: "ExtractCareerPage", Handler: unaryHandler("ExtractCareerPage", ExtractionServiceServer.ExtractCareerPage)},
		{MethodName: "ClassifyCareerPage", Handler: unaryHandler("ClassifyCareerPage", ExtractionServiceServer.ClassifyCareerPage)},
		{MethodName: "ValidateURL", Handler: unaryHandler("ValidateURL", ExtractionServiceServer.ValidateURL)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jobboard/v1/extraction.proto",
}

// extractionService adapts Service to the Struct-based wire surface
type extractionService struct {
	svc Service
}

func (s *extractionService) Extract(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.ExtractRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	result, err := s.svc.Extract(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(result)
}

func (s *extractionService) ExtractCareerPage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.CareerPageRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	result, err := s.svc.ExtractCareerPage(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(result)
}

func (s *extractionService) ClassifyCareerPage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.URLRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.URL == "" {
		return nil, status.Error(codes.InvalidArgument, "url is required")
	}
	return encode(s.svc.ClassifyURL(req.URL))
}

func (s *extractionService) ValidateURL(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req models.URLRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.URL == "" {
		return nil, status.Error(codes.InvalidArgument, "url is required")
	}
	return encode(s.svc.ValidateURL(req.URL))
}

func decode(in *structpb.Struct, v interface{}) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func encode(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}

// toStatus maps error kinds onto gRPC codes
func toStatus(err error) error {
	msg := err.Error()
	switch utils.KindOf(err) {
	case utils.KindInvalidCriteria, utils.KindUnsupportedPlatform:
		return status.Error(codes.InvalidArgument, msg)
	case utils.KindUnrecognizedPage:
		return status.Error(codes.FailedPrecondition, msg)
	case utils.KindCancelled:
		if errors.Is(err, context.DeadlineExceeded) {
			return status.Error(codes.DeadlineExceeded, msg)
		}
		return status.Error(codes.Canceled, msg)
	case utils.KindAccessDenied, utils.KindRateLimited, utils.KindUpstreamUnavailable, utils.KindNetwork, utils.KindUnexpectedStatus, utils.KindParse:
		return status.Error(codes.Unavailable, msg)
	default:
		return status.Error(codes.Internal, fmt.Sprintf("internal error: %s", msg))
	}
}
