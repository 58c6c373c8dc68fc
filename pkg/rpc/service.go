// Package rpc serves progressively rendered frames over gRPC.
//
// The service has a single server-streaming method,
// pathtracer.FrameService/StreamFrames, whose messages are
// google.protobuf.Struct values.
package rpc

import (
	"bytes"
	"context"
	"errors"
	"image/png"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// Limits applied to client requests
const (
	DefaultFrames = 10
	MaxFrames     = 10000
	MaxDimension  = 4096
	MaxSamples    = 1024
	MaxBounces    = 64
)

// SceneFactory builds the scene a client asked for
type SceneFactory func(name string, sampling scene.SamplingConfig) (*scene.Scene, error)

// FrameServer is the server API of the frame service
type FrameServer interface {
	StreamFrames(req *structpb.Struct, stream grpc.ServerStream) error
}

var frameServiceDesc = grpc.ServiceDesc{
	ServiceName: "pathtracer.FrameService",
	HandlerType: (*FrameServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamFrames",
			Handler:       streamFramesHandler,
			ServerStreams: true,
		},
	},
	Metadata: "pathtracer/frame_service.proto",
}

const streamFramesMethod = "/pathtracer.FrameService/StreamFrames"

func streamFramesHandler(srv interface{}, stream grpc.ServerStream) error {
	req := new(structpb.Struct)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	return srv.(FrameServer).StreamFrames(req, stream)
}

// Register adds the frame service to a gRPC server
func Register(server *grpc.Server, service FrameServer) {
	server.RegisterService(&frameServiceDesc, service)
}

// FrameService renders a fresh progressive session for every stream
type FrameService struct {
	factory SceneFactory
	config  renderer.ProgressiveConfig
	logger  core.Logger
}

// NewFrameService creates the service. A nil factory serves built-in scenes only.
func NewFrameService(factory SceneFactory, config renderer.ProgressiveConfig, logger core.Logger) *FrameService {
	if factory == nil {
		factory = scene.CreateBuiltin
	}
	if logger == nil {
		logger = renderer.NewDefaultLogger()
	}
	return &FrameService{factory: factory, config: config, logger: logger}
}

// StreamFrames renders the requested scene and streams each accumulated frame
func (s *FrameService) StreamFrames(reqStruct *structpb.Struct, stream grpc.ServerStream) error {
	req, err := requestFromStruct(reqStruct)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := validateRequest(req); err != nil {
		return err
	}

	sampling := scene.DefaultSamplingConfig()
	if req.Width > 0 {
		sampling.Width = req.Width
	}
	if req.Height > 0 {
		sampling.Height = req.Height
	}
	if req.SamplesPerPixel > 0 {
		sampling.SamplesPerPixel = req.SamplesPerPixel
	}
	if req.MaxBounces > 0 {
		sampling.MaxBounces = req.MaxBounces
	}

	sc, err := s.factory(req.Scene, sampling)
	if err != nil {
		if errors.Is(err, scene.ErrUnknownScene) {
			return status.Errorf(codes.NotFound, "scene %q not found", req.Scene)
		}
		return status.Errorf(codes.Internal, "create scene: %v", err)
	}

	config := s.config
	config.MaxFrames = DefaultFrames
	if req.Frames > 0 {
		config.MaxFrames = req.Frames
	}

	ctx := stream.Context()
	pr := renderer.NewProgressiveRaytracer(sc, config, s.logger)
	defer pr.Close()

	s.logger.Printf("gRPC stream: rendering %q at %dx%d for %d frames\n",
		req.Scene, sampling.Width, sampling.Height, config.MaxFrames)

	frames, _, errs := pr.RenderProgressive(ctx, renderer.RenderOptions{})
	for result := range frames {
		update, err := toUpdate(result)
		if err != nil {
			return status.Errorf(codes.Internal, "encode frame: %v", err)
		}
		msg, err := update.toStruct()
		if err != nil {
			return status.Errorf(codes.Internal, "encode frame: %v", err)
		}
		if err := stream.SendMsg(msg); err != nil {
			return err
		}
	}

	if err := <-errs; err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return status.Error(codes.Canceled, "stream cancelled")
		case errors.Is(err, context.DeadlineExceeded):
			return status.Error(codes.DeadlineExceeded, "stream deadline exceeded")
		default:
			return status.Errorf(codes.Internal, "render: %v", err)
		}
	}
	return nil
}

// validateRequest bounds the work a single client can ask for
func validateRequest(req FrameRequest) error {
	switch {
	case req.Scene == "":
		return status.Error(codes.InvalidArgument, "scene must be provided")
	case req.Width < 0 || req.Width > MaxDimension || req.Height < 0 || req.Height > MaxDimension:
		return status.Errorf(codes.InvalidArgument, "image size must be within 1..%d", MaxDimension)
	case req.SamplesPerPixel < 0 || req.SamplesPerPixel > MaxSamples:
		return status.Errorf(codes.InvalidArgument, "samples must be within 1..%d", MaxSamples)
	case req.MaxBounces < 0 || req.MaxBounces > MaxBounces:
		return status.Errorf(codes.InvalidArgument, "bounces must be within 0..%d", MaxBounces)
	case req.Frames < 0 || req.Frames > MaxFrames:
		return status.Errorf(codes.InvalidArgument, "frames must be within 1..%d", MaxFrames)
	}
	return nil
}

func toUpdate(result renderer.FrameResult) (FrameUpdate, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, result.Image); err != nil {
		return FrameUpdate{}, err
	}
	return FrameUpdate{
		FrameIndex:   result.FrameIndex,
		Width:        result.Stats.Width,
		Height:       result.Stats.Height,
		PNG:          buf.Bytes(),
		MeanChange:   result.Stats.Convergence.MeanChange,
		StdDevChange: result.Stats.Convergence.StdDevChange,
		Rays:         result.Stats.Trace.Rays,
		DurationMs:   float64(result.Stats.Duration.Microseconds()) / 1000,
		IsLast:       result.IsLast,
	}, nil
}
