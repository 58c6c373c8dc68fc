package rpc

import (
	"bytes"
	"context"
	"image/png"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
)

type silentLogger struct{}

func (silentLogger) Printf(format string, args ...interface{}) {}

// dialService starts the frame service on an in-memory listener
func dialService(t *testing.T) *grpc.ClientConn {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	config := renderer.DefaultProgressiveConfig()
	config.NumWorkers = 2
	Register(server, NewFrameService(nil, config, silentLogger{}))
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestStreamFrames_ReturnsRequestedFrames(t *testing.T) {
	conn := dialService(t)

	var updates []FrameUpdate
	err := StreamFrames(context.Background(), conn, FrameRequest{
		Scene:           "cornell",
		Width:           16,
		Height:          12,
		SamplesPerPixel: 1,
		MaxBounces:      1,
		Frames:          3,
	}, func(update FrameUpdate) error {
		updates = append(updates, update)
		return nil
	})
	if err != nil {
		t.Fatalf("StreamFrames failed: %v", err)
	}

	if len(updates) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(updates))
	}
	for i, update := range updates {
		if update.FrameIndex != i+1 {
			t.Errorf("Frame %d: expected index %d, got %d", i, i+1, update.FrameIndex)
		}
		if update.Rays == 0 {
			t.Errorf("Frame %d: expected rays to be counted", i)
		}
		img, err := png.Decode(bytes.NewReader(update.PNG))
		if err != nil {
			t.Fatalf("Frame %d: invalid PNG: %v", i, err)
		}
		if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 12 {
			t.Errorf("Frame %d: expected 16x12 image, got %dx%d", i, b.Dx(), b.Dy())
		}
	}
	if !updates[2].IsLast || updates[1].IsLast {
		t.Error("Expected only the final frame to be marked last")
	}
}

func TestStreamFrames_Errors(t *testing.T) {
	conn := dialService(t)

	tests := []struct {
		name string
		req  FrameRequest
		code codes.Code
	}{
		{"missing scene", FrameRequest{Frames: 1}, codes.InvalidArgument},
		{"unknown scene", FrameRequest{Scene: "no-such-scene", Frames: 1}, codes.NotFound},
		{"mesh file", FrameRequest{Scene: "mesh:/etc/passwd", Frames: 1}, codes.NotFound},
		{"too wide", FrameRequest{Scene: "cornell", Width: MaxDimension + 1}, codes.InvalidArgument},
		{"negative bounces", FrameRequest{Scene: "cornell", MaxBounces: -1}, codes.InvalidArgument},
		{"too many frames", FrameRequest{Scene: "cornell", Frames: MaxFrames + 1}, codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := StreamFrames(context.Background(), conn, tt.req, func(FrameUpdate) error { return nil })
			if got := status.Code(err); got != tt.code {
				t.Errorf("Expected %v, got %v (%v)", tt.code, got, err)
			}
		})
	}
}

func TestStreamFrames_ClientCancel(t *testing.T) {
	conn := dialService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frames := 0
	err := StreamFrames(ctx, conn, FrameRequest{
		Scene: "spheres", Width: 8, Height: 8, SamplesPerPixel: 1, Frames: MaxFrames,
	}, func(FrameUpdate) error {
		frames++
		if frames == 2 {
			cancel()
		}
		return nil
	})
	if status.Code(err) != codes.Canceled {
		t.Errorf("Expected Canceled, got %v", err)
	}
	if frames < 2 {
		t.Errorf("Expected at least 2 frames before cancelling, got %d", frames)
	}
}

func TestRequestFromStruct_RejectsWrongKinds(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]interface{}
	}{
		{"scene number", map[string]interface{}{"scene": 3}},
		{"width string", map[string]interface{}{"scene": "cornell", "width": "wide"}},
		{"fractional frames", map[string]interface{}{"scene": "cornell", "frames": 2.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := structpb.NewStruct(tt.fields)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := requestFromStruct(s); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestFrameRequest_StructRoundTrip(t *testing.T) {
	want := FrameRequest{Scene: "grid", Width: 64, Height: 48, SamplesPerPixel: 4, MaxBounces: 5, Frames: 7}
	s, err := want.toStruct()
	if err != nil {
		t.Fatal(err)
	}
	got, err := requestFromStruct(s)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}
