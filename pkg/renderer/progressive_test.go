package renderer

import (
	"context"
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/integrator"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// silentLogger discards log output in tests
type silentLogger struct{}

func (silentLogger) Printf(format string, args ...interface{}) {}

func newTestProgressive(s *scene.Scene, workers, tileSize int) *ProgressiveRaytracer {
	config := DefaultProgressiveConfig()
	config.NumWorkers = workers
	config.TileSize = tileSize
	config.MaxFrames = 3
	return NewProgressiveRaytracer(s, config, silentLogger{})
}

func TestProgressiveConfig(t *testing.T) {
	config := DefaultProgressiveConfig()

	if config.TileSize != 32 {
		t.Errorf("Expected default tile size 32, got %d", config.TileSize)
	}
	if config.MaxFrames != 100 {
		t.Errorf("Expected default max frames 100, got %d", config.MaxFrames)
	}
	if config.NumWorkers != 0 {
		t.Errorf("Expected auto-detected workers by default, got %d", config.NumWorkers)
	}
}

func TestProgressive_ParallelMatchesSequential(t *testing.T) {
	s := createTestScene(23, 13)
	rt := NewRaytracer(s, integrator.NewPathTracingIntegrator(s.SamplingConfig))

	pr := newTestProgressive(s, 4, 5)
	defer pr.Close()

	// The first frame after a reset is copied into the accumulator unchanged
	if _, err := pr.RenderFrame(context.Background()); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	want, _ := rt.RenderFrame(0)
	state := pr.Snapshot()
	for i := range want.Pixels {
		if state.Pixels[i] != want.Pixels[i] {
			t.Fatalf("Pixel %d: parallel %v != sequential %v", i, state.Pixels[i], want.Pixels[i])
		}
	}
}

func TestProgressive_FrameIndexAdvances(t *testing.T) {
	s := createTestScene(8, 6)
	pr := newTestProgressive(s, 2, 4)
	defer pr.Close()

	for k := 1; k <= 3; k++ {
		result, err := pr.RenderFrame(context.Background())
		if err != nil {
			t.Fatalf("RenderFrame failed: %v", err)
		}
		if result.FrameIndex != k || pr.FrameIndex() != k {
			t.Errorf("Expected frame index %d, got %d (%d)", k, result.FrameIndex, pr.FrameIndex())
		}
		if result.Stats.AccumulatedSamples != k*s.SamplingConfig.SamplesPerPixel {
			t.Errorf("Expected %d accumulated samples, got %d", k*s.SamplingConfig.SamplesPerPixel, result.Stats.AccumulatedSamples)
		}
		if result.Stats.Trace.Rays < int64(8*6*s.SamplingConfig.SamplesPerPixel) {
			t.Errorf("Expected at least one ray per sample, got %d", result.Stats.Trace.Rays)
		}
	}

	pr.Reset()
	if pr.FrameIndex() != 0 {
		t.Errorf("Expected frame index 0 after reset, got %d", pr.FrameIndex())
	}
}

func TestProgressive_SceneSwitchResets(t *testing.T) {
	bright := createTestScene(6, 4)
	pr := newTestProgressive(bright, 2, 3)
	defer pr.Close()

	for i := 0; i < 2; i++ {
		if _, err := pr.RenderFrame(context.Background()); err != nil {
			t.Fatalf("RenderFrame failed: %v", err)
		}
	}

	// A scene that is black everywhere exposes any leftover accumulation
	dark := scene.New("dark", bright.CameraConfig, lightsOff{}, bright.SamplingConfig)
	pr.SetScene(dark)

	if pr.FrameIndex() != 0 {
		t.Fatalf("Expected frame index 0 after scene switch, got %d", pr.FrameIndex())
	}
	for _, p := range pr.Snapshot().Pixels {
		if p != (core.Vec3{}) {
			t.Fatalf("Expected empty accumulation after scene switch, got %v", p)
		}
	}

	result, err := pr.RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if result.FrameIndex != 1 {
		t.Errorf("Expected frame index 1, got %d", result.FrameIndex)
	}
	for _, p := range result.State.Pixels {
		if p != (core.Vec3{}) {
			t.Fatalf("Expected only the dark scene in the image, got %v", p)
		}
	}
	if pr.Scene() != dark {
		t.Error("Expected Scene to return the new scene")
	}
}

// lightsOff is an environment that emits nothing
type lightsOff struct{}

func (lightsOff) Emit(direction core.Vec3) core.Vec3 { return core.Vec3{} }

func TestProgressive_ResolutionChangeOnSceneSwitch(t *testing.T) {
	pr := newTestProgressive(createTestScene(8, 6), 1, 4)
	defer pr.Close()

	pr.SetScene(createTestScene(5, 3))
	result, err := pr.RenderFrame(context.Background())
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if b := result.Image.Bounds(); b.Dx() != 5 || b.Dy() != 3 {
		t.Errorf("Expected 5x3 image, got %v", b)
	}
}

func TestRenderProgressive_StopsAfterMaxFrames(t *testing.T) {
	pr := newTestProgressive(createTestScene(8, 6), 2, 4)
	defer pr.Close()

	frames, tiles, errs := pr.RenderProgressive(context.Background(), RenderOptions{TileUpdates: true})

	tileCount := 0
	done := make(chan struct{})
	go func() {
		for range tiles {
			tileCount++
		}
		close(done)
	}()

	var results []FrameResult
	for result := range frames {
		results = append(results, result)
	}
	<-done
	if err := <-errs; err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(results))
	}
	for i, result := range results {
		if result.FrameIndex != i+1 {
			t.Errorf("Expected frame index %d, got %d", i+1, result.FrameIndex)
		}
		if result.IsLast != (i == 2) {
			t.Errorf("Frame %d: unexpected IsLast=%v", i+1, result.IsLast)
		}
	}
	if tileCount != 3*len(NewTileGrid(8, 6, 4)) {
		t.Errorf("Expected %d tile updates, got %d", 3*len(NewTileGrid(8, 6, 4)), tileCount)
	}
}

func TestRenderProgressive_Cancelled(t *testing.T) {
	pr := newTestProgressive(createTestScene(8, 6), 1, 8)
	defer pr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames, _, errs := pr.RenderProgressive(ctx, RenderOptions{})
	for range frames {
		t.Error("Expected no frames from a cancelled context")
	}
	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestRenderFrame_AfterClose(t *testing.T) {
	pr := newTestProgressive(createTestScene(4, 4), 1, 4)
	pr.Close()
	pr.Close()

	if _, err := pr.RenderFrame(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestSetScene_AfterCloseStartsNoWorkers(t *testing.T) {
	original := createTestScene(4, 4)
	pr := newTestProgressive(original, 1, 4)
	pr.Close()
	pool := pr.workerPool

	pr.SetScene(createTestScene(8, 8))

	if pr.workerPool != pool {
		t.Error("Expected SetScene after Close to leave the stopped worker pool in place")
	}
	if pr.Scene() != original {
		t.Error("Expected SetScene after Close to keep the original scene")
	}
}

func TestVec3ToColor(t *testing.T) {
	tests := []struct {
		name  string
		input core.Vec3
		want  color.RGBA
	}{
		{"black", core.NewVec3(0, 0, 0), color.RGBA{0, 0, 0, 255}},
		{"white", core.NewVec3(1, 1, 1), color.RGBA{255, 255, 255, 255}},
		{"over-bright clamps", core.NewVec3(4, 2, 1.5), color.RGBA{255, 255, 255, 255}},
		{"negative clamps", core.NewVec3(-1, 0, 0), color.RGBA{0, 0, 0, 255}},
		{"gamma 2", core.NewVec3(0.25, 0.25, 0.25), color.RGBA{127, 127, 127, 255}},
		{"NaN is black", core.NewVec3(math.NaN(), 1, 0), color.RGBA{0, 255, 0, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vec3ToColor(tt.input); got != tt.want {
				t.Errorf("vec3ToColor(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRenderStats_BoxRejectRate(t *testing.T) {
	stats := RenderStats{Width: 4, Height: 2, Trace: scene.TraceStats{BoxTests: 8, BoxRejects: 6}}
	if stats.BoxRejectRate() != 0.75 {
		t.Errorf("Expected reject rate 0.75, got %f", stats.BoxRejectRate())
	}
	if stats.TotalPixels() != 8 {
		t.Errorf("Expected 8 pixels, got %d", stats.TotalPixels())
	}
	if (RenderStats{}).BoxRejectRate() != 0 {
		t.Error("Expected zero reject rate without box tests")
	}
}
