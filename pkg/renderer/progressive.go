package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/integrator"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// DefaultLogger implements core.Logger by writing to stdout
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// ErrClosed is returned when rendering with a closed ProgressiveRaytracer
var ErrClosed = errors.New("progressive raytracer is closed")

// ProgressiveConfig contains configuration for progressive rendering
type ProgressiveConfig struct {
	TileSize   int // Size of each tile (32x32 recommended)
	MaxFrames  int // Frames rendered by RenderProgressive (0 = until cancelled)
	NumWorkers int // Number of parallel workers (0 = use CPU count)
}

// DefaultProgressiveConfig returns sensible default values
func DefaultProgressiveConfig() ProgressiveConfig {
	return ProgressiveConfig{
		TileSize:   32,
		MaxFrames:  100,
		NumWorkers: 0, // Auto-detect CPU count
	}
}

// ProgressiveRaytracer renders a scene frame after frame and keeps the running
// average of all frames since the last reset. Frames are rendered tile by tile
// on a worker pool. Methods are safe for concurrent use; a scene switch or reset
// takes effect between frames.
type ProgressiveRaytracer struct {
	mu          sync.Mutex
	scene       *scene.Scene
	integrator  integrator.Integrator
	config      ProgressiveConfig
	tiles       []*Tile
	accumulator *Accumulator
	workerPool  *WorkerPool
	logger      core.Logger
	closed      bool
}

// NewProgressiveRaytracer creates a new progressive raytracer for the scene's
// configured resolution
func NewProgressiveRaytracer(s *scene.Scene, config ProgressiveConfig, logger core.Logger) *ProgressiveRaytracer {
	if logger == nil {
		logger = NewDefaultLogger()
	}
	pr := &ProgressiveRaytracer{
		config: config,
		logger: logger,
	}
	pr.setScene(s)
	return pr
}

// setScene rebuilds everything that depends on the scene. Caller holds mu.
func (pr *ProgressiveRaytracer) setScene(s *scene.Scene) {
	if pr.workerPool != nil {
		pr.workerPool.Stop()
	}

	width, height := s.SamplingConfig.Width, s.SamplingConfig.Height
	pr.scene = s
	pr.integrator = integrator.NewPathTracingIntegrator(s.SamplingConfig)
	pr.tiles = NewTileGrid(width, height, pr.config.TileSize)
	pr.accumulator = NewAccumulator(width, height)
	pr.workerPool = NewWorkerPool(s, pr.integrator, pr.config.NumWorkers, len(pr.tiles))
	pr.workerPool.Start()
}

// SetScene switches to a new scene. The accumulation is discarded and the
// frame index starts again from zero. It has no effect after Close.
func (pr *ProgressiveRaytracer) SetScene(s *scene.Scene) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	if pr.closed {
		return
	}
	pr.setScene(s)
	pr.logger.Printf("Switched to scene %q (%dx%d), accumulation reset\n",
		s.Name, s.SamplingConfig.Width, s.SamplingConfig.Height)
}

// Scene returns the scene being rendered
func (pr *ProgressiveRaytracer) Scene() *scene.Scene {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.scene
}

// Reset discards the accumulated image, keeping the scene
func (pr *ProgressiveRaytracer) Reset() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	pr.accumulator.Reset()
}

// FrameIndex returns the number of frames accumulated since the last reset
func (pr *ProgressiveRaytracer) FrameIndex() int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.accumulator.FrameIndex()
}

// Image returns the accumulated image
func (pr *ProgressiveRaytracer) Image() *image.RGBA {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.accumulator.Image()
}

// Snapshot copies the accumulated state
func (pr *ProgressiveRaytracer) Snapshot() AccumulatorState {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.accumulator.Snapshot()
}

// Restore resumes accumulation from a snapshot taken at the same resolution
func (pr *ProgressiveRaytracer) Restore(state AccumulatorState) error {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.accumulator.Restore(state)
}

// Close stops the worker pool. The raytracer cannot render afterwards.
func (pr *ProgressiveRaytracer) Close() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if !pr.closed {
		pr.closed = true
		pr.workerPool.Stop()
	}
}

// FrameResult contains the accumulated image after one more frame
type FrameResult struct {
	FrameIndex int              // Frames accumulated, including this one
	Image      *image.RGBA      // Accumulated image
	State      AccumulatorState // Copy of the accumulated linear colours
	Stats      RenderStats
	IsLast     bool
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	TileX      int // Tile coordinates (not pixel coordinates)
	TileY      int
	TileImage  *image.RGBA // This frame's noisy estimate for just this tile
	FrameIndex int         // Which frame this tile was rendered in (0-based)

	// Progress information
	TileNumber int // Current tile number in this frame (1-based)
	TotalTiles int // Total number of tiles in the image
}

// RenderFrame renders one noisy frame and blends it into the accumulation
func (pr *ProgressiveRaytracer) RenderFrame(ctx context.Context) (FrameResult, error) {
	return pr.renderFrame(ctx, nil)
}

func (pr *ProgressiveRaytracer) renderFrame(ctx context.Context, tileCallback func(TileCompletionResult)) (FrameResult, error) {
	if err := ctx.Err(); err != nil {
		return FrameResult{}, err
	}

	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		return FrameResult{}, ErrClosed
	}

	startTime := time.Now()
	frameIndex := pr.accumulator.FrameIndex()
	frame := NewFrame(pr.accumulator.Width(), pr.accumulator.Height())

	for taskID, tile := range pr.tiles {
		pr.workerPool.SubmitTask(TileTask{
			Tile:       tile,
			FrameIndex: frameIndex,
			TaskID:     taskID,
			Frame:      frame,
		})
	}

	// Collect every result, even after an error, so no task is left in flight
	var traceStats scene.TraceStats
	var renderErr error
	for i := 0; i < len(pr.tiles); i++ {
		result, ok := pr.workerPool.GetResult()
		if !ok {
			return FrameResult{}, fmt.Errorf("worker pool closed unexpectedly")
		}
		if result.Error != nil {
			renderErr = errors.Join(renderErr, result.Error)
			continue
		}
		traceStats.Add(result.Stats)

		if tileCallback != nil {
			tile := pr.tiles[result.TaskID]
			tileCallback(TileCompletionResult{
				TileX:      tile.Bounds.Min.X / max(pr.config.TileSize, 1),
				TileY:      tile.Bounds.Min.Y / max(pr.config.TileSize, 1),
				TileImage:  frame.SubImage(tile.Bounds),
				FrameIndex: frameIndex,
				TileNumber: i + 1,
				TotalTiles: len(pr.tiles),
			})
		}
	}
	if renderErr != nil {
		return FrameResult{}, fmt.Errorf("frame %d: %w", frameIndex, renderErr)
	}

	convergence, err := pr.accumulator.Blend(frame)
	if err != nil {
		return FrameResult{}, err
	}

	sampling := pr.scene.SamplingConfig
	samples := max(sampling.SamplesPerPixel, 1)
	stats := RenderStats{
		FrameIndex:         pr.accumulator.FrameIndex(),
		Width:              frame.Width,
		Height:             frame.Height,
		SamplesPerPixel:    samples,
		AccumulatedSamples: samples * pr.accumulator.FrameIndex(),
		Trace:              traceStats,
		Convergence:        convergence,
		Duration:           time.Since(startTime),
	}

	return FrameResult{
		FrameIndex: stats.FrameIndex,
		Image:      pr.accumulator.Image(),
		State:      pr.accumulator.Snapshot(),
		Stats:      stats,
	}, nil
}

// RenderOptions configures progressive rendering behavior
type RenderOptions struct {
	TileUpdates bool // Whether to generate tile completion events
}

// RenderProgressive renders with channel-based communication (idiomatic Go)
// Returns channels for events. The caller should read from these channels in separate goroutines.
// If options.TileUpdates is false, the tile channel will be closed immediately and no tile events will be generated.
// Rendering stops after config.MaxFrames frames or when ctx is cancelled.
func (pr *ProgressiveRaytracer) RenderProgressive(ctx context.Context, options RenderOptions) (<-chan FrameResult, <-chan TileCompletionResult, <-chan error) {
	frameChan := make(chan FrameResult, 1)
	tileChan := make(chan TileCompletionResult, 100) // Buffer for tiles
	errChan := make(chan error, 1)

	// If tile updates are disabled, close the channel immediately
	if !options.TileUpdates {
		close(tileChan)
	}

	go func() {
		defer close(frameChan)
		if options.TileUpdates {
			defer close(tileChan)
		}
		defer close(errChan)

		maxFrames := pr.config.MaxFrames
		if maxFrames > 0 {
			pr.logger.Printf("Starting progressive rendering of %d frames...\n", maxFrames)
		} else {
			pr.logger.Printf("Starting progressive rendering until cancelled...\n")
		}

		var tileCallback func(TileCompletionResult)
		if options.TileUpdates {
			tileCallback = func(result TileCompletionResult) {
				select {
				case tileChan <- result:
				case <-ctx.Done():
				default:
					// Channel full, drop the update
				}
			}
		}

		for rendered := 1; maxFrames <= 0 || rendered <= maxFrames; rendered++ {
			result, err := pr.renderFrame(ctx, tileCallback)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					pr.logger.Printf("Rendering cancelled after %d frames\n", rendered-1)
				}
				errChan <- err
				return
			}

			pr.logger.Printf("Frame %d completed in %v (%d samples/pixel accumulated)\n",
				result.FrameIndex, result.Stats.Duration, result.Stats.AccumulatedSamples)

			result.IsLast = maxFrames > 0 && rendered == maxFrames
			select {
			case frameChan <- result:
			case <-ctx.Done():
				errChan <- ctx.Err()
				return
			}
		}
	}()

	return frameChan, tileChan, errChan
}
