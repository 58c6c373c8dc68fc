package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/recorder"
	"github.com/df07/go-progressive-pathtracer/pkg/renderer"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// Options holds the command line settings of a render
type Options struct {
	Scene      string
	MeshFile   string
	Sampling   scene.SamplingConfig
	Frames     int
	Workers    int
	OutputDir  string
	RecordDir  string
	Checkpoint string
}

func main() {
	defaults := scene.DefaultSamplingConfig()
	var opts Options
	flag.StringVar(&opts.Scene, "scene", "spheres", "Scene name: "+strings.Join(scene.Names(), ", "))
	flag.StringVar(&opts.MeshFile, "obj", "", "Render an OBJ or PLY file instead of a built-in scene")
	flag.IntVar(&opts.Sampling.Width, "width", defaults.Width, "Image width")
	flag.IntVar(&opts.Sampling.Height, "height", defaults.Height, "Image height")
	flag.IntVar(&opts.Sampling.SamplesPerPixel, "samples", defaults.SamplesPerPixel, "Samples per pixel per frame")
	flag.IntVar(&opts.Sampling.MaxBounces, "bounces", defaults.MaxBounces, "Bounces after the primary hit")
	flag.IntVar(&opts.Frames, "frames", 20, "Frames to accumulate")
	flag.IntVar(&opts.Workers, "workers", 0, "Render workers (0 = CPU count)")
	flag.StringVar(&opts.OutputDir, "output", "output", "Directory for rendered images")
	flag.StringVar(&opts.RecordDir, "record", "", "Record every frame under this directory")
	flag.StringVar(&opts.Checkpoint, "checkpoint", "", "Resume from and save accumulation to this checkpoint file")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Progressive Path Tracer")
		fmt.Println("Usage: pathtracer [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Output will be saved to output/<scene>/render_<timestamp>.png")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	filename, err := run(ctx, opts, renderer.NewDefaultLogger())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Render saved as %s\n", filename)
}

// createScene builds the built-in scene or, when meshFile is set, a scene around the mesh
func createScene(name, meshFile string, sampling scene.SamplingConfig) (*scene.Scene, error) {
	if meshFile != "" {
		return scene.FromMeshFile(meshFile, sampling)
	}
	if name == "" {
		return nil, fmt.Errorf("scene name must be provided")
	}
	return scene.CreateBuiltin(name, sampling)
}

// run renders opts.Frames frames and writes the accumulated image. An interrupt
// stops early and still saves what has accumulated.
func run(ctx context.Context, opts Options, logger core.Logger) (string, error) {
	if opts.Sampling.Width <= 0 || opts.Sampling.Height <= 0 {
		return "", fmt.Errorf("image size must be positive, got %dx%d", opts.Sampling.Width, opts.Sampling.Height)
	}
	if opts.Frames <= 0 {
		return "", fmt.Errorf("frames must be positive, got %d", opts.Frames)
	}

	selectedScene, err := createScene(opts.Scene, opts.MeshFile, opts.Sampling)
	if err != nil {
		return "", err
	}
	logger.Printf("Rendering scene %q (%d primitives) at %dx%d\n",
		selectedScene.Name, selectedScene.PrimitiveCount(), opts.Sampling.Width, opts.Sampling.Height)

	config := renderer.DefaultProgressiveConfig()
	config.MaxFrames = opts.Frames
	config.NumWorkers = opts.Workers
	raytracer := renderer.NewProgressiveRaytracer(selectedScene, config, logger)
	defer raytracer.Close()

	if opts.Checkpoint != "" {
		if err := resumeCheckpoint(raytracer, opts.Checkpoint, selectedScene); err != nil {
			return "", err
		}
	}

	var writer *recorder.Writer
	if opts.RecordDir != "" {
		writer, _, err = recorder.NewWriter(opts.RecordDir, selectedScene.Name,
			opts.Sampling.Width, opts.Sampling.Height, time.Now)
		if err != nil {
			return "", err
		}
		defer writer.Close()
		logger.Printf("Recording frames to %s\n", writer.Directory())
	}

	startTime := time.Now()
	err = renderFrames(ctx, raytracer, func(result renderer.FrameResult) error {
		if writer == nil {
			return nil
		}
		if err := writer.AppendFrame(result.State, result.Stats); err != nil {
			return fmt.Errorf("record frame %d: %w", result.FrameIndex, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	logger.Printf("Render completed in %v (%d frames accumulated)\n", time.Since(startTime), raytracer.FrameIndex())

	if opts.Checkpoint != "" {
		if err := recorder.SaveCheckpointFile(opts.Checkpoint, selectedScene.Name, raytracer.Snapshot()); err != nil {
			return "", err
		}
		logger.Printf("Checkpoint saved to %s\n", opts.Checkpoint)
	}

	return saveImage(raytracer, opts.OutputDir, selectedScene.Name, time.Now())
}

// renderFrames runs the progressive render and hands each frame to record.
// A record error stops the render, and renderFrames waits for it to wind down.
// Cancellation of ctx is not an error.
func renderFrames(ctx context.Context, raytracer *renderer.ProgressiveRaytracer, record func(renderer.FrameResult) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames, _, errs := raytracer.RenderProgressive(ctx, renderer.RenderOptions{})
	for result := range frames {
		if err := record(result); err != nil {
			cancel()
			for range frames {
			}
			<-errs
			return err
		}
	}
	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// resumeCheckpoint restores accumulation from path if the file exists
func resumeCheckpoint(raytracer *renderer.ProgressiveRaytracer, path string, s *scene.Scene) error {
	state, err := recorder.LoadCheckpointFile(path, s.Name, s.SamplingConfig.Width, s.SamplingConfig.Height)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resume from %s: %w", path, err)
	}
	return raytracer.Restore(state)
}

// outputPath returns output/<scene>/render_<timestamp>.png with the scene name made path safe
func outputPath(outputDir, sceneName string, now time.Time) string {
	dirName := strings.NewReplacer(":", "-", "/", "-", `\`, "-").Replace(sceneName)
	return filepath.Join(outputDir, dirName, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

func saveImage(raytracer *renderer.ProgressiveRaytracer, outputDir, sceneName string, now time.Time) (string, error) {
	filename := outputPath(outputDir, sceneName, now)
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, raytracer.Image()); err != nil {
		return "", fmt.Errorf("save PNG: %w", err)
	}
	return filename, nil
}
