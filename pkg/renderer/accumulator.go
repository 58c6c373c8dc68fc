package renderer

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// ConvergenceStats summarizes how much a blend changed the running image,
// measured as the absolute per-pixel luminance change
type ConvergenceStats struct {
	MeanChange   float64
	StdDevChange float64
}

// AccumulatorState is a copy of an accumulator's contents, used for checkpoints
type AccumulatorState struct {
	Width      int
	Height     int
	FrameIndex int
	Pixels     []core.Vec3
}

// Accumulator keeps the running per-pixel mean of every frame blended since
// the last reset. It is not safe for concurrent use.
type Accumulator struct {
	width      int
	height     int
	frameIndex int
	pixels     []core.Vec3
	deltas     []float64 // Scratch space for convergence statistics
}

// NewAccumulator creates an empty accumulator for width x height images
func NewAccumulator(width, height int) *Accumulator {
	return &Accumulator{
		width:  width,
		height: height,
		pixels: make([]core.Vec3, width*height),
		deltas: make([]float64, width*height),
	}
}

// Blend folds frame into the running image with weight 1/(k+1), where k is the
// number of frames blended so far, and advances the frame index.
//
// The blend is written as prev + (new-prev)*w, so a frame equal to the running
// value leaves it bit-for-bit unchanged and the first frame after a reset is
// copied exactly.
func (a *Accumulator) Blend(frame *Frame) (ConvergenceStats, error) {
	if frame.Width != a.width || frame.Height != a.height {
		return ConvergenceStats{}, fmt.Errorf("frame is %dx%d, accumulator is %dx%d",
			frame.Width, frame.Height, a.width, a.height)
	}

	weight := 1.0 / float64(a.frameIndex+1)
	for i, sample := range frame.Pixels {
		prev := a.pixels[i]
		var next core.Vec3
		if a.frameIndex == 0 {
			// Nothing from before the reset may survive, not even a NaN
			next = sample
		} else {
			next = prev.Add(sample.Subtract(prev).Multiply(weight))
		}
		a.pixels[i] = next
		a.deltas[i] = math.Abs(next.Luminance() - prev.Luminance())
	}
	a.frameIndex++

	if len(a.deltas) == 0 {
		return ConvergenceStats{}, nil
	}
	mean, std := stat.MeanStdDev(a.deltas, nil)
	if len(a.deltas) == 1 {
		std = 0
	}
	return ConvergenceStats{MeanChange: mean, StdDevChange: std}, nil
}

// Reset discards the running image and sets the frame index back to zero
func (a *Accumulator) Reset() {
	clear(a.pixels)
	a.frameIndex = 0
}

// FrameIndex returns the number of frames blended since the last reset
func (a *Accumulator) FrameIndex() int {
	return a.frameIndex
}

// Width returns the image width
func (a *Accumulator) Width() int {
	return a.width
}

// Height returns the image height
func (a *Accumulator) Height() int {
	return a.height
}

// Pixel returns the running mean of pixel (x, y)
func (a *Accumulator) Pixel(x, y int) core.Vec3 {
	return a.pixels[y*a.width+x]
}

// Image converts the running image to a gamma-corrected 8-bit image
func (a *Accumulator) Image() *image.RGBA {
	return pixelsToImage(a.pixels, a.width, a.height, image.Rect(0, 0, a.width, a.height))
}

// Snapshot copies the accumulator's contents
func (a *Accumulator) Snapshot() AccumulatorState {
	pixels := make([]core.Vec3, len(a.pixels))
	copy(pixels, a.pixels)
	return AccumulatorState{
		Width:      a.width,
		Height:     a.height,
		FrameIndex: a.frameIndex,
		Pixels:     pixels,
	}
}

// Restore replaces the accumulator's contents with state.
// The state must have the accumulator's dimensions.
func (a *Accumulator) Restore(state AccumulatorState) error {
	if state.Width != a.width || state.Height != a.height {
		return fmt.Errorf("state is %dx%d, accumulator is %dx%d",
			state.Width, state.Height, a.width, a.height)
	}
	if len(state.Pixels) != len(a.pixels) {
		return fmt.Errorf("state has %d pixels, want %d", len(state.Pixels), len(a.pixels))
	}
	if state.FrameIndex < 0 {
		return fmt.Errorf("invalid frame index %d", state.FrameIndex)
	}
	copy(a.pixels, state.Pixels)
	a.frameIndex = state.FrameIndex
	return nil
}
