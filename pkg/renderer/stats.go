package renderer

import (
	"image/color"
	"math"
	"time"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// RenderStats contains statistics about one rendered frame
type RenderStats struct {
	FrameIndex         int              // Frames accumulated, including this one
	Width              int              // Image width
	Height             int              // Image height
	SamplesPerPixel    int              // Samples per pixel in this frame
	AccumulatedSamples int              // Samples per pixel since the last reset
	Trace              scene.TraceStats // Intersection work for this frame
	Convergence        ConvergenceStats // Change this frame made to the running image
	Duration           time.Duration    // Time spent rendering this frame
}

// TotalPixels returns the number of pixels in the image
func (s RenderStats) TotalPixels() int {
	return s.Width * s.Height
}

// BoxRejectRate returns the fraction of mesh bounding box tests that culled the mesh
func (s RenderStats) BoxRejectRate() float64 {
	if s.Trace.BoxTests == 0 {
		return 0
	}
	return float64(s.Trace.BoxRejects) / float64(s.Trace.BoxTests)
}

// vec3ToColor converts a linear colour to RGBA with gamma correction and clamping.
// NaN components, from degenerate bounce directions, are shown as black.
func vec3ToColor(colorVec core.Vec3) color.RGBA {
	colorVec = core.NewVec3(nanToZero(colorVec.X), nanToZero(colorVec.Y), nanToZero(colorVec.Z))

	// Apply gamma correction (gamma = 2.0)
	colorVec = colorVec.Clamp(0.0, 1.0).GammaCorrect(2.0)

	return color.RGBA{
		R: uint8(255 * colorVec.X),
		G: uint8(255 * colorVec.Y),
		B: uint8(255 * colorVec.Z),
		A: 255,
	}
}

func nanToZero(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return x
}
