package renderer

import (
	"image"

	"github.com/df07/go-progressive-pathtracer/pkg/integrator"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// Raytracer renders whole frames on the calling goroutine.
// It produces exactly the same frames as the parallel ProgressiveRaytracer.
type Raytracer struct {
	scene    *scene.Scene
	width    int
	height   int
	renderer *TileRenderer
}

// NewRaytracer creates a raytracer for the scene's configured resolution
func NewRaytracer(s *scene.Scene, integratorInst integrator.Integrator) *Raytracer {
	return &Raytracer{
		scene:    s,
		width:    s.SamplingConfig.Width,
		height:   s.SamplingConfig.Height,
		renderer: NewTileRenderer(s, integratorInst),
	}
}

// RenderFrame renders the noisy estimate for frameIndex
func (rt *Raytracer) RenderFrame(frameIndex int) (*Frame, scene.TraceStats) {
	frame := NewFrame(rt.width, rt.height)
	stats := rt.renderer.RenderTileBounds(image.Rect(0, 0, rt.width, rt.height), frame, frameIndex)
	return frame, stats
}
