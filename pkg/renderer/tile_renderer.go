package renderer

import (
	"image"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/integrator"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID     int             // Unique tile identifier
	Bounds image.Rectangle // Pixel bounds (x0,y0,x1,y1)
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	if tileSize <= 0 {
		tileSize = max(width, height, 1)
	}

	var tiles []*Tile
	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, &Tile{ID: len(tiles), Bounds: image.Rect(x0, y0, x1, y1)})
		}
	}

	return tiles
}

// TileRenderer renders pixels of a scene using an integrator.
// Every pixel draws its samples from a stream seeded by (pixel index, frame index),
// so the result does not depend on which tile or goroutine renders it.
type TileRenderer struct {
	scene      *scene.Scene
	integrator integrator.Integrator
	sampler    *core.PixelSampler
}

// NewTileRenderer creates a new tile renderer with the given scene and integrator
func NewTileRenderer(s *scene.Scene, integratorInst integrator.Integrator) *TileRenderer {
	return &TileRenderer{
		scene:      s,
		integrator: integratorInst,
		sampler:    core.NewPixelSampler(0, 0),
	}
}

// RenderTileBounds renders the pixels within bounds into frame.
// Each pixel is the average of SamplesPerPixel path samples.
func (tr *TileRenderer) RenderTileBounds(bounds image.Rectangle, frame *Frame, frameIndex int) scene.TraceStats {
	var stats scene.TraceStats
	camera := tr.scene.Camera
	samples := max(tr.scene.SamplingConfig.SamplesPerPixel, 1)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			tr.sampler.Reseed(y*frame.Width+x, frameIndex)
			u, v := PixelUV(x, y, frame.Width, frame.Height)

			colorAccum := core.Vec3{}
			for sample := 0; sample < samples; sample++ {
				ray := camera.GetRay(u, v, frame.Width, tr.sampler)
				sampleColor := tr.integrator.RayColor(ray, tr.scene, tr.sampler, &stats)
				if !sampleColor.IsFinite() {
					// A degenerate bounce direction; count the sample as black
					sampleColor = core.Vec3{}
				}
				colorAccum = colorAccum.Add(sampleColor)
			}
			frame.Set(x, y, colorAccum.Multiply(1.0/float64(samples)))
		}
	}

	return stats
}
