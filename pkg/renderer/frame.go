package renderer

import (
	"image"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Frame is one noisy render: a linear RGB estimate per pixel, row-major
// with row 0 at the top of the image
type Frame struct {
	Width  int
	Height int
	Pixels []core.Vec3
}

// NewFrame creates a black frame
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]core.Vec3, width*height),
	}
}

// At returns the colour of pixel (x, y)
func (f *Frame) At(x, y int) core.Vec3 {
	return f.Pixels[y*f.Width+x]
}

// Set stores the colour of pixel (x, y)
func (f *Frame) Set(x, y int, c core.Vec3) {
	f.Pixels[y*f.Width+x] = c
}

// Image converts the frame to a gamma-corrected 8-bit image
func (f *Frame) Image() *image.RGBA {
	return pixelsToImage(f.Pixels, f.Width, f.Height, image.Rect(0, 0, f.Width, f.Height))
}

// SubImage converts the pixels inside bounds to an image whose origin is bounds.Min
func (f *Frame) SubImage(bounds image.Rectangle) *image.RGBA {
	return pixelsToImage(f.Pixels, f.Width, f.Height, bounds)
}

// pixelsToImage converts a row-major pixel buffer region to RGBA
func pixelsToImage(pixels []core.Vec3, width, height int, bounds image.Rectangle) *image.RGBA {
	bounds = bounds.Intersect(image.Rect(0, 0, width, height))
	img := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			img.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, vec3ToColor(pixels[y*width+x]))
		}
	}
	return img
}

// PixelUV maps pixel (x, y) to camera coordinates with (0,0) at the lower-left
// corner and (1,1) at the upper-right. A one-pixel dimension maps to its centre.
func PixelUV(x, y, width, height int) (u, v float64) {
	u, v = 0.5, 0.5
	if width > 1 {
		u = float64(x) / float64(width-1)
	}
	if height > 1 {
		v = 1 - float64(y)/float64(height-1)
	}
	return u, v
}
