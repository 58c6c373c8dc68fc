package lights

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// DirectionalLight is a sun at infinity. It is only visible as a disc in the sky;
// it is not sampled directly.
type DirectionalLight struct {
	Direction core.Vec3 // Unit vector pointing toward the sun
	Intensity float64   // Peak radiance of the disc
	Focus     float64   // Falloff exponent; larger values give a smaller disc
}

// NewDirectionalLight creates a sun, normalizing direction
func NewDirectionalLight(direction core.Vec3, intensity, focus float64) DirectionalLight {
	return DirectionalLight{
		Direction: direction.Normalize(),
		Intensity: intensity,
		Focus:     focus,
	}
}

// DefaultSun returns a bright, tightly focused sun high in front of the camera
func DefaultSun() DirectionalLight {
	return NewDirectionalLight(core.NewVec3(0.6, 0.5, -1), 40, 200)
}

// Radiance returns the sun's contribution looking along direction
func (d DirectionalLight) Radiance(direction core.Vec3) float64 {
	return math.Pow(math.Max(0, direction.Dot(d.Direction)), d.Focus) * d.Intensity
}
