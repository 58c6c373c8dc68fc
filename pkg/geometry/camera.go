package geometry

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// CameraConfig contains the parameters of a thin-lens camera.
// Forward, Up and Right are used as given and should be orthonormal.
type CameraConfig struct {
	Position        core.Vec3
	Forward         core.Vec3
	Up              core.Vec3
	Right           core.Vec3
	VFov            float64 // Vertical field of view in degrees
	AspectRatio     float64 // Width / height
	DivergeStrength float64 // Jitter of the focus-plane point, in pixels
	DefocusStrength float64 // Jitter of the ray origin on the lens, in pixels
	FocusDistance   float64 // Distance from the camera to the plane in perfect focus
}

// DefaultCameraConfig returns a camera at the origin looking down -Z
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Position:        core.NewVec3(0, 0, 0),
		Forward:         core.NewVec3(0, 0, -1),
		Up:              core.NewVec3(0, 1, 0),
		Right:           core.NewVec3(1, 0, 0),
		VFov:            40,
		AspectRatio:     16.0 / 9.0,
		DivergeStrength: 1,
		DefocusStrength: 1,
		FocusDistance:   1,
	}
}

// LookAt returns a copy of the config positioned at from and looking at target,
// with an orthonormal basis derived from worldUp
func (c CameraConfig) LookAt(from, target, worldUp core.Vec3) CameraConfig {
	forward := target.Subtract(from).Normalize()
	right := forward.Cross(worldUp).Normalize()
	c.Position = from
	c.Forward = forward
	c.Right = right
	c.Up = right.Cross(forward)
	return c
}

// Camera generates primary rays for normalized image coordinates
type Camera struct {
	config          CameraConfig
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
}

// NewCamera creates a camera whose viewport lies on the focus plane
func NewCamera(config CameraConfig) *Camera {
	theta := config.VFov * math.Pi / 180
	viewportHeight := 2 * math.Tan(theta/2) * config.FocusDistance
	viewportWidth := viewportHeight * config.AspectRatio

	horizontal := config.Right.Multiply(viewportWidth)
	vertical := config.Up.Multiply(viewportHeight)
	lowerLeftCorner := config.Position.
		Add(config.Forward.Multiply(config.FocusDistance)).
		Subtract(horizontal.Multiply(0.5)).
		Subtract(vertical.Multiply(0.5))

	return &Camera{
		config:          config,
		lowerLeftCorner: lowerLeftCorner,
		horizontal:      horizontal,
		vertical:        vertical,
	}
}

// Config returns the configuration the camera was built from
func (c *Camera) Config() CameraConfig {
	return c.config
}

// FocusPoint returns the point on the focus plane for image coordinates (u, v),
// where (0,0) is the lower-left corner and (1,1) the upper-right
func (c *Camera) FocusPoint(u, v float64) core.Vec3 {
	return c.lowerLeftCorner.
		Add(c.horizontal.Multiply(u)).
		Add(c.vertical.Multiply(v))
}

// GetRay generates a jittered primary ray for image coordinates (u, v).
// The origin is offset on the lens by DefocusStrength/imageWidth and the focus
// point by DivergeStrength/imageWidth, both within the camera's right/up plane.
func (c *Camera) GetRay(u, v float64, imageWidth int, sampler core.Sampler) core.Ray {
	width := float64(max(imageWidth, 1))

	defocusJitter := core.SampleInCircle(sampler).Multiply(c.config.DefocusStrength / width)
	origin := c.config.Position.
		Add(c.config.Right.Multiply(defocusJitter.X)).
		Add(c.config.Up.Multiply(defocusJitter.Y))

	divergeJitter := core.SampleInCircle(sampler).Multiply(c.config.DivergeStrength / width)
	focus := c.FocusPoint(u, v).
		Add(c.config.Right.Multiply(divergeJitter.X)).
		Add(c.config.Up.Multiply(divergeJitter.Y))

	return core.NewRay(origin, focus.Subtract(origin).Normalize())
}
