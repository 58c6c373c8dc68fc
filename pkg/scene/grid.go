package scene

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// gridSize is the number of spheres along each side of the grid
const gridSize = 5

// oklchToRGB converts OKLCH color values to linear RGB
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) core.Vec3 {
	hRad := h * math.Pi / 180.0

	// OKLCH to OKLAB
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to cone response
	lc := l + 0.3963377774*a + 0.2158037573*b
	mc := l - 0.1055613458*a - 0.0638541728*b
	sc := l - 0.0894841775*a - 1.2914855480*b
	lc, mc, sc = lc*lc*lc, mc*mc*mc, sc*sc*sc

	return core.NewVec3(
		+4.0767416621*lc-3.3077115913*mc+0.2309699292*sc,
		-1.2684380046*lc+2.6097574011*mc-0.3413193965*sc,
		-0.0041960863*lc-0.7034186147*mc+1.7076147010*sc,
	).Clamp(0, 1)
}

// NewSphereGridScene creates a grid of spheres sweeping the material model:
// specular probability increases along X and smoothness increases along Z.
// Hue rotates across the grid so neighbouring spheres are easy to tell apart.
func NewSphereGridScene(sampling SamplingConfig) *Scene {
	camera := geometry.DefaultCameraConfig().LookAt(
		core.NewVec3(2, 4.5, 8),
		core.NewVec3(2, 0.3, 2),
		core.NewVec3(0, 1, 0),
	)
	camera.FocusDistance = 7.5
	camera.DefocusStrength = 0.5

	s := New("grid", camera, lights.NewDefaultSkyEnvironment(), sampling)

	ground := s.AddMaterial(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	s.mustAddMesh(geometry.NewPlaneMesh(core.NewVec3(2, 0, 2), 20, 20), ground)

	spacing := 1.0
	radius := spacing * 0.4
	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			fi := float64(i) / float64(gridSize-1)
			fj := float64(j) / float64(gridSize-1)

			hue := float64(i*gridSize+j) / float64(gridSize*gridSize) * 360
			color := oklchToRGB(0.7, 0.15, hue)

			mat := s.AddMaterial(material.NewGlossy(color, fi, fj))
			s.AddSphere(core.NewVec3(float64(i)*spacing, radius, float64(j)*spacing), radius, mat)
		}
	}

	// A small warm lamp above the grid so the emissive path is visible too
	lamp := s.AddMaterial(material.NewEmissive(core.NewVec3(1, 0.85, 0.6), 4))
	s.AddSphere(core.NewVec3(2, 3, 2), 0.3, lamp)

	return s
}
