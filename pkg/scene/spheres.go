package scene

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// NewSpheresScene creates spheres of varied materials resting on a large ground sphere,
// lit by the default sky and sun
func NewSpheresScene(sampling SamplingConfig) *Scene {
	s := New("spheres", geometry.DefaultCameraConfig(), lights.NewDefaultSkyEnvironment(), sampling)

	ground := s.AddMaterial(material.NewLambertian(core.NewVec3(0.7, 0.1, 0.7)))
	red := s.AddMaterial(material.NewGlossy(core.NewVec3(1, 0, 0), 0.02, 1))
	chrome := s.AddMaterial(material.NewMetal(core.NewVec3(1, 1, 1), 1))
	yellow := s.AddMaterial(material.New(core.NewVec3(1, 1, 0)).WithSpecular(core.NewVec3(1, 1, 0), 0.3, 0.9))
	green := s.AddMaterial(material.NewGlossy(core.NewVec3(0, 1, 0), 0.02, 1))
	cyan := s.AddMaterial(material.NewGlossy(core.NewVec3(0, 1, 1), 0.02, 1))
	light := s.AddMaterial(material.NewEmissive(core.NewVec3(0, 1, 0), 2))

	s.AddSphere(core.NewVec3(0, -100.5, -1), 100, ground)
	s.AddSphere(core.NewVec3(0.2, -0.2, -2), 0.3, red)
	s.AddSphere(core.NewVec3(0.25, -0.35, -1.25), 0.15, chrome)
	s.AddSphere(core.NewVec3(-0.3, -0.35, -1.8), 0.1, yellow)
	s.AddSphere(core.NewVec3(-0.4, -0.2, -3), 0.3, green)
	s.AddSphere(core.NewVec3(-1, 0.2, -5.1), 0.6, cyan)
	s.AddSphere(core.NewVec3(-0.55, -0.3, -1.4), 0.12, light)

	return s
}

// NewEmptyScene creates a scene with no primitives; every ray sees the sky
func NewEmptyScene(sampling SamplingConfig) *Scene {
	return New("empty", geometry.DefaultCameraConfig(), lights.NewDefaultSkyEnvironment(), sampling)
}
