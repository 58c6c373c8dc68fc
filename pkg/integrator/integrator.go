package integrator

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// Integrator defines the interface for light transport algorithms
type Integrator interface {
	// RayColor returns the radiance arriving along ray.
	// Intersection work is added to stats when it is non-nil.
	RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler, stats *scene.TraceStats) core.Vec3
}
