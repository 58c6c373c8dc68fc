package integrator

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
	"github.com/df07/go-progressive-pathtracer/pkg/scene"
)

// PathTracingIntegrator implements unidirectional path tracing without light sampling.
// Each bounce picks a diffuse or specular direction and only emission that the path
// happens to hit, or the environment it escapes to, contributes light.
type PathTracingIntegrator struct {
	maxBounces int
}

// NewPathTracingIntegrator creates a new path tracing integrator
func NewPathTracingIntegrator(config scene.SamplingConfig) *PathTracingIntegrator {
	return &PathTracingIntegrator{
		maxBounces: max(config.MaxBounces, 0),
	}
}

// MaxBounces returns the number of bounces traced after the primary hit
func (pt *PathTracingIntegrator) MaxBounces() int {
	return pt.maxBounces
}

// RayColor computes the color for a single ray using unidirectional path tracing.
// The path is traced for at most MaxBounces+1 segments; running out of bounces
// simply stops gathering light.
func (pt *PathTracingIntegrator) RayColor(ray core.Ray, s *scene.Scene, sampler core.Sampler, stats *scene.TraceStats) core.Vec3 {
	incomingLight := core.Vec3{}
	throughput := core.NewVec3(1, 1, 1)

	for bounce := 0; bounce <= pt.maxBounces; bounce++ {
		hit := s.Trace(ray, stats)
		if !hit.DidHit() {
			if s.Environment != nil {
				incomingLight = incomingLight.Add(throughput.MultiplyVec(s.Environment.Emit(ray.Direction)))
			}
			break
		}

		mat := s.Material(hit.Material)
		scattered, specular := Scatter(ray, hit, mat, sampler)

		incomingLight = incomingLight.Add(throughput.MultiplyVec(mat.Emitted()))
		throughput = throughput.MultiplyVec(core.Lerp(mat.Color, mat.SpecularColor, specular))
		ray = scattered
	}

	return incomingLight
}

// Scatter computes the next ray leaving hit and reports whether the bounce was
// specular (1) or diffuse (0).
//
// The bounce is specular with the material's specular probability. The diffuse
// direction is normal + random unit vector, which is close to but not exactly a
// cosine-weighted hemisphere sample. A specular bounce blends from the diffuse
// direction toward the mirror direction by the material's smoothness.
func Scatter(ray core.Ray, hit geometry.HitRecord, mat material.Material, sampler core.Sampler) (core.Ray, float64) {
	specular := 0.0
	if sampler.Get1D() <= mat.SpecularProbability {
		specular = 1
	}

	diffuseDir := hit.Normal.Add(core.SampleDirection(sampler)).Normalize()
	specularDir := Reflect(ray.Direction, hit.Normal)
	direction := core.Lerp(diffuseDir, specularDir, mat.Smoothness*specular).Normalize()

	return core.NewRay(hit.Point, direction), specular
}

// Reflect mirrors direction about normal
func Reflect(direction, normal core.Vec3) core.Vec3 {
	return direction.Subtract(normal.Multiply(2 * direction.Dot(normal))).Normalize()
}
