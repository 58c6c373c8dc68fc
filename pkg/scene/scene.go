package scene

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// Scene contains all the elements needed for rendering.
// A scene is assembled once and read concurrently while rendering; it must not
// be modified while a frame is in flight.
type Scene struct {
	Name           string
	Camera         *geometry.Camera
	CameraConfig   geometry.CameraConfig
	Environment    lights.Environment
	Materials      *material.Library
	Spheres        []geometry.Sphere
	Triangles      []geometry.Triangle // Triangles of all meshes, each mesh a contiguous range
	Meshes         []geometry.Mesh
	SamplingConfig SamplingConfig
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	Width           int // Image width
	Height          int // Image height
	SamplesPerPixel int // Number of rays per pixel per frame
	MaxBounces      int // Bounces after the primary hit; paths trace at most MaxBounces+1 segments
}

// DefaultSamplingConfig returns the configuration used when a caller has no preference
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Width:           400,
		Height:          225,
		SamplesPerPixel: 5,
		MaxBounces:      3,
	}
}

// TraceStats counts intersection work. A nil *TraceStats disables counting.
type TraceStats struct {
	Rays          int64
	SphereTests   int64
	BoxTests      int64
	BoxRejects    int64
	TriangleTests int64
}

// Add accumulates other into s
func (s *TraceStats) Add(other TraceStats) {
	s.Rays += other.Rays
	s.SphereTests += other.SphereTests
	s.BoxTests += other.BoxTests
	s.BoxRejects += other.BoxRejects
	s.TriangleTests += other.TriangleTests
}

// New creates an empty scene. The camera's aspect ratio is taken from sampling.
func New(name string, cameraConfig geometry.CameraConfig, env lights.Environment, sampling SamplingConfig) *Scene {
	s := &Scene{
		Name:           name,
		Environment:    env,
		Materials:      material.NewLibrary(),
		SamplingConfig: sampling,
	}
	s.SetCamera(cameraConfig)
	return s
}

// SetCamera replaces the camera, matching its aspect ratio to the image size
func (s *Scene) SetCamera(config geometry.CameraConfig) {
	if s.SamplingConfig.Width > 0 && s.SamplingConfig.Height > 0 {
		config.AspectRatio = float64(s.SamplingConfig.Width) / float64(s.SamplingConfig.Height)
	}
	s.CameraConfig = config
	s.Camera = geometry.NewCamera(config)
}

// SetResolution changes the image size and rebuilds the camera for the new aspect ratio
func (s *Scene) SetResolution(width, height int) {
	s.SamplingConfig.Width = width
	s.SamplingConfig.Height = height
	s.SetCamera(s.CameraConfig)
}

// AddMaterial stores m in the scene's material library
func (s *Scene) AddMaterial(m material.Material) material.ID {
	return s.Materials.Add(m)
}

// Material resolves a material ID; unknown IDs resolve to the neutral material
func (s *Scene) Material(id material.ID) material.Material {
	return s.Materials.Get(id)
}

// AddSphere adds a sphere with an existing material
func (s *Scene) AddSphere(center core.Vec3, radius float64, mat material.ID) {
	s.Spheres = append(s.Spheres, geometry.NewSphere(center, radius, mat))
}

// AddMesh appends the mesh's triangles to the scene and registers the mesh.
// The mesh bounds cover every vertex in data, including unreferenced ones.
func (s *Scene) AddMesh(data geometry.MeshData, mat material.ID) (geometry.Mesh, error) {
	triangles, err := data.Triangles()
	if err != nil {
		return geometry.Mesh{}, err
	}

	mesh := geometry.NewMesh(len(s.Triangles), len(triangles), data.Vertices, mat)
	s.Triangles = append(s.Triangles, triangles...)
	s.Meshes = append(s.Meshes, mesh)
	return mesh, nil
}

// Trace returns the closest intersection of ray with the scene, or a miss.
// Spheres are tested first, then each mesh whose bounds the ray hits.
// Equal distances keep the first primitive encountered.
func (s *Scene) Trace(ray core.Ray, stats *TraceStats) geometry.HitRecord {
	closest := geometry.Miss()
	closestT := math.Inf(1)

	for i := range s.Spheres {
		hit := s.Spheres[i].Intersect(ray)
		if hit.T > 0 && hit.T < closestT {
			closestT = hit.T
			closest = hit
		}
	}

	var boxRejects, triangleTests int64
	for _, mesh := range s.Meshes {
		if !mesh.HitBounds(ray) {
			boxRejects++
			continue
		}

		for i := mesh.FirstTriangle; i < mesh.End(); i++ {
			triangleTests++
			hit := s.Triangles[i].Intersect(ray)
			if hit.T > 0 && hit.T < closestT {
				hit.Material = mesh.Material
				closestT = hit.T
				closest = hit
			}
		}
	}

	if stats != nil {
		stats.Rays++
		stats.SphereTests += int64(len(s.Spheres))
		stats.BoxTests += int64(len(s.Meshes))
		stats.BoxRejects += boxRejects
		stats.TriangleTests += triangleTests
	}
	return closest
}

// PrimitiveCount returns the number of spheres and triangles in the scene
func (s *Scene) PrimitiveCount() int {
	return len(s.Spheres) + len(s.Triangles)
}
