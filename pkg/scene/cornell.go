package scene

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// cornellBoxSize is the edge length of the standard Cornell box
const cornellBoxSize = 555.0

// NewCornellScene creates a classic Cornell box lit by an emissive ceiling panel.
// Each wall is its own mesh with normals facing into the box.
func NewCornellScene(sampling SamplingConfig) *Scene {
	camera := geometry.DefaultCameraConfig().LookAt(
		core.NewVec3(278, 278, -800), // Outside the open front of the box
		core.NewVec3(278, 278, 0),
		core.NewVec3(0, 1, 0),
	)
	camera.FocusDistance = 800
	camera.DefocusStrength = 0

	s := New("cornell", camera, lights.NewUniformEnvironment(core.Vec3{}), sampling)

	white := s.AddMaterial(material.NewLambertian(core.NewVec3(0.73, 0.73, 0.73)))
	red := s.AddMaterial(material.NewLambertian(core.NewVec3(0.65, 0.05, 0.05)))
	green := s.AddMaterial(material.NewLambertian(core.NewVec3(0.12, 0.45, 0.15)))
	light := s.AddMaterial(material.NewEmissive(core.NewVec3(1, 1, 1), 15))
	metal := s.AddMaterial(material.NewMetal(core.NewVec3(0.8, 0.8, 0.9), 0.95))
	glossy := s.AddMaterial(material.NewGlossy(core.NewVec3(0.2, 0.3, 0.8), 0.2, 1))

	size := cornellBoxSize
	walls := []struct {
		corner, u, v core.Vec3
		mat          material.ID
	}{
		{corner: core.NewVec3(0, 0, 0), u: core.NewVec3(0, 0, size), v: core.NewVec3(size, 0, 0), mat: white},    // floor
		{corner: core.NewVec3(0, size, 0), u: core.NewVec3(size, 0, 0), v: core.NewVec3(0, 0, size), mat: white}, // ceiling
		{corner: core.NewVec3(0, 0, size), u: core.NewVec3(0, size, 0), v: core.NewVec3(size, 0, 0), mat: white}, // back wall
		{corner: core.NewVec3(0, 0, 0), u: core.NewVec3(0, size, 0), v: core.NewVec3(0, 0, size), mat: red},      // left wall
		{corner: core.NewVec3(size, 0, 0), u: core.NewVec3(0, 0, size), v: core.NewVec3(0, size, 0), mat: green}, // right wall
	}
	for _, wall := range walls {
		s.mustAddMesh(newQuadMesh(wall.corner, wall.u, wall.v), wall.mat)
	}

	// Ceiling light, slightly below the ceiling and facing down
	lightSize := 130.0
	offset := (size - lightSize) / 2
	s.mustAddMesh(newQuadMesh(
		core.NewVec3(offset, size-1, offset),
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
	), light)

	s.AddSphere(core.NewVec3(185, 82.5, 169), 82.5, metal)
	s.AddSphere(core.NewVec3(370, 90, 351), 90, glossy)

	return s
}

// newQuadMesh creates the parallelogram corner, corner+u, corner+u+v, corner+v
// with normal u × v
func newQuadMesh(corner, u, v core.Vec3) geometry.MeshData {
	return geometry.MeshData{
		Name: "quad",
		Vertices: []core.Vec3{
			corner,
			corner.Add(u),
			corner.Add(u).Add(v),
			corner.Add(v),
		},
		Normals: []core.Vec3{u.Cross(v).Normalize()},
		Faces: []geometry.Face{
			{Vertices: [3]int{0, 1, 2}, Normals: [3]int{0, 0, 0}},
			{Vertices: [3]int{0, 2, 3}, Normals: [3]int{0, 0, 0}},
		},
	}
}

// mustAddMesh adds mesh data built in code, which is valid by construction
func (s *Scene) mustAddMesh(data geometry.MeshData, mat material.ID) {
	if _, err := s.AddMesh(data, mat); err != nil {
		panic("invalid built-in mesh " + data.Name + ": " + err.Error())
	}
}
