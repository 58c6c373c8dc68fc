package scene

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// NewMeshesScene creates a small landscape built entirely from triangle meshes:
// grass, a river, a mountain, trees, clouds and two lamp panels
func NewMeshesScene(sampling SamplingConfig) *Scene {
	camera := geometry.DefaultCameraConfig().LookAt(
		core.NewVec3(0, 0.6, 2.5),
		core.NewVec3(0, 0.1, -2),
		core.NewVec3(0, 1, 0),
	)
	camera.FocusDistance = 4.5
	camera.DefocusStrength = 2

	s := New("meshes", camera, lights.NewDefaultSkyEnvironment(), sampling)

	grass := s.AddMaterial(material.NewLambertian(core.NewVec3(0.108, 0.576, 0.060)))
	river := s.AddMaterial(material.NewGlossy(core.NewVec3(0.155, 0.534, 0.793), 0.4, 0.95))
	rock := s.AddMaterial(material.NewLambertian(core.NewVec3(0.145, 0.145, 0.145)))
	bark := s.AddMaterial(material.NewLambertian(core.NewVec3(0.145, 0.048, 0.010)))
	autumn := s.AddMaterial(material.NewLambertian(core.NewVec3(0.995, 0.170, 0)))
	cloud := s.AddMaterial(material.NewLambertian(core.NewVec3(1, 1, 1)))
	lamp := s.AddMaterial(material.NewEmissive(core.NewVec3(1, 1, 1), 6.5))

	s.mustAddMesh(geometry.NewPlaneMesh(core.NewVec3(0, -0.5, -3), 12, 12), grass)
	s.mustAddMesh(geometry.NewPlaneMesh(core.NewVec3(0.9, -0.49, -3), 0.6, 12), river)
	s.mustAddMesh(geometry.NewBoxMesh(
		core.NewVec3(-1.2, 0, -6),
		core.NewVec3(1.4, 1.4, 1.4),
		core.NewVec3(0.6, 0.785, 0.3),
	), rock)

	trees := []struct {
		base   core.Vec3
		height float64
		leaves material.ID
	}{
		{core.NewVec3(-0.9, -0.5, -2.2), 0.5, grass},
		{core.NewVec3(-0.3, -0.5, -3.2), 0.7, grass},
		{core.NewVec3(0.4, -0.5, -2.6), 0.45, autumn},
	}
	for _, tree := range trees {
		trunkHalf := core.NewVec3(0.04, tree.height/2, 0.04)
		s.mustAddMesh(geometry.NewBoxMesh(tree.base.Add(core.NewVec3(0, tree.height/2, 0)), trunkHalf, core.Vec3{}), bark)
		s.mustAddMesh(geometry.NewUVSphereMesh(tree.base.Add(core.NewVec3(0, tree.height, 0)), tree.height*0.4, 12, 8), tree.leaves)
	}

	for _, center := range []core.Vec3{
		core.NewVec3(-1.5, 1.6, -5),
		core.NewVec3(-1.1, 1.7, -5.2),
		core.NewVec3(1.2, 1.4, -4.5),
	} {
		s.mustAddMesh(geometry.NewUVSphereMesh(center, 0.35, 10, 6), cloud)
	}

	s.mustAddMesh(geometry.NewBoxMesh(core.NewVec3(-0.6, -0.3, -1.2), core.NewVec3(0.05, 0.2, 0.05), core.Vec3{}), lamp)
	s.mustAddMesh(geometry.NewBoxMesh(core.NewVec3(0.6, -0.3, -1.2), core.NewVec3(0.05, 0.2, 0.05), core.Vec3{}), lamp)

	return s
}
