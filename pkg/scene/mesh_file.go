package scene

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/loaders"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// meshFitSize is the largest extent a loaded model is scaled to
const meshFitSize = 2.0

// FromMeshFile loads an OBJ or PLY file and places it on a ground plane under
// the default sky. The model is scaled so its largest extent is meshFitSize and
// moved so it stands centred at the origin. A file without faces yields a
// scene holding only the ground.
func FromMeshFile(path string, sampling SamplingConfig) (*Scene, error) {
	data, err := loaders.LoadMesh(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load mesh %s: %w", path, err)
	}

	bounds := core.NewAABBFromPoints(data.Vertices...)
	if bounds.IsEmpty() {
		bounds = core.NewAABB(core.Vec3{}, core.Vec3{})
	}
	size := bounds.Size()
	extent := max(size.X, size.Y, size.Z)
	scale := 1.0
	if extent > 0 {
		scale = meshFitSize / extent
	}
	center := bounds.Center()
	offset := core.NewVec3(-center.X*scale, -bounds.Min.Y*scale, -center.Z*scale)
	data = data.Transform(scale, core.Vec3{}, offset)

	camera := geometry.DefaultCameraConfig().LookAt(
		core.NewVec3(0, 1.5, 4.5),
		core.NewVec3(0, size.Y*scale/2, 0),
		core.NewVec3(0, 1, 0),
	)
	camera.FocusDistance = 4.6
	camera.DefocusStrength = 0

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	s := New(MeshScenePrefix+name, camera, lights.NewDefaultSkyEnvironment(), sampling)

	ground := s.AddMaterial(material.NewLambertian(core.NewVec3(0.4, 0.4, 0.4)))
	s.mustAddMesh(geometry.NewPlaneMesh(core.Vec3{}, 30, 30), ground)

	model := s.AddMaterial(material.NewGlossy(core.NewVec3(0.8, 0.6, 0.3), 0.15, 0.9))
	if _, err := s.AddMesh(data, model); err != nil {
		return nil, fmt.Errorf("invalid mesh %s: %w", path, err)
	}
	return s, nil
}
