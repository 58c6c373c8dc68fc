package scene

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
	"github.com/df07/go-progressive-pathtracer/pkg/lights"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

const tolerance = 1e-9

func newTestScene() *Scene {
	return New("test", geometry.DefaultCameraConfig(), lights.NewUniformEnvironment(core.Vec3{}), DefaultSamplingConfig())
}

func TestTrace_EmptySceneMisses(t *testing.T) {
	s := newTestScene()
	hit := s.Trace(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), nil)

	if hit.DidHit() {
		t.Fatalf("Expected miss in empty scene, got t=%f", hit.T)
	}
	if hit.T != -1 {
		t.Errorf("Expected miss sentinel t=-1, got %f", hit.T)
	}
	if hit.Material != material.None {
		t.Errorf("Expected no material on miss, got %d", hit.Material)
	}
}

func TestTrace_BoxRejectSkipsTriangles(t *testing.T) {
	s := newTestScene()
	mat := s.AddMaterial(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	mesh, err := s.AddMesh(geometry.NewBoxMesh(core.Vec3{}, core.NewVec3(1, 1, 1), core.Vec3{}), mat)
	if err != nil {
		t.Fatalf("AddMesh failed: %v", err)
	}

	tests := []struct {
		name          string
		ray           core.Ray
		wantHit       bool
		wantRejects   int64
		wantTriangles int64
	}{
		{
			name:          "ray beside box",
			ray:           core.NewRay(core.NewVec3(5, 5, 5), core.NewVec3(1, 0, 0)),
			wantRejects:   1,
			wantTriangles: 0,
		},
		{
			name:          "ray through box",
			ray:           core.NewRay(core.NewVec3(0.3, 0.1, 5), core.NewVec3(0, 0, -1)),
			wantHit:       true,
			wantTriangles: int64(mesh.NumTriangles),
		},
		{
			name:          "ray pointing away from box",
			ray:           core.NewRay(core.NewVec3(0.5, 0.5, 5), core.NewVec3(0, 0, 1)),
			wantRejects:   1,
			wantTriangles: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stats TraceStats
			hit := s.Trace(tt.ray, &stats)

			if hit.DidHit() != tt.wantHit {
				t.Errorf("Expected hit=%v, got t=%f", tt.wantHit, hit.T)
			}
			if stats.BoxTests != 1 {
				t.Errorf("Expected 1 box test, got %d", stats.BoxTests)
			}
			if stats.BoxRejects != tt.wantRejects {
				t.Errorf("Expected %d box rejects, got %d", tt.wantRejects, stats.BoxRejects)
			}
			if stats.TriangleTests != tt.wantTriangles {
				t.Errorf("Expected %d triangle tests, got %d", tt.wantTriangles, stats.TriangleTests)
			}
		})
	}
}

func TestTrace_RayInsideBoundsMissesTriangles(t *testing.T) {
	s := newTestScene()
	mat := s.AddMaterial(material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5)))
	// One slanted triangle spanning the unit cube leaves its far corner empty
	data := geometry.MeshData{
		Vertices: []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 1)},
		Faces: []geometry.Face{{
			Vertices: [3]int{0, 1, 2},
			Normals:  [3]int{geometry.NoNormal, geometry.NoNormal, geometry.NoNormal},
		}},
	}
	if _, err := s.AddMesh(data, mat); err != nil {
		t.Fatalf("AddMesh failed: %v", err)
	}

	var stats TraceStats
	hit := s.Trace(core.NewRay(core.NewVec3(0.9, 0.9, 5), core.NewVec3(0, 0, -1)), &stats)

	if hit.DidHit() {
		t.Errorf("Expected miss, got t=%f", hit.T)
	}
	if stats.BoxTests != 1 || stats.BoxRejects != 0 {
		t.Errorf("Expected box entered without reject, got %d tests %d rejects", stats.BoxTests, stats.BoxRejects)
	}
	if stats.TriangleTests != 1 {
		t.Errorf("Expected 1 triangle test, got %d", stats.TriangleTests)
	}
}

func TestTrace_ClosestHitWins(t *testing.T) {
	s := newTestScene()
	far := s.AddMaterial(material.NewLambertian(core.NewVec3(1, 0, 0)))
	near := s.AddMaterial(material.NewLambertian(core.NewVec3(0, 1, 0)))
	wall := s.AddMaterial(material.NewLambertian(core.NewVec3(0, 0, 1)))

	s.AddSphere(core.NewVec3(0, 0, -10), 1, far)
	s.AddSphere(core.NewVec3(0, 0, -5), 1, near)

	ray := core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1))
	hit := s.Trace(ray, nil)
	if hit.Material != near {
		t.Fatalf("Expected nearer sphere material %d, got %d", near, hit.Material)
	}
	if math.Abs(hit.T-4) > tolerance {
		t.Errorf("Expected t=4, got %f", hit.T)
	}

	// A wall in front of both spheres takes over, with the mesh's material
	quad := newQuadMesh(core.NewVec3(-1, -1.5, -2), core.NewVec3(0, 2, 0), core.NewVec3(2, 0, 0))
	if _, err := s.AddMesh(quad, wall); err != nil {
		t.Fatalf("AddMesh failed: %v", err)
	}
	hit = s.Trace(ray, nil)
	if hit.Material != wall {
		t.Fatalf("Expected wall material %d, got %d", wall, hit.Material)
	}
	if math.Abs(hit.T-2) > tolerance {
		t.Errorf("Expected t=2, got %f", hit.T)
	}
	if math.Abs(hit.Normal.Z-(-1)) > tolerance {
		t.Errorf("Expected quad normal u x v = (0,0,-1), got %v", hit.Normal)
	}
}

func TestTrace_SphereBehindRayMisses(t *testing.T) {
	s := newTestScene()
	s.AddSphere(core.NewVec3(0, 0, 5), 1, s.AddMaterial(material.Neutral()))

	var stats TraceStats
	hit := s.Trace(core.NewRay(core.Vec3{}, core.NewVec3(0, 0, -1)), &stats)
	if hit.DidHit() {
		t.Errorf("Expected miss for sphere behind the ray, got t=%f", hit.T)
	}
	if stats.SphereTests != 1 {
		t.Errorf("Expected 1 sphere test, got %d", stats.SphereTests)
	}
}

func TestAddMesh_InvalidDataLeavesSceneUnchanged(t *testing.T) {
	s := newTestScene()
	data := geometry.NewPlaneMesh(core.Vec3{}, 1, 1)
	data.Faces[0].Vertices[0] = 99

	if _, err := s.AddMesh(data, material.None); err == nil {
		t.Fatal("Expected error for out-of-range vertex index")
	}
	if len(s.Meshes) != 0 || len(s.Triangles) != 0 {
		t.Errorf("Expected no geometry after failed AddMesh, got %d meshes %d triangles", len(s.Meshes), len(s.Triangles))
	}
}

func TestAddMesh_ContiguousRanges(t *testing.T) {
	s := newTestScene()
	first, _ := s.AddMesh(geometry.NewPlaneMesh(core.Vec3{}, 1, 1), material.None)
	second, _ := s.AddMesh(geometry.NewBoxMesh(core.Vec3{}, core.NewVec3(1, 1, 1), core.Vec3{}), material.None)

	if first.FirstTriangle != 0 || second.FirstTriangle != first.End() {
		t.Errorf("Expected contiguous ranges, got [%d,%d) and [%d,%d)",
			first.FirstTriangle, first.End(), second.FirstTriangle, second.End())
	}
	if s.PrimitiveCount() != second.End() {
		t.Errorf("Expected %d primitives, got %d", second.End(), s.PrimitiveCount())
	}
}

func TestSetResolution_UpdatesAspectRatio(t *testing.T) {
	s := newTestScene()
	s.SetResolution(300, 300)

	if s.CameraConfig.AspectRatio != 1 {
		t.Errorf("Expected aspect ratio 1, got %f", s.CameraConfig.AspectRatio)
	}
	if s.Camera.Config().AspectRatio != 1 {
		t.Errorf("Expected camera rebuilt with aspect ratio 1, got %f", s.Camera.Config().AspectRatio)
	}
}

func TestCreate_Builtins(t *testing.T) {
	names := Names()
	if len(names) != len(builtinInfo) {
		t.Fatalf("Expected %d built-in scenes, got %d", len(builtinInfo), len(names))
	}

	sampling := SamplingConfig{Width: 32, Height: 18, SamplesPerPixel: 1, MaxBounces: 2}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			s, err := Create(name, sampling)
			if err != nil {
				t.Fatalf("Create(%q) failed: %v", name, err)
			}
			if s.Name != name {
				t.Errorf("Expected scene name %q, got %q", name, s.Name)
			}
			if s.Environment == nil || s.Camera == nil {
				t.Error("Expected scene to have an environment and a camera")
			}
			if s.SamplingConfig != sampling {
				t.Errorf("Expected sampling %+v, got %+v", sampling, s.SamplingConfig)
			}
			for _, mesh := range s.Meshes {
				for i := mesh.FirstTriangle; i < mesh.End(); i++ {
					tri := s.Triangles[i]
					for _, v := range []core.Vec3{tri.A, tri.B, tri.C} {
						if !mesh.Bounds.Contains(v) {
							t.Fatalf("Triangle vertex %v outside mesh bounds %v", v, mesh.Bounds)
						}
					}
				}
			}
		})
	}
}

func TestCreate_UnknownScene(t *testing.T) {
	_, err := Create("no-such-scene", DefaultSamplingConfig())
	if !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestCornellScene_CentreRayHitsBox(t *testing.T) {
	s := NewCornellScene(DefaultSamplingConfig())
	ray := core.NewRay(s.CameraConfig.Position, s.Camera.FocusPoint(0.5, 0.5).Subtract(s.CameraConfig.Position).Normalize())

	if hit := s.Trace(ray, nil); !hit.DidHit() {
		t.Error("Expected centre ray to hit the inside of the box")
	}
	if len(s.Spheres) != 2 {
		t.Errorf("Expected 2 spheres, got %d", len(s.Spheres))
	}
}

func TestSpheresScene_HasEmissiveSphere(t *testing.T) {
	s := NewSpheresScene(DefaultSamplingConfig())
	emissive := 0
	for _, sphere := range s.Spheres {
		if s.Material(sphere.Material).IsEmissive() {
			emissive++
		}
	}
	if emissive != 1 {
		t.Errorf("Expected 1 emissive sphere, got %d", emissive)
	}
}

func TestSphereGridScene_SweepsMaterials(t *testing.T) {
	s := NewSphereGridScene(DefaultSamplingConfig())
	if len(s.Spheres) != gridSize*gridSize+1 {
		t.Fatalf("Expected %d spheres, got %d", gridSize*gridSize+1, len(s.Spheres))
	}

	first := s.Material(s.Spheres[0].Material)
	last := s.Material(s.Spheres[gridSize*gridSize-1].Material)
	if first.SpecularProbability != 0 || first.Smoothness != 0 {
		t.Errorf("Expected first sphere fully diffuse, got %+v", first)
	}
	if last.SpecularProbability != 1 || last.Smoothness != 1 {
		t.Errorf("Expected last sphere a perfect mirror, got %+v", last)
	}
}

func TestOklchToRGB_InRange(t *testing.T) {
	for hue := 0.0; hue < 360; hue += 30 {
		c := oklchToRGB(0.7, 0.15, hue)
		for _, channel := range []float64{c.X, c.Y, c.Z} {
			if channel < 0 || channel > 1 {
				t.Fatalf("Hue %f produced out-of-range colour %v", hue, c)
			}
		}
	}

	// Zero chroma is grey
	grey := oklchToRGB(0.5, 0, 0)
	if math.Abs(grey.X-grey.Y) > 1e-6 || math.Abs(grey.Y-grey.Z) > 1e-6 {
		t.Errorf("Expected grey for zero chroma, got %v", grey)
	}
}

const testOBJ = `# Scene: Test Pyramid
# Group: Test Models
# Description: four triangles
v 0 0 0
v 10 0 0
v 0 10 0
v 0 0 10
f 1 3 2
f 1 2 4
f 1 4 3
f 2 3 4
`

func TestFromMeshFile_FitsModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyramid.obj")
	if err := os.WriteFile(path, []byte(testOBJ), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := FromMeshFile(path, DefaultSamplingConfig())
	if err != nil {
		t.Fatalf("FromMeshFile failed: %v", err)
	}
	if s.Name != "mesh:pyramid" {
		t.Errorf("Expected name mesh:pyramid, got %q", s.Name)
	}
	if len(s.Meshes) != 2 {
		t.Fatalf("Expected ground and model meshes, got %d", len(s.Meshes))
	}

	model := s.Meshes[1]
	size := model.Bounds.Size()
	if math.Abs(max(size.X, size.Y, size.Z)-meshFitSize) > 1e-9 {
		t.Errorf("Expected largest extent %f, got %v", meshFitSize, size)
	}
	if math.Abs(model.Bounds.Min.Y) > 1e-9 {
		t.Errorf("Expected model to stand on y=0, got min %v", model.Bounds.Min)
	}
	if model.NumTriangles != 4 {
		t.Errorf("Expected 4 triangles, got %d", model.NumTriangles)
	}
}

func TestFromMeshFile_NoFaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points.obj")
	if err := os.WriteFile(path, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := FromMeshFile(path, DefaultSamplingConfig())
	if err != nil {
		t.Fatalf("Expected a mesh without faces to load, got %v", err)
	}
	if len(s.Meshes) != 2 {
		t.Fatalf("Expected ground and model meshes, got %d", len(s.Meshes))
	}
	if s.Meshes[1].NumTriangles != 0 {
		t.Errorf("Expected empty model, got %d triangles", s.Meshes[1].NumTriangles)
	}

	// Only the ground can be hit
	hit := s.Trace(core.NewRay(core.NewVec3(0.2, 0.2, 5), core.NewVec3(0, 0, -1)), nil)
	if hit.DidHit() {
		t.Errorf("Expected ray above ground to miss, got t=%f", hit.T)
	}
}

func TestFromMeshFile_NoVertices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.obj")
	if err := os.WriteFile(path, []byte("# nothing here\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := FromMeshFile(path, DefaultSamplingConfig())
	if err != nil {
		t.Fatalf("Expected an empty mesh file to load, got %v", err)
	}
	if config := s.Camera.Config(); !config.Position.IsFinite() || !config.Forward.IsFinite() {
		t.Errorf("Expected finite camera for empty model, got %+v", s.Camera.Config())
	}
}

func TestFromMeshFile_Errors(t *testing.T) {
	if _, err := FromMeshFile(filepath.Join(t.TempDir(), "missing.obj"), DefaultSamplingConfig()); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := Create(MeshScenePrefix+"model.stl", DefaultSamplingConfig()); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestCreateBuiltin_RejectsMeshScenes(t *testing.T) {
	_, err := CreateBuiltin(MeshScenePrefix+"/etc/passwd", DefaultSamplingConfig())
	if !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene for a mesh scene name, got %v", err)
	}
	if _, err := CreateBuiltin("cornell", DefaultSamplingConfig()); err != nil {
		t.Errorf("Expected built-in scene to be created, got %v", err)
	}
}
