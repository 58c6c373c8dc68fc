package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MeshScenePrefix selects a scene built around a mesh file, e.g. "mesh:models/bunny.obj"
const MeshScenePrefix = "mesh:"

// ErrUnknownScene is returned by Create for names that match no scene
var ErrUnknownScene = errors.New("unknown scene")

// Factory builds a fresh scene for the given sampling configuration
type Factory func(sampling SamplingConfig) *Scene

var builtins = map[string]Factory{
	"spheres": NewSpheresScene,
	"cornell": NewCornellScene,
	"meshes":  NewMeshesScene,
	"grid":    NewSphereGridScene,
	"empty":   NewEmptyScene,
}

// Names returns the built-in scene names in sorted order
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Create builds the named scene. Names with the "mesh:" prefix load the mesh
// file that follows the prefix.
func Create(name string, sampling SamplingConfig) (*Scene, error) {
	if path, ok := strings.CutPrefix(name, MeshScenePrefix); ok {
		return FromMeshFile(path, sampling)
	}
	return CreateBuiltin(name, sampling)
}

// CreateBuiltin builds a built-in scene. Mesh scene names are rejected, so it is
// safe to call with names supplied by remote clients.
func CreateBuiltin(name string, sampling SamplingConfig) (*Scene, error) {
	factory, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, name)
	}
	return factory(sampling), nil
}
