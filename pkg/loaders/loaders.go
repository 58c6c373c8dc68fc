// Package loaders parses mesh files into geometry.MeshData.
package loaders

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-progressive-pathtracer/pkg/geometry"
)

// LoadMesh loads an OBJ or PLY file, chosen by extension
func LoadMesh(filename string) (geometry.MeshData, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".obj":
		return LoadOBJ(filename)
	case ".ply":
		return LoadPLY(filename)
	default:
		return geometry.MeshData{}, fmt.Errorf("unsupported mesh format %q", ext)
	}
}

// IsMeshFile reports whether filename has an extension LoadMesh understands
func IsMeshFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".obj", ".ply":
		return true
	}
	return false
}

// finish validates parsed data and fills in smooth normals when the source had none.
// A file without faces is valid and yields an empty mesh.
func finish(data *geometry.MeshData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	if len(data.Faces) > 0 && len(data.Normals) == 0 {
		data.ComputeVertexNormals()
	}
	return nil
}
