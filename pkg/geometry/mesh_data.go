package geometry

import (
	"fmt"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// NoNormal marks a face corner without a source normal
const NoNormal = -1

// Face is one triangle of a MeshData, as 0-based indices
type Face struct {
	Vertices [3]int
	Normals  [3]int // Indices into MeshData.Normals, NoNormal when absent
}

// MeshData is the flat output of mesh ingestion: positions, normals and
// triangular faces that index into them.
type MeshData struct {
	Name     string
	Vertices []core.Vec3
	Normals  []core.Vec3
	Faces    []Face
}

// Validate checks that every face index refers to an existing vertex or normal
func (d *MeshData) Validate() error {
	for i, face := range d.Faces {
		for corner := 0; corner < 3; corner++ {
			if vi := face.Vertices[corner]; vi < 0 || vi >= len(d.Vertices) {
				return fmt.Errorf("face %d: vertex index %d out of range [0,%d)", i, vi, len(d.Vertices))
			}
			ni := face.Normals[corner]
			if ni != NoNormal && (ni < 0 || ni >= len(d.Normals)) {
				return fmt.Errorf("face %d: normal index %d out of range [0,%d)", i, ni, len(d.Normals))
			}
		}
	}
	return nil
}

// HasAllNormals reports whether every face corner references a normal
func (d *MeshData) HasAllNormals() bool {
	for _, face := range d.Faces {
		for _, ni := range face.Normals {
			if ni == NoNormal {
				return false
			}
		}
	}
	return true
}

// ComputeVertexNormals replaces the mesh's normals with smooth per-vertex normals,
// each the area-weighted average of the adjacent face normals.
// Faces must reference valid vertices.
func (d *MeshData) ComputeVertexNormals() {
	normals := make([]core.Vec3, len(d.Vertices))
	for _, face := range d.Faces {
		a := d.Vertices[face.Vertices[0]]
		b := d.Vertices[face.Vertices[1]]
		c := d.Vertices[face.Vertices[2]]
		// Unnormalized cross product is proportional to face area
		weighted := b.Subtract(a).Cross(c.Subtract(a))
		for _, vi := range face.Vertices {
			normals[vi] = normals[vi].Add(weighted)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}

	d.Normals = normals
	for i := range d.Faces {
		d.Faces[i].Normals = d.Faces[i].Vertices
	}
}

// Transform returns a copy of the mesh scaled uniformly, then rotated
// (radians around X, Y, Z in that order), then translated.
// A negative scale mirrors positions and flips normals to keep them outward.
func (d MeshData) Transform(scale float64, rotation, translation core.Vec3) MeshData {
	out := MeshData{
		Name:     d.Name,
		Vertices: make([]core.Vec3, len(d.Vertices)),
		Normals:  make([]core.Vec3, len(d.Normals)),
		Faces:    make([]Face, len(d.Faces)),
	}

	for i, v := range d.Vertices {
		out.Vertices[i] = v.Multiply(scale).Rotate(rotation).Add(translation)
	}
	for i, n := range d.Normals {
		if scale < 0 {
			n = n.Negate()
		}
		out.Normals[i] = n.Rotate(rotation)
	}
	copy(out.Faces, d.Faces)
	return out
}

// Triangles resolves the faces into triangles.
// Corners without a normal use the flat face normal.
func (d *MeshData) Triangles() ([]Triangle, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	triangles := make([]Triangle, len(d.Faces))
	for i, face := range d.Faces {
		a := d.Vertices[face.Vertices[0]]
		b := d.Vertices[face.Vertices[1]]
		c := d.Vertices[face.Vertices[2]]

		var normals [3]core.Vec3
		var flat core.Vec3
		haveFlat := false
		for corner, ni := range face.Normals {
			if ni != NoNormal {
				normals[corner] = d.Normals[ni]
				continue
			}
			if !haveFlat {
				flat = FaceNormal(a, b, c)
				haveFlat = true
			}
			normals[corner] = flat
		}

		triangles[i] = NewTriangle(a, b, c, normals[0], normals[1], normals[2])
	}
	return triangles, nil
}
