package geometry

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// Mesh is a contiguous range of triangles in a scene's triangle list,
// bounded by a box and sharing one material.
type Mesh struct {
	FirstTriangle int
	NumTriangles  int
	Bounds        core.AABB
	Material      material.ID
}

// NewMesh creates a mesh over triangles [firstTriangle, firstTriangle+numTriangles).
// The bounds are computed from vertices, which must include every vertex used by the range.
func NewMesh(firstTriangle, numTriangles int, vertices []core.Vec3, mat material.ID) Mesh {
	return Mesh{
		FirstTriangle: firstTriangle,
		NumTriangles:  numTriangles,
		Bounds:        core.NewAABBFromPoints(vertices...),
		Material:      mat,
	}
}

// HitBounds reports whether the ray can hit any triangle of the mesh
func (m Mesh) HitBounds(ray core.Ray) bool {
	return m.Bounds.Hit(ray, 0, math.Inf(1))
}

// End returns the index one past the mesh's last triangle
func (m Mesh) End() int {
	return m.FirstTriangle + m.NumTriangles
}
