package geometry

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// triangleEpsilon bounds both the parallel-ray determinant band and the minimum hit distance
const triangleEpsilon = 1e-7

// Triangle is a triangle with per-vertex normals for smooth shading.
// Triangles carry no material; the owning Mesh supplies it.
type Triangle struct {
	A, B, C                   core.Vec3 // Vertex positions
	NormalA, NormalB, NormalC core.Vec3 // Vertex normals
}

// NewTriangle creates a triangle with the given vertex normals
func NewTriangle(a, b, c, normalA, normalB, normalC core.Vec3) Triangle {
	return Triangle{
		A: a, B: b, C: c,
		NormalA: normalA, NormalB: normalB, NormalC: normalC,
	}
}

// NewFlatTriangle creates a triangle whose vertex normals all equal the face normal
func NewFlatTriangle(a, b, c core.Vec3) Triangle {
	normal := FaceNormal(a, b, c)
	return NewTriangle(a, b, c, normal, normal, normal)
}

// FaceNormal returns the unit normal of the counter-clockwise triangle abc
func FaceNormal(a, b, c core.Vec3) core.Vec3 {
	return b.Subtract(a).Cross(c.Subtract(a)).Normalize()
}

// Intersect tests the ray against the triangle using the Möller-Trumbore algorithm.
// The returned normal interpolates the vertex normals with the barycentric weights
// of the hit point. The record's material is material.None.
func (tri Triangle) Intersect(ray core.Ray) HitRecord {
	edge1 := tri.B.Subtract(tri.A)
	edge2 := tri.C.Subtract(tri.A)

	rayCrossEdge2 := ray.Direction.Cross(edge2)
	determinant := edge1.Dot(rayCrossEdge2)

	// Ray lies in (or nearly in) the plane of the triangle
	if determinant > -triangleEpsilon && determinant < triangleEpsilon {
		return Miss()
	}

	invDet := 1.0 / determinant
	s := ray.Origin.Subtract(tri.A)
	u := invDet * s.Dot(rayCrossEdge2)
	if u < 0 || u > 1 {
		return Miss()
	}

	sCrossEdge1 := s.Cross(edge1)
	v := invDet * ray.Direction.Dot(sCrossEdge1)
	if v < 0 || u+v > 1 {
		return Miss()
	}

	t := invDet * edge2.Dot(sCrossEdge1)
	if t <= triangleEpsilon {
		return Miss()
	}

	w := 1 - u - v
	normal := tri.NormalA.Multiply(w).
		Add(tri.NormalB.Multiply(u)).
		Add(tri.NormalC.Multiply(v)).
		Normalize()

	return HitRecord{
		Point:    ray.At(t),
		Normal:   normal,
		T:        t,
		Material: material.None,
	}
}

// BoundingBox returns the axis-aligned bounding box of the triangle's vertices
func (tri Triangle) BoundingBox() core.AABB {
	return core.NewAABBFromPoints(tri.A, tri.B, tri.C)
}
