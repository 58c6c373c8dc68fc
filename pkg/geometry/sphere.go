package geometry

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// Sphere represents a sphere primitive
type Sphere struct {
	Center   core.Vec3
	Radius   float64
	Material material.ID
}

// NewSphere creates a new sphere
func NewSphere(center core.Vec3, radius float64, mat material.ID) Sphere {
	return Sphere{
		Center:   center,
		Radius:   radius,
		Material: mat,
	}
}

// Intersect returns the nearer intersection of the ray with the sphere.
// Only the smaller quadratic root is considered, so a ray starting inside
// the sphere (smaller root behind the origin) is reported as a miss.
func (s Sphere) Intersect(ray core.Ray) HitRecord {
	oc := ray.Origin.Subtract(s.Center)

	// Quadratic equation coefficients: at² + bt + c = 0
	a := ray.Direction.Dot(ray.Direction)
	b := 2 * oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return Miss()
	}

	t := (-b - math.Sqrt(discriminant)) / (2 * a)
	if t < 0 || math.IsNaN(t) {
		return Miss()
	}

	point := ray.At(t)
	return HitRecord{
		Point:    point,
		Normal:   point.Subtract(s.Center).Normalize(),
		T:        t,
		Material: s.Material,
	}
}

// BoundingBox returns the axis-aligned bounding box for this sphere
func (s Sphere) BoundingBox() core.AABB {
	radius := core.NewVec3(s.Radius, s.Radius, s.Radius)
	return core.NewAABB(
		s.Center.Subtract(radius),
		s.Center.Add(radius),
	)
}
