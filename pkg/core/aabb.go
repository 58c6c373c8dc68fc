package core

import "math"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns an inverted box that contains nothing and is never hit.
// It is the identity element for Union and Extend.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: NewVec3(inf, inf, inf),
		Max: NewVec3(-inf, -inf, -inf),
	}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	box := EmptyAABB()
	for _, point := range points {
		box = box.Extend(point)
	}
	return box
}

// Extend returns the box grown to include point
func (aabb AABB) Extend(point Vec3) AABB {
	return AABB{Min: aabb.Min.Min(point), Max: aabb.Max.Max(point)}
}

// Hit tests if a ray intersects with this AABB within [tMin, tMax] using the slab method.
// The ray's cached reciprocal direction is used so no division happens per test.
func (aabb AABB) Hit(ray Ray, tMin, tMax float64) bool {
	if aabb.IsEmpty() {
		return false
	}

	for axis := 0; axis < 3; axis++ {
		var min, max, origin, direction, invDirection float64

		switch axis {
		case 0:
			min, max = aabb.Min.X, aabb.Max.X
			origin, direction, invDirection = ray.Origin.X, ray.Direction.X, ray.InvDirection.X
		case 1:
			min, max = aabb.Min.Y, aabb.Max.Y
			origin, direction, invDirection = ray.Origin.Y, ray.Direction.Y, ray.InvDirection.Y
		case 2:
			min, max = aabb.Min.Z, aabb.Max.Z
			origin, direction, invDirection = ray.Origin.Z, ray.Direction.Z, ray.InvDirection.Z
		}

		// Ray parallel to this slab: it either always or never overlaps it
		if direction == 0 {
			if origin < min || origin > max {
				return false
			}
			continue
		}

		t1 := (min - origin) * invDirection
		t2 := (max - origin) * invDirection
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}

	return true
}

// Contains reports whether point lies inside or on the boundary of the box
func (aabb AABB) Contains(point Vec3) bool {
	return point.X >= aabb.Min.X && point.X <= aabb.Max.X &&
		point.Y >= aabb.Min.Y && point.Y <= aabb.Max.Y &&
		point.Z >= aabb.Min.Z && point.Z <= aabb.Max.Z
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: aabb.Min.Min(other.Min), Max: aabb.Max.Max(other.Max)}
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// IsEmpty returns true if min > max on any axis
func (aabb AABB) IsEmpty() bool {
	return aabb.Min.X > aabb.Max.X ||
		aabb.Min.Y > aabb.Max.Y ||
		aabb.Min.Z > aabb.Max.Z
}
