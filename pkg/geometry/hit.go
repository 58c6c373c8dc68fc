package geometry

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
	"github.com/df07/go-progressive-pathtracer/pkg/material"
)

// HitRecord contains information about a ray-primitive intersection.
// Every intersection test produces one; a miss is a record with negative T.
type HitRecord struct {
	Point    core.Vec3   // Point of intersection
	Normal   core.Vec3   // Unit surface normal at the intersection
	T        float64     // Parameter t along the ray, negative for a miss
	Material material.ID // Material of the primitive, material.None for a miss
}

// Miss returns the record for a ray that hit nothing
func Miss() HitRecord {
	return HitRecord{T: -1, Material: material.None}
}

// DidHit reports whether the record describes an intersection
func (h HitRecord) DidHit() bool {
	return h.T >= 0
}
