package material

import (
	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Material describes how a surface reflects and emits light.
// Materials are immutable values; primitives refer to them through a Library ID.
type Material struct {
	Color               core.Vec3 // Diffuse albedo
	SpecularColor       core.Vec3 // Albedo applied on specular bounces
	SpecularProbability float64   // Chance in [0,1] that a bounce is specular
	Smoothness          float64   // 0 = specular bounce is diffuse-like, 1 = perfect mirror
	EmissionColor       core.Vec3
	EmissionStrength    float64
}

// New creates a diffuse material with no emission and a white specular colour
func New(color core.Vec3) Material {
	return Material{
		Color:         color,
		SpecularColor: core.NewVec3(1, 1, 1),
	}
}

// NewLambertian creates a perfectly diffuse material
func NewLambertian(albedo core.Vec3) Material {
	return New(albedo)
}

// NewMetal creates a material that always bounces specularly.
// The specular colour is the albedo, so the surface tints its reflections.
func NewMetal(albedo core.Vec3, smoothness float64) Material {
	return New(albedo).WithSpecular(albedo, 1, smoothness)
}

// NewGlossy creates a coated material: diffuse base with a white specular layer
// hit with the given probability
func NewGlossy(albedo core.Vec3, specularProbability, smoothness float64) Material {
	return New(albedo).WithSpecular(core.NewVec3(1, 1, 1), specularProbability, smoothness)
}

// NewEmissive creates a black light source emitting color * strength
func NewEmissive(color core.Vec3, strength float64) Material {
	return New(core.Vec3{}).WithEmission(color, strength)
}

// Neutral is the white diffuse material reported for rays that hit nothing
func Neutral() Material {
	return New(core.NewVec3(1, 1, 1))
}

// WithEmission returns a copy of the material that emits color * strength
func (m Material) WithEmission(color core.Vec3, strength float64) Material {
	m.EmissionColor = color
	m.EmissionStrength = strength
	return m
}

// WithSpecular returns a copy of the material with the given specular response
func (m Material) WithSpecular(color core.Vec3, probability, smoothness float64) Material {
	m.SpecularColor = color
	m.SpecularProbability = probability
	m.Smoothness = smoothness
	return m
}

// Emitted returns the radiance the surface emits
func (m Material) Emitted() core.Vec3 {
	return m.EmissionColor.Multiply(m.EmissionStrength)
}

// IsEmissive reports whether the surface emits any light
func (m Material) IsEmissive() bool {
	return m.EmissionStrength > 0 && m.EmissionColor.LengthSquared() > 0
}
