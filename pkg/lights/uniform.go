package lights

import "github.com/df07/go-progressive-pathtracer/pkg/core"

// UniformEnvironment emits the same radiance in every direction
type UniformEnvironment struct {
	Color core.Vec3
}

// NewUniformEnvironment creates a constant environment
func NewUniformEnvironment(color core.Vec3) *UniformEnvironment {
	return &UniformEnvironment{Color: color}
}

// Emit returns the constant radiance
func (u *UniformEnvironment) Emit(direction core.Vec3) core.Vec3 {
	return u.Color
}
