package lights

import "github.com/df07/go-progressive-pathtracer/pkg/core"

// Environment supplies the radiance arriving along rays that escape the scene
type Environment interface {
	// Emit returns the radiance seen looking along the unit vector direction
	Emit(direction core.Vec3) core.Vec3
}
