package lights

import (
	"math"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

// Sky gradient shaping. The gradient saturates at 0.4 above the horizon and is
// biased toward the horizon colour by the exponent; the ground fades into the sky
// over a thin band just below the horizon.
const (
	skyGradientEnd      = 0.4
	skyGradientExponent = 0.35
	groundBlendStart    = -0.15
)

// Skybox holds the colours of the procedural sky
type Skybox struct {
	Horizon core.Vec3
	Zenith  core.Vec3
	Ground  core.Vec3
}

// DefaultSkybox returns a white horizon fading to a blue zenith over a grey ground
func DefaultSkybox() Skybox {
	return Skybox{
		Horizon: core.NewVec3(1, 1, 1),
		Zenith:  core.NewVec3(0.3, 0.5, 0.9),
		Ground:  core.NewVec3(0.2, 0.2, 0.2),
	}
}

// SkyEnvironment combines the sky gradient with a sun disc
type SkyEnvironment struct {
	Sky Skybox
	Sun DirectionalLight
}

// NewSkyEnvironment creates a sky lit by sun
func NewSkyEnvironment(sky Skybox, sun DirectionalLight) *SkyEnvironment {
	return &SkyEnvironment{Sky: sky, Sun: sun}
}

// NewDefaultSkyEnvironment creates the default sky and sun
func NewDefaultSkyEnvironment() *SkyEnvironment {
	return NewSkyEnvironment(DefaultSkybox(), DefaultSun())
}

// Emit returns the sky radiance along direction.
// The sun is added only where the ground has fully faded out, so the disc is
// clipped at the horizon band instead of bleeding into the ground.
func (s *SkyEnvironment) Emit(direction core.Vec3) core.Vec3 {
	skyGradientT := math.Pow(core.Smoothstep(0, skyGradientEnd, direction.Y), skyGradientExponent)
	skyGradient := core.Lerp(s.Sky.Horizon, s.Sky.Zenith, skyGradientT)

	groundToSkyT := core.Smoothstep(groundBlendStart, 0, direction.Y)
	radiance := core.Lerp(s.Sky.Ground, skyGradient, groundToSkyT)

	if groundToSkyT >= 1 {
		sun := s.Sun.Radiance(direction)
		radiance = radiance.Add(core.NewVec3(sun, sun, sun))
	}
	return radiance
}
