package geometry

import (
	"math"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

func TestCamera_CenterRayWithoutJitter(t *testing.T) {
	config := DefaultCameraConfig()
	config.DefocusStrength = 0
	config.DivergeStrength = 0
	camera := NewCamera(config)

	ray := camera.GetRay(0.5, 0.5, 100, core.NewPixelSampler(0, 0))
	if ray.Origin != config.Position {
		t.Errorf("Expected origin at camera position, got %v", ray.Origin)
	}
	if ray.Direction.Subtract(core.NewVec3(0, 0, -1)).Length() > 1e-12 {
		t.Errorf("Expected direction (0,0,-1), got %v", ray.Direction)
	}
}

func TestCamera_ViewportExtents(t *testing.T) {
	config := DefaultCameraConfig()
	config.VFov = 90
	config.AspectRatio = 2
	config.FocusDistance = 3
	camera := NewCamera(config)

	// tan(45°) = 1, so the viewport is 2*focus high and twice that wide
	lowerLeft := camera.FocusPoint(0, 0)
	upperRight := camera.FocusPoint(1, 1)
	if lowerLeft.Subtract(core.NewVec3(-6, -3, -3)).Length() > 1e-9 {
		t.Errorf("Expected lower-left (-6,-3,-3), got %v", lowerLeft)
	}
	if upperRight.Subtract(core.NewVec3(6, 3, -3)).Length() > 1e-9 {
		t.Errorf("Expected upper-right (6,3,-3), got %v", upperRight)
	}
}

func TestCamera_DefocusKeepsFocusPlaneSharp(t *testing.T) {
	config := DefaultCameraConfig()
	config.DefocusStrength = 50
	config.DivergeStrength = 0
	config.FocusDistance = 4
	camera := NewCamera(config)
	sampler := core.NewPixelSampler(5, 9)

	const width = 100
	focus := camera.FocusPoint(0.3, 0.7)
	for i := 0; i < 200; i++ {
		ray := camera.GetRay(0.3, 0.7, width, sampler)

		// Lens offset stays within the jitter radius in the right/up plane
		offset := ray.Origin.Subtract(config.Position)
		if offset.Length() > 50.0/width+1e-12 || math.Abs(offset.Dot(config.Forward)) > 1e-12 {
			t.Fatalf("Lens offset %v outside the lens disk", offset)
		}

		// Every ray passes through the same focus-plane point
		toFocus := focus.Subtract(ray.Origin)
		if toFocus.Cross(ray.Direction).Length() > 1e-9 {
			t.Fatalf("Ray %v misses the focus point %v", ray, focus)
		}
		if math.Abs(ray.Direction.Length()-1) > 1e-12 {
			t.Fatalf("Expected unit direction, got %f", ray.Direction.Length())
		}
	}
}

func TestCameraConfig_LookAt(t *testing.T) {
	config := DefaultCameraConfig().LookAt(
		core.NewVec3(0, 0, 5), core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))

	if config.Forward.Subtract(core.NewVec3(0, 0, -1)).Length() > 1e-12 {
		t.Errorf("Expected forward (0,0,-1), got %v", config.Forward)
	}
	if config.Right.Subtract(core.NewVec3(1, 0, 0)).Length() > 1e-12 {
		t.Errorf("Expected right (1,0,0), got %v", config.Right)
	}
	if config.Up.Subtract(core.NewVec3(0, 1, 0)).Length() > 1e-12 {
		t.Errorf("Expected up (0,1,0), got %v", config.Up)
	}
}
