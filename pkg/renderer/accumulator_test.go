package renderer

import (
	"math"
	"testing"

	"github.com/df07/go-progressive-pathtracer/pkg/core"
)

func constantFrame(width, height int, c core.Vec3) *Frame {
	frame := NewFrame(width, height)
	for i := range frame.Pixels {
		frame.Pixels[i] = c
	}
	return frame
}

func TestAccumulator_Idempotence(t *testing.T) {
	c := core.NewVec3(0.3, 0.7, 0.123456789)
	for _, k := range []int{0, 1, 2, 7, 100, 999} {
		acc := NewAccumulator(4, 3)
		for i := 0; i < k; i++ {
			if _, err := acc.Blend(constantFrame(4, 3, c)); err != nil {
				t.Fatalf("Blend failed: %v", err)
			}
		}
		if k > 0 && acc.Pixel(2, 1) != c {
			t.Fatalf("k=%d: expected accumulator to hold %v, got %v", k, c, acc.Pixel(2, 1))
		}

		stats, err := acc.Blend(constantFrame(4, 3, c))
		if err != nil {
			t.Fatalf("Blend failed: %v", err)
		}
		for y := 0; y < 3; y++ {
			for x := 0; x < 4; x++ {
				if acc.Pixel(x, y) != c {
					t.Fatalf("k=%d: pixel (%d,%d) changed to %v", k, x, y, acc.Pixel(x, y))
				}
			}
		}
		if k > 0 && (stats.MeanChange != 0 || stats.StdDevChange != 0) {
			t.Errorf("k=%d: expected zero change, got %+v", k, stats)
		}
		if acc.FrameIndex() != k+1 {
			t.Errorf("Expected frame index %d, got %d", k+1, acc.FrameIndex())
		}
	}
}

// mustBlend blends frame into acc and fails the test on error
func mustBlend(t *testing.T, acc *Accumulator, frame *Frame) {
	t.Helper()
	if _, err := acc.Blend(frame); err != nil {
		t.Fatalf("Blend failed: %v", err)
	}
}

func TestAccumulator_ConstantSequenceDoesNotDrift(t *testing.T) {
	values := []core.Vec3{
		core.NewVec3(0.1, 0.2, 0.3),
		core.NewVec3(1.0/3.0, 2.0/7.0, 5.0/11.0),
		core.NewVec3(12.5, 0, 1e-9),
	}
	for _, c := range values {
		acc := NewAccumulator(2, 2)
		// Leftovers from before the reset must not matter
		mustBlend(t, acc, constantFrame(2, 2, core.NewVec3(9, 9, 9)))
		acc.Reset()

		for k := 1; k <= 1000; k++ {
			mustBlend(t, acc, constantFrame(2, 2, c))
			if acc.Pixel(1, 1) != c {
				t.Fatalf("Value %v drifted to %v after %d frames", c, acc.Pixel(1, 1), k)
			}
		}
	}
}

func TestAccumulator_RunningMean(t *testing.T) {
	acc := NewAccumulator(1, 1)
	for _, v := range []float64{1, 2, 3, 6} {
		mustBlend(t, acc, constantFrame(1, 1, core.NewVec3(v, v, v)))
	}

	// Mean of 1, 2, 3, 6
	got := acc.Pixel(0, 0)
	if math.Abs(got.X-3) > 1e-12 || math.Abs(got.Y-3) > 1e-12 || math.Abs(got.Z-3) > 1e-12 {
		t.Errorf("Expected running mean 3, got %v", got)
	}
}

func TestAccumulator_FirstFrameReplacesNaN(t *testing.T) {
	acc := NewAccumulator(1, 1)
	mustBlend(t, acc, constantFrame(1, 1, core.NewVec3(math.NaN(), 0, 0)))
	acc.Reset()
	mustBlend(t, acc, constantFrame(1, 1, core.NewVec3(0.5, 0.5, 0.5)))

	if got := acc.Pixel(0, 0); got != core.NewVec3(0.5, 0.5, 0.5) {
		t.Errorf("Expected first frame after reset to be copied exactly, got %v", got)
	}
}

func TestAccumulator_ConvergenceStats(t *testing.T) {
	acc := NewAccumulator(2, 1)
	frame := NewFrame(2, 1)
	frame.Set(0, 0, core.NewVec3(1, 1, 1))
	frame.Set(1, 0, core.NewVec3(3, 3, 3))

	stats, err := acc.Blend(frame)
	if err != nil {
		t.Fatalf("Blend failed: %v", err)
	}
	// Luminance changes are 1 and 3
	if math.Abs(stats.MeanChange-2) > 1e-9 {
		t.Errorf("Expected mean change 2, got %f", stats.MeanChange)
	}
	if math.Abs(stats.StdDevChange-math.Sqrt2) > 1e-9 {
		t.Errorf("Expected std dev change sqrt(2), got %f", stats.StdDevChange)
	}
}

func TestAccumulator_DimensionMismatch(t *testing.T) {
	acc := NewAccumulator(4, 4)
	if _, err := acc.Blend(NewFrame(4, 5)); err == nil {
		t.Error("Expected error blending a frame of the wrong size")
	}
	if acc.FrameIndex() != 0 {
		t.Errorf("Expected failed blend to leave frame index 0, got %d", acc.FrameIndex())
	}
}

func TestAccumulator_SnapshotRestore(t *testing.T) {
	acc := NewAccumulator(3, 2)
	mustBlend(t, acc, constantFrame(3, 2, core.NewVec3(0.2, 0.4, 0.6)))
	mustBlend(t, acc, constantFrame(3, 2, core.NewVec3(0.4, 0.6, 0.8)))

	state := acc.Snapshot()
	acc.Reset()

	// The snapshot is a copy, unaffected by the reset
	if math.Abs(state.Pixels[0].Y-0.5) > 1e-12 {
		t.Errorf("Expected snapshot to keep accumulated values, got %v", state.Pixels[0])
	}

	restored := NewAccumulator(3, 2)
	if err := restored.Restore(state); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.FrameIndex() != 2 {
		t.Errorf("Expected frame index 2, got %d", restored.FrameIndex())
	}
	if restored.Pixel(2, 1) != state.Pixels[5] {
		t.Errorf("Expected restored pixel %v, got %v", state.Pixels[5], restored.Pixel(2, 1))
	}

	if err := NewAccumulator(2, 2).Restore(state); err == nil {
		t.Error("Expected error restoring into a different resolution")
	}
}
