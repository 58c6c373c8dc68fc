package core

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestPixelSampler_Deterministic(t *testing.T) {
	a := NewPixelSampler(1234, 7)
	b := NewPixelSampler(1234, 7)

	for i := 0; i < 32; i++ {
		if va, vb := a.Get1D(), b.Get1D(); va != vb {
			t.Fatalf("Sample %d differs: %f vs %f", i, va, vb)
		}
	}

	// Reseeding must restart the stream exactly
	first := NewPixelSampler(99, 3).Get3D()
	a.Reseed(99, 3)
	if again := a.Get3D(); again != first {
		t.Errorf("Expected reseeded stream to match fresh sampler, got %v vs %v", again, first)
	}
}

func TestPixelSeed_Distinct(t *testing.T) {
	seen := make(map[uint64]struct{})
	for pixel := 0; pixel < 64; pixel++ {
		for frame := 0; frame < 64; frame++ {
			seed := PixelSeed(pixel, frame)
			if _, dup := seen[seed]; dup {
				t.Fatalf("Duplicate seed for pixel %d frame %d", pixel, frame)
			}
			seen[seed] = struct{}{}
		}
	}
}

func TestSampleDirection_UnitLength(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewPCG(1, 2)))

	var mean Vec3
	const n = 20000
	for i := 0; i < n; i++ {
		dir := SampleDirection(sampler)
		if math.Abs(dir.Length()-1) > 1e-9 {
			t.Fatalf("Expected unit vector, got length %f", dir.Length())
		}
		mean = mean.Add(dir)
	}

	// An isotropic distribution has zero mean
	mean = mean.Multiply(1.0 / n)
	if mean.Length() > 0.05 {
		t.Errorf("Expected mean direction near zero, got %v", mean)
	}
}

func TestSampleInCircle(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewPCG(3, 4)))

	inner := 0
	const n = 20000
	for i := 0; i < n; i++ {
		p := SampleInCircle(sampler)
		if p.Length() > 1 {
			t.Fatalf("Point %v lies outside the unit disk", p)
		}
		if p.Length() < math.Sqrt(0.5) {
			inner++
		}
	}

	// Uniform by area: half the points fall inside radius sqrt(1/2)
	fraction := float64(inner) / n
	if math.Abs(fraction-0.5) > 0.02 {
		t.Errorf("Expected about half the points in the inner disk, got %f", fraction)
	}
}

func TestSampleNormal_Moments(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewPCG(5, 6)))

	var sum, sumSq float64
	const n = 50000
	for i := 0; i < n; i++ {
		x := SampleNormal(sampler)
		sum += x
		sumSq += x * x
	}

	mean := sum / n
	variance := sumSq/n - mean*mean
	if math.Abs(mean) > 0.03 {
		t.Errorf("Expected mean near 0, got %f", mean)
	}
	if math.Abs(variance-1) > 0.05 {
		t.Errorf("Expected variance near 1, got %f", variance)
	}
}
