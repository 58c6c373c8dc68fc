package core

import (
	"math"
	"math/rand/v2"
)

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
	Get3D() Vec3
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// Get3D returns three random float64 values in [0, 1)
func (r *RandomSampler) Get3D() Vec3 {
	return NewVec3(r.random.Float64(), r.random.Float64(), r.random.Float64())
}

// PixelSampler is a RandomSampler whose stream is derived from a (pixel, frame) pair.
// Reseeding is allocation free, so one PixelSampler serves a whole tile.
type PixelSampler struct {
	RandomSampler
	source *rand.PCG
}

// NewPixelSampler creates a sampler positioned at the stream for (pixelIndex, frameIndex)
func NewPixelSampler(pixelIndex, frameIndex int) *PixelSampler {
	source := rand.NewPCG(0, 0)
	ps := &PixelSampler{
		RandomSampler: RandomSampler{random: rand.New(source)},
		source:        source,
	}
	ps.Reseed(pixelIndex, frameIndex)
	return ps
}

// Reseed restarts the stream for (pixelIndex, frameIndex).
// The same pair always produces the same sequence regardless of which
// goroutine or in which order pixels are rendered.
func (ps *PixelSampler) Reseed(pixelIndex, frameIndex int) {
	seed := PixelSeed(pixelIndex, frameIndex)
	ps.source.Seed(seed, splitMix64(seed^0x6a09e667f3bcc909))
}

// PixelSeed hashes a pixel index and frame index into a 64-bit seed
func PixelSeed(pixelIndex, frameIndex int) uint64 {
	h := splitMix64(uint64(pixelIndex) * 0x9e3779b97f4a7c15)
	return splitMix64(h ^ uint64(frameIndex)*0xbf58476d1ce4e5b9)
}

// splitMix64 is the SplitMix64 finalizer, a bijective 64-bit mixer
func splitMix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// SampleNormal draws a standard normally distributed value using the Box-Muller transform
func SampleNormal(sampler Sampler) float64 {
	sample := sampler.Get2D()
	theta := 2 * math.Pi * sample.X
	rho := math.Sqrt(-2 * math.Log(1-sample.Y))
	return rho * math.Cos(theta)
}

// SampleDirection returns a uniformly distributed unit vector.
// Each axis is normally distributed, which makes the normalized result isotropic.
func SampleDirection(sampler Sampler) Vec3 {
	x := SampleNormal(sampler)
	y := SampleNormal(sampler)
	z := SampleNormal(sampler)
	return NewVec3(x, y, z).Normalize()
}

// SampleInCircle returns a point uniformly distributed by area in the unit disk
func SampleInCircle(sampler Sampler) Vec2 {
	sample := sampler.Get2D()
	angle := 2 * math.Pi * sample.X
	radius := math.Sqrt(sample.Y)
	return NewVec2(math.Cos(angle)*radius, math.Sin(angle)*radius)
}
