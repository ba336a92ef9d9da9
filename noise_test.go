package chunkshade

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSimplexNoise2Deterministic(t *testing.T) {
	points := []mgl32.Vec2{
		{0, 0},
		{1.5, -2.25},
		{1000.125, 4096.5},
		{-777.75, 0.001},
	}
	for _, p := range points {
		first := SimplexNoise2(p)
		for i := 0; i < 100; i++ {
			if got := SimplexNoise2(p); got != first {
				t.Fatalf("noise not bit-identical at %v: %v != %v", p, got, first)
			}
		}
	}
}

func TestSimplexNoise2ZeroAtOrigin(t *testing.T) {
	// The origin sits on a lattice point whose hashed gradient
	// contribution cancels exactly.
	assert.Equal(t, float32(0), SimplexNoise2(mgl32.Vec2{0, 0}))
}

func TestSimplexNoise2Bounds(t *testing.T) {
	// Empirical bound over a dense grid; the scale constant keeps the
	// theoretical range just inside [-1, 1] but float rounding can graze
	// it.
	const lo, hi = -1.02, 1.02
	for ix := -200; ix <= 200; ix++ {
		for iy := -200; iy <= 200; iy++ {
			v := SimplexNoise2(mgl32.Vec2{float32(ix) * 0.37, float32(iy) * 0.41})
			if v < lo || v > hi {
				t.Fatalf("noise out of bounds at (%d,%d): %v", ix, iy, v)
			}
		}
	}
}

func TestSimplexNoise2Varies(t *testing.T) {
	// Not a constant function: a coarse sweep must produce both signs.
	var sawPositive, sawNegative bool
	for i := 0; i < 1000; i++ {
		v := SimplexNoise2(mgl32.Vec2{float32(i) * 0.173, float32(i) * -0.311})
		if v > 0.05 {
			sawPositive = true
		}
		if v < -0.05 {
			sawNegative = true
		}
	}
	assert.True(t, sawPositive)
	assert.True(t, sawNegative)
}

func TestMod289StaysInRange(t *testing.T) {
	for _, x := range []float32{-1000, -289, -1, 0, 1, 288, 289, 290, 83521, 100000} {
		m := mod289(x)
		assert.GreaterOrEqual(t, m, float32(0), "mod289(%v)", x)
		assert.Less(t, m, float32(289), "mod289(%v)", x)
	}
}

func TestPermute289Examples(t *testing.T) {
	// ((34x + 1) x) mod 289 at small integers, computed by hand.
	assert.Equal(t, float32(0), permute289(0))
	assert.Equal(t, float32(35), permute289(1))  // 35 % 289
	assert.Equal(t, float32(138), permute289(2)) // 138 % 289
}
