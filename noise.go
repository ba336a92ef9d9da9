package chunkshade

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// 2D simplex noise on a permutation-polynomial hash. Stateless and
// deterministic: same coordinate, same float32 precision, same bits out.
// Intermediate values are kept below 289^2 so every product stays inside
// the exact-integer range of float32.

func floor32(x float32) float32 { return float32(math.Floor(float64(x))) }

func fract32(x float32) float32 { return x - floor32(x) }

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func mod289(x float32) float32 {
	return x - floor32(x*(1.0/289.0))*289.0
}

// permute289 is the hash polynomial ((34x + 1) x) mod 289.
func permute289(x float32) float32 {
	return mod289(((x * 34.0) + 1.0) * x)
}

// Skew constants for the 2D simplex lattice.
const (
	noiseG2    = 0.211324865405187  // (3 - sqrt(3)) / 6
	noiseF2    = 0.366025403784439  // 0.5 * (sqrt(3) - 1)
	noiseH2    = -0.577350269189626 // -1 + 2 * G2
	noiseInv41 = 0.024390243902439  // 1 / 41
	noiseNormA = 1.79284291400159
	noiseNormB = 0.85373472095314
	noiseScale = 130.0
)

// SimplexNoise2 evaluates gradient noise at a 2D point, returning a value
// in approximately [-1, 1]. Terrain and shading input signal, not a
// random number generator.
func SimplexNoise2(v mgl32.Vec2) float32 {
	// Fold onto the skewed triangular lattice.
	s := (v.X() + v.Y()) * noiseF2
	ix := floor32(v.X() + s)
	iy := floor32(v.Y() + s)

	t := (ix + iy) * noiseG2
	x0x := v.X() - ix + t
	x0y := v.Y() - iy + t

	// Which of the two remaining simplex corners is nearer.
	var i1x, i1y float32
	if x0x > x0y {
		i1x, i1y = 1, 0
	} else {
		i1x, i1y = 0, 1
	}

	x1x := x0x + noiseG2 - i1x
	x1y := x0y + noiseG2 - i1y
	x2x := x0x + noiseH2
	x2y := x0y + noiseH2

	// Hashed gradient index per corner, mod 289 wraparound.
	ix = mod289(ix)
	iy = mod289(iy)
	p0 := permute289(permute289(iy) + ix)
	p1 := permute289(permute289(iy+i1y) + ix + i1x)
	p2 := permute289(permute289(iy+1) + ix + 1)

	// Radial falloff raised to the 4th power.
	m0 := max32(0.5-(x0x*x0x+x0y*x0y), 0)
	m1 := max32(0.5-(x1x*x1x+x1y*x1y), 0)
	m2 := max32(0.5-(x2x*x2x+x2y*x2y), 0)
	m0 *= m0
	m1 *= m1
	m2 *= m2
	m0 *= m0
	m1 *= m1
	m2 *= m2

	// Gradients from the 41-point ring, approximately normalized.
	gx0, gy0, n0 := gradient2(p0)
	gx1, gy1, n1 := gradient2(p1)
	gx2, gy2, n2 := gradient2(p2)

	m0 *= n0
	m1 *= n1
	m2 *= n2

	return noiseScale * (m0*(gx0*x0x+gy0*x0y) +
		m1*(gx1*x1x+gy1*x1y) +
		m2*(gx2*x2x+gy2*x2y))
}

// gradient2 expands a hash value into a 2D gradient plus the Taylor
// normalization factor that keeps the summed contributions in range.
func gradient2(p float32) (gx, gy, norm float32) {
	x := 2.0*fract32(p*noiseInv41) - 1.0
	gy = abs32(x) - 0.5
	ox := floor32(x + 0.5)
	gx = x - ox
	norm = noiseNormA - noiseNormB*(gx*gx+gy*gy)
	return gx, gy, norm
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
