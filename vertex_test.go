package chunkshade

import (
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestPackDecodeRoundTrip(t *testing.T) {
	positions := []uint32{0, 1, 31, 32, 63}
	blocks := []uint32{0, 1, 7, 128, 255}

	for _, x := range positions {
		for _, y := range positions {
			for _, z := range positions {
				for ao := uint32(0); ao < 8; ao++ {
					for normal := uint32(0); normal < 6; normal++ {
						for _, block := range blocks {
							w := PackVertex(x, y, z, ao, normal, block)
							v := DecodeVertex(w)
							if v.X != x || v.Y != y || v.Z != z || v.AO != ao || v.Normal != normal || v.Block != block {
								t.Fatalf("round trip failed for (%d,%d,%d,ao=%d,n=%d,b=%d): got %+v",
									x, y, z, ao, normal, block, v)
							}
						}
					}
				}
			}
		}
	}
}

func TestDecodeRepackIsIdentity(t *testing.T) {
	// The six fields tile all 32 bits, so decode followed by re-encode
	// must reproduce any word exactly.
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		w := rng.Uint32()
		if got := DecodeVertex(w).Pack(); got != w {
			t.Fatalf("decode/repack mismatch: 0x%08x -> 0x%08x", w, got)
		}
	}
}

func TestPosFromVertexMatchesDecode(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 1000; i++ {
		w := rng.Uint32()
		v := DecodeVertex(w)
		assert.Equal(t, v.LocalPos(), PosFromVertex(w))
	}
}

func TestResolveAO(t *testing.T) {
	assert.Equal(t, float32(1.0), ResolveAO(0))
	assert.Equal(t, float32(0.7), ResolveAO(1))
	assert.Equal(t, float32(0.5), ResolveAO(2))
	assert.Equal(t, float32(0.15), ResolveAO(3))

	// Levels 4..7 are outside the encoder contract; they must not panic
	// and clamp to the darkest entry.
	for level := uint32(4); level < 8; level++ {
		assert.Equal(t, float32(0.15), ResolveAO(level))
	}
}

func TestFaceNormalTable(t *testing.T) {
	expected := []mgl32.Vec3{
		{-1, 0, 0},
		{1, 0, 0},
		{0, -1, 0},
		{0, 1, 0},
		{0, 0, -1},
		{0, 0, 1},
	}
	for i, want := range expected {
		assert.Equal(t, want, FaceNormal(uint32(i)), "normal index %d", i)
	}

	// Representable but invalid indices clamp instead of panicking.
	assert.Equal(t, expected[5], FaceNormal(6))
	assert.Equal(t, expected[5], FaceNormal(7))
}

func TestEndToEndVertexScenario(t *testing.T) {
	w := PackVertex(5, 10, 20, 2, 3, 7)

	v := DecodeVertex(w)
	assert.Equal(t, mgl32.Vec3{5, 10, 20}, v.LocalPos())
	assert.Equal(t, float32(0.5), ResolveAO(v.AO))
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, FaceNormal(v.Normal))
	assert.Equal(t, uint32(7), v.Block)

	reg := NewBlockRegistry()
	for i := 0; i < 7; i++ {
		_, err := reg.AddBlock(string(rune('a'+i)), Block{})
		assert.NoError(t, err)
	}
	_, err := reg.AddBlock("target", Block{
		Visibility: BlockVisibilitySolid,
		Color:      mgl32.Vec4{0.8, 0.2, 0.2, 1.0},
	})
	assert.NoError(t, err)

	mat := DefaultChunkMaterial(reg.Palette())
	inst := NewChunkInstance(mgl32.Ident4())
	out := ProcessVertex(w, &inst, mgl32.Ident4(), &mat, PipelineConfig{Mode: PipelineForward})

	assert.InDelta(t, 0.4, out.Color.X(), 1e-6)
	assert.InDelta(t, 0.1, out.Color.Y(), 1e-6)
	assert.InDelta(t, 0.1, out.Color.Z(), 1e-6)
	assert.InDelta(t, 1.0, out.Color.W(), 1e-6)
	assert.Equal(t, mgl32.Vec4{}, out.Emissive)
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, out.Normal)
	assert.Equal(t, mgl32.Vec3{5, 10, 20}, out.WorldPos)
}
