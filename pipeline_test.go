package chunkshade

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMaterial(t *testing.T) ChunkMaterial {
	t.Helper()
	reg := DefaultBlockRegistry()
	return DefaultChunkMaterial(reg.Palette())
}

func TestProcessVertexAppliesAOBeforeInterpolation(t *testing.T) {
	reg := DefaultBlockRegistry()
	mat := DefaultChunkMaterial(reg.Palette())
	inst := NewChunkInstance(ChunkTranslation([3]int32{1, 0, 0}))

	// dirt block, full AO darkening
	w := PackVertex(2, 3, 4, 3, 1, 1)
	out := ProcessVertex(w, &inst, mgl32.Ident4(), &mat, PipelineConfig{})

	// dirt is (0,1,0,1); level 3 darkens RGB by 0.15 and leaves alpha.
	assert.InDelta(t, 0.0, float64(out.Color.X()), 1e-6)
	assert.InDelta(t, 0.15, float64(out.Color.Y()), 1e-6)
	assert.InDelta(t, 1.0, float64(out.Color.W()), 1e-6)

	// Chunk translation lands the local position in world space.
	assert.Equal(t, mgl32.Vec3{34, 3, 4}, out.WorldPos)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, out.Normal)
}

func TestProcessVertexAONeverTouchesEmissive(t *testing.T) {
	reg := NewBlockRegistry()
	_, err := reg.AddBlock("lantern", Block{
		Color:    mgl32.Vec4{1, 1, 1, 1},
		Emissive: mgl32.Vec4{2, 2, 2, 1},
	})
	require.NoError(t, err)
	mat := DefaultChunkMaterial(reg.Palette())
	inst := NewChunkInstance(mgl32.Ident4())

	w := PackVertex(0, 0, 0, 3, 0, 0)
	out := ProcessVertex(w, &inst, mgl32.Ident4(), &mat, PipelineConfig{})

	assert.Equal(t, mgl32.Vec4{2, 2, 2, 1}, out.Emissive)
}

func TestProcessVerticesUsesInstanceIndices(t *testing.T) {
	mat := testMaterial(t)
	instances := []ChunkInstance{
		NewChunkInstance(mgl32.Ident4()),
		NewChunkInstance(ChunkTranslation([3]int32{0, 1, 0})),
	}
	words := []uint32{
		PackVertex(1, 1, 1, 0, 3, 1),
		PackVertex(1, 1, 1, 0, 3, 1),
	}

	out := ProcessVertices(words, []uint32{0, 1}, instances, mgl32.Ident4(), &mat, PipelineConfig{})
	require.Len(t, out, 2)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, out[0].WorldPos)
	assert.Equal(t, mgl32.Vec3{1, 33, 1}, out[1].WorldPos)
}

func TestChunkInstanceAnglePreserving(t *testing.T) {
	cases := []struct {
		name  string
		model mgl32.Mat4
		want  bool
	}{
		{"identity", mgl32.Ident4(), true},
		{"translation", ChunkTranslation([3]int32{3, -1, 2}), true},
		{"rotation", mgl32.HomogRotate3DY(0.7), true},
		{"uniform scale", mgl32.Scale3D(2, 2, 2), true},
		{"non-uniform scale", mgl32.Scale3D(2, 1, 1), false},
		{"shear", mgl32.Mat4{1, 0, 0, 0, 0.5, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}, false},
	}
	for _, tc := range cases {
		inst := NewChunkInstance(tc.model)
		assert.Equal(t, tc.want, inst.AnglePreserving(), tc.name)
	}
}

func TestInterpolateBarycentric(t *testing.T) {
	a := VertexOutput{Color: mgl32.Vec4{1, 0, 0, 1}, WorldPos: mgl32.Vec3{0, 0, 0}}
	b := VertexOutput{Color: mgl32.Vec4{0, 1, 0, 1}, WorldPos: mgl32.Vec3{2, 0, 0}}
	c := VertexOutput{Color: mgl32.Vec4{0, 0, 1, 1}, WorldPos: mgl32.Vec3{0, 2, 0}}

	frag := Interpolate(a, b, c, 0.5, 0.25, 0.25)
	assert.InDelta(t, 0.5, float64(frag.Color.X()), 1e-6)
	assert.InDelta(t, 0.25, float64(frag.Color.Y()), 1e-6)
	assert.InDelta(t, 0.25, float64(frag.Color.Z()), 1e-6)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0}, frag.WorldPos)
}

func TestForwardShaderLitFromAbove(t *testing.T) {
	mat := testMaterial(t)
	light := DirectionalLight{
		Direction:   mgl32.Vec3{0, -1, 0},
		Color:       mgl32.Vec3{1, 1, 1},
		Illuminance: 2.0,
	}
	shader := NewForwardShader(PipelineConfig{Mode: PipelineForward}, mat, light, mgl32.Vec3{0, 10, 0})

	up := FragmentInput{
		WorldPos: mgl32.Vec3{0, 0, 0},
		Normal:   mgl32.Vec3{0, 1, 0},
		Color:    mgl32.Vec4{0.5, 0.5, 0.5, 1},
	}
	lit := shader(up)
	assert.Greater(t, lit.X(), float32(0), "upward face receives light")
	assert.InDelta(t, 1.0, float64(lit.W()), 1e-6, "alpha passes through")

	// A face pointing away from the light gets no direct contribution.
	down := up
	down.Normal = mgl32.Vec3{0, -1, 0}
	dark := shader(down)
	assert.Equal(t, float32(0), dark.X())
	assert.Equal(t, float32(0), dark.Y())
	assert.Equal(t, float32(0), dark.Z())
}

func TestForwardShaderEmissiveSurvivesDarkness(t *testing.T) {
	mat := testMaterial(t)
	light := DirectionalLight{Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{1, 1, 1}, Illuminance: 1}
	shader := NewForwardShader(PipelineConfig{}, mat, light, mgl32.Vec3{0, 10, 0})

	frag := FragmentInput{
		Normal:   mgl32.Vec3{0, -1, 0}, // unlit
		Color:    mgl32.Vec4{0, 0, 0, 1},
		Emissive: mgl32.Vec4{1, 0, 0, 1},
	}
	out := shader(frag)
	// Reinhard of pure emissive red: 1/(1+1).
	assert.InDelta(t, 0.5, float64(out.X()), 1e-6)
	assert.Equal(t, float32(0), out.Y())
}

func TestForwardShaderLoadsPrepassNormals(t *testing.T) {
	mat := testMaterial(t)
	light := DirectionalLight{Direction: mgl32.Vec3{0, -1, 0}, Color: mgl32.Vec3{1, 1, 1}, Illuminance: 1}
	cfg := PipelineConfig{Mode: PipelineForward, LoadPrepassNormals: true}
	shader := NewForwardShader(cfg, mat, light, mgl32.Vec3{0, 10, 0})

	// Geometric normal faces away from the light, prepass normal faces
	// it. With the flag set, the prepass normal wins and the fragment is
	// lit.
	frag := FragmentInput{
		Normal:        mgl32.Vec3{0, -1, 0},
		Color:         mgl32.Vec4{0.5, 0.5, 0.5, 1},
		PrepassNormal: PackNormalUnorm(mgl32.Vec3{0, 1, 0}),
	}
	lit := shader(frag)
	assert.Greater(t, lit.X(), float32(0))
}

func TestDeferredShaderRecord(t *testing.T) {
	mat := testMaterial(t)
	shader := NewDeferredShader(mat)

	frag := FragmentInput{
		Normal:   mgl32.Vec3{0, 1, 0},
		Color:    mgl32.Vec4{1, 0, 0, 1},
		Emissive: mgl32.Vec4{0, 0, 0, 0},
	}
	rec := shader(frag)

	assert.Equal(t, LightingPassPbr, rec.LightingPassID)
	assert.Equal(t, mat.Reflectance, rec.Reflectance)
	assert.Equal(t, mat.PerceptualRoughness, rec.PerceptualRoughness)
	assert.Equal(t, mat.Metallic, rec.Metallic)
	assert.Equal(t, [4]uint8{255, 0, 0, 255}, rec.BaseColor)

	n := UnpackNormalUnorm(rec.Normal)
	assert.InDelta(t, 0.0, float64(n.X()), 0.01)
	assert.InDelta(t, 1.0, float64(n.Y()), 0.01)
}

func TestDefaultPrepassShaderWritesPlaceholder(t *testing.T) {
	shader := NewDefaultPrepassShader()

	rec := shader(FragmentInput{Normal: mgl32.Vec3{0, 0, 1}})

	assert.Equal(t, LightingPassUnlit, rec.LightingPassID)
	// Placeholder emissive is fixed, not palette-derived.
	assert.Equal(t, [4]uint8{255, 0, 255, 255}, rec.Emissive)
	assert.Equal(t, [4]uint8{0, 0, 0, 0}, rec.BaseColor)
	assert.Equal(t, float32(0), rec.Reflectance)
}

func TestNormalUnormRoundTrip(t *testing.T) {
	for i := 0; i < 6; i++ {
		n := FaceNormal(uint32(i))
		got := UnpackNormalUnorm(PackNormalUnorm(n))
		assert.InDelta(t, float64(n.X()), float64(got.X()), 0.01)
		assert.InDelta(t, float64(n.Y()), float64(got.Y()), 0.01)
		assert.InDelta(t, float64(n.Z()), float64(got.Z()), 0.01)
	}
}
