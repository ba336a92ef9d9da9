package chunkshade

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PipelineMode selects which shading variant a pipeline is built for.
// The choice is made once, before dispatch; the per-fragment functions
// below are specialized at construction instead of branching per pixel.
type PipelineMode uint8

const (
	// PipelineForward shades fragments immediately with the lighting model.
	PipelineForward PipelineMode = iota
	// PipelineDeferredPrepass writes gbuffer records for a later lighting pass.
	PipelineDeferredPrepass
	// PipelinePrepassDefault is the fallback when no chunk material is
	// bound: it writes a placeholder emissive tagged as unlit.
	PipelinePrepassDefault
)

// PipelineConfig is the full pre-dispatch configuration of a chunk
// shading pipeline.
type PipelineConfig struct {
	Mode PipelineMode

	// OrthoDepthClamp keeps prepass geometry behind the orthographic far
	// plane by clamping rasterizer depth and emitting the true depth per
	// fragment.
	OrthoDepthClamp bool

	// LoadPrepassNormals makes the forward pass read normals written by
	// an earlier prepass instead of the interpolated geometric normal.
	LoadPrepassNormals bool
}

// ChunkMaterial is the shared material for a chunk material group: three
// scalar parameters plus the palette arrays. One instance serves every
// chunk in the group for a whole draw call.
type ChunkMaterial struct {
	Reflectance         float32
	PerceptualRoughness float32
	Metallic            float32

	Palette *Palette
}

// DefaultChunkMaterial mirrors the stock opaque chunk material.
func DefaultChunkMaterial(p *Palette) ChunkMaterial {
	return ChunkMaterial{
		Reflectance:         0.5,
		PerceptualRoughness: 1.0,
		Metallic:            0.01,
		Palette:             p,
	}
}

// ChunkInstance is one chunk's per-instance transform state, looked up by
// the instance index carried per vertex. The normal matrix is derived
// once here rather than per vertex.
type ChunkInstance struct {
	Model     mgl32.Mat4
	normalMat mgl32.Mat3
}

func NewChunkInstance(model mgl32.Mat4) ChunkInstance {
	return ChunkInstance{
		Model:     model,
		normalMat: NormalMatrix(model),
	}
}

// AnglePreserving reports whether rotating a normal by the model matrix
// agrees with the inverse-transpose path after renormalization. True for
// translation, rotation and uniform scale; false under non-uniform scale
// or shear. The GPU shaders rotate normals by the model matrix directly,
// so only angle-preserving instances shade identically on both paths.
func (i *ChunkInstance) AnglePreserving() bool {
	m := i.Model.Mat3()
	g := m.Transpose().Mul3(m)
	const eps = 1e-4
	return abs32(g[1]) < eps && abs32(g[2]) < eps && abs32(g[5]) < eps &&
		abs32(g[0]-g[4]) < eps && abs32(g[4]-g[8]) < eps
}

// VertexOutput is everything the vertex stage hands to rasterization.
// Color is already AO-scaled; AO is a vertex-level effect and never
// touches emissive or alpha.
type VertexOutput struct {
	Clip     ClipPosition
	WorldPos mgl32.Vec3
	Normal   mgl32.Vec3
	Color    mgl32.Vec4
	Emissive mgl32.Vec4
}

// ProcessVertex runs the whole per-vertex pipeline for one packed word:
// decode, palette lookup, AO scaling, normal lookup and the transform
// stage. Pure; safe to invoke concurrently across a vertex buffer.
func ProcessVertex(word uint32, inst *ChunkInstance, viewProj mgl32.Mat4, mat *ChunkMaterial, cfg PipelineConfig) VertexOutput {
	v := DecodeVertex(word)

	color, emissive := mat.Palette.LookupColor(v.Block)
	ao := ResolveAO(v.AO)
	color[0] *= ao
	color[1] *= ao
	color[2] *= ao

	normal := TransformNormal(inst.normalMat, FaceNormal(v.Normal))
	world, clip := TransformVertex(inst.Model, viewProj, v.LocalPos(), cfg.OrthoDepthClamp)

	return VertexOutput{
		Clip:     clip,
		WorldPos: world.Vec3(),
		Normal:   normal,
		Color:    color,
		Emissive: emissive,
	}
}

// ProcessVertices maps ProcessVertex over a packed vertex buffer with a
// parallel instance-index buffer. Intended to be sliced into ranges by a
// data-parallel caller; there is no shared mutable state.
func ProcessVertices(words []uint32, instanceIndices []uint32, instances []ChunkInstance, viewProj mgl32.Mat4, mat *ChunkMaterial, cfg PipelineConfig) []VertexOutput {
	out := make([]VertexOutput, len(words))
	for i, w := range words {
		inst := &instances[instanceIndices[i]]
		out[i] = ProcessVertex(w, inst, viewProj, mat, cfg)
	}
	return out
}

// Interpolate blends three vertex outputs with barycentric weights, the
// way the rasterizer would before fragment shading.
func Interpolate(a, b, c VertexOutput, wa, wb, wc float32) FragmentInput {
	lerp3 := func(x, y, z mgl32.Vec3) mgl32.Vec3 {
		return x.Mul(wa).Add(y.Mul(wb)).Add(z.Mul(wc))
	}
	lerp4 := func(x, y, z mgl32.Vec4) mgl32.Vec4 {
		return x.Mul(wa).Add(y.Mul(wb)).Add(z.Mul(wc))
	}
	return FragmentInput{
		WorldPos: lerp3(a.WorldPos, b.WorldPos, c.WorldPos),
		Normal:   lerp3(a.Normal, b.Normal, c.Normal),
		Color:    lerp4(a.Color, b.Color, c.Color),
		Emissive: lerp4(a.Emissive, b.Emissive, c.Emissive),
	}
}

// FragmentInput is the interpolated attribute set one fragment sees.
// PrepassNormal is only consulted by forward pipelines configured to load
// prepass normals.
type FragmentInput struct {
	WorldPos      mgl32.Vec3
	Normal        mgl32.Vec3
	Color         mgl32.Vec4
	Emissive      mgl32.Vec4
	PrepassNormal [4]uint8
}

// DirectionalLight is the single light the forward path evaluates.
type DirectionalLight struct {
	// Direction the light travels, normalized.
	Direction   mgl32.Vec3
	Color       mgl32.Vec3
	Illuminance float32
}

// Lighting pass tags written alongside deferred output. The downstream
// lighting pass skips records tagged unlit.
const (
	LightingPassUnlit uint32 = 0
	LightingPassPbr   uint32 = 1
)

// defaultPrepassEmissive is the placeholder written when no chunk
// material is bound. Magenta, so an unbound material is visible at a
// glance instead of silently black.
var defaultPrepassEmissive = mgl32.Vec4{1, 0, 1, 1}

// GBufferRecord is one deferred geometry-buffer entry. Layout is owned by
// the deferred lighting consumer; this is its CPU-side mirror.
type GBufferRecord struct {
	Normal              [4]uint8 // world normal, unorm-encoded
	BaseColor           [4]uint8
	Emissive            [4]uint8
	Reflectance         float32
	PerceptualRoughness float32
	Metallic            float32
	LightingPassID      uint32
}

// ForwardShader and DeferredShader are specialized per-fragment
// functions. Construction resolves every configuration branch so
// invocation is branch-free, the CPU analog of the shader variants being
// separate compiled pipelines.
type ForwardShader func(frag FragmentInput) mgl32.Vec4

type DeferredShader func(frag FragmentInput) GBufferRecord

// NewForwardShader builds the forward-lit fragment function for a
// material, light and camera. When cfg.LoadPrepassNormals is set the
// returned shader decodes its normal from the prepass buffer attachment
// instead of the interpolated geometry normal.
func NewForwardShader(cfg PipelineConfig, mat ChunkMaterial, light DirectionalLight, cameraPos mgl32.Vec3) ForwardShader {
	if cfg.LoadPrepassNormals {
		return func(frag FragmentInput) mgl32.Vec4 {
			n := UnpackNormalUnorm(frag.PrepassNormal)
			return shadePbr(frag, n, mat, light, cameraPos)
		}
	}
	return func(frag FragmentInput) mgl32.Vec4 {
		n := frag.Normal.Normalize()
		return shadePbr(frag, n, mat, light, cameraPos)
	}
}

// NewDeferredShader builds the gbuffer-writing fragment function used by
// the deferred prepass. No lighting happens here.
func NewDeferredShader(mat ChunkMaterial) DeferredShader {
	return func(frag FragmentInput) GBufferRecord {
		return GBufferRecord{
			Normal:              PackNormalUnorm(frag.Normal.Normalize()),
			BaseColor:           packUnormColor(frag.Color),
			Emissive:            packUnormColor(frag.Emissive),
			Reflectance:         mat.Reflectance,
			PerceptualRoughness: mat.PerceptualRoughness,
			Metallic:            mat.Metallic,
			LightingPassID:      LightingPassPbr,
		}
	}
}

// NewDefaultPrepassShader builds the fallback fragment function used when
// no chunk material is bound. It ignores its input entirely.
func NewDefaultPrepassShader() DeferredShader {
	return func(frag FragmentInput) GBufferRecord {
		return GBufferRecord{
			Normal:         PackNormalUnorm(frag.Normal.Normalize()),
			Emissive:       packUnormColor(defaultPrepassEmissive),
			LightingPassID: LightingPassUnlit,
		}
	}
}

// shadePbr evaluates the single-directional-light PBR model and applies
// Reinhard tonemapping. Alpha passes through from the interpolated base
// color.
func shadePbr(frag FragmentInput, n mgl32.Vec3, mat ChunkMaterial, light DirectionalLight, cameraPos mgl32.Vec3) mgl32.Vec4 {
	base := frag.Color
	viewDir := cameraPos.Sub(frag.WorldPos).Normalize()
	lightDir := light.Direction.Mul(-1).Normalize()

	ndotl := max32(n.Dot(lightDir), 0)

	roughness := mat.PerceptualRoughness * mat.PerceptualRoughness
	// Dielectric F0 from reflectance, metals tint it by base color.
	f0d := 0.16 * mat.Reflectance * mat.Reflectance * (1 - mat.Metallic)
	f0 := mgl32.Vec3{
		f0d + base.X()*mat.Metallic,
		f0d + base.Y()*mat.Metallic,
		f0d + base.Z()*mat.Metallic,
	}
	diffuseColor := mgl32.Vec3{base.X(), base.Y(), base.Z()}.Mul(1 - mat.Metallic)

	var lit mgl32.Vec3
	if ndotl > 0 {
		half := viewDir.Add(lightDir).Normalize()
		ndoth := max32(n.Dot(half), 0)
		ndotv := max32(n.Dot(viewDir), 1e-4)
		ldoth := max32(lightDir.Dot(half), 0)

		d := distributionGGX(ndoth, roughness)
		vis := visibilitySmith(ndotv, ndotl, roughness)
		f := fresnelSchlick(ldoth, f0)

		specular := f.Mul(d * vis)
		diffuse := diffuseColor.Mul(1.0 / math.Pi)

		radiance := light.Color.Mul(light.Illuminance * ndotl)
		lit = mgl32.Vec3{
			(diffuse.X() + specular.X()) * radiance.X(),
			(diffuse.Y() + specular.Y()) * radiance.Y(),
			(diffuse.Z() + specular.Z()) * radiance.Z(),
		}
	}

	lit = lit.Add(mgl32.Vec3{frag.Emissive.X(), frag.Emissive.Y(), frag.Emissive.Z()})

	// Post-lighting tonemap, per channel.
	return mgl32.Vec4{
		reinhard(lit.X()),
		reinhard(lit.Y()),
		reinhard(lit.Z()),
		base.W(),
	}
}

func distributionGGX(ndoth, roughness float32) float32 {
	a2 := roughness * roughness
	denom := ndoth*ndoth*(a2-1) + 1
	return a2 / (math.Pi * denom * denom)
}

func visibilitySmith(ndotv, ndotl, roughness float32) float32 {
	a2 := roughness * roughness
	gv := ndotl * float32(math.Sqrt(float64(ndotv*ndotv*(1-a2)+a2)))
	gl := ndotv * float32(math.Sqrt(float64(ndotl*ndotl*(1-a2)+a2)))
	if gv+gl <= 0 {
		return 0
	}
	return 0.5 / (gv + gl)
}

func fresnelSchlick(cosTheta float32, f0 mgl32.Vec3) mgl32.Vec3 {
	m := 1 - cosTheta
	m2 := m * m
	m5 := m2 * m2 * m
	return mgl32.Vec3{
		f0.X() + (1-f0.X())*m5,
		f0.Y() + (1-f0.Y())*m5,
		f0.Z() + (1-f0.Z())*m5,
	}
}

func reinhard(c float32) float32 {
	return c / (1 + c)
}

// PackNormalUnorm encodes a unit normal as unsigned-normalized RGBA, the
// prepass normal attachment format. Alpha is always 255.
func PackNormalUnorm(n mgl32.Vec3) [4]uint8 {
	enc := func(c float32) uint8 {
		u := (c*0.5 + 0.5) * 255.0
		if u < 0 {
			u = 0
		} else if u > 255 {
			u = 255
		}
		return uint8(u + 0.5)
	}
	return [4]uint8{enc(n.X()), enc(n.Y()), enc(n.Z()), 255}
}

// UnpackNormalUnorm is the inverse of PackNormalUnorm, renormalized to
// absorb quantization.
func UnpackNormalUnorm(p [4]uint8) mgl32.Vec3 {
	dec := func(u uint8) float32 {
		return float32(u)/255.0*2.0 - 1.0
	}
	n := mgl32.Vec3{dec(p[0]), dec(p[1]), dec(p[2])}
	if n.Len() == 0 {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Normalize()
}

func packUnormColor(c mgl32.Vec4) [4]uint8 {
	enc := func(v float32) uint8 {
		if v < 0 {
			v = 0
		} else if v > 1 {
			v = 1
		}
		return uint8(v*255.0 + 0.5)
	}
	return [4]uint8{enc(c.X()), enc(c.Y()), enc(c.Z()), enc(c.W())}
}
