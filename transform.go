package chunkshade

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ChunkSize is the edge length of a chunk in voxels. The vertex format
// leaves 6 bits per axis so meshes may reference up to coordinate 63,
// which covers the chunk plus its positive-edge seam vertices.
const (
	ChunkSize  = 32
	ChunkSize2 = ChunkSize * ChunkSize
	ChunkSize3 = ChunkSize * ChunkSize * ChunkSize
)

// ChunkTranslation builds the model matrix placing a chunk in the world:
// pure translation by chunk coordinate times chunk size.
func ChunkTranslation(chunkPos [3]int32) mgl32.Mat4 {
	return mgl32.Translate3D(
		float32(chunkPos[0])*ChunkSize,
		float32(chunkPos[1])*ChunkSize,
		float32(chunkPos[2])*ChunkSize,
	)
}

// WorldToChunk maps a world position to the coordinate of the chunk
// containing it.
func WorldToChunk(pos mgl32.Vec3) [3]int32 {
	half := float32(ChunkSize) / 2
	inv := float32(1.0) / ChunkSize
	return [3]int32{
		int32((pos.X() - half) * inv),
		int32((pos.Y() - half) * inv),
		int32((pos.Z() - half) * inv),
	}
}

// Camera carries the view and projection matrices for a draw.
type Camera struct {
	View mgl32.Mat4
	Proj mgl32.Mat4
}

func (c Camera) ViewProj() mgl32.Mat4 {
	return c.Proj.Mul4(c.View)
}

// NormalMatrix returns the inverse-transpose of the model matrix's upper
// 3x3, the correct transform for normals under non-uniform scale. The
// caller still renormalizes the transformed vector.
func NormalMatrix(model mgl32.Mat4) mgl32.Mat3 {
	return model.Mat3().Inv().Transpose()
}

// TransformNormal takes a local-space unit normal to world space and
// renormalizes it.
func TransformNormal(normalMat mgl32.Mat3, n mgl32.Vec3) mgl32.Vec3 {
	return normalMat.Mul3x1(n).Normalize()
}

// ClipPosition is the transform stage output for one vertex. Clamped is
// what the rasterizer consumes. When orthographic depth clamping is
// active the two differ for geometry behind the far plane, and the
// fragment stage emits Unclamped's depth explicitly.
type ClipPosition struct {
	Clamped   mgl32.Vec4
	Unclamped mgl32.Vec4
}

// TransformVertex runs the full position path: local (w=1) by model to
// world, then by view-projection to clip space. With clampDepth set
// (orthographic shadow prepass) the primary clip z is limited to 1.0 so
// casters behind the far plane are not clipped away, while the unclamped
// position is kept for the explicit depth write.
func TransformVertex(model, viewProj mgl32.Mat4, local mgl32.Vec3, clampDepth bool) (world mgl32.Vec4, clip ClipPosition) {
	world = model.Mul4x1(local.Vec4(1))
	raw := viewProj.Mul4x1(world)

	clip.Unclamped = raw
	clip.Clamped = raw
	if clampDepth && raw.Z() > 1.0 {
		clip.Clamped[2] = 1.0
	}
	return world, clip
}

// FragmentDepth returns the depth the fragment stage should output when
// depth clamping is active: the preserved unclamped z after perspective
// divide. For the orthographic projections this path serves, w is 1 and
// the divide is an identity.
func FragmentDepth(clip ClipPosition) float32 {
	w := clip.Unclamped.W()
	if w == 0 {
		return clip.Unclamped.Z()
	}
	return clip.Unclamped.Z() / w
}
