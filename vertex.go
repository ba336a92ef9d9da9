package chunkshade

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Chunk mesh vertex format, one uint32 per vertex, low to high bits:
//
//	position: 6 bits per axis, 18 bits total (0..63)
//	ao:       3 bits (0..3 meaningful)
//	normal:   3 bits (0..5, face direction index)
//	block:    8 bits (palette index, 256 block types max)
//
// The mesher produces these words; everything here only decodes them.
const (
	vertexYShift      = 6
	vertexZShift      = 12
	vertexAOShift     = 18
	vertexNormalShift = 21
	vertexBlockShift  = 24

	vertexPosMask    = 0x3F
	vertexAOMask     = 0x7
	vertexNormalMask = 0x7
	vertexBlockMask  = 0xFF
)

// VoxelVertex is the unpacked form of a single chunk mesh vertex.
type VoxelVertex struct {
	X, Y, Z uint32
	AO      uint32
	Normal  uint32
	Block   uint32
}

// PackVertex encodes a vertex into its 32-bit wire form. Fields outside
// their declared ranges are the encoder's problem; we do not validate here
// (or anywhere downstream) because the decode side has no error channel.
func PackVertex(x, y, z, ao, normal, block uint32) uint32 {
	return x |
		y<<vertexYShift |
		z<<vertexZShift |
		ao<<vertexAOShift |
		normal<<vertexNormalShift |
		block<<vertexBlockShift
}

// Pack re-encodes the vertex. PackVertex(DecodeVertex(w).Pack()) == w for
// every 32-bit word.
func (v VoxelVertex) Pack() uint32 {
	return PackVertex(v.X, v.Y, v.Z, v.AO, v.Normal, v.Block)
}

// DecodeVertex extracts all fields by mask-and-shift. Total: every input
// word yields an output, even if the AO or normal field is out of the
// meaningful range.
func DecodeVertex(w uint32) VoxelVertex {
	return VoxelVertex{
		X:      w & vertexPosMask,
		Y:      (w >> vertexYShift) & vertexPosMask,
		Z:      (w >> vertexZShift) & vertexPosMask,
		AO:     (w >> vertexAOShift) & vertexAOMask,
		Normal: (w >> vertexNormalShift) & vertexNormalMask,
		Block:  (w >> vertexBlockShift) & vertexBlockMask,
	}
}

// PosFromVertex decodes only the local position. Used for AABB folding
// where the other fields are irrelevant.
func PosFromVertex(w uint32) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(w & vertexPosMask),
		float32((w >> vertexYShift) & vertexPosMask),
		float32((w >> vertexZShift) & vertexPosMask),
	}
}

// LocalPos returns the decoded position as a float vector. All coordinates
// fit exactly in a float32 mantissa.
func (v VoxelVertex) LocalPos() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// faceNormals maps the 3-bit normal index to a unit vector in chunk-local
// space. The back/forward pair sits at 4/5; the prepass shader uses the
// same ordering so geometry normals stay in sync between passes.
var faceNormals = [6]mgl32.Vec3{
	{-1, 0, 0}, // left
	{1, 0, 0},  // right
	{0, -1, 0}, // down
	{0, 1, 0},  // up
	{0, 0, -1}, // back
	{0, 0, 1},  // forward
}

// FaceNormal looks up the local-space face normal for a decoded normal
// index. Indices above 5 are representable in the 3-bit field but never
// emitted by the mesher; they clamp to the last entry instead of
// panicking, matching GPU indexing behavior.
func FaceNormal(index uint32) mgl32.Vec3 {
	if index > 5 {
		index = 5
	}
	return faceNormals[index]
}

// aoLerp maps the 2 meaningful AO bits to a brightness multiplier.
var aoLerp = [4]float32{1.0, 0.7, 0.5, 0.15}

// ResolveAO returns the brightness multiplier for an AO level. Levels 4..7
// are undefined by the vertex contract and clamp to the darkest entry.
// The multiplier scales base color RGB only, never alpha or emissive.
func ResolveAO(level uint32) float32 {
	if level > 3 {
		level = 3
	}
	return aoLerp[level]
}
