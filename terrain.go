package chunkshade

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Terrain sampling driven by the gradient noise primitive. This is the
// minimal shaping pass that fills chunks with block ids; meshing them is
// someone else's job.

const (
	terrainOverhangFreq  = 0.0254
	terrainHeightFreq    = 0.002591
	terrainOverhangScale = 55.0
	terrainHeightScale   = 30.0

	// World height band outside which chunks are uniformly air or ground.
	terrainTopCutoff    = 21
	terrainBottomCutoff = -21
)

// ChunkData holds one chunk's voxel block ids. A single-element slice
// means the whole chunk is that block; uniform chunks are common (all air
// above ground, all ground deep below) and not worth 32768 copies.
type ChunkData struct {
	Voxels []BlockID
}

// GetBlock returns the block at a linear voxel index (x + y*32 + z*1024).
func (c *ChunkData) GetBlock(index int) BlockID {
	if len(c.Voxels) == 1 {
		return c.Voxels[0]
	}
	return c.Voxels[index]
}

// UniformBlock reports the single block type if the chunk is uniform.
func (c *ChunkData) UniformBlock() (BlockID, bool) {
	if len(c.Voxels) == 1 {
		return c.Voxels[0], true
	}
	return 0, false
}

// IndexToLocal splits a linear voxel index into chunk-local coordinates.
func IndexToLocal(i int) (x, y, z int) {
	return i % ChunkSize, (i / ChunkSize) % ChunkSize, i / ChunkSize2
}

// LocalToIndex is the inverse of IndexToLocal.
func LocalToIndex(x, y, z int) int {
	return x + y*ChunkSize + z*ChunkSize2
}

// TerrainSampler shapes chunks with the noise primitive. Block ids refer
// to the default registry layout: air 0, dirt 1, grass 2, glass 3.
type TerrainSampler struct {
	Air     BlockID
	Deep    BlockID
	Surface BlockID
	Marker  BlockID
}

// NewTerrainSampler wires a sampler against a registry using the stock
// block names.
func NewTerrainSampler(reg *BlockRegistry) *TerrainSampler {
	lookup := func(name string) BlockID {
		id, ok := reg.Lookup(name)
		if !ok {
			return 0
		}
		return id
	}
	return &TerrainSampler{
		Air:     lookup("air"),
		Deep:    lookup("dirt"),
		Surface: lookup("grass"),
		Marker:  lookup("glass"),
	}
}

// GenerateChunk fills one chunk from the deterministic noise field. Same
// chunk position, same output, always.
func (s *TerrainSampler) GenerateChunk(chunkPos [3]int32) *ChunkData {
	// Extremity shortcut: a chunk whose top sits above the surface band
	// is all air, one far enough below is all surface material.
	if chunkPos[1]*ChunkSize+ChunkSize > terrainTopCutoff+ChunkSize {
		return &ChunkData{Voxels: []BlockID{s.Air}}
	}
	if chunkPos[1]*ChunkSize < terrainBottomCutoff-ChunkSize {
		return &ChunkData{Voxels: []BlockID{s.Surface}}
	}

	voxels := make([]BlockID, 0, ChunkSize3)
	for i := 0; i < ChunkSize3; i++ {
		lx, ly, lz := IndexToLocal(i)
		x := float32(chunkPos[0])*ChunkSize + float32(lx)
		y := float32(chunkPos[1])*ChunkSize + float32(ly)
		z := float32(chunkPos[2])*ChunkSize + float32(lz)

		voxels = append(voxels, s.sample(x, y, z, chunkPos))
	}
	return &ChunkData{Voxels: voxels}
}

func (s *TerrainSampler) sample(x, y, z float32, chunkPos [3]int32) BlockID {
	// A high-frequency sample perturbs the heightmap coordinate, which is
	// what produces overhangs from a purely 2D height field.
	overhang := SimplexNoise2(mgl32.Vec2{
		x * terrainOverhangFreq,
		(z + y) * terrainOverhangFreq,
	}) * terrainOverhangScale

	h := SimplexNoise2(mgl32.Vec2{
		(x + overhang) * terrainHeightFreq,
		z * terrainHeightFreq,
	}) * terrainHeightScale

	if h > y {
		if h-y > 1.0 {
			return s.Deep
		}
		return s.Surface
	}

	// Sparse marker columns on chunk grid lines, handy for orientation.
	onX := int32(x)%16 == 0
	onZ := int32(z)%16 == 0
	onXChunk := chunkPos[0]%4 == 0
	onZChunk := chunkPos[2]%4 == 0
	if (onX != onZ) && (onXChunk != onZChunk) {
		return s.Marker
	}
	return s.Air
}
