package chunkshade

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIndices(t *testing.T) {
	indices := GenerateIndices(8)
	expected := []uint32{
		0, 1, 2, 0, 2, 3,
		4, 5, 6, 4, 6, 7,
	}
	assert.Equal(t, expected, indices)

	// Trailing vertices that don't fill a quad are ignored.
	assert.Len(t, GenerateIndices(7), 6)
	assert.Empty(t, GenerateIndices(3))
}

func TestCalculateAABB(t *testing.T) {
	mesh := &ChunkMesh{
		Vertices: []uint32{
			PackVertex(1, 2, 3, 0, 0, 0),
			PackVertex(10, 0, 7, 3, 5, 42), // AO/normal/block must not affect bounds
			PackVertex(4, 31, 0, 0, 0, 0),
		},
	}
	min, max := mesh.CalculateAABB()
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, min)
	assert.Equal(t, mgl32.Vec3{10, 31, 7}, max)
}

func TestCalculateAABBEmptyMesh(t *testing.T) {
	mesh := &ChunkMesh{}
	min, max := mesh.CalculateAABB()
	assert.Equal(t, mgl32.Vec3{}, min)
	assert.Equal(t, mgl32.Vec3{}, max)
}

func TestMeshRegistry(t *testing.T) {
	reg := NewMeshRegistry()

	mesh := &ChunkMesh{Vertices: []uint32{PackVertex(0, 0, 0, 0, 0, 1)}}
	id := reg.Add(mesh)
	require.NotEmpty(t, id)

	got, ok := reg.Get(id)
	require.True(t, ok)
	assert.Same(t, mesh, got)
	assert.Equal(t, 1, reg.Len())

	other := reg.Add(&ChunkMesh{})
	assert.NotEqual(t, id, other, "asset ids are unique")

	reg.Remove(id)
	_, ok = reg.Get(id)
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())
}
