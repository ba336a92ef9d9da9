package chunkshade

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// ChunkMesh is a GPU-ready chunk mesh payload: packed vertex words plus a
// triangle index list. The mesher produces it; this package only consumes
// it.
type ChunkMesh struct {
	Vertices []uint32
	Indices  []uint32
}

// GenerateIndices builds the index list for a vertex buffer made of
// counter-clockwise quads: two triangles per four vertices.
func GenerateIndices(vertexCount int) []uint32 {
	quadCount := vertexCount / 4
	indices := make([]uint32, 0, quadCount*6)
	for q := 0; q < quadCount; q++ {
		base := uint32(q * 4)
		indices = append(indices,
			base, base+1, base+2,
			base, base+2, base+3,
		)
	}
	return indices
}

// CalculateAABB folds the decoded vertex positions into a local-space
// bounding box. Used for culling only, so the other vertex fields are
// never decoded.
func (m *ChunkMesh) CalculateAABB() (min, max mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	min = mgl32.Vec3{64, 64, 64}
	max = mgl32.Vec3{-1, -1, -1}
	for _, w := range m.Vertices {
		p := PosFromVertex(w)
		for i := 0; i < 3; i++ {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max
}

// AssetId identifies a registered mesh. Generated, never user supplied.
type AssetId string

// MeshRegistry owns uploaded chunk meshes between the meshing side and
// the draw side. Safe for concurrent use; a mesh is immutable once added.
type MeshRegistry struct {
	mu     sync.RWMutex
	meshes map[AssetId]*ChunkMesh
}

func NewMeshRegistry() *MeshRegistry {
	return &MeshRegistry{
		meshes: map[AssetId]*ChunkMesh{},
	}
}

func (r *MeshRegistry) Add(mesh *ChunkMesh) AssetId {
	id := AssetId(uuid.NewString())
	r.mu.Lock()
	r.meshes[id] = mesh
	r.mu.Unlock()
	return id
}

func (r *MeshRegistry) Get(id AssetId) (*ChunkMesh, bool) {
	r.mu.RLock()
	mesh, ok := r.meshes[id]
	r.mu.RUnlock()
	return mesh, ok
}

func (r *MeshRegistry) Remove(id AssetId) {
	r.mu.Lock()
	delete(r.meshes, id)
	r.mu.Unlock()
}

func (r *MeshRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.meshes)
}
