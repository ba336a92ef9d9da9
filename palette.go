package chunkshade

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// PaletteSize is fixed by the 8-bit block field of the vertex format.
const PaletteSize = 256

// BlockID is the in-memory identifier for a block type. Dense, no gaps,
// assigned in registration order. Not stable across registry rebuilds;
// the string identifier is.
type BlockID uint16

type BlockVisibility uint8

const (
	BlockVisibilitySolid BlockVisibility = iota
	BlockVisibilityTransparent
	BlockVisibilityInvisible
)

type BlockFlags uint8

const (
	// BlockFlagSolid marks a block that appears in the opaque mesh.
	BlockFlagSolid BlockFlags = 1 << 0
	// BlockFlagTransparent marks a block that appears in the transparent mesh.
	BlockFlagTransparent BlockFlags = 1 << 1
	// BlockFlagCollision marks a block that affects the collision mesh.
	BlockFlagCollision BlockFlags = 1 << 2
)

func (f BlockFlags) Has(flag BlockFlags) bool { return f&flag != 0 }

// Block describes one block type at registration time. Colors are linear
// RGBA.
type Block struct {
	Visibility BlockVisibility
	Collision  bool
	Color      mgl32.Vec4
	Emissive   mgl32.Vec4
}

// BlockRegistry maps block string identifiers to dense ids and holds the
// per-block material data the palette is built from.
type BlockRegistry struct {
	idsByName map[string]BlockID
	names     []string
	flags     []BlockFlags
	colors    []mgl32.Vec4
	emissive  []mgl32.Vec4
}

func NewBlockRegistry() *BlockRegistry {
	return &BlockRegistry{
		idsByName: map[string]BlockID{},
	}
}

// AddBlock registers a block type and returns its dense id. Registering
// more than PaletteSize blocks would overflow the vertex block field, so
// that is an error.
func (r *BlockRegistry) AddBlock(name string, block Block) (BlockID, error) {
	if _, ok := r.idsByName[name]; ok {
		return 0, fmt.Errorf("block %q already registered", name)
	}
	if len(r.names) >= PaletteSize {
		return 0, fmt.Errorf("block registry full: %d block types max", PaletteSize)
	}

	var flags BlockFlags
	switch block.Visibility {
	case BlockVisibilitySolid:
		flags = BlockFlagSolid
	case BlockVisibilityTransparent:
		flags = BlockFlagTransparent
	}
	if block.Collision {
		flags |= BlockFlagCollision
	}

	id := BlockID(len(r.names))
	r.names = append(r.names, name)
	r.flags = append(r.flags, flags)
	r.colors = append(r.colors, block.Color)
	r.emissive = append(r.emissive, block.Emissive)
	r.idsByName[name] = id
	return id, nil
}

func (r *BlockRegistry) Len() int { return len(r.names) }

// Lookup returns the id for a string identifier.
func (r *BlockRegistry) Lookup(name string) (BlockID, bool) {
	id, ok := r.idsByName[name]
	return id, ok
}

func (r *BlockRegistry) Name(id BlockID) string { return r.names[id] }

func (r *BlockRegistry) IsSolid(id BlockID) bool {
	return r.flags[id].Has(BlockFlagSolid)
}

func (r *BlockRegistry) HasFlag(id BlockID, flag BlockFlags) bool {
	return r.flags[id].Has(flag)
}

// Palette is the flattened, draw-call-ready form of the registry: two
// parallel 256-entry RGBA arrays indexed by the decoded block field.
// Read-only for the duration of any draw referencing it; entries past the
// registered block count stay zeroed.
type Palette struct {
	Color    [PaletteSize][4]float32
	Emissive [PaletteSize][4]float32
}

// Palette flattens the registry into GPU-layout arrays. The same arrays
// back the CPU vertex stage and the storage buffer upload.
func (r *BlockRegistry) Palette() *Palette {
	p := &Palette{}
	for i := range r.colors {
		p.Color[i] = r.colors[i]
		p.Emissive[i] = r.emissive[i]
	}
	return p
}

// LookupColor fetches one color and one emissive entry for a decoded
// block index. The index is already masked to 8 bits by the codec, so the
// lookup is total.
func (p *Palette) LookupColor(block uint32) (color, emissive mgl32.Vec4) {
	c := p.Color[block&vertexBlockMask]
	e := p.Emissive[block&vertexBlockMask]
	return mgl32.Vec4{c[0], c[1], c[2], c[3]}, mgl32.Vec4{e[0], e[1], e[2], e[3]}
}

// DefaultBlockRegistry returns the stock block set: air, dirt, grass,
// glass and stone, in that order, so BlockID 0 is always air.
func DefaultBlockRegistry() *BlockRegistry {
	r := NewBlockRegistry()
	mustAdd := func(name string, b Block) {
		if _, err := r.AddBlock(name, b); err != nil {
			panic(err)
		}
	}
	mustAdd("air", Block{Visibility: BlockVisibilityInvisible})
	mustAdd("dirt", Block{Visibility: BlockVisibilitySolid, Collision: true, Color: mgl32.Vec4{0.0, 1.0, 0.0, 1.0}})
	mustAdd("grass", Block{Visibility: BlockVisibilitySolid, Collision: true, Color: mgl32.Vec4{0.3, 0.4, 0.0, 1.0}})
	mustAdd("glass", Block{Visibility: BlockVisibilityTransparent, Collision: true, Color: mgl32.Vec4{0.3, 0.3, 0.3, 0.5}})
	mustAdd("stone", Block{Visibility: BlockVisibilitySolid, Collision: true, Color: mgl32.Vec4{0.1, 0.1, 0.1, 1.0}})
	return r
}
