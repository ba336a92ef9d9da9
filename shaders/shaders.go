// Package shaders embeds the WGSL sources for the chunk render pipelines.
package shaders

import (
	_ "embed"
)

//go:embed chunk.wgsl
var ChunkWGSL string

//go:embed chunk_prepass.wgsl
var ChunkPrepassWGSL string

//go:embed noise.wgsl
var NoiseWGSL string
