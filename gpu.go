package chunkshade

import (
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/chunkshade/shaders"
)

// GPU materialization of the chunk pipelines: the same packed-vertex
// format and palette arrays the CPU stages consume, bound to the WGSL
// variants in the shaders package.

const (
	DepthFormat         = wgpu.TextureFormatDepth32Float
	NormalPrepassFormat = wgpu.TextureFormatRGBA8Unorm
)

type WindowState struct {
	windowGlfw   *glfw.Window
	WindowWidth  int
	WindowHeight int
	windowTitle  string
}

type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration
}

func NewWindowState(windowWidth int, windowHeight int, windowTitle string) *WindowState {
	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(err)
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Important: tell GLFW we don't want OpenGL
	glfw.WindowHint(glfw.Resizable, glfw.True)

	win, err := glfw.CreateWindow(windowWidth, windowHeight, windowTitle, nil, nil)
	if err != nil {
		panic(err)
	}

	return &WindowState{
		windowGlfw:   win,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
		windowTitle:  windowTitle,
	}
}

func NewGpuState(s *WindowState) *GpuState {
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(s.windowGlfw))
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		panic(err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:            "Main Device",
		RequiredFeatures: nil,
		RequiredLimits:   nil,
	})
	if err != nil {
		panic(err)
	}
	queue := device.GetQueue()

	caps := surface.GetCapabilities(adapter)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(s.WindowWidth),
		Height:      uint32(s.WindowHeight),
		PresentMode: wgpu.PresentModeFifo, // vsync
		AlphaMode:   caps.AlphaModes[0],
	}

	surface.Configure(adapter, device, &surfaceConfig)

	return &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         queue,
		surfaceConfig: &surfaceConfig,
	}
}

// chunkVertexLayout is the whole vertex pull for a chunk draw: one uint32
// per vertex at shader location 0.
func chunkVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 4,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{
				ShaderLocation: 0,
				Offset:         0,
				Format:         wgpu.VertexFormatUint32,
			},
		},
	}
}

// Uniform layouts mirror the structs in chunk.wgsl; the fourth material
// slot is padding required by uniform buffer alignment.
type materialUniform struct {
	Reflectance         float32
	PerceptualRoughness float32
	Metallic            float32
	Pad                 float32
}

type cameraUniform struct {
	ViewProj mgl32.Mat4
	Position mgl32.Vec4
}

type lightUniform struct {
	Direction mgl32.Vec4
	Color     mgl32.Vec4 // w carries illuminance
}

func createChunkForwardPipeline(gpuState *GpuState) *wgpu.RenderPipeline {
	shader, err := gpuState.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "chunk",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ChunkWGSL},
	})
	if err != nil {
		panic(err)
	}
	defer shader.Release()

	pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "chunk",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{chunkVertexLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    gpuState.surfaceConfig.Format,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		panic(err)
	}
	return pipeline
}

func createChunkPrepassPipeline(gpuState *GpuState) *wgpu.RenderPipeline {
	shader, err := gpuState.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "chunk_prepass",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.ChunkPrepassWGSL},
	})
	if err != nil {
		panic(err)
	}
	defer shader.Release()

	pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "chunk_prepass",
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{chunkVertexLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    NormalPrepassFormat,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		panic(err)
	}
	return pipeline
}

// ChunkRenderState owns the GPU-side resources for one chunk material
// group: pipelines, palette storage buffers, uniforms and bind groups.
// The palette buffers are written once and stay read-only for every draw
// that references them.
type ChunkRenderState struct {
	pipeline        *wgpu.RenderPipeline
	prepassPipeline *wgpu.RenderPipeline

	materialBuffer   *wgpu.Buffer
	colorsBuffer     *wgpu.Buffer
	emissiveBuffer   *wgpu.Buffer
	cameraBuffer     *wgpu.Buffer
	transformsBuffer *wgpu.Buffer
	lightBuffer      *wgpu.Buffer

	bindGroups        map[uint32]*wgpu.BindGroup
	prepassBindGroups map[uint32]*wgpu.BindGroup

	maxInstances int
	log          Logger
}

// NewChunkRenderState uploads a material group and builds both the
// forward and prepass pipelines for it. maxInstances bounds the transform
// table; instances beyond it need a new state.
func NewChunkRenderState(gpuState *GpuState, mat ChunkMaterial, maxInstances int, log Logger) *ChunkRenderState {
	if log == nil {
		log = NewNopLogger()
	}

	pipeline := createChunkForwardPipeline(gpuState)
	prepassPipeline := createChunkPrepassPipeline(gpuState)

	device := gpuState.device

	materialBuffer := createBuffer("chunkMaterial", []materialUniform{{
		Reflectance:         mat.Reflectance,
		PerceptualRoughness: mat.PerceptualRoughness,
		Metallic:            mat.Metallic,
	}}, device, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)

	colorsBuffer := createBuffer("blockColors", mat.Palette.Color[:], device, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	emissiveBuffer := createBuffer("blockEmissive", mat.Palette.Emissive[:], device, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)

	cameraBuffer := createBuffer("camera", []cameraUniform{{
		ViewProj: mgl32.Ident4(),
	}}, device, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)

	transforms := make([]mgl32.Mat4, maxInstances)
	for i := range transforms {
		transforms[i] = mgl32.Ident4()
	}
	transformsBuffer := createBuffer("instanceTransforms", transforms, device, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)

	lightBuffer := createBuffer("directionalLight", []lightUniform{{
		Direction: mgl32.Vec4{0, -1, 0, 0},
		Color:     mgl32.Vec4{1, 1, 1, 1},
	}}, device, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)

	bindGroups := createBindGroups(map[uint32][]wgpu.BindGroupEntry{
		0: {
			{Binding: 0, Buffer: materialBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: colorsBuffer, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: emissiveBuffer, Size: wgpu.WholeSize},
		},
		1: {
			{Binding: 0, Buffer: cameraBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: transformsBuffer, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: lightBuffer, Size: wgpu.WholeSize},
		},
	}, pipeline, device)

	prepassBindGroups := createBindGroups(map[uint32][]wgpu.BindGroupEntry{
		0: {
			{Binding: 0, Buffer: cameraBuffer, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: transformsBuffer, Size: wgpu.WholeSize},
		},
	}, prepassPipeline, device)

	log.Debugf("chunk render state ready: %d instance slots", maxInstances)

	return &ChunkRenderState{
		pipeline:          pipeline,
		prepassPipeline:   prepassPipeline,
		materialBuffer:    materialBuffer,
		colorsBuffer:      colorsBuffer,
		emissiveBuffer:    emissiveBuffer,
		cameraBuffer:      cameraBuffer,
		transformsBuffer:  transformsBuffer,
		lightBuffer:       lightBuffer,
		bindGroups:        bindGroups,
		prepassBindGroups: prepassBindGroups,
		maxInstances:      maxInstances,
		log:               log,
	}
}

// UpdateCamera rewrites the camera uniform for the next frame.
func (rs *ChunkRenderState) UpdateCamera(gpuState *GpuState, cam Camera, position mgl32.Vec3) {
	u := []cameraUniform{{
		ViewProj: cam.ViewProj(),
		Position: position.Vec4(1),
	}}
	if err := gpuState.queue.WriteBuffer(rs.cameraBuffer, 0, wgpu.ToBytes(u)); err != nil {
		rs.log.Errorf("camera upload failed: %v", err)
	}
}

// UpdateTransforms rewrites the leading entries of the instance transform
// table. Extra instances are ignored with a warning rather than growing
// the buffer mid-frame.
func (rs *ChunkRenderState) UpdateTransforms(gpuState *GpuState, instances []ChunkInstance) {
	if len(instances) > rs.maxInstances {
		rs.log.Warnf("instance table overflow: %d > %d, truncating", len(instances), rs.maxInstances)
		instances = instances[:rs.maxInstances]
	}
	transforms := make([]mgl32.Mat4, len(instances))
	for i := range instances {
		// The shaders rotate normals by the model matrix itself, which
		// only matches the inverse-transpose path for angle-preserving
		// transforms.
		if !instances[i].AnglePreserving() {
			rs.log.Warnf("instance %d transform has non-uniform scale or shear; shader normals will diverge", i)
		}
		transforms[i] = instances[i].Model
	}
	if err := gpuState.queue.WriteBuffer(rs.transformsBuffer, 0, wgpu.ToBytes(transforms)); err != nil {
		rs.log.Errorf("transform upload failed: %v", err)
	}
}

// UpdateLight rewrites the directional light uniform.
func (rs *ChunkRenderState) UpdateLight(gpuState *GpuState, light DirectionalLight) {
	u := []lightUniform{{
		Direction: light.Direction.Vec4(0),
		Color:     light.Color.Vec4(light.Illuminance),
	}}
	if err := gpuState.queue.WriteBuffer(rs.lightBuffer, 0, wgpu.ToBytes(u)); err != nil {
		rs.log.Errorf("light upload failed: %v", err)
	}
}

// CreateChunkBuffers uploads one chunk mesh.
func CreateChunkBuffers(mesh *ChunkMesh, device *wgpu.Device) (vertexBuf *wgpu.Buffer, indexBuf *wgpu.Buffer) {
	vertexBuf, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Chunk Vertex Buffer",
		Contents: wgpu.ToBytes(mesh.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		panic(err)
	}
	indexBuf, err = device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Chunk Index Buffer",
		Contents: wgpu.ToBytes(mesh.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		panic(err)
	}
	return vertexBuf, indexBuf
}

// Draw records one chunk draw into an open forward render pass.
func (rs *ChunkRenderState) Draw(pass *wgpu.RenderPassEncoder, vertexBuf, indexBuf *wgpu.Buffer, indexCount uint32, firstInstance uint32) {
	pass.SetPipeline(rs.pipeline)
	for groupId, bindGroup := range rs.bindGroups {
		pass.SetBindGroup(groupId, bindGroup, nil)
	}
	pass.SetVertexBuffer(0, vertexBuf, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(indexBuf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(indexCount, 1, 0, 0, firstInstance)
}

// DrawPrepass records one chunk draw into an open prepass.
func (rs *ChunkRenderState) DrawPrepass(pass *wgpu.RenderPassEncoder, vertexBuf, indexBuf *wgpu.Buffer, indexCount uint32, firstInstance uint32) {
	pass.SetPipeline(rs.prepassPipeline)
	for groupId, bindGroup := range rs.prepassBindGroups {
		pass.SetBindGroup(groupId, bindGroup, nil)
	}
	pass.SetVertexBuffer(0, vertexBuf, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(indexBuf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(indexCount, 1, 0, 0, firstInstance)
}

// Release frees every GPU resource this state owns.
func (rs *ChunkRenderState) Release() {
	for _, bg := range rs.bindGroups {
		bg.Release()
	}
	for _, bg := range rs.prepassBindGroups {
		bg.Release()
	}
	rs.materialBuffer.Release()
	rs.colorsBuffer.Release()
	rs.emissiveBuffer.Release()
	rs.cameraBuffer.Release()
	rs.transformsBuffer.Release()
	rs.lightBuffer.Release()
	rs.prepassPipeline.Release()
	rs.pipeline.Release()
}

func createBuffer[E any](name string, data []E, device *wgpu.Device, usage wgpu.BufferUsage) *wgpu.Buffer {
	buffer, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name,
		Contents: wgpu.ToBytes(data),
		Usage:    usage,
	})
	if err != nil {
		panic(err)
	}
	return buffer
}

func createBindGroups(groupedBindings map[uint32][]wgpu.BindGroupEntry, pipeline *wgpu.RenderPipeline, device *wgpu.Device) map[uint32]*wgpu.BindGroup {
	bindGroups := map[uint32]*wgpu.BindGroup{}
	for groupId, bindings := range groupedBindings {
		bindGroupLayout := pipeline.GetBindGroupLayout(groupId)
		defer bindGroupLayout.Release()

		bindGroup, err := device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout:  bindGroupLayout,
			Entries: bindings,
		})
		if err != nil {
			panic(err)
		}
		bindGroups[groupId] = bindGroup
	}
	return bindGroups
}
