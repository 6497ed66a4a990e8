package dieselvk

import (
	"github.com/andewx/dieselvk/asche"
	vk "github.com/vulkan-go/vulkan"
)

// vertexBindingDescription and vertexAttributeDescriptions describe
// resource.Vertex's fixed layout (position, normal, color, uv) to the
// fixed-function vertex input stage. Every pipeline built here uses the
// same single binding -- there is exactly one vertex format in the engine.
func vertexBindingDescription() vk.VertexInputBindingDescription {
	return vk.VertexInputBindingDescription{
		Binding:   0,
		Stride:    48, // resource.VertexByteSize
		InputRate: vk.VertexInputRateVertex,
	}
}

func vertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 0},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: 12},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32a32Sfloat, Offset: 24},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: 40},
	}
}

// DescriptorPool owns the single pool the resource database allocates every
// material's descriptor set from: one uniform-buffer binding per set,
// maxSets sets total.
type DescriptorPool struct {
	device vk.Device
	pool   vk.DescriptorPool
}

// NewDescriptorPool creates a pool sized for maxSets uniform-buffer
// descriptor sets.
func NewDescriptorPool(device vk.Device, maxSets uint32) (*DescriptorPool, error) {
	sizes := []vk.DescriptorPoolSize{{
		Type:            vk.DescriptorTypeUniformBuffer,
		DescriptorCount: maxSets,
	}}
	var handle vk.DescriptorPool
	ret := vk.CreateDescriptorPool(device, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		Flags:         vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit),
		MaxSets:       maxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &handle)
	if err := asche.CheckResult(ret, "CreateDescriptorPool"); err != nil {
		return nil, err
	}
	return &DescriptorPool{device: device, pool: handle}, nil
}

// Allocate draws a single descriptor set against layout from the pool.
func (d *DescriptorPool) Allocate(layout vk.DescriptorSetLayout) (vk.DescriptorSet, error) {
	sets := []vk.DescriptorSet{vk.NullDescriptorSet}
	ret := vk.AllocateDescriptorSets(d.device, &vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout},
	}, sets)
	if err := asche.CheckResult(ret, "AllocateDescriptorSets"); err != nil {
		return vk.NullDescriptorSet, err
	}
	return sets[0], nil
}

// Free returns set to the pool. The pool is created with
// FreeDescriptorSetBit precisely so FreePipeline can do this instead of
// waiting for a whole-pool Reset.
func (d *DescriptorPool) Free(set vk.DescriptorSet) {
	if set == vk.NullDescriptorSet {
		return
	}
	vk.FreeDescriptorSets(d.device, d.pool, 1, []vk.DescriptorSet{set})
}

// Destroy releases the pool and every descriptor set allocated from it.
func (d *DescriptorPool) Destroy() {
	vk.DestroyDescriptorPool(d.device, d.pool, nil)
}

// PipelineEntry is the lifetime unit a material owns: the pipeline, its
// layout, the descriptor-set-layout it was built against, and the one
// descriptor set drawn from the shared pool for its uniform buffer binding.
type PipelineEntry struct {
	Name                string
	Pipeline            vk.Pipeline
	Layout              vk.PipelineLayout
	DescriptorSetLayout vk.DescriptorSetLayout
	DescriptorSet       vk.DescriptorSet
}

// CorePipeline is a name-keyed registry of built graphics pipelines and
// their associated layouts/descriptor-set-layouts, mirroring ShaderPrograms'
// per-material-name model. All builds go through one shared
// vk.PipelineCache so a material rebuild can reuse prior compilation work.
type CorePipeline struct {
	device  vk.Device
	cache   vk.PipelineCache
	entries map[string]*PipelineEntry
}

// NewCorePipeline constructs an empty registry bound to device, with its
// shared pipeline cache.
func NewCorePipeline(device vk.Device) (*CorePipeline, error) {
	var cache vk.PipelineCache
	ret := vk.CreatePipelineCache(device, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &cache)
	if err := asche.CheckResult(ret, "CreatePipelineCache"); err != nil {
		return nil, err
	}
	return &CorePipeline{device: device, cache: cache, entries: make(map[string]*PipelineEntry)}, nil
}

// Get returns a previously built entry by name.
func (c *CorePipeline) Get(name string) (*PipelineEntry, bool) {
	e, ok := c.entries[name]
	return e, ok
}

// FreePipeline destroys name's pipeline, layout, and descriptor-set-layout,
// returns its descriptor set to pool, and invalidates the entry.
func (c *CorePipeline) FreePipeline(pool *DescriptorPool, name string) {
	e, ok := c.entries[name]
	if !ok {
		return
	}
	if e.Pipeline != vk.NullPipeline {
		vk.DestroyPipeline(c.device, e.Pipeline, nil)
	}
	if e.Layout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(c.device, e.Layout, nil)
	}
	pool.Free(e.DescriptorSet)
	if e.DescriptorSetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(c.device, e.DescriptorSetLayout, nil)
	}
	delete(c.entries, name)
}

// Destroy releases every entry in the registry against pool, then the
// shared pipeline cache.
func (c *CorePipeline) Destroy(pool *DescriptorPool) {
	for name := range c.entries {
		c.FreePipeline(pool, name)
	}
	if c.cache != vk.NullPipelineCache {
		vk.DestroyPipelineCache(c.device, c.cache, nil)
		c.cache = vk.NullPipelineCache
	}
}

// buildUniformDescriptorSetLayout builds the single-binding DSL every
// pipeline uses: one uniform buffer at binding 0, visible to the vertex
// stage only (the fixed world/view/projection block vertex shaders read).
func buildUniformDescriptorSetLayout(device vk.Device) (vk.DescriptorSetLayout, error) {
	bindings := []vk.DescriptorSetLayoutBinding{{
		Binding:         0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		StageFlags:      vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	}}
	var layout vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(device, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}, nil, &layout)
	if err := asche.CheckResult(ret, "CreateDescriptorSetLayout"); err != nil {
		return vk.NullDescriptorSetLayout, err
	}
	return layout, nil
}

// PipelineBuilder assembles the fixed-function state for one graphics
// pipeline. A material's Version bump (structural change, distinct from a
// UniformsVersion-only bump) is what drives a collector to rebuild one of
// these; a UniformsVersion-only change never touches this path.
type PipelineBuilder struct {
	device       vk.Device
	shaderStages []vk.PipelineShaderStageCreateInfo
}

// NewPipelineBuilder seeds a builder from a compiled ShaderProgram's vertex
// and fragment modules.
func NewPipelineBuilder(device vk.Device, program *ShaderProgram) *PipelineBuilder {
	return &PipelineBuilder{
		device: device,
		shaderStages: []vk.PipelineShaderStageCreateInfo{
			{
				SType:  vk.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vk.ShaderStageVertexBit,
				Module: program.VertexModule,
				PName:  safeString("main"),
			},
			{
				SType:  vk.StructureTypePipelineShaderStageCreateInfo,
				Stage:  vk.ShaderStageFragmentBit,
				Module: program.FragmentModule,
				PName:  safeString("main"),
			},
		},
	}
}

// BuildPipeline creates a graphics pipeline bound to renderpass with a
// one-binding descriptor set layout (uniform buffer, vertex stage), a
// descriptor set drawn from pool, dynamic viewport+scissor (their values
// are irrelevant at build time -- CmdSetViewport/CmdSetScissor supply them
// every frame), back-face culling, counter-clockwise front face (the
// winding resource.Mesh data is authored in), and a Less-comparison depth
// test with writes enabled. Any previously built entry under name is freed
// first.
func (p *PipelineBuilder) BuildPipeline(registry *CorePipeline, pool *DescriptorPool, name string, renderpass vk.RenderPass) (*PipelineEntry, error) {
	if _, ok := registry.entries[name]; ok {
		registry.FreePipeline(pool, name)
	}

	dsl, err := buildUniformDescriptorSetLayout(p.device)
	if err != nil {
		return nil, err
	}

	set, err := pool.Allocate(dsl)
	if err != nil {
		vk.DestroyDescriptorSetLayout(p.device, dsl, nil)
		return nil, err
	}

	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   1,
		PVertexBindingDescriptions:      []vk.VertexInputBindingDescription{vertexBindingDescription()},
		VertexAttributeDescriptionCount: uint32(len(vertexAttributeDescriptions())),
		PVertexAttributeDescriptions:    vertexAttributeDescriptions(),
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}

	rasterizer := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeBackBit),
		FrontFace:   vk.FrontFaceCounterClockwise,
		LineWidth:   1.0,
	}

	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1.0,
	}

	colorBlendAttachment := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit) | vk.ColorComponentFlags(vk.ColorComponentGBit) |
			vk.ColorComponentFlags(vk.ColorComponentBBit) | vk.ColorComponentFlags(vk.ColorComponentABit),
		BlendEnable: vk.False,
	}
	colorBlend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		LogicOp:         vk.LogicOpCopy,
		AttachmentCount: 1,
		PAttachments:    []vk.PipelineColorBlendAttachmentState{colorBlendAttachment},
	}

	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:            vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:  vk.True,
		DepthWriteEnable: vk.True,
		DepthCompareOp:   vk.CompareOpLess,
	}

	// Viewport/scissor counts are fixed at one each, but their values are
	// dynamic -- PViewports/PScissors are left nil and supplied instead by
	// CmdSetViewport/CmdSetScissor at the start of every recorded frame.
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(p.device, &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{dsl},
	}, nil, &layout)
	if err := asche.CheckResult(ret, "CreatePipelineLayout"); err != nil {
		pool.Free(set)
		vk.DestroyDescriptorSetLayout(p.device, dsl, nil)
		return nil, err
	}

	pipelines := []vk.Pipeline{vk.NullPipeline}
	ret = vk.CreateGraphicsPipelines(p.device, registry.cache, 1, []vk.GraphicsPipelineCreateInfo{{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(p.shaderStages)),
		PStages:             p.shaderStages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterizer,
		PMultisampleState:   &multisample,
		PColorBlendState:    &colorBlend,
		PDepthStencilState:  &depthStencil,
		PDynamicState:       &dynamicState,
		Layout:              layout,
		RenderPass:          renderpass,
		Subpass:             0,
	}}, nil, pipelines)
	if err := asche.CheckResult(ret, "CreateGraphicsPipelines"); err != nil {
		vk.DestroyPipelineLayout(p.device, layout, nil)
		pool.Free(set)
		vk.DestroyDescriptorSetLayout(p.device, dsl, nil)
		return nil, err
	}

	entry := &PipelineEntry{
		Name:                name,
		Pipeline:            pipelines[0],
		Layout:              layout,
		DescriptorSetLayout: dsl,
		DescriptorSet:       set,
	}
	registry.entries[name] = entry
	return entry, nil
}

// BindUniformBuffer writes entry's descriptor set binding 0 to reference
// buffer[offset, offset+size).
func BindUniformBuffer(device vk.Device, entry *PipelineEntry, buffer vk.Buffer, offset, size uint64) {
	bufferInfo := vk.DescriptorBufferInfo{
		Buffer: buffer,
		Offset: vk.DeviceSize(offset),
		Range:  vk.DeviceSize(size),
	}
	vk.UpdateDescriptorSets(device, 1, []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          entry.DescriptorSet,
		DstBinding:      0,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo:     []vk.DescriptorBufferInfo{bufferInfo},
	}}, 0, nil)
}
