package dieselvk

import (
	"encoding/binary"

	vk "github.com/vulkan-go/vulkan"
)

// ShaderProgram pairs the two compiled stage modules a pipeline needs.
type ShaderProgram struct {
	VertexModule   vk.ShaderModule
	FragmentModule vk.ShaderModule
}

// ShaderPrograms is a name-keyed registry of compiled ShaderProgram pairs,
// built once per material and reused across pipeline (re)creation.
type ShaderPrograms struct {
	device   vk.Device
	programs map[string]*ShaderProgram
}

// NewShaderPrograms constructs an empty registry bound to device.
func NewShaderPrograms(device vk.Device) *ShaderPrograms {
	return &ShaderPrograms{device: device, programs: make(map[string]*ShaderProgram)}
}

// Build compiles vertexSPIRV/fragmentSPIRV into a named ShaderProgram. SPIR-V
// is supplied as the []uint32 word sequence resource.Shader already holds;
// this module never reads from disk -- that's the resource cache's job.
func (p *ShaderPrograms) Build(name string, vertexSPIRV, fragmentSPIRV []uint32) (*ShaderProgram, error) {
	vMod, err := LoadShaderModule(p.device, uint32sToBytes(vertexSPIRV))
	if err != nil {
		return nil, err
	}
	fMod, err := LoadShaderModule(p.device, uint32sToBytes(fragmentSPIRV))
	if err != nil {
		vk.DestroyShaderModule(p.device, vMod, nil)
		return nil, err
	}
	pg := &ShaderProgram{VertexModule: vMod, FragmentModule: fMod}
	p.programs[name] = pg
	return pg, nil
}

// Get returns a previously built program by name.
func (p *ShaderPrograms) Get(name string) (*ShaderProgram, bool) {
	pg, ok := p.programs[name]
	return pg, ok
}

// Rebuild destroys any existing program registered under name, then builds
// and registers its replacement. Called whenever a material's structural
// Version advances, since the shaders attached to it may have changed.
func (p *ShaderPrograms) Rebuild(name string, vertexSPIRV, fragmentSPIRV []uint32) (*ShaderProgram, error) {
	if old, ok := p.programs[name]; ok {
		vk.DestroyShaderModule(p.device, old.VertexModule, nil)
		vk.DestroyShaderModule(p.device, old.FragmentModule, nil)
		delete(p.programs, name)
	}
	return p.Build(name, vertexSPIRV, fragmentSPIRV)
}

// Destroy releases every compiled module in the registry.
func (p *ShaderPrograms) Destroy() {
	for _, pg := range p.programs {
		vk.DestroyShaderModule(p.device, pg.VertexModule, nil)
		vk.DestroyShaderModule(p.device, pg.FragmentModule, nil)
	}
	p.programs = make(map[string]*ShaderProgram)
}

func uint32sToBytes(words []uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}
