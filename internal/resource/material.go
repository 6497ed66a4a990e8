package resource

import (
	"github.com/andewx/dieselvk/asche"
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/file"
	lin "github.com/xlab/linmath"
)

// Uniforms is the fixed uniform block every Material carries: world, view,
// and projection matrices, each flattened column-major (linmath's native
// layout, which is also what a std140 mat4 expects) into 16 floats.
type Uniforms struct {
	World      [16]float32
	View       [16]float32
	Projection [16]float32
}

// ComposeUniforms builds a Uniforms block the way the original source's
// camera system did: world is the model's placement, eye/center/up define
// the view via linmath's LookAt, and fovy/aspect/near/far build a GL-style
// perspective projection that asche.VulkanProjectionMat then corrects for
// Vulkan's flipped-Y, [0,1]-depth clip space.
func ComposeUniforms(world lin.Mat4x4, eye, center, up lin.Vec3, fovy, aspect, near, far float32) Uniforms {
	var view, proj, vkProj lin.Mat4x4
	view.LookAt(&eye, &center, &up)
	proj.Perspective(fovy, aspect, near, far)
	asche.VulkanProjectionMat(&vkProj, &proj)

	var u Uniforms
	asche.FlattenMat4(&world, &u.World)
	asche.FlattenMat4(&view, &u.View)
	asche.FlattenMat4(&vkProj, &u.Projection)
	return u
}

// Material names a pair of shaders plus the uniform payload bound alongside
// them. version tracks structural changes (which shaders are attached);
// uniformsVersion tracks only the uniform payload, so a collector can tell
// "needs a full pipeline recreate" apart from "just needs a buffer
// transfer" -- recovered from vulkan_ecs/public/vulkan_material_resources.hpp,
// which tracks both independently against the same logical Material.
type Material struct {
	Header

	Name string

	VertexShaderPath   string // "" => embedded inline on next WriteData
	FragmentShaderPath string

	VertexShader   *Shader
	FragmentShader *Shader

	Uniforms Uniforms

	Version         VersionID
	UniformsVersion VersionID
}

// SetShaders attaches the material's two shader stages and bumps Version.
func (m *Material) SetShaders(vertex, fragment *Shader) {
	m.VertexShader = vertex
	m.FragmentShader = fragment
	m.Version.Bump()
}

// SetUniforms replaces the uniform payload and bumps UniformsVersion only
// -- this must never touch Version, since a uniform-only change should
// drive a buffer transfer, not a pipeline recreate.
func (m *Material) SetUniforms(u Uniforms) {
	m.Uniforms = u
	m.UniformsVersion.Bump()
}

// WriteData serializes: name:string, vertex_shader:sub_resource,
// fragment_shader:sub_resource, uniforms:{world,view,projection}.
func (m *Material) WriteData(f *file.File) {
	f.WriteString(m.Name)
	writeShaderSubResource(f, m.VertexShaderPath, m.VertexShader)
	writeShaderSubResource(f, m.FragmentShaderPath, m.FragmentShader)
	f.WriteF32Slice(m.Uniforms.World[:])
	f.WriteF32Slice(m.Uniforms.View[:])
	f.WriteF32Slice(m.Uniforms.Projection[:])
}

func writeShaderSubResource(f *file.File, path string, sh *Shader) {
	if path != "" {
		f.WriteSubResourceExternal(path)
		return
	}
	f.WriteSubResourceInline(func(inner *file.File) { sh.WriteData(inner) })
}

// ReadData deserializes the payload written by WriteData. External shader
// sub-resources are recorded by path only; the caller is responsible for
// resolving them through a resource.Cache[Shader].
func (m *Material) ReadData(f *file.File) {
	m.Name = f.ReadString()
	m.VertexShaderPath, m.VertexShader = readShaderSubResource(f)
	m.FragmentShaderPath, m.FragmentShader = readShaderSubResource(f)
	copy(m.Uniforms.World[:], f.ReadF32Slice(16))
	copy(m.Uniforms.View[:], f.ReadF32Slice(16))
	copy(m.Uniforms.Projection[:], f.ReadF32Slice(16))
	m.Version.Bump()
}

func readShaderSubResource(f *file.File) (path string, sh *Shader) {
	switch f.ReadSubResourceTag() {
	case file.External:
		return f.ReadString(), nil
	default: // file.Internal
		sh = &Shader{Header: Header{id: NewID()}}
		sh.ReadData(f)
		return "", sh
	}
}

type materialLoader struct{}

// NewMaterialLoader returns the Loader used to build a Cache[Material].
func NewMaterialLoader() Loader[Material] { return materialLoader{} }

func (materialLoader) New() *Material { return &Material{Header: Header{id: NewID()}} }

func (materialLoader) ForceReload(m *Material, path string, log *diag.Logger) error {
	f := file.Open(path, file.Read, logAdapter(log))
	defer f.Close()
	m.ReadData(f)
	return f.Err()
}
