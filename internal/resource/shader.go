package resource

import (
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/file"
)

// Stage identifies a shader's pipeline stage.
type Stage byte

const (
	Vertex   Stage = 'v'
	Fragment Stage = 'f'
)

// Shader holds GLSL source and, optionally, compiled SPIR-V words. SPIR-V is
// invalidated whenever GLSL is reassigned, since it no longer reflects the
// current source.
type Shader struct {
	Header

	StageKind Stage
	GLSL      string
	SPIRV     []uint32
	hasSPIRV  bool
	Version   VersionID
}

// SetGLSL replaces the source text, invalidates any compiled SPIR-V, and
// bumps Version.
func (s *Shader) SetGLSL(src string) {
	s.GLSL = src
	s.SPIRV = nil
	s.hasSPIRV = false
	s.Version.Bump()
}

// SetSPIRV attaches compiled words for the current GLSL and bumps Version.
func (s *Shader) SetSPIRV(words []uint32) {
	s.SPIRV = words
	s.hasSPIRV = len(words) > 0
	s.Version.Bump()
}

// HasGLSL reports whether source text is present.
func (s *Shader) HasGLSL() bool { return s.GLSL != "" }

// HasSPIRV reports whether compiled words are present and still valid.
func (s *Shader) HasSPIRV() bool { return s.hasSPIRV }

// WriteData serializes: stage:u8, glsl:string, has_spirv:u8, [sequence<u32>].
func (s *Shader) WriteData(f *file.File) {
	f.WriteU8(byte(s.StageKind))
	f.WriteString(s.GLSL)
	if s.hasSPIRV {
		f.WriteU8(1)
		f.WriteU32(uint32(len(s.SPIRV)))
		for _, w := range s.SPIRV {
			f.WriteU32(w)
		}
	} else {
		f.WriteU8(0)
	}
}

// ReadData deserializes the payload written by WriteData.
func (s *Shader) ReadData(f *file.File) {
	s.StageKind = Stage(f.ReadU8())
	s.GLSL = f.ReadString()
	if f.ReadU8() != 0 {
		n := f.ReadU32()
		words := make([]uint32, n)
		for i := range words {
			words[i] = f.ReadU32()
		}
		s.SPIRV = words
		s.hasSPIRV = true
	} else {
		s.SPIRV = nil
		s.hasSPIRV = false
	}
	s.Version.Bump()
}

type shaderLoader struct{}

// NewShaderLoader returns the Loader used to build a Cache[Shader].
func NewShaderLoader() Loader[Shader] { return shaderLoader{} }

func (shaderLoader) New() *Shader { return &Shader{Header: Header{id: NewID()}} }

func (shaderLoader) ForceReload(sh *Shader, path string, log *diag.Logger) error {
	f := file.Open(path, file.Read, logAdapter(log))
	defer f.Close()
	sh.ReadData(f)
	return f.Err()
}
