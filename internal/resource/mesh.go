package resource

import (
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/file"
)

// Vertex is the engine's single fixed vertex layout: position, normal,
// color, and a UV coordinate, 48 bytes packed in declaration order.
type Vertex struct {
	Pos    [3]float32
	Normal [3]float32
	Color  [4]float32
	UV     [2]float32
}

// VertexByteSize is the packed on-disk size of one Vertex.
const VertexByteSize = (3 + 3 + 4 + 2) * 4

// Mesh holds vertex and index data. Per the source's per-subfield
// versioning (recovered from graphics/public/mesh.hpp), vertices and
// indices each carry their own VersionID so collectors can independently
// detect which half changed.
type Mesh struct {
	Header

	Vertices        []Vertex
	VerticesVersion VersionID

	Indices        []uint16
	IndicesVersion VersionID
}

// SetVertices replaces the vertex buffer and bumps VerticesVersion.
func (m *Mesh) SetVertices(v []Vertex) {
	m.Vertices = v
	m.VerticesVersion.Bump()
}

// SetIndices replaces the index buffer and bumps IndicesVersion.
func (m *Mesh) SetIndices(i []uint16) {
	m.Indices = i
	m.IndicesVersion.Bump()
}

// WriteData serializes the mesh payload: sequence<vertex>, sequence<u16>.
func (m *Mesh) WriteData(f *file.File) {
	f.WriteU32(uint32(len(m.Vertices)))
	for _, v := range m.Vertices {
		f.WriteF32Slice(v.Pos[:])
		f.WriteF32Slice(v.Normal[:])
		f.WriteF32Slice(v.Color[:])
		f.WriteF32Slice(v.UV[:])
	}
	f.WriteU16Seq(m.Indices)
}

// ReadData deserializes the mesh payload written by WriteData.
func (m *Mesh) ReadData(f *file.File) {
	n := f.ReadU32()
	verts := make([]Vertex, n)
	for i := range verts {
		copy(verts[i].Pos[:], f.ReadF32Slice(3))
		copy(verts[i].Normal[:], f.ReadF32Slice(3))
		copy(verts[i].Color[:], f.ReadF32Slice(4))
		copy(verts[i].UV[:], f.ReadF32Slice(2))
	}
	m.Vertices = verts
	m.VerticesVersion.Bump()
	m.Indices = f.ReadU16Seq()
	m.IndicesVersion.Bump()
}

// meshLoader adapts Mesh to resource.Cache.
type meshLoader struct{}

// NewMeshLoader returns the Loader used to build a Cache[Mesh].
func NewMeshLoader() Loader[Mesh] { return meshLoader{} }

func (meshLoader) New() *Mesh { return &Mesh{Header: Header{id: NewID()}} }

func (meshLoader) ForceReload(m *Mesh, path string, log *diag.Logger) error {
	f := file.Open(path, file.Read, logAdapter(log))
	defer f.Close()
	m.ReadData(f)
	return f.Err()
}

func logAdapter(log *diag.Logger) func(string, ...any) {
	if log == nil {
		return nil
	}
	return log.IO
}
