package resource

import (
	"path/filepath"
	"testing"

	"github.com/andewx/dieselvk/internal/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cube() (vertices []Vertex, indices []uint16) {
	for i := 0; i < 24; i++ {
		v := Vertex{
			Pos:    [3]float32{float32(i), float32(i) * 2, float32(i) * 3},
			Normal: [3]float32{0, 1, 0},
			Color:  [4]float32{1, 1, 1, 1},
			UV:     [2]float32{0.5, 0.5},
		}
		vertices = append(vertices, v)
	}
	for i := 0; i < 36; i++ {
		indices = append(indices, uint16(i%24))
	}
	return vertices, indices
}

func writeMesh(path string, m *Mesh) error {
	f := file.Open(path, file.Write, nil)
	defer f.Close()
	m.WriteData(f)
	return f.Err()
}

// TestMeshRoundTrip covers scenario S4: build a 24-vertex cube with 36
// indices, write it, reopen, read, and assert equal by value.
func TestMeshRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube.mesh")

	verts, idx := cube()
	m := &Mesh{Header: Header{id: NewID()}}
	m.SetVertices(verts)
	m.SetIndices(idx)
	require.NoError(t, writeMesh(path, m))

	loader := NewMeshLoader()
	loaded := loader.New()
	require.NoError(t, loader.ForceReload(loaded, path, nil))

	assert.Equal(t, m.Vertices, loaded.Vertices)
	assert.Equal(t, m.Indices, loaded.Indices)
}

func TestCacheLoadIsIdempotentAndEvictsAtZeroRefs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube.mesh")
	verts, idx := cube()
	seed := &Mesh{Header: Header{id: NewID()}}
	seed.SetVertices(verts)
	seed.SetIndices(idx)
	require.NoError(t, writeMesh(path, seed))

	cache := NewCache(NewMeshLoader(), nil)

	r1 := cache.Load(path)
	r2 := cache.Load(path)
	assert.Same(t, r1.Get(), r2.Get(), "two loads of the same path must share one instance")
	assert.Equal(t, 1, cache.Len())

	var evictedPath string
	cache.OnEvicted(func(p string) { evictedPath = p })

	r1.Release()
	assert.Equal(t, 1, cache.Len(), "still one outstanding reference")
	assert.Empty(t, evictedPath)

	r2.Release()
	assert.Equal(t, 0, cache.Len())
	assert.Equal(t, path, evictedPath)
}

func TestMaterialUniformsVersusStructuralVersion(t *testing.T) {
	m := &Material{Header: Header{id: NewID()}}
	v0, uv0 := m.Version, m.UniformsVersion

	m.SetUniforms(Uniforms{World: [16]float32{1}})
	assert.Equal(t, v0, m.Version, "uniform-only change must not bump structural version")
	assert.NotEqual(t, uv0, m.UniformsVersion)

	vs := &Shader{Header: Header{id: NewID()}, StageKind: Vertex}
	fs := &Shader{Header: Header{id: NewID()}, StageKind: Fragment}
	m.SetShaders(vs, fs)
	assert.NotEqual(t, v0, m.Version, "attaching shaders must bump structural version")
}

func TestShaderSPIRVInvalidatedOnGLSLReassign(t *testing.T) {
	s := &Shader{Header: Header{id: NewID()}, StageKind: Fragment}
	s.SetGLSL("void main(){}")
	s.SetSPIRV([]uint32{1, 2, 3})
	assert.True(t, s.HasSPIRV())

	s.SetGLSL("void main(){ /* changed */ }")
	assert.False(t, s.HasSPIRV())
	assert.Nil(t, s.SPIRV)
}
