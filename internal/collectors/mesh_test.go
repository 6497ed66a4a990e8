package collectors

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/ecs"
	"github.com/andewx/dieselvk/internal/resource"
)

func newTestMeshRef(t *testing.T, log *diag.Logger) *resource.Ref[resource.Mesh] {
	t.Helper()
	cache := resource.NewCache(resource.NewMeshLoader(), log)
	return cache.Load("no-such-mesh.msh")
}

func cubeVertices() []resource.Vertex {
	v := make([]resource.Vertex, 8)
	for i := range v {
		v[i].Pos = [3]float32{float32(i), float32(i), float32(i)}
	}
	return v
}

// TestMeshCollectorReuploadsOnSubVersionAdvance exercises the mesh
// collector's version comparison: an upload happens once per distinct
// vertices/indices version pair, and never again once the shadow component
// has caught up.
func TestMeshCollectorReuploadsOnSubVersionAdvance(t *testing.T) {
	log := diag.NewDiscard()
	world := ecs.NewWorld(log)
	stores := NewStores(world, log)
	gpu := newFakeGPU()
	collector := NewMeshCollector(stores, gpu, log)

	meshRef := newTestMeshRef(t, log)
	mesh := meshRef.Get()
	require.NotNil(t, mesh)
	mesh.SetVertices(cubeVertices())
	mesh.SetIndices([]uint16{0, 1, 2, 2, 3, 0})

	entity := world.NewEntity()
	stores.Mesh.AddTo(entity, MeshComponent{Mesh: meshRef})

	collector.Update()
	require.Equal(t, 1, gpu.vertexUploads)
	require.Equal(t, 1, gpu.indexUploads)

	dst, ok := stores.MeshResources.OwnedBy(entity)
	require.True(t, ok)
	require.True(t, dst.Uploaded)
	require.EqualValues(t, 6, dst.IndexCount)

	// No version change: a second Update must not re-upload.
	collector.Update()
	require.Equal(t, 1, gpu.vertexUploads)
	require.Equal(t, 1, gpu.indexUploads)

	// Only indices change: both buffers are re-uploaded together, since the
	// collector re-creates both allocations as a pair on any sub-version
	// advance.
	mesh.SetIndices([]uint16{0, 1, 2})
	collector.Update()
	require.Equal(t, 2, gpu.vertexUploads)
	require.Equal(t, 2, gpu.indexUploads)
	require.Equal(t, 1, gpu.vertexFrees)
	require.Equal(t, 1, gpu.indexFrees)

	dst, ok = stores.MeshResources.OwnedBy(entity)
	require.True(t, ok)
	require.EqualValues(t, 3, dst.IndexCount)
}

// TestMeshCollectorFreesOnRemoval checks the lifecycle side: removing the
// logical MeshComponent frees the GPU allocations it had built.
func TestMeshCollectorFreesOnRemoval(t *testing.T) {
	log := diag.NewDiscard()
	world := ecs.NewWorld(log)
	stores := NewStores(world, log)
	gpu := newFakeGPU()
	collector := NewMeshCollector(stores, gpu, log)
	meshRef := newTestMeshRef(t, log)
	mesh := meshRef.Get()
	mesh.SetVertices(cubeVertices())
	mesh.SetIndices([]uint16{0, 1, 2})

	entity := world.NewEntity()
	stores.Mesh.AddTo(entity, MeshComponent{Mesh: meshRef})
	collector.Update()
	require.Equal(t, 1, gpu.vertexUploads)

	world.DestroyEntity(entity)
	require.Equal(t, 1, gpu.vertexFrees)
	require.Equal(t, 1, gpu.indexFrees)
}
