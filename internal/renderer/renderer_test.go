package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andewx/dieselvk/dieselvk"
	"github.com/andewx/dieselvk/internal/collectors"
	"github.com/andewx/dieselvk/internal/diag"
	"github.com/andewx/dieselvk/internal/ecs"
)

// fakeSurface scripts BeginFrame outcomes per call so the out-of-date path
// can be driven without a device: staleFrames counts down before frames
// start succeeding.
type fakeSurface struct {
	staleFrames int

	begins  int
	ends    int
	resizes int
}

func (f *fakeSurface) BeginFrame() (dieselvk.Frame, bool, error) {
	f.begins++
	if f.staleFrames > 0 {
		f.staleFrames--
		return dieselvk.Frame{}, false, nil
	}
	return dieselvk.Frame{}, true, nil
}

func (f *fakeSurface) EndFrame() (bool, error) { f.ends++; return true, nil }
func (f *fakeSurface) Resize() error           { f.resizes++; return nil }

// TestDrawFrameSkipsSubmitOnStaleSwapchain covers the out-of-date scenario:
// a stale acquire must not record or submit anything that frame, must run
// the resize path once, and the next frame must submit normally.
func TestDrawFrameSkipsSubmitOnStaleSwapchain(t *testing.T) {
	log := diag.NewDiscard()
	world := ecs.NewWorld(log)
	stores := collectors.NewStores(world, log)
	surface := &fakeSurface{staleFrames: 1}
	r := New(surface, nil, stores, log)

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 1, surface.begins)
	assert.Equal(t, 0, surface.ends, "stale frame must not submit")
	assert.Equal(t, 1, surface.resizes)

	require.NoError(t, r.DrawFrame())
	assert.Equal(t, 2, surface.begins)
	assert.Equal(t, 1, surface.ends, "next frame submits normally")
	assert.Equal(t, 1, surface.resizes)
}
