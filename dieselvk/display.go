package dieselvk

import (
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

// CoreDisplay wraps a GLFW window and the Vulkan surface bound to it.
type CoreDisplay struct {
	Window        *glfw.Window
	Extent        vk.Extent2D
	SurfaceFormat vk.SurfaceFormat
	DepthFormat   vk.Format
	Surface       vk.Surface
}

// NewCoreDisplay wraps window; the Vulkan surface is created separately
// once the instance exists, via CreateSurface.
func NewCoreDisplay(window *glfw.Window) *CoreDisplay {
	return &CoreDisplay{Window: window}
}

// CreateSurface creates and caches the window's Vulkan surface against
// instance. Safe to call once; later calls return the cached surface.
func (c *CoreDisplay) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	if c.Surface != vk.NullSurface && c.Surface != nil {
		return c.Surface, nil
	}
	ptr, err := c.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	c.Surface = vk.SurfaceFromPointer(ptr)
	return c.Surface, nil
}

// Size returns the window's current framebuffer size in pixels (which on
// high-DPI displays differs from the window's screen-coordinate size).
func (c *CoreDisplay) Size() (int, int) {
	return c.Window.GetFramebufferSize()
}
