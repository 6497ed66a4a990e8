package test

import (
	"runtime"
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"

	"github.com/andewx/dieselvk/asche"
	"github.com/andewx/dieselvk/dieselvk"
	"github.com/andewx/dieselvk/internal/diag"
)

const (
	width  = 500
	height = 500
)

// testApp is the minimal asche.Application a manual render smoke test
// needs: validation on, instance extensions supplied by glfw once a window
// exists.
type testApp struct {
	asche.BaseVulkanApp
	extensions []string
}

func (a *testApp) VulkanAppName() string              { return "dieselvk-test" }
func (a *testApp) VulkanDebug() bool                  { return true }
func (a *testApp) VulkanInstanceExtensions() []string { return a.extensions }

// TestRender is a manual smoke test: it opens a real window and drives a
// few frames through the full device/window/frame-loop stack. It requires
// a real GPU and windowing environment, so the t.Skip below keeps it out of
// every run; remove that line to run it with -run TestRender -v against a
// machine that has both.
func TestRender(t *testing.T) {
	t.Skip("manual GPU/windowing smoke test, not part of the unit test suite")

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		t.Fatalf("glfw init: %v", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.Visible, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		t.Fatalf("vulkan init: %v", err)
	}

	window, err := glfw.CreateWindow(width, height, "dieselvk-test", nil, nil)
	if err != nil {
		t.Fatalf("glfw create window: %v", err)
	}

	log := diag.NewDiscard()
	app := &testApp{extensions: window.GetRequiredInstanceExtensions()}
	instance, debugCallback, err := asche.CreateInstance(app, log)
	if err != nil {
		t.Fatalf("create instance: %v", err)
	}
	defer asche.DestroyInstance(instance, debugCallback)

	display := dieselvk.NewCoreDisplay(window)
	surface, err := display.CreateSurface(instance)
	if err != nil {
		t.Fatalf("create surface: %v", err)
	}

	device, err := dieselvk.NewCoreDevice(instance, dieselvk.DeviceRequirements{
		RequiredExtensions: []string{"VK_KHR_swapchain"},
		Surface:            &surface,
	}, log)
	if err != nil {
		t.Fatalf("create device: %v", err)
	}
	defer device.Destroy()

	win, err := dieselvk.NewWindow(device, display)
	if err != nil {
		t.Fatalf("create window: %v", err)
	}
	defer win.Destroy()

	for frame := 0; frame < 3 && !window.ShouldClose(); frame++ {
		glfw.PollEvents()
		f, ok, err := win.BeginFrame()
		if err != nil {
			t.Fatalf("begin frame: %v", err)
		}
		if !ok {
			if err := win.Resize(); err != nil {
				t.Fatalf("resize: %v", err)
			}
			continue
		}
		_ = f.Command
		if _, err := win.EndFrame(); err != nil {
			t.Fatalf("end frame: %v", err)
		}
	}
}
