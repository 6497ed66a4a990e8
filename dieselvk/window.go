package dieselvk

import (
	"github.com/andewx/dieselvk/asche"
	vk "github.com/vulkan-go/vulkan"
)

// MaxFramesInFlight bounds how many frames may be queued to the GPU at
// once.
const MaxFramesInFlight = 2

// Window owns the swapchain, depth buffer, render pass, framebuffers, and
// the per-frame synchronization objects the frame loop cycles through. It
// is the concrete realization of the window surface module: CreateSurface
// (via the CoreDisplay it wraps) plus everything initialize() builds.
type Window struct {
	device *CoreDevice
	queue  vk.Queue

	display    *CoreDisplay
	swapchain  *Swapchain
	depth      *DepthImage
	renderPass *CoreRenderPass

	framebuffers   []vk.Framebuffer
	commandBuffers []vk.CommandBuffer

	imageAvailable [MaxFramesInFlight]vk.Semaphore
	renderFinished [MaxFramesInFlight]vk.Semaphore
	inFlight       [MaxFramesInFlight]vk.Fence

	currentFrame int
	imageIndex   uint32
}

// NewWindow builds the full swapchain/renderpass/framebuffer/sync set for
// display, whose surface must already be bound to device's physical device
// (the same surface used in DeviceRequirements during device selection).
func NewWindow(device *CoreDevice, display *CoreDisplay) (*Window, error) {
	w := &Window{device: device, display: display}
	queue, _ := device.GraphicsQueue()
	w.queue = queue

	if err := w.build(vk.NullSwapchain); err != nil {
		return nil, err
	}

	for i := 0; i < MaxFramesInFlight; i++ {
		if err := asche.CheckResult(vk.CreateSemaphore(device.Handle(), &vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}, nil, &w.imageAvailable[i]), "CreateSemaphore"); err != nil {
			return nil, err
		}
		if err := asche.CheckResult(vk.CreateSemaphore(device.Handle(), &vk.SemaphoreCreateInfo{
			SType: vk.StructureTypeSemaphoreCreateInfo,
		}, nil, &w.renderFinished[i]), "CreateSemaphore"); err != nil {
			return nil, err
		}
		if err := asche.CheckResult(vk.CreateFence(device.Handle(), &vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
			Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
		}, nil, &w.inFlight[i]), "CreateFence"); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// build (re)creates the swapchain-dependent chain: swapchain, depth image,
// render pass, framebuffers, and one command buffer per swapchain image.
func (w *Window) build(old vk.Swapchain) error {
	width, height := w.display.Size()
	swapchain, err := NewSwapchain(w.device.Handle(), w.device.PhysicalDevice(), w.display.Surface, uint32(width), uint32(height), old)
	if err != nil {
		return err
	}
	w.swapchain = swapchain
	w.display.Extent = swapchain.Extent
	w.display.SurfaceFormat = swapchain.Format
	w.display.DepthFormat = swapchain.DepthFormat

	depth, err := NewDepthImage(w.device.Handle(), w.device.MemoryProperties(), swapchain.DepthFormat, swapchain.Extent)
	if err != nil {
		return err
	}
	w.depth = depth

	renderPass, err := NewCoreRenderPass(w.device.Handle(), swapchain.Format.Format, swapchain.DepthFormat)
	if err != nil {
		return err
	}
	w.renderPass = renderPass

	w.framebuffers = make([]vk.Framebuffer, len(swapchain.ImageViews))
	for i, view := range swapchain.ImageViews {
		attachments := []vk.ImageView{view, depth.View}
		var fb vk.Framebuffer
		ret := vk.CreateFramebuffer(w.device.Handle(), &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      renderPass.RenderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           swapchain.Extent.Width,
			Height:          swapchain.Extent.Height,
			Layers:          1,
		}, nil, &fb)
		if err := asche.CheckResult(ret, "CreateFramebuffer"); err != nil {
			return err
		}
		w.framebuffers[i] = fb
	}

	w.commandBuffers = make([]vk.CommandBuffer, len(swapchain.Images))
	ret := vk.AllocateCommandBuffers(w.device.Handle(), &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        w.device.MainPool.Handle(),
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(len(w.commandBuffers)),
	}, w.commandBuffers)
	return asche.CheckResult(ret, "AllocateCommandBuffers")
}

func (w *Window) destroySwapchainChain() {
	for _, fb := range w.framebuffers {
		vk.DestroyFramebuffer(w.device.Handle(), fb, nil)
	}
	w.renderPass.Destroy()
	w.depth.Destroy()
	w.swapchain.Destroy()
}

// Resize waits for the device to idle, tears down the swapchain-dependent
// chain, and rebuilds it against the window's current size.
func (w *Window) Resize() error {
	if err := w.device.WaitIdle(); err != nil {
		return err
	}
	old := w.swapchain.Handle
	w.renderPass.Destroy()
	w.depth.Destroy()
	for _, fb := range w.framebuffers {
		vk.DestroyFramebuffer(w.device.Handle(), fb, nil)
	}
	for _, v := range w.swapchain.ImageViews {
		vk.DestroyImageView(w.device.Handle(), v, nil)
	}
	return w.build(old)
}

// Frame is the in-progress state BeginFrame hands to the renderer system
// (C11): the command buffer to record into and the acquired image's
// framebuffer.
type Frame struct {
	Command     vk.CommandBuffer
	Framebuffer vk.Framebuffer
	Extent      vk.Extent2D
}

// BeginFrame waits on the current frame's fence, acquires the next
// swapchain image, resets its fence, and begins that image's command
// buffer. Returns ok=false (no error) when the swapchain is stale and a
// Resize is required before rendering resumes.
func (w *Window) BeginFrame() (Frame, bool, error) {
	fence := w.inFlight[w.currentFrame]
	if err := asche.CheckResult(vk.WaitForFences(w.device.Handle(), 1, []vk.Fence{fence}, vk.True, vk.MaxUint64), "WaitForFences"); err != nil {
		return Frame{}, false, err
	}

	var imageIndex uint32
	ret := vk.AcquireNextImage(w.device.Handle(), w.swapchain.Handle, vk.MaxUint64, w.imageAvailable[w.currentFrame], vk.NullFence, &imageIndex)
	if asche.IsStale(asche.CheckResult(ret, "AcquireNextImage")) {
		return Frame{}, false, nil
	}
	if err := asche.CheckResult(ret, "AcquireNextImage"); err != nil {
		return Frame{}, false, err
	}
	w.imageIndex = imageIndex

	vk.ResetFences(w.device.Handle(), 1, []vk.Fence{fence})

	cmd := w.commandBuffers[imageIndex]
	vk.ResetCommandBuffer(cmd, vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit))
	if err := asche.CheckResult(vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
	}), "BeginCommandBuffer"); err != nil {
		return Frame{}, false, err
	}

	clearValues := []vk.ClearValue{
		vk.NewClearValue([]float32{0.02, 0.02, 0.03, 1.0}),
		vk.NewClearDepthStencil(1.0, 0),
	}
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      w.renderPass.RenderPass,
		Framebuffer:     w.framebuffers[imageIndex],
		RenderArea:      vk.Rect2D{Extent: w.swapchain.Extent},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)

	viewport := vk.Viewport{Width: float32(w.swapchain.Extent.Width), Height: float32(w.swapchain.Extent.Height), MinDepth: 0, MaxDepth: 1}
	scissor := vk.Rect2D{Extent: w.swapchain.Extent}
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissor})

	return Frame{Command: cmd, Framebuffer: w.framebuffers[imageIndex], Extent: w.swapchain.Extent}, true, nil
}

// EndFrame ends the render pass and command buffer, submits it, presents
// the image, and advances the frame index. ok=false signals the caller
// should Resize before the next BeginFrame.
func (w *Window) EndFrame() (bool, error) {
	cmd := w.commandBuffers[w.imageIndex]
	vk.CmdEndRenderPass(cmd)
	if err := asche.CheckResult(vk.EndCommandBuffer(cmd), "EndCommandBuffer"); err != nil {
		return false, err
	}

	waitStages := []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)}
	ret := vk.QueueSubmit(w.queue, 1, []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{w.imageAvailable[w.currentFrame]},
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{cmd},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{w.renderFinished[w.currentFrame]},
	}}, w.inFlight[w.currentFrame])
	if err := asche.CheckResult(ret, "QueueSubmit"); err != nil {
		return false, err
	}

	presentRet := vk.QueuePresent(w.queue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{w.renderFinished[w.currentFrame]},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{w.swapchain.Handle},
		PImageIndices:      []uint32{w.imageIndex},
	})
	w.currentFrame = (w.currentFrame + 1) % MaxFramesInFlight

	if asche.IsStale(asche.CheckResult(presentRet, "QueuePresent")) {
		return false, nil
	}
	return true, asche.CheckResult(presentRet, "QueuePresent")
}

// RenderPass exposes the render pass pipelines must be built against.
func (w *Window) RenderPass() vk.RenderPass { return w.renderPass.RenderPass }

// Extent returns the current swapchain extent.
func (w *Window) Extent() vk.Extent2D { return w.swapchain.Extent }

// Destroy tears down every owned object. The device itself outlives the
// window and is not touched here.
func (w *Window) Destroy() {
	w.device.WaitIdle()
	for i := 0; i < MaxFramesInFlight; i++ {
		vk.DestroySemaphore(w.device.Handle(), w.imageAvailable[i], nil)
		vk.DestroySemaphore(w.device.Handle(), w.renderFinished[i], nil)
		vk.DestroyFence(w.device.Handle(), w.inFlight[i], nil)
	}
	w.destroySwapchainChain()
	if w.display.Surface != vk.NullSurface {
		vk.DestroySurface(w.device.Instance(), w.display.Surface, nil)
	}
}
