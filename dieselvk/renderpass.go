package dieselvk

import (
	"github.com/andewx/dieselvk/asche"
	vk "github.com/vulkan-go/vulkan"
)

// CoreRenderPass wraps the single renderpass the frame loop uses: one color
// attachment cleared to the swapchain's surface format, one depth attachment
// cleared and discarded (never read back after the subpass).
type CoreRenderPass struct {
	device     vk.Device
	RenderPass vk.RenderPass
}

// NewCoreRenderPass builds the color+depth renderpass. The depth attachment
// uses StoreOp DontCare since nothing outside the subpass reads it back, and
// there is exactly one subpass dependency (EXTERNAL -> 0) -- a trailing
// 0 -> EXTERNAL dependency buys nothing when the only consumer of the color
// output is the presentation engine, which already synchronizes via the
// per-frame semaphore.
func NewCoreRenderPass(device vk.Device, colorFormat, depthFormat vk.Format) (*CoreRenderPass, error) {
	attachments := []vk.AttachmentDescription{
		{
			Format:         colorFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         depthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}

	colorRef := vk.AttachmentReference{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal}
	depthRef := vk.AttachmentReference{Attachment: 1, Layout: vk.ImageLayoutDepthStencilAttachmentOptimal}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    1,
		PColorAttachments:       []vk.AttachmentReference{colorRef},
		PDepthStencilAttachment: &depthRef,
	}

	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.MaxUint32,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit) | vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	}

	var handle vk.RenderPass
	ret := vk.CreateRenderPass(device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}, nil, &handle)
	if err := asche.CheckResult(ret, "CreateRenderPass"); err != nil {
		return nil, err
	}
	return &CoreRenderPass{device: device, RenderPass: handle}, nil
}

// Destroy releases the renderpass.
func (c *CoreRenderPass) Destroy() {
	vk.DestroyRenderPass(c.device, c.RenderPass, nil)
}
