package dieselvk

import (
	"github.com/andewx/dieselvk/asche"
	vk "github.com/vulkan-go/vulkan"
)

// DepthImage is the window surface's single depth-stencil attachment,
// recreated alongside the swapchain on every resize. Texture/image loading
// beyond this is out of scope.
type DepthImage struct {
	device vk.Device
	Image  vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
}

// NewDepthImage allocates a depth image sized to extent in format, backed by
// device-local memory.
func NewDepthImage(device vk.Device, memProps vk.PhysicalDeviceMemoryProperties, format vk.Format, extent vk.Extent2D) (*DepthImage, error) {
	var image vk.Image
	ret := vk.CreateImage(device, &vk.ImageCreateInfo{
		SType:       vk.StructureTypeImageCreateInfo,
		ImageType:   vk.ImageType2d,
		Format:      format,
		Extent:      vk.Extent3D{Width: extent.Width, Height: extent.Height, Depth: 1},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &image)
	if err := asche.CheckResult(ret, "CreateImage"); err != nil {
		return nil, err
	}

	var memReqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, image, &memReqs)
	memReqs.Deref()

	memType, ok := FindMemoryType(memProps, memReqs.MemoryTypeBits, vk.MemoryPropertyDeviceLocalBit)
	if !ok {
		vk.DestroyImage(device, image, nil)
		return nil, errNoMemoryType
	}

	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memReqs.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if err := asche.CheckResult(ret, "AllocateMemory"); err != nil {
		vk.DestroyImage(device, image, nil)
		return nil, err
	}
	vk.BindImageMemory(device, image, memory, 0)

	var view vk.ImageView
	ret = vk.CreateImageView(device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectDepthBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if err := asche.CheckResult(ret, "CreateImageView"); err != nil {
		vk.FreeMemory(device, memory, nil)
		vk.DestroyImage(device, image, nil)
		return nil, err
	}

	return &DepthImage{device: device, Image: image, Memory: memory, View: view}, nil
}

// Destroy releases the view, image, and backing memory.
func (d *DepthImage) Destroy() {
	vk.DestroyImageView(d.device, d.View, nil)
	vk.DestroyImage(d.device, d.Image, nil)
	vk.FreeMemory(d.device, d.Memory, nil)
}
