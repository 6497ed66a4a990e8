package dieselvk

import (
	"github.com/andewx/dieselvk/asche"
	vk "github.com/vulkan-go/vulkan"
)

// depthFormatPriority is the precision-descending search order for picking
// a supported depth format, since not every format is guaranteed available.
var depthFormatPriority = []vk.Format{
	vk.FormatD32SfloatS8Uint,
	vk.FormatD32Sfloat,
	vk.FormatD24UnormS8Uint,
	vk.FormatD16UnormS8Uint,
	vk.FormatD16Unorm,
}

// chooseSurfaceFormat prefers B8G8R8A8Unorm+SrgbNonlinear, falling back to
// the first format the surface reports.
func chooseSurfaceFormat(gpu vk.PhysicalDevice, surface vk.Surface) (vk.SurfaceFormat, error) {
	var count uint32
	if err := asche.CheckResult(vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, nil), "GetPhysicalDeviceSurfaceFormats"); err != nil {
		return vk.SurfaceFormat{}, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := asche.CheckResult(vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &count, formats), "GetPhysicalDeviceSurfaceFormats"); err != nil {
		return vk.SurfaceFormat{}, err
	}
	for _, f := range formats {
		f.Deref()
		if f.Format == vk.FormatB8g8r8a8Unorm && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	formats[0].Deref()
	return formats[0], nil
}

// choosePresentMode prefers Mailbox, then Immediate, then falls back to
// FIFO (the one present mode the Vulkan spec guarantees is always present).
func choosePresentMode(gpu vk.PhysicalDevice, surface vk.Surface) (vk.PresentMode, error) {
	var count uint32
	if err := asche.CheckResult(vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &count, nil), "GetPhysicalDeviceSurfacePresentModes"); err != nil {
		return vk.PresentModeFifo, err
	}
	modes := make([]vk.PresentMode, count)
	if err := asche.CheckResult(vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &count, modes), "GetPhysicalDeviceSurfacePresentModes"); err != nil {
		return vk.PresentModeFifo, err
	}
	hasImmediate := false
	for _, m := range modes {
		if m == vk.PresentModeMailbox {
			return vk.PresentModeMailbox, nil
		}
		if m == vk.PresentModeImmediate {
			hasImmediate = true
		}
	}
	if hasImmediate {
		return vk.PresentModeImmediate, nil
	}
	return vk.PresentModeFifo, nil
}

func chooseDepthFormat(gpu vk.PhysicalDevice) vk.Format {
	for _, format := range depthFormatPriority {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(gpu, format, &props)
		props.Deref()
		if props.OptimalTilingFeatures&vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit) != 0 {
			return format
		}
	}
	return vk.FormatD16Unorm
}

func chooseExtent(capabilities vk.SurfaceCapabilities, windowW, windowH uint32) vk.Extent2D {
	capabilities.CurrentExtent.Deref()
	if capabilities.CurrentExtent.Width != vk.MaxUint32 {
		return capabilities.CurrentExtent
	}
	capabilities.MinImageExtent.Deref()
	capabilities.MaxImageExtent.Deref()
	clamp := func(v, lo, hi uint32) uint32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return vk.Extent2D{
		Width:  clamp(windowW, capabilities.MinImageExtent.Width, capabilities.MaxImageExtent.Width),
		Height: clamp(windowH, capabilities.MinImageExtent.Height, capabilities.MaxImageExtent.Height),
	}
}

func chooseImageCount(capabilities vk.SurfaceCapabilities) uint32 {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}

// Swapchain owns the swapchain handle, its images/views, and the selected
// format/extent -- everything initialize() and resize rebuild together.
type Swapchain struct {
	device  vk.Device
	gpu     vk.PhysicalDevice
	surface vk.Surface

	Handle      vk.Swapchain
	Format      vk.SurfaceFormat
	DepthFormat vk.Format
	Extent      vk.Extent2D
	Images      []vk.Image
	ImageViews  []vk.ImageView
}

// NewSwapchain builds a swapchain sized for (windowW, windowH), reusing old
// (may be vk.NullSwapchain) as OldSwapchain for a seamless resize.
func NewSwapchain(device vk.Device, gpu vk.PhysicalDevice, surface vk.Surface, windowW, windowH uint32, old vk.Swapchain) (*Swapchain, error) {
	var capabilities vk.SurfaceCapabilities
	if err := asche.CheckResult(vk.GetPhysicalDeviceSurfaceCapabilities(gpu, surface, &capabilities), "GetPhysicalDeviceSurfaceCapabilities"); err != nil {
		return nil, err
	}
	capabilities.Deref()

	format, err := chooseSurfaceFormat(gpu, surface)
	if err != nil {
		return nil, err
	}
	presentMode, err := choosePresentMode(gpu, surface)
	if err != nil {
		return nil, err
	}
	extent := chooseExtent(capabilities, windowW, windowH)
	imageCount := chooseImageCount(capabilities)

	s := &Swapchain{device: device, gpu: gpu, surface: surface, Format: format, Extent: extent, DepthFormat: chooseDepthFormat(gpu)}

	var handle vk.Swapchain
	ret := vk.CreateSwapchain(device, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    imageCount,
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     old,
	}, nil, &handle)
	if err := asche.CheckResult(ret, "CreateSwapchain"); err != nil {
		return nil, err
	}
	s.Handle = handle

	if old != vk.NullSwapchain {
		vk.DestroySwapchain(device, old, nil)
	}

	var count uint32
	vk.GetSwapchainImages(device, handle, &count, nil)
	s.Images = make([]vk.Image, count)
	vk.GetSwapchainImages(device, handle, &count, s.Images)
	s.ImageViews = make([]vk.ImageView, count)
	for i, img := range s.Images {
		view, err := newColorImageView(device, img, format.Format)
		if err != nil {
			return s, err
		}
		s.ImageViews[i] = view
	}
	return s, nil
}

func newColorImageView(device vk.Device, image vk.Image, format vk.Format) (vk.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity, G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity, A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	return view, asche.CheckResult(ret, "CreateImageView")
}

// Destroy releases the image views and the swapchain handle. The images
// themselves are owned by the swapchain and need no explicit destruction.
func (s *Swapchain) Destroy() {
	for _, v := range s.ImageViews {
		vk.DestroyImageView(s.device, v, nil)
	}
	if s.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(s.device, s.Handle, nil)
	}
}
