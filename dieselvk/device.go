package dieselvk

import (
	"errors"

	"github.com/andewx/dieselvk/asche"
	"github.com/andewx/dieselvk/internal/diag"
	vk "github.com/vulkan-go/vulkan"
)

// errNoSuitableDevice is returned when no physical device satisfies the
// required extensions (and, when a surface was given, present support).
var errNoSuitableDevice = errors.New("vulkan: no suitable physical device")

// errNoGraphicsQueue and errNoComputeQueue are returned when the selected
// device exposes no queue family with the corresponding capability.
var (
	errNoGraphicsQueue = errors.New("vulkan: device has no graphics queue family")
	errNoComputeQueue  = errors.New("vulkan: device has no compute queue family")
)

// DeviceRequirements configures physical-device selection and logical
// device creation.
type DeviceRequirements struct {
	RequiredExtensions []string
	// Surface, if non-nil, makes present support (and at least one
	// swapchain format and present mode) a hard requirement and causes a
	// present-capable queue family to be discovered alongside graphics and
	// compute.
	Surface *vk.Surface
}

// CoreDevice owns the selected physical device, its properties, the
// logical device built from it, its queues, and its two standing command
// pools.
type CoreDevice struct {
	log      *diag.Logger
	instance vk.Instance

	physicalDevice   vk.PhysicalDevice
	properties       vk.PhysicalDeviceProperties
	memoryProperties vk.PhysicalDeviceMemoryProperties

	handle vk.Device
	queues *CoreQueue

	graphicsFamily, computeFamily, presentFamily uint32
	hasPresentFamily                             bool

	graphicsQueue, computeQueue, presentQueue vk.Queue

	MainPool     *CorePool
	TransferPool *CorePool
}

// scoreDevice implements physical-device scoring: discrete beats
// integrated, geometry/tessellation support each add a bonus, missing a
// required extension or (when a surface is given) missing present support
// disqualifies the device outright.
func scoreDevice(gpu vk.PhysicalDevice, req DeviceRequirements) (int, vk.PhysicalDeviceProperties, bool) {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(gpu, &props)
	props.Deref()
	props.Limits.Deref()

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()

	extSet, err := NewDeviceExtensionSet(nil, req.RequiredExtensions, gpu)
	if err != nil {
		return 0, props, false
	}
	if ok, _ := extSet.HasRequired(); !ok {
		return 0, props, false
	}

	if req.Surface != nil {
		if !anyPresentQueue(gpu, *req.Surface) {
			return 0, props, false
		}
		if !hasSurfaceFormatAndPresentMode(gpu, *req.Surface) {
			return 0, props, false
		}
	}

	score := 1
	switch props.DeviceType {
	case vk.PhysicalDeviceTypeDiscreteGpu:
		score += 1000
	case vk.PhysicalDeviceTypeIntegratedGpu:
		score += 100
	}
	if features.GeometryShader != vk.False {
		score += 10
	}
	if features.TessellationShader != vk.False {
		score += 10
	}
	return score, props, true
}

func anyPresentQueue(gpu vk.PhysicalDevice, surface vk.Surface) bool {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	for i := uint32(0); i < count; i++ {
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, i, surface, &supported)
		if supported != vk.False {
			return true
		}
	}
	return false
}

func hasSurfaceFormatAndPresentMode(gpu vk.PhysicalDevice, surface vk.Surface) bool {
	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(gpu, surface, &formatCount, nil)
	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(gpu, surface, &modeCount, nil)
	return formatCount > 0 && modeCount > 0
}

// SelectPhysicalDevice enumerates every physical device on instance and
// returns the highest-scoring one meeting req, or an error if none qualify.
func SelectPhysicalDevice(instance vk.Instance, req DeviceRequirements) (vk.PhysicalDevice, vk.PhysicalDeviceProperties, error) {
	var count uint32
	if err := asche.CheckResult(vk.EnumeratePhysicalDevices(instance, &count, nil), "EnumeratePhysicalDevices"); err != nil {
		return nil, vk.PhysicalDeviceProperties{}, err
	}
	if count == 0 {
		return nil, vk.PhysicalDeviceProperties{}, errNoSuitableDevice
	}
	gpus := make([]vk.PhysicalDevice, count)
	if err := asche.CheckResult(vk.EnumeratePhysicalDevices(instance, &count, gpus), "EnumeratePhysicalDevices"); err != nil {
		return nil, vk.PhysicalDeviceProperties{}, err
	}

	bestScore := -1
	var best vk.PhysicalDevice
	var bestProps vk.PhysicalDeviceProperties
	for _, gpu := range gpus {
		score, props, ok := scoreDevice(gpu, req)
		if ok && score > bestScore {
			bestScore = score
			best = gpu
			bestProps = props
		}
	}
	if bestScore < 0 {
		return nil, vk.PhysicalDeviceProperties{}, errNoSuitableDevice
	}
	return best, bestProps, nil
}

// NewCoreDevice selects a physical device, discovers its queue families,
// creates a logical device with the minimal unique set of queue families
// plus required extensions (and the swapchain extension when a surface is
// required), and creates the main and transfer command pools.
func NewCoreDevice(instance vk.Instance, req DeviceRequirements, log *diag.Logger) (*CoreDevice, error) {
	gpu, props, err := SelectPhysicalDevice(instance, req)
	if err != nil {
		return nil, err
	}

	d := &CoreDevice{log: log, instance: instance, physicalDevice: gpu, properties: props}
	vk.GetPhysicalDeviceMemoryProperties(gpu, &d.memoryProperties)
	d.memoryProperties.Deref()

	queues := NewCoreQueue(gpu)
	if queues == nil {
		return nil, errNoGraphicsQueue
	}
	d.queues = queues

	graphicsOK, graphicsFamily := queues.FindSuitableQueue(vk.QueueGraphicsBit)
	if !graphicsOK {
		return nil, errNoGraphicsQueue
	}
	d.graphicsFamily = graphicsFamily

	if computeOK, computeFamily := queues.FindSuitableQueue(vk.QueueComputeBit); computeOK {
		d.computeFamily = computeFamily
	} else {
		return nil, errNoComputeQueue
	}

	extensions := append([]string(nil), req.RequiredExtensions...)
	if req.Surface != nil {
		d.hasPresentFamily = true
		if ok, family := queues.FindPresentQueue(*req.Surface); ok {
			d.presentFamily = family
		}
		extensions = append(extensions, "VK_KHR_swapchain")
	}

	familySet := map[uint32]bool{d.graphicsFamily: true, d.computeFamily: true}
	if req.Surface != nil {
		familySet[d.presentFamily] = true
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, 0, len(familySet))
	priority := float32(1.0)
	for family := range familySet {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{priority},
		})
	}

	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(gpu, &features)
	features.Deref()

	var handle vk.Device
	ret := vk.CreateDevice(gpu, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}, nil, &handle)
	if err := asche.CheckResult(ret, "CreateDevice"); err != nil {
		return nil, err
	}
	d.handle = handle
	d.queues.CreateQueues(handle)

	d.graphicsQueue = d.queues.QueueAt(d.graphicsFamily)
	d.computeQueue = d.queues.QueueAt(d.computeFamily)
	if req.Surface != nil {
		d.presentQueue = d.queues.QueueAt(d.presentFamily)
	}

	mainPool, err := NewCorePool(handle, d.graphicsFamily, vk.CommandPoolCreateResetCommandBufferBit)
	if err != nil {
		return nil, err
	}
	d.MainPool = mainPool

	transferPool, err := NewCorePool(handle, d.graphicsFamily,
		vk.CommandPoolCreateResetCommandBufferBit|vk.CommandPoolCreateTransientBit)
	if err != nil {
		return nil, err
	}
	d.TransferPool = transferPool

	return d, nil
}

// Handle returns the logical device handle.
func (d *CoreDevice) Handle() vk.Device { return d.handle }

// PhysicalDevice returns the selected physical device.
func (d *CoreDevice) PhysicalDevice() vk.PhysicalDevice { return d.physicalDevice }

// Instance returns the vk.Instance this device was selected from.
func (d *CoreDevice) Instance() vk.Instance { return d.instance }

// Properties returns the selected device's properties.
func (d *CoreDevice) Properties() vk.PhysicalDeviceProperties { return d.properties }

// GraphicsQueue returns the bound graphics queue and its family index.
func (d *CoreDevice) GraphicsQueue() (vk.Queue, uint32) { return d.graphicsQueue, d.graphicsFamily }

// PresentQueue returns the bound present queue and its family index, if a
// surface was supplied at construction.
func (d *CoreDevice) PresentQueue() (vk.Queue, uint32, bool) {
	return d.presentQueue, d.presentFamily, d.hasPresentFamily
}

// FindBestMemoryType resolves a memory type index for typeFilter/required.
func (d *CoreDevice) FindBestMemoryType(typeFilter uint32, required vk.MemoryPropertyFlagBits) (uint32, bool) {
	return FindMemoryType(d.memoryProperties, typeFilter, required)
}

// MemoryProperties exposes the raw memory-properties table, e.g. for
// vkmem-backed allocators binding their own device memory.
func (d *CoreDevice) MemoryProperties() vk.PhysicalDeviceMemoryProperties { return d.memoryProperties }

// WaitIdle blocks until all queued work on this device completes. Required
// before any destructive teardown (resize, resource release, shutdown).
func (d *CoreDevice) WaitIdle() error {
	return asche.CheckResult(vk.DeviceWaitIdle(d.handle), "DeviceWaitIdle")
}

// Destroy tears the logical device down, including both command pools.
func (d *CoreDevice) Destroy() {
	if d.MainPool != nil {
		d.MainPool.Destroy(d.handle)
	}
	if d.TransferPool != nil {
		d.TransferPool.Destroy(d.handle)
	}
	vk.DestroyDevice(d.handle, nil)
}
