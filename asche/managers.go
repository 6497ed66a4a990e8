package asche

import vk "github.com/vulkan-go/vulkan"

// CommandBufferManager allocates and recycles command buffers from a single
// pool. Not thread-safe; use one instance per rendering thread.
type CommandBufferManager struct {
	device             vk.Device
	pool               vk.CommandPool
	buffers            []vk.CommandBuffer
	commandBufferLevel vk.CommandBufferLevel
	count              uint32
}

// NewCommandBufferManager creates the manager's backing pool against
// graphicsQueueIndex.
func NewCommandBufferManager(device vk.Device, bufferLevel vk.CommandBufferLevel, graphicsQueueIndex uint32) (*CommandBufferManager, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: graphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &pool)
	if err := CheckResult(ret, "CreateCommandPool"); err != nil {
		return nil, err
	}
	return &CommandBufferManager{pool: pool, device: device, commandBufferLevel: bufferLevel}, nil
}

// Reset marks every managed command buffer free for reuse.
func (c *CommandBufferManager) Reset() {
	c.count = 0
}

// Destroy frees every allocated buffer and the pool itself.
func (c *CommandBufferManager) Destroy() {
	if len(c.buffers) > 0 {
		vk.FreeCommandBuffers(c.device, c.pool, uint32(len(c.buffers)), c.buffers)
	}
	vk.DestroyCommandPool(c.device, c.pool, nil)
}

// NewCommandBuffer returns a fresh or recycled command buffer in the reset
// state.
func (c *CommandBufferManager) NewCommandBuffer() (vk.CommandBuffer, error) {
	if c.count < uint32(len(c.buffers)) {
		buf := c.buffers[c.count]
		c.count++
		if err := CheckResult(vk.ResetCommandBuffer(buf, vk.CommandBufferResetFlags(vk.CommandBufferResetReleaseResourcesBit)), "ResetCommandBuffer"); err != nil {
			return buf, err
		}
		return buf, nil
	}
	c.buffers = append(c.buffers, nil)
	ret := vk.AllocateCommandBuffers(c.device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        c.pool,
		Level:              c.commandBufferLevel,
		CommandBufferCount: 1,
	}, c.buffers[c.count:])
	c.count++
	if err := CheckResult(ret, "AllocateCommandBuffers"); err != nil {
		return c.buffers[c.count-1], err
	}
	return c.buffers[c.count-1], nil
}
