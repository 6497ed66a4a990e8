package dieselvk

import (
	"github.com/andewx/dieselvk/asche"
	vk "github.com/vulkan-go/vulkan"
)

// CorePool wraps a single vk.CommandPool. The device wrapper creates two of
// these, both on the graphics queue family: a "main" pool
// (CommandPoolCreateResetCommandBufferBit) that the window allocates its
// per-frame command buffers from, and a "transfer" pool
// (ResetCommandBufferBit | TransientBit) that the device creates and
// destroys but nothing records into; the staged-transfer path in
// resourcedb allocates from its own command-buffer manager's pool.
type CorePool struct {
	pool vk.CommandPool
}

// NewCorePool creates a command pool against familyIndex with the given
// creation flags.
func NewCorePool(device vk.Device, familyIndex uint32, flags vk.CommandPoolCreateFlagBits) (*CorePool, error) {
	var handle vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: familyIndex,
		Flags:            vk.CommandPoolCreateFlags(flags),
	}, nil, &handle)
	if err := asche.CheckResult(ret, "CreateCommandPool"); err != nil {
		return nil, err
	}
	return &CorePool{pool: handle}, nil
}

// Handle returns the underlying vk.CommandPool.
func (c *CorePool) Handle() vk.CommandPool { return c.pool }

// Destroy releases the command pool (and every buffer allocated from it).
func (c *CorePool) Destroy(device vk.Device) {
	vk.DestroyCommandPool(device, c.pool, nil)
}
