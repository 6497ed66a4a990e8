package dieselvk

import (
	vk "github.com/vulkan-go/vulkan"
)

// CoreQueue holds a physical device's queue-family table and, once the
// logical device exists, one vk.Queue per family. Device selection asks it
// which families carry graphics/compute/present capability; the logical
// device then binds queues for the minimal unique family set.
type CoreQueue struct {
	gpu      vk.PhysicalDevice
	families []vk.QueueFamilyProperties
	queues   []vk.Queue
}

// NewCoreQueue reads gpu's queue-family properties. Returns nil when the
// device reports no families at all (such a device is unusable and scoring
// should have rejected it).
func NewCoreQueue(gpu vk.PhysicalDevice) *CoreQueue {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	if count == 0 {
		return nil
	}
	q := &CoreQueue{
		gpu:      gpu,
		families: make([]vk.QueueFamilyProperties, count),
		queues:   make([]vk.Queue, count),
	}
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, q.families)
	return q
}

// FamilyCount returns the number of queue families the device exposes.
func (q *CoreQueue) FamilyCount() int { return len(q.families) }

// FindSuitableQueue returns the first family whose flags cover flagBits.
func (q *CoreQueue) FindSuitableQueue(flagBits vk.QueueFlagBits) (bool, uint32) {
	want := vk.QueueFlags(flagBits)
	for i := range q.families {
		family := q.families[i]
		family.Deref()
		if family.QueueFlags&want == want {
			return true, uint32(i)
		}
	}
	return false, 0
}

// FindPresentQueue returns the first family able to present to surface.
func (q *CoreQueue) FindPresentQueue(surface vk.Surface) (bool, uint32) {
	for i := range q.families {
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(q.gpu, uint32(i), surface, &supported)
		if supported != vk.False {
			return true, uint32(i)
		}
	}
	return false, 0
}

// CreateQueues fetches queue 0 of every family from the logical device.
// Must be called once after vk.CreateDevice.
func (q *CoreQueue) CreateQueues(device vk.Device) {
	for i := range q.queues {
		vk.GetDeviceQueue(device, uint32(i), 0, &q.queues[i])
	}
}

// QueueAt returns the bound queue for a family index.
func (q *CoreQueue) QueueAt(family uint32) vk.Queue { return q.queues[family] }
