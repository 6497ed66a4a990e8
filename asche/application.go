package asche

import vk "github.com/vulkan-go/vulkan"

// Application describes the instance-level configuration CreateInstance
// needs: naming, versioning, the extensions it wants enabled, and whether
// validation should be turned on. Device selection and swapchain ownership
// live on CoreDevice/Window now, not here.
type Application interface {
	VulkanAPIVersion() vk.Version
	VulkanAppVersion() vk.Version
	VulkanAppName() string
	VulkanInstanceExtensions() []string
	VulkanDebug() bool
}

// ApplicationVulkanLayers is an optional decorator: an Application
// implementing it gets its requested validation layers enabled, subject to
// availability, when VulkanDebug reports true.
type ApplicationVulkanLayers interface {
	VulkanLayers() []string
}

var (
	DefaultVulkanAppVersion = vk.Version(vk.MakeVersion(1, 0, 0))
	DefaultVulkanAPIVersion = vk.Version(vk.MakeVersion(1, 0, 0))
)

// BaseVulkanApp is an embeddable Application with non-debug defaults;
// callers override the methods that matter to them.
type BaseVulkanApp struct{}

func (app *BaseVulkanApp) VulkanAPIVersion() vk.Version { return DefaultVulkanAPIVersion }

func (app *BaseVulkanApp) VulkanAppVersion() vk.Version { return DefaultVulkanAppVersion }

func (app *BaseVulkanApp) VulkanAppName() string { return "base" }

func (app *BaseVulkanApp) VulkanInstanceExtensions() []string { return nil }

func (app *BaseVulkanApp) VulkanDebug() bool { return false }
