package asche

import (
	"unsafe"

	"github.com/andewx/dieselvk/internal/diag"
	vk "github.com/vulkan-go/vulkan"
)

// CreateInstance builds a vk.Instance from app's requested extensions and,
// if app.VulkanDebug() reports true, its requested validation layers plus a
// debug report callback routed onto log's channels. Physical device
// selection and logical device creation happen afterward, against the
// returned instance, via SelectPhysicalDevice/NewCoreDevice -- this function
// owns instance-level setup only.
func CreateInstance(app Application, log *diag.Logger) (vk.Instance, vk.DebugReportCallback, error) {
	availableInstanceExtensions, err := InstanceExtensions()
	if err != nil {
		return nil, vk.NullDebugReportCallback, err
	}
	instanceExtensions, missing := filterAvailable(availableInstanceExtensions, safeStrings(app.VulkanInstanceExtensions()))
	if missing > 0 {
		log.Configuration("vulkan: missing %d requested instance extensions", missing)
	}

	var validationLayers []string
	if app.VulkanDebug() {
		if iface, ok := app.(ApplicationVulkanLayers); ok {
			availableLayers, err := ValidationLayers()
			if err != nil {
				return nil, vk.NullDebugReportCallback, err
			}
			var lmissing int
			validationLayers, lmissing = filterAvailable(availableLayers, safeStrings(iface.VulkanLayers()))
			if lmissing > 0 {
				log.Configuration("vulkan: missing %d requested validation layers", lmissing)
			}
		}
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			ApiVersion:         uint32(app.VulkanAPIVersion()),
			ApplicationVersion: uint32(app.VulkanAppVersion()),
			PApplicationName:   safeString(app.VulkanAppName()),
			PEngineName:        safeString("dieselvk"),
		},
		EnabledExtensionCount:   uint32(len(instanceExtensions)),
		PpEnabledExtensionNames: instanceExtensions,
		EnabledLayerCount:       uint32(len(validationLayers)),
		PpEnabledLayerNames:     validationLayers,
	}, nil, &instance)
	if err := CheckResult(ret, "CreateInstance"); err != nil {
		return nil, vk.NullDebugReportCallback, err
	}
	vk.InitInstance(instance)

	var callback vk.DebugReportCallback
	if app.VulkanDebug() {
		dbgLog = log
		ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}, nil, &callback)
		if err := CheckResult(ret, "CreateDebugReportCallback"); err != nil {
			vk.DestroyInstance(instance, nil)
			return nil, vk.NullDebugReportCallback, err
		}
		log.Info("vulkan: debug report callback enabled")
	}
	return instance, callback, nil
}

// DestroyInstance tears down the debug callback (if any) and the instance
// itself. Call after the device and every surface bound to instance have
// already been destroyed.
func DestroyInstance(instance vk.Instance, callback vk.DebugReportCallback) {
	if callback != vk.NullDebugReportCallback {
		vk.DestroyDebugReportCallback(instance, callback, nil)
	}
	vk.DestroyInstance(instance, nil)
}

// filterAvailable keeps only the requested names present in available,
// reporting how many requested names were dropped.
func filterAvailable(available, requested []string) ([]string, int) {
	var result []string
	missing := 0
	for _, r := range requested {
		if Contains(available, r) {
			result = append(result, r)
		} else {
			missing++
		}
	}
	return result, missing
}

// dbgLog is the channel the Vulkan debug-report callback writes through.
// CreateInstance sets it before registering the callback; PfnCallback is a
// bare function pointer across the cgo boundary with no userdata slot this
// binding threads through, so the channel has to live in package state.
var dbgLog *diag.Logger

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	if dbgLog == nil {
		return vk.Bool32(vk.False)
	}
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		dbgLog.Vulkan("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		dbgLog.Invariant("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	default:
		dbgLog.Info("[%s] code %d: %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
