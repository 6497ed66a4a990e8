package asche

import vk "github.com/vulkan-go/vulkan"

// InstanceExtensions lists the instance extensions available on the
// platform. This is the one canonical implementation; dieselvk's device and
// extension-set helpers call through to it rather than re-querying.
func InstanceExtensions() ([]string, error) {
	var count uint32
	if err := CheckResult(vk.EnumerateInstanceExtensionProperties("", &count, nil), "EnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	if err := CheckResult(vk.EnumerateInstanceExtensionProperties("", &count, list), "EnumerateInstanceExtensionProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// DeviceExtensions lists the extensions available on the given physical
// device.
func DeviceExtensions(gpu vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if err := CheckResult(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, nil), "EnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}
	list := make([]vk.ExtensionProperties, count)
	if err := CheckResult(vk.EnumerateDeviceExtensionProperties(gpu, "", &count, list), "EnumerateDeviceExtensionProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, ext := range list {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// ValidationLayers lists the validation layers available on the platform.
func ValidationLayers() ([]string, error) {
	var count uint32
	if err := CheckResult(vk.EnumerateInstanceLayerProperties(&count, nil), "EnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	list := make([]vk.LayerProperties, count)
	if err := CheckResult(vk.EnumerateInstanceLayerProperties(&count, list), "EnumerateInstanceLayerProperties"); err != nil {
		return nil, err
	}
	names := make([]string, 0, count)
	for _, layer := range list {
		layer.Deref()
		names = append(names, vk.ToString(layer.LayerName[:]))
	}
	return names, nil
}

// Contains reports whether name appears in list, the small helper
// ValidationLayers/InstanceExtensions callers use to check required-vs-wanted
// sets without each writing their own linear scan.
func Contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

// safeString returns a NUL-terminated copy of s, the form Vulkan's C string
// parameters (PName, PApplicationName, ...) require.
func safeString(s string) string {
	return s + "\x00"
}

// safeStrings applies safeString to every element of a slice.
func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}
