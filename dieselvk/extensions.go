package dieselvk

import (
	"errors"

	"github.com/andewx/dieselvk/asche"
	vk "github.com/vulkan-go/vulkan"
)

// errNoMemoryType is returned when the device exposes no memory type
// satisfying a requested filter/property combination.
var errNoMemoryType = errors.New("vulkan: no suitable memory type")

// sliceUint32 reinterprets a byte slice containing SPIR-V words (which are
// always a whole number of uint32s) as a []uint32, the form
// vk.ShaderModuleCreateInfo.PCode expects.
func sliceUint32(data []byte) []uint32 {
	if len(data)%4 != 0 {
		return nil
	}
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
	}
	return out
}

// ExtensionSet tracks a wanted/required/actual triple and reports which
// wanted or required names are missing. The same shape applies three times
// over (instance extensions, device extensions, validation layers);
// those three have been collapsed into this one generic set plus three
// constructors below.
type ExtensionSet struct {
	wanted, required, actual []string
}

// HasRequired reports whether every required name is present in actual.
func (e *ExtensionSet) HasRequired() (bool, []string) {
	return e.missingFrom(e.required)
}

// HasWanted reports whether every wanted name is present in actual.
func (e *ExtensionSet) HasWanted() (bool, []string) {
	return e.missingFrom(e.wanted)
}

func (e *ExtensionSet) missingFrom(names []string) (bool, []string) {
	var missing []string
	for _, want := range names {
		if !asche.Contains(e.actual, want) {
			missing = append(missing, want)
		}
	}
	return len(missing) == 0, missing
}

// GetExtensions returns required names followed by any wanted names not
// already in required, the set that should actually be enabled.
func (e *ExtensionSet) GetExtensions() []string {
	out := append([]string(nil), e.required...)
	for _, want := range e.wanted {
		if !asche.Contains(e.required, want) {
			out = append(out, want)
		}
	}
	return out
}

// NewInstanceExtensionSet queries the platform's available instance
// extensions and tracks them against wanted/required.
func NewInstanceExtensionSet(wanted, required []string) (*ExtensionSet, error) {
	actual, err := asche.InstanceExtensions()
	if err != nil {
		return nil, err
	}
	return &ExtensionSet{wanted: wanted, required: required, actual: actual}, nil
}

// NewDeviceExtensionSet queries gpu's available extensions and tracks them
// against wanted/required.
func NewDeviceExtensionSet(wanted, required []string, gpu vk.PhysicalDevice) (*ExtensionSet, error) {
	actual, err := asche.DeviceExtensions(gpu)
	if err != nil {
		return nil, err
	}
	return &ExtensionSet{wanted: wanted, required: required, actual: actual}, nil
}

// NewLayerExtensionSet queries the platform's available validation layers
// and tracks them against wanted (layers are never "required").
func NewLayerExtensionSet(wanted []string) (*ExtensionSet, error) {
	actual, err := asche.ValidationLayers()
	if err != nil {
		return nil, err
	}
	return &ExtensionSet{wanted: wanted, actual: actual}, nil
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

// FindMemoryType returns the first memory type index whose bit is set in
// typeFilter and whose property flags satisfy required (first match over
// memoryTypes).
func FindMemoryType(props vk.PhysicalDeviceMemoryProperties, typeFilter uint32, required vk.MemoryPropertyFlagBits) (uint32, bool) {
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		if typeFilter&(1<<i) == 0 {
			continue
		}
		props.MemoryTypes[i].Deref()
		if props.MemoryTypes[i].PropertyFlags&vk.MemoryPropertyFlags(required) == vk.MemoryPropertyFlags(required) {
			return i, true
		}
	}
	return 0, false
}

// LoadShaderModule builds a vk.ShaderModule from SPIR-V bytes.
func LoadShaderModule(device vk.Device, data []byte) (vk.ShaderModule, error) {
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(data)),
		PCode:    sliceUint32(data),
	}, nil, &module)
	if err := asche.CheckResult(ret, "CreateShaderModule"); err != nil {
		return vk.NullShaderModule, err
	}
	return module, nil
}
