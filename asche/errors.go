package asche

import (
	"errors"
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

// ErrSwapchainStale is returned by swapchain operations when the driver
// reports OutOfDate or Suboptimal. It is not a diagnostic -- frame-loop code
// treats it as the normal trigger for the resize path, never logs it to the
// error channel.
var ErrSwapchainStale = errors.New("vulkan: swapchain out of date")

// ErrDeviceLost is the one Vulkan failure allowed to propagate all the way
// to the host entry point rather than being absorbed locally.
var ErrDeviceLost = errors.New("vulkan: device lost")

// CheckResult converts a raw vk.Result into a Go error, with OutOfDate /
// Suboptimal / DeviceLost mapped to their own sentinels so callers can
// branch with errors.Is instead of comparing raw result codes. This
// replaces the source's panic-based orPanic/checkErr pair: every fallible
// Vulkan call in this module returns an error instead of unwinding.
func CheckResult(ret vk.Result, context string) error {
	switch ret {
	case vk.Success, vk.Incomplete:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return ErrSwapchainStale
	case vk.ErrorDeviceLost:
		return ErrDeviceLost
	default:
		return fmt.Errorf("vulkan: %s failed: result %d", context, ret)
	}
}

// IsStale reports whether err originated from an out-of-date/suboptimal
// swapchain result.
func IsStale(err error) bool { return errors.Is(err, ErrSwapchainStale) }
