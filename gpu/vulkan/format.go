package vulkan

import (
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/core/v2/core1_0"
)

var formatMapping = map[gpu.Format]core1_0.Format{
	gpu.FormatRGBA8Unorm:  core1_0.FormatR8G8B8A8UnsignedNormalized,
	gpu.FormatRGBA16Float: core1_0.FormatR16G16B16A16SignedFloat,
	gpu.FormatRGBA32Float: core1_0.FormatR32G32B32A32SignedFloat,
	gpu.FormatRG16Float:   core1_0.FormatR16G16SignedFloat,
	gpu.FormatR32Float:    core1_0.FormatR32SignedFloat,
	gpu.FormatRGBA16Unorm: core1_0.FormatR16G16B16A16UnsignedNormalized,
	gpu.FormatRGBA4Unorm:  core1_0.FormatR4G4B4A4UnsignedNormalizedPacked,
}

// VulkanFormat returns the Vulkan format used for a texel format
func VulkanFormat(format gpu.Format) (core1_0.Format, bool) {
	vkFormat, ok := formatMapping[format]
	return vkFormat, ok
}
