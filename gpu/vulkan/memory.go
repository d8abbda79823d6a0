package vulkan

import (
	"math/bits"

	"github.com/vkngwrapper/avatarskin/memutils"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// FindMemoryTypeIndex returns the memory type permitted by memoryTypeBits that has every required flag and
// is missing the fewest preferred flags
func FindMemoryTypeIndex(
	properties *core1_0.PhysicalDeviceMemoryProperties,
	memoryTypeBits uint32,
	requiredFlags core1_0.MemoryPropertyFlags,
	preferredFlags core1_0.MemoryPropertyFlags,
) (int, common.VkResult, error) {
	bestMemoryTypeIndex := -1
	minCost := 100000

	for memTypeIndex := 0; memTypeIndex < len(properties.MemoryTypes); memTypeIndex++ {
		memTypeBit := uint32(1) << memTypeIndex
		if memTypeBit&memoryTypeBits == 0 {
			continue
		}

		flags := properties.MemoryTypes[memTypeIndex].PropertyFlags
		if requiredFlags & ^flags != 0 {
			continue
		}

		cost := bits.OnesCount32(uint32(preferredFlags & ^flags))
		if cost == 0 {
			return memTypeIndex, core1_0.VKSuccess, nil
		} else if cost < minCost {
			bestMemoryTypeIndex = memTypeIndex
			minCost = cost
		}
	}

	if bestMemoryTypeIndex < 0 {
		return -1, core1_0.VKErrorFeatureNotPresent, core1_0.VKErrorFeatureNotPresent.ToError()
	}

	return bestMemoryTypeIndex, core1_0.VKSuccess, nil
}

// FlushRange widens the written range [offset, offset+written) to whole non-coherent atoms, clamped to the
// end of the memory object. It returns the offset and size to pass to vkFlushMappedMemoryRanges.
func FlushRange(offset, written, nonCoherentAtomSize, memorySize int) (int, int) {
	start := memutils.AlignDown(offset, uint(nonCoherentAtomSize))
	end := memutils.AlignUp(offset+written, uint(nonCoherentAtomSize))
	if end > memorySize {
		end = memorySize
	}
	return start, end - start
}
