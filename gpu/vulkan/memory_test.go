package vulkan

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/core/v2/core1_0"
)

func testMemoryProperties() *core1_0.PhysicalDeviceMemoryProperties {
	return &core1_0.PhysicalDeviceMemoryProperties{
		MemoryTypes: []core1_0.MemoryType{
			{
				PropertyFlags: core1_0.MemoryPropertyDeviceLocal,
				HeapIndex:     0,
			},
			{
				PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCached,
				HeapIndex:     1,
			},
			{
				PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
				HeapIndex:     1,
			},
		},
		MemoryHeaps: []core1_0.MemoryHeap{
			{
				Size:  1000000,
				Flags: core1_0.MemoryHeapDeviceLocal,
			},
			{
				Size:  1000000,
				Flags: 0,
			},
		},
	}
}

func TestFindMemoryTypeIndexPrefersFlags(t *testing.T) {
	props := testMemoryProperties()

	index, res, err := FindMemoryTypeIndex(props, 0b111, core1_0.MemoryPropertyHostVisible, core1_0.MemoryPropertyHostCoherent)
	require.NoError(t, err)
	require.Equal(t, core1_0.VKSuccess, res)
	require.Equal(t, 2, index)

	index, _, err = FindMemoryTypeIndex(props, 0b111, core1_0.MemoryPropertyDeviceLocal, 0)
	require.NoError(t, err)
	require.Equal(t, 0, index)
}

func TestFindMemoryTypeIndexFallsBack(t *testing.T) {
	props := testMemoryProperties()

	// The coherent type is not permitted, so the cached type is the best remaining host-visible type
	index, _, err := FindMemoryTypeIndex(props, 0b011, core1_0.MemoryPropertyHostVisible, core1_0.MemoryPropertyHostCoherent)
	require.NoError(t, err)
	require.Equal(t, 1, index)
}

func TestFindMemoryTypeIndexNoMatch(t *testing.T) {
	props := testMemoryProperties()

	index, res, err := FindMemoryTypeIndex(props, 0b001, core1_0.MemoryPropertyHostVisible, 0)
	require.Error(t, err)
	require.Equal(t, core1_0.VKErrorFeatureNotPresent, res)
	require.Equal(t, -1, index)
}

func TestFlushRange(t *testing.T) {
	offset, size := FlushRange(70, 10, 64, 1024)
	require.Equal(t, 64, offset)
	require.Equal(t, 64, size)

	offset, size = FlushRange(128, 128, 64, 1024)
	require.Equal(t, 128, offset)
	require.Equal(t, 128, size)

	// Clamped to the end of the allocation
	offset, size = FlushRange(990, 20, 64, 1000)
	require.Equal(t, 960, offset)
	require.Equal(t, 40, size)
}

func TestVulkanFormat(t *testing.T) {
	vkFormat, ok := VulkanFormat(gpu.FormatRGBA16Float)
	require.True(t, ok)
	require.Equal(t, core1_0.FormatR16G16B16A16SignedFloat, vkFormat)

	vkFormat, ok = VulkanFormat(gpu.FormatRGBA4Unorm)
	require.True(t, ok)
	require.Equal(t, core1_0.FormatR4G4B4A4UnsignedNormalizedPacked, vkFormat)

	_, ok = VulkanFormat(gpu.Format(99))
	require.False(t, ok)
}
