package atlas

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/avatarskin/blocks"
	"github.com/vkngwrapper/avatarskin/gpu"
)

func TestRuntimePackerShelves(t *testing.T) {
	packer := NewRuntimePacker(64, 64, 0)

	_, placement, ok := packer.AddBlock(32, 16)
	require.True(t, ok)
	require.Equal(t, Placement{Slice: 0, Rect: gpu.Rect{X: 0, Y: 0, Width: 32, Height: 16}}, placement)

	_, placement, ok = packer.AddBlock(32, 16)
	require.True(t, ok)
	require.Equal(t, Placement{Slice: 0, Rect: gpu.Rect{X: 32, Y: 0, Width: 32, Height: 16}}, placement)

	// Shelf is full, so a new one is opened beneath it
	_, placement, ok = packer.AddBlock(16, 16)
	require.True(t, ok)
	require.Equal(t, Placement{Slice: 0, Rect: gpu.Rect{X: 0, Y: 16, Width: 16, Height: 16}}, placement)

	// Shorter blocks share an existing taller shelf
	_, placement, ok = packer.AddBlock(16, 8)
	require.True(t, ok)
	require.Equal(t, Placement{Slice: 0, Rect: gpu.Rect{X: 16, Y: 16, Width: 16, Height: 8}}, placement)

	_, placement, ok = packer.AddBlock(64, 64)
	require.True(t, ok)
	require.Equal(t, Placement{Slice: 1, Rect: gpu.Rect{X: 0, Y: 0, Width: 64, Height: 64}}, placement)

	require.Equal(t, 2, packer.SliceCount())
	require.Equal(t, 5, packer.BlockCount())
	require.NoError(t, packer.Validate())
}

func TestRuntimePackerRejectsOversizedBlocks(t *testing.T) {
	packer := NewRuntimePacker(16, 16, 0)

	handle, _, ok := packer.AddBlock(17, 1)
	require.False(t, ok)
	require.Equal(t, blocks.InvalidHandle, handle)

	_, _, ok = packer.AddBlock(1, 17)
	require.False(t, ok)

	_, _, ok = packer.AddBlock(0, 4)
	require.False(t, ok)

	require.Equal(t, 0, packer.SliceCount())
}

func TestRuntimePackerMaxSlices(t *testing.T) {
	packer := NewRuntimePacker(8, 8, 2)

	_, _, ok := packer.AddBlock(8, 8)
	require.True(t, ok)
	_, _, ok = packer.AddBlock(8, 8)
	require.True(t, ok)

	_, _, ok = packer.AddBlock(1, 1)
	require.False(t, ok)
	require.Equal(t, 2, packer.BlockCount())
}

func TestRuntimePackerReclaimsEmptyShelves(t *testing.T) {
	packer := NewRuntimePacker(32, 32, 0)

	top, _, _ := packer.AddBlock(16, 8)
	middleA, _, _ := packer.AddBlock(8, 16)
	middleB, middlePlacement, _ := packer.AddBlock(8, 16)
	require.Equal(t, gpu.Rect{X: 8, Y: 8, Width: 8, Height: 16}, middlePlacement.Rect)

	bottom, bottomPlacement, _ := packer.AddBlock(32, 8)
	require.Equal(t, gpu.Rect{X: 0, Y: 24, Width: 32, Height: 8}, bottomPlacement.Rect)

	// Emptying a shelf in the middle rewinds it
	packer.RemoveBlock(middleA)
	packer.RemoveBlock(middleB)
	_, placement, ok := packer.AddBlock(32, 16)
	require.True(t, ok)
	require.Equal(t, Placement{Slice: 0, Rect: gpu.Rect{X: 0, Y: 8, Width: 32, Height: 16}}, placement)

	// Emptying the last shelf drops it, so its rows can be claimed by a new shelf
	packer.RemoveBlock(bottom)
	_, placement, ok = packer.AddBlock(32, 8)
	require.True(t, ok)
	require.Equal(t, Placement{Slice: 0, Rect: gpu.Rect{X: 0, Y: 24, Width: 32, Height: 8}}, placement)
	require.Equal(t, 1, packer.SliceCount())

	_, ok = packer.GetLayout(top)
	require.True(t, ok)
	_, ok = packer.GetLayout(middleA)
	require.False(t, ok)
	require.NoError(t, packer.Validate())
}

func TestRuntimePackerRandomSequenceKeepsInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(77))
	packer := NewRuntimePacker(128, 128, 4)

	var live []blocks.Handle
	for i := 0; i < 2000; i++ {
		if len(live) == 0 || rng.Intn(5) > 1 {
			handle, _, ok := packer.AddBlock(rng.Intn(48)+1, rng.Intn(48)+1)
			if ok {
				live = append(live, handle)
			}
		} else {
			index := rng.Intn(len(live))
			packer.RemoveBlock(live[index])
			live = append(live[:index], live[index+1:]...)
		}

		require.NoError(t, packer.Validate())
	}

	require.Equal(t, len(live), packer.BlockCount())
}
