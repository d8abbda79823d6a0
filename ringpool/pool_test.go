package ringpool_test

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/avatarskin/gpu/host"
	"github.com/vkngwrapper/avatarskin/gpu/mocks"
	"github.com/vkngwrapper/avatarskin/memutils"
	"github.com/vkngwrapper/avatarskin/ringpool"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func readyPool(t *testing.T, options ringpool.CreateOptions) (*host.Device, *ringpool.Pool) {
	device := host.New(testLogger(), host.CreateOptions{})
	pool, err := ringpool.New(testLogger(), device, options)
	require.NoError(t, err)
	return device, pool
}

func TestPoolDefaults(t *testing.T) {
	_, pool := readyPool(t, ringpool.CreateOptions{})

	require.Equal(t, ringpool.DefaultNumBuffers, pool.NumBuffers())
	require.Equal(t, ringpool.DefaultBufferSize, pool.BufferSize())
	require.Equal(t, ringpool.DefaultMaxJoints, pool.MaxJoints())
	require.Equal(t, ringpool.DefaultMaxWeights, pool.MaxWeights())
	require.Equal(t, 128, ringpool.JointDataSize)

	require.Equal(t, 4*36*160*128, pool.JointsBuffer().Size())
	require.Equal(t, 4*36*128*4, pool.WeightsBuffer().Size())
}

func TestPoolRejectsBadOptions(t *testing.T) {
	device := host.New(testLogger(), host.CreateOptions{})

	_, err := ringpool.New(testLogger(), device, ringpool.CreateOptions{NumBuffers: 1})
	require.Error(t, err)

	_, err = ringpool.New(testLogger(), device, ringpool.CreateOptions{BufferSize: -1})
	require.ErrorIs(t, err, memutils.NonPositiveError)

	require.Equal(t, 0, device.LiveObjects())
}

func TestPoolExactlyBufferSizeEntriesSucceeds(t *testing.T) {
	_, pool := readyPool(t, ringpool.CreateOptions{})

	require.NoError(t, pool.StartFrame())
	for i := 0; i < ringpool.DefaultBufferSize; i++ {
		pool.GetNextEntryJoints()
		pool.GetNextEntryWeights(ringpool.DefaultMaxWeights)
	}

	require.Panics(t, func() {
		pool.GetNextEntryJoints()
	})
	require.Panics(t, func() {
		pool.GetNextEntryWeights(1)
	})

	require.NoError(t, pool.EndFrame())
}

func TestPoolCommitsOnlyRequestedEntries(t *testing.T) {
	device, pool := readyPool(t, ringpool.CreateOptions{})

	jointsPerGeneration := ringpool.DefaultBufferSize * ringpool.DefaultMaxJoints
	weightsPerGeneration := ringpool.DefaultBufferSize * ringpool.DefaultMaxWeights

	require.NoError(t, pool.StartFrame())
	pool.GetNextEntryJoints()
	pool.GetNextEntryJoints()
	pool.GetNextEntryJoints()
	pool.GetNextEntryWeights(10)
	pool.GetNextEntryWeights(100)
	require.NoError(t, pool.EndFrame())

	require.Equal(t, []host.Commit{
		{Offset: 0, Size: 3 * ringpool.DefaultMaxJoints * ringpool.JointDataSize},
	}, device.Commits(pool.JointsBuffer()))
	require.Equal(t, []host.Commit{
		{Offset: 0, Size: 2 * ringpool.DefaultMaxWeights * ringpool.WeightSize},
	}, device.Commits(pool.WeightsBuffer()))

	// The next frame lands in the next generation
	require.Equal(t, 1, pool.CurrentGeneration())
	require.NoError(t, pool.StartFrame())
	pool.GetNextEntryJoints()
	entry := pool.GetNextEntryJoints()
	require.Equal(t, jointsPerGeneration+ringpool.DefaultMaxJoints, entry.JointOffset)
	require.Equal(t, ringpool.DefaultMaxJoints, entry.Len())

	weights := pool.GetNextEntryWeights(5)
	require.Equal(t, weightsPerGeneration, weights.Offset)
	require.NoError(t, pool.EndFrame())

	commits := device.Commits(pool.JointsBuffer())
	require.Len(t, commits, 2)
	require.Equal(t, host.Commit{
		Offset: jointsPerGeneration * ringpool.JointDataSize,
		Size:   2 * ringpool.DefaultMaxJoints * ringpool.JointDataSize,
	}, commits[1])

	// An empty frame commits nothing
	require.NoError(t, pool.StartFrame())
	require.NoError(t, pool.EndFrame())
	commits = device.Commits(pool.WeightsBuffer())
	require.Equal(t, 0, commits[len(commits)-1].Size)
}

func TestPoolGenerationsRotate(t *testing.T) {
	_, pool := readyPool(t, ringpool.CreateOptions{NumBuffers: 3, BufferSize: 2, MaxJoints: 4, MaxWeights: 4})

	var generations []int
	for i := 0; i < 7; i++ {
		generations = append(generations, pool.CurrentGeneration())
		require.NoError(t, pool.StartFrame())
		require.NoError(t, pool.EndFrame())
	}

	require.Equal(t, []int{0, 1, 2, 0, 1, 2, 0}, generations)
}

func TestPoolWrittenDataReachesBuffer(t *testing.T) {
	device, pool := readyPool(t, ringpool.CreateOptions{NumBuffers: 2, BufferSize: 2, MaxJoints: 2, MaxWeights: 4})

	joint := ringpool.IdentityJoint()
	joint.Transform[12] = 3.5

	require.NoError(t, pool.StartFrame())
	pool.GetNextEntryJoints()
	entry := pool.GetNextEntryJoints()
	entry.Set(1, joint)
	require.Equal(t, joint, entry.Get(1))

	weights := pool.GetNextEntryWeights(3)
	weights.SetAll([]float32{0.25, 0.5, 1})
	require.Panics(t, func() {
		weights.Set(3, 1)
	})
	require.NoError(t, pool.EndFrame())

	data, err := device.ReadBuffer(pool.JointsBuffer())
	require.NoError(t, err)

	// Entry 1, joint 1, element 12 of the transform
	offset := (entry.JointOffset+1)*ringpool.JointDataSize + 12*4
	require.Equal(t, float32(3.5), math.Float32frombits(binary.LittleEndian.Uint32(data[offset:])))

	weightData, err := device.ReadBuffer(pool.WeightsBuffer())
	require.NoError(t, err)
	require.Equal(t, float32(0.5), math.Float32frombits(binary.LittleEndian.Uint32(weightData[(weights.Offset+1)*4:])))
}

func TestPoolFrameOrderingPanics(t *testing.T) {
	_, pool := readyPool(t, ringpool.CreateOptions{})

	require.Panics(t, func() { pool.GetNextEntryJoints() })
	require.Panics(t, func() { pool.GetNextEntryWeights(1) })
	require.Panics(t, func() { _ = pool.EndFrame() })

	require.NoError(t, pool.StartFrame())
	require.Panics(t, func() { _ = pool.StartFrame() })
	require.Panics(t, func() { pool.GetNextEntryWeights(ringpool.DefaultMaxWeights + 1) })
	require.NoError(t, pool.EndFrame())
}

func TestPoolEndFrameWithMockDevice(t *testing.T) {
	ctrl := gomock.NewController(t)
	device := mocks.NewMockDevice(ctrl)
	joints := mocks.NewMockBuffer(ctrl)
	weights := mocks.NewMockBuffer(ctrl)

	options := ringpool.CreateOptions{NumBuffers: 2, BufferSize: 4, MaxJoints: 8, MaxWeights: 16}
	jointBytes := 4 * 8 * ringpool.JointDataSize
	weightBytes := 4 * 16 * ringpool.WeightSize

	device.EXPECT().CreateBuffer(gpu.BufferCreateInfo{
		Name:   "GPU Skinning Joint Buffer",
		Size:   2 * jointBytes,
		Stride: ringpool.JointDataSize,
	}).Return(joints, nil)
	device.EXPECT().CreateBuffer(gpu.BufferCreateInfo{
		Name:   "GPU Skinning Weight Buffer",
		Size:   2 * weightBytes,
		Stride: ringpool.WeightSize,
	}).Return(weights, nil)

	pool, err := ringpool.New(testLogger(), device, options)
	require.NoError(t, err)

	gomock.InOrder(
		device.EXPECT().BeginWrite(joints, jointBytes, jointBytes).Return(make([]byte, jointBytes), nil),
		device.EXPECT().BeginWrite(weights, weightBytes, weightBytes).Return(make([]byte, weightBytes), nil),
		device.EXPECT().EndWrite(joints, 8*ringpool.JointDataSize).Return(nil),
		device.EXPECT().EndWrite(weights, 0).Return(nil),
	)

	// Skip generation 0 on the mock
	device.EXPECT().BeginWrite(gomock.Any(), 0, gomock.Any()).DoAndReturn(func(_ gpu.Buffer, _, size int) ([]byte, error) {
		return make([]byte, size), nil
	}).Times(2)
	device.EXPECT().EndWrite(gomock.Any(), 0).Return(nil).Times(2)
	require.NoError(t, pool.StartFrame())
	require.NoError(t, pool.EndFrame())

	require.NoError(t, pool.StartFrame())
	pool.GetNextEntryJoints()
	require.NoError(t, pool.EndFrame())
	require.Equal(t, 0, pool.CurrentGeneration())

	device.EXPECT().DestroyBuffer(joints)
	device.EXPECT().DestroyBuffer(weights)
	pool.Destroy()
}

func TestPoolStatistics(t *testing.T) {
	_, pool := readyPool(t, ringpool.CreateOptions{NumBuffers: 2, BufferSize: 4, MaxJoints: 2, MaxWeights: 2})

	require.NoError(t, pool.StartFrame())
	pool.GetNextEntryJoints()
	pool.GetNextEntryWeights(2)

	var stats memutils.Statistics
	pool.AddStatistics(&stats)
	require.Equal(t, 2, stats.BlockCount)
	require.Equal(t, 2, stats.AllocationCount)
	require.Equal(t, 2*ringpool.JointDataSize+2*ringpool.WeightSize, stats.AllocationUnits)
	require.NoError(t, pool.EndFrame())

	writer := jwriter.NewWriter()
	pool.PrintDetailedMap(&writer)
	require.NoError(t, writer.Error())
	require.Contains(t, string(writer.Bytes()), `"CurrentGeneration":1`)
	require.Contains(t, string(writer.Bytes()), `"PeakJointEntries":1`)

	pool.Destroy()
}
