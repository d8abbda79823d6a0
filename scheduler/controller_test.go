package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/avatarskin/gpu/host"
	"github.com/vkngwrapper/avatarskin/ringpool"
	"github.com/vkngwrapper/avatarskin/scheduler"
	"github.com/vkngwrapper/avatarskin/scheduler/mocks"
	"go.uber.org/mock/gomock"
)

func readyController(t *testing.T) (*host.Device, *scheduler.Controller) {
	device := host.New(testLogger(), host.CreateOptions{})
	pool, err := ringpool.New(testLogger(), device, ringpool.CreateOptions{
		BufferSize: 2,
		MaxJoints:  4,
		MaxWeights: 4,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Destroy)

	return device, scheduler.NewController(testLogger(), pool)
}

func TestControllerDispatchOrder(t *testing.T) {
	_, controller := readyController(t)
	ctrl := gomock.NewController(t)

	combiner := mocks.NewMockMorphTargetCombiner(ctrl)
	skinner := mocks.NewMockSkinner(ctrl)
	firstAnimator := mocks.NewMockAnimator(ctrl)
	secondAnimator := mocks.NewMockAnimator(ctrl)

	controller.AddActiveAnimator(firstAnimator)
	controller.AddActiveSkinner(skinner)
	controller.AddActiveAnimator(secondAnimator)
	controller.AddActiveCombiner(combiner)

	require.Equal(t, 1, controller.PendingCombiners())
	require.Equal(t, 1, controller.PendingSkinners())
	require.Equal(t, 2, controller.PendingAnimators())

	gomock.InOrder(
		combiner.EXPECT().CombineMorphTargets(),
		skinner.EXPECT().UpdateOutputTexture(),
		firstAnimator.EXPECT().Dispatch(),
		secondAnimator.EXPECT().Dispatch(),
	)

	require.NoError(t, controller.StartFrame())
	controller.Update()
	require.NoError(t, controller.EndFrame())

	require.Equal(t, 0, controller.PendingCombiners())
	require.Equal(t, 0, controller.PendingSkinners())
	require.Equal(t, 0, controller.PendingAnimators())

	// Nothing is queued, so nothing is dispatched again
	controller.Update()
}

func TestControllerQueuesDuplicatesOnceAndRejectsNil(t *testing.T) {
	_, controller := readyController(t)
	ctrl := gomock.NewController(t)

	animator := mocks.NewMockAnimator(ctrl)
	controller.AddActiveAnimator(animator)
	controller.AddActiveAnimator(animator)
	require.Equal(t, 1, controller.PendingAnimators())

	skinner := mocks.NewMockSkinner(ctrl)
	controller.AddActiveSkinner(skinner)
	controller.AddActiveSkinner(skinner)
	require.Equal(t, 1, controller.PendingSkinners())

	require.Panics(t, func() {
		controller.AddActiveCombiner(nil)
	})
	require.Panics(t, func() {
		controller.AddActiveAnimator(nil)
	})
	require.Equal(t, 0, controller.PendingCombiners())

	animator.EXPECT().Dispatch().Times(1)
	skinner.EXPECT().UpdateOutputTexture().Times(1)
	controller.Update()

	// Queues are per frame, so the same animator can be queued again after Update
	controller.AddActiveAnimator(animator)
	require.Equal(t, 1, controller.PendingAnimators())
}

func TestAnimatorsWriteRingBufferEntries(t *testing.T) {
	device, controller := readyController(t)
	ctrl := gomock.NewController(t)

	animator := mocks.NewMockAnimator(ctrl)
	animator.EXPECT().Dispatch().Do(func() {
		joints := controller.GetNextEntryJoints()
		joints.Set(0, ringpool.IdentityJoint())

		weights := controller.GetNextEntryWeights(2)
		weights.Set(1, 0.5)
	})

	controller.AddActiveAnimator(animator)
	require.NoError(t, controller.StartFrame())
	controller.Update()
	require.NoError(t, controller.EndFrame())

	jointCommits := device.Commits(controller.Pool().JointsBuffer())
	require.Len(t, jointCommits, 1)
	require.Equal(t, 4*ringpool.JointDataSize, jointCommits[0].Size)

	weightCommits := device.Commits(controller.Pool().WeightsBuffer())
	require.Len(t, weightCommits, 1)
	require.Equal(t, 4*ringpool.WeightSize, weightCommits[0].Size)
}
