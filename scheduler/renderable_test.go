package scheduler_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/avatarskin/config"
	"github.com/vkngwrapper/avatarskin/gpu/host"
	"github.com/vkngwrapper/avatarskin/scheduler"
	"github.com/vkngwrapper/avatarskin/scheduler/mocks"
	"go.uber.org/mock/gomock"
	"goki.dev/mat32/v2"
	"golang.org/x/exp/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testConfig() config.Configuration {
	cfg := config.Default()
	cfg.Atlas.Width = 64
	cfg.Atlas.Height = 64
	cfg.Pool.BufferSize = 4
	cfg.Pool.MaxJoints = 8
	cfg.Pool.MaxWeights = 8
	return cfg
}

func readyContext(t *testing.T, cfg config.Configuration) (*host.Device, *scheduler.Context) {
	device := host.New(testLogger(), host.CreateOptions{})
	ctx, err := scheduler.NewContext(testLogger(), scheduler.ContextOptions{
		Device: device,
		Config: cfg,
	})
	require.NoError(t, err)
	t.Cleanup(ctx.Destroy)
	return device, ctx
}

func requireInt(t *testing.T, block *scheduler.PropertyBlock, property scheduler.MaterialProperty, expected scheduler.OutputFrame) {
	t.Helper()
	value, ok := block.Int(property)
	require.True(t, ok, "%s was not published", property)
	require.Equal(t, int(expected), value, "%s", property)
}

func requireFloat(t *testing.T, block *scheduler.PropertyBlock, property scheduler.MaterialProperty, expected float32) {
	t.Helper()
	value, ok := block.Float(property)
	require.True(t, ok, "%s was not published", property)
	require.InDelta(t, expected, value, 1e-6, "%s", property)
}

func TestSingleFrameValidAfterTwoAnimationFrames(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	material := scheduler.NewPropertyBlock()

	completed := 0
	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		Name:                     "single",
		MaxOutputFrames:          1,
		Material:                 material,
		Interpolation:            scheduler.InterpolationValueFunc(func() float32 { return 0.25 }),
		OnAnimationDataCompleted: func() { completed++ },
	})
	require.False(t, r.Interpolated())

	r.OnAnimationEnabledChanged(true)
	for i := 0; i < 2; i++ {
		require.False(t, r.IsAnimationDataValid())
		r.RenderFrameUpdate()
		requireFloat(t, material, scheduler.PropertyLerpValue, 1)
		requireInt(t, material, scheduler.PropertyLatestAnimFrameOffset, scheduler.OutputFrameZero)

		r.AnimationFrameUpdate()
		require.Equal(t, scheduler.OutputFrameZero, r.WriteDestination())
	}

	require.True(t, r.IsAnimationDataValid())
	require.Equal(t, 2, r.ValidityCounter())
	require.Equal(t, 1, completed)

	r.RenderFrameUpdate()
	requireFloat(t, material, scheduler.PropertyLerpValue, 0.25)

	r.AnimationFrameUpdate()
	require.Equal(t, 2, r.ValidityCounter())
	require.Equal(t, 1, completed)

	r.OnAnimationEnabledChanged(false)
	r.OnAnimationEnabledChanged(true)
	require.Equal(t, 0, r.ValidityCounter())
	require.False(t, r.IsAnimationDataValid())

	r.AnimationFrameUpdate()
	r.AnimationFrameUpdate()
	require.Equal(t, 2, completed)
}

func TestAnimationFrameUpdateIgnoredWhileDisabled(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{MaxOutputFrames: 2})

	r.AnimationFrameUpdate()
	require.Equal(t, 0, r.ValidityCounter())
	require.Equal(t, scheduler.OutputFrameZero, r.WriteDestination())

	r.OnAnimationEnabledChanged(true)
	r.AnimationFrameUpdate()
	require.Equal(t, 1, r.ValidityCounter())
}

func TestInterpolatedWriteSequenceAndInversion(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	material := scheduler.NewPropertyBlock()

	provided := float32(0.3)
	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		Name:            "interpolated",
		MaxOutputFrames: 2,
		Material:        material,
		Interpolation:   scheduler.InterpolationValueFunc(func() float32 { return provided }),
	})
	require.True(t, r.Interpolated())

	r.OnAnimationEnabledChanged(true)
	initial := r.WriteDestination()
	require.Equal(t, scheduler.OutputFrameOne, initial)

	for n := 1; n <= 6; n++ {
		r.AnimationFrameUpdate()
		require.Equal(t, scheduler.OutputFrame((int(initial)+n)%2), r.WriteDestination())

		r.RenderFrameUpdate()
		expected := provided
		if n < 2 {
			expected = 1
		}
		if r.WriteDestination() == scheduler.OutputFrameZero {
			expected = 1 - expected
		}
		requireFloat(t, material, scheduler.PropertyLerpValue, expected)
		requireInt(t, material, scheduler.PropertyLatestAnimFrameOffset, r.WriteDestination())
		requireInt(t, material, scheduler.PropertyPrevAnimFrameOffset, r.PrevAnimWriteDestination())
	}
}

func TestInterpolationValueIsClamped(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	material := scheduler.NewPropertyBlock()

	provided := float32(1.5)
	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		MaxOutputFrames: 2,
		Material:        material,
		Interpolation:   scheduler.InterpolationValueFunc(func() float32 { return provided }),
	})
	r.OnAnimationEnabledChanged(true)
	r.AnimationFrameUpdate()
	r.AnimationFrameUpdate()
	require.Equal(t, scheduler.OutputFrameOne, r.WriteDestination())

	r.RenderFrameUpdate()
	requireFloat(t, material, scheduler.PropertyLerpValue, 1)

	provided = -2
	r.RenderFrameUpdate()
	requireFloat(t, material, scheduler.PropertyLerpValue, 0)
}

func TestInterpolatedOriginFollowsSlices(t *testing.T) {
	_, ctx := readyContext(t, testConfig())

	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		MaxOutputFrames: 2,
		Interpolation:   scheduler.InterpolationValueFunc(func() float32 { return 0.3 }),
	})
	r.OnAnimationEnabledChanged(true)

	originAt := func(x float32) scheduler.SkinningOrigin {
		origin := scheduler.IdentityOrigin()
		origin.Position = mat32.V3(x, 0, 0)
		return origin
	}

	r.AnimationFrameUpdate()
	r.UpdateSkinningOrigin(originAt(0))
	r.AnimationFrameUpdate()
	r.UpdateSkinningOrigin(originAt(10))

	r.RenderFrameUpdate()
	require.InDelta(t, 3, r.RenderedOrigin().Position.X, 1e-4)

	r.AnimationFrameUpdate()
	r.UpdateSkinningOrigin(originAt(20))

	r.RenderFrameUpdate()
	require.InDelta(t, 13, r.RenderedOrigin().Position.X, 1e-4)
	require.InDelta(t, 1, r.RenderedOrigin().Scale.Y, 1e-6)
	require.InDelta(t, 1, r.RenderedOrigin().Rotation.W, 1e-6)
}

func TestMotionVectorsTrackPreviousRenderFrame(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	material := scheduler.NewPropertyBlock()

	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		MaxOutputFrames:  2,
		HasMotionVectors: true,
		Material:         material,
	})
	require.False(t, r.Interpolated())

	r.OnAnimationEnabledChanged(true)
	r.OnEnable()
	require.False(t, r.IsAnimationDataValid())

	r.AnimationFrameUpdate()
	require.True(t, r.IsAnimationDataValid())
	require.Equal(t, scheduler.OutputFrameZero, r.WriteDestination())

	r.RenderFrameUpdate()
	requireInt(t, material, scheduler.PropertyLatestAnimFrameOffset, scheduler.OutputFrameZero)
	requireInt(t, material, scheduler.PropertyPrevRenderLatestAnimFrameOffset, scheduler.OutputFrameZero)

	r.AnimationFrameUpdate()
	r.RenderFrameUpdate()
	requireInt(t, material, scheduler.PropertyLatestAnimFrameOffset, scheduler.OutputFrameOne)
	requireInt(t, material, scheduler.PropertyPrevRenderLatestAnimFrameOffset, scheduler.OutputFrameZero)

	r.RenderFrameUpdate()
	requireInt(t, material, scheduler.PropertyLatestAnimFrameOffset, scheduler.OutputFrameOne)
	requireInt(t, material, scheduler.PropertyPrevRenderLatestAnimFrameOffset, scheduler.OutputFrameOne)
	require.Equal(t, float32(1), r.LerpValue())

	_, published := material.Float(scheduler.PropertyLerpValue)
	require.False(t, published)
}

func TestInterpolatedMotionVectorsTrackPreviousRenderFrame(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	material := scheduler.NewPropertyBlock()

	provided := float32(0.5)
	completed := 0
	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		MaxOutputFrames:          3,
		HasMotionVectors:         true,
		Material:                 material,
		Interpolation:            scheduler.InterpolationValueFunc(func() float32 { return provided }),
		OnAnimationDataCompleted: func() { completed++ },
	})
	require.True(t, r.Interpolated())

	r.OnAnimationEnabledChanged(true)
	r.OnEnable()

	r.AnimationFrameUpdate()
	require.Equal(t, scheduler.OutputFrameTwo, r.WriteDestination())
	require.Equal(t, scheduler.OutputFrameOne, r.PrevAnimWriteDestination())

	// The first render after enabling has no history, so it reports itself as the previous frame
	r.RenderFrameUpdate()
	requireInt(t, material, scheduler.PropertyLatestAnimFrameOffset, scheduler.OutputFrameTwo)
	requireInt(t, material, scheduler.PropertyPrevAnimFrameOffset, scheduler.OutputFrameOne)
	requireFloat(t, material, scheduler.PropertyLerpValue, 1)
	requireInt(t, material, scheduler.PropertyPrevRenderLatestAnimFrameOffset, scheduler.OutputFrameTwo)
	requireInt(t, material, scheduler.PropertyPrevRenderPrevAnimFrameOffset, scheduler.OutputFrameTwo)
	requireFloat(t, material, scheduler.PropertyPrevRenderLerpValue, 1)

	r.AnimationFrameUpdate()
	require.Equal(t, 1, completed)
	require.Equal(t, scheduler.OutputFrameZero, r.WriteDestination())

	provided = 0.25
	r.RenderFrameUpdate()
	requireInt(t, material, scheduler.PropertyLatestAnimFrameOffset, scheduler.OutputFrameZero)
	requireInt(t, material, scheduler.PropertyPrevAnimFrameOffset, scheduler.OutputFrameTwo)
	requireFloat(t, material, scheduler.PropertyLerpValue, 0.25)
	requireInt(t, material, scheduler.PropertyPrevRenderPrevAnimFrameOffset, scheduler.OutputFrameTwo)
	requireFloat(t, material, scheduler.PropertyPrevRenderLerpValue, 1)

	provided = 0.75
	r.RenderFrameUpdate()
	requireFloat(t, material, scheduler.PropertyLerpValue, 0.75)
	requireInt(t, material, scheduler.PropertyPrevRenderPrevAnimFrameOffset, scheduler.OutputFrameZero)
	requireFloat(t, material, scheduler.PropertyPrevRenderLerpValue, 0.25)

	r.AnimationFrameUpdate()
	require.Equal(t, scheduler.OutputFrameOne, r.WriteDestination())
	r.AnimationFrameUpdate()
	require.Equal(t, scheduler.OutputFrameTwo, r.WriteDestination())
	require.Equal(t, 1, completed)
}

func TestInterpolatedMotionVectorOrigin(t *testing.T) {
	_, ctx := readyContext(t, testConfig())

	provided := float32(0.5)
	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		MaxOutputFrames:  3,
		HasMotionVectors: true,
		Interpolation:    scheduler.InterpolationValueFunc(func() float32 { return provided }),
	})
	r.OnAnimationEnabledChanged(true)

	first := scheduler.IdentityOrigin()
	first.Position = mat32.V3(0, 4, 0)
	second := scheduler.IdentityOrigin()
	second.Position = mat32.V3(0, 8, 0)

	r.AnimationFrameUpdate()
	r.UpdateSkinningOrigin(first)
	r.RenderFrameUpdate()
	require.InDelta(t, 4, r.RenderedOrigin().Position.Y, 1e-4)

	r.AnimationFrameUpdate()
	r.UpdateSkinningOrigin(second)
	r.RenderFrameUpdate()
	require.InDelta(t, 6, r.RenderedOrigin().Position.Y, 1e-4)

	provided = 1
	r.RenderFrameUpdate()
	require.InDelta(t, 8, r.RenderedOrigin().Position.Y, 1e-4)

	// Re-enabling forgets the old origin instead of blending from it
	r.OnAnimationEnabledChanged(true)
	r.AnimationFrameUpdate()
	r.UpdateSkinningOrigin(first)
	provided = 0.5
	r.RenderFrameUpdate()
	require.InDelta(t, 4, r.RenderedOrigin().Position.Y, 1e-4)
}

func TestRenderableDefaultsFromConfig(t *testing.T) {
	testCases := []struct {
		name             string
		motionSmoothing  bool
		spaceWarp        bool
		expectedFrames   int
		expectedMotion   bool
		expectedInterped bool
	}{
		{name: "Plain", expectedFrames: 1},
		{name: "MotionSmoothing", motionSmoothing: true, expectedFrames: 2, expectedInterped: true},
		{name: "SpaceWarp", spaceWarp: true, expectedFrames: 2, expectedMotion: true},
		{name: "Both", motionSmoothing: true, spaceWarp: true, expectedFrames: 3, expectedMotion: true, expectedInterped: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MotionSmoothing = testCase.motionSmoothing
			cfg.SupportApplicationSpaceWarp = testCase.spaceWarp
			_, ctx := readyContext(t, cfg)

			r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{})
			require.Equal(t, testCase.expectedFrames, r.MaxOutputFrames())
			require.Equal(t, testCase.expectedMotion, r.HasMotionVectors())
			require.Equal(t, testCase.expectedInterped, r.Interpolated())
			require.Equal(t, 1, ctx.RenderableCount())

			r.Destroy()
			require.Equal(t, 0, ctx.RenderableCount())
		})
	}
}

func TestRenderableRejectsBadCombinations(t *testing.T) {
	_, ctx := readyContext(t, testConfig())

	require.Panics(t, func() {
		scheduler.NewRenderable(ctx, scheduler.RenderableOptions{MaxOutputFrames: 1, HasMotionVectors: true})
	})
	require.Panics(t, func() {
		scheduler.NewRenderable(ctx, scheduler.RenderableOptions{MaxOutputFrames: 3})
	})
	require.Panics(t, func() {
		scheduler.NewRenderable(ctx, scheduler.RenderableOptions{MaxOutputFrames: 4, HasMotionVectors: true})
	})
	require.Equal(t, 0, ctx.RenderableCount())
}

func TestRenderableRejectsKernelMismatch(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	ctrl := gomock.NewController(t)

	animator := mocks.NewMockAnimator(ctrl)
	animator.EXPECT().OutputFrames().Return(1).AnyTimes()

	require.Panics(t, func() {
		scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
			MaxOutputFrames:  3,
			HasMotionVectors: true,
			Animator:         animator,
		})
	})
}

func TestAnimationFrameUpdateDispatchesAnimator(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	ctrl := gomock.NewController(t)

	animator := mocks.NewMockAnimator(ctrl)
	animator.EXPECT().OutputFrames().Return(2).AnyTimes()

	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		MaxOutputFrames: 2,
		Animator:        animator,
	})
	r.OnAnimationEnabledChanged(true)

	gomock.InOrder(
		animator.EXPECT().SetWriteDestination(scheduler.OutputFrameZero),
		animator.EXPECT().Dispatch(),
		animator.EXPECT().SetWriteDestination(scheduler.OutputFrameOne),
		animator.EXPECT().Dispatch(),
	)

	r.AnimationFrameUpdate()
	require.Equal(t, 1, ctx.Controller().PendingAnimators())
	require.NoError(t, ctx.Frame())
	require.Equal(t, 0, ctx.Controller().PendingAnimators())

	r.AnimationFrameUpdate()
	require.NoError(t, ctx.Frame())
}

func TestRepeatedAnimationFramesDispatchOncePerProcessFrame(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	ctrl := gomock.NewController(t)

	animator := mocks.NewMockAnimator(ctrl)
	animator.EXPECT().OutputFrames().Return(2).AnyTimes()

	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		MaxOutputFrames: 2,
		Animator:        animator,
	})
	r.OnAnimationEnabledChanged(true)

	var destination scheduler.OutputFrame
	animator.EXPECT().SetWriteDestination(gomock.Any()).Do(func(frame scheduler.OutputFrame) {
		destination = frame
	}).Times(2)
	animator.EXPECT().Dispatch().Times(1)

	r.AnimationFrameUpdate()
	r.AnimationFrameUpdate()
	require.Equal(t, 1, ctx.Controller().PendingAnimators())
	require.Equal(t, scheduler.OutputFrameOne, r.WriteDestination())

	r.RenderFrameUpdate()
	require.NotPanics(t, func() {
		require.NoError(t, ctx.Frame())
	})
	require.Equal(t, scheduler.OutputFrameOne, destination)
	require.Equal(t, 0, ctx.Controller().PendingAnimators())
	require.True(t, r.IsAnimationDataValid())
}

func TestMotionVectorsReportCompletedOnce(t *testing.T) {
	_, ctx := readyContext(t, testConfig())

	completed := 0
	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		MaxOutputFrames:          2,
		HasMotionVectors:         true,
		OnAnimationDataCompleted: func() { completed++ },
	})

	r.OnAnimationEnabledChanged(true)
	for i := 0; i < 3; i++ {
		r.AnimationFrameUpdate()
	}
	require.True(t, r.IsAnimationDataValid())
	require.Equal(t, 1, r.ValidityCounter())
	require.Equal(t, 1, completed)

	r.OnAnimationEnabledChanged(true)
	require.False(t, r.IsAnimationDataValid())
	r.AnimationFrameUpdate()
	require.Equal(t, 2, completed)
}

func TestRenderPublishesThroughMaterialMock(t *testing.T) {
	_, ctx := readyContext(t, testConfig())
	ctrl := gomock.NewController(t)

	material := mocks.NewMockMaterial(ctrl)
	provider := mocks.NewMockInterpolationValueProvider(ctrl)

	r := scheduler.NewRenderable(ctx, scheduler.RenderableOptions{
		MaxOutputFrames: 1,
		Material:        material,
		Interpolation:   provider,
	})

	provider.EXPECT().RenderInterpolationValue().Return(float32(0.5))
	material.EXPECT().SetFloat(scheduler.PropertyLerpValue, float32(1))
	material.EXPECT().SetInt(scheduler.PropertyLatestAnimFrameOffset, 0)

	r.RenderFrameUpdate()
}
