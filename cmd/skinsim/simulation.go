package main

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/avatarskin/atlas"
	"github.com/vkngwrapper/avatarskin/blocks"
	"github.com/vkngwrapper/avatarskin/ringpool"
	"github.com/vkngwrapper/avatarskin/scheduler"
	"goki.dev/mat32/v2"
	"golang.org/x/exp/slog"
)

const (
	meshBlockSize    = 32
	simulatedJoints  = 24
	simulatedWeights = 8
)

// syntheticAnimator writes a rotating pose for every joint and a pulsing weight for every morph target
type syntheticAnimator struct {
	controller   *scheduler.Controller
	outputFrames int
	destination  scheduler.OutputFrame
	dispatches   int
}

var _ scheduler.Animator = &syntheticAnimator{}

func (a *syntheticAnimator) OutputFrames() int { return a.outputFrames }

func (a *syntheticAnimator) SetWriteDestination(frame scheduler.OutputFrame) {
	a.destination = frame
}

func (a *syntheticAnimator) Dispatch() {
	joints := a.controller.GetNextEntryJoints()
	angle := float32(a.dispatches) * 0.1

	count := min(simulatedJoints, joints.Len())
	for i := 0; i < count; i++ {
		joints.Set(i, rotationY(angle*float32(i+1)))
	}

	weights := a.controller.GetNextEntryWeights(min(simulatedWeights, a.controller.Pool().MaxWeights()))
	for i := 0; i < weights.Count; i++ {
		weights.Set(i, 0.5+0.5*mat32.Sin(angle+float32(i)))
	}

	a.dispatches++
}

// rotationY returns a joint rotated by theta radians around the Y axis
func rotationY(theta float32) ringpool.JointData {
	joint := ringpool.IdentityJoint()
	sin, cos := mat32.Sincos(theta)

	joint.Transform[0] = cos
	joint.Transform[2] = -sin
	joint.Transform[8] = sin
	joint.Transform[10] = cos
	joint.NormalTransform = joint.Transform
	return joint
}

type simulatedAvatar struct {
	renderable *scheduler.Renderable
	animator   *syntheticAnimator
	material   *scheduler.PropertyBlock

	combinedBlock blocks.Handle
	outputBlocks  []blocks.Handle
}

type simulationOptions struct {
	Avatars   int
	AnimEvery int
}

// simulation drives a set of avatars through a Context the way a game loop would: animation frames run
// every AnimEvery render frames and every avatar is rendered each frame.
type simulation struct {
	ctx       *scheduler.Context
	logger    *slog.Logger
	animEvery int
	frame     int
	avatars   []*simulatedAvatar
}

func newSimulation(ctx *scheduler.Context, options simulationOptions) (*simulation, error) {
	if options.Avatars < 0 {
		return nil, errors.Newf("avatar count must not be negative, got %d", options.Avatars)
	}
	if options.Avatars > ctx.Pool().BufferSize() {
		return nil, errors.Newf("%d avatars need more ring buffer entries than the %d available per frame",
			options.Avatars, ctx.Pool().BufferSize())
	}
	if options.AnimEvery < 1 {
		return nil, errors.Newf("animation frames must run at least every render frame, got %d", options.AnimEvery)
	}

	sim := &simulation{
		ctx:       ctx,
		logger:    newLogger(),
		animEvery: options.AnimEvery,
	}

	for i := 0; i < options.Avatars; i++ {
		avatar, err := sim.addAvatar(i)
		if err != nil {
			sim.Destroy()
			return nil, err
		}
		sim.avatars = append(sim.avatars, avatar)
	}

	return sim, nil
}

func (s *simulation) allocate(target *atlas.Atlas) (blocks.Handle, error) {
	handle, err := target.AddBlock(meshBlockSize, meshBlockSize)
	if err != nil {
		return blocks.InvalidHandle, err
	}
	if handle == blocks.InvalidHandle {
		return blocks.InvalidHandle, errors.Newf("atlas %q has no room for another %dx%d block", target.Name(), meshBlockSize, meshBlockSize)
	}

	texels := make([]byte, meshBlockSize*meshBlockSize*target.Format().TexelSize())
	err = target.UploadBlock(handle, texels)
	if err != nil {
		target.RemoveBlock(handle)
		return blocks.InvalidHandle, err
	}
	return handle, nil
}

func (s *simulation) addAvatar(index int) (*simulatedAvatar, error) {
	cfg := s.ctx.Config()
	avatar := &simulatedAvatar{
		animator: &syntheticAnimator{
			controller:   s.ctx.Controller(),
			outputFrames: cfg.MaxOutputFrames(),
		},
		material:      scheduler.NewPropertyBlock(),
		combinedBlock: blocks.InvalidHandle,
	}

	var err error
	avatar.combinedBlock, err = s.allocate(s.ctx.CombinedAtlas())
	if err != nil {
		return nil, err
	}

	for i := 0; i < cfg.MaxOutputFrames(); i++ {
		handle, err := s.allocate(s.ctx.OutputAtlas())
		if err != nil {
			s.release(avatar)
			return nil, err
		}
		avatar.outputBlocks = append(avatar.outputBlocks, handle)
	}

	name := "Avatar " + string(rune('A'+index%26))
	avatar.renderable = scheduler.NewRenderable(s.ctx, scheduler.RenderableOptions{
		Name:          name,
		Animator:      avatar.animator,
		Material:      avatar.material,
		Interpolation: scheduler.InterpolationValueFunc(s.interpolationValue),
		OnAnimationDataCompleted: func() {
			s.logger.LogAttrs(context.Background(), slog.LevelDebug, "avatar ready to render",
				slog.String("avatar", name),
				slog.Int("frame", s.frame),
			)
		},
	})
	avatar.renderable.OnAnimationEnabledChanged(true)

	return avatar, nil
}

// interpolationValue is the position of the current render frame between the last two animation frames
func (s *simulation) interpolationValue() float32 {
	return float32(s.frame%s.animEvery+1) / float32(s.animEvery)
}

// Step runs one render frame, preceded by an animation frame when one is due
func (s *simulation) Step() error {
	if s.frame%s.animEvery == 0 {
		for _, avatar := range s.avatars {
			avatar.renderable.AnimationFrameUpdate()
		}
	}

	for _, avatar := range s.avatars {
		avatar.renderable.RenderFrameUpdate()
	}

	err := s.ctx.Frame()
	if err != nil {
		return errors.Wrapf(err, "frame %d failed", s.frame)
	}

	s.frame++
	return nil
}

func (s *simulation) release(avatar *simulatedAvatar) {
	if avatar.renderable != nil {
		avatar.renderable.Destroy()
		avatar.renderable = nil
	}
	if avatar.combinedBlock != blocks.InvalidHandle {
		s.ctx.CombinedAtlas().RemoveBlock(avatar.combinedBlock)
		avatar.combinedBlock = blocks.InvalidHandle
	}
	for _, handle := range avatar.outputBlocks {
		s.ctx.OutputAtlas().RemoveBlock(handle)
	}
	avatar.outputBlocks = nil
}

func (s *simulation) Destroy() {
	for _, avatar := range s.avatars {
		s.release(avatar)
	}
	s.avatars = nil
}
