package scheduler

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"
)

// RenderableOptions describes a skinned mesh when creating a Renderable
type RenderableOptions struct {
	Name string
	// MaxOutputFrames is the number of output slices the mesh cycles through. When it is 0, both it and
	// HasMotionVectors are taken from the Context's configuration.
	MaxOutputFrames  int
	HasMotionVectors bool

	// Animator is dispatched once per animation frame. It may be nil for meshes that only need the
	// scheduling state, such as meshes skinned elsewhere.
	Animator Animator
	// Material receives the shader parameters on every render frame. It may be nil.
	Material Material
	// Interpolation provides the render interpolation value. When nil, 1 is used.
	Interpolation InterpolationValueProvider
	// OnAnimationDataCompleted is called once the mesh has produced enough animation frames to render
	OnAnimationDataCompleted func()
}

// Renderable tracks which output slice of a skinned mesh each animation frame is written to, and tells the
// mesh's material which slices to read and how to blend them on every render frame.
//
// All methods must be called from the thread that drives the Context.
type Renderable struct {
	ctx      *Context
	logger   *slog.Logger
	name     string
	strategy *renderStrategy

	maxOutputFrames  int
	hasMotionVectors bool

	animator      Animator
	material      Material
	interpolation InterpolationValueProvider
	onCompleted   func()

	animationEnabled bool
	validFrames      int

	writeDestination           OutputFrame
	prevAnimWriteDestination   OutputFrame
	renderWriteDestination     OutputFrame
	prevRenderWriteDestination OutputFrame
	hasPrevRenderFrame         bool
	renderLerpValue            float32
	prevRenderLerpValue        float32
	lerpValue                  float32

	originFrameZero SkinningOrigin
	originFrameOne  SkinningOrigin
	prevOrigin      SkinningOrigin
	currentOrigin   SkinningOrigin
	renderedOrigin  SkinningOrigin
}

// NewRenderable creates the scheduling state for one skinned mesh and registers it with ctx.
//
// It panics if the combination of output frames and motion vectors is not one of (1, false), (2, false),
// (2, true) or (3, true), or if the animator's kernel was built for a different number of output frames.
func NewRenderable(ctx *Context, options RenderableOptions) *Renderable {
	if options.MaxOutputFrames == 0 {
		options.MaxOutputFrames = ctx.config.MaxOutputFrames()
		options.HasMotionVectors = ctx.config.HasMotionVectors()
	}

	strategy, ok := strategies[strategyKey{maxOutputFrames: options.MaxOutputFrames, hasMotionVectors: options.HasMotionVectors}]
	if !ok {
		panic(fmt.Sprintf("scheduler: unsupported combination of %d output frames with motion vectors %t",
			options.MaxOutputFrames, options.HasMotionVectors))
	}

	if options.Animator != nil && options.Animator.OutputFrames() != options.MaxOutputFrames {
		panic(fmt.Sprintf("scheduler: animator for %q was built for %d output frames but the mesh uses %d",
			options.Name, options.Animator.OutputFrames(), options.MaxOutputFrames))
	}

	origin := IdentityOrigin()
	r := &Renderable{
		ctx:              ctx,
		logger:           ctx.logger,
		name:             options.Name,
		strategy:         strategy,
		maxOutputFrames:  options.MaxOutputFrames,
		hasMotionVectors: options.HasMotionVectors,
		animator:         options.Animator,
		material:         options.Material,
		interpolation:    options.Interpolation,
		onCompleted:      options.OnAnimationDataCompleted,
		lerpValue:        1,

		originFrameZero: origin,
		originFrameOne:  origin,
		prevOrigin:      origin,
		currentOrigin:   origin,
		renderedOrigin:  origin,
	}

	ctx.register(r)
	r.OnEnable()

	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "Renderable::New",
		slog.String("name", r.name),
		slog.String("strategy", strategy.name),
		slog.Int("maxOutputFrames", r.maxOutputFrames),
	)
	return r
}

func (r *Renderable) Name() string           { return r.name }
func (r *Renderable) MaxOutputFrames() int   { return r.maxOutputFrames }
func (r *Renderable) HasMotionVectors() bool { return r.hasMotionVectors }

// Interpolated returns true if render frames blend between two animation frames
func (r *Renderable) Interpolated() bool { return r.strategy.interpolated }

// AnimationEnabled returns the value last passed to OnAnimationEnabledChanged
func (r *Renderable) AnimationEnabled() bool { return r.animationEnabled }

// ValidityCounter returns the number of animation frames counted towards IsAnimationDataValid
func (r *Renderable) ValidityCounter() int { return r.validFrames }

// IsAnimationDataValid returns true once enough animation frames have been produced since animation was
// last enabled for rendering to use them
func (r *Renderable) IsAnimationDataValid() bool {
	return r.validFrames >= r.strategy.requiredValidFrames
}

// WriteDestination returns the output slice written by the most recent animation frame
func (r *Renderable) WriteDestination() OutputFrame { return r.writeDestination }

// PrevAnimWriteDestination returns the output slice written by the animation frame before the most recent
func (r *Renderable) PrevAnimWriteDestination() OutputFrame { return r.prevAnimWriteDestination }

// PrevRenderWriteDestination returns the latest output slice as seen by the previous render frame
func (r *Renderable) PrevRenderWriteDestination() OutputFrame { return r.prevRenderWriteDestination }

// LerpValue returns the interpolation value published by the most recent render frame
func (r *Renderable) LerpValue() float32 { return r.lerpValue }

// RenderedOrigin returns the skinning origin used by the most recent render frame
func (r *Renderable) RenderedOrigin() SkinningOrigin { return r.renderedOrigin }

// OnAnimationEnabledChanged must be called when the mesh's animation is switched on or off. Enabling
// animation resets the validity counter so stale output slices are never rendered.
func (r *Renderable) OnAnimationEnabledChanged(enabled bool) {
	r.animationEnabled = enabled
	if enabled {
		r.strategy.enableAnimation(r)
	}
}

// OnEnable must be called when the mesh becomes visible. It forgets the previous render frame.
func (r *Renderable) OnEnable() {
	r.strategy.enable(r)
}

// AnimationFrameUpdate advances the mesh to a new animation frame: it chooses the next output slice and
// registers the animator with the controller so it is dispatched by the next Controller.Update.
// It does nothing while animation is disabled.
func (r *Renderable) AnimationFrameUpdate() {
	if !r.animationEnabled {
		return
	}
	r.strategy.animationFrameUpdate(r)
}

// RenderFrameUpdate publishes the output slices and interpolation values for the current render frame
// to the material
func (r *Renderable) RenderFrameUpdate() {
	r.strategy.renderFrameUpdate(r)
}

// UpdateSkinningOrigin records the origin the current animation frame was skinned relative to
func (r *Renderable) UpdateSkinningOrigin(origin SkinningOrigin) {
	r.strategy.updateSkinningOrigin(r, origin)
}

// Destroy unregisters the renderable from its Context
func (r *Renderable) Destroy() {
	r.ctx.unregister(r)
}

func (r *Renderable) countValidFrame() {
	wasValid := r.IsAnimationDataValid()
	if r.validFrames < r.strategy.requiredValidFrames {
		r.validFrames++
	}

	if !wasValid && r.IsAnimationDataValid() {
		r.logger.LogAttrs(context.Background(), slog.LevelDebug, "Renderable::AnimationDataCompleted",
			slog.String("name", r.name),
		)
		if r.onCompleted != nil {
			r.onCompleted()
		}
	}
}

func (r *Renderable) dispatch() {
	if r.animator == nil {
		return
	}
	r.animator.SetWriteDestination(r.writeDestination)
	r.ctx.controller.AddActiveAnimator(r.animator)
}

// clampedInterpolationValue returns the provider's value clamped to [0, 1], or 1 if the animation data
// is not yet valid. It also records the value as the published lerp value.
func (r *Renderable) clampedInterpolationValue() float32 {
	lerp := float32(1)
	if r.interpolation != nil {
		lerp = clamp01(r.interpolation.RenderInterpolationValue())
	}
	if !r.IsAnimationDataValid() {
		lerp = 1
	}
	r.lerpValue = lerp
	return lerp
}

func (r *Renderable) publishInt(property MaterialProperty, frame OutputFrame) {
	if r.material != nil {
		r.material.SetInt(property, int(frame))
	}
}

func (r *Renderable) publishFloat(property MaterialProperty, value float32) {
	if r.material != nil {
		r.material.SetFloat(property, value)
	}
}
