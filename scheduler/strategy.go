package scheduler

// renderStrategy holds the behaviour that differs between output slice counts and motion vector support.
// Renderable does the bookkeeping that is shared by all of them.
type renderStrategy struct {
	name string
	// requiredValidFrames is the number of animation frames needed before rendering may interpolate
	requiredValidFrames int
	interpolated        bool

	enableAnimation      func(r *Renderable)
	enable               func(r *Renderable)
	animationFrameUpdate func(r *Renderable)
	renderFrameUpdate    func(r *Renderable)
	updateSkinningOrigin func(r *Renderable, origin SkinningOrigin)
}

type strategyKey struct {
	maxOutputFrames  int
	hasMotionVectors bool
}

var strategies = map[strategyKey]*renderStrategy{
	{maxOutputFrames: 1, hasMotionVectors: false}: &singleFrameStrategy,
	{maxOutputFrames: 2, hasMotionVectors: false}: &interpolatedStrategy,
	{maxOutputFrames: 2, hasMotionVectors: true}:  &motionVectorStrategy,
	{maxOutputFrames: 3, hasMotionVectors: true}:  &interpolatedMotionVectorStrategy,
}

func noop(*Renderable) {}

func replaceOrigin(r *Renderable, origin SkinningOrigin) {
	r.currentOrigin = origin
}

// singleFrameStrategy writes every animation frame into slice Zero. Rendering always shows the latest
// frame; the published lerp value stays at 1 until enough animation frames have been produced.
var singleFrameStrategy = renderStrategy{
	name:                "SingleFrame",
	requiredValidFrames: 2,

	enableAnimation: func(r *Renderable) {
		r.validFrames = 0
		r.writeDestination = OutputFrameZero
		r.prevAnimWriteDestination = OutputFrameZero
	},
	enable: noop,
	animationFrameUpdate: func(r *Renderable) {
		r.countValidFrame()
		r.dispatch()
	},
	renderFrameUpdate: func(r *Renderable) {
		lerp := r.clampedInterpolationValue()

		r.renderedOrigin = r.currentOrigin
		r.publishFloat(PropertyLerpValue, lerp)
		r.publishInt(PropertyLatestAnimFrameOffset, r.writeDestination)
	},
	updateSkinningOrigin: replaceOrigin,
}

// interpolatedStrategy alternates between two slices and interpolates from the older to the newer one.
// The shader always lerps from slice Zero to slice One, so the value is inverted whenever Zero is newest.
var interpolatedStrategy = renderStrategy{
	name:                "Interpolated",
	requiredValidFrames: 2,
	interpolated:        true,

	enableAnimation: func(r *Renderable) {
		r.validFrames = 0
		r.writeDestination = OutputFrameOne
		r.prevAnimWriteDestination = r.writeDestination
	},
	enable: noop,
	animationFrameUpdate: func(r *Renderable) {
		r.writeDestination = NextOutputFrame(r.writeDestination, r.maxOutputFrames)
		r.countValidFrame()
		r.dispatch()
		r.prevAnimWriteDestination = r.writeDestination
	},
	renderFrameUpdate: func(r *Renderable) {
		lerp := r.clampedInterpolationValue()
		if r.writeDestination == OutputFrameZero {
			lerp = 1 - lerp
		}

		r.renderedOrigin = LerpOrigins(r.originFrameZero, r.originFrameOne, lerp)
		r.publishFloat(PropertyLerpValue, lerp)
		r.publishInt(PropertyLatestAnimFrameOffset, r.writeDestination)
		r.publishInt(PropertyPrevAnimFrameOffset, r.prevAnimWriteDestination)
	},
	updateSkinningOrigin: func(r *Renderable, origin SkinningOrigin) {
		switch r.writeDestination {
		case OutputFrameZero:
			r.originFrameZero = origin
		case OutputFrameOne:
			r.originFrameOne = origin
		}
	},
}

// motionVectorStrategy alternates between two slices without interpolating. The second slice holds the
// output seen by the previous render frame so motion vectors can be generated.
var motionVectorStrategy = renderStrategy{
	name:                "MotionVectors",
	requiredValidFrames: 1,

	enableAnimation: func(r *Renderable) {
		r.validFrames = 0
		r.writeDestination = OutputFrameOne
	},
	enable: func(r *Renderable) {
		r.hasPrevRenderFrame = false
		r.prevRenderWriteDestination = r.writeDestination
	},
	animationFrameUpdate: func(r *Renderable) {
		r.countValidFrame()
		r.writeDestination = NextOutputFrame(r.writeDestination, r.maxOutputFrames)
		r.dispatch()
	},
	renderFrameUpdate: func(r *Renderable) {
		if !r.hasPrevRenderFrame {
			r.prevRenderWriteDestination = r.writeDestination
			r.hasPrevRenderFrame = true
		}

		r.renderedOrigin = r.currentOrigin
		r.lerpValue = 1
		r.publishInt(PropertyLatestAnimFrameOffset, r.writeDestination)
		r.publishInt(PropertyPrevRenderLatestAnimFrameOffset, r.prevRenderWriteDestination)

		r.prevRenderWriteDestination = r.writeDestination
	},
	updateSkinningOrigin: replaceOrigin,
}

// interpolatedMotionVectorStrategy cycles through three slices: the two being interpolated between by the
// current render frame, plus the one the previous render frame still needs for motion vectors.
var interpolatedMotionVectorStrategy = renderStrategy{
	name:                "InterpolatedMotionVectors",
	requiredValidFrames: 2,
	interpolated:        true,

	enableAnimation: func(r *Renderable) {
		r.validFrames = 0
		r.writeDestination = OutputFrameOne
		r.prevAnimWriteDestination = r.writeDestination
	},
	enable: func(r *Renderable) {
		r.renderLerpValue = 0
		r.prevRenderLerpValue = 0
		r.hasPrevRenderFrame = false
		r.renderWriteDestination = r.writeDestination
		r.prevRenderWriteDestination = r.writeDestination
	},
	animationFrameUpdate: func(r *Renderable) {
		r.countValidFrame()
		r.prevAnimWriteDestination = r.writeDestination
		r.writeDestination = NextOutputFrame(r.writeDestination, r.maxOutputFrames)
		r.dispatch()
	},
	renderFrameUpdate: func(r *Renderable) {
		lerp := r.clampedInterpolationValue()

		if !r.hasPrevRenderFrame {
			r.prevRenderWriteDestination = r.writeDestination
			r.prevRenderLerpValue = lerp
			r.hasPrevRenderFrame = true
		} else {
			r.prevRenderWriteDestination = r.renderWriteDestination
			r.prevRenderLerpValue = r.renderLerpValue
		}
		r.renderWriteDestination = r.writeDestination
		r.renderLerpValue = lerp

		r.renderedOrigin = LerpOrigins(r.prevOrigin, r.currentOrigin, lerp)
		r.publishInt(PropertyLatestAnimFrameOffset, r.writeDestination)
		r.publishInt(PropertyPrevAnimFrameOffset, r.prevAnimWriteDestination)
		r.publishFloat(PropertyLerpValue, lerp)
		r.publishInt(PropertyPrevRenderLatestAnimFrameOffset, r.renderWriteDestination)
		r.publishInt(PropertyPrevRenderPrevAnimFrameOffset, r.prevRenderWriteDestination)
		r.publishFloat(PropertyPrevRenderLerpValue, r.prevRenderLerpValue)
	},
	// Until the data is valid there is no earlier origin worth blending from, so both ends snap to the
	// new one.
	updateSkinningOrigin: func(r *Renderable, origin SkinningOrigin) {
		if r.IsAnimationDataValid() {
			r.prevOrigin = r.currentOrigin
		} else {
			r.prevOrigin = origin
		}
		r.currentOrigin = origin
	},
}
