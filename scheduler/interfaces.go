package scheduler

//go:generate mockgen -source interfaces.go -destination mocks/mocks.go -package mocks

// InterpolationValueProvider supplies the fraction of the way the current render frame is between the
// two most recent animation frames
type InterpolationValueProvider interface {
	RenderInterpolationValue() float32
}

// InterpolationValueFunc adapts a function to an InterpolationValueProvider
type InterpolationValueFunc func() float32

func (f InterpolationValueFunc) RenderInterpolationValue() float32 {
	return f()
}

// Animator runs a mesh's skinning kernel, writing the results into one of its output slices
type Animator interface {
	// OutputFrames is the number of output slices the kernel was built to write
	OutputFrames() int
	// SetWriteDestination chooses the slice written by the next dispatch
	SetWriteDestination(frame OutputFrame)
	// Dispatch records the kernel. It is called by Controller.Update.
	Dispatch()
}

// MorphTargetCombiner blends a mesh's morph targets into the combined morph target atlas
type MorphTargetCombiner interface {
	CombineMorphTargets()
}

// Skinner writes a mesh's skinned vertices into the skinner output atlas
type Skinner interface {
	UpdateOutputTexture()
}

// MaterialProperty identifies a shader parameter the scheduler publishes for a mesh
type MaterialProperty int

const (
	// PropertyLerpValue is the interpolation value between the previous and latest animation frames
	PropertyLerpValue MaterialProperty = iota
	// PropertyLatestAnimFrameOffset is the output slice holding the latest animation frame
	PropertyLatestAnimFrameOffset
	// PropertyPrevAnimFrameOffset is the output slice holding the animation frame before the latest
	PropertyPrevAnimFrameOffset
	// PropertyPrevRenderLatestAnimFrameOffset is the latest animation slice as of the previous render frame
	PropertyPrevRenderLatestAnimFrameOffset
	// PropertyPrevRenderPrevAnimFrameOffset is the previous animation slice as of the previous render frame
	PropertyPrevRenderPrevAnimFrameOffset
	// PropertyPrevRenderLerpValue is the interpolation value used by the previous render frame
	PropertyPrevRenderLerpValue
)

var materialPropertyNames = map[MaterialProperty]string{
	PropertyLerpValue:                       "AttributeInterpolationValue",
	PropertyLatestAnimFrameOffset:           "AttributeOutputLatestAnimFrameEntryOffset",
	PropertyPrevAnimFrameOffset:             "AttributeOutputPrevAnimFrameEntryOffset",
	PropertyPrevRenderLatestAnimFrameOffset: "AttributeOutputPrevRenderFrameLatestAnimFrameOffset",
	PropertyPrevRenderPrevAnimFrameOffset:   "AttributeOutputPrevRenderFramePrevAnimFrameOffset",
	PropertyPrevRenderLerpValue:             "PrevRenderFrameInterpolationValue",
}

func (p MaterialProperty) String() string {
	return materialPropertyNames[p]
}

// Material receives the per-mesh shader parameters published on every render frame
type Material interface {
	SetInt(property MaterialProperty, value int)
	SetFloat(property MaterialProperty, value float32)
}
