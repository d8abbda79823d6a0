package scheduler

import "fmt"

// OutputFrame identifies which output slice of a mesh holds a given animation frame's skinning results
type OutputFrame int

const (
	OutputFrameZero OutputFrame = iota
	OutputFrameOne
	OutputFrameTwo
)

// MaxSupportedOutputFrames is the largest number of output slices a mesh can cycle through
const MaxSupportedOutputFrames = 3

func (f OutputFrame) String() string {
	switch f {
	case OutputFrameZero:
		return "Zero"
	case OutputFrameOne:
		return "One"
	case OutputFrameTwo:
		return "Two"
	}
	return fmt.Sprintf("OutputFrame(%d)", int(f))
}

// NextOutputFrame returns the slice written after current when cycling through maxFrames slices
func NextOutputFrame(current OutputFrame, maxFrames int) OutputFrame {
	if maxFrames <= 1 {
		return OutputFrameZero
	}
	return OutputFrame((int(current) + 1) % maxFrames)
}

// MaxOutputFramesFor returns the number of output slices needed: one, plus one for motion smoothing,
// plus one for application space warp
func MaxOutputFramesFor(motionSmoothing, applicationSpaceWarp bool) int {
	frames := 1
	if motionSmoothing {
		frames++
	}
	if applicationSpaceWarp {
		frames++
	}
	return frames
}
