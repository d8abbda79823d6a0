package ringpool

import (
	"encoding/binary"
	"math"

	"goki.dev/mat32/v2"
)

const (
	matrixSize = 16 * 4
	// JointDataSize is the size in bytes of one JointData as the skinning shaders read it
	JointDataSize = 2 * matrixSize
	// WeightSize is the size in bytes of one morph target weight
	WeightSize = 4
)

// JointData is the per-joint input to the skinning kernel. Both matrices are written column-major.
type JointData struct {
	Transform       mat32.Mat4
	NormalTransform mat32.Mat4
}

// IdentityJoint returns a JointData that leaves vertices and normals untouched
func IdentityJoint() JointData {
	var identity mat32.Mat4
	identity[0] = 1
	identity[5] = 1
	identity[10] = 1
	identity[15] = 1

	return JointData{Transform: identity, NormalTransform: identity}
}

func putMatrix(dst []byte, matrix *mat32.Mat4) {
	for i, value := range matrix {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(value))
	}
}

func readMatrix(src []byte) mat32.Mat4 {
	var matrix mat32.Mat4
	for i := range matrix {
		matrix[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
	}
	return matrix
}

// JointEntry is one avatar's window into the joints buffer for the current frame
type JointEntry struct {
	// Data is the mapped memory for this entry. It is only valid until the pool's EndFrame.
	Data []byte
	// JointOffset is the index of the entry's first JointData in the joints buffer, for use by shaders
	JointOffset int
}

// Len returns the number of joints the entry has room for
func (e JointEntry) Len() int {
	return len(e.Data) / JointDataSize
}

// Set writes the joint at index i of the entry
func (e JointEntry) Set(i int, joint JointData) {
	offset := i * JointDataSize
	putMatrix(e.Data[offset:offset+matrixSize], &joint.Transform)
	putMatrix(e.Data[offset+matrixSize:offset+JointDataSize], &joint.NormalTransform)
}

// Get reads back the joint at index i of the entry
func (e JointEntry) Get(i int) JointData {
	offset := i * JointDataSize
	return JointData{
		Transform:       readMatrix(e.Data[offset : offset+matrixSize]),
		NormalTransform: readMatrix(e.Data[offset+matrixSize : offset+JointDataSize]),
	}
}

// WeightEntry is one avatar's window into the morph target weights buffer for the current frame
type WeightEntry struct {
	// Data is the mapped memory for this entry. It is only valid until the pool's EndFrame.
	Data []byte
	// Offset is the index of the entry's first weight in the weights buffer
	Offset int
	// Count is the number of morph targets requested for the entry
	Count int
}

// Set writes the weight of morph target i
func (e WeightEntry) Set(i int, weight float32) {
	if i < 0 || i >= e.Count {
		panic("ringpool: morph target weight index out of range")
	}
	binary.LittleEndian.PutUint32(e.Data[i*WeightSize:], math.Float32bits(weight))
}

func (e WeightEntry) Get(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(e.Data[i*WeightSize:]))
}

// SetAll writes weights starting at morph target 0
func (e WeightEntry) SetAll(weights []float32) {
	for i, weight := range weights {
		e.Set(i, weight)
	}
}
