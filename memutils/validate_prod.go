//go:build !debug_mem_utils

package memutils

const (
	// DebugFill indicates whether newly-created GPU resources should be filled with DebugFillPattern
	DebugFill bool = false
	// DebugFillPattern is a 4-byte pattern written across freshly-created texture slices and buffer generations
	// so that sampling uninitialized data is easy to spot
	DebugFillPattern uint32 = 0x7F84E666
)

// FillUninitialized writes DebugFillPattern across data.
// This method no-ops unless the debug_mem_utils build tag is present.
func FillUninitialized(data []byte) {
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
}
