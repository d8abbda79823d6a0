//go:build debug_mem_utils

package memutils

const (
	// DebugFill indicates whether newly-created GPU resources should be filled with DebugFillPattern
	DebugFill bool = true
	// DebugFillPattern is a 4-byte pattern written across freshly-created texture slices and buffer generations
	// so that sampling uninitialized data is easy to spot
	DebugFillPattern uint32 = 0x7F84E666
)

// FillUninitialized writes DebugFillPattern across data.
// This method no-ops unless the debug_mem_utils build tag is present.
func FillUninitialized(data []byte) {
	for i := 0; i+4 <= len(data); i += 4 {
		data[i] = byte(DebugFillPattern)
		data[i+1] = byte(DebugFillPattern >> 8)
		data[i+2] = byte(DebugFillPattern >> 16)
		data[i+3] = byte(DebugFillPattern >> 24)
	}
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
	err := CheckPow2[T](value, name)
	if err != nil {
		panic(err)
	}
}
