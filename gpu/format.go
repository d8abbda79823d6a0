package gpu

// Format is the texel format of a texture array
type Format int32

const (
	FormatRGBA8Unorm Format = iota
	FormatRGBA16Float
	FormatRGBA32Float
	FormatRG16Float
	FormatR32Float
	FormatRGBA16Unorm
	FormatRGBA4Unorm
)

var formatMapping = map[Format]string{
	FormatRGBA8Unorm:  "RGBA8Unorm",
	FormatRGBA16Float: "RGBA16Float",
	FormatRGBA32Float: "RGBA32Float",
	FormatRG16Float:   "RG16Float",
	FormatR32Float:    "R32Float",
	FormatRGBA16Unorm: "RGBA16Unorm",
	FormatRGBA4Unorm:  "RGBA4Unorm",
}

var formatTexelSize = map[Format]int{
	FormatRGBA8Unorm:  4,
	FormatRGBA16Float: 8,
	FormatRGBA32Float: 16,
	FormatRG16Float:   4,
	FormatR32Float:    4,
	FormatRGBA16Unorm: 8,
	FormatRGBA4Unorm:  2,
}

func (f Format) String() string {
	return formatMapping[f]
}

// TexelSize returns the number of bytes a single texel of this format occupies, or 0 for unknown formats
func (f Format) TexelSize() int {
	return formatTexelSize[f]
}

// FilterMode is the sampling filter a texture array is created with
type FilterMode int32

const (
	FilterPoint FilterMode = iota
	FilterLinear
)

// WrapMode is the addressing mode a texture array is created with
type WrapMode int32

const (
	WrapClamp WrapMode = iota
	WrapRepeat
)

// FormatSupport is implemented by devices that can report which texel formats they can create
// storage-writable texture arrays with. Devices that don't implement it are assumed to support every format.
type FormatSupport interface {
	SupportsFormat(format Format) bool
}
