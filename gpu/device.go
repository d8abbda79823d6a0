package gpu

//go:generate mockgen -source device.go -destination mocks/mocks.go -package mocks

// Rect is a texel rectangle inside one slice of a texture array
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Contains returns true if other lies entirely inside r
func (r Rect) Contains(other Rect) bool {
	return other.X >= r.X && other.Y >= r.Y &&
		other.X+other.Width <= r.X+r.Width &&
		other.Y+other.Height <= r.Y+r.Height
}

// Overlaps returns true if r and other share at least one texel
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.X+other.Width && other.X < r.X+r.Width &&
		r.Y < other.Y+other.Height && other.Y < r.Y+r.Height
}

// TextureArrayCreateInfo describes a 2D texture array or render target array
type TextureArrayCreateInfo struct {
	Name         string
	Width        int
	Height       int
	Depth        int
	Format       Format
	MipLevels    int
	Filter       FilterMode
	Wrap         WrapMode
	RenderTarget bool
}

// TextureArray is a 2D array texture owned by a Device
type TextureArray interface {
	Name() string
	Width() int
	Height() int
	Depth() int
	Format() Format
}

// BufferCreateInfo describes a structured buffer that is written by the CPU and read by the GPU
type BufferCreateInfo struct {
	Name string
	// Size is the size of the buffer in bytes
	Size int
	// Stride is the size in bytes of one element of the buffer
	Stride int
}

// Buffer is a structured buffer owned by a Device
type Buffer interface {
	Name() string
	Size() int
	Stride() int
}

// Device creates GPU resources and records the transfer work the skinning resources need. All methods
// are expected to be called from the thread that submits GPU work.
type Device interface {
	CreateTextureArray(info TextureArrayCreateInfo) (TextureArray, error)
	DestroyTextureArray(texture TextureArray)

	// CopySlice copies the whole of one slice into a slice of another array with the same dimensions and format
	CopySlice(src TextureArray, srcSlice int, dst TextureArray, dstSlice int) error
	// CopyRegion copies srcRect of a source slice to (dstX, dstY) of a destination slice
	CopyRegion(src TextureArray, srcSlice int, srcRect Rect, dst TextureArray, dstSlice int, dstX, dstY int) error
	// WriteRegion uploads tightly-packed texels from the CPU into a rectangle of one slice
	WriteRegion(dst TextureArray, slice int, rect Rect, texels []byte) error

	CreateBuffer(info BufferCreateInfo) (Buffer, error)
	DestroyBuffer(buffer Buffer)

	// BeginWrite maps size bytes of the buffer starting at offset for writing. The returned slice is only
	// valid until EndWrite.
	BeginWrite(buffer Buffer, offset, size int) ([]byte, error)
	// EndWrite publishes the first written bytes of the range mapped by BeginWrite to the GPU and unmaps it
	EndWrite(buffer Buffer, written int) error

	// GlobalMipLimit returns the number of top mip levels the renderer is currently skipping for
	// quality scaling. Some backends cannot copy sub-rectangles while it is non-zero.
	GlobalMipLimit() int
}
