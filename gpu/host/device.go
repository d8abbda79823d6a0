package host

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/avatarskin/internal/utils"
	"github.com/vkngwrapper/avatarskin/memutils"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

// TextureArray is a texture array whose slices live in host memory
type TextureArray struct {
	name   string
	width  int
	height int
	format gpu.Format
	slices [][]byte
}

func (t *TextureArray) Name() string       { return t.name }
func (t *TextureArray) Width() int         { return t.width }
func (t *TextureArray) Height() int        { return t.height }
func (t *TextureArray) Depth() int         { return len(t.slices) }
func (t *TextureArray) Format() gpu.Format { return t.format }

func (t *TextureArray) rowPitch() int {
	return t.width * t.format.TexelSize()
}

// Commit records one EndWrite call
type Commit struct {
	Offset int
	Size   int
}

// Buffer is a structured buffer in host memory. Writes go to a staging area and only reach the buffer
// contents when they are committed.
type Buffer struct {
	name   string
	stride int
	data   []byte

	staging      []byte
	mapped       bool
	mappedOffset int

	commits []Commit
}

func (b *Buffer) Name() string { return b.name }
func (b *Buffer) Size() int    { return len(b.data) }
func (b *Buffer) Stride() int  { return b.stride }

// CreateOptions contains optional settings when creating a Device
type CreateOptions struct {
	// GlobalMipLimit is the initial value reported by Device.GlobalMipLimit
	GlobalMipLimit int
	// Synchronized causes the Device to lock an internal mutex around every call
	Synchronized bool
	// UnsupportedFormats are reported as unsupported by SupportsFormat and cannot be used to create
	// texture arrays
	UnsupportedFormats []gpu.Format
}

// Device is a gpu.Device that keeps every resource in host memory. It is used by tests and by tools that
// run the skinning resource managers without a graphics API.
type Device struct {
	logger *slog.Logger
	mutex  utils.OptionalMutex

	mipLimit    int
	unsupported []gpu.Format
	textures    *swiss.Map[*TextureArray, struct{}]
	buffers     *swiss.Map[*Buffer, struct{}]
	copyCount   int
}

var _ gpu.Device = &Device{}
var _ gpu.FormatSupport = &Device{}

func New(logger *slog.Logger, options CreateOptions) *Device {
	return &Device{
		logger: logger,
		mutex: utils.OptionalMutex{
			UseMutex: options.Synchronized,
		},
		mipLimit:    options.GlobalMipLimit,
		unsupported: options.UnsupportedFormats,
		textures:    swiss.NewMap[*TextureArray, struct{}](8),
		buffers:     swiss.NewMap[*Buffer, struct{}](8),
	}
}

func (d *Device) CreateTextureArray(info gpu.TextureArrayCreateInfo) (gpu.TextureArray, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if info.Width <= 0 || info.Height <= 0 || info.Depth <= 0 {
		return nil, errors.Newf("cannot create texture array %q with dimensions %dx%dx%d", info.Name, info.Width, info.Height, info.Depth)
	}
	if !d.supportsFormat(info.Format) {
		return nil, errors.Newf("cannot create texture array %q with unsupported format %d", info.Name, info.Format)
	}

	texture := &TextureArray{
		name:   info.Name,
		width:  info.Width,
		height: info.Height,
		format: info.Format,
		slices: make([][]byte, info.Depth),
	}
	for i := range texture.slices {
		texture.slices[i] = make([]byte, texture.rowPitch()*info.Height)
		memutils.FillUninitialized(texture.slices[i])
	}

	d.textures.Put(texture, struct{}{})
	return texture, nil
}

func (d *Device) DestroyTextureArray(texture gpu.TextureArray) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	hostTexture, ok := texture.(*TextureArray)
	if !ok || !d.textures.Has(hostTexture) {
		d.logger.LogAttrs(context.Background(), slog.LevelWarn, "Device::DestroyTextureArray called for an unknown texture array")
		return
	}

	d.textures.Delete(hostTexture)
	hostTexture.slices = nil
}

func (d *Device) texture(texture gpu.TextureArray) (*TextureArray, error) {
	hostTexture, ok := texture.(*TextureArray)
	if !ok || !d.textures.Has(hostTexture) {
		return nil, errors.New("texture array was not created by this device or has been destroyed")
	}
	return hostTexture, nil
}

func (d *Device) CopySlice(src gpu.TextureArray, srcSlice int, dst gpu.TextureArray, dstSlice int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	source, err := d.texture(src)
	if err != nil {
		return errors.Wrap(err, "copy source")
	}
	destination, err := d.texture(dst)
	if err != nil {
		return errors.Wrap(err, "copy destination")
	}

	if source.width != destination.width || source.height != destination.height || source.format != destination.format {
		return errors.Newf("cannot copy a %dx%d %s slice into a %dx%d %s slice",
			source.width, source.height, source.format, destination.width, destination.height, destination.format)
	}
	if srcSlice < 0 || srcSlice >= len(source.slices) || dstSlice < 0 || dstSlice >= len(destination.slices) {
		return errors.Newf("slice copy %d -> %d is out of range", srcSlice, dstSlice)
	}

	copy(destination.slices[dstSlice], source.slices[srcSlice])
	d.copyCount++
	return nil
}

func (d *Device) CopyRegion(src gpu.TextureArray, srcSlice int, srcRect gpu.Rect, dst gpu.TextureArray, dstSlice int, dstX, dstY int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	source, err := d.texture(src)
	if err != nil {
		return errors.Wrap(err, "copy source")
	}
	destination, err := d.texture(dst)
	if err != nil {
		return errors.Wrap(err, "copy destination")
	}

	if source.format != destination.format {
		return errors.Newf("cannot copy between formats %s and %s", source.format, destination.format)
	}
	if srcSlice < 0 || srcSlice >= len(source.slices) || dstSlice < 0 || dstSlice >= len(destination.slices) {
		return errors.Newf("region copy %d -> %d is out of range", srcSlice, dstSlice)
	}

	sourceBounds := gpu.Rect{Width: source.width, Height: source.height}
	destRect := gpu.Rect{X: dstX, Y: dstY, Width: srcRect.Width, Height: srcRect.Height}
	destBounds := gpu.Rect{Width: destination.width, Height: destination.height}
	if !sourceBounds.Contains(srcRect) || !destBounds.Contains(destRect) {
		return errors.Newf("region copy %+v -> %+v is out of bounds", srcRect, destRect)
	}

	texelSize := source.format.TexelSize()
	rowBytes := srcRect.Width * texelSize
	for row := 0; row < srcRect.Height; row++ {
		srcOffset := (srcRect.Y+row)*source.rowPitch() + srcRect.X*texelSize
		dstOffset := (dstY+row)*destination.rowPitch() + dstX*texelSize
		copy(destination.slices[dstSlice][dstOffset:dstOffset+rowBytes], source.slices[srcSlice][srcOffset:srcOffset+rowBytes])
	}

	d.copyCount++
	return nil
}

func (d *Device) WriteRegion(dst gpu.TextureArray, slice int, rect gpu.Rect, texels []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	destination, err := d.texture(dst)
	if err != nil {
		return err
	}
	if slice < 0 || slice >= len(destination.slices) {
		return errors.Newf("slice %d is out of range", slice)
	}
	if !(gpu.Rect{Width: destination.width, Height: destination.height}).Contains(rect) {
		return errors.Newf("region %+v is out of bounds", rect)
	}

	texelSize := destination.format.TexelSize()
	rowBytes := rect.Width * texelSize
	if len(texels) < rowBytes*rect.Height {
		return errors.Newf("region %+v needs %d bytes but only %d were provided", rect, rowBytes*rect.Height, len(texels))
	}

	for row := 0; row < rect.Height; row++ {
		dstOffset := (rect.Y+row)*destination.rowPitch() + rect.X*texelSize
		copy(destination.slices[slice][dstOffset:dstOffset+rowBytes], texels[row*rowBytes:(row+1)*rowBytes])
	}

	return nil
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if info.Size <= 0 {
		return nil, errors.Newf("cannot create buffer %q with size %d", info.Name, info.Size)
	}

	buffer := &Buffer{
		name:   info.Name,
		stride: info.Stride,
		data:   make([]byte, info.Size),
	}
	memutils.FillUninitialized(buffer.data)

	d.buffers.Put(buffer, struct{}{})
	return buffer, nil
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	hostBuffer, ok := buffer.(*Buffer)
	if !ok || !d.buffers.Has(hostBuffer) {
		d.logger.LogAttrs(context.Background(), slog.LevelWarn, "Device::DestroyBuffer called for an unknown buffer")
		return
	}

	if hostBuffer.mapped {
		d.logger.LogAttrs(context.Background(), slog.LevelWarn, "Device::DestroyBuffer called for a buffer that is still mapped",
			slog.String("buffer", hostBuffer.name))
	}

	d.buffers.Delete(hostBuffer)
	hostBuffer.data = nil
	hostBuffer.staging = nil
}

func (d *Device) buffer(buffer gpu.Buffer) (*Buffer, error) {
	hostBuffer, ok := buffer.(*Buffer)
	if !ok || !d.buffers.Has(hostBuffer) {
		return nil, errors.New("buffer was not created by this device or has been destroyed")
	}
	return hostBuffer, nil
}

func (d *Device) BeginWrite(buffer gpu.Buffer, offset, size int) ([]byte, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	hostBuffer, err := d.buffer(buffer)
	if err != nil {
		return nil, err
	}
	if hostBuffer.mapped {
		return nil, errors.Newf("buffer %q is already mapped", hostBuffer.name)
	}
	if offset < 0 || size < 0 || offset+size > len(hostBuffer.data) {
		return nil, errors.Newf("write range [%d, %d) is outside of buffer %q of size %d", offset, offset+size, hostBuffer.name, len(hostBuffer.data))
	}

	if cap(hostBuffer.staging) < size {
		hostBuffer.staging = make([]byte, size)
	}
	hostBuffer.staging = hostBuffer.staging[:size]
	memutils.FillUninitialized(hostBuffer.staging)

	hostBuffer.mapped = true
	hostBuffer.mappedOffset = offset
	return hostBuffer.staging, nil
}

func (d *Device) EndWrite(buffer gpu.Buffer, written int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	hostBuffer, err := d.buffer(buffer)
	if err != nil {
		return err
	}
	if !hostBuffer.mapped {
		return errors.Newf("buffer %q is not mapped", hostBuffer.name)
	}
	if written < 0 || written > len(hostBuffer.staging) {
		return errors.Newf("cannot commit %d bytes of a %d byte mapping", written, len(hostBuffer.staging))
	}

	copy(hostBuffer.data[hostBuffer.mappedOffset:], hostBuffer.staging[:written])
	hostBuffer.commits = append(hostBuffer.commits, Commit{Offset: hostBuffer.mappedOffset, Size: written})
	hostBuffer.mapped = false
	return nil
}

func (d *Device) GlobalMipLimit() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.mipLimit
}

// SetGlobalMipLimit changes the value reported by GlobalMipLimit
func (d *Device) SetGlobalMipLimit(limit int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.mipLimit = limit
}

// ReadSlice returns a copy of one slice of a texture array
func (d *Device) ReadSlice(texture gpu.TextureArray, slice int) ([]byte, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	hostTexture, err := d.texture(texture)
	if err != nil {
		return nil, err
	}
	if slice < 0 || slice >= len(hostTexture.slices) {
		return nil, errors.Newf("slice %d is out of range", slice)
	}

	out := make([]byte, len(hostTexture.slices[slice]))
	copy(out, hostTexture.slices[slice])
	return out, nil
}

// ReadBuffer returns a copy of the committed contents of a buffer
func (d *Device) ReadBuffer(buffer gpu.Buffer) ([]byte, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	hostBuffer, err := d.buffer(buffer)
	if err != nil {
		return nil, err
	}

	out := make([]byte, len(hostBuffer.data))
	copy(out, hostBuffer.data)
	return out, nil
}

// Commits returns every EndWrite made against a buffer, oldest first
func (d *Device) Commits(buffer gpu.Buffer) []Commit {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	hostBuffer, err := d.buffer(buffer)
	if err != nil {
		return nil
	}

	out := make([]Commit, len(hostBuffer.commits))
	copy(out, hostBuffer.commits)
	return out
}

// CopyCount returns the number of GPU-to-GPU copies the device has carried out
func (d *Device) CopyCount() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.copyCount
}

// LiveObjects returns the number of texture arrays and buffers that have not been destroyed
func (d *Device) LiveObjects() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.textures.Count() + d.buffers.Count()
}

// SupportsFormat returns false for unknown formats and for formats listed in CreateOptions.UnsupportedFormats
func (d *Device) SupportsFormat(format gpu.Format) bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.supportsFormat(format)
}

func (d *Device) supportsFormat(format gpu.Format) bool {
	return format.TexelSize() > 0 && !slices.Contains(d.unsupported, format)
}
