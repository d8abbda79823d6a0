package webgpu

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/avatarskin/internal/utils"
	"golang.org/x/exp/slog"
)

var formatMapping = map[gpu.Format]wgpu.TextureFormat{
	gpu.FormatRGBA8Unorm:  wgpu.TextureFormatRGBA8Unorm,
	gpu.FormatRGBA16Float: wgpu.TextureFormatRGBA16Float,
	gpu.FormatRGBA32Float: wgpu.TextureFormatRGBA32Float,
	gpu.FormatR32Float:    wgpu.TextureFormatR32Float,
}

// TextureFormat returns the WebGPU format used for a texel format. Formats that WebGPU cannot bind as
// storage textures are not mapped.
func TextureFormat(format gpu.Format) (wgpu.TextureFormat, bool) {
	wgpuFormat, ok := formatMapping[format]
	return wgpuFormat, ok
}

// CreateOptions contains the objects and settings used to create a Device
type CreateOptions struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	GlobalMipLimit int
	Synchronized   bool
}

type TextureArray struct {
	name   string
	width  int
	height int
	depth  int
	format gpu.Format

	texture *wgpu.Texture
}

func (t *TextureArray) Name() string       { return t.name }
func (t *TextureArray) Width() int         { return t.width }
func (t *TextureArray) Height() int        { return t.height }
func (t *TextureArray) Depth() int         { return t.depth }
func (t *TextureArray) Format() gpu.Format { return t.format }

// Texture returns the texture so renderers can create views of it
func (t *TextureArray) Texture() *wgpu.Texture { return t.texture }

// Buffer is a storage buffer with a CPU shadow copy. Writes land in the shadow and only the committed
// bytes are uploaded through the queue.
type Buffer struct {
	name   string
	size   int
	stride int

	buffer *wgpu.Buffer
	shadow []byte

	writing     bool
	writeOffset int
	writeSize   int
}

func (b *Buffer) Name() string { return b.name }
func (b *Buffer) Size() int    { return b.size }
func (b *Buffer) Stride() int  { return b.stride }

// WGPUBuffer returns the buffer so renderers can bind it
func (b *Buffer) WGPUBuffer() *wgpu.Buffer { return b.buffer }

// Device is a gpu.Device on top of a WebGPU device. Each copy is encoded and submitted on its own so that it
// stays ordered with the queue writes around it.
type Device struct {
	logger *slog.Logger
	mutex  utils.OptionalMutex

	device *wgpu.Device
	queue  *wgpu.Queue

	mipLimit int
	textures *swiss.Map[*TextureArray, struct{}]
	buffers  *swiss.Map[*Buffer, struct{}]
}

var _ gpu.Device = &Device{}
var _ gpu.FormatSupport = &Device{}

func New(logger *slog.Logger, options CreateOptions) (*Device, error) {
	if options.Device == nil || options.Queue == nil {
		return nil, errors.New("webgpu.CreateOptions requires a Device and a Queue")
	}

	return &Device{
		logger: logger,
		mutex: utils.OptionalMutex{
			UseMutex: options.Synchronized,
		},
		device:   options.Device,
		queue:    options.Queue,
		mipLimit: options.GlobalMipLimit,
		textures: swiss.NewMap[*TextureArray, struct{}](8),
		buffers:  swiss.NewMap[*Buffer, struct{}](8),
	}, nil
}

func (d *Device) SupportsFormat(format gpu.Format) bool {
	_, ok := TextureFormat(format)
	return ok
}

func (d *Device) CreateTextureArray(info gpu.TextureArrayCreateInfo) (gpu.TextureArray, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	wgpuFormat, ok := TextureFormat(info.Format)
	if !ok {
		return nil, errors.Newf("cannot create texture array %q with unsupported format %s", info.Name, info.Format)
	}

	mipLevels := info.MipLevels
	if mipLevels < 1 {
		mipLevels = 1
	}

	usage := wgpu.TextureUsageTextureBinding | wgpu.TextureUsageStorageBinding |
		wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	if info.RenderTarget {
		usage |= wgpu.TextureUsageRenderAttachment
	}

	texture, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: info.Name,
		Usage: usage,
		Size: wgpu.Extent3D{
			Width:              uint32(info.Width),
			Height:             uint32(info.Height),
			DepthOrArrayLayers: uint32(info.Depth),
		},
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpuFormat,
		MipLevelCount: uint32(mipLevels),
		SampleCount:   1,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create texture array %q", info.Name)
	}

	array := &TextureArray{
		name:    info.Name,
		width:   info.Width,
		height:  info.Height,
		depth:   info.Depth,
		format:  info.Format,
		texture: texture,
	}
	d.textures.Put(array, struct{}{})
	return array, nil
}

func (d *Device) DestroyTextureArray(texture gpu.TextureArray) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	array, ok := texture.(*TextureArray)
	if !ok || !d.textures.Has(array) {
		d.logger.LogAttrs(context.Background(), slog.LevelWarn, "Device::DestroyTextureArray called for an unknown texture array")
		return
	}

	d.textures.Delete(array)
	array.texture.Release()
	array.texture = nil
}

func (d *Device) texture(texture gpu.TextureArray) (*TextureArray, error) {
	array, ok := texture.(*TextureArray)
	if !ok || !d.textures.Has(array) {
		return nil, errors.New("texture array was not created by this device or has been destroyed")
	}
	return array, nil
}

func (d *Device) copyTexture(source *TextureArray, srcSlice int, srcRect gpu.Rect, destination *TextureArray, dstSlice int, dstX, dstY int) error {
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return errors.Wrap(err, "failed to create command encoder")
	}
	defer encoder.Release()

	encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{
			Texture:  source.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(srcRect.X), Y: uint32(srcRect.Y), Z: uint32(srcSlice)},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.ImageCopyTexture{
			Texture:  destination.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(dstX), Y: uint32(dstY), Z: uint32(dstSlice)},
			Aspect:   wgpu.TextureAspectAll,
		},
		&wgpu.Extent3D{
			Width:              uint32(srcRect.Width),
			Height:             uint32(srcRect.Height),
			DepthOrArrayLayers: 1,
		},
	)

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return errors.Wrap(err, "failed to finish copy commands")
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
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

	return d.copyTexture(source, srcSlice, gpu.Rect{Width: source.width, Height: source.height}, destination, dstSlice, 0, 0)
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

	destRect := gpu.Rect{X: dstX, Y: dstY, Width: srcRect.Width, Height: srcRect.Height}
	if !(gpu.Rect{Width: source.width, Height: source.height}).Contains(srcRect) ||
		!(gpu.Rect{Width: destination.width, Height: destination.height}).Contains(destRect) {
		return errors.Newf("region copy %+v -> %+v is out of bounds", srcRect, destRect)
	}

	return d.copyTexture(source, srcSlice, srcRect, destination, dstSlice, dstX, dstY)
}

func (d *Device) WriteRegion(dst gpu.TextureArray, slice int, rect gpu.Rect, texels []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	destination, err := d.texture(dst)
	if err != nil {
		return err
	}

	texelSize := destination.format.TexelSize()
	size := rect.Width * rect.Height * texelSize
	if len(texels) < size {
		return errors.Newf("region %+v needs %d bytes but only %d were provided", rect, size, len(texels))
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  destination.texture,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: uint32(rect.X), Y: uint32(rect.Y), Z: uint32(slice)},
			Aspect:   wgpu.TextureAspectAll,
		},
		texels[:size],
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(rect.Width * texelSize),
			RowsPerImage: uint32(rect.Height),
		},
		&wgpu.Extent3D{
			Width:              uint32(rect.Width),
			Height:             uint32(rect.Height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if info.Size <= 0 {
		return nil, errors.Newf("cannot create buffer %q with size %d", info.Name, info.Size)
	}

	buffer, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            info.Name,
		Size:             uint64(info.Size),
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create buffer %q", info.Name)
	}

	wgpuBuffer := &Buffer{
		name:   info.Name,
		size:   info.Size,
		stride: info.Stride,
		buffer: buffer,
		shadow: make([]byte, info.Size),
	}
	d.buffers.Put(wgpuBuffer, struct{}{})
	return wgpuBuffer, nil
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	wgpuBuffer, ok := buffer.(*Buffer)
	if !ok || !d.buffers.Has(wgpuBuffer) {
		d.logger.LogAttrs(context.Background(), slog.LevelWarn, "Device::DestroyBuffer called for an unknown buffer")
		return
	}

	d.buffers.Delete(wgpuBuffer)
	wgpuBuffer.buffer.Release()
	wgpuBuffer.buffer = nil
	wgpuBuffer.shadow = nil
}

func (d *Device) buffer(buffer gpu.Buffer) (*Buffer, error) {
	wgpuBuffer, ok := buffer.(*Buffer)
	if !ok || !d.buffers.Has(wgpuBuffer) {
		return nil, errors.New("buffer was not created by this device or has been destroyed")
	}
	return wgpuBuffer, nil
}

func (d *Device) BeginWrite(buffer gpu.Buffer, offset, size int) ([]byte, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	wgpuBuffer, err := d.buffer(buffer)
	if err != nil {
		return nil, err
	}
	if wgpuBuffer.writing {
		return nil, errors.Newf("buffer %q is already being written", wgpuBuffer.name)
	}
	if offset < 0 || size < 0 || offset+size > wgpuBuffer.size {
		return nil, errors.Newf("write range [%d, %d) is outside of buffer %q of size %d", offset, offset+size, wgpuBuffer.name, wgpuBuffer.size)
	}

	wgpuBuffer.writing = true
	wgpuBuffer.writeOffset = offset
	wgpuBuffer.writeSize = size
	return wgpuBuffer.shadow[offset : offset+size], nil
}

// EndWrite uploads the written bytes. Queue writes must start at and cover multiples of 4 bytes, so the
// uploaded range is widened to 4 byte boundaries inside the shadow copy.
func (d *Device) EndWrite(buffer gpu.Buffer, written int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	wgpuBuffer, err := d.buffer(buffer)
	if err != nil {
		return err
	}
	if !wgpuBuffer.writing {
		return errors.Newf("buffer %q is not being written", wgpuBuffer.name)
	}
	wgpuBuffer.writing = false

	if written < 0 || written > wgpuBuffer.writeSize {
		return errors.Newf("cannot commit %d bytes of a %d byte write", written, wgpuBuffer.writeSize)
	}
	if written == 0 {
		return nil
	}

	start, end := queueWriteRange(wgpuBuffer.writeOffset, written, wgpuBuffer.size)
	err = d.queue.WriteBuffer(wgpuBuffer.buffer, uint64(start), wgpuBuffer.shadow[start:end])
	if err != nil {
		return errors.Wrapf(err, "failed to write buffer %q", wgpuBuffer.name)
	}
	return nil
}

func queueWriteRange(offset, written, bufferSize int) (int, int) {
	start := offset &^ 3
	end := (offset + written + 3) &^ 3
	if end > bufferSize {
		end = bufferSize
	}
	return start, end
}

func (d *Device) GlobalMipLimit() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.mipLimit
}

func (d *Device) SetGlobalMipLimit(limit int) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.mipLimit = limit
}

// LiveObjects returns the number of texture arrays and buffers that have not been destroyed
func (d *Device) LiveObjects() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.textures.Count() + d.buffers.Count()
}
