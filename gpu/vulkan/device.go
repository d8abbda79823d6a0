package vulkan

import (
	"context"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/avatarskin/internal/utils"
	"github.com/vkngwrapper/avatarskin/memutils"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"golang.org/x/exp/slog"
)

// CommandRecorder records transfer commands into the command buffer of the frame being built. Image
// layout transitions and barriers are the recorder's responsibility.
type CommandRecorder interface {
	// CopyImageRegion records a copy of srcRect from one layer of a 2D array image to (dstX, dstY) of a layer
	// of another
	CopyImageRegion(src core1_0.Image, srcLayer int, srcRect gpu.Rect, dst core1_0.Image, dstLayer int, dstX, dstY int) error
	// CopyBufferToImage records a copy of tightly-packed texels starting at srcOffset of a buffer into a
	// rectangle of one image layer
	CopyBufferToImage(src core1_0.Buffer, srcOffset int, dst core1_0.Image, dstLayer int, rect gpu.Rect) error
}

// CreateOptions contains the objects and settings used to create a Device
type CreateOptions struct {
	Device         core1_0.Device
	PhysicalDevice core1_0.PhysicalDevice
	Recorder       CommandRecorder

	// AllocationCallbacks is passed to every create, destroy, allocate and free call. It may be nil.
	AllocationCallbacks *driver.AllocationCallbacks
	// GlobalMipLimit is the initial value reported by Device.GlobalMipLimit
	GlobalMipLimit int
	// Synchronized causes the Device to lock an internal mutex around every call
	Synchronized bool
}

// TextureArray is a device-local 2D array image with its own memory allocation
type TextureArray struct {
	name         string
	width        int
	height       int
	depth        int
	format       gpu.Format
	filter       gpu.FilterMode
	wrap         gpu.WrapMode
	renderTarget bool

	image  core1_0.Image
	memory core1_0.DeviceMemory
}

func (t *TextureArray) Name() string       { return t.name }
func (t *TextureArray) Width() int         { return t.width }
func (t *TextureArray) Height() int        { return t.height }
func (t *TextureArray) Depth() int         { return t.depth }
func (t *TextureArray) Format() gpu.Format { return t.format }

// Filter is the filter samplers of this array should use
func (t *TextureArray) Filter() gpu.FilterMode { return t.filter }

// Wrap is the addressing mode samplers of this array should use
func (t *TextureArray) Wrap() gpu.WrapMode { return t.wrap }

func (t *TextureArray) RenderTarget() bool { return t.renderTarget }

// VulkanImage returns the image so renderers can create views of it
func (t *TextureArray) VulkanImage() core1_0.Image { return t.image }

// Buffer is a host-visible storage buffer that stays persistently mapped
type Buffer struct {
	name   string
	size   int
	stride int

	buffer   core1_0.Buffer
	memory   core1_0.DeviceMemory
	coherent bool
	mapped   unsafe.Pointer

	writing     bool
	writeOffset int
	writeSize   int
	memorySize  int
}

func (b *Buffer) Name() string { return b.name }
func (b *Buffer) Size() int    { return b.size }
func (b *Buffer) Stride() int  { return b.stride }

// VulkanBuffer returns the buffer so renderers can bind it
func (b *Buffer) VulkanBuffer() core1_0.Buffer { return b.buffer }

type stagingBuffer struct {
	buffer core1_0.Buffer
	memory core1_0.DeviceMemory
}

// Device is a gpu.Device on top of a Vulkan logical device. Texture arrays live in device-local memory;
// ring buffers live in host-visible memory and only the bytes written each frame are flushed.
type Device struct {
	logger *slog.Logger
	mutex  utils.OptionalMutex

	device              core1_0.Device
	recorder            CommandRecorder
	allocationCallbacks *driver.AllocationCallbacks
	memoryProperties    *core1_0.PhysicalDeviceMemoryProperties
	nonCoherentAtomSize int
	formatProperties    func(format core1_0.Format) *core1_0.FormatProperties

	mipLimit int
	textures *swiss.Map[*TextureArray, struct{}]
	buffers  *swiss.Map[*Buffer, struct{}]
	staging  []stagingBuffer
}

var _ gpu.Device = &Device{}
var _ gpu.FormatSupport = &Device{}

func New(logger *slog.Logger, options CreateOptions) (*Device, error) {
	if options.Device == nil || options.PhysicalDevice == nil {
		return nil, errors.New("vulkan.CreateOptions requires a Device and a PhysicalDevice")
	}
	if options.Recorder == nil {
		return nil, errors.New("vulkan.CreateOptions requires a CommandRecorder")
	}

	deviceProperties, err := options.PhysicalDevice.Properties()
	if err != nil {
		return nil, err
	}

	err = memutils.CheckPow2(deviceProperties.Limits.NonCoherentAtomSize, "device nonCoherentAtomSize")
	if err != nil {
		return nil, err
	}

	physicalDevice := options.PhysicalDevice
	return &Device{
		logger: logger,
		mutex: utils.OptionalMutex{
			UseMutex: options.Synchronized,
		},
		device:              options.Device,
		recorder:            options.Recorder,
		allocationCallbacks: options.AllocationCallbacks,
		memoryProperties:    physicalDevice.MemoryProperties(),
		nonCoherentAtomSize: deviceProperties.Limits.NonCoherentAtomSize,
		formatProperties:    physicalDevice.FormatProperties,
		mipLimit:            options.GlobalMipLimit,
		textures:            swiss.NewMap[*TextureArray, struct{}](8),
		buffers:             swiss.NewMap[*Buffer, struct{}](8),
	}, nil
}

// SupportsFormat returns true if optimally-tiled images of the format can be both sampled and written by
// compute shaders
func (d *Device) SupportsFormat(format gpu.Format) bool {
	vkFormat, ok := VulkanFormat(format)
	if !ok {
		return false
	}

	properties := d.formatProperties(vkFormat)
	if properties == nil {
		return false
	}

	required := core1_0.FormatFeatureSampledImage | core1_0.FormatFeatureStorageImage
	return properties.OptimalTilingFeatures&required == required
}

func (d *Device) allocateMemory(requirements *core1_0.MemoryRequirements, required, preferred core1_0.MemoryPropertyFlags) (core1_0.DeviceMemory, int, error) {
	memoryTypeIndex, _, err := FindMemoryTypeIndex(d.memoryProperties, requirements.MemoryTypeBits, required, preferred)
	if err != nil {
		return nil, -1, errors.Wrap(err, "no suitable memory type")
	}

	memory, _, err := d.device.AllocateMemory(d.allocationCallbacks, core1_0.MemoryAllocateInfo{
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	})
	if err != nil {
		return nil, -1, err
	}

	return memory, memoryTypeIndex, nil
}

func (d *Device) CreateTextureArray(info gpu.TextureArrayCreateInfo) (gpu.TextureArray, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	vkFormat, ok := VulkanFormat(info.Format)
	if !ok {
		return nil, errors.Newf("cannot create texture array %q with unknown format %d", info.Name, info.Format)
	}

	mipLevels := info.MipLevels
	if mipLevels < 1 {
		mipLevels = 1
	}

	usage := core1_0.ImageUsageSampled | core1_0.ImageUsageStorage |
		core1_0.ImageUsageTransferSrc | core1_0.ImageUsageTransferDst
	if info.RenderTarget {
		usage |= core1_0.ImageUsageColorAttachment
	}

	image, _, err := d.device.CreateImage(d.allocationCallbacks, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Format:    vkFormat,
		Extent: core1_0.Extent3D{
			Width:  info.Width,
			Height: info.Height,
			Depth:  1,
		},
		MipLevels:     mipLevels,
		ArrayLayers:   info.Depth,
		Samples:       core1_0.Samples1,
		Tiling:        core1_0.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		InitialLayout: core1_0.ImageLayoutUndefined,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create texture array %q", info.Name)
	}

	memory, _, err := d.allocateMemory(image.MemoryRequirements(), core1_0.MemoryPropertyDeviceLocal, 0)
	if err != nil {
		image.Destroy(d.allocationCallbacks)
		return nil, errors.Wrapf(err, "failed to allocate memory for texture array %q", info.Name)
	}

	_, err = image.BindImageMemory(memory, 0)
	if err != nil {
		memory.Free(d.allocationCallbacks)
		image.Destroy(d.allocationCallbacks)
		return nil, errors.Wrapf(err, "failed to bind memory for texture array %q", info.Name)
	}

	texture := &TextureArray{
		name:         info.Name,
		width:        info.Width,
		height:       info.Height,
		depth:        info.Depth,
		format:       info.Format,
		filter:       info.Filter,
		wrap:         info.Wrap,
		renderTarget: info.RenderTarget,
		image:        image,
		memory:       memory,
	}
	d.textures.Put(texture, struct{}{})
	return texture, nil
}

func (d *Device) DestroyTextureArray(texture gpu.TextureArray) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	vkTexture, ok := texture.(*TextureArray)
	if !ok || !d.textures.Has(vkTexture) {
		d.logger.LogAttrs(context.Background(), slog.LevelWarn, "Device::DestroyTextureArray called for an unknown texture array")
		return
	}

	d.textures.Delete(vkTexture)
	vkTexture.image.Destroy(d.allocationCallbacks)
	vkTexture.memory.Free(d.allocationCallbacks)
	vkTexture.image = nil
	vkTexture.memory = nil
}

func (d *Device) texture(texture gpu.TextureArray) (*TextureArray, error) {
	vkTexture, ok := texture.(*TextureArray)
	if !ok || !d.textures.Has(vkTexture) {
		return nil, errors.New("texture array was not created by this device or has been destroyed")
	}
	return vkTexture, nil
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

	full := gpu.Rect{Width: source.width, Height: source.height}
	return d.recorder.CopyImageRegion(source.image, srcSlice, full, destination.image, dstSlice, 0, 0)
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

	return d.recorder.CopyImageRegion(source.image, srcSlice, srcRect, destination.image, dstSlice, dstX, dstY)
}

// WriteRegion copies the texels into a new host-visible staging buffer and records a copy from it. The
// staging buffer is kept until ReleaseStaging.
func (d *Device) WriteRegion(dst gpu.TextureArray, slice int, rect gpu.Rect, texels []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	destination, err := d.texture(dst)
	if err != nil {
		return err
	}

	size := rect.Width * rect.Height * destination.format.TexelSize()
	if len(texels) < size {
		return errors.Newf("region %+v needs %d bytes but only %d were provided", rect, size, len(texels))
	}

	buffer, memory, mapped, err := d.createHostBuffer(size, core1_0.BufferUsageTransferSrc)
	if err != nil {
		return errors.Wrapf(err, "failed to create staging buffer for %q", destination.name)
	}
	d.staging = append(d.staging, stagingBuffer{buffer: buffer, memory: memory})

	copy(unsafe.Slice((*byte)(mapped), size), texels[:size])
	_, err = d.device.FlushMappedMemoryRanges([]core1_0.MappedMemoryRange{
		{Memory: memory, Offset: 0, Size: -1},
	})
	memory.Unmap()
	if err != nil {
		return errors.Wrap(err, "failed to flush staging buffer")
	}

	return d.recorder.CopyBufferToImage(buffer, 0, destination.image, slice, rect)
}

// ReleaseStaging destroys the staging buffers created by WriteRegion. It must only be called once the GPU
// has finished executing the commands that read from them.
func (d *Device) ReleaseStaging() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	for _, staging := range d.staging {
		staging.buffer.Destroy(d.allocationCallbacks)
		staging.memory.Free(d.allocationCallbacks)
	}
	d.staging = d.staging[:0]
}

func (d *Device) createHostBuffer(size int, usage core1_0.BufferUsageFlags) (core1_0.Buffer, core1_0.DeviceMemory, unsafe.Pointer, error) {
	buffer, _, err := d.device.CreateBuffer(d.allocationCallbacks, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	memory, _, err := d.allocateMemory(buffer.MemoryRequirements(), core1_0.MemoryPropertyHostVisible, core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		buffer.Destroy(d.allocationCallbacks)
		return nil, nil, nil, err
	}

	_, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		memory.Free(d.allocationCallbacks)
		buffer.Destroy(d.allocationCallbacks)
		return nil, nil, nil, err
	}

	mapped, _, err := memory.Map(0, -1, 0)
	if err != nil {
		memory.Free(d.allocationCallbacks)
		buffer.Destroy(d.allocationCallbacks)
		return nil, nil, nil, err
	}

	return buffer, memory, mapped, nil
}

func (d *Device) CreateBuffer(info gpu.BufferCreateInfo) (gpu.Buffer, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if info.Size <= 0 {
		return nil, errors.Newf("cannot create buffer %q with size %d", info.Name, info.Size)
	}

	buffer, _, err := d.device.CreateBuffer(d.allocationCallbacks, core1_0.BufferCreateInfo{
		Size:        info.Size,
		Usage:       core1_0.BufferUsageStorageBuffer,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create buffer %q", info.Name)
	}

	requirements := buffer.MemoryRequirements()
	memory, memoryTypeIndex, err := d.allocateMemory(requirements, core1_0.MemoryPropertyHostVisible, core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		buffer.Destroy(d.allocationCallbacks)
		return nil, errors.Wrapf(err, "failed to allocate memory for buffer %q", info.Name)
	}

	_, err = buffer.BindBufferMemory(memory, 0)
	if err != nil {
		memory.Free(d.allocationCallbacks)
		buffer.Destroy(d.allocationCallbacks)
		return nil, errors.Wrapf(err, "failed to bind memory for buffer %q", info.Name)
	}

	mapped, _, err := memory.Map(0, -1, 0)
	if err != nil {
		memory.Free(d.allocationCallbacks)
		buffer.Destroy(d.allocationCallbacks)
		return nil, errors.Wrapf(err, "failed to map buffer %q", info.Name)
	}

	flags := d.memoryProperties.MemoryTypes[memoryTypeIndex].PropertyFlags
	vkBuffer := &Buffer{
		name:       info.Name,
		size:       info.Size,
		stride:     info.Stride,
		buffer:     buffer,
		memory:     memory,
		coherent:   flags&core1_0.MemoryPropertyHostCoherent != 0,
		mapped:     mapped,
		memorySize: requirements.Size,
	}
	d.buffers.Put(vkBuffer, struct{}{})
	return vkBuffer, nil
}

func (d *Device) DestroyBuffer(buffer gpu.Buffer) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	vkBuffer, ok := buffer.(*Buffer)
	if !ok || !d.buffers.Has(vkBuffer) {
		d.logger.LogAttrs(context.Background(), slog.LevelWarn, "Device::DestroyBuffer called for an unknown buffer")
		return
	}

	d.buffers.Delete(vkBuffer)
	vkBuffer.memory.Unmap()
	vkBuffer.buffer.Destroy(d.allocationCallbacks)
	vkBuffer.memory.Free(d.allocationCallbacks)
	vkBuffer.mapped = nil
}

func (d *Device) buffer(buffer gpu.Buffer) (*Buffer, error) {
	vkBuffer, ok := buffer.(*Buffer)
	if !ok || !d.buffers.Has(vkBuffer) {
		return nil, errors.New("buffer was not created by this device or has been destroyed")
	}
	return vkBuffer, nil
}

// BeginWrite returns a window of the persistent mapping. Nothing is flushed until EndWrite.
func (d *Device) BeginWrite(buffer gpu.Buffer, offset, size int) ([]byte, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	vkBuffer, err := d.buffer(buffer)
	if err != nil {
		return nil, err
	}
	if vkBuffer.writing {
		return nil, errors.Newf("buffer %q is already being written", vkBuffer.name)
	}
	if offset < 0 || size < 0 || offset+size > vkBuffer.size {
		return nil, errors.Newf("write range [%d, %d) is outside of buffer %q of size %d", offset, offset+size, vkBuffer.name, vkBuffer.size)
	}

	vkBuffer.writing = true
	vkBuffer.writeOffset = offset
	vkBuffer.writeSize = size
	return unsafe.Slice((*byte)(unsafe.Add(vkBuffer.mapped, offset)), size), nil
}

// EndWrite flushes the written bytes, widened to whole non-coherent atoms, unless the memory is coherent
func (d *Device) EndWrite(buffer gpu.Buffer, written int) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	vkBuffer, err := d.buffer(buffer)
	if err != nil {
		return err
	}
	if !vkBuffer.writing {
		return errors.Newf("buffer %q is not being written", vkBuffer.name)
	}
	vkBuffer.writing = false

	if written < 0 || written > vkBuffer.writeSize {
		return errors.Newf("cannot commit %d bytes of a %d byte write", written, vkBuffer.writeSize)
	}
	if written == 0 || vkBuffer.coherent {
		return nil
	}

	offset, size := FlushRange(vkBuffer.writeOffset, written, d.nonCoherentAtomSize, vkBuffer.memorySize)
	_, err = d.device.FlushMappedMemoryRanges([]core1_0.MappedMemoryRange{
		{Memory: vkBuffer.memory, Offset: offset, Size: size},
	})
	if err != nil {
		return errors.Wrapf(err, "failed to flush buffer %q", vkBuffer.name)
	}

	return nil
}

func (d *Device) GlobalMipLimit() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	return d.mipLimit
}

// SetGlobalMipLimit records the number of top mip levels the renderer is skipping
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
