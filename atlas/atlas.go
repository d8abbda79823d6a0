package atlas

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/avatarskin/blocks"
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/avatarskin/memutils"
	"golang.org/x/exp/slog"
)

// MaxTextureDimension is the largest width or height an Atlas accepts
const MaxTextureDimension = 16384

// ResizeObserver is called with the atlas's texture array whenever the array object changes. Consumers
// use it to rebind the new array wherever the old one was bound.
type ResizeObserver func(atlas *Atlas, array gpu.TextureArray)

// SubscriptionID identifies a ResizeObserver registered with Subscribe
type SubscriptionID int

type subscription struct {
	id       SubscriptionID
	observer ResizeObserver
}

// CreateOptions contains the settings used to create an Atlas
type CreateOptions struct {
	// Name is given to the texture array, and kept across growth
	Name   string
	Width  int
	Height int
	Format gpu.Format
	// InitialDepth is the number of slices the array is created with. 0 means 1.
	InitialDepth int
	// MaxDepth limits how far the array may grow. 0 means unlimited.
	MaxDepth int
	// RenderTarget creates the array as a render target array instead of a sampled texture
	RenderTarget bool
	// Packer places blocks inside the slices. A RuntimePacker is used if it is nil.
	Packer Packer
}

// Atlas is a 2D texture array that packs rectangular blocks and grows by adding slices. Growth preserves
// the contents of every existing slice, and every subscribed ResizeObserver is told about the new array
// before the call that caused the growth returns.
type Atlas struct {
	logger *slog.Logger
	device gpu.Device

	name         string
	width        int
	height       int
	format       gpu.Format
	maxDepth     int
	renderTarget bool

	array  gpu.TextureArray
	packer Packer

	subscriptions []subscription
	nextID        SubscriptionID
	version       uint64
	growCount     int
}

// New creates an Atlas and its backing texture array
func New(logger *slog.Logger, device gpu.Device, options CreateOptions) (*Atlas, error) {
	if options.Width <= 0 || options.Width > MaxTextureDimension {
		return nil, errors.Newf("atlas width %d must be in (0, %d]", options.Width, MaxTextureDimension)
	}
	if options.Height <= 0 || options.Height > MaxTextureDimension {
		return nil, errors.Newf("atlas height %d must be in (0, %d]", options.Height, MaxTextureDimension)
	}

	initialDepth := options.InitialDepth
	if initialDepth <= 0 {
		initialDepth = 1
	}
	if options.MaxDepth > 0 && initialDepth > options.MaxDepth {
		return nil, errors.Newf("atlas initial depth %d is larger than the max depth %d", initialDepth, options.MaxDepth)
	}

	packer := options.Packer
	if packer == nil {
		packer = NewRuntimePacker(options.Width, options.Height, options.MaxDepth)
	}

	atlas := &Atlas{
		logger:       logger,
		device:       device,
		name:         options.Name,
		width:        options.Width,
		height:       options.Height,
		format:       options.Format,
		maxDepth:     options.MaxDepth,
		renderTarget: options.RenderTarget,
		packer:       packer,
	}

	array, err := atlas.createArray(initialDepth)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create texture array for atlas %q", options.Name)
	}
	atlas.array = array

	return atlas, nil
}

func (a *Atlas) createArray(depth int) (gpu.TextureArray, error) {
	return a.device.CreateTextureArray(gpu.TextureArrayCreateInfo{
		Name:         a.name,
		Width:        a.width,
		Height:       a.height,
		Depth:        depth,
		Format:       a.format,
		MipLevels:    1,
		Filter:       gpu.FilterPoint,
		Wrap:         gpu.WrapClamp,
		RenderTarget: a.renderTarget,
	})
}

func (a *Atlas) Name() string       { return a.name }
func (a *Atlas) Width() int         { return a.width }
func (a *Atlas) Height() int        { return a.height }
func (a *Atlas) Format() gpu.Format { return a.format }

// Depth returns the current number of slices in the texture array
func (a *Atlas) Depth() int {
	if a.array == nil {
		return 0
	}
	return a.array.Depth()
}

// Array returns the current texture array. The array object changes when the atlas grows.
func (a *Atlas) Array() gpu.TextureArray { return a.array }

// Version is incremented every time the texture array object is replaced. Consumers that would rather
// poll than subscribe can compare it against the version they last bound.
func (a *Atlas) Version() uint64 { return a.version }

// BlockCount returns the number of live blocks
func (a *Atlas) BlockCount() int { return a.packer.BlockCount() }

// CheckFit returns true if a block of this size can be placed in the atlas at all
func (a *Atlas) CheckFit(width, height int) bool {
	return width > 0 && height > 0 && width <= a.width && height <= a.height
}

// Subscribe registers an observer for array changes. The observer is called immediately with the current
// array so consumers can do their initial bind in the same place they rebind.
func (a *Atlas) Subscribe(observer ResizeObserver) SubscriptionID {
	if observer == nil {
		panic("atlas: attempted to subscribe a nil ResizeObserver")
	}

	id := a.nextID
	a.nextID++
	a.subscriptions = append(a.subscriptions, subscription{id: id, observer: observer})

	if a.array != nil {
		observer(a, a.array)
	}

	return id
}

// Unsubscribe removes an observer. Unknown IDs are ignored.
func (a *Atlas) Unsubscribe(id SubscriptionID) {
	for i, sub := range a.subscriptions {
		if sub.id == id {
			a.subscriptions = append(a.subscriptions[:i], a.subscriptions[i+1:]...)
			return
		}
	}
}

// AddBlock packs an empty width x height block and returns its handle, growing the texture array if the
// block landed on a slice past the end of it. InvalidHandle with a nil error means the block can never be
// placed in this atlas (too large, or MaxDepth has been reached) and the caller should use another atlas.
func (a *Atlas) AddBlock(width, height int) (blocks.Handle, error) {
	a.logger.Debug("Atlas::AddBlock")

	if a.array == nil || !a.CheckFit(width, height) {
		return blocks.InvalidHandle, nil
	}

	handle, placement, ok := a.packer.AddBlock(width, height)
	if !ok {
		a.logger.LogAttrs(context.Background(), slog.LevelDebug, "Atlas::AddBlock could not place block",
			slog.String("atlas", a.name),
			slog.Int("width", width),
			slog.Int("height", height),
		)
		return blocks.InvalidHandle, nil
	}

	if placement.Slice >= a.array.Depth() {
		newDepth := placement.Slice + 1
		if a.maxDepth > 0 && newDepth > a.maxDepth {
			a.packer.RemoveBlock(handle)
			return blocks.InvalidHandle, nil
		}

		err := a.grow(newDepth)
		if err != nil {
			a.packer.RemoveBlock(handle)
			return blocks.InvalidHandle, err
		}
	}

	memutils.DebugValidate(a)
	return handle, nil
}

func (a *Atlas) grow(newDepth int) error {
	oldArray := a.array
	oldDepth := oldArray.Depth()

	newArray, err := a.createArray(newDepth)
	if err != nil {
		return errors.Wrapf(err, "failed to grow atlas %q from %d to %d slices", a.name, oldDepth, newDepth)
	}

	for slice := 0; slice < oldDepth; slice++ {
		err = a.device.CopySlice(oldArray, slice, newArray, slice)
		if err != nil {
			a.device.DestroyTextureArray(newArray)
			return errors.Wrapf(err, "failed to copy slice %d while growing atlas %q", slice, a.name)
		}
	}

	a.array = newArray
	a.device.DestroyTextureArray(oldArray)
	a.version++
	a.growCount++

	a.logger.LogAttrs(context.Background(), slog.LevelInfo, "atlas grew",
		slog.String("atlas", a.name),
		slog.Int("oldDepth", oldDepth),
		slog.Int("newDepth", newDepth),
	)

	for _, sub := range a.subscriptions {
		sub.observer(a, newArray)
	}

	return nil
}

// GetLayout returns the slice and rectangle of a block
func (a *Atlas) GetLayout(handle blocks.Handle) (Placement, bool) {
	return a.packer.GetLayout(handle)
}

// RemoveBlock releases the packer's record of a block. The texels it covered are left as they are.
func (a *Atlas) RemoveBlock(handle blocks.Handle) {
	a.logger.Debug("Atlas::RemoveBlock")
	a.packer.RemoveBlock(handle)
}

// CopyFromSlice fills a block from the top-left corner of one slice of another texture array with a
// single GPU copy. While the device has a global mip limit active, sub-rectangle copies are not
// possible, so the block must cover an entire slice and the whole slice is copied.
func (a *Atlas) CopyFromSlice(src gpu.TextureArray, srcSlice int, handle blocks.Handle) error {
	placement, ok := a.packer.GetLayout(handle)
	if !ok {
		return errors.Newf("atlas %q has no block %s", a.name, handle)
	}

	if a.device.GlobalMipLimit() == 0 {
		return a.device.CopyRegion(
			src, srcSlice,
			gpu.Rect{Width: placement.Rect.Width, Height: placement.Rect.Height},
			a.array, placement.Slice,
			placement.Rect.X, placement.Rect.Y,
		)
	}

	full := gpu.Rect{Width: a.width, Height: a.height}
	if placement.Rect != full || src.Width() != a.width || src.Height() != a.height {
		panic(fmt.Sprintf("atlas %q: a global mip limit is active, which prohibits copying into block %s at %+v; "+
			"blocks must cover a whole %dx%d slice", a.name, handle, placement.Rect, a.width, a.height))
	}

	return a.device.CopySlice(src, srcSlice, a.array, placement.Slice)
}

// UploadBlock fills a block from tightly-packed texels in CPU memory
func (a *Atlas) UploadBlock(handle blocks.Handle, texels []byte) error {
	placement, ok := a.packer.GetLayout(handle)
	if !ok {
		return errors.Newf("atlas %q has no block %s", a.name, handle)
	}

	return a.device.WriteRegion(a.array, placement.Slice, placement.Rect, texels)
}

func (a *Atlas) AddStatistics(stats *memutils.Statistics) {
	sliceArea := a.width * a.height

	stats.BlockCount += a.Depth()
	stats.BlockUnits += a.Depth() * sliceArea

	_ = a.packer.VisitBlocks(func(handle blocks.Handle, placement Placement) error {
		stats.AllocationCount++
		stats.AllocationUnits += placement.Rect.Width * placement.Rect.Height
		return nil
	})
}

func (a *Atlas) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	depth := a.Depth()
	sliceArea := a.width * a.height
	used := make([]int, depth)

	stats.BlockCount += depth
	stats.BlockUnits += depth * sliceArea

	_ = a.packer.VisitBlocks(func(handle blocks.Handle, placement Placement) error {
		area := placement.Rect.Width * placement.Rect.Height
		stats.AddAllocation(area)
		if placement.Slice < depth {
			used[placement.Slice] += area
		}
		return nil
	})

	for _, usedArea := range used {
		if usedArea < sliceArea {
			stats.AddUnusedRange(sliceArea - usedArea)
		}
	}
}

// PrintDetailedMap writes the atlas's dimensions, statistics, and blocks as a JSON object
func (a *Atlas) PrintDetailedMap(writer *jwriter.Writer) {
	var stats memutils.DetailedStatistics
	stats.Clear()
	a.AddDetailedStatistics(&stats)

	obj := writer.Object()
	defer obj.End()

	obj.Name("Name").String(a.name)
	obj.Name("Format").String(a.format.String())
	obj.Name("Width").Int(a.width)
	obj.Name("Height").Int(a.height)
	obj.Name("Depth").Int(a.Depth())
	obj.Name("Version").Int(int(a.version))
	stats.PrintJson(&obj)

	blockArray := obj.Name("Blocks").Array()
	defer blockArray.End()

	_ = a.packer.VisitBlocks(func(handle blocks.Handle, placement Placement) error {
		blockObj := blockArray.Object()
		defer blockObj.End()

		blockObj.Name("Handle").Int(int(handle))
		blockObj.Name("Slice").Int(placement.Slice)
		blockObj.Name("X").Int(placement.Rect.X)
		blockObj.Name("Y").Int(placement.Rect.Y)
		blockObj.Name("Width").Int(placement.Rect.Width)
		blockObj.Name("Height").Int(placement.Rect.Height)
		return nil
	})
}

// Validate checks the packer's invariants and that every block lies on an existing slice
func (a *Atlas) Validate() error {
	err := a.packer.Validate()
	if err != nil {
		return err
	}

	depth := a.Depth()
	return a.packer.VisitBlocks(func(handle blocks.Handle, placement Placement) error {
		if placement.Slice >= depth {
			return errors.Newf("block %s is on slice %d but atlas %q only has %d slices", handle, placement.Slice, a.name, depth)
		}
		return nil
	})
}

// Destroy releases the packer and the texture array. Observers are not notified.
func (a *Atlas) Destroy() {
	if a.packer.BlockCount() > 0 {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "atlas destroyed with live blocks",
			slog.String("atlas", a.name),
			slog.Int("blocks", a.packer.BlockCount()),
		)
	}

	a.packer.Destroy()
	if a.array != nil {
		a.device.DestroyTextureArray(a.array)
		a.array = nil
	}
	a.subscriptions = nil
}
