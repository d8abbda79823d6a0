package blocks

import (
	"context"
	"math"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/avatarskin/internal/utils"
	"github.com/vkngwrapper/avatarskin/memutils"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

var nodeAllocator = sync.Pool{
	New: func() any {
		return &trackerNode{}
	},
}

type trackerNode struct {
	start  int
	size   int
	isFree bool
	handle Handle

	prev *trackerNode
	next *trackerNode
}

func newNode(start, size int, isFree bool) *trackerNode {
	node := nodeAllocator.Get().(*trackerNode)
	node.start = start
	node.size = size
	node.isFree = isFree
	node.handle = InvalidHandle
	node.prev = nil
	node.next = nil
	return node
}

func releaseNode(node *trackerNode) {
	node.prev = nil
	node.next = nil
	nodeAllocator.Put(node)
}

// Layout is the range of logical units occupied by a tracked block
type Layout struct {
	StartIndex int
	Count      int
}

// InvalidLayout is returned by Tracker.GetLayout for handles the tracker does not know about
var InvalidLayout = Layout{StartIndex: math.MaxInt, Count: 0}

func (l Layout) IsValid() bool {
	return l.StartIndex != math.MaxInt
}

// CreateOptions contains optional settings when creating a Tracker
type CreateOptions struct {
	// MaxSize is the capacity of the pool in logical units. 0 means unbounded.
	MaxSize int
	// Synchronized causes the Tracker to lock an internal mutex around every call. Trackers are normally
	// only touched from the render submission thread, so this is off by default.
	Synchronized bool
}

// Tracker is a free-list allocator over a one-dimensional logical capacity. Blocks are packed from index
// 0 upward; freed blocks are coalesced with free neighbors and kept in a list sorted by size so that
// TrackBlock can reuse the smallest free range that is large enough.
//
// The tracker only does bookkeeping. The caller owns whatever buffer or texture the logical units
// refer to, and is expected to open another pool when CanFit reports false.
type Tracker struct {
	logger *slog.Logger
	mutex  utils.OptionalRWMutex

	maxSize    int
	sizeNeeded int

	first *trackerNode
	last  *trackerNode

	freeNodes []*trackerNode
	handles   *swiss.Map[Handle, *trackerNode]
	generator *HandleGenerator
}

func NewTracker(logger *slog.Logger, options CreateOptions) *Tracker {
	maxSize := options.MaxSize
	if maxSize <= 0 {
		maxSize = math.MaxInt
	}

	return &Tracker{
		logger: logger,
		mutex: utils.OptionalRWMutex{
			UseMutex: options.Synchronized,
		},
		maxSize:   maxSize,
		handles:   swiss.NewMap[Handle, *trackerNode](42),
		generator: NewHandleGenerator(),
	}
}

// MaxSize returns the capacity of the pool in logical units
func (t *Tracker) MaxSize() int { return t.maxSize }

// SizeNeeded returns the number of logical units that must be backed to hold every block that has ever
// been appended. It does not shrink when blocks are freed.
func (t *Tracker) SizeNeeded() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.sizeNeeded
}

// BlockCount returns the number of live blocks
func (t *Tracker) BlockCount() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return t.handles.Count()
}

// FreeNodeCount returns the number of coalesced free ranges
func (t *Tracker) FreeNodeCount() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	return len(t.freeNodes)
}

func (t *Tracker) IsEmpty() bool {
	return t.BlockCount() == 0
}

// CanFit returns true if a block of the requested size could be tracked, either by growing the used
// range while staying under MaxSize or by reusing a free range.
func (t *Tracker) CanFit(size int) bool {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if t.sizeNeeded+size < t.maxSize {
		return true
	}

	return t.findFreeNode(size) >= 0
}

// TrackBlock reserves a contiguous range of size logical units and returns a handle to it. The smallest
// free range that can hold the block is reused and split if it is larger than needed; otherwise the
// block is appended to the end of the used range. InvalidHandle is returned if size is not positive or if
// the block would push the used range past MaxSize.
func (t *Tracker) TrackBlock(size int) Handle {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if size <= 0 {
		return InvalidHandle
	}

	var node *trackerNode
	freeIndex := t.findFreeNode(size)
	if freeIndex >= 0 {
		node = t.freeNodes[freeIndex]
		t.freeNodes = slices.Delete(t.freeNodes, freeIndex, freeIndex+1)

		if node.size != size {
			remainder := newNode(node.start+size, node.size-size, true)
			t.insertAfter(node, remainder)
			t.insertFreeNode(remainder)
		}

		node.size = size
		node.isFree = false
	} else {
		if size > t.maxSize-t.sizeNeeded {
			t.logger.LogAttrs(context.Background(), slog.LevelDebug, "Tracker::TrackBlock capacity exhausted",
				slog.Int("requested", size),
				slog.Int("sizeNeeded", t.sizeNeeded),
				slog.Int("maxSize", t.maxSize),
			)
			return InvalidHandle
		}

		node = newNode(t.sizeNeeded, size, false)
		t.insertAfter(t.last, node)
		t.sizeNeeded += size
	}

	handle := t.generator.GetHandle()
	node.handle = handle
	t.handles.Put(handle, node)

	memutils.DebugValidate(t)
	return handle
}

// FreeBlock releases a block and coalesces it with any free neighbors. Unknown handles are ignored.
func (t *Tracker) FreeBlock(handle Handle) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	node, ok := t.handles.Get(handle)
	if !ok {
		return
	}

	t.handles.Delete(handle)
	t.generator.ReleaseHandle(handle)

	node.isFree = true
	node.handle = InvalidHandle

	next := node.next
	if next != nil && next.isFree {
		t.removeFreeNode(next)
		node.size += next.size
		t.unlink(next)
		releaseNode(next)
	}

	prev := node.prev
	if prev != nil && prev.isFree {
		// The previous node survives the merge, so it has to be re-sorted with its new size
		t.removeFreeNode(prev)
		prev.size += node.size
		t.unlink(node)
		releaseNode(node)
		t.insertFreeNode(prev)
	} else {
		t.insertFreeNode(node)
	}

	memutils.DebugValidate(t)
}

// GetLayout returns the range occupied by a block, or InvalidLayout if the handle is unknown
func (t *Tracker) GetLayout(handle Handle) Layout {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	node, ok := t.handles.Get(handle)
	if !ok {
		return InvalidLayout
	}

	return Layout{StartIndex: node.start, Count: node.size}
}

// Clear forgets every block. Handles handed out before Clear are no longer valid.
func (t *Tracker) Clear() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for node := t.first; node != nil; {
		next := node.next
		releaseNode(node)
		node = next
	}

	t.first = nil
	t.last = nil
	t.sizeNeeded = 0
	t.freeNodes = t.freeNodes[:0]
	t.handles.Clear()
	t.generator.Reset()
}

// VisitAllRegions calls handleRegion for every node in order of start index, stopping at the first error
func (t *Tracker) VisitAllRegions(handleRegion func(handle Handle, start, size int, free bool) error) error {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	for node := t.first; node != nil; node = node.next {
		err := handleRegion(node.handle, node.start, node.size, node.isFree)
		if err != nil {
			return err
		}
	}

	return nil
}

func (t *Tracker) AddStatistics(stats *memutils.Statistics) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	stats.BlockCount++
	stats.BlockUnits += t.capacity()

	for node := t.first; node != nil; node = node.next {
		if !node.isFree {
			stats.AllocationCount++
			stats.AllocationUnits += node.size
		}
	}
}

func (t *Tracker) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	stats.BlockCount++
	stats.BlockUnits += t.capacity()

	for node := t.first; node != nil; node = node.next {
		if node.isFree {
			stats.AddUnusedRange(node.size)
		} else {
			stats.AddAllocation(node.size)
		}
	}

	tail := t.capacity() - t.sizeNeeded
	if tail > 0 {
		stats.AddUnusedRange(tail)
	}
}

// PrintDetailedMap writes the tracker's statistics and every node as a JSON object
func (t *Tracker) PrintDetailedMap(writer *jwriter.Writer) {
	var stats memutils.DetailedStatistics
	stats.Clear()
	t.AddDetailedStatistics(&stats)

	obj := writer.Object()
	defer obj.End()

	obj.Name("SizeNeeded").Int(t.SizeNeeded())
	if t.maxSize != math.MaxInt {
		obj.Name("MaxSize").Int(t.maxSize)
	}
	stats.PrintJson(&obj)

	nodes := obj.Name("Nodes").Array()
	defer nodes.End()

	_ = t.VisitAllRegions(func(handle Handle, start, size int, free bool) error {
		nodeObj := nodes.Object()
		defer nodeObj.End()

		nodeObj.Name("Start").Int(start)
		nodeObj.Name("Size").Int(size)
		if free {
			nodeObj.Name("Type").String("Free")
		} else {
			nodeObj.Name("Type").String("Block")
			nodeObj.Name("Handle").Int(int(handle))
		}
		return nil
	})
}

// Validate checks the tracker's internal invariants: the node sequence tiles [0, SizeNeeded) without gaps,
// no two free nodes are adjacent, the free list holds exactly the free nodes sorted by size, and every
// live handle maps to a taken node. Validate does not take the tracker's lock.
func (t *Tracker) Validate() error {
	expectedStart := 0
	freeCount := 0
	takenCount := 0

	var prev *trackerNode
	for node := t.first; node != nil; node = node.next {
		if node.prev != prev {
			return errors.Newf("node at %d has a bad previous link", node.start)
		}
		if node.start != expectedStart {
			return errors.Newf("node starts at %d but the previous node ended at %d", node.start, expectedStart)
		}
		if node.size <= 0 {
			return errors.Newf("node at %d has size %d", node.start, node.size)
		}

		if node.isFree {
			if prev != nil && prev.isFree {
				return errors.Newf("free nodes at %d and %d were not coalesced", prev.start, node.start)
			}
			if node.handle.IsValid() {
				return errors.Newf("free node at %d still holds handle %d", node.start, node.handle)
			}
			freeCount++
		} else {
			mapped, ok := t.handles.Get(node.handle)
			if !ok || mapped != node {
				return errors.Newf("taken node at %d is not registered under handle %d", node.start, node.handle)
			}
			takenCount++
		}

		expectedStart += node.size
		prev = node
	}

	if prev != t.last {
		return errors.New("last node does not match the end of the node sequence")
	}

	if expectedStart != t.sizeNeeded {
		return errors.Newf("nodes cover %d units but sizeNeeded is %d", expectedStart, t.sizeNeeded)
	}

	if t.sizeNeeded > t.maxSize {
		return errors.Newf("sizeNeeded %d is over the max size of %d", t.sizeNeeded, t.maxSize)
	}

	if freeCount != len(t.freeNodes) {
		return errors.Newf("found %d free nodes but the free list has %d entries", freeCount, len(t.freeNodes))
	}

	for i, node := range t.freeNodes {
		if !node.isFree {
			return errors.Newf("free list entry %d at %d is not free", i, node.start)
		}
		if i > 0 && compareFreeNodes(t.freeNodes[i-1], node) > 0 {
			return errors.Newf("free list is out of order at entry %d", i)
		}
	}

	if takenCount != t.handles.Count() {
		return errors.Newf("found %d taken nodes but %d handles are registered", takenCount, t.handles.Count())
	}

	return nil
}

func (t *Tracker) capacity() int {
	if t.maxSize == math.MaxInt {
		return t.sizeNeeded
	}
	return t.maxSize
}

// findFreeNode returns the index in the free list of the smallest free node of at least size units, or -1
func (t *Tracker) findFreeNode(size int) int {
	index, _ := slices.BinarySearchFunc(t.freeNodes, size, func(node *trackerNode, target int) int {
		return node.size - target
	})

	if index >= len(t.freeNodes) {
		return -1
	}
	return index
}

func compareFreeNodes(left, right *trackerNode) int {
	if left.size != right.size {
		return left.size - right.size
	}
	return left.start - right.start
}

func (t *Tracker) insertFreeNode(node *trackerNode) {
	index, _ := slices.BinarySearchFunc(t.freeNodes, node, compareFreeNodes)
	t.freeNodes = slices.Insert(t.freeNodes, index, node)
}

func (t *Tracker) removeFreeNode(node *trackerNode) {
	index, found := slices.BinarySearchFunc(t.freeNodes, node, compareFreeNodes)
	if !found || t.freeNodes[index] != node {
		panic(errors.Newf("free node at %d is missing from the free list", node.start))
	}

	t.freeNodes = slices.Delete(t.freeNodes, index, index+1)
}

// insertAfter links node into the sequence after prev. A nil prev places node at the front.
func (t *Tracker) insertAfter(prev *trackerNode, node *trackerNode) {
	node.prev = prev
	if prev == nil {
		node.next = t.first
		t.first = node
	} else {
		node.next = prev.next
		prev.next = node
	}

	if node.next != nil {
		node.next.prev = node
	} else {
		t.last = node
	}
}

func (t *Tracker) unlink(node *trackerNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		t.first = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		t.last = node.prev
	}
}
