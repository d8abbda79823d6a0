package atlas

import (
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/vkngwrapper/avatarskin/blocks"
	"github.com/vkngwrapper/avatarskin/gpu"
)

// Placement is where a packer put a block: a rectangle inside one slice
type Placement struct {
	Slice int
	Rect  gpu.Rect
}

// Packer places rectangles into the slices of a texture array. Packers only keep records; the Atlas
// owns the texture and grows it when a packer places a block on a slice that does not exist yet.
type Packer interface {
	// AddBlock places a width x height block and returns its handle. The returned slice may be one past
	// the last slice the packer has used so far. ok is false if the block can never be placed.
	AddBlock(width, height int) (handle blocks.Handle, placement Placement, ok bool)
	// RemoveBlock drops the record of a block. Unknown handles are ignored.
	RemoveBlock(handle blocks.Handle)
	GetLayout(handle blocks.Handle) (Placement, bool)
	BlockCount() int
	// SliceCount returns one more than the highest slice index any live or past block was placed on
	SliceCount() int
	VisitBlocks(visit func(handle blocks.Handle, placement Placement) error) error
	Validate() error
	Destroy()
}

type shelf struct {
	y      int
	height int
	cursor int
	live   int
}

type packedSlice struct {
	shelves   []*shelf
	nextShelf int
}

type runtimeRecord struct {
	placement Placement
	shelf     *shelf
}

// RuntimePacker is a first-fit shelf packer. Each slice is divided into horizontal shelves; a block goes
// onto the first shelf of the first slice that is tall enough and has room left, otherwise a new shelf
// is opened, otherwise the next slice is tried.
//
// Space from removed blocks is only reclaimed once every block on a shelf has been removed, at which
// point the shelf is rewound (or dropped, if it is the last shelf of its slice).
type RuntimePacker struct {
	width     int
	height    int
	maxSlices int

	slices    []*packedSlice
	records   *swiss.Map[blocks.Handle, runtimeRecord]
	generator *blocks.HandleGenerator
}

var _ Packer = &RuntimePacker{}

// NewRuntimePacker creates a packer for slices of the given size. maxSlices limits how many slices
// blocks may be spread across; 0 means unlimited.
func NewRuntimePacker(width, height, maxSlices int) *RuntimePacker {
	return &RuntimePacker{
		width:     width,
		height:    height,
		maxSlices: maxSlices,
		records:   swiss.NewMap[blocks.Handle, runtimeRecord](42),
		generator: blocks.NewHandleGenerator(),
	}
}

func (p *RuntimePacker) AddBlock(width, height int) (blocks.Handle, Placement, bool) {
	if width <= 0 || height <= 0 || width > p.width || height > p.height {
		return blocks.InvalidHandle, Placement{}, false
	}

	for sliceIndex, slice := range p.slices {
		placement, placedShelf, ok := p.placeInSlice(slice, sliceIndex, width, height)
		if ok {
			return p.record(placement, placedShelf), placement, true
		}
	}

	if p.maxSlices > 0 && len(p.slices) >= p.maxSlices {
		return blocks.InvalidHandle, Placement{}, false
	}

	slice := &packedSlice{}
	p.slices = append(p.slices, slice)
	placement, placedShelf, _ := p.placeInSlice(slice, len(p.slices)-1, width, height)
	return p.record(placement, placedShelf), placement, true
}

func (p *RuntimePacker) placeInSlice(slice *packedSlice, sliceIndex int, width, height int) (Placement, *shelf, bool) {
	for _, candidate := range slice.shelves {
		if height <= candidate.height && candidate.cursor+width <= p.width {
			placement := Placement{
				Slice: sliceIndex,
				Rect:  gpu.Rect{X: candidate.cursor, Y: candidate.y, Width: width, Height: height},
			}
			candidate.cursor += width
			candidate.live++
			return placement, candidate, true
		}
	}

	if slice.nextShelf+height > p.height {
		return Placement{}, nil, false
	}

	newShelf := &shelf{
		y:      slice.nextShelf,
		height: height,
		cursor: width,
		live:   1,
	}
	slice.shelves = append(slice.shelves, newShelf)
	slice.nextShelf += height

	return Placement{
		Slice: sliceIndex,
		Rect:  gpu.Rect{X: 0, Y: newShelf.y, Width: width, Height: height},
	}, newShelf, true
}

func (p *RuntimePacker) record(placement Placement, placedShelf *shelf) blocks.Handle {
	handle := p.generator.GetHandle()
	p.records.Put(handle, runtimeRecord{placement: placement, shelf: placedShelf})
	return handle
}

func (p *RuntimePacker) RemoveBlock(handle blocks.Handle) {
	record, ok := p.records.Get(handle)
	if !ok {
		return
	}

	p.records.Delete(handle)
	p.generator.ReleaseHandle(handle)

	record.shelf.live--
	if record.shelf.live > 0 {
		return
	}

	slice := p.slices[record.placement.Slice]
	lastShelf := slice.shelves[len(slice.shelves)-1]
	if lastShelf == record.shelf {
		slice.shelves = slice.shelves[:len(slice.shelves)-1]
		slice.nextShelf = record.shelf.y
	} else {
		record.shelf.cursor = 0
	}
}

func (p *RuntimePacker) GetLayout(handle blocks.Handle) (Placement, bool) {
	record, ok := p.records.Get(handle)
	if !ok {
		return Placement{}, false
	}
	return record.placement, true
}

func (p *RuntimePacker) BlockCount() int {
	return p.records.Count()
}

func (p *RuntimePacker) SliceCount() int {
	return len(p.slices)
}

func (p *RuntimePacker) VisitBlocks(visit func(handle blocks.Handle, placement Placement) error) error {
	var err error
	p.records.Iter(func(handle blocks.Handle, record runtimeRecord) bool {
		err = visit(handle, record.placement)
		return err != nil
	})
	return err
}

func (p *RuntimePacker) Validate() error {
	bounds := gpu.Rect{Width: p.width, Height: p.height}
	perSlice := make([][]Placement, len(p.slices))
	liveCounts := map[*shelf]int{}

	err := p.VisitBlocks(func(handle blocks.Handle, placement Placement) error {
		if placement.Slice < 0 || placement.Slice >= len(p.slices) {
			return errors.Newf("block %s is on slice %d but the packer has %d slices", handle, placement.Slice, len(p.slices))
		}
		if !bounds.Contains(placement.Rect) {
			return errors.Newf("block %s at %+v is outside of the %dx%d slice", handle, placement.Rect, p.width, p.height)
		}
		for _, other := range perSlice[placement.Slice] {
			if other.Rect.Overlaps(placement.Rect) {
				return errors.Newf("block %s at %+v overlaps %+v on slice %d", handle, placement.Rect, other.Rect, placement.Slice)
			}
		}
		perSlice[placement.Slice] = append(perSlice[placement.Slice], placement)

		record, _ := p.records.Get(handle)
		liveCounts[record.shelf]++
		return nil
	})
	if err != nil {
		return err
	}

	for sliceIndex, slice := range p.slices {
		y := 0
		for _, s := range slice.shelves {
			if s.y != y {
				return errors.Newf("shelf on slice %d starts at %d, expected %d", sliceIndex, s.y, y)
			}
			if s.live != liveCounts[s] {
				return errors.Newf("shelf at %d on slice %d counts %d blocks but holds %d", s.y, sliceIndex, s.live, liveCounts[s])
			}
			if s.cursor > p.width {
				return errors.Newf("shelf at %d on slice %d overflows its slice", s.y, sliceIndex)
			}
			y += s.height
		}
		if y != slice.nextShelf || y > p.height {
			return errors.Newf("shelves on slice %d end at %d but the next shelf starts at %d", sliceIndex, y, slice.nextShelf)
		}
	}

	return nil
}

func (p *RuntimePacker) Destroy() {
	p.records.Clear()
	p.generator.Reset()
	p.slices = nil
}
