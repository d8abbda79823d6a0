package blocks

import (
	"strconv"

	"github.com/dolthub/swiss"
)

// Handle is an opaque identifier for a block tracked by a Tracker. Handles compare by value.
type Handle int

// InvalidHandle is returned when a block could not be tracked
const InvalidHandle Handle = -1

func (h Handle) IsValid() bool {
	return h > InvalidHandle
}

func (h Handle) String() string {
	if !h.IsValid() {
		return "Invalid"
	}
	return strconv.Itoa(int(h))
}

// HandleGenerator produces Handle values. A handle is never produced again while it is live; once it is
// released it may be handed out again.
type HandleGenerator struct {
	max      Handle
	released []Handle
	live     *swiss.Map[Handle, struct{}]
}

func NewHandleGenerator() *HandleGenerator {
	return &HandleGenerator{
		max:  InvalidHandle,
		live: swiss.NewMap[Handle, struct{}](42),
	}
}

// GetHandle returns a released handle if one is available, or the next unused value otherwise
func (g *HandleGenerator) GetHandle() Handle {
	var handle Handle
	if len(g.released) > 0 {
		handle = g.released[len(g.released)-1]
		g.released = g.released[:len(g.released)-1]
	} else {
		g.max++
		handle = g.max
	}

	g.live.Put(handle, struct{}{})
	return handle
}

// ReleaseHandle makes a live handle available for reuse. Handles that are not live are ignored.
func (g *HandleGenerator) ReleaseHandle(handle Handle) {
	if !g.live.Has(handle) {
		return
	}

	g.live.Delete(handle)
	g.released = append(g.released, handle)
}

// IsLive returns true if the handle has been produced by GetHandle and not released since
func (g *HandleGenerator) IsLive(handle Handle) bool {
	return g.live.Has(handle)
}

// LiveCount returns the number of handles that are currently live
func (g *HandleGenerator) LiveCount() int {
	return g.live.Count()
}

// Reset releases every handle and starts numbering from zero again
func (g *HandleGenerator) Reset() {
	g.max = InvalidHandle
	g.released = g.released[:0]
	g.live.Clear()
}
