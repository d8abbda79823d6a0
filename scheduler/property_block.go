package scheduler

import (
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// PropertyBlock is a Material that records the values it was given. Renderers copy it into their own
// uniform blocks; tools and tests read it back directly.
type PropertyBlock struct {
	ints   *swiss.Map[MaterialProperty, int]
	floats *swiss.Map[MaterialProperty, float32]
}

var _ Material = &PropertyBlock{}

func NewPropertyBlock() *PropertyBlock {
	return &PropertyBlock{
		ints:   swiss.NewMap[MaterialProperty, int](8),
		floats: swiss.NewMap[MaterialProperty, float32](8),
	}
}

func (b *PropertyBlock) SetInt(property MaterialProperty, value int) {
	b.ints.Put(property, value)
}

func (b *PropertyBlock) SetFloat(property MaterialProperty, value float32) {
	b.floats.Put(property, value)
}

func (b *PropertyBlock) Int(property MaterialProperty) (int, bool) {
	return b.ints.Get(property)
}

func (b *PropertyBlock) Float(property MaterialProperty) (float32, bool) {
	return b.floats.Get(property)
}

// Clear forgets every recorded value
func (b *PropertyBlock) Clear() {
	b.ints.Clear()
	b.floats.Clear()
}

// PrintJson writes every recorded value as fields of an open JSON object
func (b *PropertyBlock) PrintJson(json *jwriter.ObjectState) {
	for property := PropertyLerpValue; property <= PropertyPrevRenderLerpValue; property++ {
		if value, ok := b.ints.Get(property); ok {
			json.Name(property.String()).Int(value)
		}
		if value, ok := b.floats.Get(property); ok {
			json.Name(property.String()).Float64(float64(value))
		}
	}
}
