// Package mask provides the per-entity component bitmask used by the reference world.
package mask

import "github.com/kelindar/bitmap"

// Mask records the component indices an entity carries. The zero value is an empty mask.
type Mask struct {
	bits bitmap.Bitmap
}

// Of returns a mask holding the given indices.
func Of(indices ...uint32) *Mask {
	m := &Mask{}
	for _, idx := range indices {
		m.bits.Set(idx)
	}
	return m
}

// Set adds the index to the mask.
func (m *Mask) Set(index uint32) {
	m.bits.Set(index)
}

// Remove drops the index from the mask.
func (m *Mask) Remove(index uint32) {
	m.bits.Remove(index)
}

// Contains reports whether the index is in the mask.
func (m *Mask) Contains(index uint32) bool {
	return m.bits.Contains(index)
}

// HasAll reports whether every index is in the mask. True for an empty list.
func (m *Mask) HasAll(indices []uint32) bool {
	for _, idx := range indices {
		if !m.bits.Contains(idx) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one index is in the mask. False for an empty list.
func (m *Mask) HasAny(indices []uint32) bool {
	for _, idx := range indices {
		if m.bits.Contains(idx) {
			return true
		}
	}
	return false
}

// HasNone reports whether no index is in the mask.
func (m *Mask) HasNone(indices []uint32) bool {
	return !m.HasAny(indices)
}

// Count returns the number of indices in the mask.
func (m *Mask) Count() int {
	return m.bits.Count()
}

// Indices returns the indices in the mask in ascending order.
func (m *Mask) Indices() []uint32 {
	out := make([]uint32, 0, m.bits.Count())
	m.bits.Range(func(x uint32) {
		out = append(out, x)
	})
	return out
}

// Clone returns an independent copy of the mask.
func (m *Mask) Clone() *Mask {
	return &Mask{bits: m.bits.Clone(nil)}
}

// Clear removes every index.
func (m *Mask) Clear() {
	m.bits.Clear()
}
