package ecsquery

import (
	"iter"

	"github.com/argus-labs/ecsquery/pkg/assert"
)

// MaxIterateTypes is the largest number of component types Iterate binds.
const MaxIterateTypes = 8

// Iterate returns a sequence over the matching entities and the given component types. Each
// yielded slice is freshly allocated and holds the components in argument order; a component the
// entity does not carry (an optional one) is nil.
//
// The query refreshes when iteration starts. The sequence is single-pass per range loop and can be
// abandoned early. Do not change the components of this query's entities while ranging over it.
func (q *Query) Iterate(types ...ComponentType) iter.Seq2[EntityID, []Component] {
	assert.That(len(types) >= 1 && len(types) <= MaxIterateTypes,
		"iterate takes 1 to %d component types, got %d", MaxIterateTypes, len(types))

	indices := make([]ComponentIndex, len(types))
	for i, t := range types {
		indices[i] = t.Index()
	}
	return q.iterateIndices(indices)
}

// IterateBound is Iterate over every component the matcher binds, in Matcher.Components order.
func (q *Query) IterateBound() iter.Seq2[EntityID, []Component] {
	return q.iterateIndices(q.matcher.Components())
}

func (q *Query) iterateIndices(indices []ComponentIndex) iter.Seq2[EntityID, []Component] {
	return func(yield func(EntityID, []Component) bool) {
		q.lazyRefresh()
		q.cached.Iterate(func(x uint32) bool {
			entity := EntityID(x)
			row := make([]Component, len(indices))
			for i, idx := range indices {
				if c, ok := q.components.GetComponent(entity, idx); ok {
					row[i] = c
				}
			}
			return yield(entity, row)
		})
	}
}

// -------------------------------------------------------------------------------------------------
// Fixed arity iteration
// -------------------------------------------------------------------------------------------------

// The IterateN functions yield a pointer to one tuple that is reused for every entity of a single
// range loop. Copy what you need out of it before the next step. Each range loop gets its own
// tuple, so nested loops over queries never share one.
//
// A component the entity does not carry leaves its slot at the zero value of its type, and Has
// reports false for it.

// Tuple1 holds an entity and one bound component.
type Tuple1[T1 Component] struct {
	Entity  EntityID
	C1      T1
	present uint8
}

// Has reports whether the component in slot i (1-based) was found.
func (t *Tuple1[T1]) Has(i int) bool { return hasSlot(t.present, i) }

// Tuple2 holds an entity and two bound components.
type Tuple2[T1, T2 Component] struct {
	Entity  EntityID
	C1      T1
	C2      T2
	present uint8
}

// Has reports whether the component in slot i (1-based) was found.
func (t *Tuple2[T1, T2]) Has(i int) bool { return hasSlot(t.present, i) }

// Tuple3 holds an entity and three bound components.
type Tuple3[T1, T2, T3 Component] struct {
	Entity  EntityID
	C1      T1
	C2      T2
	C3      T3
	present uint8
}

// Has reports whether the component in slot i (1-based) was found.
func (t *Tuple3[T1, T2, T3]) Has(i int) bool { return hasSlot(t.present, i) }

// Tuple4 holds an entity and four bound components.
type Tuple4[T1, T2, T3, T4 Component] struct {
	Entity  EntityID
	C1      T1
	C2      T2
	C3      T3
	C4      T4
	present uint8
}

// Has reports whether the component in slot i (1-based) was found.
func (t *Tuple4[T1, T2, T3, T4]) Has(i int) bool { return hasSlot(t.present, i) }

func hasSlot(present uint8, i int) bool {
	return i >= 1 && i <= 8 && present&(1<<(i-1)) != 0
}

// fetch resolves one component of the entity into dst and returns the presence bit for the slot.
func fetch[T Component](q *Query, entity EntityID, index ComponentIndex, slot int, dst *T) uint8 {
	var zero T
	c, ok := q.components.GetComponent(entity, index)
	if !ok {
		*dst = zero
		return 0
	}
	v, ok := c.(T)
	if !ok {
		*dst = zero
		return 0
	}
	*dst = v
	return 1 << (slot - 1)
}

// Iterate1 iterates the query's entities with one component.
func Iterate1[T1 Component](q *Query, c1 ComponentType) iter.Seq[*Tuple1[T1]] {
	i1 := c1.Index()
	return func(yield func(*Tuple1[T1]) bool) {
		q.lazyRefresh()
		var t Tuple1[T1]
		q.cached.Iterate(func(x uint32) bool {
			t.Entity = EntityID(x)
			t.present = fetch(q, t.Entity, i1, 1, &t.C1)
			return yield(&t)
		})
	}
}

// Iterate2 iterates the query's entities with two components.
func Iterate2[T1, T2 Component](q *Query, c1, c2 ComponentType) iter.Seq[*Tuple2[T1, T2]] {
	i1, i2 := c1.Index(), c2.Index()
	return func(yield func(*Tuple2[T1, T2]) bool) {
		q.lazyRefresh()
		var t Tuple2[T1, T2]
		q.cached.Iterate(func(x uint32) bool {
			t.Entity = EntityID(x)
			t.present = fetch(q, t.Entity, i1, 1, &t.C1) |
				fetch(q, t.Entity, i2, 2, &t.C2)
			return yield(&t)
		})
	}
}

// Iterate3 iterates the query's entities with three components.
func Iterate3[T1, T2, T3 Component](q *Query, c1, c2, c3 ComponentType) iter.Seq[*Tuple3[T1, T2, T3]] {
	i1, i2, i3 := c1.Index(), c2.Index(), c3.Index()
	return func(yield func(*Tuple3[T1, T2, T3]) bool) {
		q.lazyRefresh()
		var t Tuple3[T1, T2, T3]
		q.cached.Iterate(func(x uint32) bool {
			t.Entity = EntityID(x)
			t.present = fetch(q, t.Entity, i1, 1, &t.C1) |
				fetch(q, t.Entity, i2, 2, &t.C2) |
				fetch(q, t.Entity, i3, 3, &t.C3)
			return yield(&t)
		})
	}
}

// Iterate4 iterates the query's entities with four components.
func Iterate4[T1, T2, T3, T4 Component](
	q *Query, c1, c2, c3, c4 ComponentType,
) iter.Seq[*Tuple4[T1, T2, T3, T4]] {
	i1, i2, i3, i4 := c1.Index(), c2.Index(), c3.Index(), c4.Index()
	return func(yield func(*Tuple4[T1, T2, T3, T4]) bool) {
		q.lazyRefresh()
		var t Tuple4[T1, T2, T3, T4]
		q.cached.Iterate(func(x uint32) bool {
			t.Entity = EntityID(x)
			t.present = fetch(q, t.Entity, i1, 1, &t.C1) |
				fetch(q, t.Entity, i2, 2, &t.C2) |
				fetch(q, t.Entity, i3, 3, &t.C3) |
				fetch(q, t.Entity, i4, 4, &t.C4)
			return yield(&t)
		})
	}
}
