package world

import (
	"github.com/argus-labs/ecsquery/pkg/assert"
	"github.com/argus-labs/ecsquery/pkg/ecsquery"
)

// abstractPool is the type-erased view of a pool used by the world and the query engine.
type abstractPool interface {
	len() int
	has(eid EntityID) bool
	remove(eid EntityID) bool
	getAbstract(eid EntityID) (ecsquery.Component, bool)

	ForEachEntity(visit func(entity EntityID))
}

var _ abstractPool = &pool[ecsquery.Component]{}

// poolFactory creates an empty pool for one registered component type.
type poolFactory func() abstractPool

// pool stores the components of one type densely. rows maps an entity to its index in both the
// entities and the components slices, which always have the same length.
type pool[T ecsquery.Component] struct {
	rows       sparseSet
	entities   []EntityID
	components []T
}

func newPool[T ecsquery.Component]() *pool[T] {
	const initialCapacity = 16
	return &pool[T]{
		rows:       newSparseSet(),
		entities:   make([]EntityID, 0, initialCapacity),
		components: make([]T, 0, initialCapacity),
	}
}

func newPoolFactory[T ecsquery.Component]() poolFactory {
	return func() abstractPool {
		return newPool[T]()
	}
}

func (p *pool[T]) len() int {
	return len(p.entities)
}

func (p *pool[T]) has(eid EntityID) bool {
	_, ok := p.rows.get(eid)
	return ok
}

// set stores the component of the entity. Returns true if the entity was added to the pool, false
// if an existing value was replaced.
func (p *pool[T]) set(eid EntityID, component T) bool {
	if row, ok := p.rows.get(eid); ok {
		p.components[row] = component
		return false
	}
	p.entities = append(p.entities, eid)
	p.components = append(p.components, component)
	p.rows.set(eid, len(p.entities)-1)
	return true
}

func (p *pool[T]) get(eid EntityID) (T, bool) {
	row, ok := p.rows.get(eid)
	if !ok {
		var zero T
		return zero, false
	}
	return p.components[row], true
}

func (p *pool[T]) getAbstract(eid EntityID) (ecsquery.Component, bool) {
	return p.get(eid)
}

// remove swaps the entity's row with the last row and truncates. Returns false if the entity is
// not in the pool.
func (p *pool[T]) remove(eid EntityID) bool {
	row, ok := p.rows.get(eid)
	if !ok {
		return false
	}

	last := len(p.entities) - 1
	p.entities[row] = p.entities[last]
	p.components[row] = p.components[last]
	p.entities = p.entities[:last]

	var zero T
	p.components[last] = zero
	p.components = p.components[:last]

	p.rows.remove(eid)
	if row != last {
		p.rows.set(p.entities[row], row)
	}
	assert.That(len(p.entities) == len(p.components), "pool entities and components out of sync")
	return true
}

// ForEachEntity visits the entities of the pool in dense order.
func (p *pool[T]) ForEachEntity(visit func(entity EntityID)) {
	for _, eid := range p.entities {
		visit(eid)
	}
}

// emptySet is returned for component indices without a pool.
type emptySet struct{}

func (emptySet) ForEachEntity(func(EntityID)) {}
