// Package world is a single-threaded in-memory entity component store wired to the ecsquery
// engine. It owns entity masks and dense per-type component pools, and notifies its query
// registry on every component add, remove, and entity destroy.
package world

import (
	"github.com/argus-labs/ecsquery/pkg/ecsquery"
	"github.com/rotisserie/eris"
)

// World holds entities, components, and the queries declared over them.
type World struct {
	entities   entityManager
	components componentManager
	registry   *ecsquery.Registry
}

var (
	_ ecsquery.EntityPool    = (*World)(nil)
	_ ecsquery.ComponentPool = (*World)(nil)
)

// NewWorld creates an empty world. The options configure its query registry.
func NewWorld(opts ...ecsquery.RegistryOptions) (*World, error) {
	w := &World{
		entities:   newEntityManager(),
		components: newComponentManager(),
	}

	registry, err := ecsquery.NewRegistry(w, w, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create query registry")
	}
	w.registry = registry

	return w, nil
}

// Registry returns the query registry of the world.
func (w *World) Registry() *ecsquery.Registry {
	return w.registry
}

// NewMatcher starts a query declaration over this world.
func (w *World) NewMatcher() *ecsquery.Matcher {
	return w.registry.NewMatcher()
}

// Register registers the component type T and returns its handle. Registering the same type again
// returns the same handle.
func Register[T Component](w *World) (Type[T], error) {
	var zero T
	idx, err := w.components.register(zero.Name(), newPoolFactory[T]())
	if err != nil {
		return Type[T]{}, eris.Wrap(err, "failed to register component")
	}
	if _, ok := w.components.pools[idx].(*pool[T]); !ok {
		return Type[T]{}, eris.Errorf("component name %s is already used by another type", zero.Name())
	}
	return Type[T]{index: idx, name: zero.Name()}, nil
}

// Create creates an entity without components.
func (w *World) Create() (EntityID, error) {
	return w.entities.new()
}

// Destroy removes an entity and all its components.
func (w *World) Destroy(eid EntityID) error {
	m, err := w.entities.remove(eid)
	if err != nil {
		return err
	}

	indices := m.Indices()
	for _, idx := range indices {
		if p := w.components.pool(idx); p != nil {
			p.remove(eid)
		}
	}
	w.registry.NotifyDestroyed(eid, indices)
	return nil
}

// Alive reports whether the entity exists.
func (w *World) Alive(eid EntityID) bool {
	return w.entities.isAlive(eid)
}

// Count returns the number of live entities.
func (w *World) Count() int {
	return w.entities.count()
}

// Set sets a component on an entity, adding it if the entity does not carry the type yet.
func Set[T Component](w *World, eid EntityID, component T) error {
	idx, p, err := typedPool[T](&w.components)
	if err != nil {
		return err
	}
	m, err := w.entities.mask(eid)
	if err != nil {
		return err
	}

	if p.set(eid, component) {
		m.Set(idx)
		w.registry.NotifyChanged(idx, eid)
	}
	return nil
}

// SetBatch sets the same component value on several entities and notifies the queries once for
// all entities that gained the component. It stops at the first entity that does not exist.
func SetBatch[T Component](w *World, eids []EntityID, component T) error {
	idx, p, err := typedPool[T](&w.components)
	if err != nil {
		return err
	}

	added := make([]EntityID, 0, len(eids))
	defer func() {
		if len(added) > 0 {
			w.registry.NotifyChangedBatch(idx, added)
		}
	}()

	for _, eid := range eids {
		m, err := w.entities.mask(eid)
		if err != nil {
			return err
		}
		if p.set(eid, component) {
			m.Set(idx)
			added = append(added, eid)
		}
	}
	return nil
}

// Get returns the component of an entity.
func Get[T Component](w *World, eid EntityID) (T, error) {
	var zero T
	_, p, err := typedPool[T](&w.components)
	if err != nil {
		return zero, err
	}
	if !w.entities.isAlive(eid) {
		return zero, eris.Wrapf(ErrEntityNotFound, "entity %d", eid)
	}
	c, ok := p.get(eid)
	if !ok {
		return zero, eris.Wrapf(ErrComponentNotFound, "entity %d, component %s", eid, zero.Name())
	}
	return c, nil
}

// Remove removes a component from an entity.
func Remove[T Component](w *World, eid EntityID) error {
	idx, p, err := typedPool[T](&w.components)
	if err != nil {
		return err
	}
	m, err := w.entities.mask(eid)
	if err != nil {
		return err
	}
	if !p.remove(eid) {
		var zero T
		return eris.Wrapf(ErrComponentNotFound, "entity %d, component %s", eid, zero.Name())
	}

	m.Remove(idx)
	w.registry.NotifyChanged(idx, eid)
	return nil
}

// Has reports whether the entity carries the component type. False if the entity does not exist.
func Has[T Component](w *World, eid EntityID) bool {
	_, err := Get[T](w, eid)
	return err == nil
}

// -------------------------------------------------------------------------------------------------
// ecsquery collaborators
// -------------------------------------------------------------------------------------------------

// GetMask implements ecsquery.EntityPool.
func (w *World) GetMask(eid EntityID) ecsquery.Mask {
	m, ok := w.entities.masks[eid]
	if !ok {
		return nil
	}
	return m
}

// GetEntityCount implements ecsquery.ComponentPool.
func (w *World) GetEntityCount(idx ecsquery.ComponentIndex) int {
	p := w.components.pool(idx)
	if p == nil {
		return 0
	}
	return p.len()
}

// GetPool implements ecsquery.ComponentPool.
func (w *World) GetPool(idx ecsquery.ComponentIndex) ecsquery.EntitySet {
	p := w.components.pool(idx)
	if p == nil {
		return emptySet{}
	}
	return p
}

// GetComponent implements ecsquery.ComponentPool.
func (w *World) GetComponent(eid EntityID, idx ecsquery.ComponentIndex) (ecsquery.Component, bool) {
	p := w.components.pool(idx)
	if p == nil {
		return nil, false
	}
	return p.getAbstract(eid)
}
