// Package ecsquery implements cached entity queries for an entity component system.
//
// A consumer declares a filter with a Matcher (must-all / any-of / must-none / optional rules),
// builds it into a Query through a Registry, and reads from the Query every tick. Structurally
// identical filters share one Query. The entity and component layers own all state; they push
// change notifications into the Registry and the queries recompute lazily on the next read.
package ecsquery

// EntityID is an opaque handle identifying one entity.
type EntityID uint32

// ComponentIndex is the stable index of a component type. It doubles as the bit position of the
// type in an entity's mask and as the key of the type's component pool.
type ComponentIndex = uint32

// Component is the interface that all components must implement.
type Component interface { //nolint:iface // same shape as the component layer's definition
	// Name returns a unique string identifier for the component type.
	Name() string
}

// ComponentType describes a registered component kind.
type ComponentType interface {
	Index() ComponentIndex
	Name() string
}

// Mask is the set of component types an entity currently carries.
type Mask interface {
	HasAll(indices []ComponentIndex) bool
	HasAny(indices []ComponentIndex) bool
	HasNone(indices []ComponentIndex) bool
}

// EntityPool resolves entity masks. GetMask returns nil for entities that are destroyed or were
// never created; a nil mask never matches any filter.
type EntityPool interface {
	GetMask(entity EntityID) Mask
}

// EntitySet is the set of entities currently holding one component type.
type EntitySet interface {
	ForEachEntity(visit func(entity EntityID))
}

// ComponentPool is the component storage layer. It is queried for the live entity count and the
// entity set of a component type when a query rebuilds, and for component values during
// iteration.
type ComponentPool interface {
	GetEntityCount(index ComponentIndex) int
	GetPool(index ComponentIndex) EntitySet
	GetComponent(entity EntityID, index ComponentIndex) (Component, bool)
}
