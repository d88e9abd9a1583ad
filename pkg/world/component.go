package world

import (
	"github.com/argus-labs/ecsquery/pkg/assert"
	"github.com/argus-labs/ecsquery/pkg/ecsquery"
	"github.com/rotisserie/eris"
)

// Component is the interface that all components must implement.
type Component = ecsquery.Component

// Type is the handle of a registered component type. It satisfies ecsquery.ComponentType, so it is
// passed directly to matcher builders and iterators.
type Type[T Component] struct {
	index ecsquery.ComponentIndex
	name  string
}

var _ ecsquery.ComponentType = Type[Component]{}

// Index returns the stable index of the component type.
func (t Type[T]) Index() ecsquery.ComponentIndex {
	return t.index
}

// Name returns the name of the component type.
func (t Type[T]) Name() string {
	return t.name
}

// componentManager assigns dense indices to component names and owns one pool per index.
type componentManager struct {
	catalog map[string]ecsquery.ComponentIndex // Component name -> index
	names   []string                           // Index -> component name
	pools   []abstractPool                     // Index -> pool
}

func newComponentManager() componentManager {
	return componentManager{
		catalog: make(map[string]ecsquery.ComponentIndex),
		names:   make([]string, 0),
		pools:   make([]abstractPool, 0),
	}
}

// register returns the index of the named component type, creating its pool on first use.
func (cm *componentManager) register(name string, factory poolFactory) (ecsquery.ComponentIndex, error) {
	if name == "" {
		return 0, eris.New("component name cannot be empty")
	}

	if idx, exists := cm.catalog[name]; exists {
		return idx, nil
	}

	idx := ecsquery.ComponentIndex(len(cm.pools)) //nolint:gosec // bounded by registered types
	cm.catalog[name] = idx
	cm.names = append(cm.names, name)
	cm.pools = append(cm.pools, factory())
	assert.That(len(cm.names) == len(cm.pools), "component names and pools out of sync")

	return idx, nil
}

// getIndex returns a component's index given its name.
func (cm *componentManager) getIndex(name string) (ecsquery.ComponentIndex, error) {
	idx, exists := cm.catalog[name]
	if !exists {
		return 0, eris.Wrapf(ErrComponentNotRegistered, "component %s", name)
	}
	return idx, nil
}

// pool returns the pool of the index, or nil if the index is not registered.
func (cm *componentManager) pool(idx ecsquery.ComponentIndex) abstractPool {
	if int(idx) >= len(cm.pools) {
		return nil
	}
	return cm.pools[idx]
}

// typedPool returns the pool of T. It fails if T is not registered.
func typedPool[T Component](cm *componentManager) (ecsquery.ComponentIndex, *pool[T], error) {
	var zero T
	idx, err := cm.getIndex(zero.Name())
	if err != nil {
		return 0, nil, err
	}
	p, ok := cm.pools[idx].(*pool[T])
	if !ok {
		return 0, nil, eris.Errorf("component %s is registered with a different type", zero.Name())
	}
	return idx, p, nil
}
