package ecsquery

import (
	"slices"
	"testing"

	"github.com/argus-labs/ecsquery/pkg/mask"
	. "github.com/argus-labs/ecsquery/pkg/testutils"
	"github.com/stretchr/testify/require"
)

// ctype is a fixed component type handle for tests.
type ctype struct {
	index ComponentIndex
	name  string
}

func (c ctype) Index() ComponentIndex { return c.index }
func (c ctype) Name() string          { return c.name }

var (
	posType    = ctype{0, Position{}.Name()}
	velType    = ctype{1, Velocity{}.Name()}
	healthType = ctype{2, Health{}.Name()}
	frozenType = ctype{3, Frozen{}.Name()}
	spriteType = ctype{4, Sprite{}.Name()}
	tagType    = ctype{5, PlayerTag{}.Name()}
)

// fakeWorld is a minimal entity and component store. It records which pools a rebuild
// enumerates. Unlike the real world it never notifies queries, tests mark entities themselves.
type fakeWorld struct {
	masks      map[EntityID]*mask.Mask
	pools      map[ComponentIndex][]EntityID
	values     map[ComponentIndex]map[EntityID]Component
	enumerated []ComponentIndex
}

func newFakeWorld() *fakeWorld {
	return &fakeWorld{
		masks:  make(map[EntityID]*mask.Mask),
		pools:  make(map[ComponentIndex][]EntityID),
		values: make(map[ComponentIndex]map[EntityID]Component),
	}
}

// spawn creates the entity with the given components.
func (w *fakeWorld) spawn(eid EntityID, comps ...Component) {
	w.masks[eid] = &mask.Mask{}
	for _, c := range comps {
		w.add(eid, c)
	}
}

func (w *fakeWorld) add(eid EntityID, c Component) {
	idx := indexOf(c)
	if !w.masks[eid].Contains(idx) {
		w.pools[idx] = append(w.pools[idx], eid)
	}
	w.masks[eid].Set(idx)
	if w.values[idx] == nil {
		w.values[idx] = make(map[EntityID]Component)
	}
	w.values[idx][eid] = c
}

func (w *fakeWorld) remove(eid EntityID, idx ComponentIndex) {
	w.masks[eid].Remove(idx)
	w.pools[idx] = slices.DeleteFunc(w.pools[idx], func(e EntityID) bool { return e == eid })
	delete(w.values[idx], eid)
}

func (w *fakeWorld) destroy(eid EntityID) {
	for _, idx := range w.masks[eid].Indices() {
		w.remove(eid, idx)
	}
	delete(w.masks, eid)
}

func (w *fakeWorld) GetMask(eid EntityID) Mask {
	m, ok := w.masks[eid]
	if !ok {
		return nil
	}
	return m
}

func (w *fakeWorld) GetEntityCount(idx ComponentIndex) int {
	return len(w.pools[idx])
}

func (w *fakeWorld) GetPool(idx ComponentIndex) EntitySet {
	w.enumerated = append(w.enumerated, idx)
	return fakeSet(slices.Clone(w.pools[idx]))
}

func (w *fakeWorld) GetComponent(eid EntityID, idx ComponentIndex) (Component, bool) {
	c, ok := w.values[idx][eid]
	return c, ok
}

type fakeSet []EntityID

func (s fakeSet) ForEachEntity(visit func(EntityID)) {
	for _, e := range s {
		visit(e)
	}
}

func indexOf(c Component) ComponentIndex {
	for _, t := range []ctype{posType, velType, healthType, frozenType, spriteType, tagType} {
		if t.name == c.Name() {
			return t.index
		}
	}
	panic("unknown test component " + c.Name())
}

func newTestRegistry(t *testing.T, w *fakeWorld, opts ...RegistryOptions) *Registry {
	t.Helper()
	r, err := NewRegistry(w, w, opts...)
	require.NoError(t, err)
	return r
}
