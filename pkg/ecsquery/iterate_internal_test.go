package ecsquery

import (
	"testing"

	. "github.com/argus-labs/ecsquery/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIterateFixture(t *testing.T) (*fakeWorld, *Query) {
	t.Helper()

	w := newFakeWorld()
	w.spawn(1, Position{X: 1}, Velocity{X: 10}, Sprite{Path: "a.png"})
	w.spawn(2, Position{X: 2}, Velocity{X: 20})
	w.spawn(3, Position{X: 3}, Velocity{X: 30}, Frozen{})
	w.spawn(4, Position{X: 4})

	q := newTestRegistry(t, w).NewMatcher().
		MustAll(posType, velType).
		MustNone(frozenType).
		OptionalOf(spriteType).
		MustBuild()
	return w, q
}

func TestQuery_Iterate(t *testing.T) {
	t.Parallel()

	_, q := newIterateFixture(t)

	var entities []EntityID
	var rows [][]Component
	for eid, row := range q.Iterate(velType, posType, spriteType) {
		entities = append(entities, eid)
		rows = append(rows, row)
	}

	assert.Equal(t, []EntityID{1, 2}, entities)
	assert.Equal(t, []Component{Velocity{X: 10}, Position{X: 1}, Sprite{Path: "a.png"}}, rows[0])
	assert.Equal(t, []Component{Velocity{X: 20}, Position{X: 2}, nil}, rows[1], "missing optional is nil")
}

func TestQuery_IterateBoundFollowsComponentsOrder(t *testing.T) {
	t.Parallel()

	_, q := newIterateFixture(t)
	require.Equal(t, []ComponentIndex{0, 1, 4}, q.Matcher().Components())

	for eid, row := range q.IterateBound() {
		require.Len(t, row, 3)
		assert.IsType(t, Position{}, row[0], "entity %d", eid)
		assert.IsType(t, Velocity{}, row[1], "entity %d", eid)
	}
}

func TestQuery_IterateArity(t *testing.T) {
	t.Parallel()

	_, q := newIterateFixture(t)
	assert.Panics(t, func() { q.Iterate() })
	assert.Panics(t, func() {
		q.Iterate(posType, velType, posType, velType, posType, velType, posType, velType, posType)
	})
	assert.NotPanics(t, func() {
		q.Iterate(posType, velType, posType, velType, posType, velType, posType, velType)
	})
}

func TestQuery_FixedArityMatchesVariadic(t *testing.T) {
	t.Parallel()

	_, q := newIterateFixture(t)

	want := make(map[EntityID][]Component)
	for eid, row := range q.Iterate(posType, velType, spriteType, healthType) {
		want[eid] = row
	}
	require.Len(t, want, 2)

	seen := 0
	for tup := range Iterate1[Position](q, posType) {
		seen++
		assert.Equal(t, want[tup.Entity][0], tup.C1)
		assert.True(t, tup.Has(1))
	}
	assert.Equal(t, 2, seen)

	for tup := range Iterate2[Position, Velocity](q, posType, velType) {
		assert.Equal(t, want[tup.Entity][0], tup.C1)
		assert.Equal(t, want[tup.Entity][1], tup.C2)
	}

	for tup := range Iterate3[Position, Velocity, Sprite](q, posType, velType, spriteType) {
		assert.Equal(t, want[tup.Entity][1], tup.C2)
		if want[tup.Entity][2] == nil {
			assert.False(t, tup.Has(3))
			assert.Equal(t, Sprite{}, tup.C3)
		} else {
			assert.True(t, tup.Has(3))
			assert.Equal(t, want[tup.Entity][2], tup.C3)
		}
	}

	for tup := range Iterate4[Position, Velocity, Sprite, Health](q, posType, velType, spriteType, healthType) {
		assert.Equal(t, want[tup.Entity][0], tup.C1)
		assert.Equal(t, want[tup.Entity][1], tup.C2)
		assert.False(t, tup.Has(4))
		assert.False(t, tup.Has(0))
		assert.False(t, tup.Has(9))
	}
}

func TestQuery_FixedArityReusesTuple(t *testing.T) {
	t.Parallel()

	_, q := newIterateFixture(t)

	var first *Tuple2[Position, Velocity]
	var entities []EntityID
	for tup := range Iterate2[Position, Velocity](q, posType, velType) {
		if first == nil {
			first = tup
		}
		assert.Same(t, first, tup)
		entities = append(entities, tup.Entity)
	}
	assert.Equal(t, []EntityID{1, 2}, entities)
}

func TestQuery_NestedIterationDoesNotAlias(t *testing.T) {
	t.Parallel()

	w, movers := newIterateFixture(t)
	all := newTestRegistry(t, w).NewMatcher().MustAll(posType).MustBuild()

	type pair struct{ outer, inner EntityID }
	var pairs []pair
	for outer := range Iterate1[Position](movers, posType) {
		for inner := range Iterate1[Position](all, posType) {
			assert.NotSame(t, outer, inner)
			assert.Equal(t, Position{X: float64(outer.Entity)}, outer.C1, "outer tuple overwritten")
			pairs = append(pairs, pair{outer.Entity, inner.Entity})
		}
	}
	assert.Len(t, pairs, 2*4)
}

func TestQuery_IterateStopsEarly(t *testing.T) {
	t.Parallel()

	_, q := newIterateFixture(t)

	count := 0
	for range q.Iterate(posType) {
		count++
		break
	}
	assert.Equal(t, 1, count)

	count = 0
	for range Iterate1[Position](q, posType) {
		count++
		break
	}
	assert.Equal(t, 1, count)
}

func TestQuery_IterateRefreshesFirst(t *testing.T) {
	t.Parallel()

	w, q := newIterateFixture(t)
	require.Equal(t, []EntityID{1, 2}, q.Entities())

	w.remove(2, velType.Index())
	w.remove(3, frozenType.Index())
	q.MarkChanged(2)
	q.MarkChanged(3)

	seq := Iterate2[Position, Velocity](q, posType, velType)
	assert.Equal(t, 2, q.PendingDirty(), "building the sequence does not refresh")

	var entities []EntityID
	for tup := range seq {
		entities = append(entities, tup.Entity)
	}
	assert.Equal(t, []EntityID{1, 3}, entities)
}
