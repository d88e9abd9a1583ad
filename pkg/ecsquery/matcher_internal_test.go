package ecsquery

import (
	"fmt"
	"strings"
	"testing"

	"github.com/argus-labs/ecsquery/pkg/mask"
	. "github.com/argus-labs/ecsquery/pkg/testutils"
	"github.com/rotisserie/eris"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatcher_ExtendsExistingRule(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeWorld())
	m := r.NewMatcher().MustAll(posType).MustAll(velType).MustNone(frozenType).MustNone(frozenType)

	require.NotNil(t, m.Rule(MustAll))
	assert.Equal(t, []ComponentIndex{0, 1}, m.Rule(MustAll).Indices())
	assert.Equal(t, []ComponentIndex{3}, m.Rule(MustNone).Indices())
	assert.Nil(t, m.Rule(AnyOf))
	assert.Nil(t, m.Rule(Optional))
	assert.Nil(t, m.Rule(RuleKind(7)))
}

func TestMatcher_EmptyCallAddsNoRule(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeWorld())
	m := r.NewMatcher().MustAll().AnyOf(healthType)

	assert.Nil(t, m.Rule(MustAll))
	assert.Equal(t, "|2||", m.Key())
}

func TestMatcher_IndicesAndComponents(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeWorld())
	m := r.NewMatcher().
		OptionalOf(spriteType, posType).
		MustNone(frozenType).
		AnyOf(tagType, healthType).
		MustAll(velType, posType)

	// Priority order first, declaration order within a rule, duplicates dropped.
	assert.Equal(t, []ComponentIndex{1, 0, 5, 2, 3, 4}, m.Indices())
	assert.Equal(t, []ComponentIndex{1, 0, 5, 2, 4}, m.Components())
	assert.NotContains(t, m.Components(), frozenType.Index())
}

func TestMatcher_IsMatch(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeWorld())
	m := r.NewMatcher().
		MustAll(posType).
		AnyOf(velType, healthType).
		MustNone(frozenType).
		OptionalOf(spriteType)

	tests := []struct {
		name string
		mask Mask
		want bool
	}{
		{"all rules satisfied", mask.Of(0, 1), true},
		{"optional present", mask.Of(0, 2, 4), true},
		{"missing must all", mask.Of(1, 2), false},
		{"missing any of", mask.Of(0, 4), false},
		{"excluded type present", mask.Of(0, 1, 3), false},
		{"destroyed entity", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, m.IsMatch(tt.mask))
		})
	}
}

func TestMatcher_BuildRequiresMustAllOrAnyOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		declare func(*Matcher) *Matcher
		wantErr bool
	}{
		{"empty", func(m *Matcher) *Matcher { return m }, true},
		{"only exclusions", func(m *Matcher) *Matcher { return m.MustNone(frozenType) }, true},
		{"exclusions and optionals", func(m *Matcher) *Matcher {
			return m.MustNone(frozenType).OptionalOf(spriteType)
		}, true},
		{"must all", func(m *Matcher) *Matcher { return m.MustAll(posType) }, false},
		{"any of", func(m *Matcher) *Matcher { return m.AnyOf(posType) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newTestRegistry(t, newFakeWorld())
			q, err := tt.declare(r.NewMatcher()).Build()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, eris.Is(err, ErrUnderspecifiedMatcher))
				assert.Nil(t, q)
				assert.Equal(t, 0, r.Len())
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, q)
		})
	}
}

func TestMatcher_MustBuildPanics(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeWorld())
	assert.Panics(t, func() { r.NewMatcher().OptionalOf(spriteType).MustBuild() })
	assert.NotPanics(t, func() { r.NewMatcher().MustAll(posType).MustBuild() })
}

func TestMatcher_ExtendAfterBuildPanics(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeWorld())
	m := r.NewMatcher().MustAll(posType)
	_, err := m.Build()
	require.NoError(t, err)

	assert.Panics(t, func() { m.MustAll(velType) })
}

func TestMatcher_SameContentSameQuery(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeWorld())

	q1, err := r.NewMatcher().MustAll(posType, velType).Build()
	require.NoError(t, err)
	q2, err := r.NewMatcher().MustAll(posType).MustAll(velType).Build()
	require.NoError(t, err)
	q3, err := r.NewMatcher().MustAll(velType, posType, velType).Build()
	require.NoError(t, err)

	assert.Same(t, q1, q2)
	assert.Same(t, q1, q3)
	assert.Equal(t, "0,1|||", q1.Key())
	assert.Equal(t, 1, r.Len())

	q4, err := r.NewMatcher().MustAll(posType).AnyOf(velType).Build()
	require.NoError(t, err)
	assert.NotSame(t, q1, q4, "same indices under another rule kind is another filter")
}

// Every declaration order, including split and repeated calls, yields one key and one query.
func TestMatcher_KeyIsCanonicalForAnyDeclarationOrder(t *testing.T) {
	t.Parallel()

	type step struct {
		kind RuleKind
		t    ComponentType
	}
	steps := []step{
		{MustAll, posType},
		{MustAll, velType},
		{AnyOf, healthType},
		{AnyOf, tagType},
		{MustNone, frozenType},
		{Optional, spriteType},
	}

	r := newTestRegistry(t, newFakeWorld())
	want := r.NewMatcher().
		MustAll(posType, velType).
		AnyOf(healthType, tagType).
		MustNone(frozenType).
		OptionalOf(spriteType).
		MustBuild()
	require.Equal(t, "0,1|2,5|3|4", want.Key())

	runs := 0
	g := NewGen()
	for !g.Done() {
		runs++
		order := append([]step(nil), steps...)
		Shuffle(g, order)
		repeat := g.Intn(len(order) - 1)

		m := r.NewMatcher()
		for _, s := range append(order, order[repeat]) {
			m.extend(s.kind, []ComponentType{s.t})
		}
		q, err := m.Build()
		require.NoError(t, err)
		require.Same(t, want, q, "order %v", order)
	}

	assert.Equal(t, 720*6, runs)
	assert.Equal(t, 1, r.Len())
}

func TestMatcher_GoldenKeys(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeWorld())
	filters := []struct {
		name    string
		matcher *Matcher
	}{
		{"move", r.NewMatcher().MustAll(posType, velType)},
		{"move_not_frozen", r.NewMatcher().MustAll(velType, posType).MustNone(frozenType)},
		{"render", r.NewMatcher().MustAll(posType).OptionalOf(spriteType, healthType)},
		{"alive", r.NewMatcher().AnyOf(tagType, healthType)},
		{"full", r.NewMatcher().
			OptionalOf(spriteType).
			MustNone(frozenType).
			AnyOf(velType, healthType).
			MustAll(posType)},
	}

	var sb strings.Builder
	for _, f := range filters {
		fmt.Fprintf(&sb, "%s: %s\n", f.name, f.matcher)
	}

	g := goldie.New(t)
	g.Assert(t, "canonical_keys", []byte(sb.String()))
}
