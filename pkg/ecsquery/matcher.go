package ecsquery

import (
	"strings"

	"github.com/argus-labs/ecsquery/pkg/assert"
	"github.com/rotisserie/eris"
)

// keySeparator joins the rule slots of a canonical key.
const keySeparator = "|"

// Matcher composes at most one rule per kind into a filter. Calls for a kind that already has a
// rule extend that rule. A matcher is declared once, finalized with Build, and never modified
// afterwards.
//
// Example:
//
//	q, err := registry.NewMatcher().
//		MustAll(position, velocity).
//		MustNone(frozen).
//		OptionalOf(sprite).
//		Build()
type Matcher struct {
	registry *Registry
	rules    [ruleKindCount]*Rule // Indexed by RuleKind
	built    bool

	// Memoized by Indices and Components.
	indices    []ComponentIndex
	components []ComponentIndex
}

func newMatcher(registry *Registry) *Matcher {
	return &Matcher{registry: registry}
}

// MustAll requires the entity to carry every given component type.
func (m *Matcher) MustAll(types ...ComponentType) *Matcher {
	return m.extend(MustAll, types)
}

// AnyOf requires the entity to carry at least one of the given component types. It is expensive
// on its own, combine it with MustAll to narrow the rebuild scan.
func (m *Matcher) AnyOf(types ...ComponentType) *Matcher {
	return m.extend(AnyOf, types)
}

// MustNone requires the entity to carry none of the given component types.
func (m *Matcher) MustNone(types ...ComponentType) *Matcher {
	return m.extend(MustNone, types)
}

// OptionalOf binds the given component types for iteration without constraining the match.
func (m *Matcher) OptionalOf(types ...ComponentType) *Matcher {
	return m.extend(Optional, types)
}

// extend creates or extends the rule of the given kind. Calls without types leave the matcher
// unchanged so that a rule, once present, is never empty.
func (m *Matcher) extend(kind RuleKind, types []ComponentType) *Matcher {
	assert.That(!m.built, "cannot add %s rule to a built matcher %s", kind, m.Key())
	if len(types) == 0 {
		return m
	}
	if m.rules[kind] == nil {
		m.rules[kind] = newRule(kind)
	}
	m.rules[kind].add(types...)
	m.indices = nil
	m.components = nil
	return m
}

// Rule returns the rule of the given kind, or nil if the matcher has none.
func (m *Matcher) Rule(kind RuleKind) *Rule {
	if kind >= ruleKindCount {
		return nil
	}
	return m.rules[kind]
}

// IsMatch evaluates the present rules in priority order and stops at the first failing one.
// A nil mask never matches.
func (m *Matcher) IsMatch(mask Mask) bool {
	if mask == nil {
		return false
	}
	for _, rule := range m.rules {
		if rule != nil && !rule.Matches(mask) {
			return false
		}
	}
	return true
}

// Key returns the canonical key of the filter: the four rule slots in priority order joined by
// "|", each slot holding its rule's key or nothing when the rule is absent. Filters with the same
// rule content have the same key regardless of declaration order or repeated indices.
func (m *Matcher) Key() string {
	var sb strings.Builder
	for kind, rule := range m.rules {
		if kind > 0 {
			sb.WriteString(keySeparator)
		}
		if rule != nil {
			sb.WriteString(rule.Key())
		}
	}
	return sb.String()
}

// String implements fmt.Stringer.
func (m *Matcher) String() string {
	return m.Key()
}

// Build finalizes the matcher and returns the Query shared by every filter with the same key.
func (m *Matcher) Build() (*Query, error) {
	key := m.Key()
	if m.rules[MustAll] == nil && m.rules[AnyOf] == nil {
		return nil, eris.Wrapf(ErrUnderspecifiedMatcher, "filter %q", key)
	}
	assert.That(m.registry != nil, "matcher is not bound to a registry")

	m.built = true
	return m.registry.register(key, m), nil
}

// MustBuild is like Build but panics on error. Meant for queries declared at system setup.
func (m *Matcher) MustBuild() *Query {
	q, err := m.Build()
	if err != nil {
		panic(err)
	}
	return q
}

// Indices returns every component index the filter depends on. A change to any of these types on
// an entity can change whether the entity matches. The returned slice must not be modified.
func (m *Matcher) Indices() []ComponentIndex {
	if m.indices == nil {
		m.buildIndices()
	}
	return m.indices
}

// Components returns the component indices bound for retrieval: every rule except MustNone, in
// priority order and then declaration order. The returned slice must not be modified.
func (m *Matcher) Components() []ComponentIndex {
	if m.components == nil {
		m.buildIndices()
	}
	return m.components
}

func (m *Matcher) buildIndices() {
	indices := make([]ComponentIndex, 0)
	components := make([]ComponentIndex, 0)
	seenIndex := make(map[ComponentIndex]struct{})
	seenComponent := make(map[ComponentIndex]struct{})

	for _, rule := range m.rules {
		if rule == nil {
			continue
		}
		for _, idx := range rule.indices {
			if _, ok := seenIndex[idx]; !ok {
				seenIndex[idx] = struct{}{}
				indices = append(indices, idx)
			}
			if rule.kind == MustNone {
				continue
			}
			if _, ok := seenComponent[idx]; !ok {
				seenComponent[idx] = struct{}{}
				components = append(components, idx)
			}
		}
	}

	m.indices = indices
	m.components = components
}
