package ecsquery

import (
	"slices"
	"strconv"
	"strings"
)

// RuleKind is the variant of a rule. Its value is the rule's fixed priority: rules are evaluated
// in ascending priority and canonical keys list rule slots in the same order. The values are part
// of the key format and must not be reordered.
type RuleKind uint8

const (
	MustAll  RuleKind = 0 // Entity carries every listed component
	AnyOf    RuleKind = 1 // Entity carries at least one listed component
	MustNone RuleKind = 2 // Entity carries none of the listed components
	Optional RuleKind = 3 // No constraint, listed components are fetched if present

	ruleKindCount = 4
)

func (k RuleKind) String() string {
	switch k {
	case MustAll:
		return "must_all"
	case AnyOf:
		return "any_of"
	case MustNone:
		return "must_none"
	case Optional:
		return "optional"
	default:
		return "unknown(" + strconv.Itoa(int(k)) + ")"
	}
}

// Rule is a predicate over an entity mask. Its index list keeps declaration order and holds no
// duplicates.
type Rule struct {
	kind    RuleKind
	indices []ComponentIndex
}

func newRule(kind RuleKind) *Rule {
	return &Rule{kind: kind, indices: make([]ComponentIndex, 0, 4)}
}

// Kind returns the rule's variant.
func (r *Rule) Kind() RuleKind {
	return r.kind
}

// Indices returns the component indices of the rule in declaration order. The returned slice
// must not be modified.
func (r *Rule) Indices() []ComponentIndex {
	return r.indices
}

// add unions the given component types into the rule.
func (r *Rule) add(types ...ComponentType) {
	for _, t := range types {
		idx := t.Index()
		if !slices.Contains(r.indices, idx) {
			r.indices = append(r.indices, idx)
		}
	}
}

// Matches reports whether the mask satisfies the rule. A nil mask never matches.
//
// AnyOf costs O(n) in the number of listed components and a filter made only of AnyOf rules has
// to scan every listed pool on rebuild. Pair it with MustAll where possible.
func (r *Rule) Matches(mask Mask) bool {
	if mask == nil {
		return false
	}
	switch r.kind {
	case MustAll:
		return mask.HasAll(r.indices)
	case AnyOf:
		return mask.HasAny(r.indices)
	case MustNone:
		return mask.HasNone(r.indices)
	case Optional:
		return true
	default:
		return false
	}
}

// Key returns the content key of the rule: its indices sorted ascending and comma separated.
// Two rules of the same kind holding the same set of indices have the same key.
func (r *Rule) Key() string {
	sorted := slices.Clone(r.indices)
	slices.Sort(sorted)

	var sb strings.Builder
	for i, idx := range sorted {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(idx), 10))
	}
	return sb.String()
}
