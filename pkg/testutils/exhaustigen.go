package testutils

import "github.com/argus-labs/ecsquery/pkg/assert"

// Gen enumerates every combination of the choices a test makes, one combination per loop:
//
//	g := NewGen()
//	for !g.Done() {
//		order := []int{0, 1, 2}
//		Shuffle(g, order) // visits all 6 permutations across the loop
//	}
//
// Each run records the sequence of choices with their bounds. Done advances to the next sequence
// by incrementing the rightmost choice that is below its bound and dropping every choice after
// it, which the next run regenerates from zero.
//
// See: <https://matklad.github.io/2021/11/07/generate-all-the-things.html>
type Gen struct {
	started bool
	choices [maxChoices]choice
	pos     int // Next choice to hand out in the current run
	depth   int // Number of choices recorded so far
}

const maxChoices = 32

type choice struct {
	value uint32
	bound uint32
}

// NewGen creates a new exhaustive generator.
func NewGen() *Gen {
	return &Gen{}
}

// Done reports whether every combination has been visited. The first call always returns false.
func (g *Gen) Done() bool {
	if !g.started {
		g.started = true
		return false
	}
	for i := g.depth - 1; i >= 0; i-- {
		if g.choices[i].value < g.choices[i].bound {
			g.choices[i].value++
			g.depth = i + 1
			g.pos = 0
			return false
		}
	}
	return true
}

func (g *Gen) next(bound uint32) uint32 {
	assert.That(g.pos < maxChoices, "exhaustigen: more than %d choices in one run", maxChoices)
	if g.pos == g.depth {
		g.choices[g.pos] = choice{}
		g.depth++
	}
	c := &g.choices[g.pos]
	c.bound = bound
	g.pos++
	return c.value
}

// Intn returns an int in [0, bound].
func (g *Gen) Intn(bound int) int {
	return int(g.next(uint32(bound))) //nolint:gosec // bound is expected to be small in tests
}

// Range returns an int in [lo, hi].
func (g *Gen) Range(lo, hi int) int {
	assert.That(lo <= hi, "exhaustigen: empty range [%d, %d]", lo, hi)
	return lo + g.Intn(hi-lo)
}

// Bool returns both booleans across runs.
func (g *Gen) Bool() bool {
	return g.Intn(1) == 1
}

// Shuffle permutes the slice in place, visiting every permutation across runs.
func Shuffle[T any](g *Gen, s []T) {
	for i := 0; i < len(s)-1; i++ {
		j := g.Range(i, len(s)-1)
		s[i], s[j] = s[j], s[i]
	}
}

// Subset returns the elements of s selected by one Bool per element, visiting every subset
// across runs.
func Subset[T any](g *Gen, s []T) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if g.Bool() {
			out = append(out, v)
		}
	}
	return out
}
