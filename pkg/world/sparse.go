package world

import "github.com/argus-labs/ecsquery/pkg/assert"

// sparseSet maps entity IDs to dense row indices. Absent keys hold a tombstone.
type sparseSet []int

const sparseCapacity = 64
const sparseTombstone = -1

func newSparseSet() sparseSet {
	s := make(sparseSet, sparseCapacity)
	for i := range s {
		s[i] = sparseTombstone
	}
	return s
}

// get returns the row of the entity and whether it is present.
func (s *sparseSet) get(key EntityID) (int, bool) {
	if int(key) >= len(*s) {
		return 0, false
	}
	row := (*s)[key]
	if row == sparseTombstone {
		return 0, false
	}
	return row, true
}

// set stores the row of the entity, growing the backing slice to fit.
func (s *sparseSet) set(key EntityID, row int) {
	assert.That(row >= 0, "row must be non-negative, got %d", row)

	if int(key) >= len(*s) {
		oldLen := len(*s)
		newLen := max(oldLen*2, int(key)+1)

		grown := make(sparseSet, newLen)
		copy(grown, *s)
		for i := oldLen; i < newLen; i++ {
			grown[i] = sparseTombstone
		}
		*s = grown
	}
	(*s)[key] = row
}

// remove clears the entity. Returns true if it was present.
func (s *sparseSet) remove(key EntityID) bool {
	if int(key) >= len(*s) || (*s)[key] == sparseTombstone {
		return false
	}
	(*s)[key] = sparseTombstone
	return true
}
