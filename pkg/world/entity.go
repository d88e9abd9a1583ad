package world

import (
	"math"

	"github.com/argus-labs/ecsquery/pkg/ecsquery"
	"github.com/argus-labs/ecsquery/pkg/mask"
	"github.com/rotisserie/eris"
)

// EntityID is a unique identifier for an entity.
type EntityID = ecsquery.EntityID

// MaxEntityID is the maximum entity ID that can be created.
const MaxEntityID = math.MaxUint32 - 1

// entityManager allocates entity IDs and owns the component mask of every live entity. Freed IDs
// are reused in FIFO order.
type entityManager struct {
	nextID EntityID
	free   []EntityID
	masks  map[EntityID]*mask.Mask
}

func newEntityManager() entityManager {
	return entityManager{
		nextID: 0,
		free:   make([]EntityID, 0),
		masks:  make(map[EntityID]*mask.Mask),
	}
}

// new allocates an entity with an empty mask.
func (em *entityManager) new() (EntityID, error) {
	var id EntityID
	if len(em.free) > 0 {
		id = em.free[0]
		em.free = em.free[1:]
	} else {
		if em.nextID > MaxEntityID {
			return 0, eris.New("max number of entities exceeded")
		}
		id = em.nextID
		em.nextID++
	}
	em.masks[id] = &mask.Mask{}
	return id, nil
}

// remove frees the entity and returns the mask it had.
func (em *entityManager) remove(id EntityID) (*mask.Mask, error) {
	m, ok := em.masks[id]
	if !ok {
		return nil, eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	delete(em.masks, id)
	em.free = append(em.free, id)
	return m, nil
}

// mask returns the mask of a live entity.
func (em *entityManager) mask(id EntityID) (*mask.Mask, error) {
	m, ok := em.masks[id]
	if !ok {
		return nil, eris.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	return m, nil
}

func (em *entityManager) isAlive(id EntityID) bool {
	_, ok := em.masks[id]
	return ok
}

func (em *entityManager) count() int {
	return len(em.masks)
}
