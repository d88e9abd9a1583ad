package ecsquery

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/rs/zerolog"
)

// Query caches the set of entities matching one Matcher.
//
// Writers report possibly-changed entities with MarkChanged and MarkChangedBatch. Readers call
// Entities or one of the Iterate functions, which first bring the cache up to date: pending
// entities are re-evaluated one by one, unless more than the dirty threshold accumulated, in
// which case the whole set is rebuilt from the component pools. A Query never scans on its own.
//
// Query is not safe for concurrent use.
type Query struct {
	key        string
	matcher    *Matcher
	entities   EntityPool
	components ComponentPool
	logger     *zerolog.Logger

	cached          *roaring.Bitmap // Matching entities as of the last refresh
	dirty           *roaring.Bitmap // Entities to re-evaluate on the next read
	needFullRefresh bool
	threshold       int

	union *roaring.Bitmap // Scratch set for rebuilding any-of filters
	stats Stats
}

// Stats counts the work a query has done.
type Stats struct {
	FullRebuilds       uint64 `json:"full_rebuilds"`       // Rebuilds from the component pools
	IncrementalPatches uint64 `json:"incremental_patches"` // Refreshes that re-evaluated dirty entities
	Escalations        uint64 `json:"escalations"`         // Times the dirty set overflowed
	Scanned            uint64 `json:"scanned"`             // Entities tested against the matcher
}

func newQuery(key string, matcher *Matcher, entities EntityPool, components ComponentPool,
	threshold int, logger *zerolog.Logger,
) *Query {
	l := logger.With().Str("query", key).Logger()
	return &Query{
		key:             key,
		matcher:         matcher,
		entities:        entities,
		components:      components,
		logger:          &l,
		cached:          roaring.New(),
		dirty:           roaring.New(),
		needFullRefresh: true,
		threshold:       threshold,
		union:           roaring.New(),
	}
}

// Key returns the canonical key of the query's filter.
func (q *Query) Key() string {
	return q.key
}

// Matcher returns the matcher the query was created from.
func (q *Query) Matcher() *Matcher {
	return q.matcher
}

// Stats returns the work counters of the query.
func (q *Query) Stats() Stats {
	return q.stats
}

// NeedsFullRefresh reports whether the next read rebuilds the whole set.
func (q *Query) NeedsFullRefresh() bool {
	return q.needFullRefresh
}

// PendingDirty returns the number of distinct entities waiting to be re-evaluated.
func (q *Query) PendingDirty() int {
	return int(q.dirty.GetCardinality())
}

// -------------------------------------------------------------------------------------------------
// Change notifications
// -------------------------------------------------------------------------------------------------

// MarkChanged records that the entity may have gained or lost a component the filter depends on.
// Once more than the threshold of distinct entities are pending, the query drops them and
// schedules a full rebuild instead.
func (q *Query) MarkChanged(entity EntityID) {
	if q.needFullRefresh {
		return
	}
	q.dirty.Add(uint32(entity))
	if int(q.dirty.GetCardinality()) > q.threshold {
		q.escalate()
	}
}

// MarkChangedBatch is MarkChanged for several entities. The batch is checked as a whole: if the
// pending entities plus the batch would exceed the threshold, nothing is added and a full rebuild
// is scheduled.
func (q *Query) MarkChangedBatch(entities []EntityID) {
	if q.needFullRefresh || len(entities) == 0 {
		return
	}
	if int(q.dirty.GetCardinality())+len(entities) > q.threshold {
		q.escalate()
		return
	}
	for _, entity := range entities {
		q.dirty.Add(uint32(entity))
	}
}

func (q *Query) escalate() {
	q.logger.Debug().
		Uint64("pending", q.dirty.GetCardinality()).
		Int("threshold", q.threshold).
		Msg("dirty set overflowed, scheduling full rebuild")

	q.needFullRefresh = true
	q.dirty.Clear()
	q.stats.Escalations++
}

// -------------------------------------------------------------------------------------------------
// Refresh
// -------------------------------------------------------------------------------------------------

// lazyRefresh brings the cache up to date. It runs before every read.
func (q *Query) lazyRefresh() {
	switch {
	case q.needFullRefresh:
		q.Reset()
		q.needFullRefresh = false
		q.dirty.Clear()
	case !q.dirty.IsEmpty():
		q.Refresh()
		q.dirty.Clear()
	}
}

// Refresh re-evaluates every pending entity against the matcher, adding new matches and removing
// entities that stopped matching. It does not clear the pending set.
func (q *Query) Refresh() {
	q.stats.IncrementalPatches++
	q.dirty.Iterate(func(x uint32) bool {
		q.stats.Scanned++
		entity := EntityID(x)
		if q.matcher.IsMatch(q.entities.GetMask(entity)) {
			q.cached.Add(x)
		} else {
			q.cached.Remove(x)
		}
		return true
	})
}

// Reset rebuilds the cached set from the component pools.
//
// With a must-all rule the scan is seeded from the required type with the fewest live entities,
// and is skipped entirely if any required type has none. Otherwise the entities of every any-of
// type are collected, deduplicated, and tested.
func (q *Query) Reset() {
	q.stats.FullRebuilds++
	q.cached.Clear()

	seed, ok := q.seedType()
	switch {
	case ok:
		q.components.GetPool(seed).ForEachEntity(q.test)
	case q.matcher.rules[MustAll] == nil:
		q.union.Clear()
		for _, idx := range q.matcher.rules[AnyOf].indices {
			if q.components.GetEntityCount(idx) == 0 {
				continue
			}
			q.components.GetPool(idx).ForEachEntity(func(entity EntityID) {
				q.union.Add(uint32(entity))
			})
		}
		q.union.Iterate(func(x uint32) bool {
			q.test(EntityID(x))
			return true
		})
		q.union.Clear()
	}

	q.logger.Debug().Uint64("size", q.cached.GetCardinality()).Msg("rebuilt query cache")
}

// seedType returns the must-all type with the fewest live entities. It returns false when the
// filter has no must-all rule, or when one of the required types has no entities at all, in which
// case nothing can match.
func (q *Query) seedType() (ComponentIndex, bool) {
	rule := q.matcher.rules[MustAll]
	if rule == nil {
		return 0, false
	}

	var seed ComponentIndex
	least := -1
	for _, idx := range rule.indices {
		count := q.components.GetEntityCount(idx)
		if count == 0 {
			return 0, false
		}
		if least == -1 || count < least {
			least = count
			seed = idx
		}
	}
	return seed, least > 0
}

func (q *Query) test(entity EntityID) {
	q.stats.Scanned++
	if q.matcher.IsMatch(q.entities.GetMask(entity)) {
		q.cached.Add(uint32(entity))
	}
}

// Clear empties the cached and pending sets. The next read rebuilds the query.
func (q *Query) Clear() {
	q.cached.Clear()
	q.dirty.Clear()
	q.needFullRefresh = true
}

// -------------------------------------------------------------------------------------------------
// Reads
// -------------------------------------------------------------------------------------------------

// Entities returns a snapshot of the matching entities in ascending ID order.
func (q *Query) Entities() []EntityID {
	q.lazyRefresh()
	result := make([]EntityID, 0, q.cached.GetCardinality())
	q.cached.Iterate(func(x uint32) bool {
		result = append(result, EntityID(x))
		return true
	})
	return result
}

// Len returns the number of matching entities.
func (q *Query) Len() int {
	q.lazyRefresh()
	return int(q.cached.GetCardinality())
}

// Contains reports whether the entity matches the filter.
func (q *Query) Contains(entity EntityID) bool {
	q.lazyRefresh()
	return q.cached.Contains(uint32(entity))
}
