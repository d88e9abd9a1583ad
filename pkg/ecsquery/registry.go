package ecsquery

import (
	"slices"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Registry deduplicates queries by the canonical key of their filter and routes change
// notifications from the entity and component layers to the queries that depend on the changed
// component type.
type Registry struct {
	entities   EntityPool
	components ComponentPool
	options    RegistryOptions

	queries  map[string]*Query
	order    []*Query                    // Registration order
	watchers map[ComponentIndex][]*Query // Component index -> queries whose filter depends on it
}

// NewRegistry creates a registry backed by the given entity and component layers. Options are
// merged over the defaults, later options override earlier ones.
func NewRegistry(entities EntityPool, components ComponentPool, opts ...RegistryOptions) (*Registry, error) {
	if entities == nil {
		return nil, eris.New("entity pool cannot be nil")
	}
	if components == nil {
		return nil, eris.New("component pool cannot be nil")
	}

	options := newDefaultRegistryOptions()
	for _, opt := range opts {
		options.apply(opt)
	}
	if err := options.validate(); err != nil {
		return nil, eris.Wrap(err, "invalid registry options")
	}

	return &Registry{
		entities:   entities,
		components: components,
		options:    options,
		queries:    make(map[string]*Query),
		order:      make([]*Query, 0),
		watchers:   make(map[ComponentIndex][]*Query),
	}, nil
}

// NewMatcher starts a filter declaration bound to this registry.
func (r *Registry) NewMatcher() *Matcher {
	return newMatcher(r)
}

// register returns the query stored under key, creating it from matcher if there is none.
func (r *Registry) register(key string, matcher *Matcher) *Query {
	if q, ok := r.queries[key]; ok {
		return q
	}

	q := newQuery(key, matcher, r.entities, r.components, r.options.DirtyThreshold, r.options.Logger)
	r.queries[key] = q
	r.order = append(r.order, q)
	for _, idx := range matcher.Indices() {
		r.watchers[idx] = append(r.watchers[idx], q)
	}

	r.logger().Debug().Str("query", key).Int("total", len(r.order)).Msg("registered query")
	return q
}

func (r *Registry) logger() *zerolog.Logger {
	return r.options.Logger
}

// Get returns the query registered under the canonical key.
func (r *Registry) Get(key string) (*Query, bool) {
	q, ok := r.queries[key]
	return q, ok
}

// Len returns the number of distinct queries.
func (r *Registry) Len() int {
	return len(r.order)
}

// Queries returns the registered queries in registration order.
func (r *Registry) Queries() []*Query {
	return slices.Clone(r.order)
}

// Watching returns the queries whose filter depends on the component index.
func (r *Registry) Watching(index ComponentIndex) []*Query {
	return slices.Clone(r.watchers[index])
}

// NotifyChanged marks the entity dirty in every query that depends on the component index. Call
// it whenever the component is added to or removed from the entity.
func (r *Registry) NotifyChanged(index ComponentIndex, entity EntityID) {
	for _, q := range r.watchers[index] {
		q.MarkChanged(entity)
	}
}

// NotifyChangedBatch is NotifyChanged for several entities that changed the same component.
func (r *Registry) NotifyChangedBatch(index ComponentIndex, entities []EntityID) {
	for _, q := range r.watchers[index] {
		q.MarkChangedBatch(entities)
	}
}

// NotifyDestroyed marks the entity dirty in every query that depends on any of the components
// the entity carried. Each query is marked once.
func (r *Registry) NotifyDestroyed(entity EntityID, indices []ComponentIndex) {
	marked := make(map[*Query]struct{})
	for _, idx := range indices {
		for _, q := range r.watchers[idx] {
			if _, ok := marked[q]; ok {
				continue
			}
			marked[q] = struct{}{}
			q.MarkChanged(entity)
		}
	}
}

// Clear empties every query and forgets them. Queries handed out before Clear keep working but no
// longer receive notifications.
func (r *Registry) Clear() {
	for _, q := range r.order {
		q.Clear()
	}
	r.queries = make(map[string]*Query)
	r.order = make([]*Query, 0)
	r.watchers = make(map[ComponentIndex][]*Query)
	r.logger().Debug().Msg("cleared query registry")
}
