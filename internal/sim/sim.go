// Package sim runs a churn workload against a world and its queries. It backs the querysim
// command and doubles as an end-to-end exercise of the query engine.
package sim

import (
	"math/rand/v2"

	"github.com/argus-labs/ecsquery/pkg/ecsquery"
	"github.com/argus-labs/ecsquery/pkg/world"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type Position struct{ X, Y float64 }

func (Position) Name() string { return "position" }

type Velocity struct{ X, Y float64 }

func (Velocity) Name() string { return "velocity" }

type Health struct{ HP int }

func (Health) Name() string { return "health" }

type Frozen struct{}

func (Frozen) Name() string { return "frozen" }

type Sprite struct{ Frame int }

func (Sprite) Name() string { return "sprite" }

// Config controls the workload.
type Config struct {
	Entities       int    // Entities spawned before the first tick
	Ticks          int    // Ticks to run
	Churn          int    // Random component or entity operations per tick
	Seed           uint64 // Random seed, the same seed replays the same run
	DirtyThreshold int    // Query dirty threshold, 0 means default
}

func (c Config) validate() error {
	if c.Entities < 0 {
		return eris.New("entities cannot be negative")
	}
	if c.Ticks <= 0 {
		return eris.New("ticks must be positive")
	}
	if c.Churn < 0 {
		return eris.New("churn cannot be negative")
	}
	return nil
}

// Report summarizes a run.
type Report struct {
	Ticks           int           `json:"ticks"`
	Alive           int           `json:"alive"`
	DeclaredFilters int           `json:"declared_filters"`
	DistinctQueries int           `json:"distinct_queries"`
	Queries         []QueryReport `json:"queries"`
}

// QueryReport holds the final state of one query.
type QueryReport struct {
	Name    string         `json:"name"`
	Key     string         `json:"key"`
	Matches int            `json:"matches"`
	Stats   ecsquery.Stats `json:"stats"`
}

type types struct {
	pos    world.Type[Position]
	vel    world.Type[Velocity]
	health world.Type[Health]
	frozen world.Type[Frozen]
	sprite world.Type[Sprite]
}

type filter struct {
	name    string
	declare func(m *ecsquery.Matcher, ts types) *ecsquery.Matcher
}

// Filters are the queries a run declares. "movement_split" has the same content as "movement"
// and resolves to the same query.
var filters = []filter{ //nolint:gochecknoglobals // fixed workload
	{"movement", func(m *ecsquery.Matcher, ts types) *ecsquery.Matcher {
		return m.MustAll(ts.pos, ts.vel).MustNone(ts.frozen)
	}},
	{"movement_split", func(m *ecsquery.Matcher, ts types) *ecsquery.Matcher {
		return m.MustNone(ts.frozen).MustAll(ts.vel).MustAll(ts.pos, ts.vel)
	}},
	{"render", func(m *ecsquery.Matcher, ts types) *ecsquery.Matcher {
		return m.MustAll(ts.pos).OptionalOf(ts.sprite)
	}},
	{"damageable", func(m *ecsquery.Matcher, ts types) *ecsquery.Matcher {
		return m.AnyOf(ts.health, ts.sprite).MustNone(ts.frozen)
	}},
	{"frozen", func(m *ecsquery.Matcher, ts types) *ecsquery.Matcher {
		return m.MustAll(ts.frozen).OptionalOf(ts.health)
	}},
}

// Keys returns the canonical key of every filter the workload declares, by filter name order.
func Keys() ([]string, []string, error) {
	w, ts, err := newWorld(ecsquery.RegistryOptions{})
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, len(filters))
	keys := make([]string, len(filters))
	for i, f := range filters {
		names[i] = f.name
		keys[i] = f.declare(w.NewMatcher(), ts).Key()
	}
	return names, keys, nil
}

func newWorld(opts ecsquery.RegistryOptions) (*world.World, types, error) {
	var ts types
	w, err := world.NewWorld(opts)
	if err != nil {
		return nil, ts, err
	}

	if ts.pos, err = world.Register[Position](w); err != nil {
		return nil, ts, err
	}
	if ts.vel, err = world.Register[Velocity](w); err != nil {
		return nil, ts, err
	}
	if ts.health, err = world.Register[Health](w); err != nil {
		return nil, ts, err
	}
	if ts.frozen, err = world.Register[Frozen](w); err != nil {
		return nil, ts, err
	}
	if ts.sprite, err = world.Register[Sprite](w); err != nil {
		return nil, ts, err
	}
	return w, ts, nil
}

// Run executes the workload and reports the final state of every declared query.
func Run(cfg Config, logger *zerolog.Logger) (Report, error) {
	if err := cfg.validate(); err != nil {
		return Report{}, eris.Wrap(err, "invalid sim config")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	w, ts, err := newWorld(ecsquery.RegistryOptions{DirtyThreshold: cfg.DirtyThreshold, Logger: logger})
	if err != nil {
		return Report{}, eris.Wrap(err, "failed to create world")
	}

	queries := make([]*ecsquery.Query, len(filters))
	for i, f := range filters {
		q, err := f.declare(w.NewMatcher(), ts).Build()
		if err != nil {
			return Report{}, eris.Wrapf(err, "failed to build filter %s", f.name)
		}
		queries[i] = q
	}

	s := &state{w: w, ts: ts, r: rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))} //nolint:gosec // not security sensitive
	for range cfg.Entities {
		if err := s.spawn(); err != nil {
			return Report{}, err
		}
	}

	for tick := range cfg.Ticks {
		for range cfg.Churn {
			if err := s.churn(); err != nil {
				return Report{}, eris.Wrapf(err, "tick %d", tick)
			}
		}
		if err := s.systems(queries); err != nil {
			return Report{}, eris.Wrapf(err, "tick %d", tick)
		}
		logger.Trace().Int("tick", tick).Int("alive", len(s.alive)).Msg("tick done")
	}

	report := Report{
		Ticks:           cfg.Ticks,
		Alive:           w.Count(),
		DeclaredFilters: len(filters),
		DistinctQueries: w.Registry().Len(),
	}
	for i, q := range queries {
		report.Queries = append(report.Queries, QueryReport{
			Name:    filters[i].name,
			Key:     q.Key(),
			Matches: q.Len(),
			Stats:   q.Stats(),
		})
	}
	return report, nil
}

type state struct {
	w     *world.World
	ts    types
	r     *rand.Rand
	alive []world.EntityID
}

func (s *state) spawn() error {
	eid, err := s.w.Create()
	if err != nil {
		return err
	}
	s.alive = append(s.alive, eid)

	if err := world.Set(s.w, eid, Position{X: s.r.Float64(), Y: s.r.Float64()}); err != nil {
		return err
	}
	if s.r.IntN(2) == 0 {
		if err := world.Set(s.w, eid, Velocity{X: s.r.Float64() - 0.5, Y: s.r.Float64() - 0.5}); err != nil {
			return err
		}
	}
	if s.r.IntN(3) > 0 {
		if err := world.Set(s.w, eid, Health{HP: 1 + s.r.IntN(100)}); err != nil {
			return err
		}
	}
	if s.r.IntN(4) == 0 {
		return world.Set(s.w, eid, Sprite{})
	}
	return nil
}

// churn applies one random structural change.
func (s *state) churn() error {
	if len(s.alive) == 0 {
		return s.spawn()
	}
	eid := s.alive[s.r.IntN(len(s.alive))]

	switch s.r.IntN(8) {
	case 0, 1:
		return s.spawn()
	case 2:
		return toggle(s.w, eid, Frozen{})
	case 3:
		return toggle(s.w, eid, Velocity{X: 1})
	case 4:
		return toggle(s.w, eid, Sprite{})
	case 5:
		return toggle(s.w, eid, Health{HP: 50})
	case 6:
		return toggle(s.w, eid, Position{})
	default:
		return s.w.Destroy(s.take(eid))
	}
}

// take removes the entity from the alive list and returns it.
func (s *state) take(eid world.EntityID) world.EntityID {
	for i, e := range s.alive {
		if e == eid {
			s.alive[i] = s.alive[len(s.alive)-1]
			s.alive = s.alive[:len(s.alive)-1]
			break
		}
	}
	return eid
}

func toggle[T world.Component](w *world.World, eid world.EntityID, c T) error {
	if world.Has[T](w, eid) {
		return world.Remove[T](w, eid)
	}
	return world.Set(w, eid, c)
}

// systems runs the per-tick systems. Structural changes are collected during iteration and
// applied after it.
func (s *state) systems(queries []*ecsquery.Query) error {
	movement, render, damageable := queries[0], queries[2], queries[3]

	for t := range ecsquery.Iterate2[Position, Velocity](movement, s.ts.pos, s.ts.vel) {
		next := Position{X: t.C1.X + t.C2.X, Y: t.C1.Y + t.C2.Y}
		if err := world.Set(s.w, t.Entity, next); err != nil {
			return err
		}
	}

	for t := range ecsquery.Iterate2[Position, Sprite](render, s.ts.pos, s.ts.sprite) {
		if !t.Has(2) {
			continue
		}
		if err := world.Set(s.w, t.Entity, Sprite{Frame: t.C2.Frame + 1}); err != nil {
			return err
		}
	}

	var dead []world.EntityID
	for eid, row := range damageable.Iterate(s.ts.health) {
		h, ok := row[0].(Health)
		if !ok {
			continue
		}
		h.HP -= s.r.IntN(3)
		if h.HP <= 0 {
			dead = append(dead, eid)
			continue
		}
		if err := world.Set(s.w, eid, h); err != nil {
			return err
		}
	}
	for _, eid := range dead {
		if err := s.w.Destroy(s.take(eid)); err != nil {
			return err
		}
	}
	return nil
}
