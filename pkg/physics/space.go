package physics

import (
	"fmt"
	"slices"
	"time"
)

// Observer is notified once per completed step. Implementations should return
// quickly; they run inside SimulateStep.
type Observer interface {
	OnStep(stats StepStats)
	OnCorrupted(step uint64, err error)
}

// StepStats summarizes one SimulateStep call.
type StepStats struct {
	Step     uint64
	Entities int
	SubSteps int
	// Contacts counts detected pairs over all sub-steps.
	Contacts int
	// Events counts collision events fired at the start of the step.
	Events   int
	Duration time.Duration
}

type Option func(*SimulationSpace)

func WithObserver(obs Observer) Option {
	return func(s *SimulationSpace) { s.observers = append(s.observers, obs) }
}

// SimulationSpace owns the entity list and advances it one step at a time.
// It is not safe for concurrent use; independent spaces may run in parallel.
type SimulationSpace struct {
	settings  *SpaceSettings
	entities  []*Entity
	byID      map[EntityID]*Entity
	nextID    EntityID
	events    []CollisionEvent
	stepCount uint64
	corrupted error
	observers []Observer
	// flushed is set when FlushEvents already folded the last step's contacts.
	flushed bool
}

// NewSimulationSpace creates a space driven by settings. A nil settings value
// uses DefaultSettings. The pointer is kept, not copied.
func NewSimulationSpace(settings *SpaceSettings, opts ...Option) *SimulationSpace {
	if settings == nil {
		settings = DefaultSettings()
	}
	s := &SimulationSpace{
		settings: settings,
		byID:     make(map[EntityID]*Entity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SimulationSpace) Settings() *SpaceSettings { return s.settings }

// AddEntity registers e and returns its handle. Adding an entity that is
// already registered is a no-op returning the existing handle.
func (s *SimulationSpace) AddEntity(e *Entity) (EntityID, error) {
	if e == nil {
		return NoEntity, fmt.Errorf("%w: nil entity", ErrInvalidEntity)
	}
	if e.id != NoEntity && s.byID[e.id] == e {
		return e.id, nil
	}
	if err := e.Validate(); err != nil {
		return NoEntity, err
	}
	s.nextID++
	e.id = s.nextID
	e.current = e.current[:0]
	e.entered = e.entered[:0]
	s.entities = append(s.entities, e)
	s.byID[e.id] = e
	return e.id, nil
}

// RemoveEntity unregisters e and forgets every contact other entities hold
// with it. No exit events are fired for those contacts.
func (s *SimulationSpace) RemoveEntity(e *Entity) bool {
	if e == nil || s.byID[e.id] != e {
		return false
	}
	delete(s.byID, e.id)
	s.entities = slices.DeleteFunc(s.entities, func(v *Entity) bool { return v == e })
	for _, other := range s.entities {
		other.current.remove(e.id)
		other.entered.remove(e.id)
	}
	e.current = e.current[:0]
	e.entered = e.entered[:0]
	return true
}

func (s *SimulationSpace) Entity(id EntityID) (*Entity, bool) {
	e, ok := s.byID[id]
	return e, ok
}

// Entities returns a snapshot of the registered entities in insertion order.
func (s *SimulationSpace) Entities() []*Entity { return slices.Clone(s.entities) }

func (s *SimulationSpace) Len() int { return len(s.entities) }

func (s *SimulationSpace) StepCount() uint64 { return s.stepCount }

// DrainEvents returns every collision event fired since the previous drain.
func (s *SimulationSpace) DrainEvents() []CollisionEvent {
	out := s.events
	s.events = nil
	return out
}

// Err reports the corruption recorded by a failed step, if any.
func (s *SimulationSpace) Err() error { return s.corrupted }

// Reset drops all entities, queued events and any recorded corruption.
func (s *SimulationSpace) Reset() {
	for _, e := range s.entities {
		e.current = e.current[:0]
		e.entered = e.entered[:0]
	}
	s.entities = nil
	s.byID = make(map[EntityID]*Entity)
	s.events = nil
	s.stepCount = 0
	s.corrupted = nil
	s.flushed = false
}

// FlushEvents delivers the transitions for contacts gathered by the last step
// now instead of at the start of the next one, for hosts that stop stepping.
// The next SimulateStep then skips its own delivery. Flushed events carry the
// current StepCount.
func (s *SimulationSpace) FlushEvents() {
	if s.corrupted != nil || s.flushed || s.stepCount == 0 {
		return
	}
	for _, e := range slices.Clone(s.entities) {
		s.advanceEvents(e)
	}
	s.flushed = true
}

// Caster returns a query engine bound to the live entity list.
func (s *SimulationSpace) Caster() *PhysicsCaster { return NewPhysicsCaster(s) }

// SimulateStep advances the simulation by one full step: collision events
// gathered during the previous call are delivered, then every sub-step applies
// friction, sweeps each pair over the motion of that sub-step and resolves it
// in index order, moves the bodies no contact has moved and clamps them to the
// world border. A returned error other than a settings error leaves the space
// corrupted until Reset.
func (s *SimulationSpace) SimulateStep() error {
	if s.corrupted != nil {
		return fmt.Errorf("%w: %w", ErrCorrupted, s.corrupted)
	}
	if len(s.entities) == 0 {
		return nil
	}
	if err := s.settings.Validate(); err != nil {
		return err
	}

	start := time.Now()
	s.stepCount++
	// callbacks may add or remove entities; those changes apply next step
	entities := slices.Clone(s.entities)

	eventsBefore := len(s.events)
	if !s.flushed {
		for _, e := range entities {
			s.advanceEvents(e)
		}
	}
	s.flushed = false
	fired := len(s.events) - eventsBefore

	subSteps := s.settings.subSteps()
	dt := 1 / float64(subSteps)
	friction := s.settings.subStepFriction()
	lo, hi, bounded := s.settings.Bounds()

	contacts := 0
	// moved marks bodies a resolved contact already carried to the end of the
	// running sub-step
	moved := make([]bool, len(entities))
	for sub := 0; sub < subSteps; sub++ {
		clear(moved)
		for _, e := range entities {
			if e.Frozen {
				e.Velocity = Zero
				continue
			}
			e.Velocity = e.Velocity.Scale(friction)
		}

		for i := 0; i < len(entities); i++ {
			for j := i + 1; j < len(entities); j++ {
				a, b := entities[i], entities[j]
				dtA, dtB := remainingTravel(moved[i], dt), remainingTravel(moved[j], dt)
				data, ok := intersect(a, b, a.Velocity.Scale(dtA).Sub(b.Velocity.Scale(dtB)))
				if !ok {
					continue
				}
				contacts++
				recordContact(a, b)
				if resolveCollision(a, b, data, dtA, dtB) {
					moved[i], moved[j] = true, true
				}
				ForceResolveCollision(a, b)
			}
		}

		for i, e := range entities {
			if e.Frozen || moved[i] {
				continue
			}
			e.Position = e.Position.Add(e.Velocity.Scale(dt))
		}

		if bounded {
			for _, e := range entities {
				if !e.Frozen && e.Shape != nil {
					ResolveBorderCollision(e, lo, hi)
				}
			}
		}
	}

	for _, e := range entities {
		if !e.isFinite() {
			s.corrupted = fmt.Errorf("%w: %s at step %d", ErrNonFiniteState, e, s.stepCount)
			for _, obs := range s.observers {
				obs.OnCorrupted(s.stepCount, s.corrupted)
			}
			return s.corrupted
		}
	}

	if len(s.observers) > 0 {
		stats := StepStats{
			Step:     s.stepCount,
			Entities: len(entities),
			SubSteps: subSteps,
			Contacts: contacts,
			Events:   fired,
			Duration: time.Since(start),
		}
		for _, obs := range s.observers {
			obs.OnStep(stats)
		}
	}
	return nil
}

func remainingTravel(moved bool, dt float64) float64 {
	if moved {
		return 0
	}
	return dt
}
