package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/simphys/internal/core/events/bus"
	"github.com/zeusync/simphys/internal/core/observability/log"
	"github.com/zeusync/simphys/pkg/concurrent"
	"github.com/zeusync/simphys/pkg/physics"
)

// Bus event types published by a run. Each run publishes into the topic named
// after its scenario.
const (
	EventCollisionEnter = "collision.enter"
	EventCollisionStep  = "collision.step"
	EventCollisionExit  = "collision.exit"
	EventProbe          = "probe"
	EventFinished       = "scenario.finished"
	EventCorrupted      = "scenario.corrupted"
)

func collisionEventType(kind physics.EventKind) string {
	switch kind {
	case physics.EventEnter:
		return EventCollisionEnter
	case physics.EventStep:
		return EventCollisionStep
	default:
		return EventCollisionExit
	}
}

// Collision is the payload of collision.* bus events.
type Collision struct {
	RunID string
	Step  uint64
	Kind  physics.EventKind
	Self  string
	Other string
}

// Runner executes scenarios and reports their progress through a logger and
// an event bus. A Runner may execute several scenarios concurrently.
type Runner struct {
	log log.Log
	bus bus.EventBus
}

func NewRunner(logger log.Log, eventBus bus.EventBus) *Runner {
	if logger == nil {
		logger = log.NewNop()
	}
	if eventBus == nil {
		eventBus = bus.New()
	}
	return &Runner{log: logger.Named("scenario"), bus: eventBus}
}

func (r *Runner) Bus() bus.EventBus { return r.bus }

// Run executes sc for its configured number of steps. The context is checked
// between steps; a cancelled run returns the partial result with the context
// error.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	runID := uuid.New()
	ctx = log.ContextWithFields(ctx, log.String("scenario", sc.Name), log.Stringer("run_id", runID))
	logger := r.log.WithContext(ctx)

	space, bodies, err := sc.Build(physics.WithObserver(stepLogger{log: logger}))
	if err != nil {
		return nil, err
	}
	if err = r.bus.CreateTopic(sc.Name); err != nil {
		return nil, err
	}

	names := make(map[physics.EntityID]string, len(bodies))
	for name, e := range bodies {
		names[e.ID()] = name
	}
	probesAt := make(map[int][]Probe, len(sc.Probes))
	for _, p := range sc.Probes {
		at := p.At
		if at == 0 {
			at = sc.Steps
		}
		probesAt[at] = append(probesAt[at], p)
	}

	res := &Result{
		RunID:       runID,
		Scenario:    sc.Name,
		EventCounts: make(map[string]int),
	}
	start := time.Now()
	logger.Info("run started", log.Int("bodies", len(sc.Bodies)), log.Int("steps", sc.Steps))

	defer func() {
		res.Duration = time.Since(start)
		res.StateHash = space.StateHash()
		res.Bodies = snapshot(sc, bodies)
	}()

	for i := 1; i <= sc.Steps; i++ {
		if err = ctx.Err(); err != nil {
			logger.Warn("run cancelled", log.Int("step", i))
			return res, err
		}
		if err = space.SimulateStep(); err != nil {
			r.publish(logger, sc.Name, newEvent(sc.Name, EventCorrupted, runID, err))
			return res, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		res.Steps = i
		if i == sc.Steps {
			// contacts of the last step would otherwise surface only on a step that never runs
			space.FlushEvents()
		}

		events := space.DrainEvents()
		batch := make([]bus.Event, 0, len(events)+len(probesAt[i]))
		for _, ev := range events {
			typ := collisionEventType(ev.Kind)
			res.EventCounts[typ]++
			batch = append(batch, newEvent(sc.Name, typ, runID, Collision{
				RunID: runID.String(),
				Step:  ev.Step,
				Kind:  ev.Kind,
				Self:  names[ev.Self],
				Other: names[ev.Other],
			}))
		}

		for _, p := range probesAt[i] {
			pr := runProbe(space, p, i)
			res.Probes = append(res.Probes, pr)
			batch = append(batch, newEvent(sc.Name, EventProbe, runID, pr))
		}
		r.publish(logger, sc.Name, batch...)
	}

	logger.Info("run finished",
		log.Int("steps", res.Steps),
		log.Int("events", res.TotalEvents()),
		log.Duration("took", time.Since(start)),
	)
	r.publish(logger, sc.Name, newEvent(sc.Name, EventFinished, runID, sc.Name))
	return res, nil
}

// RunAll runs every scenario with at most workers in parallel. Results keep
// the input order; a failed scenario does not stop the others.
func (r *Runner) RunAll(ctx context.Context, scenarios []*Scenario, workers int) ([]*Result, []error) {
	return concurrent.MapAll(ctx, scenarios, workers, r.Run)
}

func newEvent(topic, typ string, runID uuid.UUID, data any) bus.Event {
	return bus.NewEvent(typ, topic, data, map[string]any{"run_id": runID.String()})
}

// publish forwards one batch to the bus; handler errors are logged and never
// abort a run.
func (r *Runner) publish(logger log.Log, topic string, events ...bus.Event) {
	if len(events) == 0 {
		return
	}
	if err := r.bus.PublishBatch(topic, events...); err != nil {
		logger.Warn("event handler failed", log.Int("events", len(events)), log.Error(err))
	}
}

func runProbe(space *physics.SimulationSpace, p Probe, step int) ProbeResult {
	ignored := make(map[string]struct{}, len(p.Ignore))
	for _, name := range p.Ignore {
		ignored[name] = struct{}{}
	}
	ignore := func(e *physics.Entity) bool {
		_, skip := ignored[e.Name]
		return skip
	}

	out := ProbeResult{Name: p.Name, Kind: p.Kind, Step: step}
	switch p.Kind {
	case ProbeCircle:
		hit, ok := space.CircleCast(p.Origin.Vector2(), p.Radius, p.Direction.Vector2(), p.MaxDistance, ignore)
		if ok {
			out.Hit = true
			out.Entity = hit.Entity.Name
			out.Point = VecOf(hit.Point)
			out.Normal = VecOf(hit.Normal)
			out.Distance = hit.Distance
		}
	default:
		hit, ok := space.Raycast(p.Origin.Vector2(), p.Direction.Vector2(), p.MaxDistance, ignore)
		if ok {
			out.Hit = true
			out.Entity = hit.Entity.Name
			out.Point = VecOf(hit.Point)
			out.Normal = VecOf(hit.Normal)
			out.Distance = hit.Distance
		}
	}
	return out
}

func snapshot(sc *Scenario, bodies map[string]*physics.Entity) []BodyState {
	out := make([]BodyState, 0, len(sc.Bodies))
	for _, b := range sc.Bodies {
		e := bodies[b.Name]
		out = append(out, BodyState{
			Name:     b.Name,
			Position: VecOf(e.Position),
			Velocity: VecOf(e.Velocity),
		})
	}
	return out
}

// stepLogger reports engine progress at debug level.
type stepLogger struct {
	log log.Log
}

func (s stepLogger) OnStep(stats physics.StepStats) {
	if s.log.GetLevel() > log.LevelDebug {
		return
	}
	s.log.Debug("step",
		log.Uint64("step", stats.Step),
		log.Int("entities", stats.Entities),
		log.Int("sub_steps", stats.SubSteps),
		log.Int("contacts", stats.Contacts),
		log.Int("events", stats.Events),
		log.Duration("took", stats.Duration),
	)
}

func (s stepLogger) OnCorrupted(step uint64, err error) {
	s.log.Error("simulation corrupted", log.Uint64("step", step), log.Error(err))
}
