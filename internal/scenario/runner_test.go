package scenario

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeusync/simphys/internal/core/events/bus"
	"github.com/zeusync/simphys/internal/core/observability/log"
	"github.com/zeusync/simphys/pkg/physics"
)

func newTestRunner(t *testing.T, level log.Level) (*Runner, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewRunner(log.NewFromZap(zap.New(core), level), bus.New()), logs
}

func loadGate(t *testing.T) *Scenario {
	t.Helper()
	sc, err := LoadFile("testdata/gate.yaml")
	require.NoError(t, err)
	return sc
}

func TestRunGate(t *testing.T) {
	runner, logs := newTestRunner(t, log.LevelInfo)
	sc := loadGate(t)

	var types []string
	_, err := runner.Bus().SubscribeTopic(sc.Name, bus.Wildcard, func(e bus.Event) error {
		types = append(types, e.Type())
		return nil
	})
	require.NoError(t, err)

	res, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)

	assert.Equal(t, 7, res.Steps)
	assert.Equal(t, map[string]int{
		EventCollisionEnter: 2,
		EventCollisionStep:  6,
		EventCollisionExit:  2,
	}, res.EventCounts)
	assert.Equal(t, 10, res.TotalEvents())
	assert.NotZero(t, res.StateHash)

	require.Len(t, res.Probes, 2)
	look := res.Probes[0]
	assert.Equal(t, "look", look.Name)
	assert.Equal(t, 1, look.Step)
	assert.True(t, look.Hit)
	assert.Equal(t, "ball", look.Entity)
	assert.InDelta(t, 7.5, look.Distance, 1e-9)

	sweep := res.Probes[1]
	assert.Equal(t, 7, sweep.Step)
	assert.True(t, sweep.Hit)
	assert.Equal(t, "wall", sweep.Entity)
	assert.InDelta(t, 9, sweep.Distance, 1e-9)

	require.Len(t, res.Bodies, 3)
	assert.Equal(t, "ball", res.Bodies[1].Name)
	assert.InDelta(t, 4, res.Bodies[1].Position.X, 1e-9)

	require.Len(t, types, 13)
	assert.Equal(t, EventProbe, types[0], "look fires after step 1")
	assert.Equal(t, EventCollisionEnter, types[1])
	assert.Equal(t, EventFinished, types[len(types)-1])

	assert.Equal(t, 1, logs.FilterMessage("run started").Len())
	finished := logs.FilterMessage("run finished").All()
	require.Len(t, finished, 1)
	assert.Equal(t, "gate", finished[0].ContextMap()["scenario"])
	assert.Equal(t, res.RunID.String(), finished[0].ContextMap()["run_id"])
	assert.Zero(t, logs.FilterMessage("step").Len(), "step logs are debug only")
}

func TestRunPublishesCollisionPayloads(t *testing.T) {
	runner, _ := newTestRunner(t, log.LevelInfo)
	sc := loadGate(t)

	var enters []Collision
	_, _ = runner.Bus().SubscribeTopic(sc.Name, EventCollisionEnter, func(e bus.Event) error {
		enters = append(enters, e.Data().(Collision))
		return nil
	})

	res, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)
	require.Len(t, enters, 2)
	assert.Equal(t, Collision{RunID: res.RunID.String(), Step: 3, Kind: physics.EventEnter, Self: "zone", Other: "ball"}, enters[0])
	assert.Equal(t, "ball", enters[1].Self)
}

func TestRunDebugLogsSteps(t *testing.T) {
	runner, logs := newTestRunner(t, log.LevelDebug)
	_, err := runner.Run(context.Background(), loadGate(t))
	require.NoError(t, err)
	assert.Equal(t, 7, logs.FilterMessage("step").Len())
}

func TestRunIsDeterministic(t *testing.T) {
	runner, _ := newTestRunner(t, log.LevelInfo)
	first, err := runner.Run(context.Background(), loadGate(t))
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), loadGate(t))
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.StateHash, second.StateHash)
	assert.Equal(t, first.Bodies, second.Bodies)
}

func TestRunHandlerErrorsDoNotAbort(t *testing.T) {
	runner, logs := newTestRunner(t, log.LevelInfo)
	sc := loadGate(t)
	_, _ = runner.Bus().SubscribeTopic(sc.Name, EventCollisionExit, func(bus.Event) error {
		return errors.New("sink full")
	})

	res, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, 7, res.Steps)
	// both exits are published in the batch of the last step
	assert.Equal(t, 1, logs.FilterMessage("event handler failed").Len())
}

func TestRunFlushesLastStepContacts(t *testing.T) {
	runner, _ := newTestRunner(t, log.LevelInfo)
	sc := loadGate(t)
	sc.Steps = 3

	var last []Collision
	_, _ = runner.Bus().SubscribeTopic(sc.Name, EventCollisionStep, func(e bus.Event) error {
		last = append(last, e.Data().(Collision))
		return nil
	})

	res, err := runner.Run(context.Background(), sc)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		EventCollisionEnter: 2,
		EventCollisionStep:  2,
	}, res.EventCounts)
	require.Len(t, last, 2)
	assert.Equal(t, uint64(3), last[0].Step)
}

func TestEventLogWritesDebugEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := log.NewFromZap(zap.New(core), log.LevelDebug)
	eventBus := bus.New()
	NewEventLog(logger, eventBus)
	runner := NewRunner(logger, eventBus)

	res, err := runner.Run(context.Background(), loadGate(t))
	require.NoError(t, err)

	events := logs.FilterMessage("event").All()
	require.Len(t, events, res.TotalEvents()+len(res.Probes)+1)
	assert.Equal(t, uint64(len(events)), eventBus.GetMetrics().Published)

	first := events[0].ContextMap()
	assert.Equal(t, "gate", first["topic"])
	assert.Equal(t, EventProbe, first["type"])
	assert.Equal(t, "look", first["probe"])
	assert.Equal(t, "ball", first["entity"])
	assert.Equal(t, res.RunID.String(), first["run_id"])

	enter := events[1].ContextMap()
	assert.Equal(t, EventCollisionEnter, enter["type"])
	assert.Equal(t, "zone", enter["self"])
	assert.Equal(t, "ball", enter["other"])
}

func TestEventLogQuietAboveDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := log.NewFromZap(zap.New(core), log.LevelInfo)
	eventBus := bus.New()
	NewEventLog(logger, eventBus)

	_, err := NewRunner(logger, eventBus).Run(context.Background(), loadGate(t))
	require.NoError(t, err)
	assert.Zero(t, logs.FilterMessage("event").Len())
	assert.Positive(t, eventBus.GetMetrics().Published)
}

func TestRunCancelled(t *testing.T) {
	runner, _ := newTestRunner(t, log.LevelInfo)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := runner.Run(ctx, loadGate(t))
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Zero(t, res.Steps)
}

func TestRunCorrupted(t *testing.T) {
	runner, logs := newTestRunner(t, log.LevelInfo)
	sc := &Scenario{
		Name:     "overflow",
		Steps:    3,
		Settings: Settings{Friction: ptr(1.0)},
		Bodies: []Body{{
			Name: "rocket", Shape: ShapeCircle, Radius: 1,
			Position: Vec{X: 1e308}, Velocity: Vec{X: 1e308},
		}},
	}
	var corrupted int
	_, _ = runner.Bus().SubscribeTopic(sc.Name, EventCorrupted, func(bus.Event) error { corrupted++; return nil })

	res, err := runner.Run(context.Background(), sc)
	assert.ErrorIs(t, err, physics.ErrNonFiniteState)
	require.NotNil(t, res)
	assert.Zero(t, res.Steps)
	assert.Equal(t, 1, corrupted)
	assert.Equal(t, 1, logs.FilterMessage("simulation corrupted").Len())
}

func TestRunAll(t *testing.T) {
	runner, _ := newTestRunner(t, log.LevelInfo)
	broken := loadGate(t)
	broken.Steps = 0

	results, errs := runner.RunAll(context.Background(), []*Scenario{loadGate(t), loadGate(t), broken}, 2)
	require.Len(t, results, 3)
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.ErrorIs(t, errs[2], ErrInvalidScenario)
	assert.Nil(t, results[2])
	assert.Equal(t, results[0].StateHash, results[1].StateHash)
}

func TestWriteSummary(t *testing.T) {
	runner, _ := newTestRunner(t, log.LevelInfo)
	res, err := runner.Run(context.Background(), loadGate(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.WriteSummary(&buf))
	out := buf.String()
	assert.Contains(t, out, "gate")
	assert.Contains(t, out, "collision.enter")
	assert.Contains(t, out, "probe look")
	assert.Contains(t, out, "hit ball")
	assert.Contains(t, out, "body  wall")
}
