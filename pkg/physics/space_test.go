package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpace(t *testing.T, settings *SpaceSettings, entities ...*Entity) *SimulationSpace {
	t.Helper()
	space := NewSimulationSpace(settings)
	for _, e := range entities {
		_, err := space.AddEntity(e)
		require.NoError(t, err)
	}
	return space
}

func lossless() *SpaceSettings {
	return &SpaceSettings{Friction: 1, SubStepsCount: 1}
}

func step(t *testing.T, space *SimulationSpace, n int) {
	t.Helper()
	for k := 0; k < n; k++ {
		require.NoError(t, space.SimulateStep())
	}
}

func TestAddEntityIdempotent(t *testing.T) {
	space := NewSimulationSpace(nil)
	ball := circleAt(0, 0, 1)

	id, err := space.AddEntity(ball)
	require.NoError(t, err)
	again, err := space.AddEntity(ball)
	require.NoError(t, err)

	assert.Equal(t, id, again)
	assert.Equal(t, 1, space.Len())
	got, ok := space.Entity(id)
	require.True(t, ok)
	assert.Same(t, ball, got)
}

func TestAddEntityRejectsInvalid(t *testing.T) {
	space := NewSimulationSpace(nil)

	tests := []struct {
		name   string
		entity *Entity
	}{
		{"nil", nil},
		{"no shape", &Entity{Mass: 1}},
		{"negative radius", circleAt(0, 0, -1)},
		{"zero width", boxAt(0, 0, 0, 1, 0)},
		{"nan position", circleAt(math.NaN(), 0, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := space.AddEntity(tt.entity)
			assert.ErrorIs(t, err, ErrInvalidEntity)
		})
	}
	assert.Zero(t, space.Len())
}

func TestRemoveEntity(t *testing.T) {
	a, b := circleAt(0, 0, 1), circleAt(1, 0, 1)
	space := newSpace(t, lossless(), a, b)
	step(t, space, 2)
	require.Equal(t, []EntityID{b.ID()}, a.Touching())

	assert.True(t, space.RemoveEntity(b))
	assert.False(t, space.RemoveEntity(b))
	assert.Empty(t, a.Touching())
	_, ok := space.Entity(b.ID())
	assert.False(t, ok)

	space.DrainEvents()
	step(t, space, 1)
	assert.Empty(t, space.DrainEvents(), "removal does not fire exit events")
}

func TestSimulateStepEmptySpace(t *testing.T) {
	space := NewSimulationSpace(nil)
	require.NoError(t, space.SimulateStep())
	assert.Zero(t, space.StepCount())
}

func TestSimulateStepInvalidSettings(t *testing.T) {
	settings := lossless()
	space := newSpace(t, settings, circleAt(0, 0, 1))

	settings.Friction = 0
	assert.ErrorIs(t, space.SimulateStep(), ErrInvalidSettings)
	assert.NoError(t, space.Err(), "settings errors do not corrupt the space")

	settings.Friction = 1
	assert.NoError(t, space.SimulateStep())
}

func TestIntegrationAndFriction(t *testing.T) {
	ball := circleAt(0, 0, 1)
	ball.Velocity = Vec2(4, 0)
	space := newSpace(t, &SpaceSettings{Friction: 0.25, SubStepsCount: 2}, ball)

	step(t, space, 1)

	// per sub-step friction is √0.25 = 0.5
	assert.InDelta(t, 1, ball.Velocity.X, 1e-12)
	assert.InDelta(t, 2*0.5+1*0.5, ball.Position.X, 1e-12)
}

func TestElasticHeadOnSwap(t *testing.T) {
	a := circleAt(-1.5, 0, 1)
	a.Velocity, a.Bounciness = Vec2(1, 0), 1
	b := circleAt(1.5, 0, 1)
	b.Velocity, b.Bounciness = Vec2(-1, 0), 1
	space := newSpace(t, lossless(), a, b)
	before := kineticEnergy(a, b)

	step(t, space, 1)

	assert.True(t, a.Velocity.NearlyEqual(Vec2(-1, 0)), "a velocity %v", a.Velocity)
	assert.True(t, b.Velocity.NearlyEqual(Vec2(1, 0)), "b velocity %v", b.Velocity)
	assert.InDelta(t, before, kineticEnergy(a, b), 1e-9)
	_, overlapping := Overlap(a, b)
	assert.False(t, overlapping)
}

func TestFrozenNeverMoves(t *testing.T) {
	anchor := circleAt(0, 0, 1)
	anchor.Frozen = true
	anchor.Velocity = Vec2(3, 3)
	space := newSpace(t, lossless(), anchor)

	for k := 0; k < 5; k++ {
		ball := circleAt(-4, 0.5, 0.5)
		ball.Velocity, ball.Bounciness = Vec2(2, 0), 0.7
		_, err := space.AddEntity(ball)
		require.NoError(t, err)
	}
	step(t, space, 20)

	assert.Equal(t, Vec2(0, 0), anchor.Position)
	assert.Equal(t, Zero, anchor.Velocity)
}

func TestWorldBorderContainment(t *testing.T) {
	size := Vec2(10, 5)
	settings := &SpaceSettings{Friction: 1, SubStepsCount: 3, SpaceSize: &size}

	ball := circleAt(8, 0, 0.5)
	ball.Velocity, ball.Bounciness = Vec2(25, -40), 0.9
	box := boxAt(-5, 2, 3, 1, math.Pi/6)
	box.Velocity, box.Bounciness = Vec2(-30, 17), 1
	space := newSpace(t, settings, ball, box)

	for k := 0; k < 50; k++ {
		require.NoError(t, space.SimulateStep())
		for _, e := range space.Entities() {
			ext := e.Shape.halfExtents()
			assert.GreaterOrEqual(t, e.Position.X-ext.X, -size.X-1e-9, "%s", e)
			assert.LessOrEqual(t, e.Position.X+ext.X, size.X+1e-9, "%s", e)
			assert.GreaterOrEqual(t, e.Position.Y-ext.Y, -size.Y-1e-9, "%s", e)
			assert.LessOrEqual(t, e.Position.Y+ext.Y, size.Y+1e-9, "%s", e)
		}
	}
}

func TestBulletDoesNotTunnel(t *testing.T) {
	// the wall face is at -0.025, so the bullet touches it at x = -0.125
	tests := []struct {
		name  string
		start float64
		// position after the step that reaches the wall
		bounced float64
		hitStep int
	}{
		{"hit in first step", -9, -0.125 - (50 - 8.875), 1},
		{"hit mid first step", -30, -0.125 - (50 - 29.875), 1},
		{"hit in second step", -60, -0.125 - (50 - 9.875), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wall := boxAt(0, 0, 0.05, 2, 0)
			wall.Frozen, wall.Bounciness = true, 1
			bullet := circleAt(tt.start, 0, 0.1)
			bullet.Velocity, bullet.Bounciness = Vec2(50, 0), 1
			space := newSpace(t, lossless(), wall, bullet)

			for i := 1; i <= 6; i++ {
				require.NoError(t, space.SimulateStep())
				assert.Less(t, bullet.Position.X, 0.0, "step %d", i)
				if i == tt.hitStep {
					assert.InDelta(t, tt.bounced, bullet.Position.X, 1e-9)
				}
			}
			assert.InDelta(t, -50, bullet.Velocity.X, 1e-9, "bullet bounced back")

			var entered []uint64
			for _, ev := range space.DrainEvents() {
				if ev.Kind == EventEnter && ev.Self == bullet.ID() && ev.Other == wall.ID() {
					entered = append(entered, ev.Step)
				}
			}
			assert.Equal(t, []uint64{uint64(tt.hitStep + 1)}, entered)
		})
	}
}

func TestInelasticBulletStopsAtPlate(t *testing.T) {
	plate := boxAt(0, 0, 0.1, 6, 0)
	plate.Frozen, plate.Bounciness = true, 0.5
	bullet := circleAt(-40, 0.5, 0.05)
	bullet.Velocity, bullet.Mass = Vec2(90, 0), 0.01
	space := newSpace(t, lossless(), plate, bullet)

	step(t, space, 3)
	assert.InDelta(t, -0.1, bullet.Position.X, 1e-9)
	assert.InDelta(t, 0, bullet.Velocity.X, 1e-9)

	events := space.DrainEvents()
	require.NotEmpty(t, events)
	assert.Equal(t, CollisionEvent{Kind: EventEnter, Self: plate.ID(), Other: bullet.ID(), Step: 2}, events[0])
}

func TestSweptContactDoesNotDoubleAdvance(t *testing.T) {
	a := circleAt(-1.5, 0, 1)
	a.Velocity = Vec2(1, 0)
	c := circleAt(1.5, 0, 1)
	c.Velocity = Vec2(-1, 0)
	space := newSpace(t, lossless(), a, c)

	step(t, space, 1)

	// both stop at the contact point halfway through the step
	assert.InDelta(t, -1, a.Position.X, 1e-9)
	assert.InDelta(t, 1, c.Position.X, 1e-9)
	assert.InDelta(t, 0, a.Velocity.X, 1e-9)
	assert.InDelta(t, 0, c.Velocity.X, 1e-9)
}

func TestFrozenWallAddedFirstStillBlocks(t *testing.T) {
	wall := boxAt(0, 0, 1, 10, 0)
	wall.Frozen = true
	ball := circleAt(-3, 0, 0.5)
	ball.Velocity = Vec2(1, 0)
	space := newSpace(t, lossless(), wall, ball)

	step(t, space, 10)
	assert.LessOrEqual(t, ball.Position.X, -1+1e-9)
}

func TestNonFiniteStateCorruptsSpace(t *testing.T) {
	ball := circleAt(0, 0, 1)
	space := newSpace(t, lossless(), ball)

	ball.Velocity = Vec2(math.Inf(1), 0)
	err := space.SimulateStep()
	require.ErrorIs(t, err, ErrNonFiniteState)
	assert.ErrorIs(t, space.Err(), ErrNonFiniteState)

	err = space.SimulateStep()
	assert.ErrorIs(t, err, ErrCorrupted)
	assert.ErrorIs(t, err, ErrNonFiniteState)

	space.Reset()
	assert.NoError(t, space.Err())
	assert.Zero(t, space.Len())
	assert.NoError(t, space.SimulateStep())
}

type recordingObserver struct {
	stats   []StepStats
	corrupt []error
}

func (r *recordingObserver) OnStep(stats StepStats)           { r.stats = append(r.stats, stats) }
func (r *recordingObserver) OnCorrupted(_ uint64, err error) { r.corrupt = append(r.corrupt, err) }

func TestObserverStats(t *testing.T) {
	obs := &recordingObserver{}
	space := NewSimulationSpace(&SpaceSettings{Friction: 1, SubStepsCount: 2}, WithObserver(obs))
	a, b := circleAt(0, 0, 1), circleAt(1, 0, 1)
	_, err := space.AddEntity(a)
	require.NoError(t, err)
	_, err = space.AddEntity(b)
	require.NoError(t, err)

	step(t, space, 2)

	require.Len(t, obs.stats, 2)
	first, second := obs.stats[0], obs.stats[1]
	assert.Equal(t, uint64(1), first.Step)
	assert.Equal(t, 2, first.Entities)
	assert.Equal(t, 2, first.SubSteps)
	assert.GreaterOrEqual(t, first.Contacts, 1)
	assert.Zero(t, first.Events)
	assert.Equal(t, 2, second.Events, "one enter per side")
	assert.Empty(t, obs.corrupt)
}

func TestStateHashDeterministic(t *testing.T) {
	build := func(speed float64) *SimulationSpace {
		size := Vec2(20, 20)
		space := NewSimulationSpace(&SpaceSettings{Friction: 0.99, SubStepsCount: 4, SpaceSize: &size})
		for i := 0; i < 8; i++ {
			c := circleAt(float64(i*4-14), float64(i%3)*2, 0.8)
			c.Velocity = Vec2(speed*float64(i%2*2-1), speed/2)
			c.Bounciness = 0.8
			_, _ = space.AddEntity(c)
		}
		wall := boxAt(0, -5, 12, 1, 0.3)
		wall.Frozen = true
		_, _ = space.AddEntity(wall)
		return space
	}

	a, b, c := build(7), build(7), build(7.5)
	for k := 0; k < 100; k++ {
		require.NoError(t, a.SimulateStep())
		require.NoError(t, b.SimulateStep())
		require.NoError(t, c.SimulateStep())
	}
	assert.Equal(t, a.StateHash(), b.StateHash())
	assert.NotEqual(t, a.StateHash(), c.StateHash())
	assert.Equal(t, a.DrainEvents(), b.DrainEvents())
}
