package scenario

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/zeusync/simphys/pkg/physics"
)

var (
	ErrInvalidScenario = errors.New("scenario: invalid")
	ErrDuplicateBody   = errors.New("scenario: duplicate body name")
	ErrUnknownBody     = errors.New("scenario: unknown body")
)

const (
	ShapeCircle    = "circle"
	ShapeRectangle = "rectangle"

	ProbeRay    = "ray"
	ProbeCircle = "circle"
)

// Scenario is a self-contained simulation description: world settings, the
// initial bodies, how many steps to run and the queries to answer on the way.
type Scenario struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       int      `json:"steps" yaml:"steps"`
	Settings    Settings `json:"settings" yaml:"settings"`
	Bodies      []Body   `json:"bodies" yaml:"bodies"`
	Probes      []Probe  `json:"probes,omitempty" yaml:"probes,omitempty"`
}

type Settings struct {
	// Friction defaults to the engine default when omitted.
	Friction  *float64 `json:"friction,omitempty" yaml:"friction,omitempty"`
	SubSteps  int      `json:"sub_steps,omitempty" yaml:"sub_steps,omitempty"`
	SpaceSize *Vec     `json:"space_size,omitempty" yaml:"space_size,omitempty"`
}

type Body struct {
	Name       string   `json:"name" yaml:"name"`
	Shape      string   `json:"shape" yaml:"shape"`
	Radius     float64  `json:"radius,omitempty" yaml:"radius,omitempty"`
	Width      float64  `json:"width,omitempty" yaml:"width,omitempty"`
	Height     float64  `json:"height,omitempty" yaml:"height,omitempty"`
	Rotation   float64  `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	Position   Vec      `json:"position" yaml:"position"`
	Velocity   Vec      `json:"velocity,omitempty" yaml:"velocity,omitempty"`
	Mass       *float64 `json:"mass,omitempty" yaml:"mass,omitempty"`
	Bounciness float64  `json:"bounciness,omitempty" yaml:"bounciness,omitempty"`
	Frozen     bool     `json:"frozen,omitempty" yaml:"frozen,omitempty"`
	Trigger    bool     `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

// Probe is a ray or circle cast evaluated after step At, or after the last
// step when At is zero.
type Probe struct {
	Name        string   `json:"name" yaml:"name"`
	Kind        string   `json:"kind" yaml:"kind"`
	At          int      `json:"at,omitempty" yaml:"at,omitempty"`
	Origin      Vec      `json:"origin" yaml:"origin"`
	Direction   Vec      `json:"direction" yaml:"direction"`
	Radius      float64  `json:"radius,omitempty" yaml:"radius,omitempty"`
	MaxDistance float64  `json:"max_distance" yaml:"max_distance"`
	Ignore      []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`
}

func (s *Scenario) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Name) == "" {
		errs = append(errs, fmt.Errorf("%w: missing name", ErrInvalidScenario))
	}
	if s.Steps < 1 {
		errs = append(errs, fmt.Errorf("%w: steps %d below 1", ErrInvalidScenario, s.Steps))
	}
	if len(s.Bodies) == 0 {
		errs = append(errs, fmt.Errorf("%w: no bodies", ErrInvalidScenario))
	}
	if _, err := s.Settings.space(); err != nil {
		errs = append(errs, err)
	}

	names := make(map[string]struct{}, len(s.Bodies))
	for i, b := range s.Bodies {
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("%w: body %d has no name", ErrInvalidScenario, i))
			continue
		}
		if _, dup := names[b.Name]; dup {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateBody, b.Name))
		}
		names[b.Name] = struct{}{}
		if _, err := b.entity(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, p := range s.Probes {
		if err := p.validate(s.Steps, names); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build creates a space populated with the scenario bodies and returns it
// together with the entities indexed by body name.
func (s *Scenario) Build(opts ...physics.Option) (*physics.SimulationSpace, map[string]*physics.Entity, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, err
	}
	settings, _ := s.Settings.space()
	space := physics.NewSimulationSpace(settings, opts...)
	index := make(map[string]*physics.Entity, len(s.Bodies))
	for _, b := range s.Bodies {
		e, err := b.entity()
		if err != nil {
			return nil, nil, err
		}
		if _, err = space.AddEntity(e); err != nil {
			return nil, nil, fmt.Errorf("body %q: %w", b.Name, err)
		}
		index[b.Name] = e
	}
	return space, index, nil
}

func (s Settings) space() (*physics.SpaceSettings, error) {
	out := physics.DefaultSettings()
	if s.Friction != nil {
		out.Friction = *s.Friction
	}
	if s.SubSteps != 0 {
		out.SubStepsCount = s.SubSteps
	}
	if s.SpaceSize != nil {
		size := s.SpaceSize.Vector2()
		out.SpaceSize = &size
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

func (b Body) entity() (*physics.Entity, error) {
	var e *physics.Entity
	switch strings.ToLower(b.Shape) {
	case ShapeCircle:
		e = physics.NewCircle(b.Position.Vector2(), b.Radius)
	case ShapeRectangle, "rect", "box":
		e = physics.NewRectangle(b.Position.Vector2(), b.Width, b.Height, b.Rotation)
	default:
		return nil, fmt.Errorf("%w: body %q has unknown shape %q", ErrInvalidScenario, b.Name, b.Shape)
	}
	e.Name = b.Name
	e.Velocity = b.Velocity.Vector2()
	if b.Mass != nil {
		e.Mass = *b.Mass
	}
	e.Bounciness = b.Bounciness
	e.Frozen = b.Frozen
	e.Trigger = b.Trigger
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (p Probe) validate(steps int, bodies map[string]struct{}) error {
	var errs []error
	switch p.Kind {
	case ProbeRay:
	case ProbeCircle:
		if !(p.Radius >= 0) || math.IsInf(p.Radius, 0) {
			errs = append(errs, fmt.Errorf("%w: probe %q radius %v", ErrInvalidScenario, p.Name, p.Radius))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: probe %q has unknown kind %q", ErrInvalidScenario, p.Name, p.Kind))
	}
	if p.At < 0 || p.At > steps {
		errs = append(errs, fmt.Errorf("%w: probe %q at step %d outside [0,%d]", ErrInvalidScenario, p.Name, p.At, steps))
	}
	if !(p.MaxDistance > 0) {
		errs = append(errs, fmt.Errorf("%w: probe %q needs a positive max_distance", ErrInvalidScenario, p.Name))
	}
	if p.Direction.Vector2().IsZero() {
		errs = append(errs, fmt.Errorf("%w: probe %q has no direction", ErrInvalidScenario, p.Name))
	}
	for _, name := range p.Ignore {
		if _, ok := bodies[name]; !ok {
			errs = append(errs, fmt.Errorf("%w: probe %q ignores %q", ErrUnknownBody, p.Name, name))
		}
	}
	return errors.Join(errs...)
}
