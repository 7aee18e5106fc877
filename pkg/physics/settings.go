package physics

import (
	"fmt"
	"math"
)

// SpaceSettings configures a SimulationSpace. The space keeps the pointer it is
// given, so a host may adjust the values between steps.
type SpaceSettings struct {
	// Friction is the multiplicative velocity damping applied over one full step.
	Friction float64 `json:"friction" yaml:"friction"`
	// SubStepsCount splits every step into this many integration passes.
	SubStepsCount int `json:"sub_steps" yaml:"sub_steps"`
	// SpaceSize holds the half extents of a world boundary centered on the
	// origin. Nil means unbounded.
	SpaceSize *Vector2 `json:"space_size,omitempty" yaml:"space_size,omitempty"`
}

func DefaultSettings() *SpaceSettings {
	return &SpaceSettings{
		Friction:      0.98,
		SubStepsCount: 1,
	}
}

func (s *SpaceSettings) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil settings", ErrInvalidSettings)
	}
	if math.IsNaN(s.Friction) || s.Friction <= 0 || s.Friction > 1 {
		return fmt.Errorf("%w: friction %v outside (0,1]", ErrInvalidSettings, s.Friction)
	}
	if s.SubStepsCount < 1 {
		return fmt.Errorf("%w: sub steps count %d below 1", ErrInvalidSettings, s.SubStepsCount)
	}
	if s.SpaceSize != nil {
		if !s.SpaceSize.IsFinite() || s.SpaceSize.X <= 0 || s.SpaceSize.Y <= 0 {
			return fmt.Errorf("%w: space size %v must be positive", ErrInvalidSettings, *s.SpaceSize)
		}
	}
	return nil
}

// subSteps is the effective number of passes; a zero or negative count still
// integrates once.
func (s *SpaceSettings) subSteps() int {
	return max(1, s.SubStepsCount)
}

func (s *SpaceSettings) subStepFriction() float64 {
	return math.Pow(s.Friction, 1/float64(s.subSteps()))
}

// Bounds returns the world rectangle as min/max corners.
func (s *SpaceSettings) Bounds() (lo, hi Vector2, ok bool) {
	if s.SpaceSize == nil {
		return Zero, Zero, false
	}
	return s.SpaceSize.Neg(), *s.SpaceSize, true
}
