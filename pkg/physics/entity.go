package physics

import "fmt"

// EntityID is a stable handle assigned by a SimulationSpace when an entity is
// added. Zero means "not registered".
type EntityID uint64

const NoEntity EntityID = 0

// Entity is a moving body. Hosts own the value and may set Position, Velocity
// and the flags between steps.
type Entity struct {
	Name string

	Position Vector2
	Velocity Vector2
	// Mass of zero or less means infinite mass.
	Mass float64
	// Bounciness is the restitution coefficient used on impact and at borders.
	Bounciness float64
	// Frozen bodies never move and have their velocity zeroed every step, but
	// still push other bodies.
	Frozen bool
	// Trigger bodies report collision events and are never resolved.
	Trigger bool

	Shape Shape

	id        EntityID
	current   idSet
	entered   idSet
	listeners [eventKindCount][]*Subscription
}

func NewCircle(position Vector2, radius float64) *Entity {
	return &Entity{
		Position: position,
		Mass:     1,
		Shape:    Circle{Radius: radius},
	}
}

func NewRectangle(position Vector2, width, height, rotation float64) *Entity {
	return &Entity{
		Position: position,
		Mass:     1,
		Shape:    Rectangle{Width: width, Height: height, Rotation: rotation},
	}
}

func (e *Entity) ID() EntityID { return e.id }

func (e *Entity) InverseMass() float64 {
	if e.Mass <= 0 {
		return 0
	}
	return 1 / e.Mass
}

// effectiveInverseMass treats frozen bodies as immovable.
func (e *Entity) effectiveInverseMass() float64 {
	if e.Frozen {
		return 0
	}
	return e.InverseMass()
}

func (e *Entity) Validate() error {
	if e.Shape == nil {
		return fmt.Errorf("%w: %q has no shape", ErrInvalidEntity, e.Name)
	}
	if err := e.Shape.validate(); err != nil {
		return fmt.Errorf("%q: %w", e.Name, err)
	}
	if !e.Position.IsFinite() || !e.Velocity.IsFinite() {
		return fmt.Errorf("%w: %q has non-finite position or velocity", ErrInvalidEntity, e.Name)
	}
	if !isFinite(e.Mass) || !isFinite(e.Bounciness) {
		return fmt.Errorf("%w: %q has non-finite mass or bounciness", ErrInvalidEntity, e.Name)
	}
	return nil
}

// Touching returns the handles this entity currently considers itself inside.
func (e *Entity) Touching() []EntityID {
	return append([]EntityID(nil), e.entered...)
}

func (e *Entity) String() string {
	if e.Name != "" {
		return fmt.Sprintf("%s#%d(%s)", e.Name, e.id, e.kind())
	}
	return fmt.Sprintf("#%d(%s)", e.id, e.kind())
}

func (e *Entity) kind() ShapeKind {
	if e.Shape == nil {
		return 0
	}
	return e.Shape.Kind()
}

func (e *Entity) isFinite() bool {
	return e.Position.IsFinite() && e.Velocity.IsFinite()
}

// idSet is a small insertion-ordered set; iteration order must be stable so
// event delivery stays deterministic.
type idSet []EntityID

func (s idSet) contains(id EntityID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

func (s *idSet) add(id EntityID) bool {
	if s.contains(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

func (s *idSet) remove(id EntityID) bool {
	for i, v := range *s {
		if v == id {
			*s = append((*s)[:i], (*s)[i+1:]...)
			return true
		}
	}
	return false
}
