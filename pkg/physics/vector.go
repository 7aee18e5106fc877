// Package physics provides a deterministic 2D rigid body engine for circles and
// rotated rectangles with continuous collision detection, impulse resolution,
// collision events and ray queries.
package physics

import "math"

// Epsilon is the shared near-zero tolerance for every guard in the engine.
const Epsilon = 1e-9

// Vector2 is an immutable 2D vector.
type Vector2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

var (
	Zero  = Vector2{}
	One   = Vector2{X: 1, Y: 1}
	UnitX = Vector2{X: 1}
	UnitY = Vector2{Y: 1}
)

func Vec2(x, y float64) Vector2 { return Vector2{X: x, Y: y} }

func (v Vector2) Add(o Vector2) Vector2 { return Vector2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vector2) Sub(o Vector2) Vector2 { return Vector2{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vector2) Neg() Vector2          { return Vector2{X: -v.X, Y: -v.Y} }

func (v Vector2) Scale(factor float64) Vector2 {
	return Vector2{X: v.X * factor, Y: v.Y * factor}
}

// Div divides both components by scalar. A zero scalar yields ErrDivideByZero.
func (v Vector2) Div(scalar float64) (Vector2, error) {
	if scalar == 0 {
		return Zero, ErrDivideByZero
	}
	return Vector2{X: v.X / scalar, Y: v.Y / scalar}, nil
}

func (v Vector2) Dot(o Vector2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vector2) Cross(o Vector2) float64 { return v.X*o.Y - v.Y*o.X }

func (v Vector2) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y }
func (v Vector2) Length() float64        { return math.Sqrt(v.LengthSquared()) }

// Normalize returns the unit vector in the direction of v, or Zero when v is
// shorter than Epsilon. Callers must treat Zero as "no direction".
func (v Vector2) Normalize() Vector2 {
	length := v.Length()
	if length < Epsilon {
		return Zero
	}
	inv := 1 / length
	return Vector2{X: v.X * inv, Y: v.Y * inv}
}

// Rotate rotates v counter-clockwise by angle radians.
func (v Vector2) Rotate(angle float64) Vector2 {
	if angle == 0 {
		return v
	}
	sin, cos := math.Sincos(angle)
	return Vector2{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

func (v Vector2) Distance(o Vector2) float64 { return v.Sub(o).Length() }

// NearlyEqual compares component-wise within Epsilon.
func (v Vector2) NearlyEqual(o Vector2) bool {
	return NearlyEqual(v.X, o.X) && NearlyEqual(v.Y, o.Y)
}

func (v Vector2) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

func (v Vector2) IsZero() bool { return v.LengthSquared() < Epsilon*Epsilon }
