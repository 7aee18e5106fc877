package physics

import (
	"fmt"
	"math"
)

// Shape is the closed set of collider geometries: Circle or Rectangle.
type Shape interface {
	Kind() ShapeKind
	validate() error
	// halfExtents returns the half size of the axis-aligned box enclosing the
	// shape in world orientation.
	halfExtents() Vector2
}

type ShapeKind uint8

const (
	ShapeCircle ShapeKind = iota + 1
	ShapeRectangle
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "circle"
	case ShapeRectangle:
		return "rectangle"
	default:
		return "unknown"
	}
}

type Circle struct {
	Radius float64
}

func (Circle) Kind() ShapeKind { return ShapeCircle }

func (c Circle) validate() error {
	if !(c.Radius > 0) || math.IsInf(c.Radius, 0) {
		return fmt.Errorf("%w: circle radius %v must be positive", ErrInvalidEntity, c.Radius)
	}
	return nil
}

func (c Circle) halfExtents() Vector2 { return Vector2{X: c.Radius, Y: c.Radius} }

// Rectangle is a box of Width×Height rotated by Rotation radians about its center.
type Rectangle struct {
	Width    float64
	Height   float64
	Rotation float64
}

func (Rectangle) Kind() ShapeKind { return ShapeRectangle }

func (r Rectangle) validate() error {
	if !(r.Width > 0) || !(r.Height > 0) || math.IsInf(r.Width, 0) || math.IsInf(r.Height, 0) {
		return fmt.Errorf("%w: rectangle size %vx%v must be positive", ErrInvalidEntity, r.Width, r.Height)
	}
	if !isFinite(r.Rotation) {
		return fmt.Errorf("%w: rectangle rotation %v", ErrInvalidEntity, r.Rotation)
	}
	return nil
}

func (r Rectangle) half() Vector2 { return Vector2{X: r.Width / 2, Y: r.Height / 2} }

func (r Rectangle) halfExtents() Vector2 {
	sin, cos := math.Sincos(r.Rotation)
	h := r.half()
	return Vector2{
		X: math.Abs(h.X*cos) + math.Abs(h.Y*sin),
		Y: math.Abs(h.X*sin) + math.Abs(h.Y*cos),
	}
}

// axes returns the two unit edge normals of the rectangle in world space.
func (r Rectangle) axes() [2]Vector2 {
	return [2]Vector2{UnitX.Rotate(r.Rotation), UnitY.Rotate(r.Rotation)}
}

// corners returns the four world space vertices for a rectangle centered at center.
func (r Rectangle) corners(center Vector2) [4]Vector2 {
	h := r.half()
	return [4]Vector2{
		center.Add(Vector2{X: -h.X, Y: -h.Y}.Rotate(r.Rotation)),
		center.Add(Vector2{X: h.X, Y: -h.Y}.Rotate(r.Rotation)),
		center.Add(Vector2{X: h.X, Y: h.Y}.Rotate(r.Rotation)),
		center.Add(Vector2{X: -h.X, Y: h.Y}.Rotate(r.Rotation)),
	}
}

// toLocal maps a world point into the frame of a rectangle centered at center.
func (r Rectangle) toLocal(center, point Vector2) Vector2 {
	return point.Sub(center).Rotate(-r.Rotation)
}

func (r Rectangle) dirToLocal(dir Vector2) Vector2 { return dir.Rotate(-r.Rotation) }

func (r Rectangle) dirToWorld(dir Vector2) Vector2 { return dir.Rotate(r.Rotation) }
