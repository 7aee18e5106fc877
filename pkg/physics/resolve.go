package physics

import "math"

// Positional correction tuning. Rectangles settle with a stiffer correction
// than circles because flat faces rest against each other.
const (
	correctionSlop             = 0.01
	circleCorrectionPercent    = 0.2
	rectangleCorrectionPercent = 0.8
)

// resolvable reports whether a pair receives any physical response.
func resolvable(a, b *Entity) bool {
	if a.Trigger || b.Trigger {
		return false
	}
	return !(a.Frozen && b.Frozen)
}

func correctionPercent(a, b *Entity) float64 {
	if a.kind() == ShapeCircle && b.kind() == ShapeCircle {
		return circleCorrectionPercent
	}
	return rectangleCorrectionPercent
}

// ResolveCollision applies the impulse response for a contact reported by
// Intersect. Both bodies start from where the sub-step began: they are advanced
// to the time of impact, the impulse is applied along the normal, overlap is
// partially corrected, and the rest of the sub-step is travelled with the new
// velocities. Frozen bodies end where they started with zero velocity.
func ResolveCollision(a, b *Entity, data CollisionData, dt float64) {
	resolveCollision(a, b, data, dt, dt)
}

// resolveCollision is ResolveCollision with separate travel fractions, so a
// body that already finished its sub-step can pass 0. It reports whether the
// pair was carried to the end of the sub-step; otherwise both bodies are left
// where they were.
func resolveCollision(a, b *Entity, data CollisionData, dtA, dtB float64) bool {
	if !resolvable(a, b) {
		return false
	}
	invA, invB := a.effectiveInverseMass(), b.effectiveInverseMass()
	totalInv := invA + invB
	if totalInv == 0 {
		return false
	}

	startA, startB := a.Position, b.Position
	t := clamp01(data.Time)
	n := data.Normal

	a.Position = a.Position.Add(a.Velocity.Scale(t * dtA))
	b.Position = b.Position.Add(b.Velocity.Scale(t * dtB))

	velAlongNormal := a.Velocity.Sub(b.Velocity).Dot(n)
	if velAlongNormal > 0 {
		a.Position, b.Position = startA, startB
		return false
	}

	e := math.Min(a.Bounciness, b.Bounciness)
	j := -(1 + e) * velAlongNormal / totalInv
	impulse := n.Scale(j)
	a.Velocity = a.Velocity.Add(impulse.Scale(invA))
	b.Velocity = b.Velocity.Sub(impulse.Scale(invB))

	if data.PenetrationDepth > 0 {
		magnitude := math.Max(data.PenetrationDepth-correctionSlop, 0) / totalInv * correctionPercent(a, b)
		correction := n.Scale(magnitude)
		a.Position = a.Position.Add(correction.Scale(invA))
		b.Position = b.Position.Sub(correction.Scale(invB))
	}

	a.Position = a.Position.Add(a.Velocity.Scale((1 - t) * dtA))
	b.Position = b.Position.Add(b.Velocity.Scale((1 - t) * dtB))

	if a.Frozen {
		a.Position, a.Velocity = startA, Zero
	}
	if b.Frozen {
		b.Position, b.Velocity = startB, Zero
	}
	return true
}

// ForceResolveCollision pushes a and b out of any overlap left at their current
// positions along the minimum translation vector, split by inverse mass.
// Velocities are not touched.
func ForceResolveCollision(a, b *Entity) {
	if !resolvable(a, b) {
		return
	}
	invA, invB := a.effectiveInverseMass(), b.effectiveInverseMass()
	totalInv := invA + invB
	if totalInv == 0 {
		return
	}

	data, ok := Overlap(a, b)
	if !ok || data.PenetrationDepth <= 0 {
		return
	}
	separation := data.Normal.Scale(data.PenetrationDepth / totalInv)
	a.Position = a.Position.Add(separation.Scale(invA))
	b.Position = b.Position.Sub(separation.Scale(invB))
}

// ResolveBorderCollision keeps e inside the box [lo, hi]. Each side is handled
// on its own: the position is clamped and the velocity component reflected
// inward, scaled by the entity's bounciness.
func ResolveBorderCollision(e *Entity, lo, hi Vector2) {
	ext := e.Shape.halfExtents()
	px, vx := resolveBorderAxis(e.Position.X, e.Velocity.X, ext.X, lo.X, hi.X, e.Bounciness)
	py, vy := resolveBorderAxis(e.Position.Y, e.Velocity.Y, ext.Y, lo.Y, hi.Y, e.Bounciness)
	e.Position = Vector2{X: px, Y: py}
	e.Velocity = Vector2{X: vx, Y: vy}
}

func resolveBorderAxis(p, v, ext, lo, hi, bounciness float64) (float64, float64) {
	if 2*ext >= hi-lo {
		// wider than the world: pin to the middle
		return (lo + hi) / 2, 0
	}
	switch {
	case p-ext < lo:
		return lo + ext, math.Abs(v) * bounciness
	case p+ext > hi:
		return hi - ext, -math.Abs(v) * bounciness
	}
	return p, v
}
