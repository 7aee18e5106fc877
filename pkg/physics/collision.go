package physics

// CollisionData describes a contact between a pair (A, B).
type CollisionData struct {
	// Normal is a unit vector pointing from B toward A.
	Normal Vector2
	// Time is the fraction of the sub-step at which contact begins; 0 means
	// the bodies already overlap.
	Time float64
	// PenetrationDepth is the overlap along Normal. Only set when Time is 0.
	PenetrationDepth float64
}

// Swept reports whether the contact was found by the continuous test.
func (d CollisionData) Swept() bool { return d.Time > 0 }

func (d CollisionData) flipped() CollisionData {
	d.Normal = d.Normal.Neg()
	return d
}

// Intersect tests a against b over one sub-step, where dt is the fraction of
// each velocity travelled during that sub-step. Overlapping pairs report a
// static contact; otherwise the swept test looks for the first time of impact.
func Intersect(a, b *Entity, dt float64) (CollisionData, bool) {
	return intersect(a, b, a.Velocity.Sub(b.Velocity).Scale(dt))
}

// intersect is Intersect for a known relative displacement of a with respect
// to b over the sub-step.
func intersect(a, b *Entity, motion Vector2) (CollisionData, bool) {
	switch sa := a.Shape.(type) {
	case Circle:
		switch sb := b.Shape.(type) {
		case Circle:
			return intersectCircleCircle(a, sa, b, sb, motion)
		case Rectangle:
			return intersectCircleRectangle(a, sa, b, sb, motion)
		}
	case Rectangle:
		switch sb := b.Shape.(type) {
		case Circle:
			data, ok := intersectCircleRectangle(b, sb, a, sa, motion.Neg())
			return data.flipped(), ok
		case Rectangle:
			return intersectRectangleRectangle(a, sa, b, sb, motion)
		}
	}
	return CollisionData{}, false
}

// Overlap is the static half of Intersect: it reports only contacts that exist
// at the current positions, with the minimum translation needed to separate them.
func Overlap(a, b *Entity) (CollisionData, bool) {
	switch sa := a.Shape.(type) {
	case Circle:
		switch sb := b.Shape.(type) {
		case Circle:
			return overlapCircleCircle(a.Position, sa, b.Position, sb)
		case Rectangle:
			return overlapCircleRectangle(a.Position, sa, b.Position, sb)
		}
	case Rectangle:
		switch sb := b.Shape.(type) {
		case Circle:
			data, ok := overlapCircleRectangle(b.Position, sb, a.Position, sa)
			return data.flipped(), ok
		case Rectangle:
			return overlapRectangleRectangle(a.Position, sa, b.Position, sb)
		}
	}
	return CollisionData{}, false
}

// fallbackNormal is used when two centers coincide and no separating direction
// exists. The choice of +X is arbitrary but fixed, which keeps runs deterministic.
var fallbackNormal = UnitX

func normalOrFallback(v Vector2) Vector2 {
	n := v.Normalize()
	if n.IsZero() {
		return fallbackNormal
	}
	return n
}

func intersectCircleCircle(a *Entity, ca Circle, b *Entity, cb Circle, motion Vector2) (CollisionData, bool) {
	if data, ok := overlapCircleCircle(a.Position, ca, b.Position, cb); ok {
		return data, true
	}

	deltaPos := a.Position.Sub(b.Position)
	deltaVel := motion
	qa := deltaVel.LengthSquared()
	if nearlyZero(qa) {
		return CollisionData{}, false
	}
	radiusSum := ca.Radius + cb.Radius
	qb := 2 * deltaPos.Dot(deltaVel)
	qc := deltaPos.LengthSquared() - radiusSum*radiusSum

	t, ok := smallestRootInRange(qa, qb, qc, 0, 1)
	if !ok {
		return CollisionData{}, false
	}
	contact := deltaPos.Add(deltaVel.Scale(t))
	return CollisionData{
		Normal: normalOrFallback(contact),
		Time:   t,
	}, true
}

func overlapCircleCircle(pa Vector2, ca Circle, pb Vector2, cb Circle) (CollisionData, bool) {
	delta := pa.Sub(pb)
	radiusSum := ca.Radius + cb.Radius
	distSq := delta.LengthSquared()
	if distSq > radiusSum*radiusSum {
		return CollisionData{}, false
	}
	dist := delta.Length()
	return CollisionData{
		Normal:           normalOrFallback(delta),
		PenetrationDepth: radiusSum - dist,
	}, true
}

func intersectCircleRectangle(a *Entity, c Circle, b *Entity, r Rectangle, motion Vector2) (CollisionData, bool) {
	if data, ok := overlapCircleRectangle(a.Position, c, b.Position, r); ok {
		return data, true
	}

	if nearlyZero(motion.LengthSquared()) {
		return CollisionData{}, false
	}
	origin := r.toLocal(b.Position, a.Position)
	dir := r.dirToLocal(motion)

	t, normal, ok := sweepCircleBox(origin, dir, r.half(), c.Radius, 1)
	if !ok || t >= 1 {
		return CollisionData{}, false
	}
	return CollisionData{
		Normal: r.dirToWorld(normal),
		Time:   clamp01(t),
	}, true
}

func overlapCircleRectangle(pc Vector2, c Circle, pr Vector2, r Rectangle) (CollisionData, bool) {
	local := r.toLocal(pr, pc)
	h := r.half()
	closest := Vector2{
		X: clamp(local.X, -h.X, h.X),
		Y: clamp(local.Y, -h.Y, h.Y),
	}
	delta := local.Sub(closest)
	if delta.LengthSquared() > c.Radius*c.Radius {
		return CollisionData{}, false
	}

	if delta.IsZero() {
		// center inside the box: push out through the nearest face
		normal, depth := nearestFace(local, h)
		return CollisionData{
			Normal:           r.dirToWorld(normal),
			PenetrationDepth: depth + c.Radius,
		}, true
	}

	dist := delta.Length()
	return CollisionData{
		Normal:           r.dirToWorld(delta.Scale(1 / dist)),
		PenetrationDepth: c.Radius - dist,
	}, true
}

// nearestFace returns the outward normal of the box face closest to a point
// inside the box and the distance to it.
func nearestFace(p, half Vector2) (Vector2, float64) {
	dx := half.X - abs(p.X)
	dy := half.Y - abs(p.Y)
	if dx <= dy {
		if p.X < 0 {
			return Vector2{X: -1}, dx
		}
		return UnitX, dx
	}
	if p.Y < 0 {
		return Vector2{Y: -1}, dy
	}
	return UnitY, dy
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
