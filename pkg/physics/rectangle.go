package physics

import "math"

type interval struct{ min, max float64 }

func project(corners [4]Vector2, axis Vector2) interval {
	p := corners[0].Dot(axis)
	iv := interval{min: p, max: p}
	for _, c := range corners[1:] {
		p = c.Dot(axis)
		iv.min = math.Min(iv.min, p)
		iv.max = math.Max(iv.max, p)
	}
	return iv
}

// separatingAxes returns the edge normals of both rectangles.
func separatingAxes(ra, rb Rectangle) [4]Vector2 {
	a, b := ra.axes(), rb.axes()
	return [4]Vector2{a[0], a[1], b[0], b[1]}
}

// overlapRectangleRectangle is the separating axis test. The axis with the
// smallest overlap becomes the contact normal.
func overlapRectangleRectangle(pa Vector2, ra Rectangle, pb Vector2, rb Rectangle) (CollisionData, bool) {
	ca, cb := ra.corners(pa), rb.corners(pb)

	depth := math.Inf(1)
	var normal Vector2
	for _, axis := range separatingAxes(ra, rb) {
		ia, ib := project(ca, axis), project(cb, axis)
		overlap := math.Min(ia.max-ib.min, ib.max-ia.min)
		if overlap <= 0 {
			return CollisionData{}, false
		}
		if overlap < depth {
			depth, normal = overlap, axis
		}
	}

	if pa.Sub(pb).Dot(normal) < 0 {
		normal = normal.Neg()
	}
	return CollisionData{Normal: normal, PenetrationDepth: depth}, true
}

// intersectRectangleRectangle falls back to a swept separating axis test: on
// each axis the projected intervals must be overlapping at the same time, so
// the contact starts at the latest entry and must begin before the earliest exit.
func intersectRectangleRectangle(a *Entity, ra Rectangle, b *Entity, rb Rectangle, motion Vector2) (CollisionData, bool) {
	if data, ok := overlapRectangleRectangle(a.Position, ra, b.Position, rb); ok {
		return data, true
	}

	if nearlyZero(motion.LengthSquared()) {
		return CollisionData{}, false
	}

	ca, cb := ra.corners(a.Position), rb.corners(b.Position)
	tEntry, tExit := math.Inf(-1), math.Inf(1)
	var normal Vector2

	for _, axis := range separatingAxes(ra, rb) {
		ia, ib := project(ca, axis), project(cb, axis)
		v := motion.Dot(axis)

		if nearlyZero(v) {
			if ia.max <= ib.min || ib.max <= ia.min {
				return CollisionData{}, false
			}
			continue
		}

		var entry, exit float64
		if v > 0 {
			entry = (ib.min - ia.max) / v
			exit = (ib.max - ia.min) / v
		} else {
			entry = (ib.max - ia.min) / v
			exit = (ib.min - ia.max) / v
		}

		if entry > tEntry {
			tEntry = entry
			// A approaches B along +axis·sign(v); the normal opposes that motion
			normal = axis.Scale(-math.Copysign(1, v))
		}
		tExit = math.Min(tExit, exit)
	}

	if tEntry > tExit || tEntry < 0 || tEntry >= 1 {
		return CollisionData{}, false
	}
	return CollisionData{Normal: normal, Time: clamp01(tEntry)}, true
}
