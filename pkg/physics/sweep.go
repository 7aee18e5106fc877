package physics

import "math"

// slabHit is the parametric interval a ray spends inside an axis-aligned box,
// with the outward normals of the faces it crosses.
type slabHit struct {
	tNear, tFar float64
	nNear, nFar Vector2
}

// raySlab intersects origin + t·dir with the box [-half, half]. It does not
// restrict t; callers decide which part of the interval they care about.
func raySlab(origin, dir, half Vector2) (slabHit, bool) {
	hit := slabHit{tNear: math.Inf(-1), tFar: math.Inf(1)}

	o := [2]float64{origin.X, origin.Y}
	d := [2]float64{dir.X, dir.Y}
	e := [2]float64{half.X, half.Y}
	axis := [2]Vector2{UnitX, UnitY}

	for i := 0; i < 2; i++ {
		if nearlyZero(d[i]) {
			if o[i] < -e[i] || o[i] > e[i] {
				return hit, false
			}
			continue
		}
		t1 := (-e[i] - o[i]) / d[i]
		t2 := (e[i] - o[i]) / d[i]
		n1, n2 := axis[i].Neg(), axis[i]
		if t1 > t2 {
			t1, t2 = t2, t1
			n1, n2 = n2, n1
		}
		if t1 > hit.tNear {
			hit.tNear, hit.nNear = t1, n1
		}
		if t2 < hit.tFar {
			hit.tFar, hit.nFar = t2, n2
		}
		if hit.tNear > hit.tFar {
			return hit, false
		}
	}
	return hit, true
}

// sweepCircleBox moves a circle of the given radius from origin along dir and
// returns the first t in [0, tMax] at which it touches the box [-half, half],
// together with the box's outward contact normal. The slab test runs on the
// box grown by radius; when its entry point lands in a corner region the time
// is refined against the rounded corner, otherwise grazing passes past a
// corner would be reported as hits.
func sweepCircleBox(origin, dir, half Vector2, radius, tMax float64) (float64, Vector2, bool) {
	grown := Vector2{X: half.X + radius, Y: half.Y + radius}
	slab, ok := raySlab(origin, dir, grown)
	if !ok || slab.tFar < 0 || slab.tNear > tMax {
		return 0, Zero, false
	}

	t := math.Max(slab.tNear, 0)
	p := origin.Add(dir.Scale(t))
	closest := clampToBox(p, half)
	delta := p.Sub(closest)
	limit := radius + Epsilon
	if delta.LengthSquared() <= limit*limit {
		n := delta.Normalize()
		if n.IsZero() {
			n = slab.nNear
		}
		if n.IsZero() {
			n = normalOrFallback(dir.Neg())
		}
		return t, n, true
	}

	// corner region: the swept circle meets the rounded corner, if at all
	corner := closest
	rel := origin.Sub(corner)
	qa := dir.LengthSquared()
	if nearlyZero(qa) {
		return 0, Zero, false
	}
	tc, ok := smallestRootInRange(qa, 2*rel.Dot(dir), rel.LengthSquared()-radius*radius, t, math.Min(slab.tFar, tMax))
	if !ok {
		return 0, Zero, false
	}
	n := normalOrFallback(origin.Add(dir.Scale(tc)).Sub(corner))
	return tc, n, true
}

func clampToBox(p, half Vector2) Vector2 {
	return Vector2{
		X: clamp(p.X, -half.X, half.X),
		Y: clamp(p.Y, -half.Y, half.Y),
	}
}

// rayCircle returns the smallest non-negative t with |origin + t·dir - center| = radius.
func rayCircle(origin, dir, center Vector2, radius float64) (float64, bool) {
	qa := dir.LengthSquared()
	if nearlyZero(qa) {
		return 0, false
	}
	oc := origin.Sub(center)
	return smallestRootInRange(qa, 2*oc.Dot(dir), oc.LengthSquared()-radius*radius, 0, math.Inf(1))
}
