package physics

import "math"

// RaycastHit describes the closest entity struck by a ray.
type RaycastHit struct {
	Entity   *Entity
	Point    Vector2
	Normal   Vector2
	Distance float64
}

// CircleCastHit describes the closest entity struck by a swept circle.
type CircleCastHit struct {
	Entity *Entity
	// Point is where the swept circle first touches the entity.
	Point  Vector2
	Normal Vector2
	// Distance travelled by the circle center before contact.
	Distance float64
	// CirclePositionAtHit is the circle center at the moment of contact.
	CirclePositionAtHit Vector2
}

// IgnoreFunc excludes entities from a query before any narrow test runs.
type IgnoreFunc func(e *Entity) bool

// PhysicsCaster answers ray and circle sweep queries against the live entity
// list of a space. It keeps no state of its own.
type PhysicsCaster struct {
	space *SimulationSpace
}

func NewPhysicsCaster(space *SimulationSpace) *PhysicsCaster {
	return &PhysicsCaster{space: space}
}

// Raycast returns the closest hit along direction strictly closer than
// maxDistance. Distances are measured in world units; direction need not be
// normalized but must not be zero. A ray starting inside a shape reports the
// point where it leaves the shape.
func (c *PhysicsCaster) Raycast(origin, direction Vector2, maxDistance float64, ignore IgnoreFunc) (RaycastHit, bool) {
	dir := direction.Normalize()
	if dir.IsZero() || !(maxDistance > 0) {
		return RaycastHit{}, false
	}

	best := RaycastHit{Distance: maxDistance}
	found := false
	for _, e := range c.space.entities {
		if ignore != nil && ignore(e) {
			continue
		}
		hit, ok := raycastEntity(origin, dir, e)
		if ok && hit.Distance < best.Distance {
			best, found = hit, true
		}
	}
	return best, found
}

// CircleCast sweeps a circle of radius from origin along direction and
// returns the closest entity it touches strictly closer than maxDistance.
func (c *PhysicsCaster) CircleCast(origin Vector2, radius float64, direction Vector2, maxDistance float64, ignore IgnoreFunc) (CircleCastHit, bool) {
	dir := direction.Normalize()
	if dir.IsZero() || !(maxDistance > 0) || radius < 0 {
		return CircleCastHit{}, false
	}

	best := CircleCastHit{Distance: maxDistance}
	found := false
	for _, e := range c.space.entities {
		if ignore != nil && ignore(e) {
			continue
		}
		hit, ok := circleCastEntity(origin, radius, dir, maxDistance, e)
		if ok && hit.Distance < best.Distance {
			best, found = hit, true
		}
	}
	return best, found
}

func raycastEntity(origin, dir Vector2, e *Entity) (RaycastHit, bool) {
	switch s := e.Shape.(type) {
	case Circle:
		t, ok := rayCircle(origin, dir, e.Position, s.Radius)
		if !ok {
			return RaycastHit{}, false
		}
		point := origin.Add(dir.Scale(t))
		return RaycastHit{
			Entity:   e,
			Point:    point,
			Normal:   normalOrFallback(point.Sub(e.Position)),
			Distance: t,
		}, true
	case Rectangle:
		localOrigin := s.toLocal(e.Position, origin)
		localDir := s.dirToLocal(dir)
		slab, ok := raySlab(localOrigin, localDir, s.half())
		if !ok || slab.tFar < 0 {
			return RaycastHit{}, false
		}
		t, normal := slab.tNear, slab.nNear
		if t < 0 {
			t, normal = slab.tFar, slab.nFar
		}
		return RaycastHit{
			Entity:   e,
			Point:    origin.Add(dir.Scale(t)),
			Normal:   s.dirToWorld(normal),
			Distance: t,
		}, true
	}
	return RaycastHit{}, false
}

func circleCastEntity(origin Vector2, radius float64, dir Vector2, maxDistance float64, e *Entity) (CircleCastHit, bool) {
	switch s := e.Shape.(type) {
	case Circle:
		// Minkowski sum: the swept circle is a ray against the enlarged circle
		grown := s.Radius + radius
		t := 0.0
		if origin.Sub(e.Position).LengthSquared() > grown*grown {
			var ok bool
			if t, ok = rayCircle(origin, dir, e.Position, grown); !ok {
				return CircleCastHit{}, false
			}
		}
		center := origin.Add(dir.Scale(t))
		normal := center.Sub(e.Position).Normalize()
		if normal.IsZero() {
			normal = normalOrFallback(dir.Neg())
		}
		return CircleCastHit{
			Entity:              e,
			Point:               center.Sub(normal.Scale(radius)),
			Normal:              normal,
			Distance:            t,
			CirclePositionAtHit: center,
		}, true
	case Rectangle:
		localOrigin := s.toLocal(e.Position, origin)
		localDir := s.dirToLocal(dir)
		t, normal, ok := sweepCircleBox(localOrigin, localDir, s.half(), radius, math.Nextafter(maxDistance, 0))
		if !ok {
			return CircleCastHit{}, false
		}
		center := origin.Add(dir.Scale(t))
		worldNormal := s.dirToWorld(normal)
		return CircleCastHit{
			Entity:              e,
			Point:               center.Sub(worldNormal.Scale(radius)),
			Normal:              worldNormal,
			Distance:            t,
			CirclePositionAtHit: center,
		}, true
	}
	return CircleCastHit{}, false
}

// Raycast is a shortcut for Caster().Raycast.
func (s *SimulationSpace) Raycast(origin, direction Vector2, maxDistance float64, ignore IgnoreFunc) (RaycastHit, bool) {
	return s.Caster().Raycast(origin, direction, maxDistance, ignore)
}

// CircleCast is a shortcut for Caster().CircleCast.
func (s *SimulationSpace) CircleCast(origin Vector2, radius float64, direction Vector2, maxDistance float64, ignore IgnoreFunc) (CircleCastHit, bool) {
	return s.Caster().CircleCast(origin, radius, direction, maxDistance, ignore)
}
