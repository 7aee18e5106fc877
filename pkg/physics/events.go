package physics

// EventKind identifies a collision lifecycle transition.
type EventKind uint8

const (
	// EventEnter fires on the first step two bodies overlap.
	EventEnter EventKind = iota
	// EventStep fires on every following step the overlap persists.
	EventStep
	// EventExit fires on the first step after the overlap ended.
	EventExit

	eventKindCount
)

func (k EventKind) String() string {
	switch k {
	case EventEnter:
		return "enter"
	case EventStep:
		return "step"
	case EventExit:
		return "exit"
	default:
		return "unknown"
	}
}

// CollisionEvent is one delivered transition, as seen from Self.
type CollisionEvent struct {
	Kind  EventKind
	Self  EntityID
	Other EntityID
	// Step is the value of SimulationSpace.StepCount when the event fired.
	Step uint64
}

// CollisionHandler receives the entity it was registered on and the other party.
type CollisionHandler func(self, other *Entity)

// Subscription is a handle to a registered CollisionHandler.
type Subscription struct {
	owner   *Entity
	kind    EventKind
	handler CollisionHandler
	active  bool
}

func (s *Subscription) Kind() EventKind { return s.kind }
func (s *Subscription) IsActive() bool  { return s != nil && s.active }

// Cancel unregisters the handler. Multiple calls are safe.
func (s *Subscription) Cancel() {
	if s == nil || !s.active {
		return
	}
	s.active = false
	list := s.owner.listeners[s.kind]
	for i, sub := range list {
		if sub == s {
			s.owner.listeners[s.kind] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// Subscribe registers handler for kind. Handlers run synchronously inside
// SimulateStep in registration order.
func (e *Entity) Subscribe(kind EventKind, handler CollisionHandler) *Subscription {
	if kind >= eventKindCount || handler == nil {
		return &Subscription{owner: e, kind: kind}
	}
	s := &Subscription{owner: e, kind: kind, handler: handler, active: true}
	e.listeners[kind] = append(e.listeners[kind], s)
	return s
}

func (e *Entity) OnCollisionEnter(handler CollisionHandler) *Subscription {
	return e.Subscribe(EventEnter, handler)
}

func (e *Entity) OnCollisionStep(handler CollisionHandler) *Subscription {
	return e.Subscribe(EventStep, handler)
}

func (e *Entity) OnCollisionExit(handler CollisionHandler) *Subscription {
	return e.Subscribe(EventExit, handler)
}

func (e *Entity) notify(kind EventKind, other *Entity) {
	list := e.listeners[kind]
	if len(list) == 0 {
		return
	}
	// handlers may cancel themselves or others while we iterate
	snapshot := append([]*Subscription(nil), list...)
	for _, sub := range snapshot {
		if sub.active {
			sub.handler(e, other)
		}
	}
}

// recordContact marks a and b as touching for the running step.
func recordContact(a, b *Entity) {
	a.current.add(b.id)
	b.current.add(a.id)
}

// advanceEvents folds the contacts collected during the previous step into the
// entered set and fires the resulting transitions.
func (s *SimulationSpace) advanceEvents(e *Entity) {
	if len(e.current) == 0 && len(e.entered) == 0 {
		return
	}
	current := append(idSet(nil), e.current...)
	e.current = e.current[:0]

	for _, id := range current {
		if _, ok := s.byID[id]; !ok {
			e.entered.remove(id)
			continue
		}
		kind := EventStep
		if e.entered.add(id) {
			kind = EventEnter
		}
		s.emit(e, id, kind)
	}

	for _, id := range append(idSet(nil), e.entered...) {
		if current.contains(id) {
			continue
		}
		e.entered.remove(id)
		s.emit(e, id, EventExit)
	}
}

func (s *SimulationSpace) emit(self *Entity, otherID EntityID, kind EventKind) {
	other, ok := s.byID[otherID]
	if !ok {
		return
	}
	s.events = append(s.events, CollisionEvent{Kind: kind, Self: self.id, Other: otherID, Step: s.stepCount})
	self.notify(kind, other)
}
