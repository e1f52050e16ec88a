package impulse2d

type fixturePair struct {
	a, b int
}

func makeFixturePair(fixtureA, fixtureB *Fixture) fixturePair {
	if fixtureA.id < fixtureB.id {
		return fixturePair{fixtureA.id, fixtureB.id}
	}
	return fixturePair{fixtureB.id, fixtureA.id}
}

// ContactManager owns every contact of a world. Contacts live in an arena
// addressed by ContactHandle; destroyed slots go on a free list and their
// Contact values are reused. The active list keeps creation order so that
// iteration is deterministic.
type ContactManager struct {
	arena  []*Contact
	free   []ContactHandle
	active []ContactHandle
	pairs  map[fixturePair]ContactHandle

	// Collide iterates a copy of active since contacts destroy themselves.
	scratch []ContactHandle

	broadPhase *BroadPhase
	filter     ContactFilter
	listener   ContactListener
	logger     Logger
}

func NewContactManager(broadPhase *BroadPhase, filter ContactFilter, listener ContactListener, logger Logger) *ContactManager {
	if filter == nil {
		filter = DefaultContactFilter{}
	}
	if listener == nil {
		listener = NopContactListener{}
	}
	return &ContactManager{
		pairs:      make(map[fixturePair]ContactHandle),
		broadPhase: broadPhase,
		filter:     filter,
		listener:   listener,
		logger:     orNop(logger),
	}
}

// Contact returns the live contact for h.
func (cm *ContactManager) Contact(h ContactHandle) *Contact {
	return cm.arena[h]
}

func (cm *ContactManager) Count() int { return len(cm.active) }

// Active returns the handles of live contacts in creation order. The slice
// is owned by the manager.
func (cm *ContactManager) Active() []ContactHandle { return cm.active }

// AddPair creates a contact for two fixtures unless one already exists or
// the pair is filtered out.
func (cm *ContactManager) AddPair(fixtureA, fixtureB *Fixture) {
	bodyA := fixtureA.body
	bodyB := fixtureB.body
	if bodyA == bodyB {
		return
	}

	key := makeFixturePair(fixtureA, fixtureB)
	if _, ok := cm.pairs[key]; ok {
		return
	}

	if !bodyB.shouldCollide(bodyA) {
		return
	}
	if !cm.filter.ShouldCollide(fixtureA, fixtureB) {
		return
	}

	reg, ok := lookupContact(fixtureA.Type(), fixtureB.Type())
	if !ok {
		return
	}
	if !reg.primary {
		fixtureA, fixtureB = fixtureB, fixtureA
		bodyA, bodyB = bodyB, bodyA
	}

	h := cm.alloc()
	c := cm.arena[h]
	c.Init(fixtureA, 0, fixtureB, 0)

	cm.active = append(cm.active, h)
	cm.pairs[key] = h

	bodyA.contactEdges = append(bodyA.contactEdges, ContactEdge{Other: bodyB, Contact: h})
	bodyB.contactEdges = append(bodyB.contactEdges, ContactEdge{Other: bodyA, Contact: h})

	if cm.logger.DebugEnabled() {
		cm.logger.Debugf("created %s", c)
	}
}

func (cm *ContactManager) alloc() ContactHandle {
	if n := len(cm.free); n > 0 {
		h := cm.free[n-1]
		cm.free = cm.free[:n-1]
		return h
	}
	h := ContactHandle(len(cm.arena))
	cm.arena = append(cm.arena, &Contact{handle: h})
	return h
}

// Destroy ends a contact. Touching contacts get EndContact first.
func (cm *ContactManager) Destroy(h ContactHandle) {
	c := cm.arena[h]
	if c.fixtureA == nil {
		panic("impulse2d: contact destroyed twice")
	}

	if c.IsTouching() {
		cm.listener.EndContact(c)
	}

	if cm.logger.DebugEnabled() {
		cm.logger.Debugf("destroyed %s", c)
	}

	c.fixtureA.body.removeEdge(h)
	c.fixtureB.body.removeEdge(h)
	delete(cm.pairs, makeFixturePair(c.fixtureA, c.fixtureB))

	for i, other := range cm.active {
		if other == h {
			cm.active = append(cm.active[:i], cm.active[i+1:]...)
			break
		}
	}

	c.reset()
	cm.free = append(cm.free, h)
}

// Collide updates every contact: filtered pairs and pairs whose fat bounds
// separated are destroyed, the rest get a new manifold.
func (cm *ContactManager) Collide() {
	cm.scratch = append(cm.scratch[:0], cm.active...)
	for _, h := range cm.scratch {
		c := cm.arena[h]
		fixtureA := c.fixtureA
		fixtureB := c.fixtureB
		bodyA := fixtureA.body
		bodyB := fixtureB.body

		if c.flags.Has(FlagFilter) {
			if !bodyB.shouldCollide(bodyA) || !cm.filter.ShouldCollide(fixtureA, fixtureB) {
				cm.Destroy(h)
				continue
			}
			c.flags.Clear(FlagFilter)
		}

		activeA := bodyA.awake && bodyA.typ != StaticBody
		activeB := bodyB.awake && bodyB.typ != StaticBody
		if !activeA && !activeB {
			continue
		}

		if !fixtureA.fatAABB.Overlaps(fixtureB.fatAABB) {
			cm.Destroy(h)
			continue
		}

		c.Update(cm.listener)
	}
}

// FindNewContacts rebuilds the broad-phase from the fixtures of bodies and
// adds a contact for every new overlapping pair.
func (cm *ContactManager) FindNewContacts(bodies []*Body) {
	cm.broadPhase.Clear()
	for _, b := range bodies {
		for _, f := range b.fixtures {
			f.proxyID = cm.broadPhase.Insert(f, f.fatAABB)
		}
	}
	cm.broadPhase.UpdatePairs(cm.AddPair)
}
