// Package impulse2d is a 2D rigid-body dynamics module built around a
// sequential-impulse contact solver. A World owns bodies, their fixtures and
// the contacts between them; World.Step collides, groups awake bodies into
// islands and solves each island.
//
// The world is not safe for concurrent use.
package impulse2d

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// ErrWorldLocked is returned by mutating calls made from inside a step, for
// example from a contact listener.
var ErrWorldLocked = errors.New("impulse2d: world is locked during step")

type World struct {
	settings Settings
	logger   Logger
	gravity  mgl64.Vec2

	bodies   []*Body
	bodyByID map[uuid.UUID]*Body

	contactManager *ContactManager
	island         *Island
	listener       ContactListener
	stack          []*Body

	allowSleep      bool
	warmStarting    bool
	autoClearForces bool

	locked        bool
	newFixture    bool
	nextFixtureID int

	// inverse of the previous step's dt
	invDt0 float64
}

// NewWorld returns a world with default settings.
func NewWorld(gravity mgl64.Vec2) *World {
	w, err := NewWorldBuilder().WithGravity(gravity).Build()
	if err != nil {
		panic(err)
	}
	return w
}

func (w *World) Settings() Settings      { return w.settings }
func (w *World) Logger() Logger          { return w.logger }
func (w *World) Gravity() mgl64.Vec2     { return w.gravity }
func (w *World) SetGravity(g mgl64.Vec2) { w.gravity = g }
func (w *World) IsLocked() bool          { return w.locked }
func (w *World) BodyCount() int          { return len(w.bodies) }

// Bodies lists bodies in creation order. The slice is owned by the world.
func (w *World) Bodies() []*Body { return w.bodies }

func (w *World) BodyByID(id uuid.UUID) (*Body, bool) {
	b, ok := w.bodyByID[id]
	return b, ok
}

func (w *World) ContactManager() *ContactManager { return w.contactManager }

func (w *World) ContactCount() int { return w.contactManager.Count() }

// Contacts returns the live contacts in creation order.
func (w *World) Contacts() []*Contact {
	active := w.contactManager.Active()
	out := make([]*Contact, len(active))
	for i, h := range active {
		out[i] = w.contactManager.Contact(h)
	}
	return out
}

func (w *World) Contact(h ContactHandle) *Contact { return w.contactManager.Contact(h) }

func (w *World) SetAllowSleeping(flag bool) {
	if flag == w.allowSleep {
		return
	}
	w.allowSleep = flag
	if !flag {
		for _, b := range w.bodies {
			b.SetAwake(true)
		}
	}
}

func (w *World) SetWarmStarting(flag bool) { w.warmStarting = flag }

// SetAutoClearForces controls whether Step clears applied forces at its
// end. It is on by default.
func (w *World) SetAutoClearForces(flag bool) { w.autoClearForces = flag }

func (w *World) CreateBody(def BodyDef) (*Body, error) {
	if w.locked {
		return nil, ErrWorldLocked
	}
	b := newBody(def, w)
	w.bodies = append(w.bodies, b)
	w.bodyByID[b.id] = b
	return b, nil
}

// DestroyBody removes b and every contact it has.
func (w *World) DestroyBody(b *Body) error {
	if w.locked {
		return ErrWorldLocked
	}
	if b.world != w {
		return fmt.Errorf("impulse2d: body %s does not belong to this world", b.id)
	}

	for len(b.contactEdges) > 0 {
		w.contactManager.Destroy(b.contactEdges[0].Contact)
	}

	for i, other := range w.bodies {
		if other == b {
			w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
			break
		}
	}
	delete(w.bodyByID, b.id)

	for _, f := range b.fixtures {
		f.body = nil
	}
	b.fixtures = nil
	b.world = nil
	w.newFixture = true
	return nil
}

// Step advances the world by dt seconds. Iteration counts of zero or less
// use the world settings. A negative dt is logged and ignored.
func (w *World) Step(dt float64, velocityIterations, positionIterations int) {
	if dt < 0 || math.IsNaN(dt) {
		w.logger.Warnf("ignoring step with dt=%g", dt)
		return
	}
	if velocityIterations <= 0 {
		velocityIterations = w.settings.VelocityIterations
	}
	if positionIterations <= 0 {
		positionIterations = w.settings.PositionIterations
	}

	// New fixtures need their pairs before the first collide.
	if w.newFixture {
		w.contactManager.FindNewContacts(w.bodies)
		w.newFixture = false
	}

	w.locked = true
	defer func() { w.locked = false }()

	step := newTimeStep(dt, w.invDt0, velocityIterations, positionIterations, w.warmStarting)

	w.contactManager.Collide()

	if step.Dt > 0 {
		w.solve(step)
		w.invDt0 = step.InvDt
	}

	if w.autoClearForces {
		w.ClearForces()
	}
}

func (w *World) ClearForces() {
	for _, b := range w.bodies {
		b.force = mgl64.Vec2{}
		b.torque = 0
	}
}

func (w *World) solve(step TimeStep) {
	if w.island == nil || cap(w.island.bodies) < len(w.bodies) {
		w.island = NewIsland(len(w.bodies), w.settings, w.listener, w.logger)
	}
	island := w.island

	for _, b := range w.bodies {
		b.islandFlag = false
	}
	for _, h := range w.contactManager.Active() {
		w.contactManager.Contact(h).flags.Clear(FlagIsland)
	}

	islandCount := 0
	for _, seed := range w.bodies {
		if seed.islandFlag || !seed.awake || seed.typ == StaticBody {
			continue
		}

		island.Clear()
		w.stack = append(w.stack[:0], seed)
		seed.islandFlag = true

		// Depth first search over the contact graph.
		for len(w.stack) > 0 {
			b := w.stack[len(w.stack)-1]
			w.stack = w.stack[:len(w.stack)-1]
			island.AddBody(b)

			// Static bodies end the search; they may join other islands.
			if b.typ == StaticBody {
				continue
			}
			b.SetAwake(true)

			for _, edge := range b.contactEdges {
				c := w.contactManager.Contact(edge.Contact)
				if c.flags.Has(FlagIsland) {
					continue
				}
				if !c.IsEnabled() || !c.IsTouching() {
					continue
				}
				if c.fixtureA.isSensor || c.fixtureB.isSensor {
					continue
				}

				island.AddContact(c)
				c.flags.Set(FlagIsland)

				other := edge.Other
				if other.islandFlag {
					continue
				}
				w.stack = append(w.stack, other)
				other.islandFlag = true
			}
		}

		island.Solve(step, w.gravity, w.allowSleep)
		islandCount++

		for _, b := range island.bodies {
			if b.typ == StaticBody {
				b.islandFlag = false
			}
		}
	}

	if w.logger.DebugEnabled() {
		w.logger.Debugf("step dt=%g: %d islands, %d contacts", step.Dt, islandCount, w.contactManager.Count())
	}

	for _, b := range w.bodies {
		if !b.islandFlag || b.typ == StaticBody {
			continue
		}
		b.synchronizeFixtures()
	}

	w.contactManager.FindNewContacts(w.bodies)
}
