package impulse2d

import (
	"fmt"
	"math"

	"github.com/gekko3d/impulse2d/collision"
)

// ContactHandle indexes a contact in the contact manager's arena. Handles are
// reused after a contact is destroyed.
type ContactHandle int32

// MixFriction combines two fixture frictions; a zero friction on either side
// means no friction.
func MixFriction(friction1, friction2 float64) float64 {
	return math.Sqrt(friction1 * friction2)
}

// MixRestitution combines two fixture restitutions; the bouncier one wins.
func MixRestitution(restitution1, restitution2 float64) float64 {
	return math.Max(restitution1, restitution2)
}

// Contact is the persistent state of a fixture pair whose fat bounds
// overlap. It exists while the broad-phase pair exists, whether or not the
// shapes touch.
type Contact struct {
	flags  ContactFlags
	handle ContactHandle

	fixtureA, fixtureB *Fixture
	indexA, indexB     int

	manifold collision.Manifold
	evaluate evaluateFunc

	toiCount int
	toi      float64

	friction     float64
	restitution  float64
	tangentSpeed float64
}

// Init resets c for a new fixture pair. fixtureA must hold the primary shape
// type of the pair.
func (c *Contact) Init(fixtureA *Fixture, indexA int, fixtureB *Fixture, indexB int) {
	reg, ok := lookupContact(fixtureA.Type(), fixtureB.Type())
	if !ok || !reg.primary {
		panic(fmt.Sprintf("impulse2d: no primary contact for %s vs %s", fixtureA.Type(), fixtureB.Type()))
	}

	c.flags = FlagEnabled
	c.fixtureA = fixtureA
	c.fixtureB = fixtureB
	c.indexA = indexA
	c.indexB = indexB
	c.evaluate = reg.evaluate

	c.manifold.PointCount = 0
	c.toiCount = 0
	c.toi = 0

	c.friction = MixFriction(fixtureA.friction, fixtureB.friction)
	c.restitution = MixRestitution(fixtureA.restitution, fixtureB.restitution)
	c.tangentSpeed = 0
}

func (c *Contact) reset() {
	*c = Contact{handle: c.handle}
}

// Update refreshes the manifold at the bodies' current transforms and fires
// listener events. listener may be nil.
func (c *Contact) Update(listener ContactListener) {
	oldManifold := c.manifold

	// PreSolve may disable the contact again.
	c.flags.Set(FlagEnabled)

	wasTouching := c.flags.Has(FlagTouching)
	sensor := c.fixtureA.isSensor || c.fixtureB.isSensor

	bodyA := c.fixtureA.body
	bodyB := c.fixtureB.body
	xfA := bodyA.xf
	xfB := bodyB.xf

	var touching bool
	if sensor {
		touching = collision.TestOverlap(c.fixtureA.shape, c.indexA, c.fixtureB.shape, c.indexB, xfA, xfB)
		c.manifold.PointCount = 0
	} else {
		c.evaluate(&c.manifold, c.fixtureA.shape, xfA, c.fixtureB.shape, xfB)
		touching = c.manifold.PointCount > 0

		// Carry impulses over to points with a matching feature id.
		for i := 0; i < c.manifold.PointCount; i++ {
			mp2 := &c.manifold.Points[i]
			mp2.NormalImpulse = 0
			mp2.TangentImpulse = 0
			key := mp2.ID.Key()

			for j := 0; j < oldManifold.PointCount; j++ {
				mp1 := &oldManifold.Points[j]
				if mp1.ID.Key() == key {
					mp2.NormalImpulse = mp1.NormalImpulse
					mp2.TangentImpulse = mp1.TangentImpulse
					break
				}
			}
		}

		if touching != wasTouching {
			bodyA.SetAwake(true)
			bodyB.SetAwake(true)
		}
	}

	c.flags.Assign(FlagTouching, touching)

	if listener == nil {
		return
	}
	if !wasTouching && touching {
		listener.BeginContact(c)
	}
	if wasTouching && !touching {
		listener.EndContact(c)
	}
	if !sensor && touching {
		listener.PreSolve(c, &oldManifold)
	}
}

// Manifold returns the contact manifold. It is owned by the contact and
// overwritten on every update.
func (c *Contact) Manifold() *collision.Manifold { return &c.manifold }

// WorldManifold evaluates the manifold at the bodies' current transforms.
func (c *Contact) WorldManifold(out *collision.WorldManifold) {
	bodyA := c.fixtureA.body
	bodyB := c.fixtureB.body
	out.Initialize(&c.manifold, bodyA.xf, c.fixtureA.shape.Radius(), bodyB.xf, c.fixtureB.shape.Radius())
}

func (c *Contact) Handle() ContactHandle { return c.handle }
func (c *Contact) Flags() ContactFlags   { return c.flags }
func (c *Contact) FixtureA() *Fixture    { return c.fixtureA }
func (c *Contact) FixtureB() *Fixture    { return c.fixtureB }
func (c *Contact) ChildIndexA() int      { return c.indexA }
func (c *Contact) ChildIndexB() int      { return c.indexB }

// IsTouching reports whether the shapes touched at the last update. Sensor
// contacts can touch without manifold points.
func (c *Contact) IsTouching() bool { return c.flags.Has(FlagTouching) }

func (c *Contact) IsEnabled() bool { return c.flags.Has(FlagEnabled) }

// SetEnabled only lasts for the current step; Update re-enables the contact.
func (c *Contact) SetEnabled(flag bool) { c.flags.Assign(FlagEnabled, flag) }

// FlagForFiltering makes the next Collide re-run the contact filter for this
// pair.
func (c *Contact) FlagForFiltering() { c.flags.Set(FlagFilter) }

func (c *Contact) Friction() float64 { return c.friction }

// SetFriction overrides the mixed friction until the contact is destroyed or
// ResetFriction is called.
func (c *Contact) SetFriction(friction float64) { c.friction = friction }

func (c *Contact) ResetFriction() {
	c.friction = MixFriction(c.fixtureA.friction, c.fixtureB.friction)
}

func (c *Contact) Restitution() float64 { return c.restitution }

func (c *Contact) SetRestitution(restitution float64) { c.restitution = restitution }

func (c *Contact) ResetRestitution() {
	c.restitution = MixRestitution(c.fixtureA.restitution, c.fixtureB.restitution)
}

func (c *Contact) TangentSpeed() float64 { return c.tangentSpeed }

// SetTangentSpeed sets the surface speed of fixture B relative to A along
// the tangent, in meters per second.
func (c *Contact) SetTangentSpeed(speed float64) { c.tangentSpeed = speed }

func (c *Contact) String() string {
	return fmt.Sprintf("contact#%d(%s/%s points=%d %s)",
		c.handle, c.fixtureA.Type(), c.fixtureB.Type(), c.manifold.PointCount, c.flags)
}
