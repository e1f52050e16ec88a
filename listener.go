package impulse2d

import "github.com/gekko3d/impulse2d/collision"

// ContactImpulse reports the impulses the solver applied to one contact,
// indexed like the contact's manifold points.
type ContactImpulse struct {
	NormalImpulses  [collision.MaxManifoldPoints]float64
	TangentImpulses [collision.MaxManifoldPoints]float64
	Count           int
}

// ContactListener receives contact events during World.Step. Callbacks run
// while the world is locked; they must not create or destroy bodies or
// fixtures.
type ContactListener interface {
	// BeginContact is called when two fixtures start touching.
	BeginContact(contact *Contact)
	// EndContact is called when two fixtures stop touching, and when a
	// touching contact is destroyed.
	EndContact(contact *Contact)
	// PreSolve is called after the manifold update of a touching non-sensor
	// contact and before solving. oldManifold is the previous step's
	// manifold; clearing the contact's enabled flag skips it for this step.
	PreSolve(contact *Contact, oldManifold *collision.Manifold)
	// PostSolve reports the impulses of every solved contact.
	PostSolve(contact *Contact, impulse *ContactImpulse)
}

// NopContactListener ignores every event. Embed it to implement only some
// callbacks.
type NopContactListener struct{}

func (NopContactListener) BeginContact(*Contact)                  {}
func (NopContactListener) EndContact(*Contact)                    {}
func (NopContactListener) PreSolve(*Contact, *collision.Manifold) {}
func (NopContactListener) PostSolve(*Contact, *ContactImpulse)    {}

// ContactFilter decides whether two fixtures may create a contact.
type ContactFilter interface {
	ShouldCollide(fixtureA, fixtureB *Fixture) bool
}

// DefaultContactFilter applies Filter group and category/mask rules.
type DefaultContactFilter struct{}

func (DefaultContactFilter) ShouldCollide(fixtureA, fixtureB *Fixture) bool {
	filterA := fixtureA.Filter()
	filterB := fixtureB.Filter()

	if filterA.GroupIndex == filterB.GroupIndex && filterA.GroupIndex != 0 {
		return filterA.GroupIndex > 0
	}
	return filterA.MaskBits&filterB.CategoryBits != 0 && filterA.CategoryBits&filterB.MaskBits != 0
}
