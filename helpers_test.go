package impulse2d

import (
	"testing"

	"github.com/gekko3d/impulse2d/collision"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/require"
)

var earthGravity = mgl64.Vec2{0, -10}

func newTestWorld(t *testing.T, gravity mgl64.Vec2, configure ...func(*WorldBuilder)) *World {
	t.Helper()
	b := NewWorldBuilder().WithGravity(gravity)
	for _, fn := range configure {
		fn(b)
	}
	w, err := b.Build()
	require.NoError(t, err)
	return w
}

// addGround creates a static slab whose top face lies on y = 0.
func addGround(t *testing.T, w *World) *Body {
	t.Helper()
	def := DefaultBodyDef()
	def.Position = mgl64.Vec2{0, -0.5}
	ground, err := w.CreateBody(def)
	require.NoError(t, err)

	fd := DefaultFixtureDef(collision.NewBox(20, 0.5))
	fd.Density = 0
	fd.Friction = 0.6
	_, err = ground.CreateFixture(fd)
	require.NoError(t, err)
	return ground
}

func addDynamic(t *testing.T, w *World, position mgl64.Vec2, shape collision.Shape) *Body {
	t.Helper()
	def := DefaultBodyDef()
	def.Type = DynamicBody
	def.Position = position
	body, err := w.CreateBody(def)
	require.NoError(t, err)

	fd := DefaultFixtureDef(shape)
	fd.Friction = 0.6
	_, err = body.CreateFixture(fd)
	require.NoError(t, err)
	return body
}

// collideOnce builds the contacts of w without solving.
func collideOnce(w *World) {
	w.contactManager.FindNewContacts(w.bodies)
	w.newFixture = false
	w.contactManager.Collide()
}

// solverState lays bodies out as an island would, body i at slot i.
func solverState(bodies ...*Body) ([]Position, []Velocity) {
	positions := make([]Position, len(bodies))
	velocities := make([]Velocity, len(bodies))
	for i, b := range bodies {
		b.islandIndex = i
		positions[i] = Position{C: b.sweep.C, A: b.sweep.A}
		velocities[i] = Velocity{V: b.linearVelocity, W: b.angularVelocity}
	}
	return positions, velocities
}

func touchingContacts(w *World) []*Contact {
	var out []*Contact
	for _, c := range w.Contacts() {
		if c.IsTouching() && c.Manifold().PointCount > 0 {
			out = append(out, c)
		}
	}
	return out
}

// recordingListener logs contact events as strings.
type recordingListener struct {
	NopContactListener
	events []string
}

func (l *recordingListener) BeginContact(*Contact) { l.events = append(l.events, "begin") }
func (l *recordingListener) EndContact(*Contact)   { l.events = append(l.events, "end") }

func (l *recordingListener) PreSolve(*Contact, *collision.Manifold) {
	l.events = append(l.events, "presolve")
}

func (l *recordingListener) PostSolve(*Contact, *ContactImpulse) {
	l.events = append(l.events, "postsolve")
}
