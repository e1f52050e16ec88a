package impulse2d

import (
	"math"
	"testing"

	"github.com/gekko3d/impulse2d/collision"
	"github.com/gekko3d/impulse2d/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMixingLaws(t *testing.T) {
	assert.InDelta(t, 0.3, MixFriction(0.9, 0.1), 1e-12)
	assert.Equal(t, MixFriction(0.4, 0.7), MixFriction(0.7, 0.4))
	assert.Equal(t, 0.0, MixFriction(0, 5))

	assert.Equal(t, 0.7, MixRestitution(0.2, 0.7))
	assert.Equal(t, MixRestitution(0.2, 0.7), MixRestitution(0.7, 0.2))
	assert.Equal(t, 0.0, MixRestitution(0, 0))
}

func TestContactMixesFixtureMaterials(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	addGround(t, w)

	def := DefaultBodyDef()
	def.Type = DynamicBody
	def.Position = mgl64.Vec2{0, 0.5}
	box, err := w.CreateBody(def)
	require.NoError(t, err)
	fd := DefaultFixtureDef(collision.NewBox(0.5, 0.5))
	fd.Friction = 0.15
	fd.Restitution = 0.4
	_, err = box.CreateFixture(fd)
	require.NoError(t, err)

	collideOnce(w)
	require.Equal(t, 1, w.ContactCount())
	c := w.Contacts()[0]

	assert.InDelta(t, math.Sqrt(0.6*0.15), c.Friction(), 1e-12)
	assert.Equal(t, 0.4, c.Restitution())

	c.SetFriction(2)
	c.SetRestitution(0)
	c.ResetFriction()
	c.ResetRestitution()
	assert.InDelta(t, math.Sqrt(0.6*0.15), c.Friction(), 1e-12)
	assert.Equal(t, 0.4, c.Restitution())
}

func TestContactInitRejectsMirroredPair(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	ground := addGround(t, w)
	ball := addDynamic(t, w, mgl64.Vec2{0, 3}, collision.NewCircle(mgl64.Vec2{}, 0.5))

	c := &Contact{}
	assert.Panics(t, func() { c.Init(ball.Fixtures()[0], 0, ground.Fixtures()[0], 0) })

	c.Init(ground.Fixtures()[0], 0, ball.Fixtures()[0], 0)
	assert.True(t, c.IsEnabled())
	assert.False(t, c.IsTouching())
}

func TestContactPutsPrimaryShapeFirst(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	// The circle is created first, so its fixture has the lower id.
	addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewCircle(mgl64.Vec2{}, 0.5))
	addGround(t, w)

	collideOnce(w)
	require.Equal(t, 1, w.ContactCount())
	c := w.Contacts()[0]
	assert.Equal(t, collision.ShapePolygon, c.FixtureA().Type())
	assert.Equal(t, collision.ShapeCircle, c.FixtureB().Type())
	assert.True(t, c.IsTouching())

	var wm collision.WorldManifold
	c.WorldManifold(&wm)
	assert.InDelta(t, 1.0, wm.Normal[1], 1e-12, "normal points from the ground to the ball")
}

func TestUpdateCarriesImpulsesByFeatureID(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	addGround(t, w)
	addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))
	collideOnce(w)
	require.Equal(t, 1, w.ContactCount())
	c := w.Contacts()[0]

	c.manifold = collision.Manifold{PointCount: 1}
	c.manifold.Points[0].ID.SetKey(5)
	c.manifold.Points[0].NormalImpulse = 3.0
	c.manifold.Points[0].TangentImpulse = -0.5

	c.evaluate = func(m *collision.Manifold, _ collision.Shape, _ geom.Transform, _ collision.Shape, _ geom.Transform) {
		*m = collision.Manifold{Type: collision.FaceA, LocalNormal: mgl64.Vec2{0, 1}, PointCount: 2}
		m.Points[0].ID.SetKey(9)
		m.Points[0].NormalImpulse = 42
		m.Points[1].ID.SetKey(5)
	}
	c.Update(nil)

	m := c.Manifold()
	require.Equal(t, 2, m.PointCount)
	assert.Equal(t, 0.0, m.Points[0].NormalImpulse, "new feature starts cold")
	assert.Equal(t, 0.0, m.Points[0].TangentImpulse)
	assert.Equal(t, 3.0, m.Points[1].NormalImpulse)
	assert.Equal(t, -0.5, m.Points[1].TangentImpulse)
}

func TestSensorTouchesWithoutPoints(t *testing.T) {
	listener := &recordingListener{}
	w := newTestWorld(t, earthGravity, func(b *WorldBuilder) { b.WithContactListener(listener) })

	def := DefaultBodyDef()
	def.Position = mgl64.Vec2{0, 3}
	zone, err := w.CreateBody(def)
	require.NoError(t, err)
	fd := DefaultFixtureDef(collision.NewBox(1, 1))
	fd.IsSensor = true
	_, err = zone.CreateFixture(fd)
	require.NoError(t, err)

	ball := addDynamic(t, w, mgl64.Vec2{0, 3}, collision.NewCircle(mgl64.Vec2{}, 0.25))

	w.Step(1.0/60, 8, 3)

	require.Equal(t, 1, w.ContactCount())
	c := w.Contacts()[0]
	assert.True(t, c.IsTouching())
	assert.Equal(t, 0, c.Manifold().PointCount)
	assert.Equal(t, []string{"begin"}, listener.events)

	// The sensor applies no impulse.
	assert.InDelta(t, -10.0/60, ball.LinearVelocity()[1], 1e-12)
}

func TestListenerEventOrder(t *testing.T) {
	listener := &recordingListener{}
	w := newTestWorld(t, earthGravity, func(b *WorldBuilder) { b.WithContactListener(listener) })
	addGround(t, w)
	ball := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewCircle(mgl64.Vec2{}, 0.5))

	w.Step(1.0/60, 8, 3)
	assert.Equal(t, []string{"begin", "presolve", "postsolve"}, listener.events)

	require.NoError(t, ball.SetTransform(mgl64.Vec2{0, 3}, 0))
	w.Step(1.0/60, 8, 3)
	assert.Equal(t, []string{"begin", "presolve", "postsolve", "end"}, listener.events)
	assert.Equal(t, 0, w.ContactCount())
}

type disablingListener struct {
	NopContactListener
}

func (disablingListener) PreSolve(c *Contact, _ *collision.Manifold) { c.SetEnabled(false) }

func TestPreSolveCanDisableContact(t *testing.T) {
	w := newTestWorld(t, earthGravity, func(b *WorldBuilder) {
		b.WithContactListener(disablingListener{})
	})
	addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	for i := 0; i < 30; i++ {
		w.Step(1.0/60, 8, 3)
	}
	assert.Less(t, box.Position()[1], 0.0, "disabled contacts let the box fall through")
}

type conveyorListener struct {
	NopContactListener
	speed float64
}

func (l conveyorListener) PreSolve(c *Contact, _ *collision.Manifold) { c.SetTangentSpeed(l.speed) }

func TestTangentSpeedDrivesRestingBox(t *testing.T) {
	w := newTestWorld(t, earthGravity, func(b *WorldBuilder) {
		b.WithContactListener(conveyorListener{speed: 2})
		b.AllowSleeping(false)
	})
	addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	for i := 0; i < 60; i++ {
		w.Step(1.0/60, 8, 3)
	}
	v := box.LinearVelocity()
	assert.InDelta(t, 2.0, v[0], 1e-3)
	assert.InDelta(t, 0.0, v[1], 1e-3)
	assert.Greater(t, box.Position()[0], 1.0)
	assert.InDelta(t, 0.5, box.Position()[1], 0.02)
}

func TestContactFlagsString(t *testing.T) {
	var f ContactFlags
	assert.Equal(t, "none", f.String())

	f.Set(FlagTouching)
	f.Set(FlagEnabled)
	assert.True(t, f.Has(FlagTouching))
	assert.Equal(t, "touching|enabled", f.String())

	f.Assign(FlagTouching, false)
	assert.False(t, f.Has(FlagTouching))
	f.Clear(FlagEnabled)
	assert.Equal(t, ContactFlags(0), f)
}
