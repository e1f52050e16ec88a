package impulse2d

import (
	"testing"

	"github.com/gekko3d/impulse2d/collision"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxComesToRestOnGround(t *testing.T) {
	w := newTestWorld(t, earthGravity, func(b *WorldBuilder) { b.AllowSleeping(false) })
	addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	for i := 0; i < 60; i++ {
		w.Step(1.0/60, 8, 3)
	}

	slop := w.Settings().LinearSlop
	contacts := touchingContacts(w)
	require.Len(t, contacts, 1)
	require.Equal(t, 2, contacts[0].Manifold().PointCount)

	var wm collision.WorldManifold
	contacts[0].WorldManifold(&wm)
	for i := 0; i < contacts[0].Manifold().PointCount; i++ {
		assert.GreaterOrEqual(t, wm.Separations[i], -slop-1e-5, "point %d", i)
	}

	assert.Less(t, box.LinearVelocity().Len(), w.Settings().VelocityThreshold)
	assert.InDelta(t, 0.0, box.LinearVelocity()[1], 1e-3)
	assert.InDelta(t, 0.0, box.Position()[0], 1e-3)
	assert.InDelta(t, 0.0, box.Angle(), 1e-3)
	// Skins of 2*PolygonRadius minus one slop of overlap.
	assert.InDelta(t, 0.5+2*collision.PolygonRadius-slop, box.Position()[1], 1e-3)
}

func TestRestingBodyFallsAsleep(t *testing.T) {
	w := newTestWorld(t, earthGravity)
	addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	for i := 0; i < 120; i++ {
		w.Step(1.0/60, 8, 3)
	}
	assert.False(t, box.IsAwake())
	assert.Equal(t, mgl64.Vec2{}, box.LinearVelocity())

	box.ApplyForceToCenter(mgl64.Vec2{0, 100}, true)
	assert.True(t, box.IsAwake())
	w.Step(1.0/60, 8, 3)
	assert.Greater(t, box.LinearVelocity()[1], 0.0)
}

func TestStackSettles(t *testing.T) {
	w := newTestWorld(t, earthGravity)
	addGround(t, w)
	var boxes []*Body
	for i := 0; i < 4; i++ {
		boxes = append(boxes, addDynamic(t, w, mgl64.Vec2{0, 0.5 + 1.01*float64(i)}, collision.NewBox(0.5, 0.5)))
	}

	for i := 0; i < 180; i++ {
		w.Step(1.0/60, 8, 3)
	}

	for i, b := range boxes {
		assert.InDelta(t, 0.0, b.Position()[0], 0.05, "box %d drifted", i)
		assert.InDelta(t, 0.5+float64(i), b.Position()[1], 0.1, "box %d height", i)
	}
}

func TestBouncyBallRebounds(t *testing.T) {
	w := newTestWorld(t, earthGravity)
	addGround(t, w)

	def := DefaultBodyDef()
	def.Type = DynamicBody
	def.Position = mgl64.Vec2{0, 0.5}
	def.LinearVelocity = mgl64.Vec2{0, -5}
	ball, err := w.CreateBody(def)
	require.NoError(t, err)
	fd := DefaultFixtureDef(collision.NewCircle(mgl64.Vec2{}, 0.5))
	fd.Restitution = 1
	_, err = ball.CreateFixture(fd)
	require.NoError(t, err)

	w.Step(1.0/60, 8, 3)
	assert.Greater(t, ball.LinearVelocity()[1], 4.0)
}

type lockProbe struct {
	NopContactListener
	world *World
	err   error
}

func (p *lockProbe) BeginContact(*Contact) {
	_, p.err = p.world.CreateBody(DefaultBodyDef())
}

func TestWorldLockedDuringStep(t *testing.T) {
	probe := &lockProbe{}
	w := newTestWorld(t, earthGravity, func(b *WorldBuilder) { b.WithContactListener(probe) })
	probe.world = w
	addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	w.Step(1.0/60, 8, 3)
	assert.ErrorIs(t, probe.err, ErrWorldLocked)
	assert.False(t, w.IsLocked())
	assert.Equal(t, 2, w.BodyCount())

	w.locked = true
	assert.ErrorIs(t, box.SetTransform(mgl64.Vec2{}, 0), ErrWorldLocked)
	assert.ErrorIs(t, w.DestroyBody(box), ErrWorldLocked)
	_, err := box.CreateFixture(DefaultFixtureDef(collision.NewBox(1, 1)))
	assert.ErrorIs(t, err, ErrWorldLocked)
	w.locked = false
}

func TestBodyByID(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	ground := addGround(t, w)

	got, ok := w.BodyByID(ground.ID())
	require.True(t, ok)
	assert.Same(t, ground, got)

	_, ok = w.BodyByID(uuid.New())
	assert.False(t, ok)

	require.NoError(t, w.DestroyBody(ground))
	_, ok = w.BodyByID(ground.ID())
	assert.False(t, ok)
	assert.Nil(t, ground.World())
}

func TestDestroyBodyRemovesContacts(t *testing.T) {
	listener := &recordingListener{}
	w := newTestWorld(t, earthGravity, func(b *WorldBuilder) { b.WithContactListener(listener) })
	ground := addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	w.Step(1.0/60, 8, 3)
	require.Equal(t, 1, w.ContactCount())

	require.NoError(t, w.DestroyBody(box))
	assert.Equal(t, 0, w.ContactCount())
	assert.Empty(t, ground.ContactEdges())
	assert.Equal(t, "end", listener.events[len(listener.events)-1])
	assert.Equal(t, []*Body{ground}, w.Bodies())

	assert.Error(t, w.DestroyBody(box), "already removed")

	// Stepping afterwards is fine.
	w.Step(1.0/60, 8, 3)
}

func TestDestroyFixtureResetsMass(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))
	extra, err := box.CreateFixture(DefaultFixtureDef(collision.NewOrientedBox(0.5, 0.5, mgl64.Vec2{1, 0}, 0)))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, box.Mass(), 1e-12)
	assert.InDelta(t, 0.5, box.WorldCenter()[0], 1e-12)

	collideOnce(w)
	require.Equal(t, 2, w.ContactCount())

	require.NoError(t, box.DestroyFixture(extra))
	assert.InDelta(t, 1.0, box.Mass(), 1e-12)
	assert.InDelta(t, 0.0, box.WorldCenter()[0], 1e-12)
	assert.Equal(t, 1, w.ContactCount())

	_, err = box.CreateFixture(FixtureDef{})
	assert.ErrorIs(t, err, ErrNilShape)
}

func TestZeroStepOnlyCollides(t *testing.T) {
	w := newTestWorld(t, earthGravity)
	addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	w.Step(0, 8, 3)
	assert.Equal(t, 1, w.ContactCount())
	assert.True(t, w.Contacts()[0].IsTouching())
	assert.Equal(t, mgl64.Vec2{0, 0.5}, box.Position())
	assert.Equal(t, mgl64.Vec2{}, box.LinearVelocity())
}

func TestForcesAreClearedAfterStep(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	box := addDynamic(t, w, mgl64.Vec2{}, collision.NewBox(0.5, 0.5))

	box.ApplyForceToCenter(mgl64.Vec2{60, 0}, true)
	w.Step(1.0/60, 8, 3)
	assert.InDelta(t, 1.0, box.LinearVelocity()[0], 1e-12)

	w.Step(1.0/60, 8, 3)
	assert.InDelta(t, 1.0, box.LinearVelocity()[0], 1e-12, "force applied once")

	w.SetAutoClearForces(false)
	box.ApplyForceToCenter(mgl64.Vec2{60, 0}, true)
	w.Step(1.0/60, 8, 3)
	w.Step(1.0/60, 8, 3)
	assert.InDelta(t, 3.0, box.LinearVelocity()[0], 1e-12)
}

func TestSetAllowSleepingWakesBodies(t *testing.T) {
	w := newTestWorld(t, earthGravity)
	addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))
	for i := 0; i < 120; i++ {
		w.Step(1.0/60, 0, 0)
	}
	require.False(t, box.IsAwake())

	w.SetAllowSleeping(false)
	assert.True(t, box.IsAwake())
}

func TestFatAABBCoversStepMotion(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	ball := addDynamic(t, w, mgl64.Vec2{}, collision.NewCircle(mgl64.Vec2{}, 0.5))
	ball.SetLinearVelocity(mgl64.Vec2{6, 0})

	w.Step(1.0/60, 8, 3)
	assert.InDelta(t, 0.1, ball.Position()[0], 1e-9)

	margin := w.Settings().AABBExtension
	fat := ball.Fixtures()[0].FatAABB()
	assert.InDelta(t, -0.5-margin, fat.Lower[0], 1e-9, "start of the step")
	assert.InDelta(t, 0.6+margin, fat.Upper[0], 1e-9, "end of the step")
	assert.InDelta(t, -0.5-margin, fat.Lower[1], 1e-9)
	assert.InDelta(t, 0.5+margin, fat.Upper[1], 1e-9)
}
