package impulse2d

import (
	"testing"

	"github.com/gekko3d/impulse2d/collision"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactEdgesLinkBothBodies(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	ground := addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	collideOnce(w)
	require.Equal(t, 1, w.ContactCount())
	h := w.ContactManager().Active()[0]

	require.Len(t, ground.ContactEdges(), 1)
	require.Len(t, box.ContactEdges(), 1)
	assert.Equal(t, ContactEdge{Other: box, Contact: h}, ground.ContactEdges()[0])
	assert.Equal(t, ContactEdge{Other: ground, Contact: h}, box.ContactEdges()[0])

	w.ContactManager().Destroy(h)
	assert.Empty(t, ground.ContactEdges())
	assert.Empty(t, box.ContactEdges())
	assert.Equal(t, 0, w.ContactCount())
	assert.Panics(t, func() { w.ContactManager().Destroy(h) })
}

func TestContactHandlesAreReused(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	addGround(t, w)
	first := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	collideOnce(w)
	require.Equal(t, 1, w.ContactCount())
	h := w.ContactManager().Active()[0]

	require.NoError(t, w.DestroyBody(first))
	assert.Equal(t, 0, w.ContactCount())

	addDynamic(t, w, mgl64.Vec2{3, 0.5}, collision.NewBox(0.5, 0.5))
	collideOnce(w)
	require.Equal(t, 1, w.ContactCount())
	assert.Equal(t, h, w.ContactManager().Active()[0])
	assert.True(t, w.Contact(h).IsTouching())
}

func TestNoDuplicatePairs(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	addGround(t, w)
	addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	collideOnce(w)
	collideOnce(w)
	w.ContactManager().FindNewContacts(w.Bodies())
	assert.Equal(t, 1, w.ContactCount())
}

func TestStaticPairsNeverCollide(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	addGround(t, w)

	def := DefaultBodyDef()
	def.Position = mgl64.Vec2{0, 0.5}
	wall, err := w.CreateBody(def)
	require.NoError(t, err)
	_, err = wall.CreateFixture(DefaultFixtureDef(collision.NewBox(0.5, 0.5)))
	require.NoError(t, err)

	collideOnce(w)
	assert.Equal(t, 0, w.ContactCount())
}

func TestGroupFilter(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	a := addDynamic(t, w, mgl64.Vec2{0, 0}, collision.NewBox(0.5, 0.5))
	b := addDynamic(t, w, mgl64.Vec2{0.9, 0}, collision.NewBox(0.5, 0.5))

	never := DefaultFilter()
	never.GroupIndex = -1
	a.Fixtures()[0].SetFilter(never)
	b.Fixtures()[0].SetFilter(never)

	collideOnce(w)
	assert.Equal(t, 0, w.ContactCount())

	b.Fixtures()[0].SetFilter(DefaultFilter())
	collideOnce(w)
	assert.Equal(t, 1, w.ContactCount())
}

func TestRefilterDestroysContact(t *testing.T) {
	listener := &recordingListener{}
	w := newTestWorld(t, earthGravity, func(b *WorldBuilder) { b.WithContactListener(listener) })
	addGround(t, w)
	box := addDynamic(t, w, mgl64.Vec2{0, 0.5}, collision.NewBox(0.5, 0.5))

	w.Step(1.0/60, 8, 3)
	require.Equal(t, 1, w.ContactCount())

	box.Fixtures()[0].SetFilter(Filter{CategoryBits: 0x0002, MaskBits: 0})
	w.Step(1.0/60, 8, 3)
	assert.Equal(t, 0, w.ContactCount())
	assert.Equal(t, "end", listener.events[len(listener.events)-1])
}

func TestDefaultContactFilter(t *testing.T) {
	f := DefaultContactFilter{}
	fa := &Fixture{filter: DefaultFilter()}
	fb := &Fixture{filter: DefaultFilter()}
	assert.True(t, f.ShouldCollide(fa, fb))

	fa.filter.GroupIndex, fb.filter.GroupIndex = 2, 2
	fa.filter.MaskBits = 0
	assert.True(t, f.ShouldCollide(fa, fb), "positive group overrides the mask")

	fa.filter.GroupIndex, fb.filter.GroupIndex = 0, 0
	assert.False(t, f.ShouldCollide(fa, fb))
}

func TestSteadyStateContactSearchDoesNotAllocate(t *testing.T) {
	w := newTestWorld(t, mgl64.Vec2{})
	addGround(t, w)
	var boxes []*Body
	for i := 0; i < 4; i++ {
		x := float64(i) - 1.5
		boxes = append(boxes, addDynamic(t, w, mgl64.Vec2{x, 0.5}, collision.NewBox(0.5, 0.5)))
	}
	collideOnce(w)
	require.Equal(t, 7, w.ContactCount())
	for _, b := range boxes {
		b.SetAwake(false)
	}

	cm := w.ContactManager()
	allocs := testing.AllocsPerRun(20, func() {
		cm.FindNewContacts(w.bodies)
		cm.Collide()
	})
	assert.Zero(t, allocs)
	assert.Equal(t, 7, w.ContactCount())
}
