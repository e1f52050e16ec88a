package impulse2d

import (
	"github.com/gekko3d/impulse2d/collision"
	"github.com/gekko3d/impulse2d/geom"
)

// Filter holds collision filtering data. Fixtures sharing a positive group
// always collide, sharing a negative group never collide; otherwise the
// category and mask bits must match both ways.
type Filter struct {
	CategoryBits uint16
	MaskBits     uint16
	GroupIndex   int16
}

func DefaultFilter() Filter {
	return Filter{CategoryBits: 0x0001, MaskBits: 0xFFFF}
}

type FixtureDef struct {
	Shape       collision.Shape
	Friction    float64
	Restitution float64
	Density     float64
	IsSensor    bool
	Filter      Filter
	UserData    any
}

func DefaultFixtureDef(shape collision.Shape) FixtureDef {
	return FixtureDef{
		Shape:    shape,
		Friction: 0.2,
		Density:  1.0,
		Filter:   DefaultFilter(),
	}
}

// Fixture attaches a shape and its material to a body.
type Fixture struct {
	id          int
	body        *Body
	shape       collision.Shape
	friction    float64
	restitution float64
	density     float64
	isSensor    bool
	filter      Filter

	// fatAABB covers the last step's sweep plus the broad-phase margin.
	fatAABB collision.AABB
	proxyID int

	UserData any
}

func (f *Fixture) Body() *Body               { return f.body }
func (f *Fixture) Shape() collision.Shape    { return f.shape }
func (f *Fixture) Type() collision.ShapeType { return f.shape.Type() }
func (f *Fixture) Friction() float64         { return f.friction }
func (f *Fixture) Restitution() float64      { return f.restitution }
func (f *Fixture) Density() float64          { return f.density }
func (f *Fixture) IsSensor() bool            { return f.isSensor }
func (f *Fixture) Filter() Filter            { return f.filter }
func (f *Fixture) FatAABB() collision.AABB   { return f.fatAABB }

// SetFriction does not change contacts that already exist; use
// Contact.ResetFriction for those.
func (f *Fixture) SetFriction(friction float64) { f.friction = friction }

func (f *Fixture) SetRestitution(restitution float64) { f.restitution = restitution }

// SetSensor wakes the body so the change takes effect on the next step.
func (f *Fixture) SetSensor(sensor bool) {
	if sensor == f.isSensor {
		return
	}
	f.isSensor = sensor
	f.body.SetAwake(true)
}

// SetFilter flags every contact of the fixture for re-filtering on the
// next step.
func (f *Fixture) SetFilter(filter Filter) {
	f.filter = filter
	f.refilter()
}

func (f *Fixture) refilter() {
	if f.body == nil || f.body.world == nil {
		return
	}
	cm := f.body.world.contactManager
	for _, edge := range f.body.contactEdges {
		c := cm.Contact(edge.Contact)
		if c.fixtureA == f || c.fixtureB == f {
			c.FlagForFiltering()
		}
	}
	f.body.world.newFixture = true
}

// synchronize recomputes the fat bounds over the motion from xf1 to xf2.
func (f *Fixture) synchronize(xf1, xf2 geom.Transform, margin float64) {
	aabb1 := f.shape.ComputeAABB(xf1, 0)
	aabb2 := f.shape.ComputeAABB(xf2, 0)
	f.fatAABB = aabb1.Combine(aabb2).Extend(margin)
}
