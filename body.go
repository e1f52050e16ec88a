package impulse2d

import (
	"errors"
	"fmt"

	"github.com/gekko3d/impulse2d/geom"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

type BodyType int

const (
	// StaticBody has zero mass and never moves.
	StaticBody BodyType = iota
	// KinematicBody moves by its velocity only; forces do not affect it.
	KinematicBody
	DynamicBody
)

func (t BodyType) String() string {
	switch t {
	case StaticBody:
		return "static"
	case KinematicBody:
		return "kinematic"
	case DynamicBody:
		return "dynamic"
	}
	return fmt.Sprintf("BodyType(%d)", int(t))
}

type BodyDef struct {
	Type            BodyType
	Position        mgl64.Vec2
	Angle           float64
	LinearVelocity  mgl64.Vec2
	AngularVelocity float64
	LinearDamping   float64
	AngularDamping  float64
	GravityScale    float64
	AllowSleep      bool
	Awake           bool
	FixedRotation   bool
	Bullet          bool
	UserData        any
}

func DefaultBodyDef() BodyDef {
	return BodyDef{
		Type:         StaticBody,
		GravityScale: 1.0,
		AllowSleep:   true,
		Awake:        true,
	}
}

// ContactEdge links a body to one of its contacts and the body on the other
// side of it.
type ContactEdge struct {
	Other   *Body
	Contact ContactHandle
}

type Body struct {
	id    uuid.UUID
	typ   BodyType
	world *World

	xf    geom.Transform
	sweep geom.Sweep

	linearVelocity  mgl64.Vec2
	angularVelocity float64

	force  mgl64.Vec2
	torque float64

	mass, invMass float64
	// Rotational inertia about the center of mass.
	inertia, invI float64

	linearDamping  float64
	angularDamping float64
	gravityScale   float64

	sleepTime     float64
	awake         bool
	allowSleep    bool
	fixedRotation bool
	bullet        bool

	islandFlag  bool
	islandIndex int

	fixtures     []*Fixture
	contactEdges []ContactEdge

	UserData any
}

func newBody(def BodyDef, world *World) *Body {
	b := &Body{
		id:              uuid.New(),
		typ:             def.Type,
		world:           world,
		xf:              geom.NewTransform(def.Position, def.Angle),
		linearVelocity:  def.LinearVelocity,
		angularVelocity: def.AngularVelocity,
		linearDamping:   def.LinearDamping,
		angularDamping:  def.AngularDamping,
		gravityScale:    def.GravityScale,
		awake:           def.Awake,
		allowSleep:      def.AllowSleep,
		fixedRotation:   def.FixedRotation,
		bullet:          def.Bullet,
		UserData:        def.UserData,
	}
	if b.typ == StaticBody {
		b.awake = false
		b.linearVelocity = mgl64.Vec2{}
		b.angularVelocity = 0
	}

	b.sweep = geom.Sweep{
		C0: def.Position,
		C:  def.Position,
		A0: def.Angle,
		A:  def.Angle,
	}

	if b.typ == DynamicBody {
		b.mass = 1.0
		b.invMass = 1.0
	}
	return b
}

func (b *Body) ID() uuid.UUID              { return b.id }
func (b *Body) Type() BodyType             { return b.typ }
func (b *Body) World() *World              { return b.world }
func (b *Body) Transform() geom.Transform  { return b.xf }
func (b *Body) Position() mgl64.Vec2       { return b.xf.P }
func (b *Body) Angle() float64             { return b.sweep.A }
func (b *Body) WorldCenter() mgl64.Vec2    { return b.sweep.C }
func (b *Body) LocalCenter() mgl64.Vec2    { return b.sweep.LocalCenter }
func (b *Body) LinearVelocity() mgl64.Vec2 { return b.linearVelocity }
func (b *Body) AngularVelocity() float64   { return b.angularVelocity }
func (b *Body) Mass() float64              { return b.mass }
func (b *Body) IsAwake() bool              { return b.awake }
func (b *Body) IsBullet() bool             { return b.bullet }
func (b *Body) Fixtures() []*Fixture       { return b.fixtures }

// ContactEdges lists the contacts touching the body's fixtures. The slice is
// owned by the body.
func (b *Body) ContactEdges() []ContactEdge { return b.contactEdges }

// Inertia is the rotational inertia about the body origin.
func (b *Body) Inertia() float64 {
	return b.inertia + b.mass*b.sweep.LocalCenter.Dot(b.sweep.LocalCenter)
}

func (b *Body) SetLinearVelocity(v mgl64.Vec2) {
	if b.typ == StaticBody {
		return
	}
	if v.Dot(v) > 0 {
		b.SetAwake(true)
	}
	b.linearVelocity = v
}

func (b *Body) SetAngularVelocity(w float64) {
	if b.typ == StaticBody {
		return
	}
	if w*w > 0 {
		b.SetAwake(true)
	}
	b.angularVelocity = w
}

// SetAwake wakes the body or puts it to sleep. A sleeping body has zero
// velocity and no pending forces. Static bodies ignore the call.
func (b *Body) SetAwake(flag bool) {
	if b.typ == StaticBody {
		return
	}
	if flag {
		if !b.awake {
			b.awake = true
			b.sleepTime = 0
		}
		return
	}
	b.awake = false
	b.sleepTime = 0
	b.linearVelocity = mgl64.Vec2{}
	b.angularVelocity = 0
	b.force = mgl64.Vec2{}
	b.torque = 0
}

func (b *Body) SetSleepingAllowed(flag bool) {
	b.allowSleep = flag
	if !flag {
		b.SetAwake(true)
	}
}

func (b *Body) SetBullet(flag bool) { b.bullet = flag }

// ApplyForce applies a world force at a world point, which also produces a
// torque about the center of mass.
func (b *Body) ApplyForce(force, point mgl64.Vec2, wake bool) {
	if b.typ != DynamicBody {
		return
	}
	if wake && !b.awake {
		b.SetAwake(true)
	}
	if b.awake {
		b.force = b.force.Add(force)
		b.torque += geom.Cross(point.Sub(b.sweep.C), force)
	}
}

func (b *Body) ApplyForceToCenter(force mgl64.Vec2, wake bool) {
	if b.typ != DynamicBody {
		return
	}
	if wake && !b.awake {
		b.SetAwake(true)
	}
	if b.awake {
		b.force = b.force.Add(force)
	}
}

func (b *Body) ApplyTorque(torque float64, wake bool) {
	if b.typ != DynamicBody {
		return
	}
	if wake && !b.awake {
		b.SetAwake(true)
	}
	if b.awake {
		b.torque += torque
	}
}

// ApplyLinearImpulse changes the velocity immediately.
func (b *Body) ApplyLinearImpulse(impulse, point mgl64.Vec2, wake bool) {
	if b.typ != DynamicBody {
		return
	}
	if wake && !b.awake {
		b.SetAwake(true)
	}
	if b.awake {
		b.linearVelocity = b.linearVelocity.Add(impulse.Mul(b.invMass))
		b.angularVelocity += b.invI * geom.Cross(point.Sub(b.sweep.C), impulse)
	}
}

func (b *Body) ApplyAngularImpulse(impulse float64, wake bool) {
	if b.typ != DynamicBody {
		return
	}
	if wake && !b.awake {
		b.SetAwake(true)
	}
	if b.awake {
		b.angularVelocity += b.invI * impulse
	}
}

// SetTransform teleports the body. Contacts are updated on the next step.
func (b *Body) SetTransform(position mgl64.Vec2, angle float64) error {
	if b.world != nil && b.world.locked {
		return ErrWorldLocked
	}
	b.xf = geom.NewTransform(position, angle)
	b.sweep.C = b.xf.Apply(b.sweep.LocalCenter)
	b.sweep.A = angle
	b.sweep.C0 = b.sweep.C
	b.sweep.A0 = angle

	for _, f := range b.fixtures {
		f.synchronize(b.xf, b.xf, b.aabbMargin())
	}
	if b.world != nil {
		b.world.newFixture = true
	}
	return nil
}

var ErrNilShape = errors.New("impulse2d: fixture needs a shape")

// CreateFixture attaches a shape to the body and updates its mass when the
// density is positive.
func (b *Body) CreateFixture(def FixtureDef) (*Fixture, error) {
	if b.world != nil && b.world.locked {
		return nil, ErrWorldLocked
	}
	if def.Shape == nil {
		return nil, ErrNilShape
	}

	f := &Fixture{
		body:        b,
		shape:       def.Shape,
		friction:    def.Friction,
		restitution: def.Restitution,
		density:     def.Density,
		isSensor:    def.IsSensor,
		filter:      def.Filter,
		proxyID:     -1,
		UserData:    def.UserData,
	}
	if b.world != nil {
		f.id = b.world.nextFixtureID
		b.world.nextFixtureID++
		b.world.newFixture = true
	}
	f.synchronize(b.xf, b.xf, b.aabbMargin())
	b.fixtures = append(b.fixtures, f)

	if f.density > 0 {
		b.ResetMassData()
	}
	return f, nil
}

// DestroyFixture detaches f and destroys its contacts.
func (b *Body) DestroyFixture(f *Fixture) error {
	if b.world != nil && b.world.locked {
		return ErrWorldLocked
	}
	if f == nil || f.body != b {
		return fmt.Errorf("impulse2d: fixture does not belong to body %s", b.id)
	}

	if b.world != nil {
		cm := b.world.contactManager
		for _, edge := range append([]ContactEdge(nil), b.contactEdges...) {
			c := cm.Contact(edge.Contact)
			if c.fixtureA == f || c.fixtureB == f {
				cm.Destroy(edge.Contact)
			}
		}
		b.world.newFixture = true
	}

	for i, other := range b.fixtures {
		if other == f {
			b.fixtures = append(b.fixtures[:i], b.fixtures[i+1:]...)
			break
		}
	}
	f.body = nil
	b.ResetMassData()
	return nil
}

// ResetMassData recomputes mass, center of mass and inertia from the
// fixture densities.
func (b *Body) ResetMassData() {
	b.mass = 0
	b.invMass = 0
	b.inertia = 0
	b.invI = 0
	b.sweep.LocalCenter = mgl64.Vec2{}

	if b.typ != DynamicBody {
		b.sweep.C0 = b.xf.P
		b.sweep.C = b.xf.P
		b.sweep.A0 = b.sweep.A
		return
	}

	var localCenter mgl64.Vec2
	for _, f := range b.fixtures {
		if f.density == 0 {
			continue
		}
		md := f.shape.ComputeMass(f.density)
		b.mass += md.Mass
		localCenter = localCenter.Add(md.Center.Mul(md.Mass))
		b.inertia += md.I
	}

	if b.mass > 0 {
		b.invMass = 1.0 / b.mass
		localCenter = localCenter.Mul(b.invMass)
	} else {
		// Dynamic bodies always move.
		b.mass = 1.0
		b.invMass = 1.0
	}

	if b.inertia > 0 && !b.fixedRotation {
		// Shift to the center of mass.
		b.inertia -= b.mass * localCenter.Dot(localCenter)
		b.invI = 1.0 / b.inertia
	} else {
		b.inertia = 0
		b.invI = 0
	}

	oldCenter := b.sweep.C
	b.sweep.LocalCenter = localCenter
	b.sweep.C = b.xf.Apply(localCenter)
	b.sweep.C0 = b.sweep.C

	b.linearVelocity = b.linearVelocity.Add(geom.CrossSV(b.angularVelocity, b.sweep.C.Sub(oldCenter)))
}

// shouldCollide requires at least one dynamic body.
func (b *Body) shouldCollide(other *Body) bool {
	return b.typ == DynamicBody || other.typ == DynamicBody
}

func (b *Body) synchronizeTransform() {
	b.xf.Q = geom.NewRot(b.sweep.A)
	b.xf.P = b.sweep.C.Sub(b.xf.Q.Apply(b.sweep.LocalCenter))
}

func (b *Body) synchronizeFixtures() {
	xf1 := b.sweep.Transform(0)
	margin := b.aabbMargin()
	for _, f := range b.fixtures {
		f.synchronize(xf1, b.xf, margin)
	}
}

func (b *Body) aabbMargin() float64 {
	if b.world == nil {
		return DefaultSettings().AABBExtension
	}
	return b.world.settings.AABBExtension
}

func (b *Body) removeEdge(h ContactHandle) {
	for i, edge := range b.contactEdges {
		if edge.Contact == h {
			b.contactEdges = append(b.contactEdges[:i], b.contactEdges[i+1:]...)
			return
		}
	}
}
