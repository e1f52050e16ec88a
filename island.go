package impulse2d

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Island is a set of bodies connected by touching contacts, solved as one
// batch. Body i of the island owns slot i of the position and velocity
// arrays.
type Island struct {
	settings Settings
	logger   Logger
	listener ContactListener

	bodies     []*Body
	contacts   []*Contact
	positions  []Position
	velocities []Velocity

	solver    *ContactSolver
	toiSolver *ContactSolver
}

// NewIsland allocates an island that holds up to bodyCapacity bodies.
// Contacts grow without bound.
func NewIsland(bodyCapacity int, settings Settings, listener ContactListener, logger Logger) *Island {
	if listener == nil {
		listener = NopContactListener{}
	}
	logger = orNop(logger)
	return &Island{
		settings:   settings,
		logger:     logger,
		listener:   listener,
		bodies:     make([]*Body, 0, bodyCapacity),
		positions:  make([]Position, bodyCapacity),
		velocities: make([]Velocity, bodyCapacity),
		solver:     NewContactSolver(settings, logger),
		toiSolver:  NewContactSolver(settings, logger),
	}
}

func (is *Island) Clear() {
	is.bodies = is.bodies[:0]
	is.contacts = is.contacts[:0]
}

func (is *Island) Bodies() []*Body      { return is.bodies }
func (is *Island) Contacts() []*Contact { return is.contacts }

// AddBody gives b the next island index.
func (is *Island) AddBody(b *Body) {
	if len(is.bodies) == cap(is.bodies) {
		panic("impulse2d: island body capacity exceeded")
	}
	b.islandIndex = len(is.bodies)
	is.bodies = append(is.bodies, b)
}

func (is *Island) AddContact(c *Contact) {
	is.contacts = append(is.contacts, c)
}

// Solve advances the island by one step: velocities are integrated and
// corrected by the contact solver, positions are integrated and pushed
// apart, and bodies that stayed still long enough go to sleep.
func (is *Island) Solve(step TimeStep, gravity mgl64.Vec2, allowSleep bool) {
	h := step.Dt

	for i, b := range is.bodies {
		c := b.sweep.C
		a := b.sweep.A
		v := b.linearVelocity
		w := b.angularVelocity

		b.sweep.C0 = b.sweep.C
		b.sweep.A0 = b.sweep.A

		if b.typ == DynamicBody {
			v = v.Add(gravity.Mul(b.gravityScale).Add(b.force.Mul(b.invMass)).Mul(h))
			w += h * b.invI * b.torque

			// Pade approximation of exp(-h*damping), stable for large steps.
			v = v.Mul(1.0 / (1.0 + h*b.linearDamping))
			w *= 1.0 / (1.0 + h*b.angularDamping)
		}

		is.positions[i] = Position{C: c, A: a}
		is.velocities[i] = Velocity{V: v, W: w}
	}

	n := len(is.bodies)
	is.solver.Init(&ContactSolverDef{
		Step:       step,
		Contacts:   is.contacts,
		Positions:  is.positions[:n],
		Velocities: is.velocities[:n],
	})
	is.solver.InitializeVelocityConstraints()

	if step.WarmStarting {
		is.solver.WarmStart()
	}

	for i := 0; i < step.VelocityIterations; i++ {
		is.solver.SolveVelocityConstraints()
	}

	is.solver.StoreImpulses()

	is.integratePositions(h)

	positionSolved := false
	for i := 0; i < step.PositionIterations; i++ {
		if is.solver.SolvePositionConstraints() {
			positionSolved = true
			break
		}
	}

	for i, b := range is.bodies {
		b.sweep.C = is.positions[i].C
		b.sweep.A = is.positions[i].A
		b.linearVelocity = is.velocities[i].V
		b.angularVelocity = is.velocities[i].W
		b.synchronizeTransform()
	}

	is.report(is.solver.VelocityConstraints())

	if !allowSleep {
		return
	}

	minSleepTime := math.MaxFloat64
	linTolSqr := is.settings.LinearSleepTolerance * is.settings.LinearSleepTolerance
	angTolSqr := is.settings.AngularSleepTolerance * is.settings.AngularSleepTolerance

	for _, b := range is.bodies {
		if b.typ == StaticBody {
			continue
		}
		if !b.allowSleep ||
			b.angularVelocity*b.angularVelocity > angTolSqr ||
			b.linearVelocity.Dot(b.linearVelocity) > linTolSqr {
			b.sleepTime = 0
			minSleepTime = 0
		} else {
			b.sleepTime += h
			minSleepTime = math.Min(minSleepTime, b.sleepTime)
		}
	}

	if minSleepTime >= is.settings.TimeToSleep && positionSolved {
		for _, b := range is.bodies {
			b.SetAwake(false)
		}
	}
}

// SolveTOI resolves the overlap of the two bodies at toiIndexA and
// toiIndexB after a time of impact, then advances the island by the
// remaining sub-step. Impulses are not stored for warm starting.
func (is *Island) SolveTOI(subStep TimeStep, toiIndexA, toiIndexB int) {
	n := len(is.bodies)
	if toiIndexA >= n || toiIndexB >= n {
		panic("impulse2d: TOI body index outside the island")
	}

	for i, b := range is.bodies {
		is.positions[i] = Position{C: b.sweep.C, A: b.sweep.A}
		is.velocities[i] = Velocity{V: b.linearVelocity, W: b.angularVelocity}
	}

	// Nothing warm starts the TOI solver, so carried impulses would never
	// reach the velocities.
	subStep.WarmStarting = false
	is.toiSolver.Init(&ContactSolverDef{
		Step:       subStep,
		Contacts:   is.contacts,
		Positions:  is.positions[:n],
		Velocities: is.velocities[:n],
	})

	for i := 0; i < subStep.PositionIterations; i++ {
		if is.toiSolver.SolveTOIPositionConstraints(toiIndexA, toiIndexB) {
			break
		}
	}

	// The corrected positions become the start of the sweep.
	for _, index := range [2]int{toiIndexA, toiIndexB} {
		b := is.bodies[index]
		b.sweep.C0 = is.positions[index].C
		b.sweep.A0 = is.positions[index].A
	}

	is.toiSolver.InitializeVelocityConstraints()

	for i := 0; i < subStep.VelocityIterations; i++ {
		is.toiSolver.SolveVelocityConstraints()
	}

	h := subStep.Dt
	is.integratePositions(h)

	for i, b := range is.bodies {
		b.sweep.C = is.positions[i].C
		b.sweep.A = is.positions[i].A
		b.linearVelocity = is.velocities[i].V
		b.angularVelocity = is.velocities[i].W
		b.synchronizeTransform()
	}

	is.report(is.toiSolver.VelocityConstraints())
}

// integratePositions moves every body by its velocity, limiting the
// per-step translation and rotation.
func (is *Island) integratePositions(h float64) {
	maxTranslation := is.settings.MaxTranslation
	maxRotation := is.settings.MaxRotation

	for i := range is.bodies {
		c := is.positions[i].C
		a := is.positions[i].A
		v := is.velocities[i].V
		w := is.velocities[i].W

		translation := v.Mul(h)
		if translation.Dot(translation) > maxTranslation*maxTranslation {
			v = v.Mul(maxTranslation / translation.Len())
		}

		rotation := h * w
		if rotation*rotation > maxRotation*maxRotation {
			w *= maxRotation / math.Abs(rotation)
		}

		c = c.Add(v.Mul(h))
		a += h * w

		is.positions[i] = Position{C: c, A: a}
		is.velocities[i] = Velocity{V: v, W: w}
	}
}

func (is *Island) report(constraints []ContactVelocityConstraint) {
	var impulse ContactImpulse
	for i, c := range is.contacts {
		vc := &constraints[i]
		impulse = ContactImpulse{Count: vc.PointCount}
		for j := 0; j < vc.PointCount; j++ {
			impulse.NormalImpulses[j] = vc.Points[j].NormalImpulse
			impulse.TangentImpulses[j] = vc.Points[j].TangentImpulse
		}
		is.listener.PostSolve(c, &impulse)
	}
}
