package impulse2d

import (
	"math"

	"github.com/gekko3d/impulse2d/collision"
	"github.com/gekko3d/impulse2d/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactSolverDef is the input of one solve: the island's touching
// contacts and its body state arrays, indexed by island body index.
type ContactSolverDef struct {
	Step       TimeStep
	Contacts   []*Contact
	Positions  []Position
	Velocities []Velocity
}

// ContactSolver resolves contacts with sequential impulses. Its constraint
// buffers are kept between solves and only grow.
type ContactSolver struct {
	settings Settings
	logger   Logger

	step       TimeStep
	positions  []Position
	velocities []Velocity
	contacts   []*Contact
	count      int

	positionConstraints []ContactPositionConstraint
	velocityConstraints []ContactVelocityConstraint
}

func NewContactSolver(settings Settings, logger Logger) *ContactSolver {
	capacity := settings.ConstraintCapacity
	if capacity < 1 {
		capacity = 1
	}
	return &ContactSolver{
		settings:            settings,
		logger:              orNop(logger),
		positionConstraints: make([]ContactPositionConstraint, capacity),
		velocityConstraints: make([]ContactVelocityConstraint, capacity),
	}
}

// Capacity is the number of contacts the buffers hold without growing.
func (s *ContactSolver) Capacity() int { return len(s.velocityConstraints) }

// VelocityConstraints returns the constraints of the current solve.
func (s *ContactSolver) VelocityConstraints() []ContactVelocityConstraint {
	return s.velocityConstraints[:s.count]
}

func (s *ContactSolver) PositionConstraints() []ContactPositionConstraint {
	return s.positionConstraints[:s.count]
}

func (s *ContactSolver) grow(count int) {
	if count <= len(s.velocityConstraints) {
		return
	}
	capacity := max(2*len(s.velocityConstraints), count)

	pcs := make([]ContactPositionConstraint, capacity)
	copy(pcs, s.positionConstraints)
	s.positionConstraints = pcs

	vcs := make([]ContactVelocityConstraint, capacity)
	copy(vcs, s.velocityConstraints)
	s.velocityConstraints = vcs

	if s.logger.DebugEnabled() {
		s.logger.Debugf("contact solver buffers grown to %d", capacity)
	}
}

// Init copies the contacts into constraint slots. With warm starting the
// carried impulses are scaled by the step's DtRatio, otherwise they start
// at zero.
func (s *ContactSolver) Init(def *ContactSolverDef) {
	s.step = def.Step
	s.positions = def.Positions
	s.velocities = def.Velocities
	s.contacts = def.Contacts
	s.count = len(def.Contacts)
	s.grow(s.count)

	for i, c := range s.contacts {
		fixtureA := c.fixtureA
		fixtureB := c.fixtureB
		bodyA := fixtureA.body
		bodyB := fixtureB.body
		manifold := c.Manifold()

		pointCount := manifold.PointCount
		if pointCount <= 0 {
			panic("impulse2d: solving a contact without manifold points")
		}

		vc := &s.velocityConstraints[i]
		vc.Friction = c.friction
		vc.Restitution = c.restitution
		vc.TangentSpeed = c.tangentSpeed
		vc.IndexA = bodyA.islandIndex
		vc.IndexB = bodyB.islandIndex
		vc.InvMassA = bodyA.invMass
		vc.InvMassB = bodyB.invMass
		vc.InvIA = bodyA.invI
		vc.InvIB = bodyB.invI
		vc.ContactIndex = i
		vc.PointCount = pointCount
		vc.K = mgl64.Mat2{}
		vc.NormalMass = mgl64.Mat2{}

		pc := &s.positionConstraints[i]
		pc.IndexA = bodyA.islandIndex
		pc.IndexB = bodyB.islandIndex
		pc.InvMassA = bodyA.invMass
		pc.InvMassB = bodyB.invMass
		pc.LocalCenterA = bodyA.sweep.LocalCenter
		pc.LocalCenterB = bodyB.sweep.LocalCenter
		pc.InvIA = bodyA.invI
		pc.InvIB = bodyB.invI
		pc.LocalNormal = manifold.LocalNormal
		pc.LocalPoint = manifold.LocalPoint
		pc.PointCount = pointCount
		pc.RadiusA = fixtureA.shape.Radius()
		pc.RadiusB = fixtureB.shape.Radius()
		pc.Type = manifold.Type

		for j := 0; j < pointCount; j++ {
			cp := &manifold.Points[j]
			vcp := &vc.Points[j]

			if s.step.WarmStarting {
				vcp.NormalImpulse = s.step.DtRatio * cp.NormalImpulse
				vcp.TangentImpulse = s.step.DtRatio * cp.TangentImpulse
			} else {
				vcp.NormalImpulse = 0
				vcp.TangentImpulse = 0
			}

			vcp.RA = mgl64.Vec2{}
			vcp.RB = mgl64.Vec2{}
			vcp.NormalMass = 0
			vcp.TangentMass = 0
			vcp.VelocityBias = 0

			pc.LocalPoints[j] = cp.LocalPoint
		}
	}
}

func solverTransform(p Position, localCenter mgl64.Vec2) geom.Transform {
	q := geom.NewRot(p.A)
	return geom.Transform{P: p.C.Sub(q.Apply(localCenter)), Q: q}
}

// InitializeVelocityConstraints computes contact points, effective masses
// and restitution bias at the current positions.
func (s *ContactSolver) InitializeVelocityConstraints() {
	var worldManifold collision.WorldManifold

	for i := 0; i < s.count; i++ {
		vc := &s.velocityConstraints[i]
		pc := &s.positionConstraints[i]
		manifold := s.contacts[vc.ContactIndex].Manifold()

		indexA, indexB := vc.IndexA, vc.IndexB
		mA, mB := vc.InvMassA, vc.InvMassB
		iA, iB := vc.InvIA, vc.InvIB

		cA := s.positions[indexA].C
		vA := s.velocities[indexA].V
		wA := s.velocities[indexA].W

		cB := s.positions[indexB].C
		vB := s.velocities[indexB].V
		wB := s.velocities[indexB].W

		xfA := solverTransform(s.positions[indexA], pc.LocalCenterA)
		xfB := solverTransform(s.positions[indexB], pc.LocalCenterB)

		worldManifold.Initialize(manifold, xfA, pc.RadiusA, xfB, pc.RadiusB)

		vc.Normal = worldManifold.Normal
		tangent := geom.CrossVS(vc.Normal, 1.0)

		for j := 0; j < vc.PointCount; j++ {
			vcp := &vc.Points[j]

			vcp.RA = worldManifold.Points[j].Sub(cA)
			vcp.RB = worldManifold.Points[j].Sub(cB)

			rnA := geom.Cross(vcp.RA, vc.Normal)
			rnB := geom.Cross(vcp.RB, vc.Normal)
			kNormal := mA + mB + iA*rnA*rnA + iB*rnB*rnB
			vcp.NormalMass = 0
			if kNormal > 0 {
				vcp.NormalMass = 1.0 / kNormal
			}

			rtA := geom.Cross(vcp.RA, tangent)
			rtB := geom.Cross(vcp.RB, tangent)
			kTangent := mA + mB + iA*rtA*rtA + iB*rtB*rtB
			vcp.TangentMass = 0
			if kTangent > 0 {
				vcp.TangentMass = 1.0 / kTangent
			}

			vcp.VelocityBias = 0
			vRel := vc.Normal.Dot(vB.Add(geom.CrossSV(wB, vcp.RB)).Sub(vA).Sub(geom.CrossSV(wA, vcp.RA)))
			if vRel < -s.settings.VelocityThreshold {
				vcp.VelocityBias = -vc.Restitution * vRel
			}
		}

		if vc.PointCount == 2 && s.settings.BlockSolve {
			vcp1 := &vc.Points[0]
			vcp2 := &vc.Points[1]

			rn1A := geom.Cross(vcp1.RA, vc.Normal)
			rn1B := geom.Cross(vcp1.RB, vc.Normal)
			rn2A := geom.Cross(vcp2.RA, vc.Normal)
			rn2B := geom.Cross(vcp2.RB, vc.Normal)

			k11 := mA + mB + iA*rn1A*rn1A + iB*rn1B*rn1B
			k22 := mA + mB + iA*rn2A*rn2A + iB*rn2B*rn2B
			k12 := mA + mB + iA*rn1A*rn2A + iB*rn1B*rn2B

			if k11*k11 < s.settings.MaxConditionNumber*(k11*k22-k12*k12) {
				vc.K = mgl64.Mat2{k11, k12, k12, k22}
				vc.NormalMass = vc.K.Inv()
			} else {
				// The two points are redundant; solve the first only.
				vc.PointCount = 1
				if s.logger.DebugEnabled() {
					s.logger.Debugf("contact %d: ill-conditioned block (k11=%g k22=%g k12=%g), using one point",
						vc.ContactIndex, k11, k22, k12)
				}
			}
		}
	}
}

// WarmStart applies the carried impulses to the body velocities.
func (s *ContactSolver) WarmStart() {
	for i := 0; i < s.count; i++ {
		vc := &s.velocityConstraints[i]

		indexA, indexB := vc.IndexA, vc.IndexB
		mA, mB := vc.InvMassA, vc.InvMassB
		iA, iB := vc.InvIA, vc.InvIB

		vA := s.velocities[indexA].V
		wA := s.velocities[indexA].W
		vB := s.velocities[indexB].V
		wB := s.velocities[indexB].W

		normal := vc.Normal
		tangent := geom.CrossVS(normal, 1.0)

		for j := 0; j < vc.PointCount; j++ {
			vcp := &vc.Points[j]
			P := normal.Mul(vcp.NormalImpulse).Add(tangent.Mul(vcp.TangentImpulse))
			wA -= iA * geom.Cross(vcp.RA, P)
			vA = vA.Sub(P.Mul(mA))
			wB += iB * geom.Cross(vcp.RB, P)
			vB = vB.Add(P.Mul(mB))
		}

		s.velocities[indexA] = Velocity{V: vA, W: wA}
		s.velocities[indexB] = Velocity{V: vB, W: wB}
	}
}

// SolveVelocityConstraints runs one velocity iteration over all contacts.
// Friction is solved before the normal constraints since the friction bound
// depends on the normal impulse from the previous iteration.
func (s *ContactSolver) SolveVelocityConstraints() {
	for i := 0; i < s.count; i++ {
		vc := &s.velocityConstraints[i]

		indexA, indexB := vc.IndexA, vc.IndexB
		mA, mB := vc.InvMassA, vc.InvMassB
		iA, iB := vc.InvIA, vc.InvIB
		pointCount := vc.PointCount

		vA := s.velocities[indexA].V
		wA := s.velocities[indexA].W
		vB := s.velocities[indexB].V
		wB := s.velocities[indexB].W

		normal := vc.Normal
		tangent := geom.CrossVS(normal, 1.0)
		friction := vc.Friction

		if pointCount != 1 && pointCount != 2 {
			panic("impulse2d: velocity constraint needs one or two points")
		}

		for j := 0; j < pointCount; j++ {
			vcp := &vc.Points[j]

			dv := vB.Add(geom.CrossSV(wB, vcp.RB)).Sub(vA).Sub(geom.CrossSV(wA, vcp.RA))

			vt := dv.Dot(tangent) - vc.TangentSpeed
			lambda := vcp.TangentMass * (-vt)

			// Clamp the accumulated impulse to the friction cone.
			maxFriction := friction * vcp.NormalImpulse
			newImpulse := geom.Clamp(vcp.TangentImpulse+lambda, -maxFriction, maxFriction)
			lambda = newImpulse - vcp.TangentImpulse
			vcp.TangentImpulse = newImpulse

			P := tangent.Mul(lambda)
			vA = vA.Sub(P.Mul(mA))
			wA -= iA * geom.Cross(vcp.RA, P)
			vB = vB.Add(P.Mul(mB))
			wB += iB * geom.Cross(vcp.RB, P)
		}

		if pointCount == 1 || !s.settings.BlockSolve {
			for j := 0; j < pointCount; j++ {
				vcp := &vc.Points[j]

				dv := vB.Add(geom.CrossSV(wB, vcp.RB)).Sub(vA).Sub(geom.CrossSV(wA, vcp.RA))
				vn := dv.Dot(normal)
				lambda := -vcp.NormalMass * (vn - vcp.VelocityBias)

				// The accumulated impulse never pulls.
				newImpulse := math.Max(vcp.NormalImpulse+lambda, 0)
				lambda = newImpulse - vcp.NormalImpulse
				vcp.NormalImpulse = newImpulse

				P := normal.Mul(lambda)
				vA = vA.Sub(P.Mul(mA))
				wA -= iA * geom.Cross(vcp.RA, P)
				vB = vB.Add(P.Mul(mB))
				wB += iB * geom.Cross(vcp.RB, P)
			}
		} else {
			cp1 := &vc.Points[0]
			cp2 := &vc.Points[1]

			dv1 := vB.Add(geom.CrossSV(wB, cp1.RB)).Sub(vA).Sub(geom.CrossSV(wA, cp1.RA))
			dv2 := vB.Add(geom.CrossSV(wB, cp2.RB)).Sub(vA).Sub(geom.CrossSV(wA, cp2.RA))

			a := mgl64.Vec2{cp1.NormalImpulse, cp2.NormalImpulse}
			x1, x2, solved := SolveBlock(BlockProblem{
				K:           vc.K,
				InvK:        vc.NormalMass,
				NormalMass1: cp1.NormalMass,
				NormalMass2: cp2.NormalMass,
				Accumulated: a,
				Velocity:    mgl64.Vec2{dv1.Dot(normal) - cp1.VelocityBias, dv2.Dot(normal) - cp2.VelocityBias},
			})

			if solved {
				// Apply the incremental impulse.
				d := mgl64.Vec2{x1 - a[0], x2 - a[1]}
				P1 := normal.Mul(d[0])
				P2 := normal.Mul(d[1])
				vA = vA.Sub(P1.Add(P2).Mul(mA))
				wA -= iA * (geom.Cross(cp1.RA, P1) + geom.Cross(cp2.RA, P2))
				vB = vB.Add(P1.Add(P2).Mul(mB))
				wB += iB * (geom.Cross(cp1.RB, P1) + geom.Cross(cp2.RB, P2))

				cp1.NormalImpulse = x1
				cp2.NormalImpulse = x2
			} else if s.logger.DebugEnabled() {
				s.logger.Debugf("contact %d: block solver found no valid case", vc.ContactIndex)
			}
		}

		s.velocities[indexA] = Velocity{V: vA, W: wA}
		s.velocities[indexB] = Velocity{V: vB, W: wB}
	}
}

// StoreImpulses writes the accumulated impulses back to the manifolds for
// the next step's warm start.
func (s *ContactSolver) StoreImpulses() {
	for i := 0; i < s.count; i++ {
		vc := &s.velocityConstraints[i]
		manifold := s.contacts[vc.ContactIndex].Manifold()

		for j := 0; j < vc.PointCount; j++ {
			manifold.Points[j].NormalImpulse = vc.Points[j].NormalImpulse
			manifold.Points[j].TangentImpulse = vc.Points[j].TangentImpulse
		}
	}
}

// SolvePositionConstraints runs one position iteration and reports whether
// the deepest overlap is within 3 linear slops.
func (s *ContactSolver) SolvePositionConstraints() bool {
	minSeparation := s.solvePositions(s.settings.Baumgarte, func(index int) bool { return true })
	return minSeparation >= -3.0*s.settings.LinearSlop
}

// SolveTOIPositionConstraints is SolvePositionConstraints for a sub-step
// after a time of impact. Only the two TOI bodies move; the others are
// treated as static.
func (s *ContactSolver) SolveTOIPositionConstraints(toiIndexA, toiIndexB int) bool {
	minSeparation := s.solvePositions(s.settings.TOIBaumgarte, func(index int) bool {
		return index == toiIndexA || index == toiIndexB
	})
	return minSeparation >= -1.5*s.settings.LinearSlop
}

func (s *ContactSolver) solvePositions(baumgarte float64, movable func(index int) bool) float64 {
	minSeparation := 0.0
	var psm PositionSolverManifold

	for i := 0; i < s.count; i++ {
		pc := &s.positionConstraints[i]

		indexA, indexB := pc.IndexA, pc.IndexB
		localCenterA, localCenterB := pc.LocalCenterA, pc.LocalCenterB

		mA, iA := 0.0, 0.0
		if movable(indexA) {
			mA, iA = pc.InvMassA, pc.InvIA
		}
		mB, iB := 0.0, 0.0
		if movable(indexB) {
			mB, iB = pc.InvMassB, pc.InvIB
		}

		cA := s.positions[indexA].C
		aA := s.positions[indexA].A
		cB := s.positions[indexB].C
		aB := s.positions[indexB].A

		for j := 0; j < pc.PointCount; j++ {
			xfA := solverTransform(Position{C: cA, A: aA}, localCenterA)
			xfB := solverTransform(Position{C: cB, A: aB}, localCenterB)

			psm.Initialize(pc, xfA, xfB, j)
			normal := psm.Normal
			point := psm.Point
			separation := psm.Separation

			rA := point.Sub(cA)
			rB := point.Sub(cB)

			minSeparation = math.Min(minSeparation, separation)

			// Push out by a fraction of the overlap, leaving one slop.
			C := geom.Clamp(baumgarte*(separation+s.settings.LinearSlop), -s.settings.MaxLinearCorrection, 0)

			rnA := geom.Cross(rA, normal)
			rnB := geom.Cross(rB, normal)
			K := mA + mB + iA*rnA*rnA + iB*rnB*rnB

			impulse := 0.0
			if K > 0 {
				impulse = -C / K
			}

			P := normal.Mul(impulse)
			cA = cA.Sub(P.Mul(mA))
			aA -= iA * geom.Cross(rA, P)
			cB = cB.Add(P.Mul(mB))
			aB += iB * geom.Cross(rB, P)
		}

		s.positions[indexA] = Position{C: cA, A: aA}
		s.positions[indexB] = Position{C: cB, A: aB}
	}
	return minSeparation
}
