package impulse2d

import (
	"github.com/gekko3d/impulse2d/collision"
	"github.com/gekko3d/impulse2d/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// VelocityConstraintPoint is the per-point velocity solver state.
type VelocityConstraintPoint struct {
	// Offsets from the centers of mass to the contact point.
	RA, RB mgl64.Vec2

	NormalImpulse  float64
	TangentImpulse float64
	NormalMass     float64
	TangentMass    float64
	// Target normal velocity from restitution.
	VelocityBias float64
}

// ContactVelocityConstraint is rebuilt for every contact each step and
// mutated by the velocity iterations.
type ContactVelocityConstraint struct {
	Points [collision.MaxManifoldPoints]VelocityConstraintPoint
	Normal mgl64.Vec2
	// K is the two-point block matrix, NormalMass its inverse. Both are zero
	// unless the block solver is used.
	NormalMass mgl64.Mat2
	K          mgl64.Mat2

	IndexA, IndexB     int
	InvMassA, InvMassB float64
	InvIA, InvIB       float64

	Friction     float64
	Restitution  float64
	TangentSpeed float64

	PointCount   int
	ContactIndex int
}

// ContactPositionConstraint holds the manifold geometry the position
// iterations recompute separations from. It does not change during a step.
type ContactPositionConstraint struct {
	LocalPoints [collision.MaxManifoldPoints]mgl64.Vec2
	LocalNormal mgl64.Vec2
	LocalPoint  mgl64.Vec2

	IndexA, IndexB             int
	InvMassA, InvMassB         float64
	LocalCenterA, LocalCenterB mgl64.Vec2
	InvIA, InvIB               float64

	Type             collision.ManifoldType
	RadiusA, RadiusB float64
	PointCount       int
}

// PositionSolverManifold is one manifold point evaluated at arbitrary
// transforms. Normal points from A to B.
type PositionSolverManifold struct {
	Normal     mgl64.Vec2
	Point      mgl64.Vec2
	Separation float64
}

func (psm *PositionSolverManifold) Initialize(pc *ContactPositionConstraint, xfA, xfB geom.Transform, index int) {
	if pc.PointCount <= 0 {
		panic("impulse2d: position constraint without points")
	}

	switch pc.Type {
	case collision.Circles:
		pointA := xfA.Apply(pc.LocalPoint)
		pointB := xfB.Apply(pc.LocalPoints[0])
		psm.Normal, _ = geom.Normalize(pointB.Sub(pointA))
		psm.Point = pointA.Add(pointB).Mul(0.5)
		psm.Separation = pointB.Sub(pointA).Dot(psm.Normal) - pc.RadiusA - pc.RadiusB

	case collision.FaceA:
		psm.Normal = xfA.Q.Apply(pc.LocalNormal)
		planePoint := xfA.Apply(pc.LocalPoint)

		clipPoint := xfB.Apply(pc.LocalPoints[index])
		psm.Separation = clipPoint.Sub(planePoint).Dot(psm.Normal) - pc.RadiusA - pc.RadiusB
		psm.Point = clipPoint

	case collision.FaceB:
		psm.Normal = xfB.Q.Apply(pc.LocalNormal)
		planePoint := xfB.Apply(pc.LocalPoint)

		clipPoint := xfA.Apply(pc.LocalPoints[index])
		psm.Separation = clipPoint.Sub(planePoint).Dot(psm.Normal) - pc.RadiusA - pc.RadiusB
		psm.Point = clipPoint

		// A to B
		psm.Normal = psm.Normal.Mul(-1)
	}
}
