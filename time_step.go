package impulse2d

import "github.com/go-gl/mathgl/mgl64"

// TimeStep is the step description handed to islands and the contact
// solver.
type TimeStep struct {
	Dt    float64
	InvDt float64
	// DtRatio is Dt divided by the previous step's Dt; carried impulses are
	// scaled by it.
	DtRatio float64

	VelocityIterations int
	PositionIterations int
	WarmStarting       bool
}

func newTimeStep(dt, invDt0 float64, velocityIterations, positionIterations int, warmStarting bool) TimeStep {
	step := TimeStep{
		Dt:                 dt,
		VelocityIterations: velocityIterations,
		PositionIterations: positionIterations,
		WarmStarting:       warmStarting,
	}
	if dt > 0 {
		step.InvDt = 1.0 / dt
	}
	step.DtRatio = invDt0 * dt
	return step
}

// Position is the solver state of a body center of mass.
type Position struct {
	C mgl64.Vec2
	A float64
}

// Velocity is the solver state of a body's motion.
type Velocity struct {
	V mgl64.Vec2
	W float64
}
