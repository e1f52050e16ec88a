package impulse2d

import "github.com/go-gl/mathgl/mgl64"

// BlockProblem is the normal part of a two-point contact as a linear
// complementarity problem:
//
//	vn = K*x + b',  b' = Velocity - K*Accumulated
//	x >= 0, vn >= 0, x_i*vn_i = 0
//
// x holds the new accumulated impulses. Velocity holds the current normal
// velocities minus the restitution bias.
type BlockProblem struct {
	K    mgl64.Mat2
	InvK mgl64.Mat2
	// Per-point effective masses, 1/K11 and 1/K22.
	NormalMass1 float64
	NormalMass2 float64

	Accumulated mgl64.Vec2
	Velocity    mgl64.Vec2
}

// SolveBlock solves p by total enumeration: the four complementarity cases
// are tried in order and the first whose sign conditions hold wins. When
// none holds, solved is false and the caller applies nothing.
func SolveBlock(p BlockProblem) (x1, x2 float64, solved bool) {
	b := p.Velocity.Sub(p.K.Mul2x1(p.Accumulated))

	// Case 1: both points stay in contact, vn = 0.
	//   x = -inv(K) * b
	x := p.InvK.Mul2x1(b).Mul(-1)
	if x[0] >= 0 && x[1] >= 0 {
		return x[0], x[1], true
	}

	// Case 2: point 1 in contact, point 2 separating.
	//   vn1 = 0, x2 = 0, vn2 = k12*x1 + b2
	x1 = -p.NormalMass1 * b[0]
	vn2 := p.K.At(1, 0)*x1 + b[1]
	if x1 >= 0 && vn2 >= 0 {
		return x1, 0, true
	}

	// Case 3: point 2 in contact, point 1 separating.
	//   vn2 = 0, x1 = 0, vn1 = k21*x2 + b1
	x2 = -p.NormalMass2 * b[1]
	vn1 := p.K.At(0, 1)*x2 + b[0]
	if x2 >= 0 && vn1 >= 0 {
		return 0, x2, true
	}

	// Case 4: both separating.
	//   x = 0, vn = b
	if b[0] >= 0 && b[1] >= 0 {
		return 0, 0, true
	}

	// No case holds. Leave the contact alone for this iteration.
	return 0, 0, false
}
