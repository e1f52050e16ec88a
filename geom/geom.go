// Package geom holds the 2D rigid-body primitives the solver works with:
// rotations, transforms, sweeps and the scalar/vector cross products that
// mgl64 does not provide for two dimensions.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the smallest length treated as non-zero when normalizing.
const Epsilon = 2.220446049250313e-16

// Cross returns the z component of the 3D cross product of a and b.
func Cross(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// CrossVS returns v x s, where s is a z-axis scalar.
func CrossVS(v mgl64.Vec2, s float64) mgl64.Vec2 {
	return mgl64.Vec2{s * v[1], -s * v[0]}
}

// CrossSV returns s x v, where s is a z-axis scalar.
func CrossSV(s float64, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-s * v[1], s * v[0]}
}

// Normalize returns the unit vector along v and the original length.
// Vectors shorter than Epsilon are returned unchanged with length 0.
func Normalize(v mgl64.Vec2) (mgl64.Vec2, float64) {
	length := v.Len()
	if length < Epsilon {
		return v, 0
	}
	inv := 1.0 / length
	return mgl64.Vec2{v[0] * inv, v[1] * inv}, length
}

// DistanceSquared returns |a-b|².
func DistanceSquared(a, b mgl64.Vec2) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

func Clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(x, hi))
}

// Rot is a rotation stored as sine and cosine.
type Rot struct {
	S, C float64
}

func NewRot(angle float64) Rot {
	return Rot{S: math.Sin(angle), C: math.Cos(angle)}
}

func (q Rot) Angle() float64 {
	return math.Atan2(q.S, q.C)
}

// Apply rotates v by q.
func (q Rot) Apply(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{q.C*v[0] - q.S*v[1], q.S*v[0] + q.C*v[1]}
}

// ApplyT rotates v by the inverse of q.
func (q Rot) ApplyT(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{q.C*v[0] + q.S*v[1], -q.S*v[0] + q.C*v[1]}
}

// MulTRot returns transpose(q) * r.
func MulTRot(q, r Rot) Rot {
	return Rot{
		S: q.C*r.S - q.S*r.C,
		C: q.C*r.C + q.S*r.S,
	}
}

// Transform is a rigid translation plus rotation.
type Transform struct {
	P mgl64.Vec2
	Q Rot
}

func NewTransform(p mgl64.Vec2, angle float64) Transform {
	return Transform{P: p, Q: NewRot(angle)}
}

// Apply maps a local point into world space.
func (xf Transform) Apply(v mgl64.Vec2) mgl64.Vec2 {
	return xf.Q.Apply(v).Add(xf.P)
}

// ApplyT maps a world point into the local frame of xf.
func (xf Transform) ApplyT(v mgl64.Vec2) mgl64.Vec2 {
	return xf.Q.ApplyT(v.Sub(xf.P))
}

// MulTTransform returns inverse(a) * b.
func MulTTransform(a, b Transform) Transform {
	return Transform{
		P: a.Q.ApplyT(b.P.Sub(a.P)),
		Q: MulTRot(a.Q, b.Q),
	}
}

// Sweep describes the motion of a body over one step. Positions are
// centers of mass, LocalCenter is the center of mass in body coordinates.
type Sweep struct {
	LocalCenter mgl64.Vec2
	C0, C       mgl64.Vec2
	A0, A       float64
}

// Transform interpolates the sweep at beta in [0,1] and returns the body
// origin transform.
func (s Sweep) Transform(beta float64) Transform {
	c := s.C0.Mul(1.0 - beta).Add(s.C.Mul(beta))
	angle := (1.0-beta)*s.A0 + beta*s.A
	q := NewRot(angle)
	return Transform{P: c.Sub(q.Apply(s.LocalCenter)), Q: q}
}
