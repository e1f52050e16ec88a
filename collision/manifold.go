// Package collision produces contact manifolds for pairs of convex shapes.
// The dynamics package consumes the manifolds; it never looks at shape
// geometry directly.
package collision

import (
	"github.com/gekko3d/impulse2d/geom"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxManifoldPoints is the most contact points two convex shapes produce.
	MaxManifoldPoints = 2

	// MaxPolygonVertices bounds the vertex count of a Polygon.
	MaxPolygonVertices = 8

	// LinearSlop is the collision tolerance, in meters.
	LinearSlop = 0.005

	// PolygonRadius is the skin thickness around polygons.
	PolygonRadius = 2.0 * LinearSlop
)

// FeatureType tells whether a contact feature is a vertex or a face.
type FeatureType uint8

const (
	FeatureVertex FeatureType = iota
	FeatureFace
)

// ContactFeature names the features of each shape that intersect to form
// a contact point.
type ContactFeature struct {
	IndexA uint8
	IndexB uint8
	TypeA  FeatureType
	TypeB  FeatureType
}

// ContactID identifies a contact point across steps so its impulses can be
// carried over.
type ContactID ContactFeature

func (id ContactID) Key() uint32 {
	return uint32(id.IndexA) |
		uint32(id.IndexB)<<8 |
		uint32(id.TypeA)<<16 |
		uint32(id.TypeB)<<24
}

func (id *ContactID) SetKey(key uint32) {
	id.IndexA = uint8(key)
	id.IndexB = uint8(key >> 8)
	id.TypeA = FeatureType(key >> 16)
	id.TypeB = FeatureType(key >> 24)
}

// ManifoldType selects how the local manifold geometry is interpreted.
type ManifoldType uint8

const (
	// Circles: LocalPoint is the center of circle A, Points[0].LocalPoint the
	// center of circle B.
	Circles ManifoldType = iota
	// FaceA: LocalPoint/LocalNormal describe a face of A, point LocalPoints
	// are clip points in B's frame.
	FaceA
	// FaceB: mirror of FaceA.
	FaceB
)

func (t ManifoldType) String() string {
	switch t {
	case Circles:
		return "circles"
	case FaceA:
		return "faceA"
	case FaceB:
		return "faceB"
	}
	return "unknown"
}

// ManifoldPoint is one contact point of a manifold. The impulses are the
// solver's accumulated values, kept for warm starting.
type ManifoldPoint struct {
	LocalPoint     mgl64.Vec2
	NormalImpulse  float64
	TangentImpulse float64
	ID             ContactID
}

// Manifold describes the contact between two convex shapes in local
// coordinates so position correction can recompute it as bodies move.
type Manifold struct {
	Points      [MaxManifoldPoints]ManifoldPoint
	LocalNormal mgl64.Vec2
	LocalPoint  mgl64.Vec2
	Type        ManifoldType
	PointCount  int
}

// WorldManifold is a manifold evaluated at a pair of transforms.
type WorldManifold struct {
	// Normal points from A to B.
	Normal mgl64.Vec2
	Points [MaxManifoldPoints]mgl64.Vec2
	// Negative separation means overlap.
	Separations [MaxManifoldPoints]float64
}

// Initialize evaluates m in world space. The contact point is placed midway
// between the two shape surfaces.
func (wm *WorldManifold) Initialize(m *Manifold, xfA geom.Transform, radiusA float64, xfB geom.Transform, radiusB float64) {
	if m.PointCount == 0 {
		return
	}

	switch m.Type {
	case Circles:
		wm.Normal = mgl64.Vec2{1, 0}
		pointA := xfA.Apply(m.LocalPoint)
		pointB := xfB.Apply(m.Points[0].LocalPoint)
		if geom.DistanceSquared(pointA, pointB) > geom.Epsilon*geom.Epsilon {
			wm.Normal, _ = geom.Normalize(pointB.Sub(pointA))
		}

		cA := pointA.Add(wm.Normal.Mul(radiusA))
		cB := pointB.Sub(wm.Normal.Mul(radiusB))
		wm.Points[0] = cA.Add(cB).Mul(0.5)
		wm.Separations[0] = cB.Sub(cA).Dot(wm.Normal)

	case FaceA:
		wm.Normal = xfA.Q.Apply(m.LocalNormal)
		planePoint := xfA.Apply(m.LocalPoint)

		for i := 0; i < m.PointCount; i++ {
			clipPoint := xfB.Apply(m.Points[i].LocalPoint)
			cA := clipPoint.Add(wm.Normal.Mul(radiusA - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cB := clipPoint.Sub(wm.Normal.Mul(radiusB))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = cB.Sub(cA).Dot(wm.Normal)
		}

	case FaceB:
		wm.Normal = xfB.Q.Apply(m.LocalNormal)
		planePoint := xfB.Apply(m.LocalPoint)

		for i := 0; i < m.PointCount; i++ {
			clipPoint := xfA.Apply(m.Points[i].LocalPoint)
			cB := clipPoint.Add(wm.Normal.Mul(radiusB - clipPoint.Sub(planePoint).Dot(wm.Normal)))
			cA := clipPoint.Sub(wm.Normal.Mul(radiusA))
			wm.Points[i] = cA.Add(cB).Mul(0.5)
			wm.Separations[i] = cA.Sub(cB).Dot(wm.Normal)
		}

		// Ensure normal points from A to B.
		wm.Normal = wm.Normal.Mul(-1)
	}
}

// PointState describes how a manifold point changed between two updates.
type PointState uint8

const (
	NullState PointState = iota
	AddState
	PersistState
	RemoveState
)

// GetPointStates compares two manifolds by contact id. state1 describes the
// points of m1 (persist or remove), state2 the points of m2 (add or persist).
func GetPointStates(m1, m2 *Manifold) (state1, state2 [MaxManifoldPoints]PointState) {
	for i := 0; i < m1.PointCount; i++ {
		key := m1.Points[i].ID.Key()
		state1[i] = RemoveState
		for j := 0; j < m2.PointCount; j++ {
			if m2.Points[j].ID.Key() == key {
				state1[i] = PersistState
				break
			}
		}
	}

	for i := 0; i < m2.PointCount; i++ {
		key := m2.Points[i].ID.Key()
		state2[i] = AddState
		for j := 0; j < m1.PointCount; j++ {
			if m1.Points[j].ID.Key() == key {
				state2[i] = PersistState
				break
			}
		}
	}
	return state1, state2
}

// ClipVertex is a vertex of an incident edge being clipped.
type ClipVertex struct {
	V  mgl64.Vec2
	ID ContactID
}

// ClipSegmentToLine clips the segment vIn against the half-plane
// dot(normal, v) <= offset and writes the result to vOut.
func ClipSegmentToLine(vOut *[2]ClipVertex, vIn [2]ClipVertex, normal mgl64.Vec2, offset float64, vertexIndexA int) int {
	count := 0

	distance0 := normal.Dot(vIn[0].V) - offset
	distance1 := normal.Dot(vIn[1].V) - offset

	if distance0 <= 0 {
		vOut[count] = vIn[0]
		count++
	}
	if distance1 <= 0 {
		vOut[count] = vIn[1]
		count++
	}

	if distance0*distance1 < 0 {
		interp := distance0 / (distance0 - distance1)
		vOut[count].V = vIn[0].V.Add(vIn[1].V.Sub(vIn[0].V).Mul(interp))

		// Vertex A is hitting edge B.
		vOut[count].ID = ContactID{
			IndexA: uint8(vertexIndexA),
			IndexB: vIn[0].ID.IndexB,
			TypeA:  FeatureVertex,
			TypeB:  FeatureFace,
		}
		count++
	}
	return count
}
