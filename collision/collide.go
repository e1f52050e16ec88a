package collision

import (
	"math"

	"github.com/gekko3d/impulse2d/geom"
	"github.com/go-gl/mathgl/mgl64"
)

// CollideCircles computes the manifold between two circles.
func CollideCircles(m *Manifold, circleA *Circle, xfA geom.Transform, circleB *Circle, xfB geom.Transform) {
	m.PointCount = 0

	pA := xfA.Apply(circleA.P)
	pB := xfB.Apply(circleB.P)

	d := pB.Sub(pA)
	radius := circleA.R + circleB.R
	if d.Dot(d) > radius*radius {
		return
	}

	m.Type = Circles
	m.LocalPoint = circleA.P
	m.LocalNormal = mgl64.Vec2{}
	m.PointCount = 1

	m.Points[0].LocalPoint = circleB.P
	m.Points[0].ID = ContactID{}
}

// CollidePolygonAndCircle computes the manifold between a polygon (A) and a
// circle (B).
func CollidePolygonAndCircle(m *Manifold, polygonA *Polygon, xfA geom.Transform, circleB *Circle, xfB geom.Transform) {
	m.PointCount = 0

	// Circle center in the polygon frame.
	cLocal := xfA.ApplyT(xfB.Apply(circleB.P))

	normalIndex := 0
	separation := -math.MaxFloat64
	radius := polygonA.R + circleB.R
	count := len(polygonA.Vertices)
	vertices := polygonA.Vertices
	normals := polygonA.Normals

	for i := 0; i < count; i++ {
		s := normals[i].Dot(cLocal.Sub(vertices[i]))
		if s > radius {
			return
		}
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	vertIndex1 := normalIndex
	vertIndex2 := 0
	if vertIndex1+1 < count {
		vertIndex2 = vertIndex1 + 1
	}
	v1 := vertices[vertIndex1]
	v2 := vertices[vertIndex2]

	setPoint := func(normal, point mgl64.Vec2) {
		m.PointCount = 1
		m.Type = FaceA
		m.LocalNormal = normal
		m.LocalPoint = point
		m.Points[0].LocalPoint = circleB.P
		m.Points[0].ID = ContactID{}
	}

	// Center inside the polygon.
	if separation < geom.Epsilon {
		setPoint(normals[normalIndex], v1.Add(v2).Mul(0.5))
		return
	}

	u1 := cLocal.Sub(v1).Dot(v2.Sub(v1))
	u2 := cLocal.Sub(v2).Dot(v1.Sub(v2))
	switch {
	case u1 <= 0:
		if geom.DistanceSquared(cLocal, v1) > radius*radius {
			return
		}
		n, _ := geom.Normalize(cLocal.Sub(v1))
		setPoint(n, v1)
	case u2 <= 0:
		if geom.DistanceSquared(cLocal, v2) > radius*radius {
			return
		}
		n, _ := geom.Normalize(cLocal.Sub(v2))
		setPoint(n, v2)
	default:
		faceCenter := v1.Add(v2).Mul(0.5)
		if cLocal.Sub(faceCenter).Dot(normals[vertIndex1]) > radius {
			return
		}
		setPoint(normals[vertIndex1], faceCenter)
	}
}

// findMaxSeparation returns the edge of poly1 with the largest separation
// from poly2 and that separation.
func findMaxSeparation(poly1 *Polygon, xf1 geom.Transform, poly2 *Polygon, xf2 geom.Transform) (int, float64) {
	xf := geom.MulTTransform(xf2, xf1)

	bestIndex := 0
	maxSeparation := -math.MaxFloat64
	for i := range poly1.Vertices {
		// poly1 normal and vertex in frame 2
		n := xf.Q.Apply(poly1.Normals[i])
		v1 := xf.Apply(poly1.Vertices[i])

		si := math.MaxFloat64
		for _, v2 := range poly2.Vertices {
			if sij := n.Dot(v2.Sub(v1)); sij < si {
				si = sij
			}
		}

		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}
	return bestIndex, maxSeparation
}

func findIncidentEdge(poly1 *Polygon, xf1 geom.Transform, edge1 int, poly2 *Polygon, xf2 geom.Transform) [2]ClipVertex {
	// Reference normal in poly2's frame.
	normal1 := xf2.Q.ApplyT(xf1.Q.Apply(poly1.Normals[edge1]))

	index := 0
	minDot := math.MaxFloat64
	for i, n := range poly2.Normals {
		if dot := normal1.Dot(n); dot < minDot {
			minDot = dot
			index = i
		}
	}

	i1 := index
	i2 := 0
	if i1+1 < len(poly2.Vertices) {
		i2 = i1 + 1
	}

	return [2]ClipVertex{
		{
			V:  xf2.Apply(poly2.Vertices[i1]),
			ID: ContactID{IndexA: uint8(edge1), IndexB: uint8(i1), TypeA: FeatureFace, TypeB: FeatureVertex},
		},
		{
			V:  xf2.Apply(poly2.Vertices[i2]),
			ID: ContactID{IndexA: uint8(edge1), IndexB: uint8(i2), TypeA: FeatureFace, TypeB: FeatureVertex},
		},
	}
}

// CollidePolygons computes the manifold between two polygons: the reference
// face is the axis of least penetration, the incident edge of the other
// polygon is clipped against the reference face side planes.
func CollidePolygons(m *Manifold, polyA *Polygon, xfA geom.Transform, polyB *Polygon, xfB geom.Transform) {
	m.PointCount = 0
	totalRadius := polyA.R + polyB.R

	edgeA, separationA := findMaxSeparation(polyA, xfA, polyB, xfB)
	if separationA > totalRadius {
		return
	}

	edgeB, separationB := findMaxSeparation(polyB, xfB, polyA, xfA)
	if separationB > totalRadius {
		return
	}

	poly1, poly2 := polyA, polyB
	xf1, xf2 := xfA, xfB
	edge1 := edgeA
	flip := false
	m.Type = FaceA

	const tol = 0.1 * LinearSlop
	if separationB > separationA+tol {
		poly1, poly2 = polyB, polyA
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		flip = true
		m.Type = FaceB
	}

	incidentEdge := findIncidentEdge(poly1, xf1, edge1, poly2, xf2)

	count1 := len(poly1.Vertices)
	iv1 := edge1
	iv2 := 0
	if edge1+1 < count1 {
		iv2 = edge1 + 1
	}

	v11 := poly1.Vertices[iv1]
	v12 := poly1.Vertices[iv2]

	localTangent, _ := geom.Normalize(v12.Sub(v11))
	localNormal := geom.CrossVS(localTangent, 1.0)
	planePoint := v11.Add(v12).Mul(0.5)

	tangent := xf1.Q.Apply(localTangent)
	normal := geom.CrossVS(tangent, 1.0)

	v11 = xf1.Apply(v11)
	v12 = xf1.Apply(v12)

	frontOffset := normal.Dot(v11)

	// Side offsets, extended by the skin.
	sideOffset1 := -tangent.Dot(v11) + totalRadius
	sideOffset2 := tangent.Dot(v12) + totalRadius

	var clipPoints1, clipPoints2 [2]ClipVertex
	if np := ClipSegmentToLine(&clipPoints1, incidentEdge, tangent.Mul(-1), sideOffset1, iv1); np < 2 {
		return
	}
	if np := ClipSegmentToLine(&clipPoints2, clipPoints1, tangent, sideOffset2, iv2); np < 2 {
		return
	}

	m.LocalNormal = localNormal
	m.LocalPoint = planePoint

	pointCount := 0
	for i := 0; i < MaxManifoldPoints; i++ {
		separation := normal.Dot(clipPoints2[i].V) - frontOffset
		if separation > totalRadius {
			continue
		}

		cp := &m.Points[pointCount]
		cp.LocalPoint = xf2.ApplyT(clipPoints2[i].V)
		cp.ID = clipPoints2[i].ID
		if flip {
			cf := cp.ID
			cp.ID = ContactID{IndexA: cf.IndexB, IndexB: cf.IndexA, TypeA: cf.TypeB, TypeB: cf.TypeA}
		}
		pointCount++
	}
	m.PointCount = pointCount
}

// TestOverlap reports whether two convex shapes touch, skins included. It
// runs the matching narrow-phase routine into a scratch manifold.
func TestOverlap(shapeA Shape, indexA int, shapeB Shape, indexB int, xfA, xfB geom.Transform) bool {
	var m Manifold
	switch a := shapeA.(type) {
	case *Circle:
		switch b := shapeB.(type) {
		case *Circle:
			CollideCircles(&m, a, xfA, b, xfB)
		case *Polygon:
			CollidePolygonAndCircle(&m, b, xfB, a, xfA)
		}
	case *Polygon:
		switch b := shapeB.(type) {
		case *Circle:
			CollidePolygonAndCircle(&m, a, xfA, b, xfB)
		case *Polygon:
			CollidePolygons(&m, a, xfA, b, xfB)
		}
	}
	return m.PointCount > 0
}
