package collision

import (
	"errors"
	"fmt"
	"math"

	"github.com/gekko3d/impulse2d/geom"
	"github.com/go-gl/mathgl/mgl64"
)

type ShapeType int

const (
	ShapeCircle ShapeType = iota
	ShapePolygon
	ShapeTypeCount
)

func (t ShapeType) String() string {
	switch t {
	case ShapeCircle:
		return "circle"
	case ShapePolygon:
		return "polygon"
	}
	return fmt.Sprintf("ShapeType(%d)", int(t))
}

// MassData is the mass, centroid and rotational inertia (about the shape
// origin) of a shape at a given density.
type MassData struct {
	Mass   float64
	Center mgl64.Vec2
	I      float64
}

// Shape is a convex collision shape in body coordinates.
type Shape interface {
	Type() ShapeType
	Radius() float64
	// ChildCount is 1 for every convex shape.
	ChildCount() int
	ComputeAABB(xf geom.Transform, childIndex int) AABB
	ComputeMass(density float64) MassData
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Lower mgl64.Vec2
	Upper mgl64.Vec2
}

// Overlaps reports whether a and b share any area, touching included.
func (a AABB) Overlaps(b AABB) bool {
	if b.Lower[0]-a.Upper[0] > 0 || b.Lower[1]-a.Upper[1] > 0 {
		return false
	}
	if a.Lower[0]-b.Upper[0] > 0 || a.Lower[1]-b.Upper[1] > 0 {
		return false
	}
	return true
}

func (a AABB) Combine(b AABB) AABB {
	return AABB{
		Lower: mgl64.Vec2{math.Min(a.Lower[0], b.Lower[0]), math.Min(a.Lower[1], b.Lower[1])},
		Upper: mgl64.Vec2{math.Max(a.Upper[0], b.Upper[0]), math.Max(a.Upper[1], b.Upper[1])},
	}
}

// Extend grows the box by margin on every side.
func (a AABB) Extend(margin float64) AABB {
	r := mgl64.Vec2{margin, margin}
	return AABB{Lower: a.Lower.Sub(r), Upper: a.Upper.Add(r)}
}

// Circle is a solid disc centered at P.
type Circle struct {
	P mgl64.Vec2
	R float64
}

func NewCircle(center mgl64.Vec2, radius float64) *Circle {
	return &Circle{P: center, R: radius}
}

func (c *Circle) Type() ShapeType { return ShapeCircle }
func (c *Circle) Radius() float64 { return c.R }
func (c *Circle) ChildCount() int { return 1 }

func (c *Circle) ComputeAABB(xf geom.Transform, _ int) AABB {
	p := xf.Apply(c.P)
	return AABB{
		Lower: mgl64.Vec2{p[0] - c.R, p[1] - c.R},
		Upper: mgl64.Vec2{p[0] + c.R, p[1] + c.R},
	}
}

func (c *Circle) ComputeMass(density float64) MassData {
	mass := density * math.Pi * c.R * c.R
	return MassData{
		Mass:   mass,
		Center: c.P,
		// inertia about the local origin
		I: mass * (0.5*c.R*c.R + c.P.Dot(c.P)),
	}
}

// Polygon is a convex polygon with counter-clockwise winding and a skin of
// PolygonRadius.
type Polygon struct {
	Centroid mgl64.Vec2
	Vertices []mgl64.Vec2
	Normals  []mgl64.Vec2
	R        float64
}

var (
	ErrTooFewVertices  = errors.New("collision: polygon needs at least 3 vertices")
	ErrTooManyVertices = fmt.Errorf("collision: polygon supports at most %d vertices", MaxPolygonVertices)
	ErrNotConvex       = errors.New("collision: polygon is not convex with counter-clockwise winding")
)

// NewBox returns an axis-aligned box with the given half extents centered on
// the body origin.
func NewBox(hx, hy float64) *Polygon {
	return &Polygon{
		Vertices: []mgl64.Vec2{{-hx, -hy}, {hx, -hy}, {hx, hy}, {-hx, hy}},
		Normals:  []mgl64.Vec2{{0, -1}, {1, 0}, {0, 1}, {-1, 0}},
		R:        PolygonRadius,
	}
}

// NewOrientedBox returns a box with half extents hx, hy, centered at center
// and rotated by angle in body coordinates.
func NewOrientedBox(hx, hy float64, center mgl64.Vec2, angle float64) *Polygon {
	p := NewBox(hx, hy)
	p.Centroid = center
	xf := geom.NewTransform(center, angle)
	for i := range p.Vertices {
		p.Vertices[i] = xf.Apply(p.Vertices[i])
		p.Normals[i] = xf.Q.Apply(p.Normals[i])
	}
	return p
}

// NewPolygon builds a polygon from convex, counter-clockwise vertices.
// Hull computation is left to the caller.
func NewPolygon(vertices []mgl64.Vec2) (*Polygon, error) {
	n := len(vertices)
	if n < 3 {
		return nil, ErrTooFewVertices
	}
	if n > MaxPolygonVertices {
		return nil, ErrTooManyVertices
	}

	p := &Polygon{
		Vertices: make([]mgl64.Vec2, n),
		Normals:  make([]mgl64.Vec2, n),
		R:        PolygonRadius,
	}
	copy(p.Vertices, vertices)

	for i := 0; i < n; i++ {
		edge := p.Vertices[(i+1)%n].Sub(p.Vertices[i])
		if edge.LenSqr() <= geom.Epsilon*geom.Epsilon {
			return nil, fmt.Errorf("vertex %d: %w", i, ErrNotConvex)
		}
		p.Normals[i], _ = geom.Normalize(geom.CrossVS(edge, 1.0))
	}

	for i := 0; i < n; i++ {
		next := p.Vertices[(i+2)%n].Sub(p.Vertices[(i+1)%n])
		edge := p.Vertices[(i+1)%n].Sub(p.Vertices[i])
		if geom.Cross(edge, next) <= 0 {
			return nil, fmt.Errorf("vertex %d: %w", (i+1)%n, ErrNotConvex)
		}
	}

	p.Centroid = polygonCentroid(p.Vertices)
	return p, nil
}

func polygonCentroid(vs []mgl64.Vec2) mgl64.Vec2 {
	var c mgl64.Vec2
	area := 0.0
	ref := vs[0]
	const inv3 = 1.0 / 3.0

	for i := 1; i+1 < len(vs); i++ {
		e1 := vs[i].Sub(ref)
		e2 := vs[i+1].Sub(ref)
		triArea := 0.5 * geom.Cross(e1, e2)
		area += triArea
		c = c.Add(e1.Add(e2).Mul(triArea * inv3))
	}
	return c.Mul(1.0 / area).Add(ref)
}

func (p *Polygon) Type() ShapeType { return ShapePolygon }
func (p *Polygon) Radius() float64 { return p.R }
func (p *Polygon) ChildCount() int { return 1 }

func (p *Polygon) ComputeAABB(xf geom.Transform, _ int) AABB {
	lower := xf.Apply(p.Vertices[0])
	upper := lower
	for _, v := range p.Vertices[1:] {
		w := xf.Apply(v)
		lower = mgl64.Vec2{math.Min(lower[0], w[0]), math.Min(lower[1], w[1])}
		upper = mgl64.Vec2{math.Max(upper[0], w[0]), math.Max(upper[1], w[1])}
	}
	return AABB{Lower: lower, Upper: upper}.Extend(p.R)
}

// ComputeMass integrates the polygon as a fan of triangles around its first
// vertex. The skin radius is ignored.
func (p *Polygon) ComputeMass(density float64) MassData {
	var center mgl64.Vec2
	area := 0.0
	inertia := 0.0
	s := p.Vertices[0]
	const inv3 = 1.0 / 3.0

	for i := 1; i+1 < len(p.Vertices); i++ {
		e1 := p.Vertices[i].Sub(s)
		e2 := p.Vertices[i+1].Sub(s)
		d := geom.Cross(e1, e2)

		triArea := 0.5 * d
		area += triArea
		center = center.Add(e1.Add(e2).Mul(triArea * inv3))

		intx2 := e1[0]*e1[0] + e2[0]*e1[0] + e2[0]*e2[0]
		inty2 := e1[1]*e1[1] + e2[1]*e1[1] + e2[1]*e2[1]
		inertia += (0.25 * inv3 * d) * (intx2 + inty2)
	}

	md := MassData{Mass: density * area}
	center = center.Mul(1.0 / area)
	md.Center = center.Add(s)

	// Inertia relative to s, shifted to the centroid, then to the origin.
	md.I = density * inertia
	md.I += md.Mass * (md.Center.Dot(md.Center) - center.Dot(center))
	return md
}
