package impulse2d

import (
	"github.com/gekko3d/impulse2d/collision"
	"github.com/gekko3d/impulse2d/geom"
)

// evaluateFunc writes the manifold of shapeA against shapeB. shapeA is
// always of the pair's primary type.
type evaluateFunc func(m *collision.Manifold, shapeA collision.Shape, xfA geom.Transform, shapeB collision.Shape, xfB geom.Transform)

type contactRegistration struct {
	evaluate evaluateFunc
	// primary is false for the mirrored entry; fixtures are swapped before
	// the contact is initialized.
	primary bool
}

var contactRegistry [collision.ShapeTypeCount][collision.ShapeTypeCount]contactRegistration

func registerContact(evaluate evaluateFunc, typeA, typeB collision.ShapeType) {
	contactRegistry[typeA][typeB] = contactRegistration{evaluate: evaluate, primary: true}
	if typeA != typeB {
		contactRegistry[typeB][typeA] = contactRegistration{evaluate: evaluate, primary: false}
	}
}

func lookupContact(typeA, typeB collision.ShapeType) (contactRegistration, bool) {
	if typeA < 0 || typeA >= collision.ShapeTypeCount || typeB < 0 || typeB >= collision.ShapeTypeCount {
		return contactRegistration{}, false
	}
	reg := contactRegistry[typeA][typeB]
	return reg, reg.evaluate != nil
}

func init() {
	registerContact(evaluateCircles, collision.ShapeCircle, collision.ShapeCircle)
	registerContact(evaluatePolygonAndCircle, collision.ShapePolygon, collision.ShapeCircle)
	registerContact(evaluatePolygons, collision.ShapePolygon, collision.ShapePolygon)
}

func evaluateCircles(m *collision.Manifold, shapeA collision.Shape, xfA geom.Transform, shapeB collision.Shape, xfB geom.Transform) {
	collision.CollideCircles(m, shapeA.(*collision.Circle), xfA, shapeB.(*collision.Circle), xfB)
}

func evaluatePolygonAndCircle(m *collision.Manifold, shapeA collision.Shape, xfA geom.Transform, shapeB collision.Shape, xfB geom.Transform) {
	collision.CollidePolygonAndCircle(m, shapeA.(*collision.Polygon), xfA, shapeB.(*collision.Circle), xfB)
}

func evaluatePolygons(m *collision.Manifold, shapeA collision.Shape, xfA geom.Transform, shapeB collision.Shape, xfB geom.Transform) {
	collision.CollidePolygons(m, shapeA.(*collision.Polygon), xfA, shapeB.(*collision.Polygon), xfB)
}
