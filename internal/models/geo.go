package models

// GeoPoint is a WGS84 longitude/latitude pair in degrees.
type GeoPoint struct {
	Lng float64 `json:"lng" binding:"longitude"`
	Lat float64 `json:"lat" binding:"latitude"`
}

// Shape is the geometry kind an annotation type is drawn with.
type Shape string

const (
	ShapeNone    Shape = ""
	ShapePoint   Shape = "point"
	ShapeLine    Shape = "line"
	ShapePolygon Shape = "polygon"
)

// MinPoints returns the minimum number of vertices a finalized geometry of this shape needs.
func (s Shape) MinPoints() int {
	switch s {
	case ShapePoint:
		return 1
	case ShapeLine:
		return 2
	case ShapePolygon:
		return 3
	default:
		return 0
	}
}

// Geometry is either a single point or an ordered point sequence.
// Polygon sequences are open rings: the first vertex is not repeated at the end.
type Geometry struct {
	Shape  Shape
	Point  GeoPoint
	Points []GeoPoint
}

// PointGeometry wraps a single coordinate.
func PointGeometry(p GeoPoint) Geometry {
	return Geometry{Shape: ShapePoint, Point: p}
}

// PathGeometry wraps a line or polygon vertex sequence. The slice is copied.
func PathGeometry(shape Shape, points []GeoPoint) Geometry {
	return Geometry{Shape: shape, Points: clonePoints(points)}
}

// Valid reports whether the geometry carries enough vertices for its shape.
func (g Geometry) Valid() bool {
	switch g.Shape {
	case ShapePoint:
		return true
	case ShapeLine, ShapePolygon:
		return len(g.Points) >= g.Shape.MinPoints()
	default:
		return false
	}
}

// ClosedRing returns points with the first vertex appended, for rendering polygon fills.
func ClosedRing(points []GeoPoint) []GeoPoint {
	if len(points) == 0 {
		return nil
	}
	ring := make([]GeoPoint, 0, len(points)+1)
	ring = append(ring, points...)
	return append(ring, points[0])
}

func clonePoints(points []GeoPoint) []GeoPoint {
	if points == nil {
		return nil
	}
	out := make([]GeoPoint, len(points))
	copy(out, points)
	return out
}
