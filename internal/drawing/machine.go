// Package drawing turns map clicks into finalized annotation geometries.
//
// A Machine is either idle or collecting vertices for the active line or
// polygon tool. Point tools finalize on a single click. Every change to the
// collected vertices is published as a GeoJSON preview.
package drawing

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/spot-annotator/backend/internal/models"
)

// State of a Machine.
type State int

const (
	Idle State = iota
	Collecting
)

func (s State) String() string {
	if s == Collecting {
		return "collecting"
	}
	return "idle"
}

// Finalized is a completed geometry for the annotation type of the tool that drew it.
type Finalized struct {
	Type     models.AnnotationType
	Geometry models.Geometry
}

// Option configures a Machine.
type Option func(*Machine)

// WithPreviewListener registers fn to receive the preview after every change.
func WithPreviewListener(fn func(*geojson.FeatureCollection)) Option {
	return func(m *Machine) { m.onPreview = fn }
}

// WithFinalizeListener registers fn to receive every finalized geometry.
func WithFinalizeListener(fn func(Finalized)) Option {
	return func(m *Machine) { m.onFinalize = fn }
}

// Machine is not safe for concurrent use; callers serialize map events.
type Machine struct {
	tool   Tool
	points []models.GeoPoint

	onPreview  func(*geojson.FeatureCollection)
	onFinalize func(Finalized)
}

// NewMachine returns an idle machine with the pointer tool selected.
func NewMachine(opts ...Option) *Machine {
	m := &Machine{tool: ToolPointer}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Tool returns the active tool.
func (m *Machine) Tool() Tool {
	return m.tool
}

// State reports whether vertices are being collected.
func (m *Machine) State() State {
	if len(m.points) > 0 {
		return Collecting
	}
	return Idle
}

// Points returns a copy of the collected vertices.
func (m *Machine) Points() []models.GeoPoint {
	out := make([]models.GeoPoint, len(m.points))
	copy(out, m.points)
	return out
}

// SelectTool activates t. Switching to a different tool discards any
// collected vertices.
func (m *Machine) SelectTool(t Tool) {
	if t == m.tool {
		return
	}
	m.tool = t
	m.reset()
}

// Cancel discards collected vertices without finalizing.
func (m *Machine) Cancel() {
	m.reset()
}

// Click handles a single map click at p. With a point tool it returns the
// finalized geometry immediately; with a line or polygon tool it appends p.
func (m *Machine) Click(p models.GeoPoint) (Finalized, bool) {
	at, ok := m.tool.AnnotationType()
	if !ok {
		return Finalized{}, false
	}

	if at.Shape() == models.ShapePoint {
		return m.finalize(Finalized{Type: at, Geometry: models.PointGeometry(p)}), true
	}

	m.points = append(m.points, p)
	m.publish()
	return Finalized{}, false
}

// DoubleClick finishes the current line or polygon when enough vertices
// have been collected. Otherwise it does nothing.
func (m *Machine) DoubleClick() (Finalized, bool) {
	at, ok := m.tool.AnnotationType()
	if !ok || len(m.points) == 0 {
		return Finalized{}, false
	}

	shape := at.Shape()
	if shape == models.ShapePoint || len(m.points) < shape.MinPoints() {
		return Finalized{}, false
	}

	f := Finalized{Type: at, Geometry: models.PathGeometry(shape, m.points)}
	m.reset()
	return m.finalize(f), true
}

// Preview renders the collected vertices: one point feature per vertex, a
// closed polygon once a polygon tool has three vertices, and the open line
// through all vertices once there are two.
func (m *Machine) Preview() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range m.points {
		fc.Append(geojson.NewFeature(toOrb(p)))
	}
	if len(m.points) < 2 {
		return fc
	}

	ls := make(orb.LineString, len(m.points))
	for i, p := range m.points {
		ls[i] = toOrb(p)
	}
	if m.tool.Shape() == models.ShapePolygon && len(m.points) >= 3 {
		closed := models.ClosedRing(m.points)
		ring := make(orb.Ring, len(closed))
		for i, p := range closed {
			ring[i] = toOrb(p)
		}
		fc.Append(geojson.NewFeature(orb.Polygon{ring}))
	}
	fc.Append(geojson.NewFeature(ls))
	return fc
}

func (m *Machine) reset() {
	if len(m.points) == 0 {
		return
	}
	m.points = nil
	m.publish()
}

func (m *Machine) publish() {
	if m.onPreview != nil {
		m.onPreview(m.Preview())
	}
}

func (m *Machine) finalize(f Finalized) Finalized {
	if m.onFinalize != nil {
		m.onFinalize(f)
	}
	return f
}

func toOrb(p models.GeoPoint) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}
