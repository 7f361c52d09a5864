package drawing

import "github.com/spot-annotator/backend/internal/models"

// Tool is the active map tool: the pointer or one tool per annotation type.
type Tool string

// ToolPointer selects and inspects existing annotations; it draws nothing.
const ToolPointer Tool = "pointer"

// ToolFor returns the drawing tool for an annotation type.
func ToolFor(t models.AnnotationType) Tool {
	return Tool(t)
}

// AnnotationType returns the type drawn by the tool, if any.
func (t Tool) AnnotationType() (models.AnnotationType, bool) {
	at := models.AnnotationType(t)
	return at, at.Valid()
}

// Shape returns the geometry the tool collects, or ShapeNone for the pointer.
func (t Tool) Shape() models.Shape {
	if at, ok := t.AnnotationType(); ok {
		return at.Shape()
	}
	return models.ShapeNone
}

// Instructions is the hint shown while the tool is active.
func (t Tool) Instructions() string {
	switch t.Shape() {
	case models.ShapePoint:
		return "Click on the map to place a " + models.AnnotationType(t).Info().Name
	case models.ShapeLine:
		return "Click to add points. Double-click to finish the line."
	case models.ShapePolygon:
		return "Click to add vertices. Double-click to close the polygon."
	default:
		return ""
	}
}
