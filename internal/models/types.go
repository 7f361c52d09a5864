package models

// AnnotationType discriminates the annotation variants.
type AnnotationType string

const (
	TypeTargetZone       AnnotationType = "target_zone"
	TypeDepthPoint       AnnotationType = "depth_point"
	TypeIsobath          AnnotationType = "isobath"
	TypeDropoff          AnnotationType = "dropoff"
	TypeSpawnZone        AnnotationType = "spawn_zone"
	TypeAccumulationZone AnnotationType = "accumulation_zone"
	TypeNote             AnnotationType = "note"
)

// AllTypes lists every annotation type in display order.
var AllTypes = []AnnotationType{
	TypeTargetZone,
	TypeDepthPoint,
	TypeIsobath,
	TypeDropoff,
	TypeSpawnZone,
	TypeAccumulationZone,
	TypeNote,
}

// TypeInfo holds display metadata for an annotation type.
type TypeInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Shape Shape  `json:"shape"`
}

var typeInfo = map[AnnotationType]TypeInfo{
	TypeTargetZone:       {Name: "Target Zone", Color: "#ff6b35", Shape: ShapePoint},
	TypeDepthPoint:       {Name: "Depth Point", Color: "#4da6ff", Shape: ShapePoint},
	TypeIsobath:          {Name: "Isobath Line", Color: "#00c9a7", Shape: ShapeLine},
	TypeDropoff:          {Name: "Drop-off", Color: "#ff4444", Shape: ShapeLine},
	TypeSpawnZone:        {Name: "Spawning Zone", Color: "#4caf50", Shape: ShapePolygon},
	TypeAccumulationZone: {Name: "Accumulation Zone", Color: "#e040fb", Shape: ShapePolygon},
	TypeNote:             {Name: "Note", Color: "#ffffff", Shape: ShapePoint},
}

// Valid reports whether t is one of the known annotation types.
func (t AnnotationType) Valid() bool {
	_, ok := typeInfo[t]
	return ok
}

// Info returns the display metadata for t. Unknown types get a zero TypeInfo.
func (t AnnotationType) Info() TypeInfo {
	return typeInfo[t]
}

// Shape returns the geometry kind used to draw t.
func (t AnnotationType) Shape() Shape {
	return typeInfo[t].Shape
}

// Season of the year an observation applies to.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
	SeasonAll    Season = "all"
)

// Valid reports whether s is a known season.
func (s Season) Valid() bool {
	switch s {
	case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter, SeasonAll:
		return true
	}
	return false
}

// Confidence expresses how sure the author is about a zone.
type Confidence string

const (
	ConfidenceConfirmed   Confidence = "confirmed"
	ConfidenceLikely      Confidence = "likely"
	ConfidenceSpeculative Confidence = "speculative"
)

// Valid reports whether c is a known confidence level.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceConfirmed, ConfidenceLikely, ConfidenceSpeculative:
		return true
	}
	return false
}
