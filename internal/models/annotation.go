// Package models contains the data models for the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Common holds the fields shared by every annotation variant.
type Common struct {
	ID        uuid.UUID      `json:"id"`
	Type      AnnotationType `json:"type"`
	OwnerID   string         `json:"owner_id"`
	Label     string         `json:"label"`
	Notes     string         `json:"notes"`
	SpotID    *uuid.UUID     `json:"spot_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Meta returns the shared fields. It is promoted to every variant.
func (c Common) Meta() Common {
	return c
}

// Annotation is the closed set of annotation variants. Only the types
// declared in this file implement it; use a type switch to reach the
// variant-specific fields.
type Annotation interface {
	Meta() Common
	Geometry() Geometry

	withMeta(c Common) Annotation
	withGeometry(g Geometry) Annotation
	payload() any
}

// TargetZone marks a single fishing target.
type TargetZone struct {
	Common
	TargetZoneData
}

// TargetZoneData is the variant-specific part of a TargetZone.
type TargetZoneData struct {
	Position GeoPoint `json:"position"`
	Title    string   `json:"title" binding:"max=256"`
	Depth    float64  `json:"depth"`
}

// DepthPoint records a sounding at a single point.
type DepthPoint struct {
	Common
	DepthPointData
}

// DepthPointData is the variant-specific part of a DepthPoint.
type DepthPointData struct {
	Position GeoPoint `json:"position"`
	Depth    float64  `json:"depth"`
}

// Isobath is an open line of constant depth.
type Isobath struct {
	Common
	IsobathData
}

// IsobathData is the variant-specific part of an Isobath.
type IsobathData struct {
	Points []GeoPoint `json:"points" binding:"dive"`
	Depth  float64    `json:"depth"`
}

// Dropoff is an open line where the bottom falls from a shallow to a deep depth.
type Dropoff struct {
	Common
	DropoffData
}

// DropoffData is the variant-specific part of a Dropoff.
type DropoffData struct {
	Points       []GeoPoint `json:"points" binding:"dive"`
	ShallowDepth float64    `json:"shallow_depth"`
	DeepDepth    float64    `json:"deep_depth"`
}

// SpawnZone is a polygon where a species spawns.
type SpawnZone struct {
	Common
	SpawnZoneData
}

// SpawnZoneData is the variant-specific part of a SpawnZone.
type SpawnZoneData struct {
	Points     []GeoPoint `json:"points" binding:"dive"`
	Species    string     `json:"species" binding:"max=256"`
	Season     Season     `json:"season"`
	Confidence Confidence `json:"confidence"`
}

// AccumulationZone is a polygon where food accumulates.
type AccumulationZone struct {
	Common
	AccumulationZoneData
}

// AccumulationZoneData is the variant-specific part of an AccumulationZone.
type AccumulationZoneData struct {
	Points     []GeoPoint `json:"points" binding:"dive"`
	FoodType   string     `json:"food_type" binding:"max=256"`
	Season     Season     `json:"season"`
	Confidence Confidence `json:"confidence"`
}

// Note is a free-text marker at a single point.
type Note struct {
	Common
	NoteData
}

// NoteData is the variant-specific part of a Note.
type NoteData struct {
	Position GeoPoint `json:"position"`
}

func (v TargetZone) Geometry() Geometry       { return PointGeometry(v.Position) }
func (v DepthPoint) Geometry() Geometry       { return PointGeometry(v.Position) }
func (v Isobath) Geometry() Geometry          { return PathGeometry(ShapeLine, v.Points) }
func (v Dropoff) Geometry() Geometry          { return PathGeometry(ShapeLine, v.Points) }
func (v SpawnZone) Geometry() Geometry        { return PathGeometry(ShapePolygon, v.Points) }
func (v AccumulationZone) Geometry() Geometry { return PathGeometry(ShapePolygon, v.Points) }
func (v Note) Geometry() Geometry             { return PointGeometry(v.Position) }

func (v TargetZone) withMeta(c Common) Annotation {
	v.Common = c
	return v
}

func (v DepthPoint) withMeta(c Common) Annotation {
	v.Common = c
	return v
}

func (v Isobath) withMeta(c Common) Annotation {
	v.Common = c
	return v
}

func (v Dropoff) withMeta(c Common) Annotation {
	v.Common = c
	return v
}

func (v SpawnZone) withMeta(c Common) Annotation {
	v.Common = c
	return v
}

func (v AccumulationZone) withMeta(c Common) Annotation {
	v.Common = c
	return v
}

func (v Note) withMeta(c Common) Annotation {
	v.Common = c
	return v
}

func (v TargetZone) withGeometry(g Geometry) Annotation {
	v.Position = g.Point
	return v
}

func (v DepthPoint) withGeometry(g Geometry) Annotation {
	v.Position = g.Point
	return v
}

func (v Isobath) withGeometry(g Geometry) Annotation {
	v.Points = clonePoints(g.Points)
	return v
}

func (v Dropoff) withGeometry(g Geometry) Annotation {
	v.Points = clonePoints(g.Points)
	return v
}

func (v SpawnZone) withGeometry(g Geometry) Annotation {
	v.Points = clonePoints(g.Points)
	return v
}

func (v AccumulationZone) withGeometry(g Geometry) Annotation {
	v.Points = clonePoints(g.Points)
	return v
}

func (v Note) withGeometry(g Geometry) Annotation {
	v.Position = g.Point
	return v
}

func (v TargetZone) payload() any       { return v.TargetZoneData }
func (v DepthPoint) payload() any       { return v.DepthPointData }
func (v Isobath) payload() any          { return v.IsobathData }
func (v Dropoff) payload() any          { return v.DropoffData }
func (v SpawnZone) payload() any        { return v.SpawnZoneData }
func (v AccumulationZone) payload() any { return v.AccumulationZoneData }
func (v Note) payload() any             { return v.NoteData }

// zero returns an empty variant for t, or nil when t is unknown.
func zero(t AnnotationType) Annotation {
	switch t {
	case TypeTargetZone:
		return TargetZone{}
	case TypeDepthPoint:
		return DepthPoint{}
	case TypeIsobath:
		return Isobath{}
	case TypeDropoff:
		return Dropoff{}
	case TypeSpawnZone:
		return SpawnZone{}
	case TypeAccumulationZone:
		return AccumulationZone{}
	case TypeNote:
		return Note{}
	default:
		return nil
	}
}

// WithSpot returns a copy of a assigned to spotID. A nil spotID unassigns it.
// UpdatedAt is left untouched: this mirrors the database foreign key action.
func WithSpot(a Annotation, spotID *uuid.UUID) Annotation {
	c := a.Meta()
	c.SpotID = cloneID(spotID)
	return a.withMeta(c)
}

// WithID returns a copy of a with the given identifier.
func WithID(a Annotation, id uuid.UUID) Annotation {
	c := a.Meta()
	c.ID = id
	return a.withMeta(c)
}

// WithOwner returns a copy of a owned by ownerID.
func WithOwner(a Annotation, ownerID string) Annotation {
	c := a.Meta()
	c.OwnerID = ownerID
	return a.withMeta(c)
}

// WithTimestamps returns a copy of a with the given creation and update times.
func WithTimestamps(a Annotation, createdAt, updatedAt time.Time) Annotation {
	c := a.Meta()
	c.CreatedAt = createdAt
	c.UpdatedAt = updatedAt
	return a.withMeta(c)
}

// WithLabel returns a copy of a carrying label. It is meant for the creation
// path only; labels never change afterwards.
func WithLabel(a Annotation, label string) Annotation {
	c := a.Meta()
	c.Label = label
	return a.withMeta(c)
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
