package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Patch is a partial annotation update. Nil fields are left unchanged.
// Fields that do not exist on the target variant are ignored. Identity
// fields (id, type, owner, label, creation time) cannot be patched.
type Patch struct {
	Notes *string
	// SpotID assigns the annotation to a spot; ClearSpot unassigns it.
	SpotID    *uuid.UUID
	ClearSpot bool

	Position *GeoPoint
	Points   []GeoPoint

	Title        *string
	Depth        *float64
	ShallowDepth *float64
	DeepDepth    *float64
	Species      *string
	FoodType     *string
	Season       *Season
	Confidence   *Confidence
}

type patchWire struct {
	Notes        *string         `json:"notes,omitempty"`
	SpotID       json.RawMessage `json:"spot_id,omitempty"`
	Position     *GeoPoint       `json:"position,omitempty"`
	Points       []GeoPoint      `json:"points,omitempty"`
	Title        *string         `json:"title,omitempty"`
	Depth        *float64        `json:"depth,omitempty"`
	ShallowDepth *float64        `json:"shallow_depth,omitempty"`
	DeepDepth    *float64        `json:"deep_depth,omitempty"`
	Species      *string         `json:"species,omitempty"`
	FoodType     *string         `json:"food_type,omitempty"`
	Season       *Season         `json:"season,omitempty"`
	Confidence   *Confidence     `json:"confidence,omitempty"`
}

// MarshalJSON encodes a cleared spot as an explicit null.
func (p Patch) MarshalJSON() ([]byte, error) {
	w := patchWire{
		Notes:        p.Notes,
		Position:     p.Position,
		Points:       p.Points,
		Title:        p.Title,
		Depth:        p.Depth,
		ShallowDepth: p.ShallowDepth,
		DeepDepth:    p.DeepDepth,
		Species:      p.Species,
		FoodType:     p.FoodType,
		Season:       p.Season,
		Confidence:   p.Confidence,
	}
	switch {
	case p.ClearSpot:
		w.SpotID = json.RawMessage("null")
	case p.SpotID != nil:
		raw, err := json.Marshal(p.SpotID.String())
		if err != nil {
			return nil, err
		}
		w.SpotID = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON distinguishes an absent spot_id from an explicit null.
func (p *Patch) UnmarshalJSON(data []byte) error {
	var w patchWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Patch{
		Notes:        w.Notes,
		Position:     w.Position,
		Points:       w.Points,
		Title:        w.Title,
		Depth:        w.Depth,
		ShallowDepth: w.ShallowDepth,
		DeepDepth:    w.DeepDepth,
		Species:      w.Species,
		FoodType:     w.FoodType,
		Season:       w.Season,
		Confidence:   w.Confidence,
	}
	if len(w.SpotID) == 0 {
		return nil
	}
	if string(w.SpotID) == "null" {
		p.ClearSpot = true
		return nil
	}
	var raw string
	if err := json.Unmarshal(w.SpotID, &raw); err != nil {
		return fmt.Errorf("spot_id: %w", err)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return fmt.Errorf("spot_id: %w", err)
	}
	p.SpotID = &id
	return nil
}

func (p Patch) validate(shape Shape) error {
	if p.Season != nil && !p.Season.Valid() {
		return fmt.Errorf("%w: season %q", ErrInvalidEnum, *p.Season)
	}
	if p.Confidence != nil && !p.Confidence.Valid() {
		return fmt.Errorf("%w: confidence %q", ErrInvalidEnum, *p.Confidence)
	}
	if p.Position != nil && shape != ShapePoint {
		return fmt.Errorf("%w: position on %s geometry", ErrInvalidGeometry, shape)
	}
	if p.Points != nil {
		if shape == ShapePoint {
			return fmt.Errorf("%w: points on point geometry", ErrInvalidGeometry)
		}
		if len(p.Points) < shape.MinPoints() {
			return fmt.Errorf("%w: %s needs at least %d points, got %d", ErrInvalidGeometry, shape, shape.MinPoints(), len(p.Points))
		}
	}
	return nil
}

// ApplyUpdate merges p into a and refreshes UpdatedAt. The returned
// annotation is a copy; a is not modified.
func ApplyUpdate(a Annotation, p Patch) (Annotation, error) {
	meta := a.Meta()
	if err := p.validate(meta.Type.Shape()); err != nil {
		return nil, err
	}

	set(&meta.Notes, p.Notes)
	switch {
	case p.ClearSpot:
		meta.SpotID = nil
	case p.SpotID != nil:
		meta.SpotID = cloneID(p.SpotID)
	}
	meta.UpdatedAt = nextUpdatedAt(meta.UpdatedAt)
	a = a.withMeta(meta)

	if p.Position != nil {
		a = a.withGeometry(PointGeometry(*p.Position))
	}
	if p.Points != nil {
		a = a.withGeometry(PathGeometry(meta.Type.Shape(), p.Points))
	}

	switch v := a.(type) {
	case TargetZone:
		set(&v.Title, p.Title)
		set(&v.Depth, p.Depth)
		return v, nil
	case DepthPoint:
		set(&v.Depth, p.Depth)
		return v, nil
	case Isobath:
		set(&v.Depth, p.Depth)
		return v, nil
	case Dropoff:
		set(&v.ShallowDepth, p.ShallowDepth)
		set(&v.DeepDepth, p.DeepDepth)
		return v, nil
	case SpawnZone:
		set(&v.Species, p.Species)
		set(&v.Season, p.Season)
		set(&v.Confidence, p.Confidence)
		return v, nil
	case AccumulationZone:
		set(&v.FoodType, p.FoodType)
		set(&v.Season, p.Season)
		set(&v.Confidence, p.Confidence)
		return v, nil
	case Note:
		return v, nil
	default:
		panic(&InvariantError{Op: "ApplyUpdate", Msg: fmt.Sprintf("unhandled variant %T", a)})
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// nextUpdatedAt returns the current time, bumped past prev when the clock has
// not advanced, so that every mutation strictly increases UpdatedAt.
func nextUpdatedAt(prev time.Time) time.Time {
	now := Now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}
