package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Now is the clock used for annotation timestamps.
var Now = func() time.Time {
	return time.Now().UTC()
}

// NewID generates identifiers for new records.
var NewID = uuid.New

// NewDraft builds a fully populated annotation of type t around a finalized
// geometry, with type defaults for every variant field. The geometry shape
// must match t; a mismatch is a caller bug and panics with *InvariantError.
func NewDraft(t AnnotationType, g Geometry, label, ownerID string) Annotation {
	v := zero(t)
	if v == nil {
		panic(&InvariantError{Op: "NewDraft", Msg: fmt.Sprintf("unknown annotation type %q", t)})
	}
	if g.Shape != t.Shape() {
		panic(&InvariantError{Op: "NewDraft", Msg: fmt.Sprintf("%s needs %s geometry, got %q", t, t.Shape(), g.Shape)})
	}
	if !g.Valid() {
		panic(&InvariantError{Op: "NewDraft", Msg: fmt.Sprintf("%s needs at least %d points, got %d", t, t.Shape().MinPoints(), len(g.Points))})
	}

	now := Now()
	v = v.withMeta(Common{
		ID:        NewID(),
		Type:      t,
		OwnerID:   ownerID,
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}).withGeometry(g)

	switch d := v.(type) {
	case SpawnZone:
		d.Season = SeasonSpring
		d.Confidence = ConfidenceSpeculative
		return d
	case AccumulationZone:
		d.Season = SeasonAll
		d.Confidence = ConfidenceSpeculative
		return d
	}
	return v
}
