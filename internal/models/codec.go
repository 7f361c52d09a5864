package models

import (
	"encoding/json"
	"fmt"
)

// Validate checks the invariants of a decoded annotation: a known type,
// enough vertices for its shape and known enum values.
func Validate(a Annotation) error {
	meta := a.Meta()
	if !meta.Type.Valid() {
		return fmt.Errorf("%w: type %q", ErrInvalidEnum, meta.Type)
	}
	g := a.Geometry()
	if !g.Valid() {
		return fmt.Errorf("%w: %s needs at least %d points, got %d", ErrInvalidGeometry, meta.Type, g.Shape.MinPoints(), len(g.Points))
	}
	switch v := a.(type) {
	case SpawnZone:
		return validateZone(v.Season, v.Confidence)
	case AccumulationZone:
		return validateZone(v.Season, v.Confidence)
	}
	return nil
}

func validateZone(s Season, c Confidence) error {
	if !s.Valid() {
		return fmt.Errorf("%w: season %q", ErrInvalidEnum, s)
	}
	if !c.Valid() {
		return fmt.Errorf("%w: confidence %q", ErrInvalidEnum, c)
	}
	return nil
}

// DecodeAnnotation parses a flat JSON annotation, dispatching on its "type" field.
func DecodeAnnotation(data []byte) (Annotation, error) {
	var head struct {
		Type AnnotationType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}

	var (
		a   Annotation
		err error
	)
	switch head.Type {
	case TypeTargetZone:
		var v TargetZone
		err = json.Unmarshal(data, &v)
		a = v
	case TypeDepthPoint:
		var v DepthPoint
		err = json.Unmarshal(data, &v)
		a = v
	case TypeIsobath:
		var v Isobath
		err = json.Unmarshal(data, &v)
		a = v
	case TypeDropoff:
		var v Dropoff
		err = json.Unmarshal(data, &v)
		a = v
	case TypeSpawnZone:
		var v SpawnZone
		err = json.Unmarshal(data, &v)
		a = v
	case TypeAccumulationZone:
		var v AccumulationZone
		err = json.Unmarshal(data, &v)
		a = v
	case TypeNote:
		var v Note
		err = json.Unmarshal(data, &v)
		a = v
	default:
		return nil, fmt.Errorf("%w: type %q", ErrInvalidEnum, head.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Payload encodes the variant-specific fields of a as a JSON object.
// The shared fields are stored separately.
func Payload(a Annotation) ([]byte, error) {
	return json.Marshal(a.payload())
}

// Assemble rebuilds an annotation from its shared fields and a payload
// produced by Payload. Unknown payload keys are ignored so that stored
// records survive variant fields being added or removed.
func Assemble(c Common, payload []byte) (Annotation, error) {
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	var (
		a   Annotation
		err error
	)
	switch c.Type {
	case TypeTargetZone:
		v := TargetZone{Common: c}
		err = json.Unmarshal(payload, &v.TargetZoneData)
		a = v
	case TypeDepthPoint:
		v := DepthPoint{Common: c}
		err = json.Unmarshal(payload, &v.DepthPointData)
		a = v
	case TypeIsobath:
		v := Isobath{Common: c}
		err = json.Unmarshal(payload, &v.IsobathData)
		a = v
	case TypeDropoff:
		v := Dropoff{Common: c}
		err = json.Unmarshal(payload, &v.DropoffData)
		a = v
	case TypeSpawnZone:
		v := SpawnZone{Common: c}
		err = json.Unmarshal(payload, &v.SpawnZoneData)
		a = v
	case TypeAccumulationZone:
		v := AccumulationZone{Common: c}
		err = json.Unmarshal(payload, &v.AccumulationZoneData)
		a = v
	case TypeNote:
		v := Note{Common: c}
		err = json.Unmarshal(payload, &v.NoteData)
		a = v
	default:
		return nil, fmt.Errorf("%w: type %q", ErrInvalidEnum, c.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", c.Type, err)
	}
	return a, nil
}

// Envelope carries an Annotation through encoding/json.
type Envelope struct {
	Annotation Annotation
}

// MarshalJSON encodes the wrapped variant as a flat object.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Annotation == nil {
		return []byte("null"), nil
	}
	return json.Marshal(e.Annotation)
}

// UnmarshalJSON decodes and validates any annotation variant.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	a, err := DecodeAnnotation(data)
	if err != nil {
		return err
	}
	e.Annotation = a
	return nil
}

// Wrap converts annotations into envelopes for encoding.
func Wrap(as []Annotation) []Envelope {
	out := make([]Envelope, len(as))
	for i, a := range as {
		out[i] = Envelope{Annotation: a}
	}
	return out
}

// Unwrap extracts the annotations from decoded envelopes.
func Unwrap(es []Envelope) []Annotation {
	out := make([]Annotation, len(es))
	for i, e := range es {
		out[i] = e.Annotation
	}
	return out
}
