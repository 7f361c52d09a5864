package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pt   = GeoPoint{Lng: -7.135, Lat: 54.005}
	line = []GeoPoint{{Lng: -7.1, Lat: 54.0}, {Lng: -7.2, Lat: 54.1}}
	ring = []GeoPoint{{Lng: -7.1, Lat: 54.0}, {Lng: -7.2, Lat: 54.1}, {Lng: -7.3, Lat: 54.0}}
)

func frozenClock(t *testing.T, at time.Time) {
	t.Helper()
	original := Now
	Now = func() time.Time { return at }
	t.Cleanup(func() { Now = original })
}

func TestNewDraft_Defaults(t *testing.T) {
	tests := []struct {
		name     string
		typ      AnnotationType
		geometry Geometry
		check    func(t *testing.T, a Annotation)
	}{
		{
			name:     "target zone",
			typ:      TypeTargetZone,
			geometry: PointGeometry(pt),
			check: func(t *testing.T, a Annotation) {
				v := a.(TargetZone)
				assert.Equal(t, pt, v.Position)
				assert.Empty(t, v.Title)
				assert.Zero(t, v.Depth)
			},
		},
		{
			name:     "dropoff",
			typ:      TypeDropoff,
			geometry: PathGeometry(ShapeLine, line),
			check: func(t *testing.T, a Annotation) {
				v := a.(Dropoff)
				assert.Equal(t, line, v.Points)
				assert.Zero(t, v.ShallowDepth)
				assert.Zero(t, v.DeepDepth)
			},
		},
		{
			name:     "spawn zone",
			typ:      TypeSpawnZone,
			geometry: PathGeometry(ShapePolygon, ring),
			check: func(t *testing.T, a Annotation) {
				v := a.(SpawnZone)
				assert.Equal(t, SeasonSpring, v.Season)
				assert.Equal(t, ConfidenceSpeculative, v.Confidence)
				assert.Len(t, v.Points, 3)
			},
		},
		{
			name:     "accumulation zone",
			typ:      TypeAccumulationZone,
			geometry: PathGeometry(ShapePolygon, ring),
			check: func(t *testing.T, a Annotation) {
				v := a.(AccumulationZone)
				assert.Equal(t, SeasonAll, v.Season)
				assert.Equal(t, ConfidenceSpeculative, v.Confidence)
				assert.Empty(t, v.FoodType)
			},
		},
		{
			name:     "note",
			typ:      TypeNote,
			geometry: PointGeometry(pt),
			check: func(t *testing.T, a Annotation) {
				assert.Equal(t, pt, a.(Note).Position)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewDraft(tt.typ, tt.geometry, "A", "angler@example.com")

			meta := a.Meta()
			assert.NotEqual(t, uuid.Nil, meta.ID)
			assert.Equal(t, tt.typ, meta.Type)
			assert.Equal(t, "A", meta.Label)
			assert.Equal(t, "angler@example.com", meta.OwnerID)
			assert.Empty(t, meta.Notes)
			assert.Nil(t, meta.SpotID)
			assert.Equal(t, meta.CreatedAt, meta.UpdatedAt)
			require.NoError(t, Validate(a))
			tt.check(t, a)
		})
	}
}

func TestNewDraft_ShapeMismatchPanics(t *testing.T) {
	assert.PanicsWithError(t,
		`invariant violated in NewDraft: isobath needs line geometry, got "point"`,
		func() { NewDraft(TypeIsobath, PointGeometry(pt), "A", "") })

	assert.Panics(t, func() { NewDraft(TypeDepthPoint, PathGeometry(ShapeLine, line), "A", "") })
	assert.Panics(t, func() { NewDraft(TypeSpawnZone, PathGeometry(ShapePolygon, line), "A", "") })
	assert.Panics(t, func() { NewDraft("pier", PointGeometry(pt), "A", "") })
}

func TestNewDraft_CopiesPoints(t *testing.T) {
	points := []GeoPoint{{Lng: 1, Lat: 1}, {Lng: 2, Lat: 2}}
	a := NewDraft(TypeIsobath, PathGeometry(ShapeLine, points), "A", "")

	points[0] = GeoPoint{Lng: 9, Lat: 9}

	assert.Equal(t, GeoPoint{Lng: 1, Lat: 1}, a.(Isobath).Points[0])
}

func TestApplyUpdate_RoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	frozenClock(t, created)
	draft := NewDraft(TypeDropoff, PathGeometry(ShapeLine, line), "C", "angler@example.com")

	// Same instant: UpdatedAt must still move forward.
	notes := "x"
	updated, err := ApplyUpdate(draft, Patch{Notes: &notes})
	require.NoError(t, err)

	before, after := draft.Meta(), updated.Meta()
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, before.Type, after.Type)
	assert.Equal(t, before.Label, after.Label)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, draft.Geometry(), updated.Geometry())
	assert.Equal(t, "x", after.Notes)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt))
	assert.Empty(t, before.Notes, "original must not be modified")
}

func TestApplyUpdate_VariantFields(t *testing.T) {
	zone := NewDraft(TypeSpawnZone, PathGeometry(ShapePolygon, ring), "A", "")
	species := "pike"
	season := SeasonWinter
	depth := 12.5
	spot := uuid.New()

	updated, err := ApplyUpdate(zone, Patch{Species: &species, Season: &season, Depth: &depth, SpotID: &spot})
	require.NoError(t, err)

	v := updated.(SpawnZone)
	assert.Equal(t, "pike", v.Species)
	assert.Equal(t, SeasonWinter, v.Season)
	assert.Equal(t, ConfidenceSpeculative, v.Confidence)
	require.NotNil(t, v.SpotID)
	assert.Equal(t, spot, *v.SpotID)

	cleared, err := ApplyUpdate(updated, Patch{ClearSpot: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Meta().SpotID)
}

func TestApplyUpdate_Rejects(t *testing.T) {
	point := NewDraft(TypeDepthPoint, PointGeometry(pt), "A", "")
	polygon := NewDraft(TypeAccumulationZone, PathGeometry(ShapePolygon, ring), "A", "")
	badSeason := Season("monsoon")
	badConfidence := Confidence("certain")

	tests := []struct {
		name   string
		target Annotation
		patch  Patch
		want   error
	}{
		{"points on point variant", point, Patch{Points: line}, ErrInvalidGeometry},
		{"position on polygon", polygon, Patch{Position: &pt}, ErrInvalidGeometry},
		{"too few polygon points", polygon, Patch{Points: line}, ErrInvalidGeometry},
		{"unknown season", polygon, Patch{Season: &badSeason}, ErrInvalidEnum},
		{"unknown confidence", polygon, Patch{Confidence: &badConfidence}, ErrInvalidEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ApplyUpdate(tt.target, tt.patch)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPatch_JSONSpotTriState(t *testing.T) {
	var absent Patch
	require.NoError(t, json.Unmarshal([]byte(`{"notes":"n"}`), &absent))
	assert.False(t, absent.ClearSpot)
	assert.Nil(t, absent.SpotID)
	require.NotNil(t, absent.Notes)

	var cleared Patch
	require.NoError(t, json.Unmarshal([]byte(`{"spot_id":null}`), &cleared))
	assert.True(t, cleared.ClearSpot)

	id := uuid.New()
	var assigned Patch
	require.NoError(t, json.Unmarshal([]byte(`{"spot_id":"`+id.String()+`"}`), &assigned))
	require.NotNil(t, assigned.SpotID)
	assert.Equal(t, id, *assigned.SpotID)

	data, err := json.Marshal(Patch{ClearSpot: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"spot_id":null}`, string(data))

	var bad Patch
	assert.Error(t, json.Unmarshal([]byte(`{"spot_id":"not-a-uuid"}`), &bad))
}

func TestDecodeAnnotation(t *testing.T) {
	original := NewDraft(TypeAccumulationZone, PathGeometry(ShapePolygon, ring), "B", "angler@example.com")
	data, err := json.Marshal(Envelope{Annotation: original})
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &parsed))
	assert.Equal(t, "accumulation_zone", parsed["type"])
	assert.Contains(t, parsed, "food_type")
	assert.Contains(t, parsed, "points")

	decoded, err := DecodeAnnotation(data)
	require.NoError(t, err)
	assert.IsType(t, AccumulationZone{}, decoded)
	assert.Equal(t, original.Meta().ID, decoded.Meta().ID)

	_, err = DecodeAnnotation([]byte(`{"type":"pier"}`))
	assert.ErrorIs(t, err, ErrInvalidEnum)

	_, err = DecodeAnnotation([]byte(`{"type":"isobath","points":[{"lng":1,"lat":1}]}`))
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestPayloadAssemble(t *testing.T) {
	original := NewDraft(TypeTargetZone, PointGeometry(pt), "A", "angler@example.com")
	title := "weed edge"
	original, err := ApplyUpdate(original, Patch{Title: &title})
	require.NoError(t, err)

	payload, err := Payload(original)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "owner_id")
	assert.Contains(t, string(payload), "weed edge")

	rebuilt, err := Assemble(original.Meta(), payload)
	require.NoError(t, err)
	assert.Equal(t, original, rebuilt)

	_, err = Assemble(Common{Type: "pier"}, payload)
	assert.ErrorIs(t, err, ErrInvalidEnum)
}

func TestWithSpot_KeepsUpdatedAt(t *testing.T) {
	spot := uuid.New()
	a := WithSpot(NewDraft(TypeNote, PointGeometry(pt), "A", ""), &spot)
	unassigned := WithSpot(a, nil)

	assert.Nil(t, unassigned.Meta().SpotID)
	assert.Equal(t, a.Meta().UpdatedAt, unassigned.Meta().UpdatedAt)
	assert.NotNil(t, a.Meta().SpotID)
}

func TestErrorResponse_Structure(t *testing.T) {
	response := ErrorResponse{
		Error:   "not_found",
		Message: "Annotation not found",
	}

	data, err := json.Marshal(response)
	assert.NoError(t, err)

	var parsed map[string]interface{}
	err = json.Unmarshal(data, &parsed)
	assert.NoError(t, err)

	assert.Equal(t, "not_found", parsed["error"])
	assert.Equal(t, "Annotation not found", parsed["message"])
}
