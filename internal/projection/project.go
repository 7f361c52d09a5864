// Package projection groups annotations for display and tracks which
// annotation types are drawn on the map.
package projection

import (
	"github.com/google/uuid"
	"github.com/twpayne/go-polyline"

	"github.com/spot-annotator/backend/internal/models"
)

// GroupBy selects the outer partition of a View.
type GroupBy string

const (
	GroupBySpot GroupBy = "spot"
	GroupByType GroupBy = "type"
)

func (g GroupBy) Valid() bool {
	return g == GroupBySpot || g == GroupByType
}

// UnassignedName is the display name of the bucket holding annotations without a spot.
const UnassignedName = "Unassigned"

// AllName is the display name of the single bucket produced by GroupByType.
const AllName = "All annotations"

// View is the grouped listing of a user's annotations.
type View struct {
	GroupBy GroupBy  `json:"group_by"`
	Buckets []Bucket `json:"buckets"`
}

// Bucket holds the annotations of one spot, or of no spot when SpotID is nil.
type Bucket struct {
	SpotID *uuid.UUID `json:"spot_id"`
	Name   string     `json:"name"`
	Count  int        `json:"count"`
	Groups []Group    `json:"groups"`
}

// Group is one annotation type within a bucket. Hidden groups still list
// their items; Visible only controls map rendering.
type Group struct {
	Type    models.AnnotationType `json:"type"`
	Name    string                `json:"name"`
	Color   string                `json:"color"`
	Visible bool                  `json:"visible"`
	Items   []Item                `json:"items"`
}

// Item is one annotation in a group. Path is the encoded polyline of line
// and polygon geometries.
type Item struct {
	ID         uuid.UUID       `json:"id"`
	Label      string          `json:"label"`
	Path       string          `json:"path,omitempty"`
	Annotation models.Envelope `json:"annotation"`
}

// Project partitions annotations into buckets and type groups. It has no
// side effects and returns equal views for equal inputs. Annotations that
// reference a spot missing from spots land in the unassigned bucket.
func Project(annotations []models.Annotation, spots []models.Spot, flags Flags, groupBy GroupBy) View {
	if groupBy == GroupByType {
		b := newBucket(nil, AllName, flags)
		for _, a := range annotations {
			b.add(a)
		}
		return View{GroupBy: groupBy, Buckets: []Bucket{b}}
	}

	buckets := make([]Bucket, 0, len(spots)+1)
	index := make(map[uuid.UUID]int, len(spots))
	for _, s := range spots {
		if _, dup := index[s.ID]; dup {
			continue
		}
		id := s.ID
		index[id] = len(buckets)
		buckets = append(buckets, newBucket(&id, s.Name, flags))
	}
	unassigned := len(buckets)
	buckets = append(buckets, newBucket(nil, UnassignedName, flags))

	for _, a := range annotations {
		i := unassigned
		if ref := a.Meta().SpotID; ref != nil {
			if j, ok := index[*ref]; ok {
				i = j
			}
		}
		buckets[i].add(a)
	}
	return View{GroupBy: GroupBySpot, Buckets: buckets}
}

func newBucket(spotID *uuid.UUID, name string, flags Flags) Bucket {
	groups := make([]Group, len(models.AllTypes))
	for i, t := range models.AllTypes {
		info := t.Info()
		groups[i] = Group{
			Type:    t,
			Name:    info.Name,
			Color:   info.Color,
			Visible: flags.Visible(t),
			Items:   []Item{},
		}
	}
	return Bucket{SpotID: spotID, Name: name, Groups: groups}
}

func (b *Bucket) add(a models.Annotation) {
	meta := a.Meta()
	for i := range b.Groups {
		if b.Groups[i].Type == meta.Type {
			b.Groups[i].Items = append(b.Groups[i].Items, Item{
				ID:         meta.ID,
				Label:      meta.Label,
				Path:       encodePath(a.Geometry()),
				Annotation: models.Envelope{Annotation: a},
			})
			b.Count++
			return
		}
	}
}

// Visible filters annotations down to the types that should be drawn.
func Visible(annotations []models.Annotation, flags Flags) []models.Annotation {
	out := make([]models.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if flags.Visible(a.Meta().Type) {
			out = append(out, a)
		}
	}
	return out
}

func encodePath(g models.Geometry) string {
	if g.Shape != models.ShapeLine && g.Shape != models.ShapePolygon {
		return ""
	}
	coords := make([][]float64, len(g.Points))
	for i, p := range g.Points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}
