package labels

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spot-annotator/backend/internal/models"
)

func TestNext(t *testing.T) {
	tests := []struct {
		existing []string
		expected string
	}{
		{nil, "A"},
		{[]string{}, "A"},
		{[]string{"A"}, "B"},
		{[]string{"A", "B", "Z"}, "AA"},
		{[]string{"A", "Z", "AY"}, "AZ"},
		{[]string{"AZ"}, "BA"},
		{[]string{"ZZ"}, "AAA"},
		{[]string{"AY"}, "AZ"},
		{[]string{"B", "A"}, "C"},
		{[]string{"Z", "AA"}, "AB"},
		{[]string{"1", "a", "A-1", ""}, "A"},
		{[]string{"C", "note", "12"}, "D"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.existing), func(t *testing.T) {
			assert.Equal(t, tt.expected, Next(tt.existing))
		})
	}
}

func TestNext_DoesNotReuseGaps(t *testing.T) {
	// B was deleted; allocation continues after the maximum.
	assert.Equal(t, "D", Next([]string{"A", "C"}))
}

func TestNext_StrictlyGreater(t *testing.T) {
	sets := [][]string{
		{"A"},
		{"Z", "Y"},
		{"AZ", "ZZ", "B"},
		{"ZZZ", "AAAA"},
		{"Q", "QQ", "QQQ"},
	}

	for _, set := range sets {
		next := Next(set)
		for _, l := range set {
			assert.True(t, Less(l, next), "%s should follow %s", next, l)
		}
	}
}

func TestNext_DistinctInSequence(t *testing.T) {
	var used []string
	seen := map[string]bool{}
	for i := 0; i < 800; i++ {
		l := Next(used)
		assert.False(t, seen[l], "label %s assigned twice", l)
		seen[l] = true
		used = append(used, l)
	}
	assert.Equal(t, "ADT", used[len(used)-1])
}

func TestLess(t *testing.T) {
	assert.True(t, Less("Z", "AA"))
	assert.True(t, Less("A", "B"))
	assert.False(t, Less("AA", "Z"))
	assert.False(t, Less("A", "A"))
}

func TestNextFor_ScopedByType(t *testing.T) {
	pt := models.PointGeometry(models.GeoPoint{Lng: 1, Lat: 1})
	annotations := []models.Annotation{
		models.NewDraft(models.TypeNote, pt, "A", "u"),
		models.NewDraft(models.TypeNote, pt, "B", "u"),
		models.NewDraft(models.TypeDepthPoint, pt, "A", "u"),
	}

	assert.Equal(t, "C", NextFor(annotations, models.TypeNote))
	assert.Equal(t, "B", NextFor(annotations, models.TypeDepthPoint))
	assert.Equal(t, "A", NextFor(annotations, models.TypeTargetZone))
}
