// Package labels assigns short alphabetic names (A, B, ..., Z, AA, AB, ...)
// to annotations. Labels are scoped per owner and annotation type.
package labels

import (
	"github.com/spot-annotator/backend/internal/models"
)

// Next returns the label that follows the greatest well-formed label in
// existing, ordered by length and then alphabetically. Entries that are not
// made only of the letters A-Z are ignored. Freed labels are never reused:
// the result always extends past the current maximum.
func Next(existing []string) string {
	top := ""
	for _, l := range existing {
		if !Valid(l) {
			continue
		}
		if top == "" || Less(top, l) {
			top = l
		}
	}
	if top == "" {
		return "A"
	}
	return increment(top)
}

// Less orders labels by length, then alphabetically, so that "Z" < "AA".
func Less(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// Existing collects the labels in use for type t.
func Existing(annotations []models.Annotation, t models.AnnotationType) []string {
	var out []string
	for _, a := range annotations {
		if meta := a.Meta(); meta.Type == t {
			out = append(out, meta.Label)
		}
	}
	return out
}

// NextFor returns the next label for type t among annotations.
func NextFor(annotations []models.Annotation, t models.AnnotationType) string {
	return Next(Existing(annotations, t))
}

// Valid reports whether l is a non-empty run of A-Z.
func Valid(l string) bool {
	if l == "" {
		return false
	}
	for i := 0; i < len(l); i++ {
		if l[i] < 'A' || l[i] > 'Z' {
			return false
		}
	}
	return true
}

// increment treats l as a base-26 odometer over A-Z.
func increment(l string) string {
	b := []byte(l)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 'Z' {
			b[i]++
			return string(b)
		}
		b[i] = 'A'
	}
	return "A" + string(b)
}
