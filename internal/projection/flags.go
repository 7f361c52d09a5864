package projection

import "github.com/spot-annotator/backend/internal/models"

// Flags maps annotation types to their map visibility.
type Flags map[models.AnnotationType]bool

// DefaultFlags shows every type.
func DefaultFlags() Flags {
	f := make(Flags, len(models.AllTypes))
	for _, t := range models.AllTypes {
		f[t] = true
	}
	return f
}

// Visible reports whether t is drawn. Types without a flag are visible.
func (f Flags) Visible(t models.AnnotationType) bool {
	v, ok := f[t]
	return !ok || v
}

// Merge returns the defaults overlaid with the known types from stored.
// Unknown keys are dropped.
func Merge(stored Flags) Flags {
	out := DefaultFlags()
	for t, v := range stored {
		if t.Valid() {
			out[t] = v
		}
	}
	return out
}

func (f Flags) clone() Flags {
	out := make(Flags, len(f))
	for t, v := range f {
		out[t] = v
	}
	return out
}
