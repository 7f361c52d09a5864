package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometry is returned when a geometry does not fit the annotation type.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidEnum is returned for an unknown type, season or confidence value.
	ErrInvalidEnum = errors.New("invalid enum value")

	// ErrUnauthenticated is returned by remote collaborators when the caller has no valid identity.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// InvariantError signals a broken programming contract. It is raised with panic.
type InvariantError struct {
	Op  string
	Msg string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Msg)
}
