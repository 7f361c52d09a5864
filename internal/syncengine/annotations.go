package syncengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/spot-annotator/backend/internal/models"
)

// CreateAnnotation appends a to local state and persists it. On success the
// local entry is replaced with the server record; on failure it is removed.
func (e *Engine) CreateAnnotation(a models.Annotation) *Op {
	id := a.Meta().ID

	e.mu.Lock()
	e.state.Annotations = appendCopy(e.state.Annotations, a)
	seq := e.begin(id)
	e.mu.Unlock()
	e.publish()

	return e.run("annotation create", id, func(ctx context.Context) error {
		saved, err := e.annotations.Create(ctx, a)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.settle(id, seq) {
			return err
		}
		if err != nil {
			e.state.Annotations = remove(e.state.Annotations, id, annotationID)
			e.fail("create annotation", err)
			return err
		}
		e.state.Annotations = replace(e.state.Annotations, e.attached(saved), annotationID)
		return nil
	})
}

// UpdateAnnotation applies patch locally and persists it. On failure the
// annotation is restored to its value before the call, minus any reference
// to a spot deleted in the meantime.
func (e *Engine) UpdateAnnotation(id uuid.UUID, patch models.Patch) *Op {
	e.mu.Lock()
	i := indexOf(e.state.Annotations, id, annotationID)
	if i < 0 {
		e.mu.Unlock()
		return failedOp(fmt.Errorf("annotation %s: %w", id, ErrNotFound))
	}
	updated, err := models.ApplyUpdate(e.state.Annotations[i], patch)
	if err != nil {
		e.mu.Unlock()
		return failedOp(err)
	}
	original := e.state.Annotations[i]
	e.state.Annotations = replace(e.state.Annotations, updated, annotationID)
	seq := e.begin(id)
	e.mu.Unlock()
	e.publish()

	return e.run("annotation update", id, func(ctx context.Context) error {
		saved, err := e.annotations.Update(ctx, id, patch)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.settle(id, seq) {
			return err
		}
		if err != nil {
			e.state.Annotations = replace(e.state.Annotations, e.attached(original), annotationID)
			e.fail("update annotation", err)
			return err
		}
		e.state.Annotations = replace(e.state.Annotations, e.attached(saved), annotationID)
		return nil
	})
}

// DeleteAnnotation removes the annotation locally and persists the removal.
// On failure the annotation is put back at its former position.
func (e *Engine) DeleteAnnotation(id uuid.UUID) *Op {
	e.mu.Lock()
	i := indexOf(e.state.Annotations, id, annotationID)
	if i < 0 {
		e.mu.Unlock()
		return failedOp(fmt.Errorf("annotation %s: %w", id, ErrNotFound))
	}
	original := e.state.Annotations[i]
	e.state.Annotations = remove(e.state.Annotations, id, annotationID)
	seq := e.begin(id)
	e.mu.Unlock()
	e.publish()

	return e.run("annotation delete", id, func(ctx context.Context) error {
		err := e.annotations.Delete(ctx, id)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.settle(id, seq) || err == nil {
			return err
		}
		e.state.Annotations = restore(e.state.Annotations, i, e.attached(original), annotationID)
		e.fail("delete annotation", err)
		return err
	})
}
