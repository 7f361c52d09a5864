package syncengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/spot-annotator/backend/internal/models"
)

// CreateSpot appends s to local state and persists it. On failure the spot
// is removed and any annotation assigned to it meanwhile is unassigned.
func (e *Engine) CreateSpot(s models.Spot) *Op {
	e.mu.Lock()
	e.state.Spots = appendCopy(e.state.Spots, s)
	seq := e.begin(s.ID)
	e.mu.Unlock()
	e.publish()

	return e.run("spot create", s.ID, func(ctx context.Context) error {
		saved, err := e.spots.Create(ctx, s)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.settle(s.ID, seq) {
			return err
		}
		if err != nil {
			annotations, _ := unassign(e.state.Annotations, s.ID)
			e.state = State{
				Annotations: annotations,
				Spots:       remove(e.state.Spots, s.ID, spotID),
			}
			e.fail("create spot", err)
			return err
		}
		e.state.Spots = replace(e.state.Spots, saved, spotID)
		return nil
	})
}

// UpdateSpot applies patch locally and persists it.
func (e *Engine) UpdateSpot(id uuid.UUID, patch models.SpotPatch) *Op {
	e.mu.Lock()
	i := indexOf(e.state.Spots, id, spotID)
	if i < 0 {
		e.mu.Unlock()
		return failedOp(fmt.Errorf("spot %s: %w", id, ErrNotFound))
	}
	original := e.state.Spots[i]
	e.state.Spots = replace(e.state.Spots, models.ApplySpotUpdate(original, patch), spotID)
	seq := e.begin(id)
	e.mu.Unlock()
	e.publish()

	return e.run("spot update", id, func(ctx context.Context) error {
		saved, err := e.spots.Update(ctx, id, patch)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.settle(id, seq) {
			return err
		}
		if err != nil {
			e.state.Spots = replace(e.state.Spots, original, spotID)
			e.fail("update spot", err)
			return err
		}
		e.state.Spots = replace(e.state.Spots, saved, spotID)
		return nil
	})
}

// DeleteSpot removes the spot and unassigns every local annotation that
// referenced it, in one step. On failure the spot and its assignments are
// restored, again in one step.
func (e *Engine) DeleteSpot(id uuid.UUID) *Op {
	e.mu.Lock()
	i := indexOf(e.state.Spots, id, spotID)
	if i < 0 {
		e.mu.Unlock()
		return failedOp(fmt.Errorf("spot %s: %w", id, ErrNotFound))
	}
	original := e.state.Spots[i]
	annotations, unassigned := unassign(e.state.Annotations, id)
	e.state = State{
		Annotations: annotations,
		Spots:       remove(e.state.Spots, id, spotID),
	}
	seq := e.begin(id)
	e.mu.Unlock()
	e.publish()

	return e.run("spot delete", id, func(ctx context.Context) error {
		err := e.spots.Delete(ctx, id)

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.settle(id, seq) || err == nil {
			return err
		}
		e.state = State{
			Annotations: reassign(e.state.Annotations, unassigned, id),
			Spots:       restore(e.state.Spots, i, original, spotID),
		}
		e.fail("delete spot", err)
		return err
	})
}

// unassign returns a copy of annotations with every reference to spot
// cleared, and the ids of the annotations it changed.
func unassign(annotations []models.Annotation, spot uuid.UUID) ([]models.Annotation, map[uuid.UUID]struct{}) {
	out := make([]models.Annotation, len(annotations))
	changed := make(map[uuid.UUID]struct{})
	for i, a := range annotations {
		if ref := a.Meta().SpotID; ref != nil && *ref == spot {
			a = models.WithSpot(a, nil)
			changed[a.Meta().ID] = struct{}{}
		}
		out[i] = a
	}
	return out, changed
}

// reassign points the annotations in ids back at spot, unless they were
// assigned elsewhere in the meantime.
func reassign(annotations []models.Annotation, ids map[uuid.UUID]struct{}, spot uuid.UUID) []models.Annotation {
	out := make([]models.Annotation, len(annotations))
	for i, a := range annotations {
		meta := a.Meta()
		if _, ok := ids[meta.ID]; ok && meta.SpotID == nil {
			a = models.WithSpot(a, &spot)
		}
		out[i] = a
	}
	return out
}
