// Package session holds the interactive state of one user's map: the
// active tool, the draft awaiting confirmation and the selected annotation.
// It routes finished drawings through label allocation into the sync engine.
//
// A Session is not safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/drawing"
	"github.com/spot-annotator/backend/internal/labels"
	"github.com/spot-annotator/backend/internal/models"
	"github.com/spot-annotator/backend/internal/projection"
	"github.com/spot-annotator/backend/internal/syncengine"
)

var (
	ErrNoDraft     = errors.New("no draft")
	ErrNoSelection = errors.New("no annotation selected")
)

type Session struct {
	owner      string
	engine     *syncengine.Engine
	visibility *projection.VisibilityStore
	machine    *drawing.Machine
	logger     *zap.Logger

	draft    models.Annotation
	selected uuid.UUID
}

// New creates a session for owner with the pointer tool selected.
// Drawing previews are forwarded to onPreview when it is not nil.
func New(owner string, engine *syncengine.Engine, visibility *projection.VisibilityStore, logger *zap.Logger, onPreview func(*geojson.FeatureCollection)) *Session {
	s := &Session{
		owner:      owner,
		engine:     engine,
		visibility: visibility,
		logger:     logger,
	}
	var opts []drawing.Option
	if onPreview != nil {
		opts = append(opts, drawing.WithPreviewListener(onPreview))
	}
	s.machine = drawing.NewMachine(opts...)
	return s
}

// Tool returns the active tool.
func (s *Session) Tool() drawing.Tool {
	return s.machine.Tool()
}

// SelectTool activates t. Any drawing in progress is discarded and the
// selection is cleared.
func (s *Session) SelectTool(t drawing.Tool) {
	s.machine.SelectTool(t)
	s.selected = uuid.Nil
}

// Instructions returns the hint for the active tool.
func (s *Session) Instructions() string {
	return s.machine.Tool().Instructions()
}

// Preview returns the in-progress drawing.
func (s *Session) Preview() *geojson.FeatureCollection {
	return s.machine.Preview()
}

// Click forwards a map click. It reports whether a draft was produced.
func (s *Session) Click(p models.GeoPoint) bool {
	f, ok := s.machine.Click(p)
	if ok {
		s.startDraft(f)
	}
	return ok
}

// DoubleClick forwards a map double-click. It reports whether a draft was produced.
func (s *Session) DoubleClick() bool {
	f, ok := s.machine.DoubleClick()
	if ok {
		s.startDraft(f)
	}
	return ok
}

// Cancel abandons the drawing in progress.
func (s *Session) Cancel() {
	s.machine.Cancel()
}

func (s *Session) startDraft(f drawing.Finalized) {
	label := labels.Next(s.engine.Labels(f.Type))
	s.draft = models.NewDraft(f.Type, f.Geometry, label, s.owner)
	s.machine.SelectTool(drawing.ToolPointer)
	s.logger.Debug("Draft created",
		zap.String("type", string(f.Type)),
		zap.String("label", label))
}

// Draft returns the annotation awaiting confirmation.
func (s *Session) Draft() (models.Annotation, bool) {
	return s.draft, s.draft != nil
}

// EditDraft applies p to the draft.
func (s *Session) EditDraft(p models.Patch) error {
	if s.draft == nil {
		return ErrNoDraft
	}
	updated, err := models.ApplyUpdate(s.draft, p)
	if err != nil {
		return err
	}
	s.draft = updated
	return nil
}

// DiscardDraft drops the draft without saving it.
func (s *Session) DiscardDraft() {
	s.draft = nil
}

// ConfirmDraft hands the draft to the sync engine and selects it. If the
// draft's label was taken while it was being edited, a fresh one is assigned.
func (s *Session) ConfirmDraft() (*syncengine.Op, error) {
	if s.draft == nil {
		return nil, ErrNoDraft
	}
	a := s.draft
	meta := a.Meta()
	if existing := s.engine.Labels(meta.Type); slices.Contains(existing, meta.Label) {
		a = models.WithLabel(a, labels.Next(existing))
	}

	s.draft = nil
	s.selected = meta.ID
	return s.engine.CreateAnnotation(a), nil
}

// Select marks the annotation with the given id as selected.
func (s *Session) Select(id uuid.UUID) error {
	if _, ok := s.engine.Annotation(id); !ok {
		return fmt.Errorf("annotation %s: %w", id, syncengine.ErrNotFound)
	}
	s.selected = id
	return nil
}

func (s *Session) Deselect() {
	s.selected = uuid.Nil
}

// Selected returns the selected annotation as currently held by the engine.
func (s *Session) Selected() (models.Annotation, bool) {
	if s.selected == uuid.Nil {
		return nil, false
	}
	return s.engine.Annotation(s.selected)
}

// UpdateSelected applies p to the selected annotation.
func (s *Session) UpdateSelected(p models.Patch) (*syncengine.Op, error) {
	if _, ok := s.Selected(); !ok {
		return nil, ErrNoSelection
	}
	return s.engine.UpdateAnnotation(s.selected, p), nil
}

// DeleteSelected deletes the selected annotation and clears the selection.
func (s *Session) DeleteSelected() (*syncengine.Op, error) {
	if _, ok := s.Selected(); !ok {
		return nil, ErrNoSelection
	}
	id := s.selected
	s.selected = uuid.Nil
	return s.engine.DeleteAnnotation(id), nil
}

// ToggleVisibility flips whether annotations of type t are drawn.
func (s *Session) ToggleVisibility(ctx context.Context, t models.AnnotationType) projection.Flags {
	return s.visibility.Toggle(ctx, t)
}

// View groups the engine's annotations for the sidebar.
func (s *Session) View(groupBy projection.GroupBy) projection.View {
	st := s.engine.State()
	return projection.Project(st.Annotations, st.Spots, s.visibility.Flags(), groupBy)
}

// Rendered returns the annotations to draw on the map.
func (s *Session) Rendered() []models.Annotation {
	return projection.Visible(s.engine.Annotations(), s.visibility.Flags())
}

// Status returns the last sync error, if any.
func (s *Session) Status() error {
	return s.engine.Err()
}
