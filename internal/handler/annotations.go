package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/database"
	"github.com/spot-annotator/backend/internal/labels"
	"github.com/spot-annotator/backend/internal/models"
)

// ListAnnotations handles retrieving the caller's annotations.
// @Summary List annotations
// @Tags annotations
// @Produce json
// @Success 200 {object} models.AnnotationsResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/annotations [get]
func (h *Handler) ListAnnotations(c *gin.Context) {
	annotations, err := h.annotations(c.Request.Context(), owner(c))
	if err != nil {
		h.logger.Error("Failed to get annotations", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to retrieve annotations")
		return
	}
	c.JSON(http.StatusOK, models.AnnotationsResponse{Data: models.Wrap(annotations)})
}

// CreateAnnotation handles the creation of an annotation. The client may
// choose the id; an empty label is allocated from the caller's labels of
// the same type.
// @Summary Create annotation
// @Tags annotations
// @Accept json
// @Produce json
// @Param annotation body models.Envelope true "Annotation"
// @Success 201 {object} models.AnnotationResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/annotations [post]
func (h *Handler) CreateAnnotation(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := owner(c)

	var env models.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		h.logger.Warn("Invalid create request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if env.Annotation == nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "annotation is required")
		return
	}
	if err := binding.Validator.ValidateStruct(env.Annotation); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	a := models.WithOwner(env.Annotation, ownerID)
	meta := a.Meta()
	if meta.ID == uuid.Nil {
		a = models.WithID(a, models.NewID())
	}
	now := models.Now()
	a = models.WithTimestamps(a, now, now)

	if meta.Label == "" {
		existing, err := h.repo.ListLabels(ctx, ownerID, meta.Type)
		if err != nil {
			h.logger.Error("Failed to list labels", zap.Error(err))
			respondError(c, http.StatusInternalServerError, "internal_error", "failed to allocate label")
			return
		}
		a = models.WithLabel(a, labels.Next(existing))
	} else if !labels.Valid(meta.Label) {
		respondError(c, http.StatusBadRequest, "invalid_request", "label must consist of letters A-Z")
		return
	}

	if !h.spotOwned(c, ownerID, meta.SpotID) {
		return
	}

	saved, err := h.repo.CreateAnnotation(ctx, a)
	switch {
	case errors.Is(err, database.ErrLabelTaken):
		respondError(c, http.StatusConflict, "conflict", "label already in use for this type")
		return
	case errors.Is(err, database.ErrIDTaken):
		respondError(c, http.StatusConflict, "conflict", "an annotation with this id already exists")
		return
	case errors.Is(err, database.ErrNoSuchSpot):
		respondError(c, http.StatusBadRequest, "invalid_request", "spot_id does not reference one of your spots")
		return
	case err != nil:
		h.logger.Error("Failed to create annotation", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to create annotation")
		return
	}

	h.invalidate(ctx, ownerID)
	c.JSON(http.StatusCreated, models.AnnotationResponse{Data: models.Envelope{Annotation: saved}})
}

// GetAnnotation handles retrieving a single annotation by ID.
// @Summary Get annotation by ID
// @Tags annotations
// @Produce json
// @Param id path string true "Annotation ID"
// @Success 200 {object} models.AnnotationResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/annotations/{id} [get]
func (h *Handler) GetAnnotation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	a, err := h.repo.GetAnnotation(c.Request.Context(), owner(c), id)
	if err != nil {
		h.logger.Error("Failed to get annotation", zap.String("id", id.String()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to retrieve annotation")
		return
	}
	if a == nil {
		respondError(c, http.StatusNotFound, "not_found", "annotation not found")
		return
	}
	c.JSON(http.StatusOK, models.AnnotationResponse{Data: models.Envelope{Annotation: a}})
}

// UpdateAnnotation handles partial updates. Identity fields cannot change.
// @Summary Update annotation
// @Tags annotations
// @Accept json
// @Produce json
// @Param id path string true "Annotation ID"
// @Param patch body models.Patch true "Fields to update"
// @Success 200 {object} models.AnnotationResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/annotations/{id} [patch]
func (h *Handler) UpdateAnnotation(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := owner(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var patch models.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("Invalid update request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := validatePatch(patch); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	existing, err := h.repo.GetAnnotation(ctx, ownerID, id)
	if err != nil {
		h.logger.Error("Failed to get annotation", zap.String("id", id.String()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to retrieve annotation")
		return
	}
	if existing == nil {
		respondError(c, http.StatusNotFound, "not_found", "annotation not found")
		return
	}
	if !patch.ClearSpot && !h.spotOwned(c, ownerID, patch.SpotID) {
		return
	}

	updated, err := models.ApplyUpdate(existing, patch)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	saved, err := h.repo.UpdateAnnotation(ctx, updated)
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", "annotation not found")
		return
	case errors.Is(err, database.ErrNoSuchSpot):
		respondError(c, http.StatusBadRequest, "invalid_request", "spot_id does not reference one of your spots")
		return
	case err != nil:
		h.logger.Error("Failed to update annotation", zap.String("id", id.String()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to update annotation")
		return
	}

	h.invalidate(ctx, ownerID)
	c.JSON(http.StatusOK, models.AnnotationResponse{Data: models.Envelope{Annotation: saved}})
}

// DeleteAnnotation handles deleting an annotation. Its label is not reused.
// @Summary Delete annotation
// @Tags annotations
// @Param id path string true "Annotation ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/annotations/{id} [delete]
func (h *Handler) DeleteAnnotation(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := owner(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	err := h.repo.DeleteAnnotation(ctx, ownerID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(c, http.StatusNotFound, "not_found", "annotation not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to delete annotation", zap.String("id", id.String()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to delete annotation")
		return
	}

	h.invalidate(ctx, ownerID)
	c.Status(http.StatusNoContent)
}

// validatePatch range-checks the coordinates of a patch. Patch carries no
// binding tags of its own because it decodes through a wire struct.
func validatePatch(p models.Patch) error {
	if p.Position != nil {
		if err := binding.Validator.ValidateStruct(p.Position); err != nil {
			return err
		}
	}
	for _, pt := range p.Points {
		if err := binding.Validator.ValidateStruct(pt); err != nil {
			return err
		}
	}
	return nil
}
