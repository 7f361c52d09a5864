package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/database"
	"github.com/spot-annotator/backend/internal/models"
)

// DeleteSpotResponse reports how many annotations lost their spot.
type DeleteSpotResponse struct {
	Unassigned int64 `json:"unassigned"`
}

// ListSpots handles retrieving the caller's spots.
// @Summary List spots
// @Tags spots
// @Produce json
// @Success 200 {object} models.SpotsResponse
// @Router /api/v1/spots [get]
func (h *Handler) ListSpots(c *gin.Context) {
	spots, err := h.spots(c.Request.Context(), owner(c))
	if err != nil {
		h.logger.Error("Failed to get spots", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to retrieve spots")
		return
	}
	c.JSON(http.StatusOK, models.SpotsResponse{Data: spots})
}

// CreateSpot handles saving a new spot.
// @Summary Create spot
// @Tags spots
// @Accept json
// @Produce json
// @Param spot body models.Spot true "Spot"
// @Success 201 {object} models.SpotResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/spots [post]
func (h *Handler) CreateSpot(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := owner(c)

	var spot models.Spot
	if err := c.ShouldBindJSON(&spot); err != nil {
		h.logger.Warn("Invalid spot request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if spot.ID == uuid.Nil {
		spot.ID = models.NewID()
	}
	spot.OwnerID = ownerID
	now := models.Now()
	spot.CreatedAt = now
	spot.UpdatedAt = now

	saved, err := h.repo.CreateSpot(ctx, spot)
	if err != nil {
		h.logger.Error("Failed to create spot", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to create spot")
		return
	}

	h.invalidate(ctx, ownerID)
	c.JSON(http.StatusCreated, models.SpotResponse{Data: saved})
}

// GetSpot handles retrieving a single spot by ID.
// @Summary Get spot by ID
// @Tags spots
// @Produce json
// @Param id path string true "Spot ID"
// @Success 200 {object} models.SpotResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/spots/{id} [get]
func (h *Handler) GetSpot(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	spot, err := h.repo.GetSpot(c.Request.Context(), owner(c), id)
	if err != nil {
		h.logger.Error("Failed to get spot", zap.String("id", id.String()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to retrieve spot")
		return
	}
	if spot == nil {
		respondError(c, http.StatusNotFound, "not_found", "spot not found")
		return
	}
	c.JSON(http.StatusOK, models.SpotResponse{Data: *spot})
}

// UpdateSpot handles partial spot updates.
// @Summary Update spot
// @Tags spots
// @Accept json
// @Produce json
// @Param id path string true "Spot ID"
// @Param patch body models.SpotPatch true "Fields to update"
// @Success 200 {object} models.SpotResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/spots/{id} [patch]
func (h *Handler) UpdateSpot(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := owner(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	var patch models.SpotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		h.logger.Warn("Invalid spot update", zap.Error(err))
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	existing, err := h.repo.GetSpot(ctx, ownerID, id)
	if err != nil {
		h.logger.Error("Failed to get spot", zap.String("id", id.String()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to retrieve spot")
		return
	}
	if existing == nil {
		respondError(c, http.StatusNotFound, "not_found", "spot not found")
		return
	}

	saved, err := h.repo.UpdateSpot(ctx, models.ApplySpotUpdate(*existing, patch))
	if errors.Is(err, database.ErrNotFound) {
		respondError(c, http.StatusNotFound, "not_found", "spot not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to update spot", zap.String("id", id.String()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to update spot")
		return
	}

	h.invalidate(ctx, ownerID)
	c.JSON(http.StatusOK, models.SpotResponse{Data: saved})
}

// DeleteSpot handles deleting a spot. Its annotations are kept and become
// unassigned.
// @Summary Delete spot
// @Tags spots
// @Param id path string true "Spot ID"
// @Success 200 {object} DeleteSpotResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/spots/{id} [delete]
func (h *Handler) DeleteSpot(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := owner(c)
	id, ok := pathID(c)
	if !ok {
		return
	}

	n, err := h.repo.DeleteSpot(ctx, ownerID, id)
	if errors.Is(err, database.ErrNotFound) {
		respondError(c, http.StatusNotFound, "not_found", "spot not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to delete spot", zap.String("id", id.String()), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to delete spot")
		return
	}

	h.invalidate(ctx, ownerID)
	c.JSON(http.StatusOK, DeleteSpotResponse{Unassigned: n})
}
