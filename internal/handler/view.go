package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/models"
	"github.com/spot-annotator/backend/internal/projection"
)

// FlagsResponse wraps the visibility flags in the API response.
type FlagsResponse struct {
	Data projection.Flags `json:"data"`
}

// ViewResponse wraps a grouped view in the API response.
type ViewResponse struct {
	Data projection.View `json:"data"`
}

// TypeResponse describes one annotation type.
type TypeResponse struct {
	Type models.AnnotationType `json:"type"`
	models.TypeInfo
}

func (h *Handler) visibility(c *gin.Context) *projection.VisibilityStore {
	return projection.NewVisibilityStore(h.cache, owner(c), h.logger)
}

// GetVisibility returns the caller's visibility flags.
// @Summary Get visibility flags
// @Tags view
// @Produce json
// @Success 200 {object} FlagsResponse
// @Router /api/v1/visibility [get]
func (h *Handler) GetVisibility(c *gin.Context) {
	flags := h.visibility(c).Load(c.Request.Context())
	c.JSON(http.StatusOK, FlagsResponse{Data: flags})
}

// SetVisibility replaces the caller's visibility flags. Unknown types are
// dropped and missing ones fall back to visible.
// @Summary Set visibility flags
// @Tags view
// @Accept json
// @Produce json
// @Success 200 {object} FlagsResponse
// @Router /api/v1/visibility [put]
func (h *Handler) SetVisibility(c *gin.Context) {
	var flags projection.Flags
	if err := c.ShouldBindJSON(&flags); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	saved := h.visibility(c).Set(c.Request.Context(), projection.Merge(flags))
	c.JSON(http.StatusOK, FlagsResponse{Data: saved})
}

// View returns the caller's annotations grouped by spot or by type.
// @Summary Grouped annotation view
// @Tags view
// @Produce json
// @Param group_by query string false "spot or type"
// @Success 200 {object} ViewResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/view [get]
func (h *Handler) View(c *gin.Context) {
	ctx := c.Request.Context()
	ownerID := owner(c)

	groupBy := projection.GroupBy(c.DefaultQuery("group_by", string(projection.GroupBySpot)))
	if !groupBy.Valid() {
		respondError(c, http.StatusBadRequest, "invalid_request", "group_by must be spot or type")
		return
	}

	annotations, err := h.annotations(ctx, ownerID)
	if err != nil {
		h.logger.Error("Failed to get annotations", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to retrieve annotations")
		return
	}
	spots, err := h.spots(ctx, ownerID)
	if err != nil {
		h.logger.Error("Failed to get spots", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to retrieve spots")
		return
	}

	flags := h.visibility(c).Load(ctx)
	c.JSON(http.StatusOK, ViewResponse{Data: projection.Project(annotations, spots, flags, groupBy)})
}

// Types lists the annotation types in display order.
// @Summary Annotation types
// @Tags view
// @Produce json
// @Router /api/v1/types [get]
func (h *Handler) Types(c *gin.Context) {
	out := make([]TypeResponse, len(models.AllTypes))
	for i, t := range models.AllTypes {
		out[i] = TypeResponse{Type: t, TypeInfo: t.Info()}
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
