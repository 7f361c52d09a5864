// Package handler provides the HTTP handlers for spots, annotations and their grouped view.
package handler

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/auth"
	"github.com/spot-annotator/backend/internal/cache"
	"github.com/spot-annotator/backend/internal/database"
	"github.com/spot-annotator/backend/internal/models"
)

// Handler provides HTTP handlers for the owner-scoped API.
type Handler struct {
	repo   database.Repository
	cache  cache.Cache
	logger *zap.Logger
}

var registerValidators sync.Once

// NewHandler creates a new handler.
func NewHandler(repo database.Repository, cache cache.Cache, logger *zap.Logger) *Handler {
	registerValidators.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("latitude", validateLatitude)
			_ = v.RegisterValidation("longitude", validateLongitude)
		}
	})

	return &Handler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// RegisterRoutes registers the handler routes on the given router group.
// Every route runs behind the given middleware, which must set the owner.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, middleware ...gin.HandlerFunc) {
	protected := rg.Group("", middleware...)

	protected.GET("/annotations", h.ListAnnotations)
	protected.POST("/annotations", h.CreateAnnotation)
	protected.GET("/annotations/:id", h.GetAnnotation)
	protected.PUT("/annotations/:id", h.UpdateAnnotation)
	protected.PATCH("/annotations/:id", h.UpdateAnnotation)
	protected.DELETE("/annotations/:id", h.DeleteAnnotation)

	protected.GET("/spots", h.ListSpots)
	protected.POST("/spots", h.CreateSpot)
	protected.GET("/spots/:id", h.GetSpot)
	protected.PUT("/spots/:id", h.UpdateSpot)
	protected.PATCH("/spots/:id", h.UpdateSpot)
	protected.DELETE("/spots/:id", h.DeleteSpot)

	protected.GET("/visibility", h.GetVisibility)
	protected.PUT("/visibility", h.SetVisibility)
	protected.GET("/view", h.View)

	rg.GET("/types", h.Types)
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, models.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// pathID parses the :id parameter, answering 400 when it is malformed.
func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// spotOwned reports whether spotID names a spot of owner. It answers the
// request itself when the spot is unknown or the lookup fails.
func (h *Handler) spotOwned(c *gin.Context, owner string, spotID *uuid.UUID) bool {
	if spotID == nil {
		return true
	}
	spot, err := h.repo.GetSpot(c.Request.Context(), owner, *spotID)
	if err != nil {
		h.logger.Error("Failed to get spot", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to retrieve spot")
		return false
	}
	if spot == nil {
		respondError(c, http.StatusBadRequest, "invalid_request", "spot_id does not reference one of your spots")
		return false
	}
	return true
}

// annotations returns the owner's annotations through the cache.
func (h *Handler) annotations(ctx context.Context, owner string) ([]models.Annotation, error) {
	if cached, ok := h.cache.GetAnnotations(ctx, owner); ok {
		h.logger.Debug("Returning cached annotations", zap.String("owner", owner))
		return cached, nil
	}
	annotations, err := h.repo.ListAnnotations(ctx, owner)
	if err != nil {
		return nil, err
	}
	_ = h.cache.SetAnnotations(ctx, owner, annotations)
	return annotations, nil
}

// spots returns the owner's spots through the cache.
func (h *Handler) spots(ctx context.Context, owner string) ([]models.Spot, error) {
	if cached, ok := h.cache.GetSpots(ctx, owner); ok {
		return cached, nil
	}
	spots, err := h.repo.ListSpots(ctx, owner)
	if err != nil {
		return nil, err
	}
	_ = h.cache.SetSpots(ctx, owner, spots)
	return spots, nil
}

func (h *Handler) invalidate(ctx context.Context, owner string) {
	_ = h.cache.Invalidate(ctx, owner)
}

func owner(c *gin.Context) string {
	return auth.OwnerFrom(c)
}
