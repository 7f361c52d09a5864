package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/models"
)

// RegisterRoutes registers the account routes on the given router group.
func (s *Service) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/register", s.register)
	rg.POST("/auth/login", s.login)
}

func (s *Service) register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	user, err := s.Register(c.Request.Context(), req)
	if errors.Is(err, ErrEmailTaken) {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "conflict",
			Message: "email already registered",
		})
		return
	}
	if err != nil {
		s.logger.Error("Failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to register user",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": user})
}

func (s *Service) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	resp, err := s.Login(c.Request.Context(), req)
	if errors.Is(err, ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "invalid email or password",
		})
		return
	}
	if err != nil {
		s.logger.Error("Failed to log in", zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: "failed to log in",
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
