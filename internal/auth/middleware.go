package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spot-annotator/backend/internal/models"
)

const ownerKey = "owner_id"

// Middleware rejects requests without a valid bearer token and stores the
// owner id for OwnerFrom.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerFromHeader(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "missing bearer token",
			})
			return
		}

		owner, err := s.Verify(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "invalid or expired token",
			})
			return
		}

		SetOwner(c, owner)
		c.Next()
	}
}

// SetOwner records the authenticated owner on the request context.
func SetOwner(c *gin.Context, ownerID string) {
	c.Set(ownerKey, ownerID)
}

// OwnerFrom returns the owner set by Middleware.
func OwnerFrom(c *gin.Context) string {
	return c.GetString(ownerKey)
}

func bearerFromHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
