package models

import (
	"time"

	"github.com/google/uuid"
)

// Spot is a named, saved map viewport owned by one user.
type Spot struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name" binding:"required,max=256"`
	Description string    `json:"description" binding:"max=1024"`
	Center      GeoPoint  `json:"center"`
	ZoomLevel   float64   `json:"zoom_level" binding:"gte=0,lte=24"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SpotPatch is a partial spot update. Nil fields are left unchanged.
type SpotPatch struct {
	Name        *string   `json:"name,omitempty" binding:"omitempty,min=1,max=256"`
	Description *string   `json:"description,omitempty" binding:"omitempty,max=1024"`
	Center      *GeoPoint `json:"center,omitempty"`
	ZoomLevel   *float64  `json:"zoom_level,omitempty" binding:"omitempty,gte=0,lte=24"`
}

// NewSpot creates a spot centred on the given viewport.
func NewSpot(ownerID, name string, center GeoPoint, zoom float64) Spot {
	now := Now()
	return Spot{
		ID:        NewID(),
		OwnerID:   ownerID,
		Name:      name,
		Center:    center,
		ZoomLevel: zoom,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ApplySpotUpdate merges p into s and refreshes UpdatedAt.
func ApplySpotUpdate(s Spot, p SpotPatch) Spot {
	set(&s.Name, p.Name)
	set(&s.Description, p.Description)
	set(&s.Center, p.Center)
	set(&s.ZoomLevel, p.ZoomLevel)
	s.UpdatedAt = nextUpdatedAt(s.UpdatedAt)
	return s
}
