package syncengine

import (
	"context"

	"github.com/google/uuid"

	"github.com/spot-annotator/backend/internal/models"
)

// Remote is the authority the engine reconciles against. Implementations
// return models.ErrUnauthenticated when the caller has no valid identity.
type Remote[T, P any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, v T) (T, error)
	Update(ctx context.Context, id uuid.UUID, patch P) (T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AnnotationRemote persists annotations.
type AnnotationRemote = Remote[models.Annotation, models.Patch]

// SpotRemote persists spots. Deleting a spot unassigns its annotations.
type SpotRemote = Remote[models.Spot, models.SpotPatch]
