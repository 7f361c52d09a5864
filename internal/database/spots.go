package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/models"
)

const spotColumns = `id, user_id, name, description, center_lng, center_lat, zoom_level, created_at, updated_at`

func scanSpot(row pgx.Row) (models.Spot, error) {
	var (
		s  models.Spot
		id string
	)
	err := row.Scan(&id, &s.OwnerID, &s.Name, &s.Description,
		&s.Center.Lng, &s.Center.Lat, &s.ZoomLevel, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return models.Spot{}, err
	}
	if s.ID, err = uuid.Parse(id); err != nil {
		return models.Spot{}, fmt.Errorf("spot id %q: %w", id, err)
	}
	return s, nil
}

// ListSpots retrieves every spot of ownerID, oldest first.
func (r *PostgresRepository) ListSpots(ctx context.Context, ownerID string) ([]models.Spot, error) {
	query := `SELECT ` + spotColumns + `
		FROM spots
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to get spots", zap.Error(err))
		return nil, fmt.Errorf("failed to get spots: %w", err)
	}
	defer rows.Close()

	spots := []models.Spot{}
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan spot: %w", err)
		}
		spots = append(spots, s)
	}
	return spots, rows.Err()
}

// GetSpot retrieves one spot of ownerID.
func (r *PostgresRepository) GetSpot(ctx context.Context, ownerID string, id uuid.UUID) (*models.Spot, error) {
	query := `SELECT ` + spotColumns + `
		FROM spots
		WHERE id = $1 AND user_id = $2`

	s, err := scanSpot(r.pool.QueryRow(ctx, query, id.String(), ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get spot", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get spot: %w", err)
	}
	return &s, nil
}

// CreateSpot inserts s.
func (r *PostgresRepository) CreateSpot(ctx context.Context, s models.Spot) (models.Spot, error) {
	query := `
		INSERT INTO spots (id, user_id, name, description, center_lng, center_lat, zoom_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		s.ID.String(), s.OwnerID, s.Name, s.Description,
		s.Center.Lng, s.Center.Lat, s.ZoomLevel, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create spot", zap.Error(err))
		return models.Spot{}, fmt.Errorf("failed to create spot: %w", err)
	}

	r.logger.Info("Created spot", zap.String("id", s.ID.String()))
	return s, nil
}

// UpdateSpot writes the mutable fields of s.
func (r *PostgresRepository) UpdateSpot(ctx context.Context, s models.Spot) (models.Spot, error) {
	query := `
		UPDATE spots
		SET name = $3, description = $4, center_lng = $5, center_lat = $6, zoom_level = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		s.ID.String(), s.OwnerID, s.Name, s.Description,
		s.Center.Lng, s.Center.Lat, s.ZoomLevel, s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to update spot", zap.String("id", s.ID.String()), zap.Error(err))
		return models.Spot{}, fmt.Errorf("failed to update spot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.Spot{}, ErrNotFound
	}

	r.logger.Info("Updated spot", zap.String("id", s.ID.String()))
	return s, nil
}

// DeleteSpot unassigns the spot's annotations and deletes it in one transaction.
func (r *PostgresRepository) DeleteSpot(ctx context.Context, ownerID string, id uuid.UUID) (int64, error) {
	var unassigned int64
	err := r.runInTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx,
			`UPDATE annotations SET spot_id = NULL WHERE spot_id = $1 AND user_id = $2`,
			id.String(), ownerID)
		if err != nil {
			return fmt.Errorf("failed to unassign annotations: %w", err)
		}
		unassigned = result.RowsAffected()

		result, err = tx.Exec(ctx, `DELETE FROM spots WHERE id = $1 AND user_id = $2`, id.String(), ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete spot: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			r.logger.Error("Failed to delete spot", zap.String("id", id.String()), zap.Error(err))
		}
		return 0, err
	}

	r.logger.Info("Deleted spot",
		zap.String("id", id.String()),
		zap.Int64("unassigned", unassigned))
	return unassigned, nil
}
