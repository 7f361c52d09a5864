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

const annotationColumns = `id, type, user_id, label, notes, COALESCE(spot_id, ''), data, created_at, updated_at`

func scanAnnotation(row pgx.Row) (models.Annotation, error) {
	var (
		c      models.Common
		id     string
		spotID string
		typ    string
		data   []byte
	)
	if err := row.Scan(&id, &typ, &c.OwnerID, &c.Label, &c.Notes, &spotID, &data, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}

	var err error
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("annotation id %q: %w", id, err)
	}
	if c.SpotID, err = parseNullableID(spotID); err != nil {
		return nil, fmt.Errorf("annotation %s spot id: %w", id, err)
	}
	c.Type = models.AnnotationType(typ)
	return models.Assemble(c, data)
}

// ListAnnotations retrieves every annotation of ownerID, oldest first.
func (r *PostgresRepository) ListAnnotations(ctx context.Context, ownerID string) ([]models.Annotation, error) {
	query := `SELECT ` + annotationColumns + `
		FROM annotations
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to get annotations", zap.Error(err))
		return nil, fmt.Errorf("failed to get annotations: %w", err)
	}
	defer rows.Close()

	annotations := []models.Annotation{}
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			r.logger.Error("Failed to scan annotation row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan annotation: %w", err)
		}
		annotations = append(annotations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	return annotations, nil
}

// GetAnnotation retrieves one annotation of ownerID.
func (r *PostgresRepository) GetAnnotation(ctx context.Context, ownerID string, id uuid.UUID) (models.Annotation, error) {
	query := `SELECT ` + annotationColumns + `
		FROM annotations
		WHERE id = $1 AND user_id = $2`

	a, err := scanAnnotation(r.pool.QueryRow(ctx, query, id.String(), ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get annotation", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get annotation: %w", err)
	}
	return a, nil
}

// CreateAnnotation inserts a.
func (r *PostgresRepository) CreateAnnotation(ctx context.Context, a models.Annotation) (models.Annotation, error) {
	meta := a.Meta()
	data, err := models.Payload(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotation data: %w", err)
	}

	query := `
		INSERT INTO annotations (id, type, user_id, label, notes, spot_id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.pool.Exec(ctx, query,
		meta.ID.String(),
		string(meta.Type),
		meta.OwnerID,
		meta.Label,
		meta.Notes,
		nullableID(meta.SpotID),
		data,
		meta.CreatedAt,
		meta.UpdatedAt,
	)
	switch {
	case isUniqueViolation(err) && violatedConstraint(err) == labelIndex:
		return nil, fmt.Errorf("%s label %q: %w", meta.Type, meta.Label, ErrLabelTaken)
	case isUniqueViolation(err):
		return nil, fmt.Errorf("annotation %s: %w", meta.ID, ErrIDTaken)
	case isForeignKeyViolation(err):
		return nil, ErrNoSuchSpot
	case err != nil:
		r.logger.Error("Failed to create annotation", zap.Error(err))
		return nil, fmt.Errorf("failed to create annotation: %w", err)
	}

	r.logger.Info("Created annotation",
		zap.String("id", meta.ID.String()),
		zap.String("type", string(meta.Type)),
		zap.String("label", meta.Label))
	return a, nil
}

// UpdateAnnotation writes notes, spot, variant data and the update time of a.
func (r *PostgresRepository) UpdateAnnotation(ctx context.Context, a models.Annotation) (models.Annotation, error) {
	meta := a.Meta()
	data, err := models.Payload(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode annotation data: %w", err)
	}

	query := `
		UPDATE annotations
		SET notes = $3, spot_id = $4, data = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		meta.ID.String(),
		meta.OwnerID,
		meta.Notes,
		nullableID(meta.SpotID),
		data,
		meta.UpdatedAt,
	)
	switch {
	case isForeignKeyViolation(err):
		return nil, ErrNoSuchSpot
	case err != nil:
		r.logger.Error("Failed to update annotation", zap.String("id", meta.ID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to update annotation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	r.logger.Info("Updated annotation", zap.String("id", meta.ID.String()))
	return a, nil
}

// DeleteAnnotation removes an annotation of ownerID.
func (r *PostgresRepository) DeleteAnnotation(ctx context.Context, ownerID string, id uuid.UUID) error {
	query := `DELETE FROM annotations WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id.String(), ownerID)
	if err != nil {
		r.logger.Error("Failed to delete annotation", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete annotation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Info("Deleted annotation", zap.String("id", id.String()))
	return nil
}

// ListLabels returns the labels of ownerID's annotations of type t.
func (r *PostgresRepository) ListLabels(ctx context.Context, ownerID string, t models.AnnotationType) ([]string, error) {
	query := `SELECT label FROM annotations WHERE user_id = $1 AND type = $2`

	rows, err := r.pool.Query(ctx, query, ownerID, string(t))
	if err != nil {
		return nil, fmt.Errorf("failed to get labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}
