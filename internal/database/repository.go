// Package database provides PostgreSQL persistence for spots, annotations and users.
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/config"
	"github.com/spot-annotator/backend/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrLabelTaken = errors.New("label already in use")
	ErrIDTaken    = errors.New("id already in use")
	ErrEmailTaken = errors.New("email already registered")
	ErrNoSuchSpot = errors.New("referenced spot does not exist")
)

// Querier is the subset of pgx used for single statements.
// Both *pgxpool.Pool and pgx.Tx satisfy it, as do pgxmock pools.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Pool is a Querier that can start transactions.
type Pool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// Repository defines the owner-scoped data operations on spots and annotations.
type Repository interface {
	ListAnnotations(ctx context.Context, ownerID string) ([]models.Annotation, error)

	// GetAnnotation returns nil when no annotation of ownerID has the id.
	GetAnnotation(ctx context.Context, ownerID string, id uuid.UUID) (models.Annotation, error)

	CreateAnnotation(ctx context.Context, a models.Annotation) (models.Annotation, error)

	// UpdateAnnotation stores the mutable fields of a.
	UpdateAnnotation(ctx context.Context, a models.Annotation) (models.Annotation, error)

	DeleteAnnotation(ctx context.Context, ownerID string, id uuid.UUID) error

	// ListLabels returns the labels ownerID uses for annotations of type t.
	ListLabels(ctx context.Context, ownerID string, t models.AnnotationType) ([]string, error)

	ListSpots(ctx context.Context, ownerID string) ([]models.Spot, error)

	// GetSpot returns nil when no spot of ownerID has the id.
	GetSpot(ctx context.Context, ownerID string, id uuid.UUID) (*models.Spot, error)

	CreateSpot(ctx context.Context, s models.Spot) (models.Spot, error)
	UpdateSpot(ctx context.Context, s models.Spot) (models.Spot, error)

	// DeleteSpot removes the spot and unassigns its annotations atomically.
	// It returns the number of annotations that were unassigned.
	DeleteSpot(ctx context.Context, ownerID string, id uuid.UUID) (int64, error)

	Close()
}

// UserStore defines account persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u models.User) (models.User, error)

	// GetUserByEmail returns nil when the email is not registered.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PostgresRepository implements Repository and UserStore using PostgreSQL.
type PostgresRepository struct {
	pool   Pool
	logger *zap.Logger
}

// NewPostgresRepository connects to the configured database and runs migrations.
func NewPostgresRepository(cfg *config.Config, logger *zap.Logger) (*PostgresRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := NewRepository(pool, logger)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("Connected to PostgreSQL database")
	return repo, nil
}

// NewRepository wraps an existing pool.
func NewRepository(pool Pool, logger *zap.Logger) *PostgresRepository {
	return &PostgresRepository{pool: pool, logger: logger}
}

// Migrate creates the tables if they don't exist.
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS spots (
			id VARCHAR(36) PRIMARY KEY,
			user_id VARCHAR(255) NOT NULL,
			name VARCHAR(256) NOT NULL,
			description TEXT DEFAULT '',
			center_lng DOUBLE PRECISION NOT NULL,
			center_lat DOUBLE PRECISION NOT NULL,
			zoom_level DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS annotations (
			id VARCHAR(36) PRIMARY KEY,
			type VARCHAR(50) NOT NULL,
			user_id VARCHAR(255) NOT NULL,
			label VARCHAR(10) NOT NULL,
			notes TEXT DEFAULT '',
			spot_id VARCHAR(36) REFERENCES spots(id) ON DELETE SET NULL,
			data JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_spots_user_id ON spots(user_id);
		CREATE INDEX IF NOT EXISTS idx_annotations_user_id ON annotations(user_id);
		CREATE INDEX IF NOT EXISTS idx_annotations_type ON annotations(type);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_annotations_label ON annotations(user_id, type, label);
	`

	_, err := r.pool.Exec(ctx, query)
	return err
}

// runInTx runs fn in a transaction, rolling back when fn fails or panics.
func (r *PostgresRepository) runInTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.Error("Transaction rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Close closes the database connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
	r.logger.Info("Closed database connection")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// labelIndex enforces one label per owner and annotation type.
const labelIndex = "idx_annotations_label"

// violatedConstraint names the constraint behind err, if any.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func nullableID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseNullableID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
