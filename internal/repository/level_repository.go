package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/swimlab-mx/club-api/internal/models"
)

// LevelRepository handles persistence for catalog levels.
type LevelRepository struct {
	db *sqlx.DB
}

// NewLevelRepository constructs the repository.
func NewLevelRepository(db *sqlx.DB) *LevelRepository {
	return &LevelRepository{db: db}
}

// List returns all levels in display order, not name order.
func (r *LevelRepository) List(ctx context.Context) ([]models.Level, error) {
	const query = `SELECT id, name, display_order, created_at, updated_at FROM levels ORDER BY display_order, name`
	var levels []models.Level
	if err := r.db.SelectContext(ctx, &levels, query); err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	return levels, nil
}

// FindByID loads a level by identifier.
func (r *LevelRepository) FindByID(ctx context.Context, id string) (*models.Level, error) {
	const query = `SELECT id, name, display_order, created_at, updated_at FROM levels WHERE id = $1`
	var level models.Level
	if err := r.db.GetContext(ctx, &level, query, id); err != nil {
		return nil, err
	}
	return &level, nil
}

// Create inserts a new level.
func (r *LevelRepository) Create(ctx context.Context, level *models.Level) error {
	if level.ID == "" {
		level.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if level.CreatedAt.IsZero() {
		level.CreatedAt = now
	}
	level.UpdatedAt = now
	const query = `INSERT INTO levels (id, name, display_order, created_at, updated_at)
        VALUES (:id, :name, :display_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("create level: %w", err)
	}
	return nil
}

// Update modifies the level row only; members, sessions and rates reference
// the level by ID so a rename needs no cascade.
func (r *LevelRepository) Update(ctx context.Context, level *models.Level) error {
	level.UpdatedAt = time.Now().UTC()
	const query = `UPDATE levels SET name = :name, display_order = :display_order, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, level); err != nil {
		return fmt.Errorf("update level: %w", err)
	}
	return nil
}

// CountReferences returns how many members, sessions and rates point at the level.
func (r *LevelRepository) CountReferences(ctx context.Context, id string) (int, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM members WHERE level_id = $1) +
        (SELECT COUNT(*) FROM sessions WHERE level_id = $1) +
        (SELECT COUNT(*) FROM rates WHERE level_id = $1)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count level references: %w", err)
	}
	return count, nil
}

// Delete removes an unreferenced level.
func (r *LevelRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM levels WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete level: %w", err)
	}
	return nil
}
