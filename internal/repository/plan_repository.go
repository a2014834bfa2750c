package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/swimlab-mx/club-api/internal/models"
)

// PlanRepository handles membership plans and their rate table.
type PlanRepository struct {
	db *sqlx.DB
}

// NewPlanRepository constructs the repository.
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// List returns plans ordered by their weekly quota.
func (r *PlanRepository) List(ctx context.Context) ([]models.MembershipPlan, error) {
	const query = `SELECT id, name, weekly_class_quota, created_at, updated_at FROM membership_plans ORDER BY weekly_class_quota, name`
	var plans []models.MembershipPlan
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return plans, nil
}

// FindByID loads a plan by identifier.
func (r *PlanRepository) FindByID(ctx context.Context, id string) (*models.MembershipPlan, error) {
	const query = `SELECT id, name, weekly_class_quota, created_at, updated_at FROM membership_plans WHERE id = $1`
	var plan models.MembershipPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Create inserts a new membership plan.
func (r *PlanRepository) Create(ctx context.Context, plan *models.MembershipPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now
	const query = `INSERT INTO membership_plans (id, name, weekly_class_quota, created_at, updated_at)
        VALUES (:id, :name, :weekly_class_quota, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

// Update modifies an existing plan.
func (r *PlanRepository) Update(ctx context.Context, plan *models.MembershipPlan) error {
	plan.UpdatedAt = time.Now().UTC()
	const query = `UPDATE membership_plans SET name = :name, weekly_class_quota = :weekly_class_quota, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return nil
}

// ListRates returns the full rate table with catalog names resolved.
func (r *PlanRepository) ListRates(ctx context.Context) ([]models.RateDetail, error) {
	const query = `SELECT t.id, t.plan_id, t.level_id, t.monthly_fee, t.annual_fee, t.enrollment_fee, t.created_at, t.updated_at,
        p.name AS plan_name, l.name AS level_name
        FROM rates t
        JOIN membership_plans p ON p.id = t.plan_id
        JOIN levels l ON l.id = t.level_id
        ORDER BY p.weekly_class_quota, l.display_order`
	var rates []models.RateDetail
	if err := r.db.SelectContext(ctx, &rates, query); err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	return rates, nil
}

// FindRate returns the rate for a (plan, level) pair.
func (r *PlanRepository) FindRate(ctx context.Context, planID, levelID string) (*models.Rate, error) {
	const query = `SELECT id, plan_id, level_id, monthly_fee, annual_fee, enrollment_fee, created_at, updated_at
        FROM rates WHERE plan_id = $1 AND level_id = $2`
	var rate models.Rate
	if err := r.db.GetContext(ctx, &rate, query, planID, levelID); err != nil {
		return nil, err
	}
	return &rate, nil
}

// RateExists checks the (plan, level) uniqueness rule before inserts.
func (r *PlanRepository) RateExists(ctx context.Context, planID, levelID, excludeID string) (bool, error) {
	query := `SELECT 1 FROM rates WHERE plan_id = $1 AND level_id = $2`
	args := []interface{}{planID, levelID}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check rate uniqueness: %w", err)
	}
	return true, nil
}

// CreateRate inserts a new rate row.
func (r *PlanRepository) CreateRate(ctx context.Context, rate *models.Rate) error {
	if rate.ID == "" {
		rate.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if rate.CreatedAt.IsZero() {
		rate.CreatedAt = now
	}
	rate.UpdatedAt = now
	const query = `INSERT INTO rates (id, plan_id, level_id, monthly_fee, annual_fee, enrollment_fee, created_at, updated_at)
        VALUES (:id, :plan_id, :level_id, :monthly_fee, :annual_fee, :enrollment_fee, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rate); err != nil {
		return fmt.Errorf("create rate: %w", err)
	}
	return nil
}

// UpdateRate modifies the amounts of an existing rate.
func (r *PlanRepository) UpdateRate(ctx context.Context, rate *models.Rate) error {
	rate.UpdatedAt = time.Now().UTC()
	const query = `UPDATE rates SET monthly_fee = :monthly_fee, annual_fee = :annual_fee, enrollment_fee = :enrollment_fee, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, rate); err != nil {
		return fmt.Errorf("update rate: %w", err)
	}
	return nil
}
