package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

type levelRepository interface {
	List(ctx context.Context) ([]models.Level, error)
	FindByID(ctx context.Context, id string) (*models.Level, error)
	Create(ctx context.Context, level *models.Level) error
	Update(ctx context.Context, level *models.Level) error
	CountReferences(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

type planRepository interface {
	List(ctx context.Context) ([]models.MembershipPlan, error)
	FindByID(ctx context.Context, id string) (*models.MembershipPlan, error)
	Create(ctx context.Context, plan *models.MembershipPlan) error
	Update(ctx context.Context, plan *models.MembershipPlan) error
	ListRates(ctx context.Context) ([]models.RateDetail, error)
	FindRate(ctx context.Context, planID, levelID string) (*models.Rate, error)
	RateExists(ctx context.Context, planID, levelID, excludeID string) (bool, error)
	CreateRate(ctx context.Context, rate *models.Rate) error
	UpdateRate(ctx context.Context, rate *models.Rate) error
}

// CatalogService manages the reference data: levels, membership plans and
// the rate table.
type CatalogService struct {
	levels    levelRepository
	plans     planRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService constructs CatalogService.
func NewCatalogService(levels levelRepository, plans planRepository, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{levels: levels, plans: plans, validator: validate, logger: logger}
}

// LevelRequest carries the editable level fields.
type LevelRequest struct {
	Name         string `json:"name" validate:"required,min=2"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// ListLevels returns levels in display order.
func (s *CatalogService) ListLevels(ctx context.Context) ([]models.Level, error) {
	levels, err := s.levels.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list levels")
	}
	return levels, nil
}

// CreateLevel adds a level to the catalog.
func (s *CatalogService) CreateLevel(ctx context.Context, req LevelRequest) (*models.Level, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid level payload")
	}
	level := &models.Level{Name: req.Name, DisplayOrder: req.DisplayOrder}
	if err := s.levels.Create(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create level")
	}
	return level, nil
}

// UpdateLevel renames or reorders a level. References stay valid because
// every other table points at the ID.
func (s *CatalogService) UpdateLevel(ctx context.Context, id string, req LevelRequest) (*models.Level, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid level payload")
	}
	level, err := s.levels.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}
	level.Name = req.Name
	level.DisplayOrder = req.DisplayOrder
	if err := s.levels.Update(ctx, level); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update level")
	}
	return level, nil
}

// DeleteLevel removes a level that nothing references.
func (s *CatalogService) DeleteLevel(ctx context.Context, id string) error {
	if _, err := s.levels.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "level not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}
	refs, err := s.levels.CountReferences(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count references")
	}
	if refs > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("level is referenced by %d members, sessions or rates", refs))
	}
	if err := s.levels.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete level")
	}
	return nil
}

// PlanRequest carries the editable plan fields.
type PlanRequest struct {
	Name             string `json:"name" validate:"required,min=2"`
	WeeklyClassQuota int    `json:"weekly_class_quota" validate:"required,gt=0"`
}

// ListPlans returns membership plans ordered by quota.
func (s *CatalogService) ListPlans(ctx context.Context) ([]models.MembershipPlan, error) {
	plans, err := s.plans.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plans")
	}
	return plans, nil
}

// CreatePlan adds a membership plan.
func (s *CatalogService) CreatePlan(ctx context.Context, req PlanRequest) (*models.MembershipPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan payload")
	}
	plan := &models.MembershipPlan{Name: req.Name, WeeklyClassQuota: req.WeeklyClassQuota}
	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create plan")
	}
	return plan, nil
}

// UpdatePlan edits a plan. A lowered quota does not revoke reservations; the
// member just cannot add more until under the new quota.
func (s *CatalogService) UpdatePlan(ctx context.Context, id string, req PlanRequest) (*models.MembershipPlan, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan payload")
	}
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan")
	}
	plan.Name = req.Name
	plan.WeeklyClassQuota = req.WeeklyClassQuota
	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update plan")
	}
	return plan, nil
}

// RateRequest prices one (plan, level) pair.
type RateRequest struct {
	PlanID        string  `json:"plan_id" validate:"required"`
	LevelID       string  `json:"level_id" validate:"required"`
	MonthlyFee    float64 `json:"monthly_fee" validate:"gte=0"`
	AnnualFee     float64 `json:"annual_fee" validate:"gte=0"`
	EnrollmentFee float64 `json:"enrollment_fee" validate:"gte=0"`
}

// ListRates returns the rate table with names resolved.
func (s *CatalogService) ListRates(ctx context.Context) ([]models.RateDetail, error) {
	rates, err := s.plans.ListRates(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rates")
	}
	return rates, nil
}

// CreateRate adds a rate for a (plan, level) pair. The pair must be unique.
func (s *CatalogService) CreateRate(ctx context.Context, req RateRequest) (*models.Rate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rate payload")
	}
	exists, err := s.plans.RateExists(ctx, req.PlanID, req.LevelID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check rate uniqueness")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a rate for this plan and level already exists")
	}
	rate := &models.Rate{
		PlanID:        req.PlanID,
		LevelID:       req.LevelID,
		MonthlyFee:    req.MonthlyFee,
		AnnualFee:     req.AnnualFee,
		EnrollmentFee: req.EnrollmentFee,
	}
	if err := s.plans.CreateRate(ctx, rate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rate")
	}
	return rate, nil
}

// UpdateRate changes the amounts of an existing rate. Amount changes affect
// future quotes only, never payments already collected.
func (s *CatalogService) UpdateRate(ctx context.Context, id string, req RateRequest) (*models.Rate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rate payload")
	}
	rate, err := s.plans.FindRate(ctx, req.PlanID, req.LevelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "rate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rate")
	}
	if rate.ID != id {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "rate not found")
	}
	rate.MonthlyFee = req.MonthlyFee
	rate.AnnualFee = req.AnnualFee
	rate.EnrollmentFee = req.EnrollmentFee
	if err := s.plans.UpdateRate(ctx, rate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rate")
	}
	return rate, nil
}
