package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

type memberRepository interface {
	List(ctx context.Context, filter models.MemberFilter) ([]models.MemberDetail, int, error)
	FindDetailByID(ctx context.Context, id string) (*models.MemberDetail, error)
	Create(ctx context.Context, member *models.Member, folioPrefix string) error
	Update(ctx context.Context, member *models.Member) error
}

type levelReader interface {
	FindByID(ctx context.Context, id string) (*models.Level, error)
}

type planReader interface {
	FindByID(ctx context.Context, id string) (*models.MembershipPlan, error)
}

// MemberProfile bundles everything the member detail screen shows.
type MemberProfile struct {
	Member      models.MemberDetail       `json:"member"`
	Billing     models.BillingStatus      `json:"billing"`
	Enrollments []models.EnrollmentDetail `json:"enrollments"`
	Payments    []models.Payment          `json:"payments"`
	Attendance  []models.AttendanceRecord `json:"attendance"`
}

// MemberService manages member registration and profile reads.
type MemberService struct {
	members     memberRepository
	levels      levelReader
	plans       planReader
	payments    paymentRepository
	attendance  attendanceRepository
	enrollments enrollmentRepo
	billing     billingStatusProvider
	validator   *validator.Validate
	logger      *zap.Logger
	folioPrefix string
}

// NewMemberService constructs MemberService.
func NewMemberService(members memberRepository, levels levelReader, plans planReader, payments paymentRepository, attendance attendanceRepository, enrollments enrollmentRepo, billing billingStatusProvider, validate *validator.Validate, logger *zap.Logger, folioPrefix string) *MemberService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if folioPrefix == "" {
		folioPrefix = "SW"
	}
	return &MemberService{
		members:     members,
		levels:      levels,
		plans:       plans,
		payments:    payments,
		attendance:  attendance,
		enrollments: enrollments,
		billing:     billing,
		validator:   validate,
		logger:      logger,
		folioPrefix: folioPrefix,
	}
}

// RegisterMemberRequest carries the fields for a new registration.
type RegisterMemberRequest struct {
	FullName string  `json:"full_name" validate:"required,min=3"`
	Phone    *string `json:"phone" validate:"omitempty,min=7"`
	Email    *string `json:"email" validate:"omitempty,email"`
	LevelID  string  `json:"level_id" validate:"required"`
	PlanID   string  `json:"plan_id" validate:"required"`
}

// UpdateMemberRequest carries the editable fields. The folio is not among
// them.
type UpdateMemberRequest struct {
	FullName string  `json:"full_name" validate:"required,min=3"`
	Phone    *string `json:"phone" validate:"omitempty,min=7"`
	Email    *string `json:"email" validate:"omitempty,email"`
	LevelID  string  `json:"level_id" validate:"required"`
	PlanID   string  `json:"plan_id" validate:"required"`
}

func (s *MemberService) checkCatalogRefs(ctx context.Context, levelID, planID string) error {
	if _, err := s.levels.FindByID(ctx, levelID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown level")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load level")
	}
	if _, err := s.plans.FindByID(ctx, planID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown plan")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load plan")
	}
	return nil
}

// Register creates a member and assigns the next consecutive folio.
func (s *MemberService) Register(ctx context.Context, req RegisterMemberRequest) (*models.MemberDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}
	if err := s.checkCatalogRefs(ctx, req.LevelID, req.PlanID); err != nil {
		return nil, err
	}

	member := &models.Member{
		FullName: req.FullName,
		Phone:    req.Phone,
		Email:    req.Email,
		LevelID:  req.LevelID,
		PlanID:   req.PlanID,
	}
	if err := s.members.Create(ctx, member, s.folioPrefix); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register member")
	}

	s.logger.Info("member registered",
		zap.String("member_id", member.ID),
		zap.String("folio", member.Folio),
	)
	return s.Get(ctx, member.ID)
}

// Update edits a member's profile. Level or plan changes take effect on the
// next enrollment attempt; existing reservations are untouched.
func (s *MemberService) Update(ctx context.Context, id string, req UpdateMemberRequest) (*models.MemberDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid member payload")
	}
	if err := s.checkCatalogRefs(ctx, req.LevelID, req.PlanID); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	member := existing.Member
	member.FullName = req.FullName
	member.Phone = req.Phone
	member.Email = req.Email
	member.LevelID = req.LevelID
	member.PlanID = req.PlanID
	if err := s.members.Update(ctx, &member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update member")
	}
	return s.Get(ctx, id)
}

// Get returns a member with catalog names resolved.
func (s *MemberService) Get(ctx context.Context, id string) (*models.MemberDetail, error) {
	member, err := s.members.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	return member, nil
}

// List returns members matching the filter with pagination info.
func (s *MemberService) List(ctx context.Context, filter models.MemberFilter) ([]models.MemberDetail, *models.Pagination, error) {
	members, total, err := s.members.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list members")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return members, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Profile assembles the member detail screen: standing, reservations,
// payment history and recent attendance.
func (s *MemberService) Profile(ctx context.Context, id string) (*MemberProfile, error) {
	member, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	standing, err := s.billing.Status(ctx, id)
	if err != nil {
		return nil, err
	}

	enrollments, err := s.enrollments.ListActiveByMember(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	payments, err := s.payments.ListByMember(ctx, id, 20)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment history")
	}

	attendance, err := s.attendance.ListByMember(ctx, id, 20)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}

	return &MemberProfile{
		Member:      *member,
		Billing:     *standing,
		Enrollments: enrollments,
		Payments:    payments,
		Attendance:  attendance,
	}, nil
}
