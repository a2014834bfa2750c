package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/swimlab-mx/club-api/internal/models"
	"github.com/swimlab-mx/club-api/internal/repository"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

type enrollmentRepo interface {
	InTx(ctx context.Context, fn func(ops repository.EnrollmentTxOps) error) error
	ListActiveByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error)
	ListActiveBySession(ctx context.Context, sessionID string) ([]models.EnrollmentDetail, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	Withdraw(ctx context.Context, id string, at time.Time) error
}

// billingClassifier buckets a last-payment timestamp into a standing. The
// enrollment transaction reads the timestamp itself so the verdict reflects
// the same snapshot as the seat counts.
type billingClassifier interface {
	Classify(lastPaidAt *time.Time) models.BillingStatus
}

type boardInvalidator interface {
	InvalidateBoard(ctx context.Context) error
}

// EnrollmentService orchestrates admission into weekly sessions. Every
// attempt runs its checks and the insert in one transaction, in a fixed
// order: payment standing, seat availability, plan quota, day conflict.
// The first failing check wins and later ones are not evaluated.
type EnrollmentService struct {
	repo      enrollmentRepo
	billing   billingClassifier
	board     boardInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepo, billing billingClassifier, board boardInvalidator, validate *validator.Validate, logger *zap.Logger, now func() time.Time) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &EnrollmentService{repo: repo, billing: billing, board: board, validator: validate, logger: logger, now: now}
}

// EnrollRequest identifies the member and the session to reserve.
type EnrollRequest struct {
	MemberID  string `json:"member_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
}

// Enroll attempts to create a standing reservation. On rejection the typed
// error names the failed rule; a serialization or duplicate conflict maps to
// the retryable conflict error and the caller may simply retry.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	var enrollmentID string
	err := s.repo.InTx(ctx, func(ops repository.EnrollmentTxOps) error {
		member, err := ops.Member(ctx, req.MemberID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "member not found")
			}
			return fmt.Errorf("load member: %w", err)
		}

		session, err := ops.LockSession(ctx, req.SessionID)
		if err != nil {
			if err == sql.ErrNoRows {
				return appErrors.Clone(appErrors.ErrNotFound, "session not found")
			}
			return err
		}

		paidAt, err := ops.LastMonthlyFeePaidAt(ctx, req.MemberID)
		if err != nil {
			return err
		}
		if standing := s.billing.Classify(paidAt); !standing.Eligible() {
			return appErrors.Clone(appErrors.ErrDelinquent, fmt.Sprintf("enrollment blocked: %s", standing.Message))
		}

		occupancy, err := ops.CountActiveBySession(ctx, req.SessionID)
		if err != nil {
			return err
		}
		if occupancy >= session.MaxCapacity {
			return appErrors.Clone(appErrors.ErrSessionFull,
				fmt.Sprintf("session is full (%d/%d seats taken)", occupancy, session.MaxCapacity))
		}

		load, err := ops.CountActiveByMember(ctx, req.MemberID)
		if err != nil {
			return err
		}
		if load >= member.WeeklyClassQuota {
			return appErrors.Clone(appErrors.ErrQuotaExceeded,
				fmt.Sprintf("plan %s allows %d classes per week", member.PlanName, member.WeeklyClassQuota))
		}

		slots, err := ops.ActiveSlotsByMember(ctx, req.MemberID)
		if err != nil {
			return err
		}
		for _, slot := range slots {
			// Same weekday blocks regardless of time of day.
			if slot.Weekday == session.Weekday {
				return appErrors.Clone(appErrors.ErrDayConflict,
					fmt.Sprintf("already enrolled on %s at %s", slot.Weekday, slot.StartTime))
			}
		}

		enrollment := &models.Enrollment{
			MemberID:  req.MemberID,
			SessionID: req.SessionID,
			CreatedAt: s.now().UTC(),
			Status:    models.EnrollmentStatusActive,
		}
		if err := ops.Insert(ctx, enrollment); err != nil {
			return err
		}
		enrollmentID = enrollment.ID

		// Recount after the insert. Under read committed a concurrent commit
		// between the lock and the insert could overshoot capacity; rolling
		// back here keeps the invariant without serializable isolation.
		recount, err := ops.CountActiveBySession(ctx, req.SessionID)
		if err != nil {
			return err
		}
		if recount > session.MaxCapacity {
			return appErrors.Clone(appErrors.ErrEnrollmentConflict, "session filled concurrently, retry")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.board.InvalidateBoard(ctx); err != nil {
		s.logger.Warn("failed to invalidate schedule board cache", zap.Error(err))
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	s.logger.Info("enrollment created",
		zap.String("enrollment_id", detail.ID),
		zap.String("member_id", detail.MemberID),
		zap.String("session_id", detail.SessionID),
	)
	return detail, nil
}

// Withdraw releases an active reservation. The seat frees immediately since
// occupancy is derived from active rows.
func (s *EnrollmentService) Withdraw(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if err := s.repo.Withdraw(ctx, id, s.now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			if _, findErr := s.repo.FindDetailByID(ctx, id); findErr == nil {
				return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment already withdrawn")
			}
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw enrollment")
	}

	if err := s.board.InvalidateBoard(ctx); err != nil {
		s.logger.Warn("failed to invalidate schedule board cache", zap.Error(err))
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	s.logger.Info("enrollment withdrawn", zap.String("enrollment_id", id))
	return detail, nil
}

// ActiveByMember lists the member's standing reservations.
func (s *EnrollmentService) ActiveByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListActiveByMember(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// ActiveBySession lists the active enrollees of one session.
func (s *EnrollmentService) ActiveBySession(ctx context.Context, sessionID string) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListActiveBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list session enrollees")
	}
	return enrollments, nil
}

// Get returns one enrollment with member and session context.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}
