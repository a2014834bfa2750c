package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, models.MarkOutcome, error)
	Roster(ctx context.Context, sessionID string, date time.Time) ([]models.RosterEntry, error)
	ListByMember(ctx context.Context, memberID string, limit int) ([]models.AttendanceRecord, error)
}

// billingStatusProvider yields a member's current payment standing.
type billingStatusProvider interface {
	Status(ctx context.Context, memberID string) (*models.BillingStatus, error)
}

type sessionReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error)
}

// AttendanceService records daily presence marks. Marking is gated on the
// same payment standing rule that blocks enrollment.
type AttendanceService struct {
	attendance attendanceRepository
	billing    billingStatusProvider
	sessions   sessionReader
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(attendance attendanceRepository, billing billingStatusProvider, sessions sessionReader, validate *validator.Validate, logger *zap.Logger, now func() time.Time) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &AttendanceService{attendance: attendance, billing: billing, sessions: sessions, validator: validate, logger: logger, now: now}
}

// MarkRequest records one member's presence for a session on a date. An
// empty date means today.
type MarkRequest struct {
	MemberID  string `json:"member_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Status    string `json:"status" validate:"required,oneof=PRESENT ABSENT"`
}

// Mark upserts the presence mark for (member, session, date). The outcome
// tells the caller whether the mark was fresh or corrected an earlier one.
// A delinquent member cannot be marked; the front desk resolves payment
// first.
func (s *AttendanceService) Mark(ctx context.Context, req MarkRequest) (*models.MarkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	date := s.now().UTC().Truncate(24 * time.Hour)
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		date = parsed
	}

	standing, err := s.billing.Status(ctx, req.MemberID)
	if err != nil {
		return nil, err
	}
	if !standing.Eligible() {
		return nil, appErrors.Clone(appErrors.ErrAttendanceBlocked,
			fmt.Sprintf("attendance blocked: %s", standing.Message))
	}

	if _, err := s.sessions.FindDetailByID(ctx, req.SessionID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}

	record := &models.AttendanceRecord{
		MemberID:  req.MemberID,
		SessionID: req.SessionID,
		Date:      date,
		Status:    models.AttendanceStatus(req.Status),
	}
	stored, outcome, err := s.attendance.Upsert(ctx, record)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.logger.Info("attendance marked",
		zap.String("member_id", stored.MemberID),
		zap.String("session_id", stored.SessionID),
		zap.String("date", date.Format("2006-01-02")),
		zap.String("outcome", string(outcome)),
	)
	return &models.MarkResult{Record: *stored, Outcome: outcome}, nil
}

// Roster returns the session's active enrollees with any marks already
// recorded for the date, for the roll-call screen.
func (s *AttendanceService) Roster(ctx context.Context, sessionID, dateStr string) ([]models.RosterEntry, error) {
	date := s.now().UTC().Truncate(24 * time.Hour)
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		date = parsed
	}

	if _, err := s.sessions.FindDetailByID(ctx, sessionID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}

	roster, err := s.attendance.Roster(ctx, sessionID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	return roster, nil
}

// History returns the member's recent marks, newest first.
func (s *AttendanceService) History(ctx context.Context, memberID string, limit int) ([]models.AttendanceRecord, error) {
	records, err := s.attendance.ListByMember(ctx, memberID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}
	return records, nil
}
