package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
	"github.com/swimlab-mx/club-api/pkg/export"
)

type paymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	LastMonthlyFee(ctx context.Context, memberID string) (*models.Payment, error)
	ListByMember(ctx context.Context, memberID string, limit int) ([]models.Payment, error)
}

type memberReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.MemberDetail, error)
}

type rateReader interface {
	FindRate(ctx context.Context, planID, levelID string) (*models.Rate, error)
}

// BillingServiceConfig carries the delinquency thresholds.
type BillingServiceConfig struct {
	CurrentMaxDays int
	DueMaxDays     int
	ReceiptPrefix  string
}

// BillingService derives payment standing from payment history and records
// new payments. Standing is a pure projection: it is recomputed on every
// call so a payment recorded a moment earlier immediately unblocks the
// member.
type BillingService struct {
	payments  paymentRepository
	members   memberReader
	rates     rateReader
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	cfg       BillingServiceConfig
}

// NewBillingService constructs BillingService.
func NewBillingService(payments paymentRepository, members memberReader, rates rateReader, validate *validator.Validate, logger *zap.Logger, now func() time.Time, cfg BillingServiceConfig) *BillingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	if cfg.CurrentMaxDays <= 0 {
		cfg.CurrentMaxDays = 31
	}
	if cfg.DueMaxDays <= cfg.CurrentMaxDays {
		cfg.DueMaxDays = 45
	}
	if cfg.ReceiptPrefix == "" {
		cfg.ReceiptPrefix = "REC"
	}
	return &BillingService{payments: payments, members: members, rates: rates, validator: validate, logger: logger, now: now, cfg: cfg}
}

// Classify buckets the age of the last monthly-fee payment. A nil argument
// means the member has never paid a monthly fee and is treated as new, which
// does not block anything.
func (s *BillingService) Classify(lastPaidAt *time.Time) models.BillingStatus {
	if lastPaidAt == nil {
		return models.BillingStatus{
			Classification: models.BillingNew,
			Message:        "new member, no monthly fee on record",
			ColorHint:      "secondary",
		}
	}

	days := int(s.now().Sub(*lastPaidAt).Hours() / 24)
	status := models.BillingStatus{DaysElapsed: days, LastPaymentAt: lastPaidAt}

	switch {
	case days <= s.cfg.CurrentMaxDays:
		status.Classification = models.BillingCurrent
		status.Message = "monthly fee up to date"
		status.ColorHint = "success"
	case days <= s.cfg.DueMaxDays:
		status.Classification = models.BillingPaymentDue
		status.Message = fmt.Sprintf("payment due, %d days since last monthly fee", days)
		status.ColorHint = "warning"
	default:
		status.Classification = models.BillingDelinquent
		status.Message = fmt.Sprintf("delinquent, %d days since last monthly fee", days)
		status.ColorHint = "danger"
	}
	return status
}

// Status returns the member's current payment standing.
func (s *BillingService) Status(ctx context.Context, memberID string) (*models.BillingStatus, error) {
	if _, err := s.members.FindDetailByID(ctx, memberID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	last, err := s.payments.LastMonthlyFee(ctx, memberID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment history")
	}

	var paidAt *time.Time
	if last != nil {
		paidAt = &last.PaidAt
	}
	status := s.Classify(paidAt)
	return &status, nil
}

// RecordPaymentRequest describes a payment to collect.
type RecordPaymentRequest struct {
	MemberID         string  `json:"member_id" validate:"required"`
	Concept          string  `json:"concept" validate:"required,payment_concept"`
	Detail           string  `json:"detail"`
	BaseAmount       float64 `json:"base_amount" validate:"gte=0"`
	AdjustmentAmount float64 `json:"adjustment_amount"`
	Method           string  `json:"method" validate:"required"`
	InvoiceRequested bool    `json:"invoice_requested"`
}

// RecordPayment persists a payment. The total is always base plus
// adjustment; discounts arrive as a negative adjustment.
func (s *BillingService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*models.Payment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	if _, err := s.members.FindDetailByID(ctx, req.MemberID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	paidAt := s.now().UTC()
	payment := &models.Payment{
		ReceiptFolio:     fmt.Sprintf("%s-%d", s.cfg.ReceiptPrefix, paidAt.Unix()),
		MemberID:         req.MemberID,
		PaidAt:           paidAt,
		Concept:          models.PaymentConcept(req.Concept),
		Detail:           req.Detail,
		BaseAmount:       req.BaseAmount,
		AdjustmentAmount: req.AdjustmentAmount,
		TotalAmount:      req.BaseAmount + req.AdjustmentAmount,
		Method:           req.Method,
		InvoiceRequested: req.InvoiceRequested,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	s.logger.Info("payment recorded",
		zap.String("member_id", payment.MemberID),
		zap.String("receipt_folio", payment.ReceiptFolio),
		zap.Float64("total", payment.TotalAmount),
	)
	return payment, nil
}

// Quote suggests the charge for a concept from the member's (plan, level)
// rate. OTHER has no rate and quotes zero for manual capture.
func (s *BillingService) Quote(ctx context.Context, memberID, concept string) (*models.PaymentQuote, error) {
	c := models.PaymentConcept(concept)
	if !c.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown payment concept")
	}

	member, err := s.members.FindDetailByID(ctx, memberID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	quote := &models.PaymentQuote{Concept: c}
	if c == models.ConceptOther {
		return quote, nil
	}

	rate, err := s.rates.FindRate(ctx, member.PlanID, member.LevelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no rate configured for the member's plan and level")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rate")
	}

	today := s.now()
	switch c {
	case models.ConceptMonthlyFee:
		quote.SuggestedAmount = rate.MonthlyFee
		quote.SuggestedDetail = today.Format("January 2006")
	case models.ConceptAnnualFee:
		quote.SuggestedAmount = rate.AnnualFee
		quote.SuggestedDetail = fmt.Sprintf("Annual fee %d", today.Year())
	case models.ConceptEnrollmentFee:
		quote.SuggestedAmount = rate.EnrollmentFee
		quote.SuggestedDetail = "New member enrollment"
	}
	return quote, nil
}

// History lists a member's payments, newest first.
func (s *BillingService) History(ctx context.Context, memberID string, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if _, err := s.members.FindDetailByID(ctx, memberID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}
	payments, err := s.payments.ListByMember(ctx, memberID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// Receipt renders the printable PDF for a payment.
func (s *BillingService) Receipt(ctx context.Context, paymentID string) ([]byte, string, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}
	member, err := s.members.FindDetailByID(ctx, payment.MemberID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load member")
	}

	pdf, err := export.ReceiptPDF(payment, member)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return pdf, payment.ReceiptFolio, nil
}

// RegisterPaymentValidations installs the custom concept validator.
func RegisterPaymentValidations(v *validator.Validate) {
	_ = v.RegisterValidation("payment_concept", func(fl validator.FieldLevel) bool {
		return models.PaymentConcept(fl.Field().String()).Valid()
	})
}
