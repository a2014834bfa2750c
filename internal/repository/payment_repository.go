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

// PaymentRepository handles persistence of payments. Billing status is never
// stored here; it is derived from these rows on every query.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create persists a payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = time.Now().UTC()
	}
	const query = `INSERT INTO payments (id, receipt_folio, member_id, paid_at, concept, detail, base_amount, adjustment_amount, total_amount, method, invoice_requested)
        VALUES (:id, :receipt_folio, :member_id, :paid_at, :concept, :detail, :base_amount, :adjustment_amount, :total_amount, :method, :invoice_requested)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByID loads a payment by identifier.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	const query = `SELECT id, receipt_folio, member_id, paid_at, concept, detail, base_amount, adjustment_amount, total_amount, method, invoice_requested
        FROM payments WHERE id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, err
	}
	return &payment, nil
}

// LastMonthlyFee returns the member's most recent monthly-fee payment, or
// (nil, nil) when the member has never been billed.
func (r *PaymentRepository) LastMonthlyFee(ctx context.Context, memberID string) (*models.Payment, error) {
	const query = `SELECT id, receipt_folio, member_id, paid_at, concept, detail, base_amount, adjustment_amount, total_amount, method, invoice_requested
        FROM payments WHERE member_id = $1 AND concept = $2 ORDER BY paid_at DESC LIMIT 1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, memberID, models.ConceptMonthlyFee); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("last monthly fee: %w", err)
	}
	return &payment, nil
}

// ListByMember returns the member's payment history, most recent first.
func (r *PaymentRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]models.Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, receipt_folio, member_id, paid_at, concept, detail, base_amount, adjustment_amount, total_amount, method, invoice_requested
        FROM payments WHERE member_id = $1 ORDER BY paid_at DESC LIMIT %d`, limit)
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, memberID); err != nil {
		return nil, fmt.Errorf("list member payments: %w", err)
	}
	return payments, nil
}
