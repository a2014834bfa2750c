package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/swimlab-mx/club-api/internal/models"
)

func TestPaymentRepositoryLastMonthlyFeeNoHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectQuery("SELECT .+ FROM payments WHERE member_id = \\$1 AND concept = \\$2 ORDER BY paid_at DESC LIMIT 1").
		WithArgs("mem-1", models.ConceptMonthlyFee).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	payment, err := repo.LastMonthlyFee(context.Background(), "mem-1")
	require.NoError(t, err)
	require.Nil(t, payment)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepositoryLastMonthlyFeeLatestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	paidAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "receipt_folio", "member_id", "paid_at", "concept", "detail", "base_amount", "adjustment_amount", "total_amount", "method", "invoice_requested"}).
		AddRow("pay-2", "REC-2", "mem-1", paidAt, models.ConceptMonthlyFee, "August 2026", 750.0, 0.0, 750.0, "cash", false)
	mock.ExpectQuery("SELECT .+ FROM payments WHERE member_id = \\$1 AND concept = \\$2 ORDER BY paid_at DESC LIMIT 1").
		WithArgs("mem-1", models.ConceptMonthlyFee).
		WillReturnRows(rows)

	payment, err := repo.LastMonthlyFee(context.Background(), "mem-1")
	require.NoError(t, err)
	require.Equal(t, "pay-2", payment.ID)
	require.Equal(t, paidAt, payment.PaidAt)
	require.NoError(t, mock.ExpectationsWereMet())
}
