package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

type mockPaymentRepo struct {
	payments    map[string]models.Payment
	lastMonthly *models.Payment
	created     *models.Payment
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	if m.payments == nil {
		m.payments = make(map[string]models.Payment)
	}
	if payment.ID == "" {
		payment.ID = "pay-new"
	}
	m.payments[payment.ID] = *payment
	m.created = payment
	if payment.Concept == models.ConceptMonthlyFee {
		m.lastMonthly = payment
	}
	return nil
}

func (m *mockPaymentRepo) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	if p, ok := m.payments[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPaymentRepo) LastMonthlyFee(ctx context.Context, memberID string) (*models.Payment, error) {
	return m.lastMonthly, nil
}

func (m *mockPaymentRepo) ListByMember(ctx context.Context, memberID string, limit int) ([]models.Payment, error) {
	var list []models.Payment
	for _, p := range m.payments {
		list = append(list, p)
	}
	return list, nil
}

type mockMemberReader struct {
	members map[string]*models.MemberDetail
}

func (m *mockMemberReader) FindDetailByID(ctx context.Context, id string) (*models.MemberDetail, error) {
	if member, ok := m.members[id]; ok {
		return member, nil
	}
	return nil, sql.ErrNoRows
}

type mockRateReader struct {
	rate *models.Rate
}

func (m *mockRateReader) FindRate(ctx context.Context, planID, levelID string) (*models.Rate, error) {
	if m.rate == nil {
		return nil, sql.ErrNoRows
	}
	return m.rate, nil
}

func testMember(id string) *models.MemberDetail {
	return &models.MemberDetail{
		Member: models.Member{
			ID:       id,
			Folio:    "SW0001",
			FullName: "Ana Robles",
			LevelID:  "lvl-1",
			PlanID:   "plan-1",
		},
		LevelName:        "Intermediate",
		PlanName:         "Two Classes",
		WeeklyClassQuota: 2,
	}
}

func newBillingFixture(t *testing.T, now time.Time) (*BillingService, *mockPaymentRepo, *mockMemberReader, *mockRateReader) {
	t.Helper()
	payments := &mockPaymentRepo{}
	members := &mockMemberReader{members: map[string]*models.MemberDetail{"mem-1": testMember("mem-1")}}
	rates := &mockRateReader{}
	validate := validator.New()
	RegisterPaymentValidations(validate)
	svc := NewBillingService(payments, members, rates, validate, nil, func() time.Time { return now }, BillingServiceConfig{})
	return svc, payments, members, rates
}

func TestClassifyNoPaymentIsNewAndEligible(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, _, _, _ := newBillingFixture(t, now)

	status := svc.Classify(nil)
	assert.Equal(t, models.BillingNew, status.Classification)
	assert.Equal(t, "secondary", status.ColorHint)
	assert.True(t, status.Eligible())
}

func TestClassifyThresholds(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, _, _, _ := newBillingFixture(t, now)

	tests := []struct {
		name     string
		daysAgo  int
		expected models.BillingClassification
		eligible bool
	}{
		{"same day", 0, models.BillingCurrent, true},
		{"thirty one days", 31, models.BillingCurrent, true},
		{"thirty two days", 32, models.BillingPaymentDue, true},
		{"forty five days", 45, models.BillingPaymentDue, true},
		{"forty six days", 46, models.BillingDelinquent, false},
		{"ninety days", 90, models.BillingDelinquent, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			paidAt := now.AddDate(0, 0, -tc.daysAgo)
			status := svc.Classify(&paidAt)
			assert.Equal(t, tc.expected, status.Classification)
			assert.Equal(t, tc.eligible, status.Eligible())
			assert.Equal(t, tc.daysAgo, status.DaysElapsed)
		})
	}
}

func TestClassifyPaymentDueMessageNamesDayCount(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, _, _, _ := newBillingFixture(t, now)

	paidAt := now.AddDate(0, 0, -40)
	status := svc.Classify(&paidAt)
	assert.Equal(t, models.BillingPaymentDue, status.Classification)
	assert.Contains(t, status.Message, "40 days")
	assert.Equal(t, "warning", status.ColorHint)
}

func TestStatusRecomputedAfterPayment(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, payments, _, _ := newBillingFixture(t, now)

	old := now.AddDate(0, 0, -60)
	payments.lastMonthly = &models.Payment{MemberID: "mem-1", PaidAt: old, Concept: models.ConceptMonthlyFee}

	status, err := svc.Status(context.Background(), "mem-1")
	require.NoError(t, err)
	assert.Equal(t, models.BillingDelinquent, status.Classification)

	// Recording a monthly fee flips the standing on the very next read.
	_, err = svc.RecordPayment(context.Background(), RecordPaymentRequest{
		MemberID:   "mem-1",
		Concept:    string(models.ConceptMonthlyFee),
		BaseAmount: 750,
		Method:     "cash",
	})
	require.NoError(t, err)

	status, err = svc.Status(context.Background(), "mem-1")
	require.NoError(t, err)
	assert.Equal(t, models.BillingCurrent, status.Classification)
}

func TestStatusUnknownMember(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, _, _, _ := newBillingFixture(t, now)

	_, err := svc.Status(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordPaymentTotalsAndFolio(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, payments, _, _ := newBillingFixture(t, now)

	payment, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		MemberID:         "mem-1",
		Concept:          string(models.ConceptMonthlyFee),
		BaseAmount:       800,
		AdjustmentAmount: -100,
		Method:           "card",
	})
	require.NoError(t, err)
	assert.Equal(t, 700.0, payment.TotalAmount)
	assert.True(t, strings.HasPrefix(payment.ReceiptFolio, "REC-"))
	assert.Equal(t, payment, payments.created)
}

func TestRecordPaymentRejectsUnknownConcept(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, _, _, _ := newBillingFixture(t, now)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		MemberID: "mem-1",
		Concept:  "TIPS",
		Method:   "cash",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestQuotePerConcept(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, _, _, rates := newBillingFixture(t, now)
	rates.rate = &models.Rate{PlanID: "plan-1", LevelID: "lvl-1", MonthlyFee: 750, AnnualFee: 400, EnrollmentFee: 300}

	quote, err := svc.Quote(context.Background(), "mem-1", string(models.ConceptMonthlyFee))
	require.NoError(t, err)
	assert.Equal(t, 750.0, quote.SuggestedAmount)
	assert.Equal(t, "August 2026", quote.SuggestedDetail)

	quote, err = svc.Quote(context.Background(), "mem-1", string(models.ConceptAnnualFee))
	require.NoError(t, err)
	assert.Equal(t, 400.0, quote.SuggestedAmount)

	quote, err = svc.Quote(context.Background(), "mem-1", string(models.ConceptOther))
	require.NoError(t, err)
	assert.Zero(t, quote.SuggestedAmount)
}

func TestQuoteMissingRate(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, _, _, _ := newBillingFixture(t, now)

	_, err := svc.Quote(context.Background(), "mem-1", string(models.ConceptMonthlyFee))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHistoryUnknownMember(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, _, _, _ := newBillingFixture(t, now)

	_, err := svc.History(context.Background(), "ghost", 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestHistoryListsMemberPayments(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc, payments, _, _ := newBillingFixture(t, now)
	payments.payments = map[string]models.Payment{
		"pay-1": {ID: "pay-1", MemberID: "mem-1", Concept: models.ConceptMonthlyFee},
	}

	list, err := svc.History(context.Background(), "mem-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "pay-1", list[0].ID)
}
