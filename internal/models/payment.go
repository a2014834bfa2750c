package models

import "time"

// PaymentConcept classifies what a payment covers. Only MONTHLY_FEE payments
// feed the delinquency calculation.
type PaymentConcept string

const (
	ConceptMonthlyFee    PaymentConcept = "MONTHLY_FEE"
	ConceptAnnualFee     PaymentConcept = "ANNUAL_FEE"
	ConceptEnrollmentFee PaymentConcept = "ENROLLMENT_FEE"
	ConceptOther         PaymentConcept = "OTHER"
)

// Valid reports whether the concept is a supported value.
func (c PaymentConcept) Valid() bool {
	switch c {
	case ConceptMonthlyFee, ConceptAnnualFee, ConceptEnrollmentFee, ConceptOther:
		return true
	default:
		return false
	}
}

// Payment records money collected from a member.
// TotalAmount = BaseAmount + AdjustmentAmount; the adjustment is stored as a
// negative figure when a discount was applied.
type Payment struct {
	ID               string         `db:"id" json:"id"`
	ReceiptFolio     string         `db:"receipt_folio" json:"receipt_folio"`
	MemberID         string         `db:"member_id" json:"member_id"`
	PaidAt           time.Time      `db:"paid_at" json:"paid_at"`
	Concept          PaymentConcept `db:"concept" json:"concept"`
	Detail           string         `db:"detail" json:"detail"`
	BaseAmount       float64        `db:"base_amount" json:"base_amount"`
	AdjustmentAmount float64        `db:"adjustment_amount" json:"adjustment_amount"`
	TotalAmount      float64        `db:"total_amount" json:"total_amount"`
	Method           string         `db:"method" json:"method"`
	InvoiceRequested bool           `db:"invoice_requested" json:"invoice_requested"`
}

// PaymentQuote is a suggested charge derived from the member's rate.
type PaymentQuote struct {
	Concept         PaymentConcept `json:"concept"`
	SuggestedAmount float64        `json:"suggested_amount"`
	SuggestedDetail string         `json:"suggested_detail"`
}
