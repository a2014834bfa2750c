package models

import "time"

// BillingClassification is the payment-standing bucket derived from the age
// of the member's last monthly-fee payment. Only Delinquent blocks enrollment
// and attendance marking.
type BillingClassification string

const (
	BillingNew        BillingClassification = "NEW"
	BillingCurrent    BillingClassification = "CURRENT"
	BillingPaymentDue BillingClassification = "PAYMENT_DUE"
	BillingDelinquent BillingClassification = "DELINQUENT"
)

// BillingStatus is a pure projection over payment history; it is recomputed
// on every query and never persisted.
type BillingStatus struct {
	Classification BillingClassification `json:"classification"`
	Message        string                `json:"message"`
	ColorHint      string                `json:"color_hint"`
	DaysElapsed    int                   `json:"days_elapsed"`
	LastPaymentAt  *time.Time            `json:"last_payment_at,omitempty"`
}

// Eligible reports whether the member may enroll or be marked present.
func (b BillingStatus) Eligible() bool {
	return b.Classification != BillingDelinquent
}
