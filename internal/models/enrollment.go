package models

import "time"

// EnrollmentStatus is the lifecycle of a standing reservation. Withdrawal is
// a soft transition; rows are kept for history.
type EnrollmentStatus string

const (
	EnrollmentStatusActive    EnrollmentStatus = "ACTIVE"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
)

// Enrollment is a member's standing reservation in a weekly session.
type Enrollment struct {
	ID          string           `db:"id" json:"id"`
	MemberID    string           `db:"member_id" json:"member_id"`
	SessionID   string           `db:"session_id" json:"session_id"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	WithdrawnAt *time.Time       `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
	Status      EnrollmentStatus `db:"status" json:"status"`
}

// EnrollmentDetail joins in the session slot and member identity so callers
// can render a reservation without extra lookups.
type EnrollmentDetail struct {
	Enrollment
	MemberName  string  `db:"member_name" json:"member_name"`
	MemberFolio string  `db:"member_folio" json:"member_folio"`
	Weekday     Weekday `db:"weekday" json:"weekday"`
	StartTime   string  `db:"start_time" json:"start_time"`
	EndTime     string  `db:"end_time" json:"end_time"`
	LevelID     string  `db:"level_id" json:"level_id"`
}
