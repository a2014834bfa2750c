package models

import "time"

// AttendanceStatus is the daily presence mark.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "PRESENT"
	AttendanceAbsent  AttendanceStatus = "ABSENT"
)

// Valid reports whether the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent
}

// MarkOutcome distinguishes a fresh mark from a correction of an existing one.
type MarkOutcome string

const (
	MarkCreated MarkOutcome = "CREATED"
	MarkUpdated MarkOutcome = "UPDATED"
)

// AttendanceRecord holds at most one mark per (member, session, date);
// a second mark on the same day updates the stored status in place.
type AttendanceRecord struct {
	ID         string           `db:"id" json:"id"`
	MemberID   string           `db:"member_id" json:"member_id"`
	SessionID  string           `db:"session_id" json:"session_id"`
	Date       time.Time        `db:"date" json:"date"`
	Status     AttendanceStatus `db:"status" json:"status"`
	RecordedAt time.Time        `db:"recorded_at" json:"recorded_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// MarkResult pairs the stored record with what the write did.
type MarkResult struct {
	Record  AttendanceRecord `json:"record"`
	Outcome MarkOutcome      `json:"outcome"`
}

// RosterEntry is one active enrollee on the roll-call screen, with today's
// mark when one exists.
type RosterEntry struct {
	MemberID    string            `db:"member_id" json:"member_id"`
	MemberName  string            `db:"member_name" json:"member_name"`
	MemberFolio string            `db:"member_folio" json:"member_folio"`
	Status      *AttendanceStatus `db:"status" json:"status,omitempty"`
}
