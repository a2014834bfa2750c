package models

import "time"

// Member is a person enrolled in the facility's program. The folio is
// assigned once at registration and never changes.
type Member struct {
	ID               string    `db:"id" json:"id"`
	Folio            string    `db:"folio" json:"folio"`
	FullName         string    `db:"full_name" json:"full_name"`
	Phone            *string   `db:"phone" json:"phone,omitempty"`
	Email            *string   `db:"email" json:"email,omitempty"`
	LevelID          string    `db:"level_id" json:"level_id"`
	PlanID           string    `db:"plan_id" json:"plan_id"`
	RegistrationDate time.Time `db:"registration_date" json:"registration_date"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// MemberDetail resolves catalog names at read time.
type MemberDetail struct {
	Member
	LevelName        string `db:"level_name" json:"level_name"`
	PlanName         string `db:"plan_name" json:"plan_name"`
	WeeklyClassQuota int    `db:"weekly_class_quota" json:"weekly_class_quota"`
}

// MemberFilter provides filters for listing members.
type MemberFilter struct {
	LevelID  string
	PlanID   string
	Search   string
	Page     int
	PageSize int
}
