package models

import "time"

// Level is an age/skill category used to match members to sessions and rates.
// Every other table references it by ID only; renaming a level never cascades.
type Level struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// MembershipPlan defines how many simultaneous active enrollments a member
// on the plan may hold.
type MembershipPlan struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	WeeklyClassQuota int       `db:"weekly_class_quota" json:"weekly_class_quota"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Rate prices a (plan, level) pair. The pair is unique.
type Rate struct {
	ID            string    `db:"id" json:"id"`
	PlanID        string    `db:"plan_id" json:"plan_id"`
	LevelID       string    `db:"level_id" json:"level_id"`
	MonthlyFee    float64   `db:"monthly_fee" json:"monthly_fee"`
	AnnualFee     float64   `db:"annual_fee" json:"annual_fee"`
	EnrollmentFee float64   `db:"enrollment_fee" json:"enrollment_fee"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// RateDetail enriches a rate with catalog names resolved at read time.
type RateDetail struct {
	Rate
	PlanName  string `db:"plan_name" json:"plan_name"`
	LevelName string `db:"level_name" json:"level_name"`
}
