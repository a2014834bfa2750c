package models

import "time"

// Weekday identifies the recurring day of a session, 1=Monday .. 7=Sunday.
// Ordering follows the canonical Monday-first week used by the schedule board.
type Weekday int

const (
	Monday Weekday = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// String returns the English weekday name.
func (w Weekday) String() string {
	if name, ok := weekdayNames[w]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether the weekday is in range.
func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// Weekdays returns all weekdays in canonical Monday-first order.
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// WeekdayFromTime maps a calendar date to the session weekday.
func WeekdayFromTime(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Sunday:
		return Sunday
	default:
		return Weekday(int(t.Weekday()))
	}
}

// Session is a recurring weekly class slot. Occupancy is always derived from
// active enrollments, never stored.
type Session struct {
	ID          string    `db:"id" json:"id"`
	Weekday     Weekday   `db:"weekday" json:"weekday"`
	StartTime   string    `db:"start_time" json:"start_time"`
	EndTime     string    `db:"end_time" json:"end_time"`
	LevelID     string    `db:"level_id" json:"level_id"`
	MaxCapacity int       `db:"max_capacity" json:"max_capacity"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SessionDetail adds the level name and derived occupancy figures.
type SessionDetail struct {
	Session
	LevelName   string `db:"level_name" json:"level_name"`
	ActiveCount int    `db:"active_count" json:"active_count"`
}

// AvailableCapacity returns the remaining seats for the session.
func (s SessionDetail) AvailableCapacity() int {
	return s.MaxCapacity - s.ActiveCount
}

// BoardSlot is one session entry on the weekly schedule board.
type BoardSlot struct {
	SessionDetail
	Available        int     `json:"available"`
	OccupancyPercent float64 `json:"occupancy_percent"`
}

// BoardDay groups the slots of a single weekday, sorted by start time.
type BoardDay struct {
	Weekday     Weekday     `json:"weekday"`
	WeekdayName string      `json:"weekday_name"`
	Slots       []BoardSlot `json:"slots"`
}

// ScheduleBoard is the full week in canonical day order.
type ScheduleBoard struct {
	LevelID     string     `json:"level_id,omitempty"`
	Days        []BoardDay `json:"days"`
	GeneratedAt time.Time  `json:"generated_at"`
}
