package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/swimlab-mx/club-api/internal/models"
)

// AttendanceRepository handles daily presence marks. The unique key
// (member_id, session_id, date) makes a second mark on the same day an
// update, never a duplicate row.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// upsertResult carries the stored row plus whether it was freshly inserted.
type upsertResult struct {
	models.AttendanceRecord
	Inserted bool `db:"inserted"`
}

// Upsert writes the mark for (member, session, date). The xmax system column
// is zero only for rows created by this statement, which distinguishes a
// fresh mark from a correction.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, models.MarkOutcome, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendance_records (id, member_id, session_id, date, status, recorded_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (member_id, session_id, date)
DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
RETURNING id, member_id, session_id, date, status, recorded_at, updated_at, (xmax = 0) AS inserted`

	var stored upsertResult
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.MemberID, record.SessionID, record.Date, record.Status, record.RecordedAt, record.UpdatedAt); err != nil {
		return nil, "", fmt.Errorf("upsert attendance: %w", err)
	}

	outcome := models.MarkUpdated
	if stored.Inserted {
		outcome = models.MarkCreated
	}
	return &stored.AttendanceRecord, outcome, nil
}

// Roster lists the session's active enrollees with any mark already recorded
// for the given date.
func (r *AttendanceRepository) Roster(ctx context.Context, sessionID string, date time.Time) ([]models.RosterEntry, error) {
	const query = `SELECT m.id AS member_id, m.full_name AS member_name, m.folio AS member_folio, a.status
        FROM enrollments e
        JOIN members m ON m.id = e.member_id
        LEFT JOIN attendance_records a ON a.member_id = e.member_id AND a.session_id = e.session_id AND a.date = $2
        WHERE e.session_id = $1 AND e.status = 'ACTIVE'
        ORDER BY m.full_name`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, sessionID, date); err != nil {
		return nil, fmt.Errorf("attendance roster: %w", err)
	}
	return roster, nil
}

// ListByMember returns the member's recent marks, newest first.
func (r *AttendanceRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]models.AttendanceRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT id, member_id, session_id, date, status, recorded_at, updated_at
        FROM attendance_records WHERE member_id = $1 ORDER BY date DESC, recorded_at DESC LIMIT %d`, limit)
	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, memberID); err != nil {
		return nil, fmt.Errorf("list member attendance: %w", err)
	}
	return records, nil
}
