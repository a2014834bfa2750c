package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/swimlab-mx/club-api/internal/models"
)

// SessionRepository handles persistence of weekly class sessions. Occupancy
// is always computed from active enrollments at query time.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionDetailQuery = `SELECT s.id, s.weekday, s.start_time, s.end_time, s.level_id, s.max_capacity,
        s.created_at, s.updated_at, l.name AS level_name,
        (SELECT COUNT(*) FROM enrollments e WHERE e.session_id = s.id AND e.status = 'ACTIVE') AS active_count
        FROM sessions s
        JOIN levels l ON l.id = s.level_id`

// List returns every session with derived occupancy, in canonical weekday
// order then by start time.
func (r *SessionRepository) List(ctx context.Context) ([]models.SessionDetail, error) {
	query := sessionDetailQuery + ` ORDER BY s.weekday, s.start_time`
	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ListByLevel returns sessions for one level in weekday/start-time order.
func (r *SessionRepository) ListByLevel(ctx context.Context, levelID string) ([]models.SessionDetail, error) {
	query := sessionDetailQuery + ` WHERE s.level_id = $1 ORDER BY s.weekday, s.start_time`
	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, levelID); err != nil {
		return nil, fmt.Errorf("list sessions by level: %w", err)
	}
	return sessions, nil
}

// ListByWeekday returns the sessions held on the given weekday, earliest first.
func (r *SessionRepository) ListByWeekday(ctx context.Context, weekday models.Weekday) ([]models.SessionDetail, error) {
	query := sessionDetailQuery + ` WHERE s.weekday = $1 ORDER BY s.start_time`
	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, weekday); err != nil {
		return nil, fmt.Errorf("list sessions by weekday: %w", err)
	}
	return sessions, nil
}

// FindDetailByID returns one session with derived occupancy.
func (r *SessionRepository) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	query := sessionDetailQuery + ` WHERE s.id = $1`
	var session models.SessionDetail
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	const query = `INSERT INTO sessions (id, weekday, start_time, end_time, level_id, max_capacity, created_at, updated_at)
        VALUES (:id, :weekday, :start_time, :end_time, :level_id, :max_capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update modifies an existing session.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sessions SET weekday = :weekday, start_time = :start_time, end_time = :end_time,
        level_id = :level_id, max_capacity = :max_capacity, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// CountActiveEnrollments returns the session's live occupancy.
func (r *SessionRepository) CountActiveEnrollments(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE session_id = $1 AND status = 'ACTIVE'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count session enrollments: %w", err)
	}
	return count, nil
}

// Delete removes a session permanently. Callers guard against deleting a
// session that still has active enrollments.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
