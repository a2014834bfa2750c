package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

// EnrollmentTxOps exposes the reads and the single write available inside an
// enrollment transaction. Member locks the member row and LockSession the
// session row, so concurrent attempts by the same member or against the same
// session serialize and the counts observed afterwards stay valid until
// commit.
type EnrollmentTxOps interface {
	Member(ctx context.Context, memberID string) (*models.MemberDetail, error)
	LockSession(ctx context.Context, sessionID string) (*models.Session, error)
	LastMonthlyFeePaidAt(ctx context.Context, memberID string) (*time.Time, error)
	CountActiveBySession(ctx context.Context, sessionID string) (int, error)
	CountActiveByMember(ctx context.Context, memberID string) (int, error)
	ActiveSlotsByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error)
	Insert(ctx context.Context, enrollment *models.Enrollment) error
}

// EnrollmentRepository handles persistence of standing reservations.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

const enrollmentDetailColumns = `e.id, e.member_id, e.session_id, e.created_at, e.withdrawn_at, e.status,
        m.full_name AS member_name, m.folio AS member_folio,
        s.weekday, s.start_time, s.end_time, s.level_id`

const enrollmentDetailFrom = ` FROM enrollments e
        JOIN members m ON m.id = e.member_id
        JOIN sessions s ON s.id = e.session_id`

// InTx runs fn inside a read-committed transaction, committing on nil and
// rolling back otherwise. Serialization and lock failures surface as the
// retryable enrollment-conflict error.
func (r *EnrollmentRepository) InTx(ctx context.Context, fn func(ops EnrollmentTxOps) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin enrollment tx: %w", err)
	}

	if err := fn(&enrollmentTx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return conflictOr(err, "commit enrollment tx")
	}
	return nil
}

// ListActiveByMember returns the member's standing reservations with session
// slots visible, ordered by weekday then start time.
func (r *EnrollmentRepository) ListActiveByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error) {
	query := `SELECT ` + enrollmentDetailColumns + enrollmentDetailFrom +
		` WHERE e.member_id = $1 AND e.status = $2 ORDER BY s.weekday, s.start_time`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, memberID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list active enrollments: %w", err)
	}
	return enrollments, nil
}

// ListActiveBySession returns the active enrollees of one session.
func (r *EnrollmentRepository) ListActiveBySession(ctx context.Context, sessionID string) ([]models.EnrollmentDetail, error) {
	query := `SELECT ` + enrollmentDetailColumns + enrollmentDetailFrom +
		` WHERE e.session_id = $1 AND e.status = $2 ORDER BY m.full_name`
	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, sessionID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list session enrollments: %w", err)
	}
	return enrollments, nil
}

// FindDetailByID returns one enrollment with context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := `SELECT ` + enrollmentDetailColumns + enrollmentDetailFrom + ` WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Withdraw flips an active enrollment to WITHDRAWN. The freed seat is visible
// to the next capacity computation immediately because occupancy is derived,
// never stored. Returns sql.ErrNoRows when the enrollment is not active.
func (r *EnrollmentRepository) Withdraw(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE enrollments SET status = $2, withdrawn_at = $3 WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, models.EnrollmentStatusWithdrawn, at, models.EnrollmentStatusActive)
	if err != nil {
		return fmt.Errorf("withdraw enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("withdraw enrollment result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type enrollmentTx struct {
	tx *sqlx.Tx
}

func (t *enrollmentTx) Member(ctx context.Context, memberID string) (*models.MemberDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM members m
        JOIN levels l ON l.id = m.level_id
        JOIN membership_plans p ON p.id = m.plan_id
        WHERE m.id = $1 FOR UPDATE OF m`, memberDetailColumns)
	var member models.MemberDetail
	if err := t.tx.GetContext(ctx, &member, query, memberID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, conflictOr(err, "lock member")
	}
	return &member, nil
}

func (t *enrollmentTx) LockSession(ctx context.Context, sessionID string) (*models.Session, error) {
	const query = `SELECT id, weekday, start_time, end_time, level_id, max_capacity, created_at, updated_at
        FROM sessions WHERE id = $1 FOR UPDATE`
	var session models.Session
	if err := t.tx.GetContext(ctx, &session, query, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, conflictOr(err, "lock session")
	}
	return &session, nil
}

func (t *enrollmentTx) LastMonthlyFeePaidAt(ctx context.Context, memberID string) (*time.Time, error) {
	const query = `SELECT paid_at FROM payments WHERE member_id = $1 AND concept = $2 ORDER BY paid_at DESC LIMIT 1`
	var paidAt time.Time
	if err := t.tx.GetContext(ctx, &paidAt, query, memberID, models.ConceptMonthlyFee); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("last monthly fee: %w", err)
	}
	return &paidAt, nil
}

func (t *enrollmentTx) CountActiveBySession(ctx context.Context, sessionID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE session_id = $1 AND status = $2`
	var count int
	if err := t.tx.GetContext(ctx, &count, query, sessionID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count session occupancy: %w", err)
	}
	return count, nil
}

func (t *enrollmentTx) CountActiveByMember(ctx context.Context, memberID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE member_id = $1 AND status = $2`
	var count int
	if err := t.tx.GetContext(ctx, &count, query, memberID, models.EnrollmentStatusActive); err != nil {
		return 0, fmt.Errorf("count member enrollments: %w", err)
	}
	return count, nil
}

func (t *enrollmentTx) ActiveSlotsByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error) {
	query := `SELECT ` + enrollmentDetailColumns + enrollmentDetailFrom +
		` WHERE e.member_id = $1 AND e.status = $2 ORDER BY s.weekday, s.start_time`
	var enrollments []models.EnrollmentDetail
	if err := t.tx.SelectContext(ctx, &enrollments, query, memberID, models.EnrollmentStatusActive); err != nil {
		return nil, fmt.Errorf("list member slots: %w", err)
	}
	return enrollments, nil
}

func (t *enrollmentTx) Insert(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = time.Now().UTC()
	}
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	const query = `INSERT INTO enrollments (id, member_id, session_id, created_at, withdrawn_at, status)
        VALUES (:id, :member_id, :session_id, :created_at, :withdrawn_at, :status)`
	if _, err := t.tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return conflictOr(err, "insert enrollment")
	}
	return nil
}

// conflictOr maps serialization failures, deadlocks and unique violations to
// the retryable conflict error, and wraps anything else.
func conflictOr(err error, op string) error {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "40001", "40P01", "23505":
			return appErrors.Wrap(err, appErrors.ErrEnrollmentConflict.Code, appErrors.ErrEnrollmentConflict.Status, appErrors.ErrEnrollmentConflict.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
