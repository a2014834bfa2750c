package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

// MemberRepository handles persistence of members.
type MemberRepository struct {
	db *sqlx.DB
}

// NewMemberRepository constructs the repository.
func NewMemberRepository(db *sqlx.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

const memberDetailColumns = `m.id, m.folio, m.full_name, m.phone, m.email, m.level_id, m.plan_id,
        m.registration_date, m.created_at, m.updated_at,
        l.name AS level_name, p.name AS plan_name, p.weekly_class_quota`

// List returns members matching the filter, newest first.
func (r *MemberRepository) List(ctx context.Context, filter models.MemberFilter) ([]models.MemberDetail, int, error) {
	base := `FROM members m
JOIN levels l ON l.id = m.level_id
JOIN membership_plans p ON p.id = m.plan_id`
	var conditions []string
	var args []interface{}

	if filter.LevelID != "" {
		conditions = append(conditions, fmt.Sprintf("m.level_id = $%d", len(args)+1))
		args = append(args, filter.LevelID)
	}
	if filter.PlanID != "" {
		conditions = append(conditions, fmt.Sprintf("m.plan_id = $%d", len(args)+1))
		args = append(args, filter.PlanID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(m.full_name ILIKE $%d OR m.folio ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY m.registration_date DESC LIMIT %d OFFSET %d`,
		memberDetailColumns, base+clause, size, offset)

	var members []models.MemberDetail
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count members: %w", err)
	}
	return members, total, nil
}

// FindDetailByID returns a member with level and plan resolved.
func (r *MemberRepository) FindDetailByID(ctx context.Context, id string) (*models.MemberDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM members m
        JOIN levels l ON l.id = m.level_id
        JOIN membership_plans p ON p.id = m.plan_id
        WHERE m.id = $1`, memberDetailColumns)
	var member models.MemberDetail
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// Create inserts a member, allocating the next consecutive folio from the
// highest existing one. Two concurrent registrations can read the same max;
// the UNIQUE constraint rejects the loser and the violation surfaces as a
// retryable conflict.
func (r *MemberRepository) Create(ctx context.Context, member *models.Member, folioPrefix string) error {
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if member.RegistrationDate.IsZero() {
		member.RegistrationDate = now
	}
	member.CreatedAt = now
	member.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin member create: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var lastSeq sql.NullInt64
	const seqQuery = `SELECT MAX(NULLIF(regexp_replace(folio, '\D', '', 'g'), '')::int) FROM members`
	if err := tx.GetContext(ctx, &lastSeq, seqQuery); err != nil {
		return fmt.Errorf("read last folio: %w", err)
	}
	next := int64(1)
	if lastSeq.Valid {
		next = lastSeq.Int64 + 1
	}
	member.Folio = fmt.Sprintf("%s%04d", folioPrefix, next)

	const insert = `INSERT INTO members (id, folio, full_name, phone, email, level_id, plan_id, registration_date, created_at, updated_at)
        VALUES (:id, :folio, :full_name, :phone, :email, :level_id, :plan_id, :registration_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, member); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "folio already allocated, retry registration")
		}
		return fmt.Errorf("create member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit member create: %w", err)
	}
	committed = true
	return nil
}

// Update modifies member fields. The folio is immutable and never part of the
// update statement.
func (r *MemberRepository) Update(ctx context.Context, member *models.Member) error {
	member.UpdatedAt = time.Now().UTC()
	const query = `UPDATE members SET full_name = :full_name, phone = :phone, email = :email,
        level_id = :level_id, plan_id = :plan_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return nil
}
