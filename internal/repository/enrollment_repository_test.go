package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func enrollmentDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "member_id", "session_id", "created_at", "withdrawn_at", "status",
		"member_name", "member_folio", "weekday", "start_time", "end_time", "level_id",
	})
}

func TestEnrollmentRepositoryListActiveByMember(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := enrollmentDetailRows().
		AddRow("enr-1", "mem-1", "ses-1", time.Now(), nil, models.EnrollmentStatusActive,
			"Ana Robles", "SW0001", models.Monday, "16:00", "17:00", "lvl-1")
	mock.ExpectQuery("SELECT e.id, e.member_id, .+ WHERE e.member_id = \\$1 AND e.status = \\$2 ORDER BY s.weekday, s.start_time").
		WithArgs("mem-1", models.EnrollmentStatusActive).
		WillReturnRows(rows)

	enrollments, err := repo.ListActiveByMember(context.Background(), "mem-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, models.Monday, enrollments[0].Weekday)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryWithdrawInactiveRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2, withdrawn_at = $3 WHERE id = $1 AND status = $4")).
		WithArgs("enr-1", models.EnrollmentStatusWithdrawn, at, models.EnrollmentStatusActive).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Withdraw(context.Background(), "enr-1", at)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryInTxCommitsOnSuccess(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE session_id = $1 AND status = $2")).
		WithArgs("ses-1", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(ops EnrollmentTxOps) error {
		count, err := ops.CountActiveBySession(context.Background(), "ses-1")
		require.NoError(t, err)
		require.Equal(t, 5, count)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentTxMemberTakesRowLock(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "folio", "full_name", "phone", "email", "level_id", "plan_id",
		"registration_date", "created_at", "updated_at",
		"level_name", "plan_name", "weekly_class_quota",
	}).AddRow("mem-1", "SW0001", "Ana Robles", nil, nil, "lvl-1", "plan-1",
		time.Now(), time.Now(), time.Now(), "Intermediate", "One Class", 1)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT m.id, m.folio, .+ WHERE m.id = \\$1 FOR UPDATE OF m").
		WithArgs("mem-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	err := repo.InTx(context.Background(), func(ops EnrollmentTxOps) error {
		member, err := ops.Member(context.Background(), "mem-1")
		require.NoError(t, err)
		require.Equal(t, 1, member.WeeklyClassQuota)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryInTxRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	sentinel := errors.New("check failed")
	err := repo.InTx(context.Background(), func(ops EnrollmentTxOps) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConflictOrMapsRetryableCodes(t *testing.T) {
	for _, code := range []pq.ErrorCode{"40001", "40P01", "23505"} {
		err := conflictOr(&pq.Error{Code: code}, "insert enrollment")
		require.Equal(t, appErrors.ErrEnrollmentConflict.Code, appErrors.FromError(err).Code)
	}

	plain := conflictOr(&pq.Error{Code: "23503"}, "insert enrollment")
	require.NotEqual(t, appErrors.ErrEnrollmentConflict.Code, appErrors.FromError(plain).Code)
}
