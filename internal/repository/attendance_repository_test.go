package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/swimlab-mx/club-api/internal/models"
)

func attendanceRows(inserted bool) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "member_id", "session_id", "date", "status", "recorded_at", "updated_at", "inserted"}).
		AddRow("att-1", "mem-1", "ses-1", now, models.AttendancePresent, now, now, inserted)
}

func TestAttendanceRepositoryUpsertFreshMark(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance_records .+ON CONFLICT \\(member_id, session_id, date\\)").
		WillReturnRows(attendanceRows(true))

	record := &models.AttendanceRecord{MemberID: "mem-1", SessionID: "ses-1", Date: time.Now(), Status: models.AttendancePresent}
	stored, outcome, err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, models.MarkCreated, outcome)
	require.Equal(t, "att-1", stored.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertSecondMarkUpdates(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance_records .+ON CONFLICT \\(member_id, session_id, date\\)").
		WillReturnRows(attendanceRows(false))

	record := &models.AttendanceRecord{MemberID: "mem-1", SessionID: "ses-1", Date: time.Now(), Status: models.AttendanceAbsent}
	_, outcome, err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, models.MarkUpdated, outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"member_id", "member_name", "member_folio", "status"}).
		AddRow("mem-1", "Ana Robles", "SW0001", models.AttendancePresent).
		AddRow("mem-2", "Bruno Diaz", "SW0002", nil)
	mock.ExpectQuery("SELECT m.id AS member_id, .+ WHERE e.session_id = \\$1 AND e.status = 'ACTIVE'").
		WithArgs("ses-1", date).
		WillReturnRows(rows)

	roster, err := repo.Roster(context.Background(), "ses-1", date)
	require.NoError(t, err)
	require.Len(t, roster, 2)
	require.NotNil(t, roster[0].Status)
	require.Nil(t, roster[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
