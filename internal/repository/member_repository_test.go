package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

func TestMemberRepositoryCreateAllocatesNextFolio(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT MAX\\(NULLIF\\(regexp_replace\\(folio").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(41))
	mock.ExpectExec("INSERT INTO members").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	member := &models.Member{FullName: "Ana Robles", LevelID: "lvl-1", PlanID: "plan-1"}
	err := repo.Create(context.Background(), member, "SW")
	require.NoError(t, err)
	require.Equal(t, "SW0042", member.Folio)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryCreateFirstFolio(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT MAX\\(NULLIF\\(regexp_replace\\(folio").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	mock.ExpectExec("INSERT INTO members").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	member := &models.Member{FullName: "Ana Robles", LevelID: "lvl-1", PlanID: "plan-1"}
	err := repo.Create(context.Background(), member, "SW")
	require.NoError(t, err)
	require.Equal(t, "SW0001", member.Folio)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryUpdateNeverTouchesFolio(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	// The statement lists the editable columns only; folio is absent.
	mock.ExpectExec("UPDATE members SET full_name = \\?, phone = \\?, email = \\?,\\s+level_id = \\?, plan_id = \\?, updated_at = \\? WHERE id = \\?").
		WillReturnResult(sqlmock.NewResult(0, 1))

	member := &models.Member{ID: "mem-1", Folio: "SW0001", FullName: "Ana R. Robles", LevelID: "lvl-1", PlanID: "plan-1"}
	err := repo.Update(context.Background(), member)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepositoryCreateFolioCollisionIsRetryableConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMemberRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT MAX\\(NULLIF\\(regexp_replace\\(folio").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(41))
	mock.ExpectExec("INSERT INTO members").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "members_folio_key"})
	mock.ExpectRollback()

	member := &models.Member{FullName: "Ana Robles", LevelID: "lvl-1", PlanID: "plan-1"}
	err := repo.Create(context.Background(), member, "SW")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
