package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPlanRepositoryRateExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM rates WHERE plan_id = $1 AND level_id = $2 LIMIT 1")).
		WithArgs("plan-1", "lvl-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.RateExists(context.Background(), "plan-1", "lvl-1", "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPlanRepositoryRateExistsExcludesSelf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPlanRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM rates WHERE plan_id = $1 AND level_id = $2 AND id <> $3 LIMIT 1")).
		WithArgs("plan-1", "lvl-1", "rate-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.RateExists(context.Background(), "plan-1", "lvl-1", "rate-1")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}
