package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

type fakeSessionRepo struct {
	sessions map[string]*models.SessionDetail
	active   map[string]int
	deleted  []string
}

func (f *fakeSessionRepo) List(ctx context.Context) ([]models.SessionDetail, error) {
	var list []models.SessionDetail
	for _, s := range f.sessions {
		list = append(list, *s)
	}
	return list, nil
}

func (f *fakeSessionRepo) ListByLevel(ctx context.Context, levelID string) ([]models.SessionDetail, error) {
	var list []models.SessionDetail
	for _, s := range f.sessions {
		if s.LevelID == levelID {
			list = append(list, *s)
		}
	}
	return list, nil
}

func (f *fakeSessionRepo) ListByWeekday(ctx context.Context, weekday models.Weekday) ([]models.SessionDetail, error) {
	var list []models.SessionDetail
	for _, s := range f.sessions {
		if s.Weekday == weekday {
			list = append(list, *s)
		}
	}
	return list, nil
}

func (f *fakeSessionRepo) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = "ses-new"
	}
	if f.sessions == nil {
		f.sessions = make(map[string]*models.SessionDetail)
	}
	f.sessions[session.ID] = &models.SessionDetail{Session: *session}
	return nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, session *models.Session) error {
	f.sessions[session.ID] = &models.SessionDetail{Session: *session}
	return nil
}

func (f *fakeSessionRepo) CountActiveEnrollments(ctx context.Context, id string) (int, error) {
	return f.active[id], nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	delete(f.sessions, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCache struct {
	store map[string][]byte
	gets  int
	hits  int
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	f.gets++
	raw, ok := f.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	f.hits++
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.store == nil {
		f.store = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.store[key] = raw
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.store {
		if strings.HasPrefix(key, prefix) {
			delete(f.store, key)
		}
	}
	return nil
}

func sessionDetail(id string, day models.Weekday, start string, capacity, active int) *models.SessionDetail {
	return &models.SessionDetail{
		Session: models.Session{
			ID:          id,
			Weekday:     day,
			StartTime:   start,
			EndTime:     "18:00",
			LevelID:     "lvl-1",
			MaxCapacity: capacity,
		},
		LevelName:   "Intermediate",
		ActiveCount: active,
	}
}

type fakeLookupRecorder struct {
	hits   int
	misses int
}

func (f *fakeLookupRecorder) RecordCacheLookup(hit bool) {
	if hit {
		f.hits++
	} else {
		f.misses++
	}
}

func newScheduleFixture(t *testing.T) (*ScheduleService, *fakeSessionRepo, *fakeCache, *fakeLookupRecorder) {
	t.Helper()
	repo := &fakeSessionRepo{
		sessions: map[string]*models.SessionDetail{
			"ses-mon": sessionDetail("ses-mon", models.Monday, "16:00", 8, 4),
			"ses-fri": sessionDetail("ses-fri", models.Friday, "17:00", 10, 10),
		},
		active: map[string]int{},
	}
	cache := &fakeCache{}
	recorder := &fakeLookupRecorder{}
	validate := validator.New()
	RegisterScheduleValidations(validate)
	now := func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }
	svc := NewScheduleService(repo, cache, recorder, validate, nil, now, time.Minute)
	return svc, repo, cache, recorder
}

func TestBoardGroupsByCanonicalWeekdayOrder(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	board, err := svc.Board(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, board.Days, 2)
	assert.Equal(t, models.Monday, board.Days[0].Weekday)
	assert.Equal(t, "Monday", board.Days[0].WeekdayName)
	assert.Equal(t, models.Friday, board.Days[1].Weekday)
}

func TestBoardDerivesAvailabilityAndOccupancy(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	board, err := svc.Board(context.Background(), "")
	require.NoError(t, err)

	monday := board.Days[0].Slots[0]
	assert.Equal(t, 4, monday.Available)
	assert.Equal(t, 50.0, monday.OccupancyPercent)

	friday := board.Days[1].Slots[0]
	assert.Equal(t, 0, friday.Available)
	assert.Equal(t, 100.0, friday.OccupancyPercent)
}

func TestBoardServedFromCacheOnSecondRead(t *testing.T) {
	svc, _, cache, recorder := newScheduleFixture(t)

	_, err := svc.Board(context.Background(), "")
	require.NoError(t, err)
	_, err = svc.Board(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, recorder.hits)
	assert.Equal(t, 1, recorder.misses)
}

func TestCreateSessionInvalidatesBoardCache(t *testing.T) {
	svc, _, cache, _ := newScheduleFixture(t)

	_, err := svc.Board(context.Background(), "")
	require.NoError(t, err)
	require.NotEmpty(t, cache.store)

	_, err = svc.CreateSession(context.Background(), SessionRequest{
		Weekday: 3, StartTime: "09:00", EndTime: "10:00", LevelID: "lvl-1", MaxCapacity: 6,
	})
	require.NoError(t, err)
	assert.Empty(t, cache.store)
}

func TestCreateSessionRejectsInvertedTimes(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	_, err := svc.CreateSession(context.Background(), SessionRequest{
		Weekday: 3, StartTime: "10:00", EndTime: "09:00", LevelID: "lvl-1", MaxCapacity: 6,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateSessionRejectsBadWeekday(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	_, err := svc.CreateSession(context.Background(), SessionRequest{
		Weekday: 8, StartTime: "09:00", EndTime: "10:00", LevelID: "lvl-1", MaxCapacity: 6,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDeleteSessionGuardedByActiveEnrollees(t *testing.T) {
	svc, repo, _, _ := newScheduleFixture(t)
	repo.active["ses-mon"] = 4

	err := svc.DeleteSession(context.Background(), "ses-mon")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)

	err = svc.DeleteSession(context.Background(), "ses-fri")
	require.NoError(t, err)
	assert.Equal(t, []string{"ses-fri"}, repo.deleted)
}

func TestTodayUsesInjectedClock(t *testing.T) {
	svc, _, _, _ := newScheduleFixture(t)

	// 2026-08-29 is a Saturday; neither fixture session runs that day.
	sessions, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
