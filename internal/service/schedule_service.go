package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/swimlab-mx/club-api/internal/models"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context) ([]models.SessionDetail, error)
	ListByLevel(ctx context.Context, levelID string) ([]models.SessionDetail, error)
	ListByWeekday(ctx context.Context, weekday models.Weekday) ([]models.SessionDetail, error)
	FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	CountActiveEnrollments(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
}

type boardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheLookupRecorder interface {
	RecordCacheLookup(hit bool)
}

const boardCachePrefix = "schedule:board:"

// ScheduleService manages weekly sessions and builds the schedule board.
// The board is cached briefly for read traffic; enrollment decisions never
// consult the cache, they recount inside their own transaction.
type ScheduleService struct {
	sessions  sessionRepository
	cache     boardCache
	metrics   cacheLookupRecorder
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	boardTTL  time.Duration
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(sessions sessionRepository, cache boardCache, metrics cacheLookupRecorder, validate *validator.Validate, logger *zap.Logger, now func() time.Time, boardTTL time.Duration) *ScheduleService {
	if metrics == nil {
		metrics = (*MetricsService)(nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	if boardTTL <= 0 {
		boardTTL = 5 * time.Minute
	}
	return &ScheduleService{sessions: sessions, cache: cache, metrics: metrics, validator: validate, logger: logger, now: now, boardTTL: boardTTL}
}

// Board returns the weekly schedule grouped by canonical weekday order. An
// empty levelID returns the whole facility.
func (s *ScheduleService) Board(ctx context.Context, levelID string) (*models.ScheduleBoard, error) {
	key := boardCachePrefix + "all"
	if levelID != "" {
		key = boardCachePrefix + levelID
	}

	var cached models.ScheduleBoard
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.RecordCacheLookup(true)
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("schedule board cache read failed", zap.Error(err))
	}
	s.metrics.RecordCacheLookup(false)

	var (
		sessions []models.SessionDetail
		err      error
	)
	if levelID != "" {
		sessions, err = s.sessions.ListByLevel(ctx, levelID)
	} else {
		sessions, err = s.sessions.List(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}

	board := s.buildBoard(levelID, sessions)
	if err := s.cache.Set(ctx, key, board, s.boardTTL); err != nil {
		s.logger.Warn("schedule board cache write failed", zap.Error(err))
	}
	return board, nil
}

func (s *ScheduleService) buildBoard(levelID string, sessions []models.SessionDetail) *models.ScheduleBoard {
	byDay := make(map[models.Weekday][]models.BoardSlot, 7)
	for _, session := range sessions {
		slot := models.BoardSlot{SessionDetail: session, Available: session.AvailableCapacity()}
		if session.MaxCapacity > 0 {
			slot.OccupancyPercent = float64(session.ActiveCount) / float64(session.MaxCapacity) * 100
		}
		byDay[session.Weekday] = append(byDay[session.Weekday], slot)
	}

	board := &models.ScheduleBoard{LevelID: levelID, GeneratedAt: s.now().UTC()}
	for _, day := range models.Weekdays() {
		slots := byDay[day]
		if len(slots) == 0 {
			continue
		}
		board.Days = append(board.Days, models.BoardDay{
			Weekday:     day,
			WeekdayName: day.String(),
			Slots:       slots,
		})
	}
	return board
}

// InvalidateBoard drops every cached board variant. Called after any write
// that changes occupancy or the session catalog.
func (s *ScheduleService) InvalidateBoard(ctx context.Context) error {
	return s.cache.DeleteByPattern(ctx, boardCachePrefix+"*")
}

// SessionRequest carries the fields for creating or updating a session.
type SessionRequest struct {
	Weekday     int    `json:"weekday" validate:"required,min=1,max=7"`
	StartTime   string `json:"start_time" validate:"required,session_time"`
	EndTime     string `json:"end_time" validate:"required,session_time"`
	LevelID     string `json:"level_id" validate:"required"`
	MaxCapacity int    `json:"max_capacity" validate:"required,gt=0"`
}

func (s *ScheduleService) validateSessionRequest(req SessionRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	start, _ := time.Parse("15:04", req.StartTime)
	end, _ := time.Parse("15:04", req.EndTime)
	if !end.After(start) {
		return appErrors.Clone(appErrors.ErrValidation, "end_time must be after start_time")
	}
	return nil
}

// CreateSession registers a new weekly slot.
func (s *ScheduleService) CreateSession(ctx context.Context, req SessionRequest) (*models.SessionDetail, error) {
	if err := s.validateSessionRequest(req); err != nil {
		return nil, err
	}

	session := &models.Session{
		Weekday:     models.Weekday(req.Weekday),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		LevelID:     req.LevelID,
		MaxCapacity: req.MaxCapacity,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	if err := s.InvalidateBoard(ctx); err != nil {
		s.logger.Warn("failed to invalidate schedule board cache", zap.Error(err))
	}

	return s.GetSession(ctx, session.ID)
}

// UpdateSession modifies a session. Capacity may shrink below current
// occupancy; existing reservations are never revoked, the session just stops
// admitting until attrition brings it back under the limit.
func (s *ScheduleService) UpdateSession(ctx context.Context, id string, req SessionRequest) (*models.SessionDetail, error) {
	if err := s.validateSessionRequest(req); err != nil {
		return nil, err
	}

	existing, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}

	session := existing.Session
	session.Weekday = models.Weekday(req.Weekday)
	session.StartTime = req.StartTime
	session.EndTime = req.EndTime
	session.LevelID = req.LevelID
	session.MaxCapacity = req.MaxCapacity
	if err := s.sessions.Update(ctx, &session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	if err := s.InvalidateBoard(ctx); err != nil {
		s.logger.Warn("failed to invalidate schedule board cache", zap.Error(err))
	}

	return s.GetSession(ctx, id)
}

// DeleteSession removes a session that has no active enrollees.
func (s *ScheduleService) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.GetSession(ctx, id); err != nil {
		return err
	}

	active, err := s.sessions.CountActiveEnrollments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollees")
	}
	if active > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("session still has %d active enrollees", active))
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	if err := s.InvalidateBoard(ctx); err != nil {
		s.logger.Warn("failed to invalidate schedule board cache", zap.Error(err))
	}
	return nil
}

// GetSession returns one session with derived occupancy.
func (s *ScheduleService) GetSession(ctx context.Context, id string) (*models.SessionDetail, error) {
	session, err := s.sessions.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Today lists the sessions held on the current weekday, earliest first.
func (s *ScheduleService) Today(ctx context.Context) ([]models.SessionDetail, error) {
	weekday := models.WeekdayFromTime(s.now())
	sessions, err := s.sessions.ListByWeekday(ctx, weekday)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list today's sessions")
	}
	return sessions, nil
}

// RegisterScheduleValidations installs the HH:MM time validator.
func RegisterScheduleValidations(v *validator.Validate) {
	_ = v.RegisterValidation("session_time", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})
}
