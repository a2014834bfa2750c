package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/swimlab-mx/club-api/internal/models"
	"github.com/swimlab-mx/club-api/internal/repository"
	"github.com/swimlab-mx/club-api/internal/service"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
	"github.com/swimlab-mx/club-api/pkg/response"
)

func TestEnrollmentHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewEnrollmentHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAttendanceHandlerMarkInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAttendanceHandler(nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/attendance", bytes.NewReader([]byte(`{`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Mark(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

// stubEnrollmentRepo fails every admission transaction with a fixed error so
// the handler's status mapping can be exercised per rejection.
type stubEnrollmentRepo struct {
	err error
}

func (s *stubEnrollmentRepo) InTx(ctx context.Context, fn func(ops repository.EnrollmentTxOps) error) error {
	return s.err
}

func (s *stubEnrollmentRepo) ListActiveByMember(ctx context.Context, memberID string) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

func (s *stubEnrollmentRepo) ListActiveBySession(ctx context.Context, sessionID string) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

func (s *stubEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	return nil, sql.ErrNoRows
}

func (s *stubEnrollmentRepo) Withdraw(ctx context.Context, id string, at time.Time) error {
	return nil
}

func TestEnrollmentHandlerCreateMapsRejectionsToStatusCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		reject *appErrors.Error
		status int
	}{
		{appErrors.ErrDelinquent, http.StatusUnprocessableEntity},
		{appErrors.ErrSessionFull, http.StatusConflict},
		{appErrors.ErrQuotaExceeded, http.StatusUnprocessableEntity},
		{appErrors.ErrDayConflict, http.StatusConflict},
		{appErrors.ErrEnrollmentConflict, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.reject.Code, func(t *testing.T) {
			svc := service.NewEnrollmentService(&stubEnrollmentRepo{err: tc.reject}, nil, nil, nil, nil, nil)
			h := NewEnrollmentHandler(svc, nil)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			req, _ := http.NewRequest(http.MethodPost, "/enrollments",
				strings.NewReader(`{"member_id":"mem-1","session_id":"ses-1"}`))
			req.Header.Set("Content-Type", "application/json")
			c.Request = req

			h.Create(c)
			require.Equal(t, tc.status, w.Code)

			var envelope response.Envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
			require.NotNil(t, envelope.Error)
			require.Equal(t, tc.reject.Code, envelope.Error.Code)
			require.Nil(t, envelope.Data)
		})
	}
}
