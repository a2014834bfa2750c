package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectionStatusCodes(t *testing.T) {
	cases := map[*Error]int{
		ErrDelinquent:         http.StatusUnprocessableEntity,
		ErrSessionFull:        http.StatusConflict,
		ErrQuotaExceeded:      http.StatusUnprocessableEntity,
		ErrDayConflict:        http.StatusConflict,
		ErrEnrollmentConflict: http.StatusConflict,
		ErrAttendanceBlocked:  http.StatusUnprocessableEntity,
		ErrNotFound:           http.StatusNotFound,
		ErrPreconditionFailed: http.StatusPreconditionFailed,
	}
	for e, status := range cases {
		assert.Equal(t, status, e.Status, e.Code)
	}
}

func TestFromErrorUnwrapsTypedErrors(t *testing.T) {
	wrapped := Wrap(ErrSessionFull, "OUTER", http.StatusBadGateway, "outer")
	inner := FromError(wrapped)
	require.NotNil(t, inner)
	assert.Equal(t, "OUTER", inner.Code)

	var target *Error
	require.True(t, stderrors.As(wrapped, &target))
	assert.True(t, stderrors.Is(wrapped, ErrSessionFull))
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	e := FromError(stderrors.New("boom"))
	assert.Equal(t, ErrInternal.Code, e.Code)
	assert.Equal(t, http.StatusInternalServerError, e.Status)
}

func TestCloneOverridesMessageOnly(t *testing.T) {
	c := Clone(ErrQuotaExceeded, "plan allows 2 classes per week")
	assert.Equal(t, ErrQuotaExceeded.Code, c.Code)
	assert.Equal(t, ErrQuotaExceeded.Status, c.Status)
	assert.Equal(t, "plan allows 2 classes per week", c.Message)
	assert.Equal(t, "membership plan weekly class quota reached", ErrQuotaExceeded.Message)
}
