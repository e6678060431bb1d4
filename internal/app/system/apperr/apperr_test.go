package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dalemusser/studytrack/internal/app/system/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *apperr.Error
		want int
	}{
		{apperr.InvalidInput("bad id"), http.StatusBadRequest},
		{apperr.Unauthorized("no token"), http.StatusUnauthorized},
		{apperr.Forbidden("not creator"), http.StatusForbidden},
		{apperr.NotFound("community"), http.StatusNotFound},
		{apperr.Conflict("already a member"), http.StatusConflict},
		{apperr.RateLimited("slow down"), http.StatusTooManyRequests},
		{apperr.Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Kind.HTTPStatus())
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	assert.Equal(t, "post not found", apperr.NotFound("post").Message)
}

func TestAs_WrappedError(t *testing.T) {
	base := apperr.Conflict("creator cannot leave")
	wrapped := fmt.Errorf("leave: %w", base)

	got := apperr.As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, apperr.KindConflict, got.Kind)
	assert.True(t, apperr.Is(wrapped, apperr.KindConflict))
	assert.False(t, apperr.Is(wrapped, apperr.KindNotFound))
}

func TestAs_PlainErrorBecomesInternal(t *testing.T) {
	cause := errors.New("socket closed")
	got := apperr.As(cause)

	require.NotNil(t, got)
	assert.Equal(t, apperr.KindInternal, got.Kind)
	assert.ErrorIs(t, got, cause)
	assert.NotContains(t, got.Message, "socket")
}

func TestAs_Nil(t *testing.T) {
	assert.Nil(t, apperr.As(nil))
}
