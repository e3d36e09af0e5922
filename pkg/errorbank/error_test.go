package errorbank

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		code   codes.Code
	}{
		{BadRequest("x"), http.StatusBadRequest, codes.InvalidArgument},
		{Unauthorized("x"), http.StatusUnauthorized, codes.Unauthenticated},
		{Forbidden("x"), http.StatusForbidden, codes.PermissionDenied},
		{Conflict("x"), http.StatusConflict, codes.AlreadyExists},
		{NotFound("x"), http.StatusNotFound, codes.NotFound},
		{Unprocessable("x"), http.StatusUnprocessableEntity, codes.FailedPrecondition},
		{Internal("x"), http.StatusInternalServerError, codes.Internal},
	}

	for _, tc := range cases {
		t.Run(string(tc.err.Kind()), func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.StatusCode())
			assert.Equal(t, tc.code, tc.err.GRPCCode())
		})
	}
}

func TestNilAppError(t *testing.T) {
	var e *AppError
	assert.Equal(t, KindInternal, e.Kind())
	assert.Equal(t, http.StatusInternalServerError, e.StatusCode())
	assert.Nil(t, e.Unwrap())
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	cause := errors.New("boom")
	wrapped := fmt.Errorf("load: %w", NotFound("order not found", WithCause(cause)))
	appErr := From(wrapped)
	assert.Equal(t, KindNotFound, appErr.Kind())
	assert.ErrorIs(t, appErr, cause)

	plain := From(cause)
	assert.Equal(t, KindInternal, plain.Kind())
	assert.Equal(t, "internal error: boom", plain.Error())
}

func TestDetails(t *testing.T) {
	err := BadRequest("", WithDetail("field", "email"), WithDetails(map[string]any{"reason": "missing"}))
	assert.Equal(t, "bad_request", err.Message())
	assert.Equal(t, map[string]any{"field": "email", "reason": "missing"}, err.Details())
}

func TestGRPCStatus(t *testing.T) {
	st, ok := status.FromError(NotFound("order not found"))
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "order not found", st.Message())

	st = Internal("db exploded", WithCause(errors.New("dsn secret"))).GRPCStatus()
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", Forbidden("nope"))
	assert.True(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindInternal))
}
