package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromClassifiesUnknownErrorsAsInternal(t *testing.T) {
	err := From(errors.New("connection reset"))
	assert.Equal(t, KindInternal, err.Kind)
	assert.Equal(t, "internal server error", err.Message)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus())
}

func TestFromKeepsWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("finish purchase order: %w", Forbidden("purchase order is already finished"))
	err := From(wrapped)
	assert.Equal(t, KindForbidden, err.Kind)
	assert.True(t, IsKind(wrapped, KindForbidden))
	assert.Equal(t, http.StatusForbidden, err.HTTPStatus())
}

func TestStatusMapping(t *testing.T) {
	cases := map[Kind]int{
		KindUnauthorized: http.StatusUnauthorized,
		KindValidation:   http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindForbidden:    http.StatusForbidden,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, StatusOf(kind), kind)
	}
}

func TestRetryableUnwraps(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := Retryable("transaction timed out", cause)
	assert.True(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, From(nil))
}
