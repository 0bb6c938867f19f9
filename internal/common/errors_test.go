package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapError(t *testing.T) {
	original := errors.New("original error")

	wrapped := WrapError(original, "wrapper message")
	assert.EqualError(t, wrapped, "wrapper message: original error")
	assert.ErrorIs(t, wrapped, original)

	assert.Nil(t, WrapError(nil, "wrapper message"))
	assert.Nil(t, WrapErrorf(nil, "wrapping %d", 1))

	formatted := WrapErrorf(original, "target %s", "Alpha")
	assert.EqualError(t, formatted, "target Alpha: original error")
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("name", "", "required")
	assert.Equal(t, "validation failed for field 'name': required (value: )", err.Error())
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("https://t.me/x", "request failed", cause)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNetworkFailure)
	assert.Contains(t, err.Error(), "https://t.me/x")

	assert.Equal(t, "network error for 'u': r", NewNetworkError("u", "r", nil).Error())
}

func TestIsHTTPError(t *testing.T) {
	err := WrapError(NewHTTPErrorWithURL(http.StatusNotFound, "not found", "https://t.me/x"), "fetch")
	httpErr, ok := IsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Contains(t, err.Error(), "HTTP 404 error for 'https://t.me/x'")

	_, ok = IsHTTPError(errors.New("plain"))
	assert.False(t, ok)
}

func TestCombineErrors(t *testing.T) {
	a := errors.New("a")
	b := errors.New("b")

	assert.Nil(t, CombineErrors(nil))
	assert.Nil(t, CombineErrors([]error{nil, nil}))
	assert.Equal(t, a, CombineErrors([]error{nil, a}))
	assert.EqualError(t, CombineErrors([]error{a, b}), "multiple errors occurred: [a; b]")
}
