package errors_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		err    *apperrors.AppError
		status int
	}{
		{apperrors.NewNotFound("x"), http.StatusNotFound},
		{apperrors.NewGone("x"), http.StatusGone},
		{apperrors.NewMethodNotAllowed("x", nil), http.StatusMethodNotAllowed},
		{apperrors.NewValidation("x"), http.StatusBadRequest},
		{apperrors.NewNotAcceptable("x"), http.StatusNotAcceptable},
		{apperrors.NewUnsupportedMediaType("x"), http.StatusUnsupportedMediaType},
		{apperrors.NewConflict("x", ""), http.StatusConflict},
		{apperrors.NewPreconditionFailed("x"), http.StatusPreconditionFailed},
		{apperrors.NewNotModified(), http.StatusNotModified},
		{apperrors.NewPreconditionRequired("x"), http.StatusPreconditionRequired},
		{apperrors.NewInternal("x", nil), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, c.err.StatusCode(), c.err.Type)
	}
}

func TestWrapPreservesTypeAndConstrainedBy(t *testing.T) {
	original := apperrors.NewConflict("bad type change", "http://example.org/rule")
	wrapped := apperrors.Wrap(original, "replace failed")

	assert.True(t, apperrors.IsConflict(wrapped))
	assert.Equal(t, "http://example.org/rule", wrapped.ConstrainedBy)
}

func TestAsFallsBackToInternal(t *testing.T) {
	wrapped := apperrors.As(assertPlainError{})
	assert.True(t, apperrors.IsInternal(wrapped))
}

type assertPlainError struct{}

func (assertPlainError) Error() string { return "boom" }
