package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeMatching(t *testing.T) {
	notFound := New(CodeNotFound, "shareholder not found")

	t.Run("errors.Is matches on code and message", func(t *testing.T) {
		assert.ErrorIs(t, New(CodeNotFound, "shareholder not found"), notFound)
		assert.NotErrorIs(t, New(CodeNotFound, "different message"), notFound)
		assert.NotErrorIs(t, New(CodeConflict, "shareholder not found"), notFound)
	})

	t.Run("message-less target matches any error with the code", func(t *testing.T) {
		kind := &Error{Code: CodeNotFound}
		assert.ErrorIs(t, New(CodeNotFound, "different message"), kind)
	})

	t.Run("wrapped coded errors keep their code", func(t *testing.T) {
		wrapped := fmt.Errorf("lookup: %w", notFound)
		assert.True(t, HasCode(wrapped, CodeNotFound))
		assert.Equal(t, CodeNotFound, CodeOf(wrapped))
	})

	t.Run("uncoded errors are internal", func(t *testing.T) {
		plain := errors.New("boom")
		assert.False(t, HasCode(plain, CodeNotFound))
		assert.Equal(t, CodeInternal, CodeOf(plain))
	})

	t.Run("wrap preserves cause", func(t *testing.T) {
		cause := errors.New("driver failure")
		err := Wrap(cause, CodeInternal, "failed to save")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "failed to save: driver failure", err.Error())
		assert.Nil(t, Wrap(nil, CodeInternal, "ignored"))
	})
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBadRequest, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}
