package docerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindStatuses(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{InvalidType("x"), http.StatusBadRequest},
		{InvalidState("t", "s"), http.StatusBadRequest},
		{InvalidTransition("t", "a", "b"), http.StatusBadRequest},
		{BadRequest("x"), http.StatusBadRequest},
		{AccessDenied("x"), http.StatusUnauthorized},
		{NotFound("x"), http.StatusNotFound},
		{AlreadyExists("x"), http.StatusConflict},
		{Undeletable("g"), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.status, StatusOf(tt.err))
		})
	}
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := InvalidTransition("request", "open", "closed")
	assert.True(t, errors.Is(err, &Error{Kind: KindInvalidTransition}))
	assert.False(t, errors.Is(err, &Error{Kind: KindInvalidState}))

	wrapped := fmt.Errorf("update failed: %w", err)
	assert.True(t, errors.Is(wrapped, &Error{Kind: KindInvalidTransition}))
	assert.Equal(t, KindInvalidTransition, KindOf(wrapped))
	assert.Equal(t, http.StatusBadRequest, StatusOf(wrapped))
}

func TestUntypedErrors(t *testing.T) {
	err := errors.New("plain")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, Kind(""), KindOf(err))
}

func TestMessages(t *testing.T) {
	assert.Equal(t, `unknown document type "widget"`, InvalidType("widget").Error())
	assert.Equal(t, `group "core" is not deletable`, Undeletable("core").Error())
}
