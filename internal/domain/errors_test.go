package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublic_MatchesSentinelAndKeepsMessage(t *testing.T) {
	err := fmt.Errorf("login: %w", Public(ErrUnauthorized, "Credentials are not ok!"))

	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.False(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, "Credentials are not ok!", Message(err, "fallback"))
}

func TestMessage_FallsBackForPlainErrors(t *testing.T) {
	assert.Equal(t, "fallback", Message(ErrNotFound, "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("boom"), "fallback"))
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleUser.Valid())
	assert.False(t, Role("root").Valid())
	assert.False(t, Role("").Valid())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		Public(ErrUnauthorized, "x"):        http.StatusUnauthorized,
		fmt.Errorf("gate: %w", ErrForbidden): http.StatusForbidden,
		ErrNotFound:                          http.StatusNotFound,
		ErrConflict:                          http.StatusConflict,
		ErrValidation:                        http.StatusBadRequest,
		ErrUnavailable:                       http.StatusServiceUnavailable,
		errors.New("db down"):                http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}
