package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorConstructors(t *testing.T) {
	cases := []struct {
		err    error
		code   string
		status int
	}{
		{NewValidationError("bad", nil), "VALIDATION_FAILED", http.StatusBadRequest},
		{NewConflict("dup", nil), "CONFLICT", http.StatusBadRequest},
		{NewUnauthorized("no"), "UNAUTHORIZED", http.StatusUnauthorized},
		{NewForbidden("no"), "FORBIDDEN", http.StatusForbidden},
		{NewNotFound("ticket", nil), "NOT_FOUND", http.StatusNotFound},
	}
	for _, tc := range cases {
		domainErr := ToDomainError(tc.err)
		require.NotNil(t, domainErr)
		assert.Equal(t, tc.code, domainErr.Code)
		assert.Equal(t, tc.status, domainErr.HTTPStatus)
	}
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	domainErr := ToDomainError(fmt.Errorf("query: %w", pgx.ErrNoRows))
	require.NotNil(t, domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")
	domainErr := ToDomainError(cause)
	require.NotNil(t, domainErr)
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
	assert.ErrorIs(t, domainErr, cause)
}

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewForbidden("nope")
	wrapped := fmt.Errorf("handler: %w", original)
	assert.Equal(t, original, error(ToDomainError(wrapped)))
}
