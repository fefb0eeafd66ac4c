package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad", nil), KindValidation},
		{"conflict", Conflict("taken"), KindConflict},
		{"unauthorized", Unauthorized("no"), KindUnauthorized},
		{"forbidden", Forbidden("no"), KindForbidden},
		{"not found", NotFound("gone"), KindNotFound},
		{"wrapped", fmt.Errorf("create: %w", Conflict("taken")), KindConflict},
		{"plain error", errors.New("boom"), KindServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestServer_HidesCauseInMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := Server(cause)

	assert.Equal(t, "Server error", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAs(t *testing.T) {
	e := As(errors.New("boom"))
	assert.Equal(t, KindServer, e.Kind)

	nf := NotFound("Blog not found")
	assert.Same(t, nf, As(fmt.Errorf("get: %w", nf)))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation_error", KindValidation.String())
	assert.Equal(t, "server_error", KindServer.String())
}
