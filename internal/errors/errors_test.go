package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("wraps error with context", func(t *testing.T) {
		err := Wrap(ErrNotFound, "device token")
		assert.Error(t, err)
		assert.Equal(t, "device token: not found", err.Error())
		assert.True(t, Is(err, ErrNotFound))
	})

	t.Run("nil error returns nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "context"))
	})

	t.Run("preserves chain through multiple wraps", func(t *testing.T) {
		err := Wrap(Wrap(ErrConflict, "token is not active"), "refresh session key")
		assert.True(t, Is(err, ErrConflict))
		assert.False(t, Is(err, ErrNotFound))
	})
}

func TestIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrUnavailable)
	assert.True(t, Is(err, ErrUnavailable))
	assert.False(t, Is(err, ErrConflict))
}

func TestNew(t *testing.T) {
	err := New("boom")
	assert.EqualError(t, err, "boom")
}
