package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/pubflow/internal/event/domain"
	apperrors "github.com/allisson/pubflow/internal/errors"
)

var noop = domain.HandlerFunc(func(ctx context.Context, event *domain.Event) error { return nil })

func TestRegistry_Register(t *testing.T) {
	t.Run("register and lookup", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(domain.TypeUserCreated, noop))

		h, ok := r.Lookup(domain.TypeUserCreated)
		assert.True(t, ok)
		assert.NotNil(t, h)
	})

	t.Run("lookup miss", func(t *testing.T) {
		r := NewRegistry()

		h, ok := r.Lookup("Unrecognized")
		assert.False(t, ok)
		assert.Nil(t, h)
	})

	t.Run("duplicate type", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(domain.TypeUserCreated, noop))

		err := r.Register(domain.TypeUserCreated, noop)
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("malformed type", func(t *testing.T) {
		r := NewRegistry()

		err := r.Register("not a type", noop)
		assert.ErrorIs(t, err, domain.ErrInvalidEventType)
	})

	t.Run("nil handler", func(t *testing.T) {
		r := NewRegistry()

		err := r.Register(domain.TypeUserCreated, nil)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestRegistry_MustRegister(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(domain.TypeUserCreated, noop)

	assert.Panics(t, func() {
		r.MustRegister(domain.TypeUserCreated, noop)
	})
}

func TestRegistry_Types(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(domain.TypeUserCreated, noop)
	r.MustRegister(domain.TypeCommentCreated, noop)
	r.MustRegister(domain.TypeDOIRegistered, noop)

	assert.Equal(t, []domain.Type{
		domain.TypeCommentCreated,
		domain.TypeDOIRegistered,
		domain.TypeUserCreated,
	}, r.Types())
}
