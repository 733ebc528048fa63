package social

import (
	"testing"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFollow(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	t.Run("valid edge", func(t *testing.T) {
		f, err := NewFollow(a, b)
		require.NoError(t, err)
		assert.Equal(t, a, f.FollowerID)
		assert.Equal(t, b, f.FolloweeID)
		assert.False(t, f.CreatedAt.IsZero())

		evt := NewUserFollowedEvent(f)
		assert.Equal(t, EventTypeUserFollowed, evt.EventType())
		assert.Equal(t, b, evt.AggregateID())
	})

	t.Run("self follow", func(t *testing.T) {
		_, err := NewFollow(a, a)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("nil ids", func(t *testing.T) {
		_, err := NewFollow(uuid.Nil, b)
		assert.Error(t, err)
	})
}
