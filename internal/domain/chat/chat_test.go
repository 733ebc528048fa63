package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDirectConversation(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	c1, err := NewDirectConversation(a, b)
	require.NoError(t, err)
	c2, err := NewDirectConversation(b, a)
	require.NoError(t, err)
	assert.Equal(t, c1.PairKey(), c2.PairKey())
	assert.Equal(t, PairKey(a, b), c1.PairKey())
	assert.ElementsMatch(t, []uuid.UUID{a, b}, c1.ParticipantIDs())
	assert.Equal(t, []uuid.UUID{b}, c1.OtherParticipants(a))

	_, err = NewDirectConversation(a, a)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestConversation_MessagesAndReads(t *testing.T) {
	a, b, outsider := uuid.New(), uuid.New(), uuid.New()
	c, err := NewDirectConversation(a, b)
	require.NoError(t, err)

	assert.NoError(t, c.EnsureParticipant(a))
	assert.ErrorIs(t, c.EnsureParticipant(outsider), shared.ErrForbidden)

	m, err := NewMessage(c.ID, a, "  "+strings.Repeat("x", 150)+"  ")
	require.NoError(t, err)
	assert.Len(t, m.Content, 150)

	c.RecordMessage(m)
	assert.Len(t, c.LastMessagePreview, previewLength)
	assert.Equal(t, a, *c.LastMessageSenderID)

	assert.True(t, m.IsReadBy(a, nil))
	assert.False(t, m.IsReadBy(b, nil))

	readAt := m.CreatedAt.Add(time.Second)
	require.NoError(t, c.MarkRead(b, readAt))
	assert.True(t, m.IsReadBy(b, c.LastReadAt(b)))

	require.NoError(t, c.MarkRead(b, readAt.Add(-time.Hour)))
	assert.Equal(t, readAt, *c.LastReadAt(b), "markers never move back")
	assert.Error(t, c.MarkRead(outsider, readAt))

	evt := NewMessageSentEvent(c, m)
	assert.Equal(t, []uuid.UUID{b}, evt.RecipientIDs)
}

func TestNewMessage_Validation(t *testing.T) {
	_, err := NewMessage(uuid.New(), uuid.New(), "   ")
	assert.Error(t, err)
	_, err = NewMessage(uuid.New(), uuid.New(), strings.Repeat("é", MaxMessageLength+1))
	assert.Error(t, err)
	_, err = NewMessage(uuid.New(), uuid.New(), strings.Repeat("é", MaxMessageLength))
	assert.NoError(t, err)
}
