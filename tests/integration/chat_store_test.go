package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/infrastructure/persistence"
	"github.com/playhub/backend/internal/infrastructure/persistence/mongodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatStore is one chat backend under test
type chatStore struct {
	conversations chat.ConversationRepository
	messages      chat.MessageRepository
	newUser       func(t *testing.T, name string) uuid.UUID
}

func TestChatStore_Postgres(t *testing.T) {
	tdb := NewSharedTestDB(t)
	testChatStore(t, chatStore{
		conversations: persistence.NewGormConversationRepository(tdb.DB),
		messages:      persistence.NewGormMessageRepository(tdb.DB),
		newUser: func(t *testing.T, name string) uuid.UUID {
			return createUser(t, tdb, "pg_"+name).ID
		},
	})
}

func TestChatStore_MongoDB(t *testing.T) {
	db := NewMongoTestDB(t)
	testChatStore(t, chatStore{
		conversations: mongodb.NewConversationRepository(db),
		messages:      mongodb.NewMessageRepository(db),
		newUser:       func(*testing.T, string) uuid.UUID { return uuid.New() },
	})
}

func testChatStore(t *testing.T, store chatStore) {
	ctx := context.Background()
	alice := store.newUser(t, "alice")
	bob := store.newUser(t, "bob")
	carol := store.newUser(t, "carol")
	base := time.Now().UTC().Truncate(time.Millisecond)

	start := func(t *testing.T, a, b uuid.UUID) *chat.Conversation {
		t.Helper()
		conv, err := chat.NewDirectConversation(a, b)
		require.NoError(t, err)
		stored, _, err := store.conversations.FindOrCreate(ctx, conv)
		require.NoError(t, err)
		return stored
	}
	send := func(t *testing.T, conv *chat.Conversation, sender uuid.UUID, content string, at time.Time) *chat.Message {
		t.Helper()
		msg, err := chat.NewMessage(conv.ID, sender, content)
		require.NoError(t, err)
		msg.CreatedAt = at
		require.NoError(t, store.messages.Create(ctx, msg))
		conv.RecordMessage(msg)
		require.NoError(t, store.conversations.UpdateLastMessage(ctx, conv))
		return msg
	}
	ids := func(convs []*chat.Conversation) []uuid.UUID {
		out := make([]uuid.UUID, len(convs))
		for i, c := range convs {
			out[i] = c.ID
		}
		return out
	}

	t.Run("concurrent starts share one conversation", func(t *testing.T) {
		const callers = 8
		type outcome struct {
			id      uuid.UUID
			created bool
			err     error
		}
		outcomes := make(chan outcome, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				a, b := alice, carol
				if i%2 == 1 {
					a, b = carol, alice
				}
				conv, err := chat.NewDirectConversation(a, b)
				if err != nil {
					outcomes <- outcome{err: err}
					return
				}
				stored, created, err := store.conversations.FindOrCreate(ctx, conv)
				if err != nil {
					outcomes <- outcome{err: err}
					return
				}
				outcomes <- outcome{id: stored.ID, created: created}
			}(i)
		}
		wg.Wait()
		close(outcomes)

		seen := map[uuid.UUID]bool{}
		created := 0
		for o := range outcomes {
			require.NoError(t, o.err)
			seen[o.id] = true
			if o.created {
				created++
			}
		}
		assert.Len(t, seen, 1)
		assert.Equal(t, 1, created)
	})

	t.Run("conversations sort by latest activity", func(t *testing.T) {
		withBob := start(t, alice, bob)
		withCarol := start(t, alice, carol)
		send(t, withBob, alice, "first", base.Add(time.Second))
		send(t, withCarol, carol, "second", base.Add(2*time.Second))

		list, total, err := store.conversations.ListByParticipant(ctx, alice, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Equal(t, []uuid.UUID{withCarol.ID, withBob.ID}, ids(list))

		send(t, withBob, bob, "third", base.Add(3*time.Second))
		list, _, err = store.conversations.ListByParticipant(ctx, alice, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{withBob.ID, withCarol.ID}, ids(list))
		assert.Equal(t, "third", list[0].LastMessagePreview)

		list, total, err = store.conversations.ListByParticipant(ctx, bob, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []uuid.UUID{withBob.ID}, ids(list))
	})

	t.Run("read markers only move forward", func(t *testing.T) {
		conv := start(t, alice, bob)
		later := base.Add(3 * time.Second)
		require.NoError(t, store.conversations.MarkRead(ctx, conv.ID, bob, later))
		require.NoError(t, store.conversations.MarkRead(ctx, conv.ID, bob, base))

		stored, err := store.conversations.FindByID(ctx, conv.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.LastReadAt(bob))
		assert.True(t, stored.LastReadAt(bob).Equal(later), "got %v", stored.LastReadAt(bob))
		assert.Nil(t, stored.LastReadAt(alice))
	})

	t.Run("unread counts skip own messages and the read marker", func(t *testing.T) {
		conv := start(t, alice, bob)

		n, err := store.messages.CountUnread(ctx, conv.ID, alice, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "only bob's message")

		n, err = store.messages.CountUnread(ctx, conv.ID, bob, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n, "only alice's message")

		since := base.Add(time.Second)
		n, err = store.messages.CountUnread(ctx, conv.ID, bob, &since)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("history pages through identical timestamps", func(t *testing.T) {
		conv := start(t, bob, carol)
		oldest := send(t, conv, carol, "before the burst", base)
		at := base.Add(time.Minute)
		var burst []uuid.UUID
		for i := 0; i < 5; i++ {
			burst = append(burst, send(t, conv, bob, fmt.Sprintf("burst %d", i), at).ID)
		}

		var got []uuid.UUID
		var cursor *chat.MessageCursor
		for pages := 0; pages < 10; pages++ {
			page, err := store.messages.ListBefore(ctx, conv.ID, cursor, 2)
			require.NoError(t, err)
			if len(page) == 0 {
				break
			}
			for _, m := range page {
				got = append(got, m.ID)
			}
			cursor = chat.CursorOf(page[len(page)-1])
		}

		require.Len(t, got, 6, "no message is skipped or repeated")
		assert.ElementsMatch(t, burst, got[:5])
		assert.Equal(t, oldest.ID, got[5])
		for i := 0; i+1 < 5; i++ {
			assert.Greater(t, got[i].String(), got[i+1].String(), "ties are ordered by id, newest first")
		}
	})

	t.Run("unknown conversations", func(t *testing.T) {
		_, err := store.conversations.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
