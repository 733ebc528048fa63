package notification_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appnotification "github.com/playhub/backend/internal/application/notification"
	"github.com/playhub/backend/internal/domain/chat"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/domain/notification"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/shared/valueobject"
	"github.com/playhub/backend/internal/domain/social"
	"github.com/playhub/backend/internal/domain/store"
	"github.com/playhub/backend/internal/domain/stream"
	"github.com/playhub/backend/internal/infrastructure/persistence"
	"github.com/playhub/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	identity.PasswordHashCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type recordingPusher struct {
	mu     sync.Mutex
	pushed map[uuid.UUID][]appnotification.NotificationDTO
}

func (p *recordingPusher) PushNotification(_ context.Context, recipientID uuid.UUID, n appnotification.NotificationDTO) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushed == nil {
		p.pushed = make(map[uuid.UUID][]appnotification.NotificationDTO)
	}
	p.pushed[recipientID] = append(p.pushed[recipientID], n)
}

func (p *recordingPusher) count(id uuid.UUID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushed[id])
}

type staticPresence map[uuid.UUID]bool

func (s staticPresence) IsOnline(id uuid.UUID) bool { return s[id] }

type fixture struct {
	svc     *appnotification.Service
	repo    notification.Repository
	users   identity.UserRepository
	follows social.FollowRepository
	pusher  *recordingPusher
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	f := &fixture{
		repo:    persistence.NewGormNotificationRepository(db),
		users:   persistence.NewGormUserRepository(db),
		follows: persistence.NewGormFollowRepository(db),
		pusher:  &recordingPusher{},
		ctx:     context.Background(),
	}
	f.svc = appnotification.NewService(f.repo, zap.NewNop()).WithPusher(f.pusher)
	return f
}

func (f *fixture) user(t *testing.T, username string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(username, username+"@example.com", "password123", "")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) list(t *testing.T, userID uuid.UUID) []appnotification.NotificationDTO {
	t.Helper()
	list, _, err := f.svc.List(f.ctx, userID, notification.Filter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	return list
}

func TestNotificationInbox(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	other := uuid.New()

	require.NoError(t, f.svc.Notify(f.ctx,
		notification.Input{RecipientID: owner, Type: notification.TypeSystem, Title: "Welcome"},
		notification.Input{RecipientID: owner, Type: notification.TypeSystem, Title: "Tips"},
		notification.Input{RecipientID: owner, Type: "bogus", Title: "skipped"},
	))
	assert.Equal(t, 2, f.pusher.count(owner))

	list := f.list(t, owner)
	require.Len(t, list, 2)
	count, err := f.svc.UnreadCount(f.ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	t.Run("mark read is owner only and idempotent", func(t *testing.T) {
		_, err := f.svc.MarkRead(f.ctx, other, list[0].ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		first, err := f.svc.MarkRead(f.ctx, owner, list[0].ID)
		require.NoError(t, err)
		assert.True(t, first.Read)
		second, err := f.svc.MarkRead(f.ctx, owner, list[0].ID)
		require.NoError(t, err)
		assert.Equal(t, first.ReadAt.Unix(), second.ReadAt.Unix())

		unread, _, err := f.svc.List(f.ctx, owner, notification.Filter{Filter: shared.DefaultFilter(), UnreadOnly: true})
		require.NoError(t, err)
		assert.Len(t, unread, 1)
	})

	t.Run("mark all read", func(t *testing.T) {
		changed, err := f.svc.MarkAllRead(f.ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, int64(1), changed)
		count, err := f.svc.UnreadCount(f.ctx, owner)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("delete", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Delete(f.ctx, other, list[1].ID), shared.ErrNotFound)
		require.NoError(t, f.svc.Delete(f.ctx, owner, list[1].ID))
		assert.ErrorIs(t, f.svc.Delete(f.ctx, owner, list[1].ID), shared.ErrNotFound)
	})

	t.Run("purge keeps unread notifications", func(t *testing.T) {
		require.NoError(t, f.svc.Notify(f.ctx, notification.Input{RecipientID: owner, Type: notification.TypeSystem, Title: "Fresh"}))
		deleted, err := f.svc.PurgeRead(f.ctx, -time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), deleted)
		remaining := f.list(t, owner)
		require.Len(t, remaining, 1)
		assert.Equal(t, "Fresh", remaining[0].Title)
	})
}

func TestFollowAndMessageHandlers(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	follow, err := social.NewFollow(alice.ID, bob.ID)
	require.NoError(t, err)
	handler := appnotification.NewFollowHandler(f.svc, f.users, zap.NewNop())
	require.NoError(t, handler.Handle(f.ctx, social.NewUserFollowedEvent(follow)))

	got := f.list(t, bob.ID)
	require.Len(t, got, 1)
	assert.Equal(t, string(notification.TypeFollow), got[0].Type)
	assert.Equal(t, "alice started following you", got[0].Title)

	conv, err := chat.NewDirectConversation(alice.ID, carol.ID)
	require.NoError(t, err)
	msg, err := chat.NewMessage(conv.ID, alice.ID, "see you on stream")
	require.NoError(t, err)

	online := appnotification.NewMessageHandler(f.svc, f.users, staticPresence{carol.ID: true}, zap.NewNop())
	require.NoError(t, online.Handle(f.ctx, chat.NewMessageSentEvent(conv, msg)))
	assert.Empty(t, f.list(t, carol.ID), "online recipients get the message itself, not a notification")

	offline := appnotification.NewMessageHandler(f.svc, f.users, staticPresence{}, zap.NewNop())
	require.NoError(t, offline.Handle(f.ctx, chat.NewMessageSentEvent(conv, msg)))
	got = f.list(t, carol.ID)
	require.Len(t, got, 1)
	assert.Equal(t, "see you on stream", got[0].Body)
	assert.Equal(t, notification.EntityConversation, got[0].EntityType)

	err = handler.Handle(f.ctx, chat.NewMessageSentEvent(conv, msg))
	assert.Error(t, err, "handlers reject foreign events")
}

func TestOrderHandler(t *testing.T) {
	f := newFixture(t)
	buyer, sellerA, sellerB := uuid.New(), uuid.New(), uuid.New()
	payload := store.OrderEventPayload{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-1",
		BuyerID:     buyer,
		SellerIDs:   []uuid.UUID{sellerA, sellerB},
		Total:       valueobject.FromMinorUnits(1250, valueobject.CurrencyUSD),
	}
	base := func(eventType string) shared.BaseDomainEvent {
		return shared.NewBaseDomainEvent(eventType, store.AggregateTypeOrder, payload.OrderID)
	}
	handler := appnotification.NewOrderHandler(f.svc, zap.NewNop())

	require.NoError(t, handler.Handle(f.ctx, &store.OrderPlacedEvent{BaseDomainEvent: base(store.EventTypeOrderPlaced), OrderEventPayload: payload}))
	assert.Empty(t, f.list(t, buyer))
	placed := f.list(t, sellerA)
	require.Len(t, placed, 1)
	assert.Contains(t, placed[0].Body, "12.50 USD")

	require.NoError(t, handler.Handle(f.ctx, &store.OrderPaidEvent{BaseDomainEvent: base(store.EventTypeOrderPaid), OrderEventPayload: payload}))
	assert.Len(t, f.list(t, buyer), 1)
	assert.Len(t, f.list(t, sellerB), 2)

	require.NoError(t, handler.Handle(f.ctx, &store.OrderFulfilledEvent{BaseDomainEvent: base(store.EventTypeOrderFulfilled), OrderEventPayload: payload}))
	assert.Len(t, f.list(t, buyer), 2)

	time.Sleep(2 * time.Millisecond)
	require.NoError(t, handler.Handle(f.ctx, &store.OrderCancelledEvent{BaseDomainEvent: base(store.EventTypeOrderCancelled), OrderEventPayload: payload, Reason: "payment timeout"}))
	cancelled := f.list(t, sellerA)
	require.Len(t, cancelled, 3)
	assert.Equal(t, string(notification.TypeOrderCancelled), cancelled[0].Type)
	assert.Equal(t, "payment timeout", cancelled[0].Body)
}

func TestStreamLiveHandlerNotifiesEveryFollower(t *testing.T) {
	f := newFixture(t)
	streamer := f.user(t, "streamer")
	var fans []*identity.User
	for _, name := range []string{"fan_a", "fan_b", "fan_c"} {
		fan := f.user(t, name)
		follow, err := social.NewFollow(fan.ID, streamer.ID)
		require.NoError(t, err)
		_, err = f.follows.Create(f.ctx, follow)
		require.NoError(t, err)
		fans = append(fans, fan)
	}

	s, err := stream.NewStream(streamer.ID, "Late night runs", "", "speedrun", nil)
	require.NoError(t, err)
	require.NoError(t, s.Start(time.Now()))
	started := s.GetDomainEvents()[0]

	handler := appnotification.NewStreamLiveHandler(f.svc, f.users, f.follows, zap.NewNop())
	require.NoError(t, handler.Handle(f.ctx, started))

	for _, fan := range fans {
		got := f.list(t, fan.ID)
		require.Len(t, got, 1, fan.Username)
		assert.Equal(t, "streamer is live", got[0].Title)
		assert.Equal(t, "Late night runs", got[0].Body)
		assert.Equal(t, 1, f.pusher.count(fan.ID))
	}
	assert.Empty(t, f.list(t, streamer.ID))
}
