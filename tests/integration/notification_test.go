package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appnotification "github.com/playhub/backend/internal/application/notification"
	"github.com/playhub/backend/internal/application/profile"
	appstream "github.com/playhub/backend/internal/application/stream"
	"github.com/playhub/backend/internal/application/upload"
	"github.com/playhub/backend/internal/domain/notification"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/social"
	"github.com/playhub/backend/internal/infrastructure/cache"
	"github.com/playhub/backend/internal/infrastructure/event"
	"github.com/playhub/backend/internal/infrastructure/persistence"
	"github.com/playhub/backend/internal/infrastructure/storage"
	"github.com/playhub/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// startBus runs an async bus like the server does and stops it with the test
func startBus(t *testing.T) *event.InMemoryEventBus {
	t.Helper()
	bus := event.NewInMemoryEventBus(zap.NewNop(), event.WithAsyncDispatch(64, 2))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = bus.Stop(ctx)
	})
	return bus
}

func unread(t *testing.T, svc *appnotification.Service, userID uuid.UUID) func() int64 {
	return func() int64 {
		n, err := svc.UnreadCount(context.Background(), userID)
		require.NoError(t, err)
		return n
	}
}

func TestFollow_NotifiesFolloweeOnce(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	logger := zap.NewNop()

	users := persistence.NewGormUserRepository(tdb.DB)
	follows := persistence.NewGormFollowRepository(tdb.DB)
	notifications := appnotification.NewService(persistence.NewGormNotificationRepository(tdb.DB), logger)

	bus := startBus(t)
	bus.Subscribe(event.NewIdempotentHandler("notify_follow",
		appnotification.NewFollowHandler(notifications, users, logger),
		newIdempotencyStore(t), time.Hour, logger))
	recorder := testutil.NewMockEventHandler(social.EventTypeUserFollowed)
	bus.Subscribe(recorder)

	profiles := profile.NewService(users, follows, nil, bus, logger)
	alice := createUser(t, tdb, "alice")
	bob := createUser(t, tdb, "bob")

	_, err := profiles.Follow(ctx, alice.ID, "bob")
	require.NoError(t, err)

	count := unread(t, notifications, bob.ID)
	testutil.RequireEventually(t, func() bool { return count() == 1 }, 5*time.Second, 20*time.Millisecond,
		"followee should be notified")

	list, total, err := notifications.List(ctx, bob.ID, notification.Filter{Filter: shared.Filter{Page: 1, PageSize: 20}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, string(notification.TypeFollow), list[0].Type)
	require.NotNil(t, list[0].ActorID)
	assert.Equal(t, alice.ID, *list[0].ActorID)

	// redelivery of the same event is absorbed by the idempotent wrapper
	testutil.RequireEventually(t, func() bool { return recorder.HandledCount() == 1 }, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, bus.Publish(ctx, recorder.Handled()[0]))
	testutil.RequireEventually(t, func() bool { return recorder.HandledCount() == 2 }, 5*time.Second, 20*time.Millisecond)
	testutil.AssertNever(t, func() bool { return count() > 1 }, 300*time.Millisecond, 50*time.Millisecond)

	followee, err := users.FindByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, followee.FollowerCount)
}

func TestStreamStart_NotifiesFollowers(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	logger := zap.NewNop()

	users := persistence.NewGormUserRepository(tdb.DB)
	follows := persistence.NewGormFollowRepository(tdb.DB)
	notifications := appnotification.NewService(persistence.NewGormNotificationRepository(tdb.DB), logger)

	bus := startBus(t)
	bus.Subscribe(appnotification.NewStreamLiveHandler(notifications, users, follows, logger))

	profiles := profile.NewService(users, follows, nil, bus, logger)
	streams := appstream.NewService(persistence.NewGormStreamRepository(tdb.DB), cache.NewInMemoryViewerTracker(),
		upload.NewService(storage.NewStubObjectStorage(""), 0, 0), bus, nil, logger)

	streamer := createUser(t, tdb, "streamer")
	fans := []uuid.UUID{createUser(t, tdb, "fan_one").ID, createUser(t, tdb, "fan_two").ID}
	bystander := createUser(t, tdb, "bystander")
	for _, fan := range fans {
		_, err := profiles.Follow(ctx, fan, "streamer")
		require.NoError(t, err)
	}

	created, err := streams.CreateStream(ctx, streamer.ID, appstream.CreateStreamInput{
		Title:    "Speedrun night",
		Category: "gaming",
	})
	require.NoError(t, err)
	_, err = streams.StartStream(ctx, streamer.ID, created.ID)
	require.NoError(t, err)

	for _, fan := range fans {
		testutil.RequireEventually(t, func() bool { return unread(t, notifications, fan)() == 1 },
			5*time.Second, 20*time.Millisecond, "every follower gets a stream_live notification")
	}
	assert.Equal(t, int64(0), unread(t, notifications, bystander.ID)())
	assert.Equal(t, int64(0), unread(t, notifications, streamer.ID)())
}

func TestNotification_PurgeRead(t *testing.T) {
	tdb := NewSharedTestDB(t)
	ctx := context.Background()
	notifications := appnotification.NewService(persistence.NewGormNotificationRepository(tdb.DB), zap.NewNop())

	user := createUser(t, tdb, "reader")
	for _, title := range []string{"old read", "old unread", "fresh read"} {
		require.NoError(t, notifications.Notify(ctx, notification.Input{
			RecipientID: user.ID,
			Type:        notification.TypeSystem,
			Title:       title,
		}))
	}

	list, _, err := notifications.List(ctx, user.ID, notification.Filter{Filter: shared.Filter{Page: 1, PageSize: 20}})
	require.NoError(t, err)
	require.Len(t, list, 3)
	byTitle := make(map[string]uuid.UUID)
	for _, n := range list {
		byTitle[n.Title] = n.ID
	}

	_, err = notifications.MarkRead(ctx, user.ID, byTitle["old read"])
	require.NoError(t, err)
	_, err = notifications.MarkRead(ctx, user.ID, byTitle["fresh read"])
	require.NoError(t, err)
	backdate(t, tdb, "notifications", "created_at", byTitle["old read"], 60*24*time.Hour)
	backdate(t, tdb, "notifications", "created_at", byTitle["old unread"], 60*24*time.Hour)

	deleted, err := notifications.PurgeRead(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, total, err := notifications.List(ctx, user.ID, notification.Filter{Filter: shared.Filter{Page: 1, PageSize: 20}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, n := range remaining {
		assert.NotEqual(t, "old read", n.Title)
	}
}
