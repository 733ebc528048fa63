package profile_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/application/profile"
	"github.com/playhub/backend/internal/application/upload"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/domain/social"
	"github.com/playhub/backend/internal/infrastructure/persistence"
	"github.com/playhub/backend/internal/infrastructure/storage"
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

type fixture struct {
	svc     *profile.Service
	users   identity.UserRepository
	events  *testutil.RecordingPublisher
	storage *storage.StubObjectStorage
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := persistence.NewGormUserRepository(db)
	events := testutil.NewRecordingPublisher()
	objects := storage.NewStubObjectStorage("")
	svc := profile.NewService(
		users,
		persistence.NewGormFollowRepository(db),
		upload.NewService(objects, 0, 0),
		events,
		zap.NewNop(),
	)
	return &fixture{svc: svc, users: users, events: events, storage: objects, ctx: context.Background()}
}

func (f *fixture) user(t *testing.T, username string) *identity.User {
	t.Helper()
	u, err := identity.NewUser(username, username+"@example.com", "password123", "")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(f.ctx, u))
	return u
}

func TestFollowGraph(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")

	t.Run("cannot follow self", func(t *testing.T) {
		_, err := f.svc.Follow(f.ctx, alice.ID, "alice")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("follow is idempotent", func(t *testing.T) {
		dto, err := f.svc.Follow(f.ctx, alice.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, dto.FollowerCount)
		require.NotNil(t, dto.IsFollowing)
		assert.True(t, *dto.IsFollowing)

		dto, err = f.svc.Follow(f.ctx, alice.ID, "BOB")
		require.NoError(t, err)
		assert.Equal(t, 1, dto.FollowerCount)
		assert.Len(t, f.events.EventsOfType(social.EventTypeUserFollowed), 1)

		me, err := f.svc.GetProfile(f.ctx, uuid.Nil, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, me.FollowingCount)
		assert.Nil(t, me.IsFollowing, "anonymous viewers get no follow flag")
	})

	t.Run("lists are newest first with viewer flags", func(t *testing.T) {
		_, err := f.svc.Follow(f.ctx, carol.ID, "bob")
		require.NoError(t, err)

		followers, total, err := f.svc.ListFollowers(f.ctx, alice.ID, "bob", shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, followers, 2)
		assert.Equal(t, "carol", followers[0].Username)
		assert.Equal(t, "alice", followers[1].Username)
		require.NotNil(t, followers[0].IsFollowing)
		assert.False(t, *followers[0].IsFollowing)
		assert.Nil(t, followers[1].IsFollowing, "no flag on the viewer's own entry")
		assert.NotNil(t, followers[0].FollowedAt)

		following, _, err := f.svc.ListFollowing(f.ctx, uuid.Nil, "alice", shared.DefaultFilter())
		require.NoError(t, err)
		require.Len(t, following, 1)
		assert.Equal(t, bob.ID, following[0].ID)
	})

	t.Run("unfollow is idempotent and counters stay non-negative", func(t *testing.T) {
		dto, err := f.svc.Unfollow(f.ctx, alice.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, dto.FollowerCount)

		dto, err = f.svc.Unfollow(f.ctx, alice.ID, "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, dto.FollowerCount)

		viewed, err := f.svc.GetProfile(f.ctx, alice.ID, "bob")
		require.NoError(t, err)
		require.NotNil(t, viewed.IsFollowing)
		assert.False(t, *viewed.IsFollowing)
	})

	t.Run("unknown users", func(t *testing.T) {
		_, err := f.svc.Follow(f.ctx, alice.ID, "nobody")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		_, err = f.svc.GetProfile(f.ctx, uuid.Nil, "Not A Name!")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestUpdateProfileAndAvatar(t *testing.T) {
	f := newFixture(t)
	dave := f.user(t, "dave")

	bio := "Speedrunner"
	name := "Dave D"
	dto, err := f.svc.UpdateProfile(f.ctx, dave.ID, profile.UpdateProfileInput{DisplayName: &name, Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Dave D", dto.DisplayName)
	assert.Equal(t, "Speedrunner", dto.Bio)

	bad := "not a url"
	_, err = f.svc.UpdateProfile(f.ctx, dave.ID, profile.UpdateProfileInput{Website: &bad})
	assert.Error(t, err)

	first, err := f.svc.CreateAvatarUpload(f.ctx, dave.ID, "image/jpeg")
	require.NoError(t, err)
	assert.Contains(t, first.Key, "avatars/"+dave.ID.String()+"/")

	_, err = f.svc.ConfirmAvatar(f.ctx, dave.ID, "avatars/"+uuid.NewString()+"/x.jpg")
	assert.ErrorIs(t, err, shared.ErrInvalidInput, "keys of other users are rejected")

	dto, err = f.svc.ConfirmAvatar(f.ctx, dave.ID, first.Key)
	require.NoError(t, err)
	assert.Equal(t, first.PublicURL, dto.AvatarURL)

	second, err := f.svc.CreateAvatarUpload(f.ctx, dave.ID, "image/png")
	require.NoError(t, err)
	_, err = f.svc.ConfirmAvatar(f.ctx, dave.ID, second.Key)
	require.NoError(t, err)

	exists, err := f.storage.ObjectExists(f.ctx, first.Key)
	require.NoError(t, err)
	assert.False(t, exists, "the replaced avatar is deleted")
}

func TestSearchUsers(t *testing.T) {
	f := newFixture(t)
	f.user(t, "gamer_one")
	f.user(t, "gamer_two")
	f.user(t, "painter")

	filter := shared.DefaultFilter()
	filter.Search = "gamer"
	users, total, err := f.svc.SearchUsers(f.ctx, uuid.Nil, filter)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, users, 2)
}
