package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/identity"
	"github.com/playhub/backend/internal/infrastructure/cache"
	"github.com/playhub/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
)

// createUser stores an active user; most tables reference users(id)
func createUser(t *testing.T, tdb *TestDB, username string) *identity.User {
	t.Helper()
	user, err := identity.NewUser(username, username+"@playhub.test", "Sup3r-secret!", "")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormUserRepository(tdb.DB).Create(context.Background(), user))
	return user
}

func newIdempotencyStore(t *testing.T) *cache.InMemoryIdempotencyStore {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// backdate rewrites a timestamp column so time-based jobs see an old row
func backdate(t *testing.T, tdb *TestDB, table, column string, id uuid.UUID, age time.Duration) {
	t.Helper()
	err := tdb.DB.Table(table).Where("id = ?", id).Update(column, time.Now().Add(-age)).Error
	require.NoError(t, err)
}
