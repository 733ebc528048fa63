package integration

import (
	"testing"

	"github.com/playhub/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func tableExists(t *testing.T, tdb *TestDB, name string) bool {
	t.Helper()
	var exists bool
	err := tdb.DB.Raw(`SELECT EXISTS (
		SELECT 1 FROM pg_tables WHERE schemaname = 'public' AND tablename = ?
	)`, name).Scan(&exists).Error
	require.NoError(t, err)
	return exists
}

func TestMigrations_RoundTrip(t *testing.T) {
	tdb := NewTestDB(t)

	// the migrator shares the test's *sql.DB, so it is not closed here
	m, err := migration.New(tdb.SqlDB, zap.NewNop())
	require.NoError(t, err)

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(5), version)
	assert.False(t, dirty)

	tables := []string{"users", "follows", "products", "carts", "orders", "streams", "conversations", "messages", "notifications"}
	for _, table := range tables {
		assert.True(t, tableExists(t, tdb, table), "table %s after up", table)
	}

	require.NoError(t, m.Steps(-1))
	assert.False(t, tableExists(t, tdb, "notifications"))
	assert.True(t, tableExists(t, tdb, "messages"))

	require.NoError(t, m.Down())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Zero(t, version)
	for _, table := range tables {
		assert.False(t, tableExists(t, tdb, table), "table %s after down", table)
	}

	require.NoError(t, m.Up())
	version, _, err = m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(5), version)
	assert.True(t, tableExists(t, tdb, "notifications"))

	// up on a current schema is a no-op
	require.NoError(t, m.Up())
}
