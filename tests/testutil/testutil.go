// Package testutil holds helpers shared by the PlayHub test suites.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/infrastructure/persistence"
	"github.com/playhub/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory SQLite database with every table
// migrated. The database lives until the test ends.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=1"
	db, err := persistence.Open(sqlite.Open(dsn))
	require.NoError(t, err, "Failed to open SQLite database")

	sqlDB, err := db.DB.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.DB.AutoMigrate(models.All()...), "Failed to migrate SQLite database")

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db.DB
}

// RequireEventually polls condition until it holds and fails the test at timeout
func RequireEventually(t testing.TB, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	if poll(condition, timeout, interval) {
		return
	}
	require.Fail(t, "Condition not met within "+timeout.String(), msgAndArgs...)
}

// AssertNever fails the test if condition becomes true within duration
func AssertNever(t testing.TB, condition func() bool, duration, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	if poll(condition, duration, interval) {
		require.Fail(t, "Condition unexpectedly became true", msgAndArgs...)
	}
}

func poll(condition func() bool, timeout, interval time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(interval)
	}
}
