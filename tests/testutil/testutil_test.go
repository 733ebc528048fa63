package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/playhub/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSQLiteDB_IsolatedAndMigrated(t *testing.T) {
	a := NewSQLiteDB(t)
	b := NewSQLiteDB(t)

	for _, m := range models.All() {
		assert.True(t, a.Migrator().HasTable(m))
	}

	user := &models.UserModel{Username: "solo", Email: "solo@playhub.test", PasswordHash: "x", DisplayName: "Solo"}
	user.ID = uuid.New()
	require.NoError(t, a.Create(user).Error)

	var count int64
	require.NoError(t, b.Model(&models.UserModel{}).Count(&count).Error)
	assert.Zero(t, count, "each test gets its own database")
}

func TestRequireEventually(t *testing.T) {
	var n atomic.Int32
	go func() {
		for range 3 {
			time.Sleep(5 * time.Millisecond)
			n.Add(1)
		}
	}()
	RequireEventually(t, func() bool { return n.Load() == 3 }, time.Second, time.Millisecond)
}

func TestAssertNever(t *testing.T) {
	AssertNever(t, func() bool { return false }, 20*time.Millisecond, 5*time.Millisecond)
}

func TestRecordingPublisher(t *testing.T) {
	p := NewRecordingPublisher()
	followed := shared.NewBaseDomainEvent("UserFollowed", "Follow", uuid.New())
	sent := shared.NewBaseDomainEvent("MessageSent", "Conversation", uuid.New())

	require.NoError(t, p.Publish(context.Background(), &followed, &sent, &followed))
	assert.Len(t, p.EventsOfType("UserFollowed"), 2)
	assert.Len(t, p.EventsOfType("MessageSent"), 1)
	assert.Empty(t, p.EventsOfType("OrderPlaced"))
}

func TestMockEventHandler(t *testing.T) {
	h := NewMockEventHandler("OrderPaid")
	assert.Equal(t, []string{"OrderPaid"}, h.EventTypes())

	evt := shared.NewBaseDomainEvent("OrderPaid", "Order", uuid.New())
	require.NoError(t, h.Handle(context.Background(), &evt))
	assert.Equal(t, 1, h.HandledCount())

	handled := h.Handled()
	handled[0] = nil
	assert.NotNil(t, h.Handled()[0], "Handled returns a copy")
}
