package stream

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStream(t *testing.T) {
	streamer := uuid.New()

	s, err := NewStream(streamer, "  Speedrun night ", "", "Gaming", nil)
	require.NoError(t, err)
	assert.Equal(t, "Speedrun night", s.Title)
	assert.Equal(t, "gaming", s.Category)
	assert.Equal(t, StatusScheduled, s.Status)
	assert.True(t, strings.HasPrefix(s.StreamKey, "live_"))
	assert.Len(t, s.StreamKey, len("live_")+32)

	_, err = NewStream(streamer, "", "", "", nil)
	assert.Error(t, err)

	past := time.Now().Add(-time.Hour)
	_, err = NewStream(streamer, "t", "", "", &past)
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestStreamLifecycle(t *testing.T) {
	s, err := NewStream(uuid.New(), "title", "", "", nil)
	require.NoError(t, err)
	start := time.Now()

	assert.ErrorIs(t, s.CanBeWatched(), shared.ErrInvalidState)
	assert.ErrorIs(t, s.End(start, ViewerCounts{}), shared.ErrInvalidState)

	require.NoError(t, s.Start(start))
	assert.True(t, s.IsLive())
	assert.NoError(t, s.CanBeWatched())
	assert.ErrorIs(t, s.Start(start), shared.ErrInvalidState)

	s.ApplyViewerCounts(ViewerCounts{Current: 3, Unique: 3}, true)
	s.ApplyViewerCounts(ViewerCounts{Current: 5, Unique: 4}, true)
	s.ApplyViewerCounts(ViewerCounts{Current: 2, Unique: 4}, false)
	assert.EqualValues(t, 2, s.CurrentViewers)
	assert.EqualValues(t, 5, s.PeakViewers)
	assert.EqualValues(t, 2, s.TotalViews)
	assert.EqualValues(t, 4, s.UniqueViewers)

	s.ApplyViewerCounts(ViewerCounts{Current: -1}, false)
	assert.EqualValues(t, 0, s.CurrentViewers)

	end := start.Add(10 * time.Minute)
	require.NoError(t, s.End(end, ViewerCounts{Current: 1, Unique: 6}))
	assert.Equal(t, StatusEnded, s.Status)
	assert.EqualValues(t, 0, s.CurrentViewers)
	assert.EqualValues(t, 6, s.UniqueViewers)

	a := s.Analytics(end.Add(time.Hour))
	assert.EqualValues(t, 600, a.DurationSeconds)
	assert.InDelta(t, 0.2, a.ViewsPerMinute, 0.0001)

	events := s.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeStreamStarted, events[0].EventType())
	assert.Equal(t, EventTypeStreamEnded, events[1].EventType())

	title := "new"
	assert.ErrorIs(t, s.Update(StreamUpdate{Title: &title}), shared.ErrInvalidState)
}
