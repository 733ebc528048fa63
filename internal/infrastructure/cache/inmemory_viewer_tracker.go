package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/playhub/backend/internal/domain/stream"
)

type viewerSets struct {
	live   map[uuid.UUID]struct{}
	unique map[uuid.UUID]struct{}
}

// InMemoryViewerTracker is the single-process ViewerTracker. Unique viewers
// are counted exactly rather than approximated.
type InMemoryViewerTracker struct {
	mu      sync.Mutex
	streams map[uuid.UUID]*viewerSets
}

// NewInMemoryViewerTracker creates an empty tracker
func NewInMemoryViewerTracker() *InMemoryViewerTracker {
	return &InMemoryViewerTracker{streams: make(map[uuid.UUID]*viewerSets)}
}

func (t *InMemoryViewerTracker) sets(streamID uuid.UUID) *viewerSets {
	s, ok := t.streams[streamID]
	if !ok {
		s = &viewerSets{
			live:   make(map[uuid.UUID]struct{}),
			unique: make(map[uuid.UUID]struct{}),
		}
		t.streams[streamID] = s
	}
	return s
}

func (s *viewerSets) counts() stream.ViewerCounts {
	return stream.ViewerCounts{Current: int64(len(s.live)), Unique: int64(len(s.unique))}
}

// Join adds the viewer to the live and unique sets
func (t *InMemoryViewerTracker) Join(_ context.Context, streamID, viewerID uuid.UUID) (stream.ViewerCounts, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.sets(streamID)
	s.live[viewerID] = struct{}{}
	s.unique[viewerID] = struct{}{}
	return s.counts(), nil
}

// Leave removes the viewer from the live set
func (t *InMemoryViewerTracker) Leave(_ context.Context, streamID, viewerID uuid.UUID) (stream.ViewerCounts, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.sets(streamID)
	delete(s.live, viewerID)
	return s.counts(), nil
}

// Counts returns the current and unique viewer counts
func (t *InMemoryViewerTracker) Counts(_ context.Context, streamID uuid.UUID) (stream.ViewerCounts, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.streams[streamID]
	if !ok {
		return stream.ViewerCounts{}, nil
	}
	return s.counts(), nil
}

// IsWatching reports whether the viewer is in the live set
func (t *InMemoryViewerTracker) IsWatching(_ context.Context, streamID, viewerID uuid.UUID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.streams[streamID]
	if !ok {
		return false, nil
	}
	_, watching := s.live[viewerID]
	return watching, nil
}

// Reset drops all tracker state of the stream
func (t *InMemoryViewerTracker) Reset(_ context.Context, streamID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.streams, streamID)
	return nil
}

var _ stream.ViewerTracker = (*InMemoryViewerTracker)(nil)
