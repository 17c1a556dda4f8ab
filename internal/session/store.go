// Package session manages the per-call state bag the voice platform carries
// across turns. The platform re-delivers the bag on every invocation; this
// store only backs it up server-side so a turn that arrives without one can
// still resume the call.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wireheat/afterhours/internal/models"
)

// Store defines persistence for session bags, keyed by the opaque call
// identifier the platform supplies on every invocation.
type Store interface {
	// Get retrieves the bag for a session. A missing session yields an
	// empty bag, not an error.
	Get(ctx context.Context, sessionID string) (models.GlobalData, error)

	// Put replaces the bag for a session.
	Put(ctx context.Context, sessionID string, data models.GlobalData) error

	// Delete removes all state for a session.
	Delete(ctx context.Context, sessionID string) error
}

// InMemoryStore keeps session bags in process memory behind a mutex. Bags
// are copied on the way in and out so callers never share a mutable map.
type InMemoryStore struct {
	mu   sync.RWMutex
	bags map[string]models.GlobalData
}

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{bags: make(map[string]models.GlobalData)}
}

func (s *InMemoryStore) Get(ctx context.Context, sessionID string) (models.GlobalData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bag, ok := s.bags[sessionID]
	if !ok {
		slog.Debug("InMemoryStore.Get: no bag for session", "sessionID", sessionID)
		return models.GlobalData{}, nil
	}
	return bag.Clone(), nil
}

func (s *InMemoryStore) Put(ctx context.Context, sessionID string, data models.GlobalData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bags[sessionID] = data.Clone()
	slog.Debug("InMemoryStore.Put: bag stored", "sessionID", sessionID, "keys", len(data))
	return nil
}

func (s *InMemoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bags, sessionID)
	slog.Debug("InMemoryStore.Delete: bag removed", "sessionID", sessionID)
	return nil
}
