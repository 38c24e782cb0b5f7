package presence

import (
	"context"
	"sync"
)

// Status is a user's advertised availability.
type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusBusy    Status = "busy"
	StatusOffline Status = "offline"
)

// Valid reports whether the status is one a client may set.
func (s Status) Valid() bool {
	switch s {
	case StatusOnline, StatusAway, StatusBusy:
		return true
	}
	return false
}

// Store records last-known user availability. Entries expire so a crashed
// relay does not leave users permanently "online".
type Store interface {
	SetStatus(ctx context.Context, userID string, status Status) error
	GetStatus(ctx context.Context, userID string) (Status, error)
	GetStatuses(ctx context.Context, userIDs []string) (map[string]Status, error)
	Clear(ctx context.Context, userID string) error
	Close() error
}

// MemoryStore is a process-local Store used when Redis is not configured.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[string]Status)}
}

func (s *MemoryStore) SetStatus(_ context.Context, userID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[userID] = status
	return nil
}

func (s *MemoryStore) GetStatus(_ context.Context, userID string) (Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if status, ok := s.statuses[userID]; ok {
		return status, nil
	}
	return StatusOffline, nil
}

func (s *MemoryStore) GetStatuses(_ context.Context, userIDs []string) (map[string]Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[string]Status, len(userIDs))
	for _, id := range userIDs {
		if status, ok := s.statuses[id]; ok {
			result[id] = status
		} else {
			result[id] = StatusOffline
		}
	}
	return result, nil
}

func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.statuses, userID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
