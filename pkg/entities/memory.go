package entities

import (
	"context"
	"sync"

	"github.com/talentbase/signoff/pkg/models"
)

// MemoryStore records entity status writes in memory. Used in tests and local
// development.
type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[string]string)}
}

func (s *MemoryStore) WriteStatus(ctx context.Context, entityType models.EntityType, entityID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses[key(entityType, entityID)] = status

	return nil
}

// Status returns the last status written for the entity, if any.
func (s *MemoryStore) Status(entityType models.EntityType, entityID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[key(entityType, entityID)]

	return status, ok
}

func key(entityType models.EntityType, entityID string) string {
	return string(entityType) + "/" + entityID
}
