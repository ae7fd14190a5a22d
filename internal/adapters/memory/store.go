package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hearthlabs/hearth/pkg/domain"
)

// Store implements ports.StateStore with an in-process map. Used by tests
// and by dev mode; production deployments use the Redis store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*domain.StateRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{records: make(map[string]*domain.StateRecord)}
}

// Save persists the record for a user, overwriting any existing one.
func (s *Store) Save(ctx context.Context, userID string, record *domain.StateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *record
	s.records[userID] = &clone
	return nil
}

// Load retrieves the record for a user.
func (s *Store) Load(ctx context.Context, userID string) (*domain.StateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[userID]
	if !ok {
		return nil, domain.ErrStateNotFound
	}
	clone := *record
	return &clone, nil
}

// Delete removes the record for a user.
func (s *Store) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, userID)
	return nil
}

// List returns users with an active conversation in stable order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]string, 0, len(s.records))
	for id := range s.records {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}
