package flash

import (
	"context"
	"sync"
)

// MemStore is an in-process Store used by tests and single-node setups
// where Redis is not available.
type MemStore struct {
	mu   sync.Mutex
	msgs map[string][]Message
}

func NewMemStore() *MemStore {
	return &MemStore{msgs: map[string][]Message{}}
}

func (s *MemStore) Add(_ context.Context, sessionID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs[sessionID] = append(s.msgs[sessionID], msg)
	return nil
}

func (s *MemStore) Pop(_ context.Context, sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.msgs[sessionID]
	delete(s.msgs, sessionID)
	return msgs, nil
}
