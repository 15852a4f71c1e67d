package dedup

import (
	"context"
	"sync"
)

// MemoryStore is the process-local admission gate used when Redis is not
// configured. Keys live only for the duration of one in-flight request.
type MemoryStore struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		inFlight: make(map[string]struct{}),
	}
}

func (s *MemoryStore) Acquire(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.inFlight[key]; held {
		return false, nil
	}
	s.inFlight[key] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, key)
	return nil
}

// Len reports the number of in-flight keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.inFlight)
}
