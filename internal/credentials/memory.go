package credentials

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in process memory. Nothing survives a
// restart, so every start requires a new pairing.
type MemoryStore struct {
	mu   sync.Mutex
	data Bundle
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: Bundle{}}
}

func (s *MemoryStore) Load(ctx context.Context) (Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone(), nil
}

func (s *MemoryStore) Save(ctx context.Context, update Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateBundle(update); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Merge(update)
	return nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = Bundle{}
	return nil
}
