package storage

import (
	"context"
	"sync"

	"github.com/kamikazebr/ou-toggle/pkg/models"
)

// MemoryStore keeps records in process memory. It is meant for local runs
// and tests; nothing survives a restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.AccessRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*models.AccessRecord)}
}

func (s *MemoryStore) Get(ctx context.Context, email string) (*models.AccessRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, email string, rec *models.AccessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stored int64
	if existing, ok := s.records[email]; ok {
		stored = existing.Version
	}
	if stored != rec.Version {
		return ErrVersionConflict
	}

	rec.Version = stored + 1
	s.records[email] = rec.Clone()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
