package catalog

import (
	"context"
	"fmt"
	"sync"
)

// MemStore holds the serialized Document in process memory. Every Load decodes
// a fresh copy, so callers never share state by reference.
type MemStore struct {
	mu   sync.RWMutex
	raw  []byte
	seed SeedFunc
}

func NewMemStore(seed SeedFunc) *MemStore {
	return &MemStore{seed: seed}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Load(ctx context.Context) (Document, error) {
	s.mu.RLock()
	raw := s.raw
	s.mu.RUnlock()

	doc, ok, err := decodeDocument(raw)
	if err != nil {
		return Document{}, fmt.Errorf("decode catalog: %w", err)
	}
	if ok {
		return doc, nil
	}

	return seedDocument(ctx, s, s.seed)
}

func (s *MemStore) Flush(ctx context.Context, doc Document) error {
	raw, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	return nil
}
