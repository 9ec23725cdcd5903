package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"climas_backend/internal/opportunities/domain"

	"github.com/google/uuid"
)

// MemoryStore keeps aggregates as encoded documents so that callers never
// share memory with the stored state.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[uuid.UUID][]byte
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[uuid.UUID][]byte)}
}

func (s *MemoryStore) Create(_ context.Context, opp *domain.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[opp.ID]; exists {
		return fmt.Errorf("opportunity %s already exists", opp.ID)
	}
	opp.Revision = 1
	doc, err := json.Marshal(opp)
	if err != nil {
		opp.Revision = 0
		return fmt.Errorf("encode opportunity: %w", err)
	}
	s.docs[opp.ID] = doc
	return nil
}

func (s *MemoryStore) Load(_ context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	s.mu.RLock()
	doc, ok := s.docs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decode(doc)
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, opp *domain.Opportunity, expectedRevision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[opp.ID]
	if !ok {
		return ErrNotFound
	}
	stored, err := decode(doc)
	if err != nil {
		return err
	}
	if stored.Revision != expectedRevision {
		return ErrRevisionMismatch
	}

	opp.Revision = expectedRevision + 1
	next, err := json.Marshal(opp)
	if err != nil {
		opp.Revision = expectedRevision
		return fmt.Errorf("encode opportunity: %w", err)
	}
	s.docs[opp.ID] = next
	return nil
}

func (s *MemoryStore) List(_ context.Context, filter ListFilter) ([]*domain.Opportunity, error) {
	s.mu.RLock()
	items := make([]*domain.Opportunity, 0, len(s.docs))
	for _, doc := range s.docs {
		opp, err := decode(doc)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		if filter.Stage != "" && opp.Stage != filter.Stage {
			continue
		}
		items = append(items, opp)
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID.String() < items[j].ID.String()
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return paginate(items, filter), nil
}

func paginate(items []*domain.Opportunity, filter ListFilter) []*domain.Opportunity {
	if filter.Offset > 0 {
		if filter.Offset >= len(items) {
			return []*domain.Opportunity{}
		}
		items = items[filter.Offset:]
	}
	if limit := filter.limit(); limit < len(items) {
		items = items[:limit]
	}
	return items
}

func decode(doc []byte) (*domain.Opportunity, error) {
	var opp domain.Opportunity
	if err := json.Unmarshal(doc, &opp); err != nil {
		return nil, fmt.Errorf("decode opportunity: %w", err)
	}
	return &opp, nil
}
