package content

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[string]Item
	byBiz  map[string][]string
	assets map[string][]Asset
}

// NewMemoryStore creates an empty in-memory content store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]Item),
		byBiz:  make(map[string][]string),
		assets: make(map[string][]Asset),
	}
}

func (s *MemoryStore) CreateItem(ctx context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[item.ID]; !ok {
		s.byBiz[item.BusinessID] = append(s.byBiz[item.BusinessID], item.ID)
	}
	s.items[item.ID] = item
	return nil
}

func (s *MemoryStore) CreateAsset(ctx context.Context, asset Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[asset.ContentID] = append(s.assets[asset.ContentID], asset)
	return nil
}

func (s *MemoryStore) GetItem(ctx context.Context, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := item
	return &copied, nil
}

func (s *MemoryStore) ListByBusinessID(ctx context.Context, businessID string) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byBiz[businessID]
	items := make([]Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, s.items[id])
	}
	// Newest first, matching the dashboard's default ordering.
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *MemoryStore) ListAssets(ctx context.Context, contentID string) ([]Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assets := make([]Asset, len(s.assets[contentID]))
	copy(assets, s.assets[contentID])
	return assets, nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
