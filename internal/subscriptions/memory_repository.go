package subscriptions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-memory implementation of Repository for tests and
// local development. Patches are applied under the same lock as reads, giving
// the same lost-update protection the SQL stores get from single-statement
// updates.
type MemoryRepository struct {
	mu          sync.RWMutex
	byID        map[string]*Record
	byBusiness  map[string]string // business_id -> record id
	byStripeSub map[string]string // stripe_subscription_id -> record id
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:        make(map[string]*Record),
		byBusiness:  make(map[string]string),
		byStripeSub: make(map[string]string),
	}
}

// Create stores a new record, rejecting duplicates on either key.
func (r *MemoryRepository) Create(ctx context.Context, rec Record) error {
	if rec.ID == "" || rec.BusinessID == "" || rec.StripeSubscriptionID == "" {
		return ErrInvalidRecord
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rec.ID]; exists {
		return ErrAlreadyExists
	}
	if _, exists := r.byBusiness[rec.BusinessID]; exists {
		return ErrAlreadyExists
	}
	if _, exists := r.byStripeSub[rec.StripeSubscriptionID]; exists {
		return ErrAlreadyExists
	}

	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	stored := rec
	r.byID[rec.ID] = &stored
	r.byBusiness[rec.BusinessID] = rec.ID
	r.byStripeSub[rec.StripeSubscriptionID] = rec.ID
	return nil
}

// GetByBusinessID retrieves the record for a tenant business.
func (r *MemoryRepository) GetByBusinessID(ctx context.Context, businessID string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byBusiness[businessID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *r.byID[id], nil
}

// GetByStripeSubscriptionID retrieves the record for a provider subscription.
func (r *MemoryRepository) GetByStripeSubscriptionID(ctx context.Context, stripeSubID string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byStripeSub[stripeSubID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return *r.byID[id], nil
}

// UpdateByStripeSubscriptionID applies a patch atomically under the write lock.
func (r *MemoryRepository) UpdateByStripeSubscriptionID(ctx context.Context, stripeSubID string, patch Patch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byStripeSub[stripeSubID]
	if !ok {
		return ErrNotFound
	}
	patch.apply(r.byID[id], time.Now())
	return nil
}

// Close is a no-op for the in-memory repository.
func (r *MemoryRepository) Close() error {
	return nil
}
