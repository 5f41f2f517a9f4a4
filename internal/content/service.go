package content

import "context"

// ClassifiedItem is a content item with its derived visibility state, as
// served to the dashboard.
type ClassifiedItem struct {
	Item   Item            `json:"item"`
	Assets []Asset         `json:"assets"`
	State  VisibilityState `json:"state"`
	Bucket VisibilityState `json:"bucket"`
}

// Service provides classified dashboard listings over a content store.
type Service struct {
	store Store
}

// NewService creates a content service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store exposes the underlying store for ingestion handlers.
func (s *Service) Store() Store {
	return s.store
}

// Dashboard lists a business's content items, newest first, each classified
// into its visibility state. When filter is non-empty only items whose
// display bucket matches are returned, so the "drafts" tab includes failed
// items.
func (s *Service) Dashboard(ctx context.Context, businessID string, filter VisibilityState) ([]ClassifiedItem, error) {
	items, err := s.store.ListByBusinessID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	result := make([]ClassifiedItem, 0, len(items))
	for _, item := range items {
		assets, err := s.store.ListAssets(ctx, item.ID)
		if err != nil {
			return nil, err
		}

		state := Classify(item, assets)
		bucket := DisplayBucket(state)
		if filter != "" && bucket != filter {
			continue
		}

		result = append(result, ClassifiedItem{
			Item:   item,
			Assets: assets,
			State:  state,
			Bucket: bucket,
		})
	}
	return result, nil
}
