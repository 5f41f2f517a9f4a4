// Package content classifies content items and their generated assets into
// dashboard lifecycle states, and persists the items so the dashboard can
// list and filter them.
package content

import "time"

// Item is one piece of source content (an audio recording or uploaded video)
// and the processing state reported by the generation pipeline.
type Item struct {
	ID               string    `json:"id"`
	BusinessID       string    `json:"businessId"`
	Title            string    `json:"title"`
	Status           string    `json:"status"`
	GenerationStatus string    `json:"generationStatus"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Item status values reported by the processing pipeline.
const (
	ItemStatusProcessing = "processing"
	ItemStatusCompleted  = "completed"
)

// Generation status values for the derived social assets.
const (
	GenerationStatusGenerating = "generating"
	GenerationStatusFailed     = "failed"
	GenerationStatusCompleted  = "completed"
)

// Asset is one generated social post derived from an Item.
type Asset struct {
	ID             string     `json:"id"`
	ContentID      string     `json:"contentId"`
	Platform       string     `json:"platform"`
	ScheduledAt    *time.Time `json:"scheduledAt,omitempty"`
	DeliveryStatus string     `json:"deliveryStatus"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// DeliveryStatusSent is the delivery status a publishing integration writes
// once an asset has gone out. The comparison is exact, including case.
const DeliveryStatusSent = "Sent"
