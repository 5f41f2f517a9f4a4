package content

// VisibilityState is the derived dashboard lifecycle state of a content item.
type VisibilityState string

const (
	StateProcessing         VisibilityState = "processing"
	StateFailed             VisibilityState = "failed"
	StateDraft              VisibilityState = "draft"
	StateScheduled          VisibilityState = "scheduled"
	StatePartiallyPublished VisibilityState = "partially-published"
	StateCompleted          VisibilityState = "completed"
)

// Classify buckets a content item and its generated assets into a visibility
// state. Pure and total; rule order matters and mirrors how the dashboard
// reads the item's life: still generating, then generation failure, then the
// aggregate send state of the assets.
func Classify(item Item, assets []Asset) VisibilityState {
	if item.Status == ItemStatusProcessing || item.GenerationStatus == GenerationStatusGenerating {
		return StateProcessing
	}

	// A completed item that produced nothing is a generation failure even if
	// the pipeline never flagged it as one.
	if item.GenerationStatus == GenerationStatusFailed ||
		(item.Status == ItemStatusCompleted && len(assets) == 0) {
		return StateFailed
	}

	var scheduled, sent int
	for _, a := range assets {
		if a.ScheduledAt != nil {
			scheduled++
		}
		if a.DeliveryStatus == DeliveryStatusSent {
			sent++
		}
	}

	switch {
	case len(assets) > 0 && sent == len(assets):
		return StateCompleted
	case sent > 0:
		return StatePartiallyPublished
	case scheduled > 0:
		return StateScheduled
	default:
		return StateDraft
	}
}

// DisplayBucket maps a visibility state to the dashboard filter tab it
// appears under. Failed items surface in the drafts tab so the user can
// retry or delete them; everything else maps to itself.
func DisplayBucket(state VisibilityState) VisibilityState {
	if state == StateFailed {
		return StateDraft
	}
	return state
}
