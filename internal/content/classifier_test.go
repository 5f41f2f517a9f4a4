package content

import (
	"testing"
	"time"
)

func sentAsset() Asset {
	return Asset{DeliveryStatus: DeliveryStatusSent}
}

func scheduledAsset() Asset {
	ts := time.Now().Add(24 * time.Hour)
	return Asset{ScheduledAt: &ts}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		item   Item
		assets []Asset
		want   VisibilityState
	}{
		{
			name: "item still processing",
			item: Item{Status: ItemStatusProcessing},
			want: StateProcessing,
		},
		{
			name: "assets still generating",
			item: Item{Status: ItemStatusCompleted, GenerationStatus: GenerationStatusGenerating},
			want: StateProcessing,
		},
		{
			name: "generation failed",
			item: Item{Status: ItemStatusCompleted, GenerationStatus: GenerationStatusFailed},
			assets: []Asset{
				sentAsset(),
			},
			want: StateFailed,
		},
		{
			name:   "completed with no assets is a failure",
			item:   Item{Status: ItemStatusCompleted, GenerationStatus: GenerationStatusCompleted},
			assets: nil,
			want:   StateFailed,
		},
		{
			name:   "all assets sent",
			item:   Item{Status: ItemStatusCompleted, GenerationStatus: GenerationStatusCompleted},
			assets: []Asset{sentAsset(), sentAsset(), sentAsset()},
			want:   StateCompleted,
		},
		{
			name:   "one of three sent",
			item:   Item{Status: ItemStatusCompleted, GenerationStatus: GenerationStatusCompleted},
			assets: []Asset{sentAsset(), {}, {}},
			want:   StatePartiallyPublished,
		},
		{
			name:   "scheduled but none sent",
			item:   Item{Status: ItemStatusCompleted, GenerationStatus: GenerationStatusCompleted},
			assets: []Asset{scheduledAsset(), scheduledAsset()},
			want:   StateScheduled,
		},
		{
			name:   "nothing scheduled or sent",
			item:   Item{Status: ItemStatusCompleted, GenerationStatus: GenerationStatusCompleted},
			assets: []Asset{{}, {}},
			want:   StateDraft,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.item, tc.assets); got != tc.want {
				t.Fatalf("Classify = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDisplayBucketFoldsFailedIntoDrafts(t *testing.T) {
	if got := DisplayBucket(StateFailed); got != StateDraft {
		t.Fatalf("DisplayBucket(failed) = %q, want %q", got, StateDraft)
	}
	for _, state := range []VisibilityState{
		StateProcessing, StateDraft, StateScheduled, StatePartiallyPublished, StateCompleted,
	} {
		if got := DisplayBucket(state); got != state {
			t.Fatalf("DisplayBucket(%q) = %q, want identity", state, got)
		}
	}
}
