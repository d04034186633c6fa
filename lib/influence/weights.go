package influence

import (
	"maps"
	"slices"
)

const (
	FallbackWeight     = 0.1
	FallbackEngagement = 0.05
)

// PlatformWeight is the static, hand-tuned importance of a platform.
type PlatformWeight struct {
	Weight     float64 `json:"weight"`
	Engagement float64 `json:"engagement"`
	Region     string  `json:"region,omitempty"`
}

// WeightTable is an immutable mapping of platform name to PlatformWeight.
type WeightTable struct {
	entries map[string]PlatformWeight
}

func NewWeightTable(entries map[string]PlatformWeight) WeightTable {
	return WeightTable{entries: maps.Clone(entries)}
}

// Lookup returns the weight of a platform, or the fallback weight and false if the
// platform is not configured.
func (t WeightTable) Lookup(platform string) (PlatformWeight, bool) {
	w, ok := t.entries[platform]
	if !ok {
		return PlatformWeight{Weight: FallbackWeight, Engagement: FallbackEngagement}, false
	}
	return w, true
}

// Platforms returns the configured platform names in sorted order.
func (t WeightTable) Platforms() []string {
	return slices.Sorted(maps.Keys(t.entries))
}

func (t WeightTable) Len() int {
	return len(t.entries)
}

// Entries returns a copy of the underlying mapping.
func (t WeightTable) Entries() map[string]PlatformWeight {
	return maps.Clone(t.entries)
}
