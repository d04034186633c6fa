package influence

import (
	"maps"
	"slices"
)

// Components is the base/reach/commercial split persisted with every score.
type Components struct {
	Base       float64 `json:"base_score"`
	Reach      float64 `json:"reach_score"`
	Commercial float64 `json:"commercial_score"`
	Total      float64 `json:"total_score"`
}

const (
	componentsReachFraction      = 0.1
	componentsCommercialFraction = 0.01

	componentsBaseBlend       = 0.4
	componentsReachBlend      = 0.4
	componentsCommercialBlend = 0.2
)

// AggregateComponents computes the component variant of the score, where
// engagement boosts the base term instead of forming a separate term.
func AggregateComponents(samples map[string]PlatformSample, weights WeightTable) Components {
	var c Components
	for _, platform := range slices.Sorted(maps.Keys(samples)) {
		sample := samples[platform].Normalize()
		if !sample.Status.Scored() {
			continue
		}
		weight, _ := weights.Lookup(platform)
		followers := float64(sample.Followers)

		c.Base += followers * weight.Weight * (1 + weight.Engagement)
		c.Reach += float64(sample.Views) * weight.Weight * componentsReachFraction
		c.Commercial += followers * weight.Weight * componentsCommercialFraction
	}
	c.Total = componentsBaseBlend*c.Base +
		componentsReachBlend*c.Reach +
		componentsCommercialBlend*c.Commercial
	return c
}
