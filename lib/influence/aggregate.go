package influence

import (
	"maps"
	"math"
	"slices"
)

// Options holds the constants of the scoring formula.
type Options struct {
	BaseBlend       float64 `json:"base_blend"`
	EngagementBlend float64 `json:"engagement_blend"`
	ReachBlend      float64 `json:"reach_blend"`
	// ScaleConstant brings engagement (a fraction of followers) to the same order of
	// magnitude as the base term.
	ScaleConstant float64 `json:"scale_constant"`
	ReachFraction float64 `json:"reach_fraction"`
	// EstimatedFactor multiplies the contribution of estimated samples, 1 counts
	// estimated data exactly like authoritative data.
	EstimatedFactor float64 `json:"estimated_factor"`
	// IncludeErrors keeps error samples in the breakdown with a zero contribution.
	IncludeErrors bool `json:"include_errors"`
}

func DefaultOptions() Options {
	return Options{
		BaseBlend:       0.5,
		EngagementBlend: 0.3,
		ReachBlend:      0.2,
		ScaleConstant:   1000,
		ReachFraction:   0.001,
		EstimatedFactor: 1,
		IncludeErrors:   false,
	}
}

// Contribution is the per-platform decomposition of a score.
type Contribution struct {
	Followers      int64   `json:"followers"`
	EngagementRate float64 `json:"engagement_rate"`
	Weight         float64 `json:"weight"`
	Base           float64 `json:"base"`
	Engagement     float64 `json:"engagement"`
	Reach          float64 `json:"reach"`
	Contribution   float64 `json:"contribution"`
	Status         Status  `json:"status"`
	// Fallback is set when the platform was not in the weight table.
	Fallback bool `json:"fallback,omitempty"`
}

type CreatorScore struct {
	Total     float64                 `json:"total_score"`
	Breakdown map[string]Contribution `json:"breakdown"`
}

// Rounded is the presentation value of the total.
func (c CreatorScore) Rounded() int64 {
	return int64(math.Round(c.Total))
}

// Platforms returns the platforms in the breakdown in sorted order.
func (c CreatorScore) Platforms() []string {
	return slices.Sorted(maps.Keys(c.Breakdown))
}

// Provenance splits the total by the status of the samples that produced it.
// The three shares add up to the total.
type Provenance struct {
	Success   float64 `json:"success"`
	Estimated float64 `json:"estimated"`
	// Error is always zero, errored platforms are only counted.
	Error          float64 `json:"error"`
	ErrorPlatforms int     `json:"error_platforms"`
}

func (c CreatorScore) Provenance() Provenance {
	var p Provenance
	for _, platform := range c.Platforms() {
		entry := c.Breakdown[platform]
		switch entry.Status {
		case StatusSuccess:
			p.Success += entry.Contribution
		case StatusEstimated:
			p.Estimated += entry.Contribution
		case StatusError:
			p.Error += entry.Contribution
			p.ErrorPlatforms++
		}
	}
	return p
}

// Contribute computes the contribution of a single sample under a given weight.
func Contribute(sample PlatformSample, weight PlatformWeight, opts Options) Contribution {
	sample = sample.Normalize()

	out := Contribution{
		Followers:      sample.Followers,
		EngagementRate: sample.EngagementRate,
		Weight:         weight.Weight,
		Status:         sample.Status,
	}
	if !sample.Status.Scored() {
		return out
	}

	followers := float64(sample.Followers)
	out.Base = followers * weight.Weight
	out.Engagement = followers * (sample.EngagementRate / 100) * weight.Engagement * opts.ScaleConstant
	out.Reach = float64(sample.Views) * opts.ReachFraction * weight.Weight
	out.Contribution = opts.BaseBlend*out.Base +
		opts.EngagementBlend*out.Engagement +
		opts.ReachBlend*out.Reach

	if sample.Status == StatusEstimated {
		out.Contribution *= opts.EstimatedFactor
	}
	return out
}

// Aggregate combines the samples of one creator into a single score.
//
// Platforms are visited in sorted order so that the floating point sum is
// reproducible bit for bit. Unknown platforms use the fallback weight, error
// samples contribute nothing and no error is ever returned.
func Aggregate(samples map[string]PlatformSample, weights WeightTable, opts Options) CreatorScore {
	score := CreatorScore{Breakdown: map[string]Contribution{}}

	for _, platform := range slices.Sorted(maps.Keys(samples)) {
		sample := samples[platform]
		if !sample.Status.Scored() {
			if opts.IncludeErrors {
				weight, _ := weights.Lookup(platform)
				score.Breakdown[platform] = Contribution{
					Weight: weight.Weight,
					Status: StatusError,
				}
			}
			continue
		}

		weight, known := weights.Lookup(platform)
		entry := Contribute(sample, weight, opts)
		entry.Fallback = !known

		score.Breakdown[platform] = entry
		score.Total += entry.Contribution
	}

	return score
}
