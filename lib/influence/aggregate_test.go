package influence

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func usWeights() WeightTable {
	return NewWeightTable(map[string]PlatformWeight{
		"youtube":   {Weight: 1.0, Engagement: 0.05},
		"twitter":   {Weight: 0.25, Engagement: 0.02},
		"tiktok":    {Weight: 0.35, Engagement: 0.15},
		"instagram": {Weight: 0.3, Engagement: 0.03},
		"podcast":   {Weight: 0.6, Engagement: 0.08},
	})
}

func TestAggregateExample(t *testing.T) {
	samples := map[string]PlatformSample{
		"youtube": {
			Platform:       "youtube",
			Status:         StatusSuccess,
			Followers:      1_000_000,
			Views:          50_000_000,
			EngagementRate: 5.0,
		},
		"twitter": {
			Platform:  "twitter",
			Status:    StatusEstimated,
			Followers: 500_000,
		},
	}

	score := Aggregate(samples, usWeights(), DefaultOptions())
	require.Len(t, score.Breakdown, 2)

	youtube := 0.5*(1_000_000*1.0) +
		0.3*(1_000_000*(5.0/100)*0.05*1000) +
		0.2*(50_000_000*0.001*1.0)
	twitter := 0.5 * (500_000 * 0.25)

	require.InDelta(t, youtube, score.Breakdown["youtube"].Contribution, 1e-6)
	require.InDelta(t, twitter, score.Breakdown["twitter"].Contribution, 1e-6)
	require.InDelta(t, youtube+twitter, score.Total, 1e-6)
	require.InDelta(t, 1_322_500, score.Total, 1e-6)
	require.Equal(t, int64(1_322_500), score.Rounded())

	require.Equal(t, int64(1_000_000), score.Breakdown["youtube"].Followers)
	require.Equal(t, 5.0, score.Breakdown["youtube"].EngagementRate)
	require.Equal(t, 0.25, score.Breakdown["twitter"].Weight)
}

func TestAggregateEmpty(t *testing.T) {
	score := Aggregate(map[string]PlatformSample{}, usWeights(), DefaultOptions())
	require.Equal(t, 0.0, score.Total)
	require.Empty(t, score.Breakdown)

	score = Aggregate(nil, NewWeightTable(nil), DefaultOptions())
	require.Equal(t, 0.0, score.Total)
}

func randomSamples(seed int) map[string]PlatformSample {
	platforms := []string{"youtube", "twitter", "tiktok", "instagram", "podcast", "weibo", "douyin", "bilibili"}
	out := map[string]PlatformSample{}
	x := uint64(seed)*6364136223846793005 + 1442695040888963407
	next := func() uint64 {
		x = x*6364136223846793005 + 1442695040888963407
		return x >> 33
	}
	for _, p := range platforms {
		status := Status(next() % 3)
		out[p] = PlatformSample{
			Platform:       p,
			Status:         status,
			Followers:      int64(next() % 100_000_000),
			Views:          int64(next() % 10_000_000_000),
			EngagementRate: float64(next()%10_000) / 317,
		}
	}
	return out
}

func TestAggregateDeterministic(t *testing.T) {
	for seed := 0; seed < 50; seed++ {
		samples := randomSamples(seed)
		first := Aggregate(samples, usWeights(), DefaultOptions())
		for i := 0; i < 20; i++ {
			again := Aggregate(samples, usWeights(), DefaultOptions())
			require.Equal(t, math.Float64bits(first.Total), math.Float64bits(again.Total))
			require.Equal(t, first.Breakdown, again.Breakdown)
		}
	}
}

func TestAggregateErrorEquivalentToOmission(t *testing.T) {
	for seed := 0; seed < 50; seed++ {
		samples := randomSamples(seed)
		withError := map[string]PlatformSample{}
		without := map[string]PlatformSample{}
		for k, v := range samples {
			withError[k] = v
			without[k] = v
		}
		withError["youtube"] = PlatformSample{
			Platform:  "youtube",
			Status:    StatusError,
			Followers: 12_345_678,
			Views:     99,
			Error:     "quota exceeded",
		}
		delete(without, "youtube")

		a := Aggregate(withError, usWeights(), DefaultOptions())
		b := Aggregate(without, usWeights(), DefaultOptions())
		require.Equal(t, math.Float64bits(b.Total), math.Float64bits(a.Total))
		require.NotContains(t, a.Breakdown, "youtube")
	}
}

func TestAggregateIncludeErrors(t *testing.T) {
	samples := map[string]PlatformSample{
		"youtube": {Platform: "youtube", Status: StatusError, Error: "boom"},
		"tiktok":  {Platform: "tiktok", Status: StatusSuccess, Followers: 100},
	}
	opts := DefaultOptions()
	opts.IncludeErrors = true

	score := Aggregate(samples, usWeights(), opts)
	require.Len(t, score.Breakdown, 2)
	require.Equal(t, 0.0, score.Breakdown["youtube"].Contribution)
	require.Equal(t, StatusError, score.Breakdown["youtube"].Status)

	without := Aggregate(samples, usWeights(), DefaultOptions())
	require.Len(t, without.Breakdown, 1)
	require.Equal(t, without.Total, score.Total)
}

func TestAggregateMonotonicFollowers(t *testing.T) {
	for seed := 0; seed < 50; seed++ {
		samples := randomSamples(seed)
		base := Aggregate(samples, usWeights(), DefaultOptions())
		for platform, sample := range samples {
			bumped := map[string]PlatformSample{}
			for k, v := range samples {
				bumped[k] = v
			}
			sample.Followers += 1_000
			bumped[platform] = sample

			next := Aggregate(bumped, usWeights(), DefaultOptions())
			require.GreaterOrEqual(t, next.Total, base.Total, "platform %s", platform)
		}
	}
}

func TestAggregateUnknownPlatformFallback(t *testing.T) {
	samples := map[string]PlatformSample{
		"mastodon": {Platform: "mastodon", Status: StatusSuccess, Followers: 10_000, EngagementRate: 2},
	}
	score := Aggregate(samples, usWeights(), DefaultOptions())

	entry := score.Breakdown["mastodon"]
	require.True(t, entry.Fallback)
	require.Equal(t, FallbackWeight, entry.Weight)

	expected := 0.5*(10_000*FallbackWeight) + 0.3*(10_000*(2.0/100)*FallbackEngagement*1000)
	require.InDelta(t, expected, score.Total, 1e-9)
}

func TestAggregateEstimatedFactor(t *testing.T) {
	samples := map[string]PlatformSample{
		"youtube": {Platform: "youtube", Status: StatusSuccess, Followers: 1000},
		"twitter": {Platform: "twitter", Status: StatusEstimated, Followers: 1000},
	}

	full := Aggregate(samples, usWeights(), DefaultOptions())

	opts := DefaultOptions()
	opts.EstimatedFactor = 0.5
	discounted := Aggregate(samples, usWeights(), opts)

	require.Equal(t, full.Breakdown["youtube"].Contribution, discounted.Breakdown["youtube"].Contribution)
	require.InDelta(t, full.Breakdown["twitter"].Contribution/2, discounted.Breakdown["twitter"].Contribution, 1e-9)

	provenance := full.Provenance()
	require.InDelta(t, 500, provenance.Success, 1e-9)
	require.InDelta(t, 125, provenance.Estimated, 1e-9)
	require.Zero(t, provenance.Error)
	require.InDelta(t, full.Total, provenance.Success+provenance.Estimated+provenance.Error, 1e-9)
}

func TestProvenanceCountsErrors(t *testing.T) {
	samples := map[string]PlatformSample{
		"youtube": {Platform: "youtube", Status: StatusSuccess, Followers: 1000},
		"tiktok":  ErrorSample("tiktok", errors.New("blocked")),
	}

	hidden := Aggregate(samples, usWeights(), DefaultOptions()).Provenance()
	require.Zero(t, hidden.ErrorPlatforms)

	opts := DefaultOptions()
	opts.IncludeErrors = true
	score := Aggregate(samples, usWeights(), opts)
	provenance := score.Provenance()
	require.Equal(t, 1, provenance.ErrorPlatforms)
	require.Zero(t, provenance.Error)
	require.Zero(t, provenance.Estimated)
	require.InDelta(t, score.Total, provenance.Success, 1e-9)
}

func TestAggregateNormalizesErrorFollowers(t *testing.T) {
	sample := PlatformSample{Platform: "tiktok", Status: StatusError, Followers: 5, Views: 10, EngagementRate: 3}
	normalized := sample.Normalize()
	require.Zero(t, normalized.Followers)
	require.Zero(t, normalized.Views)
	require.Zero(t, normalized.EngagementRate)

	negative := PlatformSample{Status: StatusSuccess, Followers: -5, Views: -1, EngagementRate: 4}.Normalize()
	require.Zero(t, negative.Followers)
	require.Zero(t, negative.Views)
	require.Zero(t, negative.EngagementRate)
}

func TestAggregateComponents(t *testing.T) {
	samples := map[string]PlatformSample{
		"youtube": {Status: StatusSuccess, Followers: 1_000_000, Views: 2_000_000},
		"tiktok":  {Status: StatusError, Followers: 1_000_000},
	}
	c := AggregateComponents(samples, usWeights())

	require.InDelta(t, 1_000_000*1.0*1.05, c.Base, 1e-6)
	require.InDelta(t, 2_000_000*1.0*0.1, c.Reach, 1e-6)
	require.InDelta(t, 1_000_000*1.0*0.01, c.Commercial, 1e-6)
	require.InDelta(t, 0.4*c.Base+0.4*c.Reach+0.2*c.Commercial, c.Total, 1e-6)
}
