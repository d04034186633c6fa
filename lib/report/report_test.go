package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"influence-backend/lib/collector"
	"influence-backend/lib/influence"
	"influence-backend/lib/roster"

	"github.com/stretchr/testify/require"
)

var weights = influence.NewWeightTable(map[string]influence.PlatformWeight{
	"youtube": {Weight: 1.0, Engagement: 1.2, Region: "US"},
	"twitter": {Weight: 0.6, Engagement: 0.8, Region: "US"},
})

func testResult(key, name string, followers int64) collector.Result {
	samples := map[string]influence.PlatformSample{
		"youtube": {
			Platform:       "youtube",
			Status:         influence.StatusSuccess,
			Followers:      followers,
			Views:          followers * 20,
			EngagementRate: 3.5,
			RecentPosts: []influence.Post{
				{Title: "video one", Views: 1000},
				{Title: "video two"},
				{Title: "video three"},
				{Title: "video four"},
			},
		},
		"twitter": {
			Platform:  "twitter",
			Status:    influence.StatusEstimated,
			Followers: followers / 2,
			Note:      "using configured follower count",
		},
		"tiktok": influence.ErrorSample("tiktok", errors.New("blocked")),
	}
	return collector.Result{
		Creator:    roster.Creator{Key: key, Name: name, Category: "tech"},
		Samples:    samples,
		Score:      influence.Aggregate(samples, weights, influence.DefaultOptions()),
		Components: influence.AggregateComponents(samples, weights),
	}
}

func testReport(opts influence.Options) Report {
	run := collector.Run{
		Date:   "2024-03-05",
		At:     time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC),
		Region: "US",
		Results: []collector.Result{
			testResult("small", "Small Creator", 1000),
			testResult("big", "Big Creator", 1_000_000),
		},
	}
	return Build(run, weights, opts)
}

func TestBuildRanks(t *testing.T) {
	r := testReport(influence.DefaultOptions())
	require.Len(t, r.Entries, 2)
	require.Equal(t, "big", r.Entries[0].Result.Creator.Key)
	require.Equal(t, 1, r.Entries[0].Rank)
	require.Equal(t, "small", r.Entries[1].Result.Creator.Key)
	require.Equal(t, Quality{Success: 2, Estimated: 2, Error: 2}, r.Quality())
	require.Equal(t, []string{"tiktok", "twitter", "youtube"}, r.Platforms())
}

func TestFormatCount(t *testing.T) {
	testCases := []struct {
		in  int64
		out string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1_322_500, "1,322,500"},
		{-45_000, "-45,000"},
	}
	for _, test := range testCases {
		require.Equal(t, test.out, FormatCount(test.in))
	}
	require.Equal(t, "1,323", FormatScore(1322.5))
}

func TestWriteText(t *testing.T) {
	r := testReport(influence.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, r.WriteText(&buf))
	out := buf.String()

	require.Contains(t, out, "Generated: 2024-03-05 06:00:00")
	require.Contains(t, out, "Region: US")
	require.Less(t, strings.Index(out, "Big Creator"), strings.Index(out, "Small Creator"))
	require.Contains(t, out, "video three")
	require.NotContains(t, out, "video four")
	require.Contains(t, out, "1,000 views")
	require.Contains(t, out, "using configured follower count")
	require.Contains(t, out, "PLATFORM WEIGHTS")
	require.Contains(t, strings.ToUpper(out), "FETCHED")
	require.Contains(t, out, FormatScore(r.Entries[0].Result.Score.Provenance().Estimated))
	// error samples are hidden unless they are part of the breakdown
	require.NotContains(t, out, "blocked")

	opts := influence.DefaultOptions()
	opts.IncludeErrors = true
	buf.Reset()
	require.NoError(t, testReport(opts).WriteText(&buf))
	require.Contains(t, buf.String(), "blocked")
}

func TestWriteJSON(t *testing.T) {
	r := testReport(influence.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var decoded struct {
		Region      string `json:"region"`
		Influencers []struct {
			Key               string                            `json:"key"`
			InfluenceScore    int64                             `json:"influence_score"`
			ScoreProvenance   influence.Provenance              `json:"score_provenance"`
			PlatformBreakdown map[string]influence.Contribution `json:"platform_breakdown"`
			Platforms         map[string]json.RawMessage        `json:"platforms"`
		} `json:"influencers"`
		PlatformWeights map[string]influence.PlatformWeight `json:"platform_weights"`
		Summary         struct {
			TotalInfluencers int     `json:"total_influencers"`
			TotalPlatforms   int     `json:"total_platforms"`
			DataQuality      Quality `json:"data_quality"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	require.Equal(t, "US", decoded.Region)
	require.Len(t, decoded.Influencers, 2)
	require.Equal(t, "big", decoded.Influencers[0].Key)
	require.Equal(t, r.Entries[0].Result.Score.Rounded(), decoded.Influencers[0].InfluenceScore)
	require.Equal(t, r.Entries[0].Result.Score.Provenance(), decoded.Influencers[0].ScoreProvenance)
	require.Positive(t, decoded.Influencers[0].ScoreProvenance.Estimated)
	require.Len(t, decoded.Influencers[0].PlatformBreakdown, 2)
	require.Len(t, decoded.Influencers[0].Platforms, 3)
	require.Equal(t, 1.2, decoded.PlatformWeights["youtube"].Engagement)
	require.Equal(t, 2, decoded.Summary.TotalInfluencers)
	require.Equal(t, 3, decoded.Summary.TotalPlatforms)
	require.Equal(t, Quality{Success: 2, Estimated: 2, Error: 2}, decoded.Summary.DataQuality)
}
