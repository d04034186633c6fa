package scorestore

import (
	"context"
	"testing"
	"time"

	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/collector"
	"influence-backend/lib/influence"
	"influence-backend/lib/roster"
	"influence-backend/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

var testWeights = influence.NewWeightTable(map[string]influence.PlatformWeight{
	"youtube": {Weight: 1, Engagement: 1},
	"weibo":   {Weight: 0.8, Engagement: 1},
})

func newTestStore(t *testing.T) Store {
	database := testutil.SetupDB(t, testutil.DBParams{Name: "lib/scorestore"})

	store := NewStore(database, telemetry.NewMemoryAPI())
	require.NoError(t, store.Migrate(context.Background()))
	// migrating twice is a no-op
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func result(key, region string, followers int64) collector.Result {
	samples := map[string]influence.PlatformSample{
		"youtube": {
			Platform:       "youtube",
			Status:         influence.StatusSuccess,
			Followers:      followers,
			Views:          followers * 10,
			EngagementRate: 2.5,
			RecentPosts: []influence.Post{
				{Title: "latest", URL: "https://example.com/v", Views: 100, Published: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
			},
		},
		"weibo": {
			Platform:  "weibo",
			Status:    influence.StatusEstimated,
			Followers: followers / 2,
			Note:      "estimated",
		},
		"douyin": influence.ErrorSample("douyin", context.DeadlineExceeded),
	}
	return collector.Result{
		Creator: roster.Creator{
			Key:      key,
			Name:     "Creator " + key,
			Category: "tech",
			Region:   region,
		},
		Samples:    samples,
		Score:      influence.Aggregate(samples, testWeights, influence.DefaultOptions()),
		Components: influence.AggregateComponents(samples, testWeights),
	}
}

func testRun(date string, results ...collector.Result) collector.Run {
	at, _ := time.Parse(time.DateOnly, date)
	return collector.Run{Date: date, At: at.Add(6 * time.Hour), Results: results}
}

func keys(scores []Score) []string {
	out := make([]string, len(scores))
	for i, s := range scores {
		out[i] = s.Key
	}
	return out
}

func TestSaveAndRankings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Rankings(ctx, "", "")
	require.ErrorIs(t, err, ErrNotFound)

	runID, err := store.Save(ctx, testRun("2024-03-05",
		result("alpha", "US", 3000),
		result("beta", "CN", 1000),
		result("gamma", "US", 2000),
	))
	require.NoError(t, err)
	require.Len(t, runID, 16)

	rankings, err := store.Rankings(ctx, "", "")
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "gamma", "beta"}, keys(rankings))

	ranks := map[string][2]int{}
	for _, s := range rankings {
		ranks[s.Key] = [2]int{s.RankGlobal, s.RankRegion}
		require.Equal(t, runID, s.RunID)
		require.Equal(t, "2024-03-05", s.Date)
	}
	require.Equal(t, map[string][2]int{
		"alpha": {1, 1},
		"gamma": {2, 2},
		"beta":  {3, 1},
	}, ranks)

	cn, err := store.Rankings(ctx, "2024-03-05", "CN")
	require.NoError(t, err)
	require.Equal(t, []string{"beta"}, keys(cn))

	expected := result("alpha", "US", 3000)
	require.Equal(t, expected.Score.Total, rankings[0].Total)
	require.Equal(t, expected.Components.Base, rankings[0].Base)
	require.Equal(t, expected.Components.Commercial, rankings[0].Commercial)
	if diff := cmp.Diff(expected.Score, rankings[0].Breakdown); diff != "" {
		t.Fatalf("breakdown mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, expected.Score.Provenance(), rankings[0].Provenance)
}

func TestSaveReplacesSameDay(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, testRun("2024-03-05",
		result("alpha", "US", 3000),
		result("gamma", "US", 2000),
	))
	require.NoError(t, err)

	secondID, err := store.Save(ctx, testRun("2024-03-05", result("alpha", "US", 500)))
	require.NoError(t, err)

	rankings, err := store.Rankings(ctx, "2024-03-05", "")
	require.NoError(t, err)
	require.Equal(t, []string{"gamma", "alpha"}, keys(rankings))
	require.Equal(t, 2, rankings[1].RankGlobal)
	require.Equal(t, secondID, rankings[1].RunID)

	samples, err := store.Samples(ctx, "alpha", "2024-03-05")
	require.NoError(t, err)
	require.Len(t, samples, 3)
	require.Equal(t, int64(500), samples["youtube"].Followers)
}

func TestSamplesRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res := result("alpha", "US", 3000)
	_, err := store.Save(ctx, testRun("2024-03-05", res))
	require.NoError(t, err)

	samples, err := store.Samples(ctx, "alpha", "2024-03-05")
	require.NoError(t, err)
	if diff := cmp.Diff(res.Samples, samples, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("samples mismatch (-want +got):\n%s", diff)
	}

	_, err = store.Samples(ctx, "alpha", "2024-03-06")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHistory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i, date := range []string{"2024-03-04", "2024-03-05", "2024-03-06"} {
		_, err := store.Save(ctx, testRun(date, result("alpha", "US", int64(1000*(i+1)))))
		require.NoError(t, err)
	}

	history, err := store.History(ctx, "alpha", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "2024-03-06", history[0].Date)
	require.Equal(t, "2024-03-05", history[1].Date)
	require.Greater(t, history[0].Total, history[1].Total)

	latest, err := store.LatestDate(ctx)
	require.NoError(t, err)
	require.Equal(t, "2024-03-06", latest)

	_, err = store.History(ctx, "nobody", 10)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original := testRun("2024-03-05",
		result("beta", "US", 1000),
		result("alpha", "US", 3000),
	)
	_, err := store.Save(ctx, original)
	require.NoError(t, err)

	run, err := store.Run(ctx, "2024-03-05")
	require.NoError(t, err)
	require.Equal(t, "2024-03-05", run.Date)
	require.Equal(t, "US", run.Region)
	require.True(t, run.At.Equal(original.At))
	require.Len(t, run.Results, 2)
	require.Equal(t, "alpha", run.Results[0].Creator.Key)

	want := original.Results[1]
	got := run.Results[0]
	if diff := cmp.Diff(want.Score, got.Score); diff != "" {
		t.Fatalf("score mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Samples, got.Samples, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("samples mismatch (-want +got):\n%s", diff)
	}

	_, err = store.Run(ctx, "2024-01-01")
	require.Error(t, err)
}
