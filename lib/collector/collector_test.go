package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"influence-backend/internal/components/chrono"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/estimate"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"
	"influence-backend/lib/roster"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	platform string
	fetch    func(target platforms.Target) (influence.PlatformSample, error)

	mutex   *sync.Mutex
	targets *[]platforms.Target
}

func newFakeSource(platform string, fetch func(target platforms.Target) (influence.PlatformSample, error)) fakeSource {
	return fakeSource{
		platform: platform,
		fetch:    fetch,
		mutex:    &sync.Mutex{},
		targets:  &[]platforms.Target{},
	}
}

func (f fakeSource) Platform() string {
	return f.platform
}

func (f fakeSource) Fetch(ctx context.Context, target platforms.Target) (influence.PlatformSample, error) {
	f.mutex.Lock()
	*f.targets = append(*f.targets, target)
	f.mutex.Unlock()
	return f.fetch(target)
}

var errBoom = errors.New("boom")

func testConfig(t *testing.T) roster.Config {
	config, err := roster.New(roster.File{
		Region: "US",
		Weights: map[string]influence.PlatformWeight{
			"bilibili": {Weight: 1, Engagement: 1},
			"tiktok":   {Weight: 0.5, Engagement: 1},
			"weibo":    {Weight: 0.8, Engagement: 1},
			"podcast":  {Weight: 0.7, Engagement: 1},
		},
		Creators: []roster.Creator{
			{Key: "alpha", Name: "Alpha", Accounts: map[string]string{"bilibili": "1", "tiktok": "alpha"}},
			{Key: "beta", Name: "Beta", Accounts: map[string]string{"tiktok": "beta"}},
			{Key: "gamma", Name: "Gamma", Accounts: map[string]string{"podcast": "https://example.com/feed"}},
		},
		Estimates: map[string]map[string]estimate.Record{
			"alpha": {"weibo": {Followers: 1000}},
			"beta":  {"tiktok": {Followers: 500}},
			"gamma": {"podcast": {Followers: 11_000_000}},
		},
		Collector: roster.CollectorConfig{Concurrency: 2, RatePerSecond: 1000},
	})
	require.NoError(t, err)
	return config
}

func testSources() (fakeSource, fakeSource, fakeSource) {
	bili := newFakeSource("bilibili", func(target platforms.Target) (influence.PlatformSample, error) {
		return influence.PlatformSample{
			Status:         influence.StatusSuccess,
			Followers:      1000,
			Views:          5000,
			EngagementRate: 2,
		}, nil
	})
	tiktok := newFakeSource("tiktok", func(target platforms.Target) (influence.PlatformSample, error) {
		return influence.PlatformSample{}, errBoom
	})
	pod := newFakeSource("podcast", func(target platforms.Target) (influence.PlatformSample, error) {
		return influence.PlatformSample{
			Platform:  "podcast",
			Status:    influence.StatusEstimated,
			Followers: target.Hint.Followers,
		}, nil
	})
	return bili, tiktok, pod
}

var fixedClock = chrono.FixedImpl{At: time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC)}

func TestCollect(t *testing.T) {
	config := testConfig(t)
	bili, tiktok, pod := testSources()
	tel := telemetry.NewMemoryAPI()

	c, err := NewCollector(config, []platforms.Source{bili, tiktok, pod}, fixedClock, tel)
	require.NoError(t, err)

	run, err := c.Collect(context.Background(), config.Creators())
	require.NoError(t, err)

	require.Equal(t, "2024-03-05", run.Date)
	require.Equal(t, "US", run.Region)
	require.Len(t, run.Results, 3)
	require.Equal(t, "alpha", run.Results[0].Creator.Key)
	require.Equal(t, "beta", run.Results[1].Creator.Key)
	require.Equal(t, "gamma", run.Results[2].Creator.Key)

	alpha := run.Results[0].Samples
	require.Equal(t, []string{"bilibili", "tiktok", "weibo"}, c.Platforms(run.Results[0].Creator))
	require.Equal(t, influence.StatusSuccess, alpha["bilibili"].Status)
	require.Equal(t, "bilibili", alpha["bilibili"].Platform)
	require.Equal(t, influence.StatusError, alpha["tiktok"].Status)
	require.Equal(t, "boom", alpha["tiktok"].Error)
	require.Equal(t, influence.StatusEstimated, alpha["weibo"].Status)
	require.Equal(t, int64(1000), alpha["weibo"].Followers)

	beta := run.Results[1].Samples
	require.Equal(t, influence.StatusEstimated, beta["tiktok"].Status)
	require.Equal(t, int64(500), beta["tiktok"].Followers)
	require.Equal(t, "boom", beta["tiktok"].Raw["fetch_error"])

	gamma := run.Results[2].Samples
	require.Equal(t, int64(11_000_000), gamma["podcast"].Followers)

	for _, res := range run.Results {
		require.Equal(t, influence.Aggregate(res.Samples, config.Weights(), config.Options()), res.Score)
		require.Equal(t, influence.AggregateComponents(res.Samples, config.Weights()), res.Components)
	}
	_, scored := run.Results[0].Score.Breakdown["tiktok"]
	require.False(t, scored)

	require.Len(t, run.Failures, 2)
	require.Equal(t, "alpha/tiktok: boom", run.Failures[0].Error())
	require.Equal(t, "beta/tiktok: boom", run.Failures[1].Error())
	require.ErrorIs(t, run.Err(), errBoom)

	require.Equal(t, map[influence.Status]int{
		influence.StatusSuccess:   1,
		influence.StatusEstimated: 3,
		influence.StatusError:     1,
	}, run.Quality())

	require.Len(t, tel.Filter(telemetry.LevelWarning), 3)
	require.Len(t, tel.Filter(telemetry.LevelCount), 3)
}

func TestCollectPassesHints(t *testing.T) {
	config := testConfig(t)
	bili, tiktok, pod := testSources()

	c, err := NewCollector(config, []platforms.Source{bili, tiktok, pod}, fixedClock, telemetry.NewMemoryAPI())
	require.NoError(t, err)
	_, err = c.Collect(context.Background(), config.Creators())
	require.NoError(t, err)

	require.Len(t, *pod.targets, 1)
	target := (*pod.targets)[0]
	require.Equal(t, "gamma", target.Creator)
	require.Equal(t, "https://example.com/feed", target.Handle)
	require.Equal(t, int64(11_000_000), target.Hint.Followers)

	require.Len(t, *tiktok.targets, 2)
}

func TestCollectCanceled(t *testing.T) {
	config := testConfig(t)
	bili, tiktok, pod := testSources()

	c, err := NewCollector(config, []platforms.Source{bili, tiktok, pod}, fixedClock, telemetry.NewMemoryAPI())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Collect(ctx, config.Creators())
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewCollectorDuplicateSource(t *testing.T) {
	bili, _, _ := testSources()
	_, err := NewCollector(testConfig(t), []platforms.Source{bili, bili}, fixedClock, telemetry.NewMemoryAPI())
	require.Error(t, err)
}

func TestRescore(t *testing.T) {
	config := testConfig(t)
	bili, tiktok, pod := testSources()

	c, err := NewCollector(config, []platforms.Source{bili, tiktok, pod}, fixedClock, telemetry.NewMemoryAPI())
	require.NoError(t, err)
	run, err := c.Collect(context.Background(), config.Creators())
	require.NoError(t, err)

	rescored := c.Rescore(run)
	for i := range run.Results {
		require.Equal(t, run.Results[i].Score, rescored.Results[i].Score)
	}
}
