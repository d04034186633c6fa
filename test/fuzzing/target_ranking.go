package fuzzing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"
	"sync"
	"time"

	"influence-backend/internal/components/chrono"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/collector"
	configlibsql "influence-backend/lib/configutil/libsql"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"
	"influence-backend/lib/roster"
	"influence-backend/lib/scorestore"
	testutil "influence-backend/test/util"
)

// steps:
// - Collect: every creator on every platform, some fetches fail (20%), then save
// - AdvanceClock / RewindClock: runs land on new or already scored dates
// - History(creator)
// - Samples(creator, date) of the last saved run
//
// properties of the system:
// - global ranks of a date are 1..n ordered by total desc, then key
// - region ranks are 1..n inside every region
// - a stored total equals the total of the run that produced it
// - saving a date twice replaces it, history has one row per scored date
// - a failed fetch never contributes to a score
// - saving a run takes no more than 50ms on the p95

var fuzzPlatforms = []string{"youtube", "tiktok", "instagram", "twitter", "podcast"}

type fetchOutcome struct {
	sample influence.PlatformSample
	err    error
}

// scriptedSource returns whatever the current step scripted for it.
type scriptedSource struct {
	platform string
	mu       *sync.Mutex
	script   map[string]fetchOutcome
}

func (s scriptedSource) Platform() string {
	return s.platform
}

func (s scriptedSource) Fetch(ctx context.Context, target platforms.Target) (influence.PlatformSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := s.script[target.Creator+"/"+s.platform]
	if !ok {
		return influence.PlatformSample{}, platforms.ErrNoHandle
	}
	return out.sample, out.err
}

type RankingProvider struct{}

func (RankingProvider) CreateTarget(tel telemetry.API, rndm *rand.Rand) (Target, error) {
	database, err := configlibsql.Struct{File: ":memory:"}.OpenDB()
	if err != nil {
		return nil, err
	}
	store := scorestore.NewStore(database, tel)
	err = store.Migrate(context.Background())
	if err != nil {
		return nil, err
	}

	regionSwitch := testutil.RandomSwitch(3, 1)
	creators := make([]roster.Creator, 3+rndm.Intn(6))
	for i := range creators {
		accounts := map[string]string{}
		for _, platform := range fuzzPlatforms {
			if rndm.Intn(3) > 0 {
				accounts[platform] = testutil.RandomKey(rndm, 8)
			}
		}
		region := "US"
		if regionSwitch(rndm) == 1 {
			region = "CN"
		}
		creators[i] = roster.Creator{
			Key:      fmt.Sprintf("%s%d", testutil.RandomKey(rndm, 6), i),
			Name:     testutil.RandomKey(rndm, 10),
			Region:   region,
			Accounts: accounts,
		}
	}

	cfg, err := roster.New(roster.File{
		Region:   "US",
		Creators: creators,
		Collector: roster.CollectorConfig{
			Concurrency:   4,
			RatePerSecond: 1_000_000,
		},
	})
	if err != nil {
		return nil, err
	}

	mu := &sync.Mutex{}
	script := map[string]fetchOutcome{}
	sources := make([]platforms.Source, len(fuzzPlatforms))
	for i, platform := range fuzzPlatforms {
		sources[i] = scriptedSource{platform: platform, mu: mu, script: script}
	}

	clock := newClockShim(rndm)
	c, err := collector.NewCollector(cfg, sources, clock, tel)
	if err != nil {
		return nil, err
	}

	return &RankingTarget{
		rndm:      rndm,
		clock:     clock,
		cfg:       cfg,
		store:     store,
		collector: c,
		mu:        mu,
		script:    script,
		dates:     map[string]bool{},
	}, nil
}

type RankingTarget struct {
	rndm      *rand.Rand
	clock     *clockShim
	cfg       roster.Config
	store     scorestore.Store
	collector collector.Collector

	mu     *sync.Mutex
	script map[string]fetchOutcome

	dates   map[string]bool
	lastRun collector.Run
	saves   []time.Duration
}

func (t *RankingTarget) rewriteScript() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.script)
	failSwitch := testutil.RandomSwitch(4, 1)
	for _, creator := range t.cfg.Creators() {
		for _, platform := range fuzzPlatforms {
			if _, ok := creator.Accounts[platform]; !ok {
				continue
			}
			key := creator.Key + "/" + platform
			if failSwitch(t.rndm) == 1 {
				t.script[key] = fetchOutcome{err: fmt.Errorf("scripted failure of %s", key)}
				continue
			}
			followers := testutil.RandomCount(t.rndm, 200_000_000)
			t.script[key] = fetchOutcome{sample: influence.PlatformSample{
				Platform:       platform,
				Status:         influence.StatusSuccess,
				Followers:      followers,
				Views:          testutil.RandomCount(t.rndm, followers*50+1),
				EngagementRate: math.Round(t.rndm.Float64()*1000) / 100,
			}}
		}
	}
}

func (t *RankingTarget) StepCollect(ctx context.Context, res *Results) error {
	t.rewriteScript()
	res.Record("Collect(%s)", chrono.Date(t.clock.Now()))

	run, err := t.collector.Collect(ctx, t.cfg.Creators())
	if err != nil {
		return err
	}
	for _, result := range run.Results {
		for platform, sample := range result.Samples {
			if sample.Status != influence.StatusError {
				continue
			}
			if c, ok := result.Score.Breakdown[platform]; ok && c.Contribution != 0 {
				return fmt.Errorf("error sample %s/%s contributed %f", result.Creator.Key, platform, c.Contribution)
			}
		}
	}

	start := time.Now()
	_, err = t.store.Save(ctx, run)
	t.saves = append(t.saves, time.Since(start))
	if err != nil {
		return err
	}
	t.dates[run.Date] = true
	t.lastRun = run

	return t.checkRankings(ctx, run)
}

func (t *RankingTarget) checkRankings(ctx context.Context, run collector.Run) error {
	scores, err := t.store.Rankings(ctx, run.Date, "")
	if err != nil {
		return err
	}
	if len(scores) != len(run.Results) {
		return fmt.Errorf("%d creators ranked on %s, expected %d", len(scores), run.Date, len(run.Results))
	}

	totals := map[string]float64{}
	for _, result := range run.Results {
		totals[result.Creator.Key] = result.Score.Total
	}

	regionRanks := map[string]int{}
	for i, s := range scores {
		if s.RankGlobal != i+1 {
			return fmt.Errorf("%s has global rank %d at position %d", s.Key, s.RankGlobal, i+1)
		}
		regionRanks[s.Region]++
		if s.RankRegion != regionRanks[s.Region] {
			return fmt.Errorf("%s has region rank %d, expected %d", s.Key, s.RankRegion, regionRanks[s.Region])
		}
		if math.Abs(s.Total-totals[s.Key]) > 1e-6*math.Max(1, totals[s.Key]) {
			return fmt.Errorf("%s stored total %f, run total %f", s.Key, s.Total, totals[s.Key])
		}
		if i == 0 {
			continue
		}
		prev := scores[i-1]
		if prev.Total < s.Total || (prev.Total == s.Total && prev.Key > s.Key) {
			return fmt.Errorf("%s (%f) ranked above %s (%f)", prev.Key, prev.Total, s.Key, s.Total)
		}
	}

	for region, count := range regionRanks {
		regional, err := t.store.Rankings(ctx, run.Date, region)
		if err != nil {
			return err
		}
		if len(regional) != count {
			return fmt.Errorf("region %s returned %d creators, expected %d", region, len(regional), count)
		}
	}
	return nil
}

func (t *RankingTarget) StepAdvanceClock(ctx context.Context, res *Results) error {
	d := t.clock.randDuration()
	t.clock.current = t.clock.current.Add(d)
	res.Record("AdvanceClock(%s): %s", d, t.clock.current.Format(time.DateTime))
	return nil
}

func (t *RankingTarget) StepRewindClock(ctx context.Context, res *Results) error {
	d := t.clock.randDuration()
	t.clock.current = t.clock.current.Add(-d)
	res.Record("RewindClock(%s): %s", d, t.clock.current.Format(time.DateTime))
	return nil
}

func (t *RankingTarget) StepHistory(ctx context.Context, res *Results) error {
	creator := testutil.RandomPick(t.rndm, t.cfg.Creators())
	res.Record("History(%s)", creator.Key)

	history, err := t.store.History(ctx, creator.Key, 1000)
	if len(t.dates) == 0 {
		if !errors.Is(err, scorestore.ErrNotFound) {
			return fmt.Errorf("expected not found before any save, got %v", err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	if len(history) != len(t.dates) {
		return fmt.Errorf("history has %d rows, %d dates were scored", len(history), len(t.dates))
	}
	descending := sort.SliceIsSorted(history, func(i, j int) bool {
		return history[i].Date > history[j].Date
	})
	if !descending {
		return fmt.Errorf("history is not ordered most recent first")
	}
	return nil
}

func (t *RankingTarget) StepSamples(ctx context.Context, res *Results) error {
	if len(t.lastRun.Results) == 0 {
		res.Record("Samples(): nothing saved")
		return nil
	}
	result := testutil.RandomPick(t.rndm, t.lastRun.Results)
	res.Record("Samples(%s, %s)", result.Creator.Key, t.lastRun.Date)

	stored, err := t.store.Samples(ctx, result.Creator.Key, t.lastRun.Date)
	if len(result.Samples) == 0 {
		if !errors.Is(err, scorestore.ErrNotFound) {
			return fmt.Errorf("expected no samples, got %v", err)
		}
		return nil
	}
	if err != nil {
		return err
	}
	for platform, sample := range result.Samples {
		got, ok := stored[platform]
		if !ok {
			return fmt.Errorf("sample %s missing", platform)
		}
		if got.Followers != sample.Followers || got.Status != sample.Status {
			return fmt.Errorf("sample %s stored as %d/%s, collected %d/%s", platform, got.Followers, got.Status, sample.Followers, sample.Status)
		}
	}
	return nil
}

func (t *RankingTarget) OnEnd(ctx context.Context, res *Results) {
	if len(t.saves) < 20 {
		return
	}
	sorted := slices.Clone(t.saves)
	slices.Sort(sorted)
	p95 := sorted[len(sorted)*95/100]
	if p95 > 50*time.Millisecond {
		res.Fail(fmt.Errorf("p95 of Save is %s, more than 50ms", p95))
	}
}
