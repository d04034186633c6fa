// Package collector fetches every configured creator on every platform and turns
// the samples into scores.
package collector

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"influence-backend/internal/assert"
	"influence-backend/internal/components/chrono"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/estimate"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"
	"influence-backend/lib/roster"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	tracer = otel.Tracer("influence.lib.collector")
	meter  = otel.Meter("influence.lib.collector")
)

const (
	report_fetch    = "collector.fetch"
	report_fallback = "collector.fallback"
	report_samples  = "collector.samples"
)

// ErrNoSource is the fetch error of platforms that have no fetcher and rely on
// estimates only.
var ErrNoSource = errors.New("no fetcher for platform")

// Result is everything known about one creator after a run.
type Result struct {
	Creator    roster.Creator                      `json:"creator"`
	Samples    map[string]influence.PlatformSample `json:"samples"`
	Score      influence.CreatorScore              `json:"score"`
	Components influence.Components                `json:"components"`
}

type Run struct {
	Date    string    `json:"date"`
	At      time.Time `json:"at"`
	Region  string    `json:"region"`
	Results []Result  `json:"results"`
	// Failures are the fetch errors of the run, whether or not they were
	// covered by an estimate. Platforms that were never fetched only count
	// when nothing could be estimated either.
	Failures []error `json:"-"`
}

// Err joins the fetch failures of the run.
func (r Run) Err() error {
	return errors.Join(r.Failures...)
}

// Quality counts samples by status.
func (r Run) Quality() map[influence.Status]int {
	out := map[influence.Status]int{}
	for _, res := range r.Results {
		for _, s := range res.Samples {
			out[s.Status]++
		}
	}
	return out
}

type Collector struct {
	config   roster.Config
	sources  map[string]platforms.Source
	limiters map[string]*rate.Limiter
	clock    chrono.API
	tel      telemetry.API
	samples  metric.Int64Counter
}

func NewCollector(config roster.Config, sources []platforms.Source, clock chrono.API, tel telemetry.API) (Collector, error) {
	assert.NotNil(clock)
	assert.NotNil(tel)

	settings := config.Collector()
	bySource := map[string]platforms.Source{}
	limiters := map[string]*rate.Limiter{}
	for _, s := range sources {
		assert.NotNil(s)
		if _, exists := bySource[s.Platform()]; exists {
			return Collector{}, fmt.Errorf("duplicate fetcher for platform %s", s.Platform())
		}
		bySource[s.Platform()] = s
		limiters[s.Platform()] = rate.NewLimiter(rate.Limit(settings.RatePerSecond), 1)
	}

	samples, err := meter.Int64Counter(
		"collector_samples_total",
		metric.WithDescription("The amount of platform samples collected, by platform and status."),
	)
	if err != nil {
		return Collector{}, err
	}

	return Collector{
		config:   config,
		sources:  bySource,
		limiters: limiters,
		clock:    clock,
		tel:      telemetry.NewScopedAPI("collector", tel),
		samples:  samples,
	}, nil
}

// Platforms returns the platforms collected for a creator, the union of its
// accounts and whatever the estimate table covers for it.
func (c Collector) Platforms(creator roster.Creator) []string {
	set := map[string]struct{}{}
	for platform := range creator.Accounts {
		set[platform] = struct{}{}
	}
	for _, platform := range c.config.Estimates().Platforms(creator.Key) {
		set[platform] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

type job struct {
	index    int
	creator  roster.Creator
	platform string
}

// Collect fetches and scores the given creators. Fetch failures never fail the
// run, they become estimated or error samples. The returned error is only set
// when ctx ends before the run completes.
func (c Collector) Collect(ctx context.Context, creators []roster.Creator) (Run, error) {
	ctx, span := tracer.Start(ctx, "Collect")
	defer span.End()

	now := c.clock.Now()
	run := Run{
		Date:    chrono.Date(now),
		At:      now,
		Region:  c.config.Region(),
		Results: make([]Result, len(creators)),
	}

	var jobs []job
	for i, creator := range creators {
		run.Results[i] = Result{
			Creator: creator,
			Samples: map[string]influence.PlatformSample{},
		}
		for _, platform := range c.Platforms(creator) {
			jobs = append(jobs, job{index: i, creator: creator, platform: platform})
		}
	}
	span.SetAttributes(
		attribute.Int("creators", len(creators)),
		attribute.Int("jobs", len(jobs)),
	)

	var mutex sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.config.Collector().Concurrency)
	for _, j := range jobs {
		group.Go(func() error {
			out, err := c.collectOne(groupCtx, j.creator, j.platform)
			if err != nil {
				return err
			}

			mutex.Lock()
			defer mutex.Unlock()
			run.Results[j.index].Samples[j.platform] = out.sample
			if out.failure != nil {
				run.Failures = append(run.Failures, fmt.Errorf("%s/%s: %w", j.creator.Key, j.platform, out.failure))
			}
			return nil
		})
	}
	err := group.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collection interrupted")
		return Run{}, err
	}

	// failures are appended in completion order
	slices.SortFunc(run.Failures, func(a, b error) int {
		return strings.Compare(a.Error(), b.Error())
	})

	for i := range run.Results {
		c.score(&run.Results[i])
	}
	for status, count := range run.Quality() {
		c.tel.ReportCount(fmt.Sprintf("%s.%s", report_samples, status), int64(count))
	}
	return run, nil
}

func (c Collector) score(r *Result) {
	r.Score = influence.Aggregate(r.Samples, c.config.Weights(), c.config.Options())
	r.Components = influence.AggregateComponents(r.Samples, c.config.Weights())
}

// Rescore recomputes the scores of a run, used when weights or options change
// but the samples do not.
func (c Collector) Rescore(run Run) Run {
	out := run
	out.Results = make([]Result, len(run.Results))
	for i, r := range run.Results {
		r.Samples = maps.Clone(r.Samples)
		c.score(&r)
		out.Results[i] = r
	}
	return out
}

type outcome struct {
	sample influence.PlatformSample
	// failure is the fetch error the sample recovered from
	failure error
}

// collectOne only errors when ctx is done.
func (c Collector) collectOne(ctx context.Context, creator roster.Creator, platform string) (outcome, error) {
	ctx, span := tracer.Start(ctx, "collectOne")
	defer span.End()
	span.SetAttributes(
		attribute.String("creator", creator.Key),
		attribute.String("platform", platform),
	)

	sample, fetchErr := c.fetch(ctx, creator, platform)
	if ctx.Err() != nil {
		return outcome{}, ctx.Err()
	}

	if fetchErr == nil {
		sample = sample.Normalize()
	} else {
		skipped := errors.Is(fetchErr, ErrNoSource) || errors.Is(fetchErr, platforms.ErrNoHandle)
		if skipped {
			c.tel.ReportDebug("no fetch attempted", "creator", creator.Key, "platform", platform, "reason", fetchErr)
		} else {
			span.RecordError(fetchErr)
			c.tel.ReportWarning(report_fetch, fetchErr, creator.Key, platform)
		}

		estimated, ok := estimate.Estimate(creator.Key, platform, c.config.Estimates())
		switch {
		case ok && skipped:
			sample = estimated
			fetchErr = nil
		case ok:
			c.tel.ReportWarning(report_fallback, creator.Key, platform)
			estimated.Raw["fetch_error"] = fetchErr.Error()
			sample = estimated
		default:
			sample = influence.ErrorSample(platform, fetchErr)
		}
	}

	c.samples.Add(ctx, 1, metric.WithAttributes(
		attribute.String("platform", platform),
		attribute.String("status", sample.Status.String()),
	))
	return outcome{sample: sample, failure: fetchErr}, nil
}

func (c Collector) fetch(ctx context.Context, creator roster.Creator, platform string) (influence.PlatformSample, error) {
	source, ok := c.sources[platform]
	if !ok {
		return influence.PlatformSample{}, ErrNoSource
	}
	hint, _ := c.config.Estimates().Lookup(creator.Key, platform)
	target := platforms.Target{
		Creator: creator.Key,
		Handle:  creator.Accounts[platform],
		Hint:    hint,
	}
	if target.Handle == "" {
		return influence.PlatformSample{}, platforms.ErrNoHandle
	}

	err := c.limiters[platform].Wait(ctx)
	if err != nil {
		return influence.PlatformSample{}, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, c.config.Collector().Timeout())
	defer cancel()
	sample, err := source.Fetch(fetchCtx, target)
	if err != nil {
		return influence.PlatformSample{}, err
	}
	if sample.Platform == "" {
		sample.Platform = platform
	}
	return sample, nil
}
