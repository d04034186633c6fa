// Package report renders a collection run as a text or json report.
package report

import (
	"cmp"
	"maps"
	"slices"
	"time"

	"influence-backend/lib/collector"
	"influence-backend/lib/influence"
)

// Entry is one ranked creator in a report.
type Entry struct {
	Rank   int
	Result collector.Result
}

type Report struct {
	GeneratedAt time.Time
	Date        string
	Region      string
	Entries     []Entry
	Weights     influence.WeightTable
	Options     influence.Options
}

// Build ranks the results of a run by score, highest first. Ties keep the key
// order so that reports are reproducible.
func Build(run collector.Run, weights influence.WeightTable, opts influence.Options) Report {
	results := slices.Clone(run.Results)
	slices.SortStableFunc(results, func(a, b collector.Result) int {
		if c := cmp.Compare(b.Score.Total, a.Score.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Creator.Key, b.Creator.Key)
	})

	entries := make([]Entry, len(results))
	for i, r := range results {
		entries[i] = Entry{Rank: i + 1, Result: r}
	}
	return Report{
		GeneratedAt: run.At,
		Date:        run.Date,
		Region:      run.Region,
		Entries:     entries,
		Weights:     weights,
		Options:     opts,
	}
}

type Quality struct {
	Success   int `json:"success"`
	Estimated int `json:"estimated"`
	Error     int `json:"error"`
}

// Quality counts the samples of the report by status.
func (r Report) Quality() Quality {
	var q Quality
	for _, e := range r.Entries {
		for _, s := range e.Result.Samples {
			switch s.Status {
			case influence.StatusSuccess:
				q.Success++
			case influence.StatusEstimated:
				q.Estimated++
			default:
				q.Error++
			}
		}
	}
	return q
}

// Platforms returns every platform that appears in the report, sorted.
func (r Report) Platforms() []string {
	set := map[string]struct{}{}
	for _, e := range r.Entries {
		for platform := range e.Result.Samples {
			set[platform] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

// visibleSamples returns the platforms of a result shown in the details, error
// samples only show up when they are part of the score breakdown.
func (r Report) visibleSamples(res collector.Result) []string {
	var out []string
	for _, platform := range slices.Sorted(maps.Keys(res.Samples)) {
		if res.Samples[platform].Status == influence.StatusError && !r.Options.IncludeErrors {
			continue
		}
		out = append(out, platform)
	}
	return out
}
