// Package estimate supplies substitute measurements for platforms that cannot be
// fetched. Every creator-specific number lives in a Table so that adding a creator
// only touches configuration.
package estimate

import (
	"fmt"
	"maps"
	"math"
	"slices"

	"influence-backend/lib/influence"
)

// Record is the raw material an estimate is derived from. Zero fields are unknown.
type Record struct {
	Followers   int64  `json:"followers"`
	AvgPlays    int64  `json:"avg_plays"`
	AvgReads    int64  `json:"avg_reads"`
	AvgLikes    int64  `json:"avg_likes"`
	AvgComments int64  `json:"avg_comments"`
	AvgReposts  int64  `json:"avg_reposts"`
	AvgShares   int64  `json:"avg_shares"`
	Posts       int64  `json:"posts"`
	Note        string `json:"note"`
}

// merge fills the zero fields of r from fallback.
func (r Record) merge(fallback Record) Record {
	pick := func(v, f int64) int64 {
		if v != 0 {
			return v
		}
		return f
	}
	r.Followers = pick(r.Followers, fallback.Followers)
	r.AvgPlays = pick(r.AvgPlays, fallback.AvgPlays)
	r.AvgReads = pick(r.AvgReads, fallback.AvgReads)
	r.AvgLikes = pick(r.AvgLikes, fallback.AvgLikes)
	r.AvgComments = pick(r.AvgComments, fallback.AvgComments)
	r.AvgReposts = pick(r.AvgReposts, fallback.AvgReposts)
	r.AvgShares = pick(r.AvgShares, fallback.AvgShares)
	r.Posts = pick(r.Posts, fallback.Posts)
	if r.Note == "" {
		r.Note = fallback.Note
	}
	return r
}

// Table maps creator key -> platform -> Record, with per-platform defaults used to
// fill whatever a creator record leaves out.
type Table struct {
	creators map[string]map[string]Record
	defaults map[string]Record
}

func NewTable(creators map[string]map[string]Record, defaults map[string]Record) Table {
	cloned := make(map[string]map[string]Record, len(creators))
	for k, v := range creators {
		cloned[k] = maps.Clone(v)
	}
	return Table{creators: cloned, defaults: maps.Clone(defaults)}
}

// With returns a new table where the given creators' records override the
// current ones platform by platform.
func (t Table) With(creators map[string]map[string]Record) Table {
	out := NewTable(t.creators, t.defaults)
	for key, platforms := range creators {
		current, ok := out.creators[key]
		if !ok {
			current = map[string]Record{}
			out.creators[key] = current
		}
		for platform, record := range platforms {
			current[platform] = record.merge(current[platform])
		}
	}
	return out
}

// Lookup returns the record for a creator on a platform merged with the
// platform default. It only succeeds when the creator has a record for the
// platform or the default carries a follower count.
func (t Table) Lookup(creator, platform string) (Record, bool) {
	def := t.defaults[platform]
	record, ok := t.creators[creator][platform]
	if !ok {
		return def, def.Followers > 0
	}
	return record.merge(def), true
}

// Platforms returns the platforms the table has a creator specific record for,
// sorted.
func (t Table) Platforms(creator string) []string {
	return slices.Sorted(maps.Keys(t.creators[creator]))
}

type heuristic func(r Record) (views int64, likes int64, engagement float64)

var heuristics = map[string]heuristic{
	// reads are usually 10-30% of followers
	"weibo": func(r Record) (int64, int64, float64) {
		views := int64(math.Round(float64(r.Followers) * 0.2))
		interactions := float64(r.AvgLikes + r.AvgComments + r.AvgReposts)
		return views, r.AvgLikes, influence.EngagementRate(interactions, float64(r.Followers))
	},
	// plays are usually 5-20x followers
	"douyin": func(r Record) (int64, int64, float64) {
		views := r.Followers * 10
		interactions := float64(r.AvgLikes + r.AvgComments)
		return views, r.AvgLikes, influence.EngagementRate(interactions, float64(r.Followers))
	},
	"wechat_official": func(r Record) (int64, int64, float64) {
		return r.AvgReads * r.Posts, r.AvgLikes, influence.EngagementRate(float64(r.AvgLikes), float64(r.Followers))
	},
	"wechat_channels": func(r Record) (int64, int64, float64) {
		return r.AvgPlays * r.Posts, r.AvgLikes, influence.EngagementRate(float64(r.AvgLikes), float64(r.Followers))
	},
	"bilibili": func(r Record) (int64, int64, float64) {
		return r.AvgPlays * r.Posts, int64(math.Round(float64(r.Followers) * 0.05)), 5.0
	},
}

func genericHeuristic(r Record) (int64, int64, float64) {
	interactions := float64(r.AvgLikes + r.AvgComments)
	return r.AvgPlays * r.Posts, r.AvgLikes, influence.EngagementRate(interactions, float64(r.Followers))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Estimate derives an estimated sample for a creator on a platform. The
// second return value is false when the table has nothing to estimate from.
func Estimate(creator, platform string, table Table) (influence.PlatformSample, bool) {
	record, ok := table.Lookup(creator, platform)
	if !ok || record.Followers <= 0 {
		return influence.PlatformSample{}, false
	}

	h, ok := heuristics[platform]
	if !ok {
		h = genericHeuristic
	}
	views, likes, engagement := h(record)

	note := record.Note
	if note == "" {
		note = fmt.Sprintf("%s data is not publicly available, estimated from public information", platform)
	}

	return influence.PlatformSample{
		Platform:       platform,
		Status:         influence.StatusEstimated,
		Followers:      record.Followers,
		Views:          views,
		Likes:          likes,
		Posts:          record.Posts,
		EngagementRate: round2(engagement),
		Note:           note,
		Raw: map[string]any{
			"avg_plays":    record.AvgPlays,
			"avg_reads":    record.AvgReads,
			"avg_likes":    record.AvgLikes,
			"avg_comments": record.AvgComments,
			"avg_reposts":  record.AvgReposts,
			"avg_shares":   record.AvgShares,
		},
	}.Normalize(), true
}
