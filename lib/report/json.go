package report

import (
	"encoding/json"
	"io"
	"time"

	"influence-backend/lib/influence"
)

type jsonInfluencer struct {
	Rank              int                                 `json:"rank"`
	Key               string                              `json:"key"`
	Name              string                              `json:"name"`
	RealName          string                              `json:"real_name,omitempty"`
	Category          string                              `json:"category,omitempty"`
	Region            string                              `json:"region,omitempty"`
	Stance            string                              `json:"political_stance,omitempty"`
	Direction         string                              `json:"direction,omitempty"`
	InfluenceScore    int64                               `json:"influence_score"`
	ScoreProvenance   influence.Provenance                `json:"score_provenance"`
	PlatformBreakdown map[string]influence.Contribution   `json:"platform_breakdown"`
	Platforms         map[string]influence.PlatformSample `json:"platforms"`
}

type jsonSummary struct {
	TotalInfluencers int     `json:"total_influencers"`
	TotalPlatforms   int     `json:"total_platforms"`
	DataQuality      Quality `json:"data_quality"`
}

type jsonReport struct {
	GeneratedAt     time.Time                           `json:"generated_at"`
	Date            string                              `json:"date,omitempty"`
	Region          string                              `json:"region,omitempty"`
	Influencers     []jsonInfluencer                    `json:"influencers"`
	PlatformWeights map[string]influence.PlatformWeight `json:"platform_weights"`
	Summary         jsonSummary                         `json:"summary"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	out := jsonReport{
		GeneratedAt:     r.GeneratedAt,
		Date:            r.Date,
		Region:          r.Region,
		Influencers:     make([]jsonInfluencer, len(r.Entries)),
		PlatformWeights: r.Weights.Entries(),
		Summary: jsonSummary{
			TotalInfluencers: len(r.Entries),
			TotalPlatforms:   len(r.Platforms()),
			DataQuality:      r.Quality(),
		},
	}
	for i, e := range r.Entries {
		c := e.Result.Creator
		breakdown := e.Result.Score.Breakdown
		if breakdown == nil {
			breakdown = map[string]influence.Contribution{}
		}
		samples := e.Result.Samples
		if samples == nil {
			samples = map[string]influence.PlatformSample{}
		}
		out.Influencers[i] = jsonInfluencer{
			Rank:              e.Rank,
			Key:               c.Key,
			Name:              c.Name,
			RealName:          c.RealName,
			Category:          c.Category,
			Region:            c.Region,
			Stance:            c.Stance,
			Direction:         c.Direction,
			InfluenceScore:    e.Result.Score.Rounded(),
			ScoreProvenance:   e.Result.Score.Provenance(),
			PlatformBreakdown: breakdown,
			Platforms:         samples,
		}
	}
	return json.Marshal(out)
}

// WriteJSON writes the indented json report.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}
