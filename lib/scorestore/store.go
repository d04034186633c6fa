// Package scorestore persists collection runs and serves rankings and history.
package scorestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"influence-backend/internal/assert"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/collector"
	"influence-backend/lib/influence"
	"influence-backend/lib/roster"
	"influence-backend/lib/scorestore/db"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("influence.lib.scorestore")

const (
	report_db_query = "db.query"
	report_decode   = "decode"
)

var ErrNotFound = errors.New("not found")

// Score is one stored score row joined with its creator.
type Score struct {
	Key          string                 `json:"key"`
	Name         string                 `json:"name"`
	RealName     string                 `json:"real_name,omitempty"`
	Region       string                 `json:"region"`
	Category     string                 `json:"category"`
	Stance       string                 `json:"political_stance,omitempty"`
	Date         string                 `json:"date"`
	Total        float64                `json:"total_score"`
	Base         float64                `json:"base_score"`
	Reach        float64                `json:"reach_score"`
	Commercial   float64                `json:"commercial_score"`
	Breakdown    influence.CreatorScore `json:"-"`
	Provenance   influence.Provenance   `json:"score_provenance"`
	RankGlobal   int                    `json:"rank_global"`
	RankRegion   int                    `json:"rank_region"`
	RunID        string                 `json:"run_id"`
	CalculatedAt time.Time              `json:"calculated_at"`
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
	tel telemetry.API
}

func NewStore(database *sql.DB, tel telemetry.API) Store {
	assert.NotNil(database)
	assert.NotNil(tel)
	return Store{
		db:  database,
		qry: db.New(database),
		tel: telemetry.NewScopedAPI("scorestore", tel),
	}
}

// Migrate creates the tables when they do not exist.
func (s Store) Migrate(ctx context.Context) error {
	for _, stmt := range db.Statements() {
		_, err := s.db.ExecContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func newRunID() (string, error) {
	id, err := random.String(16)
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id, nil
}

// Save writes a run in one transaction. Stats and scores of the run's creators
// on the run's date are replaced, then the ranks of that date are recomputed.
// It returns the id attached to the run.
func (s Store) Save(ctx context.Context, run collector.Run) (string, error) {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("date", run.Date),
		attribute.Int("results", len(run.Results)),
	)

	runID, err := newRunID()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate run id")
		return "", err
	}

	err = s.save(ctx, runID, run)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save run")
		s.tel.ReportBroken(report_db_query, err, "Save", run.Date)
		return "", err
	}
	return runID, nil
}

func (s Store) save(ctx context.Context, runID string, run collector.Run) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	at := run.At.Unix()
	for _, res := range run.Results {
		c := res.Creator
		err = txqry.UpsertInfluencer(ctx, db.Influencer{
			Key:       c.Key,
			Name:      c.Name,
			RealName:  c.RealName,
			Region:    c.Region,
			Category:  c.Category,
			Stance:    c.Stance,
			Direction: c.Direction,
			UpdatedAt: at,
		})
		if err != nil {
			return fmt.Errorf("upsert influencer %s: %w", c.Key, err)
		}

		err = txqry.DeletePlatformStats(ctx, db.DeletePlatformStatsParams{
			InfluencerKey: c.Key,
			Date:          run.Date,
		})
		if err != nil {
			return fmt.Errorf("delete stats %s: %w", c.Key, err)
		}

		for _, platform := range slices.Sorted(maps.Keys(res.Samples)) {
			sample := res.Samples[platform]
			data, err := json.Marshal(sample)
			if err != nil {
				return fmt.Errorf("encode sample %s/%s: %w", c.Key, platform, err)
			}
			err = txqry.InsertPlatformStat(ctx, db.PlatformStat{
				InfluencerKey:  c.Key,
				Platform:       platform,
				Date:           run.Date,
				Status:         sample.Status.String(),
				Followers:      sample.Followers,
				Views:          sample.Views,
				Likes:          sample.Likes,
				Posts:          sample.Posts,
				EngagementRate: sample.EngagementRate,
				Note:           sample.Note,
				ErrorMessage:   sample.Error,
				DataJson:       string(data),
				CollectedAt:    at,
			})
			if err != nil {
				return fmt.Errorf("insert stat %s/%s: %w", c.Key, platform, err)
			}
		}

		breakdown, err := json.Marshal(res.Score)
		if err != nil {
			return fmt.Errorf("encode breakdown %s: %w", c.Key, err)
		}
		err = txqry.UpsertScore(ctx, db.InfluenceScore{
			InfluencerKey:   c.Key,
			Date:            run.Date,
			TotalScore:      res.Score.Total,
			BaseScore:       res.Components.Base,
			ReachScore:      res.Components.Reach,
			CommercialScore: res.Components.Commercial,
			BreakdownJson:   string(breakdown),
			RunID:           runID,
			CalculatedAt:    at,
		})
		if err != nil {
			return fmt.Errorf("upsert score %s: %w", c.Key, err)
		}
	}

	err = rerank(ctx, txqry, run.Date)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// rerank assigns global and per-region ranks for a date, ties are broken by key.
func rerank(ctx context.Context, txqry *db.Queries, date string) error {
	rows, err := txqry.GetScoresForRanking(ctx, date)
	if err != nil {
		return fmt.Errorf("read scores for ranking: %w", err)
	}
	regionRanks := map[string]int64{}
	for i, row := range rows {
		regionRanks[row.Region]++
		err = txqry.SetRanks(ctx, db.SetRanksParams{
			RankGlobal:    int64(i + 1),
			RankRegion:    regionRanks[row.Region],
			InfluencerKey: row.InfluencerKey,
			Date:          date,
		})
		if err != nil {
			return fmt.Errorf("set rank %s: %w", row.InfluencerKey, err)
		}
	}
	return nil
}

// LatestDate returns the most recent date with scores.
func (s Store) LatestDate(ctx context.Context) (string, error) {
	date, err := s.qry.GetLatestDate(ctx)
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetLatestDate")
		return "", err
	}
	if date == "" {
		return "", fmt.Errorf("latest date: %w", ErrNotFound)
	}
	return date, nil
}

func (s Store) toScore(row db.ScoreRow) Score {
	out := Score{
		Key:          row.Influencer.Key,
		Name:         row.Influencer.Name,
		RealName:     row.Influencer.RealName,
		Region:       row.Influencer.Region,
		Category:     row.Influencer.Category,
		Stance:       row.Influencer.Stance,
		Date:         row.Score.Date,
		Total:        row.Score.TotalScore,
		Base:         row.Score.BaseScore,
		Reach:        row.Score.ReachScore,
		Commercial:   row.Score.CommercialScore,
		RankGlobal:   int(row.Score.RankGlobal),
		RankRegion:   int(row.Score.RankRegion),
		RunID:        row.Score.RunID,
		CalculatedAt: time.Unix(row.Score.CalculatedAt, 0).UTC(),
	}
	err := json.Unmarshal([]byte(row.Score.BreakdownJson), &out.Breakdown)
	if err != nil {
		s.tel.ReportWarning(report_decode, err, "breakdown", row.Influencer.Key, row.Score.Date)
	}
	out.Provenance = out.Breakdown.Provenance()
	return out
}

// Rankings returns the scores of a date ordered by total, highest first. An
// empty region ranks every creator, an empty date uses the latest date.
func (s Store) Rankings(ctx context.Context, date, region string) ([]Score, error) {
	ctx, span := tracer.Start(ctx, "Rankings")
	defer span.End()

	if date == "" {
		latest, err := s.LatestDate(ctx)
		if err != nil {
			return nil, err
		}
		date = latest
	}
	rows, err := s.qry.GetRankings(ctx, db.GetRankingsParams{Date: date, Region: region})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read rankings")
		s.tel.ReportBroken(report_db_query, err, "GetRankings")
		return nil, err
	}
	out := make([]Score, len(rows))
	for i, row := range rows {
		out[i] = s.toScore(row)
	}
	return out, nil
}

// History returns a creator's scores, most recent first.
func (s Store) History(ctx context.Context, key string, limit int) ([]Score, error) {
	if limit <= 0 {
		limit = 30
	}
	rows, err := s.qry.GetHistory(ctx, db.GetHistoryParams{InfluencerKey: key, Limit: int64(limit)})
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetHistory")
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("history of %s: %w", key, ErrNotFound)
	}
	out := make([]Score, len(rows))
	for i, row := range rows {
		out[i] = s.toScore(row)
	}
	return out, nil
}

// Samples returns the samples stored for a creator on a date.
func (s Store) Samples(ctx context.Context, key, date string) (map[string]influence.PlatformSample, error) {
	rows, err := s.qry.GetPlatformStats(ctx, db.GetPlatformStatsParams{InfluencerKey: key, Date: date})
	if err != nil {
		s.tel.ReportBroken(report_db_query, err, "GetPlatformStats")
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("samples of %s on %s: %w", key, date, ErrNotFound)
	}

	out := make(map[string]influence.PlatformSample, len(rows))
	for _, row := range rows {
		var sample influence.PlatformSample
		err := json.Unmarshal([]byte(row.DataJson), &sample)
		if err != nil {
			s.tel.ReportWarning(report_decode, err, "sample", key, row.Platform)
			status, _ := influence.ParseStatus(row.Status)
			sample = influence.PlatformSample{
				Platform:       row.Platform,
				Status:         status,
				Followers:      row.Followers,
				Views:          row.Views,
				Likes:          row.Likes,
				Posts:          row.Posts,
				EngagementRate: row.EngagementRate,
				Note:           row.Note,
				Error:          row.ErrorMessage,
			}
		}
		out[row.Platform] = sample
	}
	return out, nil
}

// Run rebuilds the stored run of a date, with creators in rank order.
func (s Store) Run(ctx context.Context, date string) (collector.Run, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	scores, err := s.Rankings(ctx, date, "")
	if err != nil {
		return collector.Run{}, err
	}
	if len(scores) == 0 {
		return collector.Run{}, fmt.Errorf("run on %s: %w", date, ErrNotFound)
	}

	run := collector.Run{
		Date: scores[0].Date,
		At:   scores[0].CalculatedAt,
	}
	regions := map[string]struct{}{}
	for _, score := range scores {
		samples, err := s.Samples(ctx, score.Key, score.Date)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return collector.Run{}, err
		}
		regions[score.Region] = struct{}{}
		if score.CalculatedAt.After(run.At) {
			run.At = score.CalculatedAt
		}
		run.Results = append(run.Results, collector.Result{
			Creator: roster.Creator{
				Key:      score.Key,
				Name:     score.Name,
				RealName: score.RealName,
				Category: score.Category,
				Region:   score.Region,
				Stance:   score.Stance,
			},
			Samples: samples,
			Score:   score.Breakdown,
			Components: influence.Components{
				Base:       score.Base,
				Reach:      score.Reach,
				Commercial: score.Commercial,
			},
		})
	}
	if len(regions) == 1 {
		for region := range regions {
			run.Region = region
		}
	}
	return run, nil
}
