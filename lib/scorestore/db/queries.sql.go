package db

import (
	"context"
)

const upsertInfluencer = `
insert into influencers (key, name, real_name, region, category, stance, direction, updated_at)
values (?, ?, ?, ?, ?, ?, ?, ?)
on conflict (key) do update set
    name = excluded.name,
    real_name = excluded.real_name,
    region = excluded.region,
    category = excluded.category,
    stance = excluded.stance,
    direction = excluded.direction,
    updated_at = excluded.updated_at
`

func (q *Queries) UpsertInfluencer(ctx context.Context, arg Influencer) error {
	_, err := q.db.ExecContext(ctx, upsertInfluencer,
		arg.Key,
		arg.Name,
		arg.RealName,
		arg.Region,
		arg.Category,
		arg.Stance,
		arg.Direction,
		arg.UpdatedAt,
	)
	return err
}

const getInfluencer = `
select key, name, real_name, region, category, stance, direction, updated_at
from influencers where key = ?
`

func (q *Queries) GetInfluencer(ctx context.Context, key string) (Influencer, error) {
	row := q.db.QueryRowContext(ctx, getInfluencer, key)
	var i Influencer
	err := row.Scan(
		&i.Key,
		&i.Name,
		&i.RealName,
		&i.Region,
		&i.Category,
		&i.Stance,
		&i.Direction,
		&i.UpdatedAt,
	)
	return i, err
}

const deletePlatformStats = `
delete from platform_stats where influencer_key = ? and date = ?
`

type DeletePlatformStatsParams struct {
	InfluencerKey string
	Date          string
}

func (q *Queries) DeletePlatformStats(ctx context.Context, arg DeletePlatformStatsParams) error {
	_, err := q.db.ExecContext(ctx, deletePlatformStats, arg.InfluencerKey, arg.Date)
	return err
}

const insertPlatformStat = `
insert into platform_stats (
    influencer_key, platform, date, status, followers, views, likes, posts,
    engagement_rate, note, error_message, data_json, collected_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertPlatformStat(ctx context.Context, arg PlatformStat) error {
	_, err := q.db.ExecContext(ctx, insertPlatformStat,
		arg.InfluencerKey,
		arg.Platform,
		arg.Date,
		arg.Status,
		arg.Followers,
		arg.Views,
		arg.Likes,
		arg.Posts,
		arg.EngagementRate,
		arg.Note,
		arg.ErrorMessage,
		arg.DataJson,
		arg.CollectedAt,
	)
	return err
}

const getPlatformStats = `
select id, influencer_key, platform, date, status, followers, views, likes, posts,
    engagement_rate, note, error_message, data_json, collected_at
from platform_stats
where influencer_key = ? and date = ?
order by platform
`

type GetPlatformStatsParams struct {
	InfluencerKey string
	Date          string
}

func (q *Queries) GetPlatformStats(ctx context.Context, arg GetPlatformStatsParams) ([]PlatformStat, error) {
	rows, err := q.db.QueryContext(ctx, getPlatformStats, arg.InfluencerKey, arg.Date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PlatformStat
	for rows.Next() {
		var i PlatformStat
		if err := rows.Scan(
			&i.ID,
			&i.InfluencerKey,
			&i.Platform,
			&i.Date,
			&i.Status,
			&i.Followers,
			&i.Views,
			&i.Likes,
			&i.Posts,
			&i.EngagementRate,
			&i.Note,
			&i.ErrorMessage,
			&i.DataJson,
			&i.CollectedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertScore = `
insert into influence_scores (
    influencer_key, date, total_score, base_score, reach_score, commercial_score,
    breakdown_json, run_id, calculated_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict (influencer_key, date) do update set
    total_score = excluded.total_score,
    base_score = excluded.base_score,
    reach_score = excluded.reach_score,
    commercial_score = excluded.commercial_score,
    breakdown_json = excluded.breakdown_json,
    run_id = excluded.run_id,
    calculated_at = excluded.calculated_at
`

func (q *Queries) UpsertScore(ctx context.Context, arg InfluenceScore) error {
	_, err := q.db.ExecContext(ctx, upsertScore,
		arg.InfluencerKey,
		arg.Date,
		arg.TotalScore,
		arg.BaseScore,
		arg.ReachScore,
		arg.CommercialScore,
		arg.BreakdownJson,
		arg.RunID,
		arg.CalculatedAt,
	)
	return err
}

const getScoresForRanking = `
select s.influencer_key, i.region, s.total_score
from influence_scores s
join influencers i on i.key = s.influencer_key
where s.date = ?
order by s.total_score desc, s.influencer_key asc
`

type GetScoresForRankingRow struct {
	InfluencerKey string
	Region        string
	TotalScore    float64
}

func (q *Queries) GetScoresForRanking(ctx context.Context, date string) ([]GetScoresForRankingRow, error) {
	rows, err := q.db.QueryContext(ctx, getScoresForRanking, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []GetScoresForRankingRow
	for rows.Next() {
		var i GetScoresForRankingRow
		if err := rows.Scan(&i.InfluencerKey, &i.Region, &i.TotalScore); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setRanks = `
update influence_scores set rank_global = ?, rank_region = ?
where influencer_key = ? and date = ?
`

type SetRanksParams struct {
	RankGlobal    int64
	RankRegion    int64
	InfluencerKey string
	Date          string
}

func (q *Queries) SetRanks(ctx context.Context, arg SetRanksParams) error {
	_, err := q.db.ExecContext(ctx, setRanks, arg.RankGlobal, arg.RankRegion, arg.InfluencerKey, arg.Date)
	return err
}

const scoreColumns = `
    i.key, i.name, i.real_name, i.region, i.category, i.stance, i.direction, i.updated_at,
    s.date, s.total_score, s.base_score, s.reach_score, s.commercial_score, s.breakdown_json,
    s.rank_global, s.rank_region, s.run_id, s.calculated_at
`

type ScoreRow struct {
	Influencer Influencer
	Score      InfluenceScore
}

func scanScoreRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}) ([]ScoreRow, error) {
	defer rows.Close()
	var items []ScoreRow
	for rows.Next() {
		var i ScoreRow
		if err := rows.Scan(
			&i.Influencer.Key,
			&i.Influencer.Name,
			&i.Influencer.RealName,
			&i.Influencer.Region,
			&i.Influencer.Category,
			&i.Influencer.Stance,
			&i.Influencer.Direction,
			&i.Influencer.UpdatedAt,
			&i.Score.Date,
			&i.Score.TotalScore,
			&i.Score.BaseScore,
			&i.Score.ReachScore,
			&i.Score.CommercialScore,
			&i.Score.BreakdownJson,
			&i.Score.RankGlobal,
			&i.Score.RankRegion,
			&i.Score.RunID,
			&i.Score.CalculatedAt,
		); err != nil {
			return nil, err
		}
		i.Score.InfluencerKey = i.Influencer.Key
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRankings = `
select` + scoreColumns + `
from influence_scores s
join influencers i on i.key = s.influencer_key
where s.date = ? and (? = '' or i.region = ?)
order by s.total_score desc, i.key asc
`

type GetRankingsParams struct {
	Date   string
	Region string
}

func (q *Queries) GetRankings(ctx context.Context, arg GetRankingsParams) ([]ScoreRow, error) {
	rows, err := q.db.QueryContext(ctx, getRankings, arg.Date, arg.Region, arg.Region)
	if err != nil {
		return nil, err
	}
	return scanScoreRows(rows)
}

const getHistory = `
select` + scoreColumns + `
from influence_scores s
join influencers i on i.key = s.influencer_key
where s.influencer_key = ?
order by s.date desc
limit ?
`

type GetHistoryParams struct {
	InfluencerKey string
	Limit         int64
}

func (q *Queries) GetHistory(ctx context.Context, arg GetHistoryParams) ([]ScoreRow, error) {
	rows, err := q.db.QueryContext(ctx, getHistory, arg.InfluencerKey, arg.Limit)
	if err != nil {
		return nil, err
	}
	return scanScoreRows(rows)
}

const getLatestDate = `
select coalesce(max(date), '') from influence_scores
`

func (q *Queries) GetLatestDate(ctx context.Context) (string, error) {
	row := q.db.QueryRowContext(ctx, getLatestDate)
	var date string
	err := row.Scan(&date)
	return date, err
}
