package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"influence-backend/internal/assert"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"
	"influence-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultBaseURL = "https://api.bilibili.com"
	Platform       = "bilibili"

	recentVideos = 10
)

const (
	report_card   = "bilibili.card"
	report_videos = "bilibili.videos"
)

type Options struct {
	BaseURL string
	Timeout time.Duration
	Retries int
	// Dump receives every http exchange when set.
	Dump restyutil.InstrumentOutput
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(opts Options, tel telemetry.API) Client {
	assert.NotNil(tel)

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	http := restyutil.NewClient(restyutil.ClientOptions{
		BaseURL: baseURL,
		Timeout: opts.Timeout,
		Retries: opts.Retries,
	})
	http.SetHeader("Referer", "https://space.bilibili.com")
	restyutil.InstrumentClient(http, tracer, opts.Dump)

	scoped := telemetry.NewScopedAPI("platforms", tel)
	telemetry.InstrumentResty(http, scoped)

	return Client{
		http: http,
		tel:  scoped,
	}
}

func (Client) Platform() string {
	return Platform
}

// envelope is the common shape of every bilibili api response.
type envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type cardData struct {
	Card struct {
		Mid       string `json:"mid"`
		Name      string `json:"name"`
		Sign      string `json:"sign"`
		Fans      int64  `json:"fans"`
		Likes     int64  `json:"likes"`
		LevelInfo struct {
			CurrentLevel int `json:"current_level"`
		} `json:"level_info"`
	} `json:"card"`
	ArchiveCount int64 `json:"archive_count"`
	LikeNum      int64 `json:"like_num"`
	Follower     int64 `json:"follower"`
}

type video struct {
	Bvid    string `json:"bvid"`
	Title   string `json:"title"`
	Play    int64  `json:"play"`
	Like    int64  `json:"like"`
	Comment int64  `json:"comment"`
	Created int64  `json:"created"`
	Length  string `json:"length"`
}

type searchData struct {
	List struct {
		Vlist []video `json:"vlist"`
	} `json:"list"`
	Page struct {
		Count int64 `json:"count"`
	} `json:"page"`
}

func get[T any](ctx context.Context, c Client, path string, query map[string]string) (T, error) {
	var out envelope[T]
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return out.Data, err
	}
	if res.IsError() {
		return out.Data, fmt.Errorf("unexpected status %s", res.Status())
	}
	err = json.Unmarshal(res.Body(), &out)
	if err != nil {
		return out.Data, fmt.Errorf("decode response: %w", err)
	}
	if out.Code != 0 {
		return out.Data, fmt.Errorf("api error %d: %s", out.Code, out.Message)
	}
	return out.Data, nil
}

// Card fetches the public profile card of a user.
func (c Client) card(ctx context.Context, uid string) (cardData, error) {
	return get[cardData](ctx, c, "/x/web-interface/card", map[string]string{"mid": uid, "photo": "false"})
}

func (c Client) videos(ctx context.Context, uid string) ([]video, int64, error) {
	data, err := get[searchData](ctx, c, "/x/space/arc/search", map[string]string{
		"mid":   uid,
		"ps":    fmt.Sprint(recentVideos),
		"pn":    "1",
		"order": "pubdate",
	})
	if err != nil {
		return nil, 0, err
	}
	return data.List.Vlist, data.Page.Count, nil
}

func (c Client) Fetch(ctx context.Context, target platforms.Target) (influence.PlatformSample, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	uid := strings.TrimSpace(target.Handle)
	if uid == "" {
		return influence.PlatformSample{}, platforms.ErrNoHandle
	}
	span.SetAttributes(attribute.String("uid", uid))

	card, err := c.card(ctx, uid)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch card")
		c.tel.ReportBroken(report_card, err, uid)
		return influence.PlatformSample{}, fmt.Errorf("bilibili card %s: %w", uid, err)
	}

	followers := card.Card.Fans
	if followers == 0 {
		followers = card.Follower
	}
	likes := card.LikeNum
	if likes == 0 {
		likes = card.Card.Likes
	}

	sample := influence.PlatformSample{
		Platform:  Platform,
		Status:    influence.StatusSuccess,
		Followers: followers,
		Likes:     likes,
		Posts:     card.ArchiveCount,
		Raw: map[string]any{
			"uid":   uid,
			"name":  card.Card.Name,
			"sign":  card.Card.Sign,
			"level": card.Card.LevelInfo.CurrentLevel,
		},
	}

	// the video list is best effort, a failure only loses views and engagement
	videos, count, err := c.videos(ctx, uid)
	if err != nil {
		c.tel.ReportWarning(report_videos, err, uid)
		sample.Note = "recent videos unavailable"
		return sample.Normalize(), nil
	}
	if count > 0 {
		sample.Posts = count
	}

	var plays int64
	for _, v := range videos {
		plays += v.Play
		sample.RecentPosts = append(sample.RecentPosts, influence.Post{
			Title:     v.Title,
			URL:       "https://www.bilibili.com/video/" + v.Bvid,
			Views:     v.Play,
			Likes:     v.Like,
			Comments:  v.Comment,
			Published: time.Unix(v.Created, 0).UTC(),
		})
	}
	sample.Views = plays
	// total likes of the account over the plays of the recent videos
	sample.EngagementRate = round2(influence.EngagementRate(float64(likes), float64(plays)))

	return sample.Normalize(), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
