package youtube

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"influence-backend/internal/assert"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

const Platform = "youtube"

const recentVideos = 10

const (
	report_channel = "youtube.channel"
	report_videos  = "youtube.videos"
)

var tracer = otel.Tracer("influence.platforms.youtube")

var (
	ErrNoApiKey        = errors.New("youtube api key is not configured")
	ErrChannelNotFound = errors.New("channel not found")
)

type Options struct {
	ApiKey string
	// Endpoint overrides the api root, mostly for tests.
	Endpoint string
}

type Client struct {
	svc *yt.Service
	tel telemetry.API
}

func NewClient(ctx context.Context, opts Options, tel telemetry.API) (Client, error) {
	assert.NotNil(tel)

	if opts.ApiKey == "" {
		return Client{}, ErrNoApiKey
	}
	clientOpts := []option.ClientOption{option.WithAPIKey(opts.ApiKey)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}
	svc, err := yt.NewService(ctx, clientOpts...)
	if err != nil {
		return Client{}, fmt.Errorf("create youtube service: %w", err)
	}
	return Client{
		svc: svc,
		tel: telemetry.NewScopedAPI("platforms", tel),
	}, nil
}

func (Client) Platform() string {
	return Platform
}

func (c Client) Fetch(ctx context.Context, target platforms.Target) (influence.PlatformSample, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	channelId := strings.TrimSpace(target.Handle)
	if channelId == "" {
		return influence.PlatformSample{}, platforms.ErrNoHandle
	}
	span.SetAttributes(attribute.String("channel_id", channelId))

	res, err := c.svc.Channels.
		List([]string{"statistics", "contentDetails", "snippet"}).
		Id(channelId).
		Context(ctx).
		Do()
	if err == nil && len(res.Items) == 0 {
		err = ErrChannelNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch channel")
		c.tel.ReportBroken(report_channel, err, channelId)
		return influence.PlatformSample{}, fmt.Errorf("youtube channel %s: %w", channelId, err)
	}

	channel := res.Items[0]
	sample := influence.PlatformSample{
		Platform: Platform,
		Status:   influence.StatusSuccess,
		Note:     "youtube data api v3",
		Raw:      map[string]any{"channel_id": channelId},
	}
	if channel.Statistics != nil {
		sample.Followers = int64(channel.Statistics.SubscriberCount)
		sample.Views = int64(channel.Statistics.ViewCount)
		sample.Posts = int64(channel.Statistics.VideoCount)
	}
	if channel.Snippet != nil {
		sample.Raw["channel_title"] = channel.Snippet.Title
		sample.Raw["published_at"] = channel.Snippet.PublishedAt
		sample.Raw["country"] = channel.Snippet.Country
	}

	uploads := ""
	if channel.ContentDetails != nil && channel.ContentDetails.RelatedPlaylists != nil {
		uploads = channel.ContentDetails.RelatedPlaylists.Uploads
	}
	if uploads == "" {
		return sample.Normalize(), nil
	}

	posts, err := c.recentVideos(ctx, uploads)
	if err != nil {
		c.tel.ReportWarning(report_videos, err, channelId)
		sample.Note = "recent videos unavailable"
		return sample.Normalize(), nil
	}
	sample.RecentPosts = posts

	var views, likes int64
	for _, p := range posts {
		views += p.Views
		likes += p.Likes
	}
	// avg likes / avg views, the counts cancel out
	sample.EngagementRate = math.Round(influence.EngagementRate(float64(likes), float64(views))*100) / 100

	return sample.Normalize(), nil
}

func (c Client) recentVideos(ctx context.Context, playlistId string) ([]influence.Post, error) {
	items, err := c.svc.PlaylistItems.
		List([]string{"contentDetails"}).
		PlaylistId(playlistId).
		MaxResults(recentVideos).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	ids := make([]string, 0, len(items.Items))
	for _, item := range items.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			ids = append(ids, item.ContentDetails.VideoId)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videos, err := c.svc.Videos.
		List([]string{"statistics", "snippet"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}

	posts := make([]influence.Post, 0, len(videos.Items))
	for _, v := range videos.Items {
		post := influence.Post{URL: "https://www.youtube.com/watch?v=" + v.Id}
		if v.Snippet != nil {
			post.Title = v.Snippet.Title
			published, err := time.Parse(time.RFC3339, v.Snippet.PublishedAt)
			if err == nil {
				post.Published = published
			}
		}
		if v.Statistics != nil {
			post.Views = int64(v.Statistics.ViewCount)
			post.Likes = int64(v.Statistics.LikeCount)
			post.Comments = int64(v.Statistics.CommentCount)
		}
		posts = append(posts, post)
	}
	return posts, nil
}
