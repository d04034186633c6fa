package podcast

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"influence-backend/internal/assert"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"
	"influence-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const Platform = "podcast"

const (
	recentEpisodes = 10
	// share of listeners assumed to download each episode
	downloadRatio = 0.8
)

const report_feed = "podcast.feed"

var tracer = otel.Tracer("influence.platforms.podcast")

var (
	ErrNoItems            = errors.New("feed has no episodes")
	ErrNoListenerEstimate = errors.New("no listener estimate for podcast")
)

type rss struct {
	Channel struct {
		Title       string `xml:"title"`
		Description string `xml:"description"`
		Language    string `xml:"language"`
		Author      string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd author"`
		Items       []item `xml:"item"`
	} `xml:"channel"`
}

type item struct {
	Title     string `xml:"title"`
	Link      string `xml:"link"`
	PubDate   string `xml:"pubDate"`
	Duration  string `xml:"http://www.itunes.com/dtds/podcast-1.0.dtd duration"`
	Enclosure struct {
		URL string `xml:"url,attr"`
	} `xml:"enclosure"`
}

type Options struct {
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

	http := restyutil.NewClient(restyutil.ClientOptions{
		Timeout: opts.Timeout,
		Retries: opts.Retries,
	})
	restyutil.InstrumentClient(http, tracer, opts.Dump)

	scoped := telemetry.NewScopedAPI("platforms", tel)
	telemetry.InstrumentResty(http, scoped)
	return Client{http: http, tel: scoped}
}

func (Client) Platform() string {
	return Platform
}

var pubDateLayouts = []string{time.RFC1123Z, time.RFC1123, "Mon, 2 Jan 2006 15:04:05 -0700", "Mon, 2 Jan 2006 15:04:05 MST"}

func parsePubDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range pubDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

// Fetch reads the RSS feed at target.Handle. Feeds carry no subscriber count,
// so followers come from the listener estimate in target.Hint and the sample
// is always marked as estimated. Without an estimate there is nothing to
// score and ErrNoListenerEstimate is returned.
func (c Client) Fetch(ctx context.Context, target platforms.Target) (influence.PlatformSample, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	feedUrl := strings.TrimSpace(target.Handle)
	if feedUrl == "" {
		return influence.PlatformSample{}, platforms.ErrNoHandle
	}

	feed, err := c.feed(ctx, feedUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read feed")
		c.tel.ReportBroken(report_feed, err, feedUrl)
		return influence.PlatformSample{}, fmt.Errorf("podcast feed %s: %w", feedUrl, err)
	}

	episodes := int64(len(feed.Channel.Items))
	listeners := target.Hint.Followers
	if listeners <= 0 {
		err = fmt.Errorf("podcast feed %s: %w", feedUrl, ErrNoListenerEstimate)
		span.RecordError(err)
		c.tel.ReportWarning(report_feed, err, target.Creator)
		return influence.PlatformSample{}, err
	}

	sample := influence.PlatformSample{
		Platform:  Platform,
		Status:    influence.StatusEstimated,
		Followers: listeners,
		Views:     int64(float64(listeners) * float64(episodes) * downloadRatio),
		Posts:     episodes,
		Note:      "episode list from rss, listener count estimated",
		Raw: map[string]any{
			"podcast_name": strings.TrimSpace(feed.Channel.Title),
			"language":     feed.Channel.Language,
			"author":       feed.Channel.Author,
		},
	}
	for i, it := range feed.Channel.Items {
		if i >= recentEpisodes {
			break
		}
		url := it.Link
		if url == "" {
			url = it.Enclosure.URL
		}
		sample.RecentPosts = append(sample.RecentPosts, influence.Post{
			Title:     strings.TrimSpace(it.Title),
			URL:       url,
			Published: parsePubDate(it.PubDate),
		})
	}
	return sample.Normalize(), nil
}

func (c Client) feed(ctx context.Context, feedUrl string) (rss, error) {
	var out rss
	res, err := c.http.R().SetContext(ctx).Get(feedUrl)
	if err != nil {
		return out, err
	}
	if res.IsError() {
		return out, fmt.Errorf("unexpected status %s", res.Status())
	}
	err = xml.Unmarshal(res.Body(), &out)
	if err != nil {
		return out, fmt.Errorf("decode rss: %w", err)
	}
	if len(out.Channel.Items) == 0 {
		return out, ErrNoItems
	}
	return out, nil
}
