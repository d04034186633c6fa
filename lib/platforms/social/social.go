// Package social reads follower counts from public profile pages of platforms
// that have no usable public api.
package social

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"influence-backend/internal/assert"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/htmlutil"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"
	"influence-backend/lib/restyutil"
	"influence-backend/lib/textutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("influence.platforms.social")

const report_profile = "social.profile"

// ProfileURLs are the profile page templates of the supported platforms, %s is
// replaced by the handle.
var ProfileURLs = map[string]string{
	"tiktok":    "https://www.tiktok.com/@%s",
	"instagram": "https://www.instagram.com/%s/",
	"twitter":   "https://x.com/%s",
	"weibo":     "https://m.weibo.cn/u/%s",
	"douyin":    "https://www.douyin.com/user/%s",
}

// embedded state json most profile pages ship for hydration
var followerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"followerCount"\s*:\s*(\d+)`),
	regexp.MustCompile(`"followers_count"\s*:\s*(\d+)`),
	regexp.MustCompile(`"edge_followed_by"\s*:\s*\{\s*"count"\s*:\s*(\d+)`),
	regexp.MustCompile(`"follower_count"\s*:\s*(\d+)`),
	regexp.MustCompile(`"fans"\s*:\s*(\d+)`),
}

var postPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"videoCount"\s*:\s*(\d+)`),
	regexp.MustCompile(`"statuses_count"\s*:\s*(\d+)`),
	regexp.MustCompile(`"media_count"\s*:\s*(\d+)`),
	regexp.MustCompile(`"aweme_count"\s*:\s*(\d+)`),
}

var likePatterns = []*regexp.Regexp{
	regexp.MustCompile(`"heartCount"\s*:\s*(\d+)`),
	regexp.MustCompile(`"total_favorited"\s*:\s*(\d+)`),
}

// "1.2M Followers", "35.6万 粉丝", "粉丝 35.6万"
var textFollowers = []*regexp.Regexp{
	regexp.MustCompile(`(?i)([\d.,]+\s*[kmb万亿]?)\s*(?:followers|subscribers|fans|粉丝)`),
	regexp.MustCompile(`(?i)(?:followers|粉丝)[:：\s]*([\d.,]+\s*[kmb万亿]?)`),
}

type Options struct {
	// URLTemplate overrides the profile url template of the platform.
	URLTemplate string
	Timeout     time.Duration
	Retries     int
	// Dump receives every http exchange when set.
	Dump restyutil.InstrumentOutput
}

type Client struct {
	platform string
	template string
	http     *resty.Client
	tel      telemetry.API
}

func NewClient(platform string, opts Options, tel telemetry.API) (Client, error) {
	assert.NotNil(tel)

	template := opts.URLTemplate
	if template == "" {
		template = ProfileURLs[platform]
	}
	if template == "" {
		return Client{}, fmt.Errorf("no profile url for platform %q", platform)
	}

	http := restyutil.NewClient(restyutil.ClientOptions{
		Timeout: opts.Timeout,
		Retries: opts.Retries,
	})
	http.SetHeader("Accept", "text/html,application/xhtml+xml")
	http.SetHeader("Accept-Language", "en-US,en;q=0.9,zh-CN;q=0.8")
	http.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(http.GetClient().Transport)
	restyutil.InstrumentClient(http, tracer, opts.Dump)

	scoped := telemetry.NewScopedAPI("platforms", tel)
	telemetry.InstrumentResty(http, scoped)

	return Client{
		platform: platform,
		template: template,
		http:     http,
		tel:      scoped,
	}, nil
}

func (c Client) Platform() string {
	return c.platform
}

func (c Client) profileURL(handle string) string {
	if strings.HasPrefix(handle, "http://") || strings.HasPrefix(handle, "https://") {
		return handle
	}
	return fmt.Sprintf(c.template, strings.TrimPrefix(handle, "@"))
}

// firstMatch returns the first match of any pattern that parses, in pattern
// order and then in page order.
func firstMatch(body []byte, patterns []*regexp.Regexp) (int64, bool) {
	for _, p := range patterns {
		for _, m := range p.FindAllSubmatch(body, -1) {
			v, err := strconv.ParseInt(string(m[1]), 10, 64)
			if err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

func textMatch(text string) (int64, bool) {
	for _, p := range textFollowers {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			v, err := textutil.ParseCount(m[1])
			if err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// ExtractFollowers looks for a follower count in the embedded page state first,
// then in the description meta tags, then in the visible text.
func ExtractFollowers(body []byte) (followers int64, source string, err error) {
	if v, ok := firstMatch(body, followerPatterns); ok {
		return v, "state", nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("parse html: %w", err)
	}
	if desc, ok := htmlutil.MetaContent(doc, "og:description", "description", "twitter:description"); ok {
		if v, ok := textMatch(desc); ok {
			return v, "meta", nil
		}
	}
	if v, ok := textMatch(htmlutil.SelectionText(doc.Find("body"))); ok {
		return v, "text", nil
	}
	return 0, "", platforms.ErrFollowersNotFound
}

func (c Client) Fetch(ctx context.Context, target platforms.Target) (influence.PlatformSample, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	handle := strings.TrimSpace(target.Handle)
	if handle == "" {
		return influence.PlatformSample{}, platforms.ErrNoHandle
	}
	url := c.profileURL(handle)
	span.SetAttributes(
		attribute.String("platform", c.platform),
		attribute.String("url", url),
	)

	res, err := c.http.R().SetContext(ctx).Get(url)
	if err == nil && res.IsError() {
		err = fmt.Errorf("unexpected status %s", res.Status())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch profile page")
		c.tel.ReportBroken(report_profile, err, c.platform, target.Creator)
		return influence.PlatformSample{}, fmt.Errorf("%s profile %s: %w", c.platform, handle, err)
	}

	body := res.Body()
	followers, source, err := ExtractFollowers(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no follower count on profile page")
		c.tel.ReportWarning(report_profile, err, c.platform, target.Creator)
		return influence.PlatformSample{}, fmt.Errorf("%s profile %s: %w", c.platform, handle, err)
	}

	sample := influence.PlatformSample{
		Platform:  c.platform,
		Status:    influence.StatusSuccess,
		Followers: followers,
		Note:      fmt.Sprintf("followers read from profile page (%s)", source),
		Raw: map[string]any{
			"url":    url,
			"source": source,
		},
	}
	if posts, ok := firstMatch(body, postPatterns); ok {
		sample.Posts = posts
	}
	if likes, ok := firstMatch(body, likePatterns); ok {
		sample.Likes = likes
		// average likes per post over followers
		if sample.Posts > 0 {
			rate := influence.EngagementRate(float64(likes)/float64(sample.Posts), float64(followers))
			sample.EngagementRate = math.Round(rate*100) / 100
		}
	}
	return sample.Normalize(), nil
}
