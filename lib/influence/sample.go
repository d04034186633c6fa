package influence

import "time"

// Post is a single recent post, video or episode attached to a sample for reporting.
type Post struct {
	Title     string    `json:"title"`
	URL       string    `json:"url,omitempty"`
	Views     int64     `json:"views"`
	Likes     int64     `json:"likes"`
	Comments  int64     `json:"comments"`
	Published time.Time `json:"published,omitempty"`
}

// PlatformSample is one measurement of a creator on one platform, produced fresh every run.
//
// Views are not normalized across platforms, some platforms report cumulative views while
// others report views over the most recent posts.
type PlatformSample struct {
	Platform       string         `json:"platform"`
	Status         Status         `json:"status"`
	Followers      int64          `json:"followers"`
	Views          int64          `json:"views"`
	Likes          int64          `json:"likes,omitempty"`
	Posts          int64          `json:"posts_count,omitempty"`
	EngagementRate float64        `json:"engagement_rate"`
	Note           string         `json:"note,omitempty"`
	Error          string         `json:"error_message,omitempty"`
	RecentPosts    []Post         `json:"recent_posts,omitempty"`
	Raw            map[string]any `json:"raw_data,omitempty"`
}

// Normalize clamps negative counts and zeroes out the measurements of error samples
// so that a failed fetch can never leak numbers into a score.
func (p PlatformSample) Normalize() PlatformSample {
	if p.Followers < 0 {
		p.Followers = 0
	}
	if p.Views < 0 {
		p.Views = 0
	}
	if p.Likes < 0 {
		p.Likes = 0
	}
	if p.Posts < 0 {
		p.Posts = 0
	}
	if p.EngagementRate < 0 || p.Followers == 0 {
		p.EngagementRate = 0
	}
	if p.Status == StatusError {
		p.Followers = 0
		p.Views = 0
		p.Likes = 0
		p.EngagementRate = 0
	}
	return p
}

// ErrorSample builds an error sample for a platform.
func ErrorSample(platform string, err error) PlatformSample {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return PlatformSample{
		Platform: platform,
		Status:   StatusError,
		Error:    msg,
	}
}

// EngagementRate returns interactions / base * 100, or 0 when base is not positive.
func EngagementRate(interactions, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return interactions / base * 100
}
