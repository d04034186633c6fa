package podcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/estimate"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"

	"github.com/stretchr/testify/require"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
<channel>
	<title>The Joe Rogan Experience</title>
	<language>en</language>
	<itunes:author>Joe Rogan</itunes:author>
	<item>
		<title>#2100 - Guest One</title>
		<pubDate>Tue, 05 Mar 2024 18:00:00 +0000</pubDate>
		<itunes:duration>10800</itunes:duration>
		<enclosure url="https://example.com/2100.mp3" type="audio/mpeg"/>
	</item>
	<item>
		<title>#2099 - Guest Two</title>
		<link>https://example.com/2099</link>
		<pubDate>Mon, 04 Mar 2024 18:00:00 +0000</pubDate>
	</item>
</channel>
</rss>`

func serve(body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
}

func TestFetch(t *testing.T) {
	server := serve(feed)
	defer server.Close()

	client := NewClient(Options{}, telemetry.NewMemoryAPI())
	sample, err := client.Fetch(context.Background(), platforms.Target{
		Creator: "joerogan",
		Handle:  server.URL,
		Hint:    estimate.Record{Followers: 11_000_000},
	})
	require.NoError(t, err)

	require.Equal(t, influence.StatusEstimated, sample.Status)
	require.Equal(t, int64(11_000_000), sample.Followers)
	require.Equal(t, int64(2), sample.Posts)
	require.Equal(t, int64(17_600_000), sample.Views)
	require.Equal(t, "The Joe Rogan Experience", sample.Raw["podcast_name"])
	require.Equal(t, "Joe Rogan", sample.Raw["author"])

	require.Len(t, sample.RecentPosts, 2)
	require.Equal(t, "https://example.com/2100.mp3", sample.RecentPosts[0].URL)
	require.Equal(t, "https://example.com/2099", sample.RecentPosts[1].URL)
	require.True(t, sample.RecentPosts[0].Published.Equal(time.Date(2024, 3, 5, 18, 0, 0, 0, time.UTC)))
}

func TestFetchEmptyFeed(t *testing.T) {
	server := serve(`<rss><channel><title>empty</title></channel></rss>`)
	defer server.Close()

	tel := telemetry.NewMemoryAPI()
	client := NewClient(Options{}, tel)
	_, err := client.Fetch(context.Background(), platforms.Target{Handle: server.URL})
	require.ErrorIs(t, err, ErrNoItems)
	require.Len(t, tel.Filter(telemetry.LevelBroken), 1)
}

func TestFetchWithoutListenerEstimate(t *testing.T) {
	server := serve(feed)
	defer server.Close()

	tel := telemetry.NewMemoryAPI()
	client := NewClient(Options{}, tel)
	sample, err := client.Fetch(context.Background(), platforms.Target{
		Creator: "unknown",
		Handle:  server.URL,
	})
	require.ErrorIs(t, err, ErrNoListenerEstimate)
	require.NotEqual(t, influence.StatusEstimated, sample.Status)
	require.Len(t, tel.Filter(telemetry.LevelWarning), 1)
	require.Empty(t, tel.Filter(telemetry.LevelBroken))
}
