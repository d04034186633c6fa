package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"

	"github.com/stretchr/testify/require"
)

const channelResponse = `{
	"items": [{
		"id": "UCBJycsmduvYEL83R_U4JriQ",
		"snippet": {"title": "Marques Brownlee", "publishedAt": "2008-03-21T15:25:54Z", "country": "US"},
		"statistics": {"subscriberCount": "19600000", "viewCount": "4500000000", "videoCount": "1700"},
		"contentDetails": {"relatedPlaylists": {"uploads": "UUBJycsmduvYEL83R_U4JriQ"}}
	}]
}`

const playlistResponse = `{
	"items": [
		{"contentDetails": {"videoId": "v1"}},
		{"contentDetails": {"videoId": "v2"}}
	]
}`

const videosResponse = `{
	"items": [
		{"id": "v1", "snippet": {"title": "one", "publishedAt": "2024-01-01T00:00:00Z"}, "statistics": {"viewCount": "3000000", "likeCount": "120000", "commentCount": "9000"}},
		{"id": "v2", "snippet": {"title": "two", "publishedAt": "2024-01-08T00:00:00Z"}, "statistics": {"viewCount": "1000000", "likeCount": "40000", "commentCount": "3000"}}
	]
}`

func newServer(t *testing.T, channels string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/youtube/v3/channels":
			w.Write([]byte(channels))
		case "/youtube/v3/playlistItems":
			w.Write([]byte(playlistResponse))
		case "/youtube/v3/videos":
			w.Write([]byte(videosResponse))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newClient(t *testing.T, server *httptest.Server, tel telemetry.API) Client {
	client, err := NewClient(context.Background(), Options{
		ApiKey:   "test-key",
		Endpoint: server.URL + "/",
	}, tel)
	require.NoError(t, err)
	return client
}

func TestFetch(t *testing.T) {
	server := newServer(t, channelResponse)
	defer server.Close()

	client := newClient(t, server, telemetry.NewMemoryAPI())
	sample, err := client.Fetch(context.Background(), platforms.Target{Handle: "UCBJycsmduvYEL83R_U4JriQ"})
	require.NoError(t, err)

	require.Equal(t, influence.StatusSuccess, sample.Status)
	require.Equal(t, int64(19_600_000), sample.Followers)
	require.Equal(t, int64(4_500_000_000), sample.Views)
	require.Equal(t, int64(1700), sample.Posts)
	require.Equal(t, 4.0, sample.EngagementRate)
	require.Len(t, sample.RecentPosts, 2)
	require.Equal(t, "Marques Brownlee", sample.Raw["channel_title"])
}

func TestFetchChannelNotFound(t *testing.T) {
	server := newServer(t, `{"items": []}`)
	defer server.Close()

	tel := telemetry.NewMemoryAPI()
	client := newClient(t, server, tel)
	_, err := client.Fetch(context.Background(), platforms.Target{Handle: "UCmissing"})
	require.ErrorIs(t, err, ErrChannelNotFound)
	require.Len(t, tel.Filter(telemetry.LevelBroken), 1)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), Options{}, telemetry.NewMemoryAPI())
	require.ErrorIs(t, err, ErrNoApiKey)
}
