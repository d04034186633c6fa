package youtube

import (
	"context"
	"testing"
	"time"

	devenv "influence-backend/dev/env"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/influence"
	"influence-backend/lib/platforms"

	"github.com/stretchr/testify/require"
)

func TestLiveFetch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live test in short mode")
	}
	config, err := devenv.GetStateConfig[devenv.YouTubeTestConfig]("youtube.json5")
	if err != nil || config.ApiKey == "" {
		t.Skip("skipping test because no valid test config was found at dev/.state/youtube.json5")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewClient(ctx, Options{ApiKey: config.ApiKey}, telemetry.SlogAPI{})
	require.NoError(t, err)

	channelId := config.ChannelId
	if channelId == "" {
		channelId = "UCBJycsmduvYEL83R_U4JriQ"
	}
	sample, err := client.Fetch(ctx, platforms.Target{Creator: "live", Handle: channelId})
	require.NoError(t, err)
	require.Equal(t, influence.StatusSuccess, sample.Status)
	require.Positive(t, sample.Followers)
}
