package bilibili

import (
	"context"
	"testing"
	"time"

	devenv "influence-backend/dev/env"
	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/platforms"

	"github.com/stretchr/testify/require"
)

func TestLiveFetch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live test in short mode")
	}
	config, err := devenv.GetStateConfig[devenv.BilibiliTestConfig]("bilibili.json5")
	if err != nil || config.Uid == "" {
		t.Skip("skipping test because no valid test config was found at dev/.state/bilibili.json5")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := NewClient(Options{Timeout: 20 * time.Second}, telemetry.SlogAPI{})
	sample, err := client.Fetch(ctx, platforms.Target{Creator: "live", Handle: config.Uid})
	require.NoError(t, err)
	require.Positive(t, sample.Followers)
}
