package collector

import (
	"context"
	"testing"

	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/roster"

	"github.com/stretchr/testify/require"
)

func sourcePlatforms(t *testing.T, file roster.File) []string {
	config, err := roster.New(file)
	require.NoError(t, err)
	sources, err := DefaultSources(context.Background(), config, nil, telemetry.NewMemoryAPI())
	require.NoError(t, err)

	var out []string
	for _, s := range sources {
		out = append(out, s.Platform())
	}
	return out
}

func TestDefaultSources(t *testing.T) {
	without := sourcePlatforms(t, roster.File{Region: "US"})
	require.ElementsMatch(t, []string{"bilibili", "podcast", "douyin", "instagram", "tiktok", "twitter", "weibo"}, without)

	with := sourcePlatforms(t, roster.File{Region: "US", YouTube: roster.YouTubeConfig{ApiKey: "key"}})
	require.Contains(t, with, "youtube")
	require.Len(t, with, len(without)+1)
}
