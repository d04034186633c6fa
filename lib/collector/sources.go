package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"influence-backend/internal/components/telemetry"
	"influence-backend/lib/platforms"
	"influence-backend/lib/platforms/bilibili"
	"influence-backend/lib/platforms/podcast"
	"influence-backend/lib/platforms/social"
	"influence-backend/lib/platforms/youtube"
	"influence-backend/lib/restyutil"
	"influence-backend/lib/roster"
)

// DefaultSources builds a fetcher for every platform that has one. YouTube is
// skipped with a warning when no api key is configured, its creators then fall
// back to estimates. dump may be nil.
func DefaultSources(ctx context.Context, config roster.Config, dump restyutil.InstrumentOutput, tel telemetry.API) ([]platforms.Source, error) {
	settings := config.Collector()

	sources := []platforms.Source{
		bilibili.NewClient(bilibili.Options{
			BaseURL: config.Bilibili().BaseURL,
			Timeout: settings.Timeout(),
			Retries: settings.Retries,
			Dump:    dump,
		}, tel),
		podcast.NewClient(podcast.Options{
			Timeout: settings.Timeout(),
			Retries: settings.Retries,
			Dump:    dump,
		}, tel),
	}

	yt, err := youtube.NewClient(ctx, youtube.Options{
		ApiKey:   config.YouTube().ApiKey,
		Endpoint: config.YouTube().Endpoint,
	}, tel)
	switch {
	case errors.Is(err, youtube.ErrNoApiKey):
		slog.WarnContext(ctx, "youtube api key not configured, youtube will be estimated")
	case err != nil:
		return nil, err
	default:
		sources = append(sources, yt)
	}

	for _, platform := range slices.Sorted(maps.Keys(social.ProfileURLs)) {
		client, err := social.NewClient(platform, social.Options{
			Timeout: settings.Timeout(),
			Retries: settings.Retries,
			Dump:    dump,
		}, tel)
		if err != nil {
			return nil, fmt.Errorf("social fetcher %s: %w", platform, err)
		}
		sources = append(sources, client)
	}

	return sources, nil
}
