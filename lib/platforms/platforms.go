// Package platforms defines what the collector needs from a platform fetcher.
//
// A fetcher turns a Target (who to fetch and how to reach them) into a
// PlatformSample. Fetchers only report what they actually measured, falling
// back to estimates is the collector's job.
package platforms

import (
	"context"
	"errors"

	"influence-backend/lib/estimate"
	"influence-backend/lib/influence"
)

var (
	// ErrNoHandle is returned when a creator has no account configured for a platform
	// that needs one.
	ErrNoHandle = errors.New("no handle configured")
	// ErrFollowersNotFound is returned when a page was fetched but held no follower count.
	ErrFollowersNotFound = errors.New("follower count not found")
)

type Target struct {
	Creator string
	Handle  string
	// Hint carries the estimate record for the creator on this platform, some
	// fetchers use it to fill values the platform never publishes.
	Hint estimate.Record
}

type Source interface {
	Platform() string
	Fetch(ctx context.Context, target Target) (influence.PlatformSample, error)
}
