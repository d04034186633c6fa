package main

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSingleFlightSkipsOverlappingRuns(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	job := newSingleFlight(func() {
		if runs.Add(1) == 1 {
			close(started)
			<-release
		}
	})

	done := make(chan struct{})
	go func() {
		job()
		close(done)
	}()
	<-started

	// the cron firing while the initial run is in progress
	job()
	require.Equal(t, int32(1), runs.Load())

	close(release)
	<-done

	job()
	require.Equal(t, int32(2), runs.Load())
}
