package watch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startCoordinator(t *testing.T, events chan Event, build func(context.Context) error) *Coordinator {
	t.Helper()
	c := &Coordinator{
		Debounce: 20 * time.Millisecond,
		Sleep:    10 * time.Millisecond,
		Build:    build,
		Events:   events,
	}
	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return c
}

func TestCoordinatorCoalescesBurstIntoOneBuild(t *testing.T) {
	events := make(chan Event, 16)
	var builds atomic.Int32
	c := startCoordinator(t, events, func(context.Context) error {
		builds.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		events <- Event{Path: "a.md", Op: "WRITE"}
	}

	require.Eventually(t, func() bool {
		return builds.Load() == 1 && c.State() == StateIdle
	}, time.Second, 5*time.Millisecond)

	// No further events, no further builds.
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), builds.Load())
}

func TestCoordinatorEventsResetQuietPeriod(t *testing.T) {
	events := make(chan Event, 16)
	var builds atomic.Int32
	startCoordinator(t, events, func(context.Context) error {
		builds.Add(1)
		return nil
	})

	// Keep feeding events faster than the quiet period for a while.
	for i := 0; i < 4; i++ {
		events <- Event{Path: "a.md", Op: "WRITE"}
		time.Sleep(10 * time.Millisecond)
		require.Equal(t, int32(0), builds.Load())
	}

	require.Eventually(t, func() bool {
		return builds.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinatorChangesDuringBuildTriggerFollowUp(t *testing.T) {
	events := make(chan Event, 16)
	var builds atomic.Int32
	release := make(chan struct{})
	startCoordinator(t, events, func(context.Context) error {
		if builds.Add(1) == 1 {
			<-release
		}
		return nil
	})

	events <- Event{Path: "a.md", Op: "WRITE"}
	require.Eventually(t, func() bool {
		return builds.Load() == 1
	}, time.Second, 5*time.Millisecond)

	// Arrives while the first build is blocked.
	events <- Event{Path: "b.md", Op: "WRITE"}
	close(release)

	require.Eventually(t, func() bool {
		return builds.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinatorFailedBuildWaitsForNewChanges(t *testing.T) {
	events := make(chan Event, 16)
	var builds atomic.Int32
	c := startCoordinator(t, events, func(context.Context) error {
		builds.Add(1)
		return context.DeadlineExceeded
	})

	events <- Event{Path: "a.md", Op: "WRITE"}
	require.Eventually(t, func() bool {
		return builds.Load() == 1 && c.State() == StateIdle
	}, time.Second, 5*time.Millisecond)

	// No retry without a new change.
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(1), builds.Load())

	events <- Event{Path: "a.md", Op: "WRITE"}
	require.Eventually(t, func() bool {
		return builds.Load() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestCoordinatorKickTriggersBuild(t *testing.T) {
	events := make(chan Event, 16)
	var builds atomic.Int32
	c := startCoordinator(t, events, func(context.Context) error {
		builds.Add(1)
		return nil
	})

	c.Kick("scheduled full rebuild")
	require.Eventually(t, func() bool {
		return builds.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "debouncing", StateDebouncing.String())
	require.Equal(t, "building", StateBuilding.String())
	require.Equal(t, "sleeping", StateSleeping.String())
}
