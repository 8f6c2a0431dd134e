package api_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warp/reminder-engine/api"
)

func TestSyncScheduler_RunsOnStart(t *testing.T) {
	syncer := &stubSyncer{}
	runner := api.NewRunner(syncer)
	s := api.NewSyncScheduler(runner, time.Hour, nil)

	s.Start()
	assert.Eventually(t, func() bool { return runner.Last() != nil }, time.Second, 10*time.Millisecond)
	s.Stop()

	assert.Equal(t, "run-1", runner.Last().Summary.RunID)
}

func TestSyncScheduler_DisabledWithZeroInterval(t *testing.T) {
	syncer := &stubSyncer{}
	s := api.NewSyncScheduler(api.NewRunner(syncer), 0, nil)
	assert.False(t, s.Enabled)

	s.Start()
	s.Stop()
	assert.Zero(t, syncer.calls)
}

func TestSyncScheduler_SkipsWhileRunInProgress(t *testing.T) {
	syncer := &stubSyncer{started: make(chan struct{}), release: make(chan struct{})}
	runner := api.NewRunner(syncer)

	go runner.Run(context.Background())
	<-syncer.started

	api.NewSyncScheduler(runner, time.Hour, nil).RunNow(context.Background())
	close(syncer.release)

	assert.Eventually(t, func() bool { return runner.Last() != nil }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, syncer.calls)
}

func TestSyncScheduler_NextRunTimeFollowsLastTick(t *testing.T) {
	s := api.NewSyncScheduler(api.NewRunner(&stubSyncer{}), time.Hour, nil)
	assert.True(t, s.NextRunTime().IsZero(), "not started")

	before := time.Now()
	s.Start()
	after := time.Now()

	first := s.NextRunTime()
	assert.False(t, first.Before(before.Add(time.Hour)))
	assert.False(t, first.After(after.Add(time.Hour)))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, first, s.NextRunTime(), "stable between ticks")

	s.Stop()
	assert.True(t, s.NextRunTime().IsZero(), "stopped")
}
