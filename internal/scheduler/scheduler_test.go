package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"participa/internal/config"
)

type countingCloser struct {
	mu    sync.Mutex
	calls []time.Time
	err   error
}

func (c *countingCloser) CloseExpired(_ context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, now)
	return 1, c.err
}

func (c *countingCloser) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func TestSchedulerRunsImmediatelyAndOnInterval(t *testing.T) {
	closer := &countingCloser{}
	s := NewScheduler(closer, &config.SchedulerConfig{
		EnableProcessClosing: true,
		ProcessCloseInterval: 10 * time.Millisecond,
	})

	s.Start()
	require.Eventually(t, func() bool { return closer.count() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := closer.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, closer.count(), "no runs after Stop")
}

func TestSchedulerDisabled(t *testing.T) {
	closer := &countingCloser{}
	s := NewScheduler(closer, &config.SchedulerConfig{
		EnableProcessClosing: false,
		ProcessCloseInterval: time.Millisecond,
	})

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Zero(t, closer.count())
}

func TestSchedulerStopIsIdempotent(t *testing.T) {
	s := NewScheduler(&countingCloser{}, &config.SchedulerConfig{
		EnableProcessClosing: true,
		ProcessCloseInterval: time.Hour,
	})
	s.Start()
	s.Stop()
	assert.NotPanics(t, s.Stop)
}

func TestCloseExpiredUsesClockAndSurvivesErrors(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	closer := &countingCloser{err: errors.New("store unavailable")}
	s := NewScheduler(closer, &config.SchedulerConfig{})
	s.now = func() time.Time { return fixed }

	s.closeExpiredProcesses()
	s.closeExpiredProcesses()

	require.Len(t, closer.calls, 2)
	assert.Equal(t, fixed, closer.calls[0])
}
