package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"participa/internal/config"
)

// ProcessCloser closes processes whose end date has passed
type ProcessCloser interface {
	CloseExpired(ctx context.Context, now time.Time) (int, error)
}

// Scheduler handles periodic tasks
type Scheduler struct {
	processes ProcessCloser
	config    *config.SchedulerConfig
	now       func() time.Time
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(processes ProcessCloser, cfg *config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		processes: processes,
		config:    cfg,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the enabled tasks in the background
func (s *Scheduler) Start() {
	slog.Info("Starting scheduler",
		"process_closing_enabled", s.config.EnableProcessClosing,
		"process_close_interval", s.config.ProcessCloseInterval)

	if s.config.EnableProcessClosing && s.config.ProcessCloseInterval > 0 {
		s.wg.Add(1)
		go s.scheduleIntervalTask(s.config.ProcessCloseInterval, "close_expired_processes", s.closeExpiredProcesses)
	}

	slog.Info("Scheduler started")
}

// Stop stops the scheduler and waits for a running task to finish
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		slog.Info("Stopping scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

// scheduleIntervalTask runs a task at regular intervals
func (s *Scheduler) scheduleIntervalTask(interval time.Duration, taskName string, task func()) {
	defer s.wg.Done()
	slog.Info("Starting interval task", "task", taskName, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	task()

	for {
		select {
		case <-ticker.C:
			task()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Scheduler) closeExpiredProcesses() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.processes.CloseExpired(ctx, s.now())
	if err != nil {
		slog.Error("Failed to close expired processes", "error", err)
		return
	}
	if n > 0 {
		slog.Info("Closed expired processes", "count", n)
	}
}
