// Package scheduler runs background maintenance jobs (notification redelivery,
// funnel session sweeping) on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// TaskFunc is one run of a scheduled job.
type TaskFunc func(ctx context.Context) error

// Scheduler は robfig/cron をラップし、タスクごとのタイムアウトとログを付与する。
type Scheduler struct {
	cron        *cron.Cron
	logger      *log.Logger
	taskTimeout time.Duration

	mu      sync.Mutex
	tasks   map[string]cron.EntryID
	running bool
}

// New creates a scheduler. Schedules use the standard five-field cron format or
// descriptors such as "@every 5m".
func New(logger *log.Logger, location *time.Location, taskTimeout time.Duration) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	if taskTimeout <= 0 {
		taskTimeout = time.Minute
	}
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(location), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:      logger,
		taskTimeout: taskTimeout,
		tasks:       make(map[string]cron.EntryID),
	}
}

// Add registers task under name, replacing an existing task with the same name.
func (s *Scheduler) Add(name, schedule string, task TaskFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.tasks[name]; ok {
		s.cron.Remove(entryID)
		delete(s.tasks, name)
	}

	entryID, err := s.cron.AddFunc(schedule, func() {
		s.run(name, task)
	})
	if err != nil {
		return fmt.Errorf("スケジュール %q (%s) の登録に失敗: %w", name, schedule, err)
	}
	s.tasks[name] = entryID
	s.logf("ジョブを登録しました: %s (%s)", name, schedule)
	return nil
}

// Start begins running registered tasks.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.cron.Start()
	s.running = true
}

// Stop waits for running tasks to finish or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		s.logf("スケジューラ停止がタイムアウトしました")
	}
	s.running = false
}

// Len reports the number of registered tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) run(name string, task TaskFunc) {
	defer func() {
		if r := recover(); r != nil {
			s.logf("ジョブ %s が panic しました: %v", name, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), s.taskTimeout)
	defer cancel()

	if err := task(ctx); err != nil {
		s.logf("ジョブ %s が失敗しました: %v", name, err)
	}
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
