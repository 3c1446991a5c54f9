// Package scheduler is a single-threaded polling loop over tagged jobs. Each
// tick runs every job whose next fire time has passed, one after another.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"content-engine/pkg/logger"
)

type JobFunc func(ctx context.Context, now time.Time) error

// ResyncFunc rebuilds the job table after it has been cleared.
type ResyncFunc func(s *Scheduler) error

type job struct {
	tag  string
	rule Rule
	fn   JobFunc
	next time.Time
}

type Scheduler struct {
	mu       sync.Mutex
	jobs     []*job
	tick     time.Duration
	resync   ResyncFunc
	syncedOn string
	logger   *logger.Logger
	now      func() time.Time
}

func New(tick time.Duration, log *logger.Logger) *Scheduler {
	if tick <= 0 {
		tick = time.Minute
	}
	return &Scheduler{
		tick:   tick,
		logger: log,
		now:    time.Now,
	}
}

// OnResync sets the hook that rebuilds the job table once per day.
func (s *Scheduler) OnResync(fn ResyncFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resync = fn
}

// Register adds a job. Several jobs may share a tag.
func (s *Scheduler) Register(tag string, rule Rule, fn JobFunc) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &job{tag: tag, rule: rule, fn: fn, next: rule.Next(s.now())}
	s.jobs = append(s.jobs, j)
	return j.next
}

// Clear removes every job with the tag and reports how many were removed.
func (s *Scheduler) Clear(tag string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.jobs[:0]
	removed := 0
	for _, j := range s.jobs {
		if j.tag == tag {
			removed++
			continue
		}
		kept = append(kept, j)
	}
	for i := len(kept); i < len(s.jobs); i++ {
		s.jobs[i] = nil
	}
	s.jobs = kept
	return removed
}

func (s *Scheduler) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = nil
}

func (s *Scheduler) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, j := range s.jobs {
		if !seen[j.tag] {
			seen[j.tag] = true
			out = append(out, j.tag)
		}
	}
	return out
}

// NextRun returns the earliest fire time among jobs with the tag.
func (s *Scheduler) NextRun(tag string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var next time.Time
	for _, j := range s.jobs {
		if j.tag == tag && (next.IsZero() || j.next.Before(next)) {
			next = j.next
		}
	}
	return next, !next.IsZero()
}

// Sync clears the job table and rebuilds it with the resync hook.
func (s *Scheduler) Sync() error {
	return s.sync(s.now())
}

func (s *Scheduler) sync(now time.Time) error {
	s.mu.Lock()
	fn := s.resync
	s.syncedOn = now.UTC().Format("2006-01-02")
	s.mu.Unlock()

	if fn == nil {
		return nil
	}
	s.ClearAll()
	if err := fn(s); err != nil {
		return fmt.Errorf("failed to resync jobs: %w", err)
	}
	return nil
}

// RunPending runs every job due at now and returns how many ran. A job that
// fails or panics is logged and rescheduled like any other. The daily resync
// happens after the due jobs have run, so a job due at the day boundary still
// fires before the table is rebuilt.
func (s *Scheduler) RunPending(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	var due []*job
	for _, j := range s.jobs {
		if !j.next.After(now) {
			due = append(due, j)
		}
	}
	s.mu.Unlock()

	ran := 0
	for _, j := range due {
		if ctx.Err() != nil {
			break
		}
		s.run(ctx, j, now)
		ran++

		s.mu.Lock()
		j.next = j.rule.Next(now)
		s.mu.Unlock()
	}

	if s.newDay(now) {
		if err := s.sync(now); err != nil {
			s.logger.Error("[SCHEDULER] %v", err)
		} else {
			s.logger.Info("[SCHEDULER] Resynced jobs: %v", s.Tags())
		}
	}
	return ran
}

func (s *Scheduler) newDay(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resync != nil && s.syncedOn != "" && s.syncedOn != now.UTC().Format("2006-01-02")
}

func (s *Scheduler) run(ctx context.Context, j *job, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("[SCHEDULER] job %s panicked: %v", j.tag, r)
		}
	}()
	if err := j.fn(ctx, now); err != nil {
		s.logger.Error("[SCHEDULER] job %s failed: %v", j.tag, err)
	}
}

// Run syncs once, then ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Sync(); err != nil {
		return err
	}
	s.logger.Info("[SCHEDULER] Started with jobs %v, tick %s", s.Tags(), s.tick)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("[SCHEDULER] Stopping")
			return nil
		case <-ticker.C:
			s.RunPending(ctx, s.now())
		}
	}
}
