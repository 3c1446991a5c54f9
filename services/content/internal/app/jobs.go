package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"content-engine/pkg/logger"
	"content-engine/pkg/queue"
	"content-engine/services/content/internal/clients"
	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/scheduler"
	"content-engine/services/content/internal/usecase"
)

const (
	sweepTag   = "sweep"
	clientsTag = "clients"
)

// Notifier delivers text to a client's chat.
type Notifier interface {
	Configured() bool
	Send(ctx context.Context, chatID, text string) (int64, error)
}

// Jobs builds the worker's job table: the publish sweep, a clients file
// refresh, and one report job per active client.
type Jobs struct {
	Pipeline        usecase.PipelineUseCase
	Clients         *clients.Registry
	Notifier        Notifier
	SweepInterval   time.Duration
	RefreshInterval time.Duration
	Log             *logger.Logger

	mu      sync.Mutex
	reports map[string]entity.ReportSettings
}

func clientTag(clientID string) string {
	return "client:" + clientID
}

// Resync re-reads the clients file and registers every job from scratch.
// It is the scheduler's daily resync hook.
func (j *Jobs) Resync(s *scheduler.Scheduler) error {
	if err := j.Clients.Reload(); err != nil {
		j.Log.Warn("[WORKER] Client reload failed, keeping previous settings: %v", err)
	}

	j.mu.Lock()
	j.reports = make(map[string]entity.ReportSettings)
	j.mu.Unlock()

	s.Register(sweepTag, scheduler.Every(j.SweepInterval), j.sweep)
	if j.RefreshInterval > 0 {
		s.Register(clientsTag, scheduler.Every(j.RefreshInterval), func(context.Context, time.Time) error {
			return j.Refresh(s)
		})
	}

	scheduled := 0
	for _, c := range j.Clients.Active() {
		if j.registerReport(s, c) {
			scheduled++
		}
	}

	j.Log.Info("[WORKER] Scheduled reports for %d clients", scheduled)
	return nil
}

// Refresh re-reads the clients file and re-registers the report job of every
// client whose report settings changed. Clients that were removed or paused
// lose their job; new clients get one.
func (j *Jobs) Refresh(s *scheduler.Scheduler) error {
	if err := j.Clients.Reload(); err != nil {
		return fmt.Errorf("reload clients: %w", err)
	}

	j.mu.Lock()
	known := make(map[string]entity.ReportSettings, len(j.reports))
	for id, settings := range j.reports {
		known[id] = settings
	}
	j.mu.Unlock()

	active := make(map[string]bool)
	for _, c := range j.Clients.Active() {
		active[c.ID] = true
		if settings, ok := known[c.ID]; ok && settings == c.Report {
			continue
		}
		s.Clear(clientTag(c.ID))
		j.registerReport(s, c)
	}

	for id := range known {
		if active[id] {
			continue
		}
		s.Clear(clientTag(id))
		j.mu.Lock()
		delete(j.reports, id)
		j.mu.Unlock()
		j.Log.Info("[WORKER] Client %s no longer active, report job removed", id)
	}
	return nil
}

// registerReport adds the client's report job and remembers the settings it
// was built from, usable or not, so Refresh only reacts to changes.
func (j *Jobs) registerReport(s *scheduler.Scheduler, c *entity.Client) bool {
	j.mu.Lock()
	if j.reports == nil {
		j.reports = make(map[string]entity.ReportSettings)
	}
	j.reports[c.ID] = c.Report
	j.mu.Unlock()

	rule, err := scheduler.ParseRecurrence(c.Report)
	if err != nil {
		j.Log.Warn("[WORKER] Client %s has unusable report settings: %v", c.ID, err)
		return false
	}
	next := s.Register(clientTag(c.ID), rule, j.report(c.ID, period(rule)))
	j.Log.Info("[WORKER] Report for %s %s, next at %s", c.ID, rule, next.Format(time.RFC3339))
	return true
}

func period(rule *scheduler.Recurrence) time.Duration {
	if rule.Frequency == scheduler.FrequencyDaily {
		return 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

func (j *Jobs) sweep(ctx context.Context, now time.Time) error {
	res, err := j.Pipeline.PublishQueuedDerivatives(ctx, now)
	if err != nil {
		return err
	}
	for _, e := range res.Errors {
		j.Log.Warn("[WORKER] %s", e)
	}
	return nil
}

func (j *Jobs) report(clientID string, window time.Duration) scheduler.JobFunc {
	return func(ctx context.Context, now time.Time) error {
		digest, err := j.Pipeline.ClientDigest(ctx, clientID, now.Add(-window))
		if err != nil {
			return fmt.Errorf("build report for %s: %w", clientID, err)
		}
		return j.notify(ctx, clientID, digest)
	}
}

// AlertFailure forwards a failed publish event to the client's chat. Other
// events are acknowledged without action.
func (j *Jobs) AlertFailure(ctx context.Context, event queue.Event) error {
	if event.Type != queue.EventDerivativeFailed {
		return nil
	}
	text := fmt.Sprintf("Publishing failed\n\nPlatform: %s\nDerivative: %s\nPost: %s\nReason: %s",
		event.Platform, event.DerivativeID, event.PostID, event.Message)
	return j.notify(ctx, event.ClientID, text)
}

func (j *Jobs) notify(ctx context.Context, clientID, text string) error {
	client, ok := j.Clients.Get(clientID)
	if !ok || client.ChatID == "" || j.Notifier == nil || !j.Notifier.Configured() {
		j.Log.Info("[WORKER] No chat for client %s, message not sent:\n%s", clientID, text)
		return nil
	}
	if _, err := j.Notifier.Send(ctx, client.ChatID, text); err != nil {
		return fmt.Errorf("send to %s: %w", clientID, err)
	}
	return nil
}
