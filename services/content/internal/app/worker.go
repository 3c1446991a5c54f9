package internal

import (
	"context"

	"content-engine/pkg/queue"
	"content-engine/services/content/internal/scheduler"
)

// Jobs returns the worker's job set wired to this app's pipeline.
func (a *App) Jobs() *Jobs {
	j := &Jobs{
		Pipeline:        a.pipeline,
		Clients:         a.clients,
		SweepInterval:   a.cfg.SweepInterval,
		RefreshInterval: a.cfg.ClientsRefresh,
		Log:             a.log.Named("worker"),
	}
	if a.sender != nil {
		j.Notifier = a.sender
	}
	return j
}

// RunWorker runs the publish sweep and client reports until ctx is cancelled.
// When a queue is configured, failed-publish events are relayed to the
// owning client's chat as they arrive.
func (a *App) RunWorker(ctx context.Context) error {
	jobs := a.Jobs()

	if a.queueClient != nil {
		err := a.queueClient.ConsumeEvents(func(event queue.Event) error {
			if err := jobs.AlertFailure(ctx, event); err != nil {
				// Alerts are best effort; requeueing would retry a dead chat forever.
				a.log.Error("[WORKER] Failure alert for %s not delivered: %v", event.DerivativeID, err)
			}
			return nil
		})
		if err != nil {
			a.log.Error("Failed to start event consumer: %v (alerts disabled)", err)
		}
	}

	s := scheduler.New(a.cfg.SchedulerTick, a.log.Named("scheduler"))
	s.OnResync(jobs.Resync)

	a.log.Info("Content worker starting, sweep every %s", a.cfg.SweepInterval)
	return s.Run(ctx)
}
