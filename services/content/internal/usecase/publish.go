package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"content-engine/pkg/queue"
	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/publisher"
	"content-engine/services/content/internal/repo/persistent"
	"content-engine/services/content/internal/schedule"
)

type ScheduleResult struct {
	Queued []*entity.Derivative
	// Unscheduled stay approved: the config had no timestamp for their type.
	Unscheduled []*entity.Derivative
}

type PublishOutcome struct {
	Derivative *entity.Derivative
	Result     publisher.Result
}

// SweepResult lists derivative ids by outcome. Errors carries one line per
// failed attempt, including persistence errors.
type SweepResult struct {
	Published []string
	Failed    []string
	Errors    []string
}

func derivativeFilter(postID string, typ entity.DerivativeType) persistent.DerivativeFilter {
	return persistent.DerivativeFilter{PostID: postID, Type: typ}
}

func (uc *pipelineUseCase) ListDerivatives(ctx context.Context, filter persistent.DerivativeFilter) ([]*entity.Derivative, error) {
	return uc.derivatives.List(ctx, filter)
}

func (uc *pipelineUseCase) ApproveDerivative(ctx context.Context, derivativeID string) (*entity.Derivative, error) {
	d, err := uc.derivatives.Update(ctx, derivativeID, func(d *entity.Derivative) error {
		return d.Approve()
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("[PIPELINE] Approved derivative %s (%s)", d.ID, d.Type)
	return d, nil
}

func (uc *pipelineUseCase) ScheduleDerivatives(ctx context.Context, postID string, cfg schedule.Config) (*ScheduleResult, error) {
	if cfg.Empty() {
		return nil, entity.Invalid("schedule needs at least one of newsletter_send_at, telegram_send_at, social_start_at")
	}

	filter := persistent.DerivativeFilter{PostID: postID, Status: entity.DerivativeApproved}
	approved, err := uc.derivatives.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(approved) == 0 {
		return nil, entity.NotFound("approved derivatives for post", postID)
	}

	queued, err := uc.derivatives.UpdateWhere(ctx, filter, func(d *entity.Derivative) bool {
		at, ok := schedule.ScheduledFor(cfg, d.Type, d.Metadata.PostNumber)
		if !ok {
			return false
		}
		return d.Queue(at) == nil
	})
	if err != nil {
		return nil, err
	}

	done := make(map[string]bool, len(queued))
	for _, d := range queued {
		done[d.ID] = true
	}
	result := &ScheduleResult{Queued: queued}
	for _, d := range approved {
		if !done[d.ID] {
			result.Unscheduled = append(result.Unscheduled, d)
		}
	}

	uc.logger.Info("[PIPELINE] Scheduled %d derivatives of post %s (%d left unscheduled)",
		len(result.Queued), postID, len(result.Unscheduled))
	return result, nil
}

func (uc *pipelineUseCase) RescheduleDerivative(ctx context.Context, derivativeID string, at time.Time) (*entity.Derivative, error) {
	if at.IsZero() {
		return nil, entity.Invalid("scheduled_for is required")
	}
	d, err := uc.derivatives.Update(ctx, derivativeID, func(d *entity.Derivative) error {
		return d.Reschedule(at)
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("[PIPELINE] Rescheduled derivative %s for %s", d.ID, at.UTC().Format(time.RFC3339))
	return d, nil
}

// PublishDerivative dispatches one queued derivative now, regardless of its
// scheduled time. A publisher failure is not an error: it is recorded on the
// derivative and returned in the outcome.
func (uc *pipelineUseCase) PublishDerivative(ctx context.Context, derivativeID string) (*PublishOutcome, error) {
	claimed, err := uc.derivatives.Claim(ctx, derivativeID, uc.now())
	if err != nil {
		return nil, err
	}
	return uc.dispatch(ctx, claimed)
}

// PublishQueuedDerivatives claims every derivative due at now and gives each
// exactly one publish attempt.
func (uc *pipelineUseCase) PublishQueuedDerivatives(ctx context.Context, now time.Time) (*SweepResult, error) {
	claimed, err := uc.derivatives.ClaimDue(ctx, now, uc.opts.DispatchLease)
	if err != nil {
		return nil, fmt.Errorf("failed to claim due derivatives: %w", err)
	}

	result := &SweepResult{}
	if len(claimed) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	record := func(d *entity.Derivative, outcome *PublishOutcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			result.Failed = append(result.Failed, d.ID)
			result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %v", d.ID, d.Type, err))
		case outcome.Result.Success:
			result.Published = append(result.Published, d.ID)
		default:
			result.Failed = append(result.Failed, d.ID)
			result.Errors = append(result.Errors, fmt.Sprintf("%s (%s): %s", d.ID, d.Type, outcome.Result.Message))
		}
	}

	workers := uc.opts.DispatchWorkers
	if workers <= 1 {
		for _, d := range claimed {
			outcome, err := uc.dispatch(ctx, d)
			record(d, outcome, err)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(workers)
		for _, d := range claimed {
			d := d
			g.Go(func() error {
				outcome, err := uc.dispatch(ctx, d)
				record(d, outcome, err)
				return nil
			})
		}
		_ = g.Wait()
	}

	uc.logger.Info("[PIPELINE] Sweep at %s: %d published, %d failed",
		now.UTC().Format(time.RFC3339), len(result.Published), len(result.Failed))
	return result, nil
}

// dispatch publishes a claimed derivative and records the outcome.
func (uc *pipelineUseCase) dispatch(ctx context.Context, d *entity.Derivative) (*PublishOutcome, error) {
	target := publisher.Target{Derivative: d}
	if post, err := uc.posts.GetByID(ctx, d.PostID); err == nil {
		target.Post = post
		target.Client = uc.client(post.ClientID)
	} else {
		uc.logger.Warn("[PIPELINE] Derivative %s references missing post %s", d.ID, d.PostID)
	}

	res := uc.dispatcher.Dispatch(ctx, target)

	now := uc.now()
	updated, err := uc.derivatives.Update(ctx, d.ID, func(x *entity.Derivative) error {
		if res.Success {
			return x.MarkPublished(now, res.PublishedURL)
		}
		return x.MarkFailed(res.Message)
	})
	if err != nil {
		uc.logger.Error("[PIPELINE] Could not record publish outcome for %s: %v", d.ID, err)
		return nil, fmt.Errorf("failed to record publish outcome: %w", err)
	}

	if res.Success {
		uc.logger.Info("[PIPELINE] Published derivative %s (%s)", d.ID, d.Type)
	} else {
		uc.logger.Warn("[PIPELINE] Publishing derivative %s (%s) failed: %s", d.ID, d.Type, res.Message)
	}
	uc.emit(ctx, updated, target, res)

	return &PublishOutcome{Derivative: updated, Result: res}, nil
}

func (uc *pipelineUseCase) emit(ctx context.Context, d *entity.Derivative, target publisher.Target, res publisher.Result) {
	if uc.events == nil {
		return
	}
	event := queue.Event{
		Type:         queue.EventDerivativePublished,
		DerivativeID: d.ID,
		PostID:       d.PostID,
		Platform:     string(d.Type),
		PublishedURL: res.PublishedURL,
		Message:      res.Message,
		OccurredAt:   uc.now().UTC(),
	}
	if !res.Success {
		event.Type = queue.EventDerivativeFailed
	}
	if target.Client != nil {
		event.ClientID = target.Client.ID
	}
	if err := uc.events.PublishEvent(ctx, event); err != nil {
		uc.logger.Warn("[PIPELINE] Failed to publish %s event for %s: %v", event.Type, d.ID, err)
	}
}
