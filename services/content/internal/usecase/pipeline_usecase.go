package usecase

import (
	"context"
	"time"

	"content-engine/pkg/logger"
	"content-engine/pkg/queue"
	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/generator"
	"content-engine/services/content/internal/publisher"
	"content-engine/services/content/internal/repo/persistent"
	"content-engine/services/content/internal/schedule"
)

type ClientDirectory interface {
	Get(id string) (*entity.Client, bool)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, event queue.Event) error
}

type Dispatcher interface {
	Dispatch(ctx context.Context, target publisher.Target) publisher.Result
}

type PipelineUseCase interface {
	CreatePost(ctx context.Context, in CreatePostInput) (*CreateResult, error)
	ExpandPost(ctx context.Context, postID string) (*CreateResult, error)
	BranchPost(ctx context.Context, postID string) (*entity.Post, error)
	GetPost(ctx context.Context, postID string) (*entity.Post, error)
	ListPosts(ctx context.Context, filter persistent.PostFilter) ([]*entity.Post, error)
	DeletePost(ctx context.Context, postID string) error

	FanOut(ctx context.Context, postID string, in FanOutInput) (*FanOutResult, error)
	ListDerivatives(ctx context.Context, filter persistent.DerivativeFilter) ([]*entity.Derivative, error)
	ApproveDerivative(ctx context.Context, derivativeID string) (*entity.Derivative, error)
	ScheduleDerivatives(ctx context.Context, postID string, cfg schedule.Config) (*ScheduleResult, error)
	RescheduleDerivative(ctx context.Context, derivativeID string, at time.Time) (*entity.Derivative, error)
	PublishDerivative(ctx context.Context, derivativeID string) (*PublishOutcome, error)
	PublishQueuedDerivatives(ctx context.Context, now time.Time) (*SweepResult, error)
	RecordEngagement(ctx context.Context, derivativeID string, metrics map[string]interface{}) (*entity.Derivative, error)

	CreatePillar(ctx context.Context, in CreatePillarInput) (*entity.Pillar, error)
	ListPillars(ctx context.Context, clientID string) ([]*entity.Pillar, error)
	PillarPerformance(ctx context.Context, pillarID string, days int) (*entity.PillarPerformance, error)
	ClientDigest(ctx context.Context, clientID string, since time.Time) (string, error)
}

type Options struct {
	// CallTimeout bounds each generator call.
	CallTimeout time.Duration
	// DispatchLease is how long a dispatching claim is honoured before the
	// sweep hands the derivative out again.
	DispatchLease time.Duration
	// DispatchWorkers > 1 publishes due derivatives in parallel.
	DispatchWorkers int
}

type pipelineUseCase struct {
	posts       persistent.PostRepository
	derivatives persistent.DerivativeRepository
	pillars     persistent.PillarRepository
	generator   generator.Generator
	dispatcher  Dispatcher
	clients     ClientDirectory
	events      EventPublisher
	opts        Options
	logger      *logger.Logger
	now         func() time.Time
}

func NewPipelineUseCase(
	posts persistent.PostRepository,
	derivatives persistent.DerivativeRepository,
	pillars persistent.PillarRepository,
	gen generator.Generator,
	dispatcher Dispatcher,
	clients ClientDirectory,
	events EventPublisher,
	opts Options,
	logger *logger.Logger,
) PipelineUseCase {
	return &pipelineUseCase{
		posts:       posts,
		derivatives: derivatives,
		pillars:     pillars,
		generator:   gen,
		dispatcher:  dispatcher,
		clients:     clients,
		events:      events,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

func (uc *pipelineUseCase) client(id string) *entity.Client {
	if uc.clients != nil {
		if c, ok := uc.clients.Get(id); ok {
			return c
		}
	}
	return &entity.Client{ID: id}
}

func (uc *pipelineUseCase) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.opts.CallTimeout > 0 {
		return context.WithTimeout(ctx, uc.opts.CallTimeout)
	}
	return context.WithCancel(ctx)
}
