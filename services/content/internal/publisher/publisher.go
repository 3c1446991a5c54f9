// Package publisher sends queued derivatives to their destination platforms.
// Publishers never return errors: every outcome, including missing
// credentials and remote 4xx responses, is a Result.
package publisher

import (
	"context"
	"fmt"
	"time"

	"content-engine/pkg/logger"
	"content-engine/services/content/internal/entity"
)

type Target struct {
	Derivative *entity.Derivative
	Post       *entity.Post
	Client     *entity.Client
}

type Result struct {
	Success      bool   `json:"success"`
	PublishedURL string `json:"published_url,omitempty"`
	Message      string `json:"message"`
}

func Failure(format string, args ...interface{}) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

type Publisher interface {
	Publish(ctx context.Context, target Target) Result
}

type PublisherFunc func(ctx context.Context, target Target) Result

func (f PublisherFunc) Publish(ctx context.Context, target Target) Result {
	return f(ctx, target)
}

// Dispatcher routes a derivative to the publisher registered for its type and
// bounds each call with a timeout.
type Dispatcher struct {
	publishers map[entity.DerivativeType]Publisher
	timeout    time.Duration
	logger     *logger.Logger
}

func NewDispatcher(timeout time.Duration, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		publishers: make(map[entity.DerivativeType]Publisher),
		timeout:    timeout,
		logger:     log,
	}
}

func (d *Dispatcher) Register(p Publisher, types ...entity.DerivativeType) {
	for _, t := range types {
		d.publishers[t] = p
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, target Target) Result {
	if target.Derivative == nil {
		return Failure("no derivative to publish")
	}
	p, ok := d.publishers[target.Derivative.Type]
	if !ok {
		return Failure("no publisher for type %s", target.Derivative.Type)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	done := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("[PUBLISH] publisher for %s panicked: %v", target.Derivative.Type, r)
				done <- Failure("publisher crashed: %v", r)
			}
		}()
		done <- p.Publish(ctx, target)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return Failure("publish %s timed out: %v", target.Derivative.ID, ctx.Err())
	}
}
