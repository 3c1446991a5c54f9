package publisher

import (
	"context"
	"fmt"
	"time"
)

// ObjectStore stages content for the downstream distribution tool.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

const unstageTimeout = 10 * time.Second

// SocialPublisher stands in for the social distribution API. With a store it
// stages the content and reports the object URL.
type SocialPublisher struct {
	store ObjectStore
}

func NewSocialPublisher(store ObjectStore) *SocialPublisher {
	return &SocialPublisher{store: store}
}

func (p *SocialPublisher) Publish(ctx context.Context, target Target) Result {
	d := target.Derivative
	platform := d.Metadata.Platform
	if platform == "" {
		platform = string(d.Type)
	}

	if p.store == nil {
		return Result{Success: true, Message: fmt.Sprintf("Queued for %s (API integration needed)", platform)}
	}

	key := fmt.Sprintf("social/%s/%s.txt", platform, d.ID)
	url, err := p.store.PutObject(ctx, key, []byte(d.Content), "text/plain; charset=utf-8")
	if err != nil {
		return Failure("stage %s content: %v", platform, err)
	}
	if err := ctx.Err(); err != nil {
		// The dispatcher has already recorded a failure; don't leave the
		// content staged for a derivative marked failed.
		p.unstage(ctx, key)
		return Failure("stage %s content: %v", platform, err)
	}
	return Result{Success: true, PublishedURL: url, Message: fmt.Sprintf("Queued for %s", platform)}
}

func (p *SocialPublisher) unstage(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unstageTimeout)
	defer cancel()
	_ = p.store.DeleteObject(ctx, key)
}
