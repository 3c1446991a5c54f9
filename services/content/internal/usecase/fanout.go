package usecase

import (
	"context"
	"fmt"
	"strings"

	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/generator"
)

const (
	threadSeparator = "\n\n---\n\n"
	carouselMarker  = "\n\n--- CAROUSEL SLIDES ---\n\n"
)

type FanOutInput struct {
	// Platforms in processing order. Empty means entity.DefaultPlatforms.
	Platforms      []entity.DerivativeType
	IncludePodcast bool
}

// FanOutResult is a partial success by nature: Failures holds the error text
// for each platform that produced nothing, keyed by platform.
type FanOutResult struct {
	Created           []*entity.Derivative
	Failures          map[string]string
	Skipped           []string
	NewsletterSkipped bool
}

func (uc *pipelineUseCase) FanOut(ctx context.Context, postID string, in FanOutInput) (*FanOutResult, error) {
	post, err := uc.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	source, ok := post.SourceContent()
	if !ok {
		return nil, &entity.StateError{Kind: "post", ID: post.ID, Action: "fan out", From: string(post.Status)}
	}

	platforms, includePodcast, err := normalizePlatforms(in)
	if err != nil {
		return nil, err
	}

	client := uc.client(post.ClientID)
	var cta *entity.CTA
	if post.IncludeCTA {
		cta = client.CTA()
	}

	result := &FanOutResult{Failures: make(map[string]string)}
	var drafts []*entity.Derivative

	existing, err := uc.derivatives.List(ctx, derivativeFilter(post.ID, entity.TypeNewsletter))
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		result.NewsletterSkipped = true
	} else {
		drafts = append(drafts, &entity.Derivative{
			Type:    entity.TypeNewsletter,
			Content: source,
			Metadata: entity.DerivativeMetadata{
				Platform:   "beehiiv",
				Status:     entity.DerivativeDraft,
				PostNumber: 1,
				PostType:   "newsletter",
				Subject:    post.Title(),
			},
		})
	}

	for _, platform := range platforms {
		name := string(platform)

		if platform == entity.TypeTelegram {
			d, err := uc.isolate(name, func() ([]*entity.Derivative, error) {
				return uc.announcement(ctx, source)
			})
			if err != nil {
				result.Failures[name] = err.Error()
				continue
			}
			drafts = append(drafts, d...)
			continue
		}

		if !client.PlatformEnabled(name) {
			uc.logger.Info("[PIPELINE] %s disabled for client %s, skipping", name, client.ID)
			result.Skipped = append(result.Skipped, name)
			continue
		}

		d, err := uc.isolate(name, func() ([]*entity.Derivative, error) {
			return uc.socialPosts(ctx, source, platform, client, cta)
		})
		if err != nil {
			uc.logger.Warn("[PIPELINE] Fan-out of post %s to %s failed: %v", post.ID, name, err)
			result.Failures[name] = err.Error()
			continue
		}
		drafts = append(drafts, d...)
	}

	if includePodcast {
		drafts = append(drafts, &entity.Derivative{
			Type:    entity.TypePodcast,
			Content: source,
			Metadata: entity.DerivativeMetadata{
				Platform:   "podcast",
				Status:     entity.DerivativeDraft,
				PostNumber: 1,
				PostType:   "audio_script",
			},
		})
	}

	created, err := uc.derivatives.CreateBatch(ctx, post.ID, drafts)
	if err != nil {
		return nil, err
	}
	if !result.NewsletterSkipped && !containsType(created, entity.TypeNewsletter) {
		result.NewsletterSkipped = true
	}
	result.Created = created

	uc.logger.Info("[PIPELINE] Fan-out of post %s created %d derivatives, %d platforms failed",
		post.ID, len(created), len(result.Failures))
	return result, nil
}

// isolate runs one platform's generation so that a panic is reported like any
// other failure for that platform.
func (uc *pipelineUseCase) isolate(platform string, fn func() ([]*entity.Derivative, error)) (out []*entity.Derivative, err error) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("[PIPELINE] panic generating %s: %v", platform, r)
			out = nil
			err = &entity.GenerationError{Step: platform, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fn()
}

func (uc *pipelineUseCase) announcement(ctx context.Context, source string) ([]*entity.Derivative, error) {
	callCtx, cancel := uc.callContext(ctx)
	defer cancel()

	text, err := uc.generator.GenerateTelegramAnnouncement(callCtx, source)
	if err != nil {
		return nil, &entity.GenerationError{Step: "telegram announcement", Err: err}
	}
	return []*entity.Derivative{{
		Type:    entity.TypeTelegram,
		Content: text,
		Metadata: entity.DerivativeMetadata{
			Platform:   "telegram",
			Status:     entity.DerivativeDraft,
			PostNumber: 1,
			PostType:   "announcement",
		},
	}}, nil
}

func (uc *pipelineUseCase) socialPosts(ctx context.Context, source string, platform entity.DerivativeType, client *entity.Client, cta *entity.CTA) ([]*entity.Derivative, error) {
	name := string(platform)
	count := client.PostCount(name)
	settings := map[string]generator.PlatformSettings{
		name: {PostCount: count, Voice: client.Brand.Socials[name].Voice},
	}

	callCtx, cancel := uc.callContext(ctx)
	defer cancel()

	out, err := uc.generator.GenerateSocialPosts(callCtx, source, []string{name}, settings, cta)
	if err != nil {
		return nil, &entity.GenerationError{Step: name + " posts", Err: err}
	}
	posts := out[name]
	if len(posts) == 0 {
		return nil, &entity.GenerationError{Step: name + " posts", Err: fmt.Errorf("generator returned no posts")}
	}
	if len(posts) > count {
		posts = posts[:count]
	}

	derivatives := make([]*entity.Derivative, 0, len(posts))
	for i, sp := range posts {
		derivatives = append(derivatives, socialDerivative(platform, i+1, sp))
	}
	return derivatives, nil
}

func socialDerivative(platform entity.DerivativeType, number int, sp generator.SocialPost) *entity.Derivative {
	content := sp.Content
	if len(sp.ThreadParts) > 0 {
		content = strings.Join(sp.ThreadParts, threadSeparator)
	}
	if len(sp.Slides) > 0 {
		slides := make([]string, len(sp.Slides))
		for i, s := range sp.Slides {
			slides[i] = fmt.Sprintf("Slide %d: %s", i+1, s)
		}
		content += carouselMarker + strings.Join(slides, threadSeparator)
	}

	postType := sp.Type
	if postType == "" {
		postType = "single"
	}

	return &entity.Derivative{
		Type:    platform,
		Content: content,
		Metadata: entity.DerivativeMetadata{
			Platform:    string(platform),
			Status:      entity.DerivativeDraft,
			PostNumber:  number,
			PostType:    postType,
			ThreadParts: sp.ThreadParts,
			Slides:      sp.Slides,
		},
	}
}

// normalizePlatforms validates the requested list and drops duplicates. The
// newsletter is always considered; a podcast entry is the same as
// IncludePodcast.
func normalizePlatforms(in FanOutInput) ([]entity.DerivativeType, bool, error) {
	requested := in.Platforms
	if len(requested) == 0 {
		requested = entity.DefaultPlatforms
	}

	includePodcast := in.IncludePodcast
	seen := make(map[entity.DerivativeType]bool, len(requested))
	out := make([]entity.DerivativeType, 0, len(requested))
	for _, p := range requested {
		p = entity.DerivativeType(strings.ToLower(strings.TrimSpace(string(p))))
		if !p.Valid() {
			return nil, false, entity.Invalid("unknown platform %q", p)
		}
		switch p {
		case entity.TypeNewsletter:
			continue
		case entity.TypePodcast:
			includePodcast = true
			continue
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out, includePodcast, nil
}

func containsType(items []*entity.Derivative, typ entity.DerivativeType) bool {
	for _, d := range items {
		if d.Type == typ {
			return true
		}
	}
	return false
}
