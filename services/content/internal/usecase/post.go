package usecase

import (
	"context"
	"fmt"

	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/generator"
	"content-engine/services/content/internal/repo/persistent"
)

type CreatePostInput struct {
	ClientID            string
	RawIdea             string
	PillarID            string
	IncludeCTA          bool
	AutoExpand          bool
	TimeInvestedMinutes int
}

type ExpandOutcome string

const (
	OutcomeIdea         ExpandOutcome = "idea"
	OutcomeDrafted      ExpandOutcome = "drafted"
	OutcomeExpandFailed ExpandOutcome = "expand_failed"
)

// CreateResult tells the caller how far a post got. A failed expansion is
// reported here, never as an error: the post and its raw idea are kept.
type CreateResult struct {
	Post      *entity.Post
	Outcome   ExpandOutcome
	ExpandErr error
}

func (uc *pipelineUseCase) CreatePost(ctx context.Context, in CreatePostInput) (*CreateResult, error) {
	post, err := entity.NewPost(in.ClientID, in.RawIdea, in.PillarID, in.IncludeCTA)
	if err != nil {
		return nil, err
	}
	post.TimeInvestedMinutes = in.TimeInvestedMinutes

	if err := uc.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	uc.logger.Info("[PIPELINE] Created post %s for client %s", post.ID, post.ClientID)

	if !in.AutoExpand {
		return &CreateResult{Post: post, Outcome: OutcomeIdea}, nil
	}
	return uc.expand(ctx, post)
}

// ExpandPost retries expansion of a post still in the idea status.
func (uc *pipelineUseCase) ExpandPost(ctx context.Context, postID string) (*CreateResult, error) {
	post, err := uc.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Status != entity.PostStatusIdea {
		return nil, &entity.StateError{Kind: "post", ID: post.ID, Action: "expand", From: string(post.Status)}
	}
	return uc.expand(ctx, post)
}

func (uc *pipelineUseCase) expand(ctx context.Context, post *entity.Post) (*CreateResult, error) {
	client := uc.client(post.ClientID)
	var cta *entity.CTA
	if post.IncludeCTA {
		cta = client.CTA()
	}

	callCtx, cancel := uc.callContext(ctx)
	out, genErr := uc.generator.ExpandIdea(callCtx, post.RawIdea, generator.ClientContext{
		ClientID: client.ID,
		Name:     client.Name,
		Voice:    client.Brand.Voice,
	}, cta)
	cancel()

	if genErr != nil {
		failure := &entity.GenerationError{Step: "expand idea", Err: genErr}
		updated, err := uc.posts.Update(ctx, post.ID, func(p *entity.Post, _ []*entity.Post) error {
			return p.RecordExpandFailure(failure.Error())
		})
		if err != nil {
			return nil, err
		}
		uc.logger.Warn("[PIPELINE] Expansion of post %s failed, kept as idea: %v", post.ID, genErr)
		return &CreateResult{Post: updated, Outcome: OutcomeExpandFailed, ExpandErr: failure}, nil
	}

	updated, err := uc.posts.Update(ctx, post.ID, func(p *entity.Post, _ []*entity.Post) error {
		return p.Draft(entity.CenterPost{
			Title:     out.Title,
			Content:   out.Content,
			WordCount: out.WordCount,
			Checks:    out.Checks,
		})
	})
	if err != nil {
		return nil, err
	}
	uc.logger.Info("[PIPELINE] Post %s drafted (%d words)", post.ID, out.WordCount)
	return &CreateResult{Post: updated, Outcome: OutcomeDrafted}, nil
}

// BranchPost generates the archive and blog versions. The chapter number is
// one more than the number of other posts that already have an archive
// version, counted under the repository lock when the result is saved.
func (uc *pipelineUseCase) BranchPost(ctx context.Context, postID string) (*entity.Post, error) {
	post, err := uc.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := post.CanBranch(); err != nil {
		return nil, err
	}
	content := post.CenterPost.Content

	callCtx, cancel := uc.callContext(ctx)
	defer cancel()

	archive, err := uc.generator.GenerateArchiveVersion(callCtx, content)
	if err != nil {
		return nil, uc.recordBranchFailure(ctx, postID, &entity.GenerationError{Step: "archive version", Err: err})
	}
	blog, err := uc.generator.GenerateBlogVersion(callCtx, content)
	if err != nil {
		return nil, uc.recordBranchFailure(ctx, postID, &entity.GenerationError{Step: "blog version", Err: err})
	}

	now := uc.now().UTC()
	updated, err := uc.posts.Update(ctx, postID, func(p *entity.Post, others []*entity.Post) error {
		chapter := 1
		for _, o := range others {
			if o.HasArchive() {
				chapter++
			}
		}
		return p.Branch(
			entity.ArchiveVersion{Content: archive, ChapterNumber: chapter, GeneratedAt: now},
			entity.BlogVersion{Content: blog.Content, StructuredData: blog.StructuredData, GeneratedAt: now},
		)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("[PIPELINE] Post %s branched as chapter %d", postID, updated.ArchiveVersion.ChapterNumber)
	return updated, nil
}

func (uc *pipelineUseCase) recordBranchFailure(ctx context.Context, postID string, failure *entity.GenerationError) error {
	uc.logger.Warn("[PIPELINE] Branching post %s failed: %v", postID, failure)
	if _, err := uc.posts.Update(ctx, postID, func(p *entity.Post, _ []*entity.Post) error {
		p.RecordError(failure.Error())
		return nil
	}); err != nil {
		uc.logger.Error("[PIPELINE] Could not record branch failure on %s: %v", postID, err)
	}
	return failure
}

func (uc *pipelineUseCase) GetPost(ctx context.Context, postID string) (*entity.Post, error) {
	return uc.posts.GetByID(ctx, postID)
}

func (uc *pipelineUseCase) ListPosts(ctx context.Context, filter persistent.PostFilter) ([]*entity.Post, error) {
	return uc.posts.List(ctx, filter)
}

func (uc *pipelineUseCase) DeletePost(ctx context.Context, postID string) error {
	if err := uc.posts.Delete(ctx, postID); err != nil {
		return err
	}
	uc.logger.Info("[PIPELINE] Deleted post %s", postID)
	return nil
}
