package persistent

import (
	"context"
	"time"

	"content-engine/pkg/logger"
	"content-engine/pkg/storage"
	"content-engine/services/content/internal/entity"
)

type PostFilter struct {
	ClientID string
	Status   entity.PostStatus
	PillarID string
}

func (f PostFilter) match(p *entity.Post) bool {
	if f.ClientID != "" && p.ClientID != f.ClientID {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.PillarID != "" && p.PillarID != f.PillarID {
		return false
	}
	return true
}

// PostMutation edits post in place. others holds the rest of the collection
// as loaded under the same lock.
type PostMutation func(post *entity.Post, others []*entity.Post) error

type PostRepository interface {
	Create(ctx context.Context, post *entity.Post) error
	GetByID(ctx context.Context, id string) (*entity.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*entity.Post, error)
	Update(ctx context.Context, id string, mutate PostMutation) (*entity.Post, error)
	Delete(ctx context.Context, id string) error
}

type postRepository struct {
	posts *collection[entity.Post]
	now   func() time.Time
}

func NewPostRepository(tier *storage.Tier, log *logger.Logger) PostRepository {
	return &postRepository{
		posts: &collection[entity.Post]{
			name:   postsCollection,
			tier:   tier,
			logger: log,
			encode: encodePost,
			decode: decodePost,
		},
		now: time.Now,
	}
}

func (r *postRepository) Create(ctx context.Context, post *entity.Post) error {
	r.posts.mu.Lock()
	defer r.posts.mu.Unlock()

	now := r.now().UTC()
	post.ID = newID("post_")
	post.CreatedAt = now
	post.UpdatedAt = now

	all := r.posts.loadAll(ctx)
	return r.posts.saveAll(ctx, append(all, post))
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*entity.Post, error) {
	post, ok := r.posts.get(ctx, id)
	if !ok {
		return nil, entity.NotFound("post", id)
	}
	return post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*entity.Post, error) {
	var out []*entity.Post
	for _, p := range r.posts.loadAll(ctx) {
		if filter.match(p) {
			out = append(out, p)
		}
	}
	sortNewestFirst(out,
		func(p *entity.Post) time.Time { return p.CreatedAt },
		func(p *entity.Post) string { return p.ID })
	return out, nil
}

func (r *postRepository) Update(ctx context.Context, id string, mutate PostMutation) (*entity.Post, error) {
	r.posts.mu.Lock()
	defer r.posts.mu.Unlock()

	all := r.posts.loadAll(ctx)
	idx := -1
	for i, p := range all {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, entity.NotFound("post", id)
	}

	target := all[idx]
	others := make([]*entity.Post, 0, len(all)-1)
	others = append(others, all[:idx]...)
	others = append(others, all[idx+1:]...)

	if err := mutate(target, others); err != nil {
		return nil, err
	}
	target.UpdatedAt = r.now().UTC()

	if err := r.posts.saveAll(ctx, all); err != nil {
		return nil, err
	}
	return target, nil
}

func (r *postRepository) Delete(ctx context.Context, id string) error {
	r.posts.mu.Lock()
	defer r.posts.mu.Unlock()

	all := r.posts.loadAll(ctx)
	kept := all[:0]
	found := false
	for _, p := range all {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return entity.NotFound("post", id)
	}
	return r.posts.saveAll(ctx, kept)
}
