package persistent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"content-engine/pkg/logger"
	"content-engine/pkg/storage"
	"content-engine/services/content/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct{}

func (failingBackend) Name() string { return "broken" }

func (failingBackend) Load(context.Context, string) ([]storage.Record, bool, error) {
	return nil, false, errors.New("unavailable")
}

func (failingBackend) Save(context.Context, string, []storage.Record) error {
	return errors.New("unavailable")
}

func newTestTier(t *testing.T) *storage.Tier {
	return storage.NewTier(logger.NewNop(), storage.NewFileBackend(t.TempDir()))
}

func TestPostRepository_CreateGetList(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestTier(t), logger.NewNop()).(*postRepository)

	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { clock = clock.Add(time.Minute); return clock }

	first, _ := entity.NewPost("acme", "first idea", "", false)
	second, _ := entity.NewPost("acme", "second idea", "pillar_1", false)
	other, _ := entity.NewPost("globex", "other idea", "", false)
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Create(ctx, other))

	assert.True(t, strings.HasPrefix(first.ID, "post_"))
	assert.Len(t, first.ID, len("post_")+24)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "second idea", got.RawIdea)

	_, err = repo.GetByID(ctx, "post_missing")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	posts, err := repo.List(ctx, PostFilter{ClientID: "acme"})
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID, "newest first")

	posts, _ = repo.List(ctx, PostFilter{PillarID: "pillar_1"})
	assert.Len(t, posts, 1)

	posts, _ = repo.List(ctx, PostFilter{Status: entity.PostStatusDrafted})
	assert.Empty(t, posts)
}

func TestPostRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestTier(t), logger.NewNop())

	post, _ := entity.NewPost("acme", "idea", "", false)
	require.NoError(t, repo.Create(ctx, post))

	updated, err := repo.Update(ctx, post.ID, func(p *entity.Post, others []*entity.Post) error {
		assert.Empty(t, others)
		return p.Draft(entity.CenterPost{Title: "T", Content: "C"})
	})
	require.NoError(t, err)
	assert.Equal(t, entity.PostStatusDrafted, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, err = repo.Update(ctx, post.ID, func(p *entity.Post, _ []*entity.Post) error {
		return p.Draft(entity.CenterPost{Title: "again"})
	})
	assert.ErrorIs(t, err, entity.ErrInvalidState)

	stored, _ := repo.GetByID(ctx, post.ID)
	assert.Equal(t, "T", stored.CenterPost.Title)

	_, err = repo.Update(ctx, "post_missing", func(*entity.Post, []*entity.Post) error { return nil })
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestPostRepository_ConcurrentUpdatesInProcess(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestTier(t), logger.NewNop())

	post, _ := entity.NewPost("acme", "idea", "", false)
	require.NoError(t, repo.Create(ctx, post))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Update(ctx, post.ID, func(p *entity.Post, _ []*entity.Post) error {
				p.TimeInvestedMinutes++
				return nil
			})
		}()
	}
	wg.Wait()

	stored, _ := repo.GetByID(ctx, post.ID)
	assert.Equal(t, 20, stored.TimeInvestedMinutes)
}

func TestPostRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewPostRepository(newTestTier(t), logger.NewNop())

	post, _ := entity.NewPost("acme", "idea", "", false)
	require.NoError(t, repo.Create(ctx, post))
	require.NoError(t, repo.Delete(ctx, post.ID))

	_, err := repo.GetByID(ctx, post.ID)
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, post.ID), entity.ErrNotFound)
}

func TestPostRepository_DegradedPersistenceStillReadable(t *testing.T) {
	ctx := context.Background()
	tier := storage.NewTier(logger.NewNop(), failingBackend{})
	repo := NewPostRepository(tier, logger.NewNop())

	post, _ := entity.NewPost("acme", "idea", "", false)
	require.NoError(t, repo.Create(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "idea", got.RawIdea)
}

func TestPostRepository_SharedFileAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	writer := NewPostRepository(storage.NewTier(logger.NewNop(), storage.NewFileBackend(dir)), logger.NewNop())
	post, _ := entity.NewPost("acme", "idea", "", false)
	require.NoError(t, writer.Create(ctx, post))

	reader := NewPostRepository(storage.NewTier(logger.NewNop(), storage.NewFileBackend(dir)), logger.NewNop())
	got, err := reader.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
}

func newDerivative(typ entity.DerivativeType, n int) *entity.Derivative {
	return &entity.Derivative{
		Type:     typ,
		Content:  string(typ) + " content",
		Metadata: entity.DerivativeMetadata{Platform: string(typ), Status: entity.DerivativeDraft, PostNumber: n},
	}
}

func TestDerivativeRepository_NewsletterGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewDerivativeRepository(newTestTier(t), logger.NewNop())

	created, err := repo.CreateBatch(ctx, "post_1", []*entity.Derivative{
		newDerivative(entity.TypeNewsletter, 0),
		newDerivative(entity.TypeX, 1),
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
	assert.True(t, strings.HasPrefix(created[0].ID, "deriv_"))

	created, err = repo.CreateBatch(ctx, "post_1", []*entity.Derivative{
		newDerivative(entity.TypeNewsletter, 0),
		newDerivative(entity.TypeNewsletter, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, created)

	created, _ = repo.CreateBatch(ctx, "post_2", []*entity.Derivative{
		newDerivative(entity.TypeNewsletter, 0),
		newDerivative(entity.TypeNewsletter, 0),
	})
	assert.Len(t, created, 1)

	newsletters, _ := repo.List(ctx, DerivativeFilter{PostID: "post_1", Type: entity.TypeNewsletter})
	assert.Len(t, newsletters, 1)
}

func TestDerivativeRepository_UpdateWhere(t *testing.T) {
	ctx := context.Background()
	repo := NewDerivativeRepository(newTestTier(t), logger.NewNop())

	created, _ := repo.CreateBatch(ctx, "post_1", []*entity.Derivative{
		newDerivative(entity.TypeX, 1),
		newDerivative(entity.TypeLinkedIn, 1),
	})
	_, err := repo.Update(ctx, created[0].ID, func(d *entity.Derivative) error { return d.Approve() })
	require.NoError(t, err)

	at := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	changed, err := repo.UpdateWhere(ctx, DerivativeFilter{PostID: "post_1", Status: entity.DerivativeApproved},
		func(d *entity.Derivative) bool { return d.Queue(at) == nil })
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, created[0].ID, changed[0].ID)

	queued, _ := repo.List(ctx, DerivativeFilter{Status: entity.DerivativeQueued})
	require.Len(t, queued, 1)
	assert.Equal(t, at, *queued[0].ScheduledFor)
}

func TestDerivativeRepository_ClaimDue(t *testing.T) {
	ctx := context.Background()
	repo := NewDerivativeRepository(newTestTier(t), logger.NewNop())
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	created, _ := repo.CreateBatch(ctx, "post_1", []*entity.Derivative{
		newDerivative(entity.TypeX, 1),
		newDerivative(entity.TypeX, 2),
	})
	for i, d := range created {
		at := now.Add(time.Duration(i) * 24 * time.Hour)
		_, err := repo.Update(ctx, d.ID, func(d *entity.Derivative) error {
			if err := d.Approve(); err != nil {
				return err
			}
			return d.Queue(at)
		})
		require.NoError(t, err)
	}

	claimed, err := repo.ClaimDue(ctx, now, 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, created[0].ID, claimed[0].ID)
	assert.Equal(t, entity.DerivativeDispatching, claimed[0].Status())

	again, err := repo.ClaimDue(ctx, now, 15*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, again, "a claimed derivative is not handed out twice")

	_, err = repo.Claim(ctx, created[0].ID, now)
	assert.ErrorIs(t, err, entity.ErrInvalidState)

	reclaimed, err := repo.ClaimDue(ctx, now.Add(20*time.Minute), 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, created[0].ID, reclaimed[0].ID)
}

func TestPillarRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPillarRepository(newTestTier(t), logger.NewNop())

	p, _ := entity.NewPillar("acme", "Habits")
	require.NoError(t, repo.Create(ctx, p))
	q, _ := entity.NewPillar("globex", "Money")
	require.NoError(t, repo.Create(ctx, q))

	assert.True(t, strings.HasPrefix(p.ID, "pillar_"))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Habits", got.Name)

	list, _ := repo.List(ctx, "acme")
	assert.Len(t, list, 1)
	all, _ := repo.List(ctx, "")
	assert.Len(t, all, 2)
}
