package persistent

import (
	"context"
	"sort"
	"time"

	"content-engine/pkg/logger"
	"content-engine/pkg/storage"
	"content-engine/services/content/internal/entity"
)

type DerivativeFilter struct {
	PostID string
	Status entity.DerivativeStatus
	Type   entity.DerivativeType
}

func (f DerivativeFilter) match(d *entity.Derivative) bool {
	if f.PostID != "" && d.PostID != f.PostID {
		return false
	}
	if f.Status != "" && d.Metadata.Status != f.Status {
		return false
	}
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	return true
}

type DerivativeRepository interface {
	// CreateBatch stores new derivatives for postID and returns those created.
	// A newsletter is skipped when the post already has one.
	CreateBatch(ctx context.Context, postID string, derivatives []*entity.Derivative) ([]*entity.Derivative, error)
	GetByID(ctx context.Context, id string) (*entity.Derivative, error)
	List(ctx context.Context, filter DerivativeFilter) ([]*entity.Derivative, error)
	Update(ctx context.Context, id string, mutate func(*entity.Derivative) error) (*entity.Derivative, error)
	// UpdateWhere applies mutate to every match and saves once. mutate reports
	// whether it changed the derivative; only changed ones are returned.
	UpdateWhere(ctx context.Context, filter DerivativeFilter, mutate func(*entity.Derivative) bool) ([]*entity.Derivative, error)
	// ClaimDue moves every due queued derivative to dispatching. Claims older
	// than lease are released first so they can be picked up again.
	ClaimDue(ctx context.Context, now time.Time, lease time.Duration) ([]*entity.Derivative, error)
	Claim(ctx context.Context, id string, now time.Time) (*entity.Derivative, error)
}

type derivativeRepository struct {
	derivatives *collection[entity.Derivative]
	logger      *logger.Logger
	now         func() time.Time
}

func NewDerivativeRepository(tier *storage.Tier, log *logger.Logger) DerivativeRepository {
	return &derivativeRepository{
		derivatives: &collection[entity.Derivative]{
			name:   derivativesCollection,
			tier:   tier,
			logger: log,
			encode: encodeDerivative,
			decode: decodeDerivative,
		},
		logger: log,
		now:    time.Now,
	}
}

func (r *derivativeRepository) CreateBatch(ctx context.Context, postID string, derivatives []*entity.Derivative) ([]*entity.Derivative, error) {
	r.derivatives.mu.Lock()
	defer r.derivatives.mu.Unlock()

	all := r.derivatives.loadAll(ctx)
	hasNewsletter := false
	for _, d := range all {
		if d.PostID == postID && d.Type == entity.TypeNewsletter {
			hasNewsletter = true
			break
		}
	}

	now := r.now().UTC()
	created := make([]*entity.Derivative, 0, len(derivatives))
	for _, d := range derivatives {
		if d.Type == entity.TypeNewsletter {
			if hasNewsletter {
				r.logger.Info("[REPO] post %s already has a newsletter, skipping", postID)
				continue
			}
			hasNewsletter = true
		}
		d.ID = newID("deriv_")
		d.PostID = postID
		d.CreatedAt = now
		d.UpdatedAt = now
		if d.EngagementMetrics == nil {
			d.EngagementMetrics = map[string]interface{}{}
		}
		created = append(created, d)
	}
	if len(created) == 0 {
		return created, nil
	}

	if err := r.derivatives.saveAll(ctx, append(all, created...)); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *derivativeRepository) GetByID(ctx context.Context, id string) (*entity.Derivative, error) {
	d, ok := r.derivatives.get(ctx, id)
	if !ok {
		return nil, entity.NotFound("derivative", id)
	}
	return d, nil
}

func (r *derivativeRepository) List(ctx context.Context, filter DerivativeFilter) ([]*entity.Derivative, error) {
	var out []*entity.Derivative
	for _, d := range r.derivatives.loadAll(ctx) {
		if filter.match(d) {
			out = append(out, d)
		}
	}
	sortNewestFirst(out,
		func(d *entity.Derivative) time.Time { return d.CreatedAt },
		func(d *entity.Derivative) string { return d.ID })
	return out, nil
}

func (r *derivativeRepository) Update(ctx context.Context, id string, mutate func(*entity.Derivative) error) (*entity.Derivative, error) {
	r.derivatives.mu.Lock()
	defer r.derivatives.mu.Unlock()

	all := r.derivatives.loadAll(ctx)
	for _, d := range all {
		if d.ID != id {
			continue
		}
		if err := mutate(d); err != nil {
			return nil, err
		}
		d.UpdatedAt = r.now().UTC()
		if err := r.derivatives.saveAll(ctx, all); err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, entity.NotFound("derivative", id)
}

func (r *derivativeRepository) UpdateWhere(ctx context.Context, filter DerivativeFilter, mutate func(*entity.Derivative) bool) ([]*entity.Derivative, error) {
	r.derivatives.mu.Lock()
	defer r.derivatives.mu.Unlock()

	all := r.derivatives.loadAll(ctx)
	now := r.now().UTC()
	var changed []*entity.Derivative
	for _, d := range all {
		if !filter.match(d) {
			continue
		}
		if mutate(d) {
			d.UpdatedAt = now
			changed = append(changed, d)
		}
	}
	if len(changed) == 0 {
		return nil, nil
	}

	if err := r.derivatives.saveAll(ctx, all); err != nil {
		return nil, err
	}
	return changed, nil
}

func (r *derivativeRepository) ClaimDue(ctx context.Context, now time.Time, lease time.Duration) ([]*entity.Derivative, error) {
	r.derivatives.mu.Lock()
	defer r.derivatives.mu.Unlock()

	all := r.derivatives.loadAll(ctx)
	dirty := false
	var claimed []*entity.Derivative
	for _, d := range all {
		if lease > 0 && d.ClaimExpired(now, lease) {
			r.logger.Warn("[REPO] dispatch claim on %s expired, requeueing", d.ID)
			_ = d.ReleaseClaim()
			d.UpdatedAt = now.UTC()
			dirty = true
		}
		if !d.IsDue(now) {
			continue
		}
		if err := d.Claim(now); err != nil {
			continue
		}
		d.UpdatedAt = now.UTC()
		claimed = append(claimed, d)
		dirty = true
	}
	if !dirty {
		return nil, nil
	}

	if err := r.derivatives.saveAll(ctx, all); err != nil {
		return nil, err
	}
	sortDueFirst(claimed)
	return claimed, nil
}

func (r *derivativeRepository) Claim(ctx context.Context, id string, now time.Time) (*entity.Derivative, error) {
	return r.Update(ctx, id, func(d *entity.Derivative) error {
		return d.Claim(now)
	})
}

func sortDueFirst(items []*entity.Derivative) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].ScheduledFor.Before(*items[j].ScheduledFor)
	})
}
