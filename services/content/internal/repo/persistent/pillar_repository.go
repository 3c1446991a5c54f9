package persistent

import (
	"context"
	"time"

	"content-engine/pkg/logger"
	"content-engine/pkg/storage"
	"content-engine/services/content/internal/entity"
)

type PillarRepository interface {
	Create(ctx context.Context, pillar *entity.Pillar) error
	GetByID(ctx context.Context, id string) (*entity.Pillar, error)
	List(ctx context.Context, clientID string) ([]*entity.Pillar, error)
}

type pillarRepository struct {
	pillars *collection[entity.Pillar]
	now     func() time.Time
}

func NewPillarRepository(tier *storage.Tier, log *logger.Logger) PillarRepository {
	return &pillarRepository{
		pillars: &collection[entity.Pillar]{
			name:   pillarsCollection,
			tier:   tier,
			logger: log,
			encode: encodePillar,
			decode: decodePillar,
		},
		now: time.Now,
	}
}

func (r *pillarRepository) Create(ctx context.Context, pillar *entity.Pillar) error {
	r.pillars.mu.Lock()
	defer r.pillars.mu.Unlock()

	pillar.ID = newID("pillar_")
	pillar.CreatedAt = r.now().UTC()
	return r.pillars.saveAll(ctx, append(r.pillars.loadAll(ctx), pillar))
}

func (r *pillarRepository) GetByID(ctx context.Context, id string) (*entity.Pillar, error) {
	p, ok := r.pillars.get(ctx, id)
	if !ok {
		return nil, entity.NotFound("pillar", id)
	}
	return p, nil
}

func (r *pillarRepository) List(ctx context.Context, clientID string) ([]*entity.Pillar, error) {
	var out []*entity.Pillar
	for _, p := range r.pillars.loadAll(ctx) {
		if clientID == "" || p.ClientID == clientID {
			out = append(out, p)
		}
	}
	sortNewestFirst(out,
		func(p *entity.Pillar) time.Time { return p.CreatedAt },
		func(p *entity.Pillar) string { return p.ID })
	return out, nil
}
