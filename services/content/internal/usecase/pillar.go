package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/repo/persistent"
)

const defaultPerformanceDays = 30

type CreatePillarInput struct {
	ClientID       string
	Name           string
	Description    string
	Color          string
	Channels       []string
	TargetAudience string
}

func (uc *pipelineUseCase) CreatePillar(ctx context.Context, in CreatePillarInput) (*entity.Pillar, error) {
	pillar, err := entity.NewPillar(in.ClientID, in.Name)
	if err != nil {
		return nil, err
	}
	pillar.Description = in.Description
	pillar.Channels = in.Channels
	pillar.TargetAudience = in.TargetAudience
	if in.Color != "" {
		pillar.Color = in.Color
	}

	if err := uc.pillars.Create(ctx, pillar); err != nil {
		return nil, fmt.Errorf("failed to create pillar: %w", err)
	}
	uc.logger.Info("[PIPELINE] Created pillar %s (%s) for client %s", pillar.ID, pillar.Name, pillar.ClientID)
	return pillar, nil
}

func (uc *pipelineUseCase) ListPillars(ctx context.Context, clientID string) ([]*entity.Pillar, error) {
	return uc.pillars.List(ctx, clientID)
}

// PillarPerformance totals the output of posts tagged with the pillar and
// created in the last days days. Numeric engagement metrics are summed.
func (uc *pipelineUseCase) PillarPerformance(ctx context.Context, pillarID string, days int) (*entity.PillarPerformance, error) {
	pillar, err := uc.pillars.GetByID(ctx, pillarID)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultPerformanceDays
	}
	since := uc.now().UTC().AddDate(0, 0, -days)

	posts, err := uc.posts.List(ctx, persistent.PostFilter{PillarID: pillarID})
	if err != nil {
		return nil, err
	}
	postIDs := make(map[string]bool)
	for _, p := range posts {
		if !p.CreatedAt.Before(since) {
			postIDs[p.ID] = true
		}
	}

	perf := &entity.PillarPerformance{
		PillarID:   pillar.ID,
		Name:       pillar.Name,
		Since:      since,
		Posts:      len(postIDs),
		Engagement: make(map[string]float64),
	}
	if len(postIDs) == 0 {
		return perf, nil
	}

	derivatives, err := uc.derivatives.List(ctx, persistent.DerivativeFilter{})
	if err != nil {
		return nil, err
	}
	for _, d := range derivatives {
		if !postIDs[d.PostID] {
			continue
		}
		perf.Derivatives++
		switch d.Status() {
		case entity.DerivativePublished:
			perf.Published++
		case entity.DerivativeFailed:
			perf.Failed++
		}
		for k, v := range d.EngagementMetrics {
			if n, ok := toFloat(v); ok {
				perf.Engagement[k] += n
			}
		}
	}
	return perf, nil
}

// RecordEngagement merges metrics reported by a platform into the
// derivative's engagement map.
func (uc *pipelineUseCase) RecordEngagement(ctx context.Context, derivativeID string, metrics map[string]interface{}) (*entity.Derivative, error) {
	if len(metrics) == 0 {
		return nil, entity.Invalid("metrics are required")
	}
	return uc.derivatives.Update(ctx, derivativeID, func(d *entity.Derivative) error {
		if d.EngagementMetrics == nil {
			d.EngagementMetrics = make(map[string]interface{}, len(metrics))
		}
		for k, v := range metrics {
			d.EngagementMetrics[k] = v
		}
		return nil
	})
}

// ClientDigest renders a plain-text summary of a client's pipeline activity
// since the given time, for delivery to the client's chat.
func (uc *pipelineUseCase) ClientDigest(ctx context.Context, clientID string, since time.Time) (string, error) {
	client := uc.client(clientID)

	posts, err := uc.posts.List(ctx, persistent.PostFilter{ClientID: clientID})
	if err != nil {
		return "", err
	}

	owned := make(map[string]bool, len(posts))
	created := 0
	byStatus := make(map[entity.PostStatus]int)
	for _, p := range posts {
		owned[p.ID] = true
		if p.CreatedAt.Before(since) {
			continue
		}
		created++
		byStatus[p.Status]++
	}

	derivatives, err := uc.derivatives.List(ctx, persistent.DerivativeFilter{})
	if err != nil {
		return "", err
	}

	var published, failed, queued int
	var next *entity.Derivative
	for _, d := range derivatives {
		if !owned[d.PostID] {
			continue
		}
		switch d.Status() {
		case entity.DerivativePublished:
			if d.PublishedAt != nil && !d.PublishedAt.Before(since) {
				published++
			}
		case entity.DerivativeFailed:
			if !d.UpdatedAt.Before(since) {
				failed++
			}
		case entity.DerivativeQueued:
			queued++
			if d.ScheduledFor != nil && (next == nil || d.ScheduledFor.Before(*next.ScheduledFor)) {
				next = d
			}
		}
	}

	name := client.Name
	if name == "" {
		name = clientID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Content report for %s\n", name)
	fmt.Fprintf(&b, "Since %s\n\n", since.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Posts created: %d\n", created)
	for _, s := range sortedStatuses(byStatus) {
		fmt.Fprintf(&b, "  %s: %d\n", s, byStatus[s])
	}
	fmt.Fprintf(&b, "Derivatives published: %d\n", published)
	fmt.Fprintf(&b, "Derivatives failed: %d\n", failed)
	fmt.Fprintf(&b, "Queued: %d\n", queued)
	if next != nil {
		fmt.Fprintf(&b, "Next up: %s on %s at %s\n", next.Type, next.Metadata.Platform, next.ScheduledFor.UTC().Format(time.RFC3339))
	}
	return b.String(), nil
}

func sortedStatuses(m map[entity.PostStatus]int) []entity.PostStatus {
	out := make([]entity.PostStatus, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
