package persistent

import (
	"encoding/json"
	"fmt"
	"time"

	"content-engine/pkg/storage"
	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/model"
)

func ToPostEntity(m *model.PostModel) (*entity.Post, error) {
	if m == nil {
		return nil, nil
	}
	status := entity.PostStatus(m.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("post %s: unknown status %q", m.ID, m.Status)
	}

	post := &entity.Post{
		ID:                  m.ID,
		ClientID:            m.ClientID,
		Status:              status,
		RawIdea:             m.RawIdea,
		PillarID:            m.PillarID,
		IncludeCTA:          m.IncludeCTA,
		TimeInvestedMinutes: m.TimeInvestedMinutes,
		Error:               m.Error,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
	if c := m.CenterPost; c != nil {
		post.CenterPost = &entity.CenterPost{
			Title:     c.Title,
			Content:   c.Content,
			WordCount: c.WordCount,
			Checks:    c.Checks,
		}
	}
	if a := m.ArchiveVersion; a != nil {
		post.ArchiveVersion = &entity.ArchiveVersion{
			Content:       a.Content,
			ChapterNumber: a.ChapterNumber,
			GeneratedAt:   a.GeneratedAt,
		}
	}
	if b := m.BlogVersion; b != nil {
		post.BlogVersion = &entity.BlogVersion{
			Content:        b.Content,
			StructuredData: b.StructuredData,
			GeneratedAt:    b.GeneratedAt,
		}
	}
	return post, nil
}

func ToPostModel(e *entity.Post) *model.PostModel {
	if e == nil {
		return nil
	}

	m := &model.PostModel{
		ID:                  e.ID,
		ClientID:            e.ClientID,
		Status:              string(e.Status),
		RawIdea:             e.RawIdea,
		PillarID:            e.PillarID,
		IncludeCTA:          e.IncludeCTA,
		TimeInvestedMinutes: e.TimeInvestedMinutes,
		Error:               e.Error,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
	if c := e.CenterPost; c != nil {
		m.CenterPost = &model.CenterPostModel{
			Title:     c.Title,
			Content:   c.Content,
			WordCount: c.WordCount,
			Checks:    c.Checks,
		}
	}
	if a := e.ArchiveVersion; a != nil {
		m.ArchiveVersion = &model.ArchiveVersionModel{
			Content:       a.Content,
			ChapterNumber: a.ChapterNumber,
			GeneratedAt:   a.GeneratedAt,
		}
	}
	if b := e.BlogVersion; b != nil {
		m.BlogVersion = &model.BlogVersionModel{
			Content:        b.Content,
			StructuredData: b.StructuredData,
			GeneratedAt:    b.GeneratedAt,
		}
	}
	return m
}

func ToDerivativeEntity(m *model.DerivativeModel) (*entity.Derivative, error) {
	if m == nil {
		return nil, nil
	}
	typ := entity.DerivativeType(m.Type)
	if !typ.Valid() {
		return nil, fmt.Errorf("derivative %s: unknown type %q", m.ID, m.Type)
	}
	status := entity.DerivativeStatus(m.Metadata.Status)
	if !status.Valid() {
		return nil, fmt.Errorf("derivative %s: unknown status %q", m.ID, m.Metadata.Status)
	}

	return &entity.Derivative{
		ID:      m.ID,
		PostID:  m.PostID,
		Type:    typ,
		Content: m.Content,
		Metadata: entity.DerivativeMetadata{
			Platform:     m.Metadata.Platform,
			Status:       status,
			PostNumber:   m.Metadata.PostNumber,
			PostType:     m.Metadata.PostType,
			Subject:      m.Metadata.Subject,
			ThreadParts:  m.Metadata.ThreadParts,
			Slides:       m.Metadata.Slides,
			Error:        m.Metadata.Error,
			PublishedURL: m.Metadata.PublishedURL,
		},
		ScheduledFor:      m.ScheduledFor,
		PublishedAt:       m.PublishedAt,
		ClaimedAt:         m.ClaimedAt,
		EngagementMetrics: m.EngagementMetrics,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

func ToDerivativeModel(e *entity.Derivative) *model.DerivativeModel {
	if e == nil {
		return nil
	}
	metrics := e.EngagementMetrics
	if metrics == nil {
		metrics = map[string]interface{}{}
	}

	return &model.DerivativeModel{
		ID:      e.ID,
		PostID:  e.PostID,
		Type:    string(e.Type),
		Content: e.Content,
		Metadata: model.DerivativeMetaModel{
			Platform:     e.Metadata.Platform,
			Status:       string(e.Metadata.Status),
			PostNumber:   e.Metadata.PostNumber,
			PostType:     e.Metadata.PostType,
			Subject:      e.Metadata.Subject,
			ThreadParts:  e.Metadata.ThreadParts,
			Slides:       e.Metadata.Slides,
			Error:        e.Metadata.Error,
			PublishedURL: e.Metadata.PublishedURL,
		},
		ScheduledFor:      e.ScheduledFor,
		PublishedAt:       e.PublishedAt,
		ClaimedAt:         e.ClaimedAt,
		EngagementMetrics: metrics,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
}

func ToPillarEntity(m *model.PillarModel) *entity.Pillar {
	if m == nil {
		return nil
	}
	return &entity.Pillar{
		ID:             m.ID,
		ClientID:       m.ClientID,
		Name:           m.Name,
		Description:    m.Description,
		Color:          m.Color,
		Channels:       m.Channels,
		TargetAudience: m.TargetAudience,
		CreatedAt:      m.CreatedAt,
	}
}

func ToPillarModel(e *entity.Pillar) *model.PillarModel {
	if e == nil {
		return nil
	}
	return &model.PillarModel{
		ID:             e.ID,
		ClientID:       e.ClientID,
		Name:           e.Name,
		Description:    e.Description,
		Color:          e.Color,
		Channels:       e.Channels,
		TargetAudience: e.TargetAudience,
		CreatedAt:      e.CreatedAt,
	}
}

func encodePost(p *entity.Post) (storage.Record, error) {
	return encode(p.ID, ToPostModel(p), p.CreatedAt)
}

func decodePost(r storage.Record) (*entity.Post, error) {
	var m model.PostModel
	if err := json.Unmarshal(r.Data, &m); err != nil {
		return nil, err
	}
	return ToPostEntity(&m)
}

func encodeDerivative(d *entity.Derivative) (storage.Record, error) {
	return encode(d.ID, ToDerivativeModel(d), d.CreatedAt)
}

func decodeDerivative(r storage.Record) (*entity.Derivative, error) {
	var m model.DerivativeModel
	if err := json.Unmarshal(r.Data, &m); err != nil {
		return nil, err
	}
	return ToDerivativeEntity(&m)
}

func encodePillar(p *entity.Pillar) (storage.Record, error) {
	return encode(p.ID, ToPillarModel(p), p.CreatedAt)
}

func decodePillar(r storage.Record) (*entity.Pillar, error) {
	var m model.PillarModel
	if err := json.Unmarshal(r.Data, &m); err != nil {
		return nil, err
	}
	return ToPillarEntity(&m), nil
}

func encode(id string, v interface{}, createdAt time.Time) (storage.Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return storage.Record{}, fmt.Errorf("encode %s: %w", id, err)
	}
	return storage.Record{ID: id, CreatedAt: createdAt, Data: raw}, nil
}
