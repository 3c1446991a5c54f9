package usecase

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"content-engine/pkg/queue"
	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/generator"
)

type MockGenerator struct {
	mock.Mock
}

var _ generator.Generator = (*MockGenerator)(nil)

func (m *MockGenerator) ExpandIdea(ctx context.Context, rawIdea string, client generator.ClientContext, cta *entity.CTA) (*generator.ExpandResult, error) {
	args := m.Called(ctx, rawIdea, client, cta)
	if r, ok := args.Get(0).(*generator.ExpandResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGenerator) GenerateArchiveVersion(ctx context.Context, content string) (string, error) {
	args := m.Called(ctx, content)
	return args.String(0), args.Error(1)
}

func (m *MockGenerator) GenerateBlogVersion(ctx context.Context, content string) (*generator.BlogResult, error) {
	args := m.Called(ctx, content)
	if r, ok := args.Get(0).(*generator.BlogResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGenerator) GenerateSocialPosts(ctx context.Context, content string, platforms []string, settings map[string]generator.PlatformSettings, cta *entity.CTA) (map[string][]generator.SocialPost, error) {
	args := m.Called(ctx, content, platforms, settings, cta)
	if r, ok := args.Get(0).(map[string][]generator.SocialPost); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGenerator) GenerateTelegramAnnouncement(ctx context.Context, content string) (string, error) {
	args := m.Called(ctx, content)
	return args.String(0), args.Error(1)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []queue.Event
}

func (r *recordingEvents) PublishEvent(_ context.Context, event queue.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) snapshot() []queue.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]queue.Event(nil), r.events...)
}
