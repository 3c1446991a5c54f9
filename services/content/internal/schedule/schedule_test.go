package schedule

import (
	"testing"
	"time"

	"content-engine/services/content/internal/entity"

	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestStagger(t *testing.T) {
	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		n, stagger int
		want       time.Time
	}{
		{1, 24, base},
		{2, 24, base.Add(24 * time.Hour)},
		{3, 24, base.Add(48 * time.Hour)},
		{4, 6, base.Add(18 * time.Hour)},
		{5, 0, base},
		{0, 24, base},
		{-3, 24, base},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Stagger(base, tc.n, tc.stagger), "n=%d stagger=%d", tc.n, tc.stagger)
	}
}

func TestStagger_OrderIndependent(t *testing.T) {
	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	forward := make([]time.Time, 10)
	for n := 1; n <= 10; n++ {
		forward[n-1] = Stagger(base, n, 12)
	}
	for n := 10; n >= 1; n-- {
		assert.Equal(t, forward[n-1], Stagger(base, n, 12))
	}
}

func TestScheduledFor(t *testing.T) {
	T := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	tg := T.Add(2 * time.Hour)
	social := T.Add(time.Hour)

	cfg := Config{NewsletterSendAt: &T, TelegramSendAt: &tg, SocialStartAt: &social, SocialStaggerHours: ptr(12)}

	at, ok := ScheduledFor(cfg, entity.TypeNewsletter, 0)
	assert.True(t, ok)
	assert.Equal(t, T, at)

	at, ok = ScheduledFor(cfg, entity.TypeTelegram, 0)
	assert.True(t, ok)
	assert.Equal(t, tg, at)

	at, ok = ScheduledFor(cfg, entity.TypeX, 3)
	assert.True(t, ok)
	assert.Equal(t, social.Add(24*time.Hour), at)

	at, ok = ScheduledFor(cfg, entity.TypePodcast, 1)
	assert.True(t, ok)
	assert.Equal(t, social, at)
}

func TestScheduledFor_Fallbacks(t *testing.T) {
	T := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	cfg := Config{NewsletterSendAt: &T}

	at, ok := ScheduledFor(cfg, entity.TypeLinkedIn, 2)
	assert.True(t, ok)
	assert.Equal(t, T.Add(24*time.Hour), at, "social base falls back to newsletter time, default stagger 24h")

	_, ok = ScheduledFor(cfg, entity.TypeTelegram, 0)
	assert.False(t, ok)

	_, ok = ScheduledFor(Config{}, entity.TypeX, 1)
	assert.False(t, ok)
	assert.True(t, Config{}.Empty())
}

func TestConfig_StaggerHours(t *testing.T) {
	assert.Equal(t, 24, Config{}.StaggerHours())
	assert.Equal(t, 24, Config{SocialStaggerHours: ptr(-1)}.StaggerHours())
	assert.Equal(t, 0, Config{SocialStaggerHours: ptr(0)}.StaggerHours())
	assert.Equal(t, 48, Config{SocialStaggerHours: ptr(48)}.StaggerHours())
}
