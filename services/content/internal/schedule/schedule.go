// Package schedule turns a schedule configuration and a derivative's ordinal
// into an absolute dispatch time. Everything here is pure.
package schedule

import (
	"time"

	"content-engine/services/content/internal/entity"
)

const DefaultStaggerHours = 24

// Config is the body of a schedule request. All timestamps are ISO-8601.
type Config struct {
	NewsletterSendAt   *time.Time `json:"newsletter_send_at,omitempty"`
	TelegramSendAt     *time.Time `json:"telegram_send_at,omitempty"`
	SocialStartAt      *time.Time `json:"social_start_at,omitempty"`
	SocialStaggerHours *int       `json:"social_stagger_hours,omitempty"`
}

// Stagger returns base + (postNumber-1) * staggerHours. Post numbers below 1
// are treated as 1.
func Stagger(base time.Time, postNumber, staggerHours int) time.Time {
	if postNumber < 1 {
		postNumber = 1
	}
	return base.Add(time.Duration(postNumber-1) * time.Duration(staggerHours) * time.Hour)
}

// StaggerHours returns the configured stagger, or the default when unset or negative.
func (c Config) StaggerHours() int {
	if c.SocialStaggerHours == nil || *c.SocialStaggerHours < 0 {
		return DefaultStaggerHours
	}
	return *c.SocialStaggerHours
}

// SocialBase is social_start_at, falling back to newsletter_send_at.
func (c Config) SocialBase() (time.Time, bool) {
	if c.SocialStartAt != nil {
		return *c.SocialStartAt, true
	}
	if c.NewsletterSendAt != nil {
		return *c.NewsletterSendAt, true
	}
	return time.Time{}, false
}

// ScheduledFor computes the dispatch time for a derivative of type typ with
// the given ordinal. ok is false when the config has no usable timestamp.
func ScheduledFor(c Config, typ entity.DerivativeType, postNumber int) (time.Time, bool) {
	switch typ {
	case entity.TypeNewsletter:
		if c.NewsletterSendAt == nil {
			return time.Time{}, false
		}
		return *c.NewsletterSendAt, true
	case entity.TypeTelegram:
		if c.TelegramSendAt == nil {
			return time.Time{}, false
		}
		return *c.TelegramSendAt, true
	}

	base, ok := c.SocialBase()
	if !ok {
		return time.Time{}, false
	}
	return Stagger(base, postNumber, c.StaggerHours()), true
}

// Empty reports whether no timestamp at all was supplied.
func (c Config) Empty() bool {
	return c.NewsletterSendAt == nil && c.TelegramSendAt == nil && c.SocialStartAt == nil
}
