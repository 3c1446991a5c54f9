package entity

import "time"

type DerivativeType string

const (
	TypeNewsletter DerivativeType = "newsletter"
	TypeTelegram   DerivativeType = "telegram"
	TypeLinkedIn   DerivativeType = "linkedin"
	TypeX          DerivativeType = "x"
	TypeThreads    DerivativeType = "threads"
	TypeInstagram  DerivativeType = "instagram"
	TypeSubstack   DerivativeType = "substack"
	TypePodcast    DerivativeType = "podcast"
)

// SocialTypes are generated through GenerateSocialPosts, one call per platform.
var SocialTypes = []DerivativeType{TypeLinkedIn, TypeX, TypeThreads, TypeInstagram, TypeSubstack}

// DefaultPlatforms is used when fan-out is called without a platform list.
var DefaultPlatforms = []DerivativeType{TypeLinkedIn, TypeX, TypeThreads, TypeInstagram, TypeSubstack, TypeTelegram}

func (t DerivativeType) Valid() bool {
	switch t {
	case TypeNewsletter, TypeTelegram, TypeLinkedIn, TypeX, TypeThreads, TypeInstagram, TypeSubstack, TypePodcast:
		return true
	}
	return false
}

func (t DerivativeType) IsSocial() bool {
	for _, s := range SocialTypes {
		if s == t {
			return true
		}
	}
	return false
}

type DerivativeStatus string

const (
	DerivativeDraft       DerivativeStatus = "draft"
	DerivativeApproved    DerivativeStatus = "approved"
	DerivativeQueued      DerivativeStatus = "queued"
	DerivativeDispatching DerivativeStatus = "dispatching"
	DerivativePublished   DerivativeStatus = "published"
	DerivativeFailed      DerivativeStatus = "failed"
)

func (s DerivativeStatus) Valid() bool {
	switch s {
	case DerivativeDraft, DerivativeApproved, DerivativeQueued, DerivativeDispatching, DerivativePublished, DerivativeFailed:
		return true
	}
	return false
}

type DerivativeMetadata struct {
	Platform     string           `json:"platform"`
	Status       DerivativeStatus `json:"status"`
	PostNumber   int              `json:"post_number,omitempty"`
	PostType     string           `json:"post_type,omitempty"`
	Subject      string           `json:"subject,omitempty"`
	ThreadParts  []string         `json:"thread_parts,omitempty"`
	Slides       []string         `json:"slides,omitempty"`
	Error        string           `json:"error,omitempty"`
	PublishedURL string           `json:"published_url,omitempty"`
}

// Derivative is a platform-specific artifact generated from a post.
//
// ScheduledFor is set exactly while the derivative is queued or dispatching;
// PublishedAt is set exactly when it is published.
type Derivative struct {
	ID                string                 `json:"id"`
	PostID            string                 `json:"post_id"`
	Type              DerivativeType         `json:"type"`
	Content           string                 `json:"content"`
	Metadata          DerivativeMetadata     `json:"metadata"`
	ScheduledFor      *time.Time             `json:"scheduled_for"`
	PublishedAt       *time.Time             `json:"published_at"`
	ClaimedAt         *time.Time             `json:"claimed_at,omitempty"`
	EngagementMetrics map[string]interface{} `json:"engagement_metrics"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

func (d *Derivative) Status() DerivativeStatus {
	return d.Metadata.Status
}

func (d *Derivative) invalid(action string) error {
	return &StateError{Kind: "derivative", ID: d.ID, Action: action, From: string(d.Metadata.Status)}
}

func (d *Derivative) Approve() error {
	if d.Metadata.Status != DerivativeDraft {
		return d.invalid("approve")
	}
	d.Metadata.Status = DerivativeApproved
	return nil
}

func (d *Derivative) Queue(at time.Time) error {
	if d.Metadata.Status != DerivativeApproved {
		return d.invalid("schedule")
	}
	at = at.UTC()
	d.ScheduledFor = &at
	d.Metadata.Status = DerivativeQueued
	return nil
}

// Reschedule puts a failed derivative back in the queue.
func (d *Derivative) Reschedule(at time.Time) error {
	if d.Metadata.Status != DerivativeFailed {
		return d.invalid("reschedule")
	}
	at = at.UTC()
	d.ScheduledFor = &at
	d.Metadata.Status = DerivativeQueued
	d.Metadata.Error = ""
	return nil
}

// Claim reserves a queued derivative for one dispatcher.
func (d *Derivative) Claim(now time.Time) error {
	if d.Metadata.Status != DerivativeQueued {
		return d.invalid("dispatch")
	}
	now = now.UTC()
	d.ClaimedAt = &now
	d.Metadata.Status = DerivativeDispatching
	return nil
}

// ReleaseClaim returns an abandoned dispatch to the queue.
func (d *Derivative) ReleaseClaim() error {
	if d.Metadata.Status != DerivativeDispatching {
		return d.invalid("release")
	}
	d.ClaimedAt = nil
	d.Metadata.Status = DerivativeQueued
	return nil
}

func (d *Derivative) MarkPublished(now time.Time, url string) error {
	if d.Metadata.Status != DerivativeDispatching {
		return d.invalid("mark published")
	}
	now = now.UTC()
	d.PublishedAt = &now
	d.ScheduledFor = nil
	d.ClaimedAt = nil
	d.Metadata.Status = DerivativePublished
	d.Metadata.Error = ""
	d.Metadata.PublishedURL = url
	return nil
}

func (d *Derivative) MarkFailed(msg string) error {
	if d.Metadata.Status != DerivativeDispatching {
		return d.invalid("mark failed")
	}
	d.ScheduledFor = nil
	d.ClaimedAt = nil
	d.Metadata.Status = DerivativeFailed
	d.Metadata.Error = msg
	return nil
}

// IsDue reports whether a queued derivative's time has come.
func (d *Derivative) IsDue(now time.Time) bool {
	return d.Metadata.Status == DerivativeQueued &&
		d.ScheduledFor != nil &&
		!d.ScheduledFor.After(now)
}

// ClaimExpired reports whether a dispatch claim is older than lease.
func (d *Derivative) ClaimExpired(now time.Time, lease time.Duration) bool {
	return d.Metadata.Status == DerivativeDispatching &&
		d.ClaimedAt != nil &&
		!d.ClaimedAt.Add(lease).After(now)
}
