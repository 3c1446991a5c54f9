package model

import "time"

// DerivativeModel is the persisted JSON shape of a derivative.
type DerivativeModel struct {
	ID                string                 `json:"id"`
	PostID            string                 `json:"post_id"`
	Type              string                 `json:"type"`
	Content           string                 `json:"content"`
	Metadata          DerivativeMetaModel    `json:"metadata"`
	ScheduledFor      *time.Time             `json:"scheduled_for"`
	PublishedAt       *time.Time             `json:"published_at"`
	ClaimedAt         *time.Time             `json:"claimed_at,omitempty"`
	EngagementMetrics map[string]interface{} `json:"engagement_metrics"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at,omitempty"`
}

type DerivativeMetaModel struct {
	Platform     string   `json:"platform"`
	Status       string   `json:"status"`
	PostNumber   int      `json:"post_number,omitempty"`
	PostType     string   `json:"post_type,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	ThreadParts  []string `json:"thread_parts,omitempty"`
	Slides       []string `json:"slides,omitempty"`
	Error        string   `json:"error,omitempty"`
	PublishedURL string   `json:"published_url,omitempty"`
}
