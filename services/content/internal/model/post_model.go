package model

import "time"

// PostModel is the persisted JSON shape of a post.
type PostModel struct {
	ID                  string               `json:"id"`
	ClientID            string               `json:"client_id"`
	Status              string               `json:"status"`
	RawIdea             string               `json:"raw_idea"`
	PillarID            string               `json:"pillar_id,omitempty"`
	IncludeCTA          bool                 `json:"include_cta"`
	TimeInvestedMinutes int                  `json:"time_invested_minutes,omitempty"`
	CenterPost          *CenterPostModel     `json:"center_post,omitempty"`
	ArchiveVersion      *ArchiveVersionModel `json:"archive_version,omitempty"`
	BlogVersion         *BlogVersionModel    `json:"blog_version,omitempty"`
	Error               string               `json:"error,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

type CenterPostModel struct {
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	WordCount int             `json:"word_count"`
	Checks    map[string]bool `json:"checks,omitempty"`
}

type ArchiveVersionModel struct {
	Content       string    `json:"content"`
	ChapterNumber int       `json:"chapter_number"`
	GeneratedAt   time.Time `json:"generated_at"`
}

type BlogVersionModel struct {
	Content        string                 `json:"content"`
	StructuredData map[string]interface{} `json:"structured_data,omitempty"`
	GeneratedAt    time.Time              `json:"generated_at"`
}
