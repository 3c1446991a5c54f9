// Package generator is the boundary to the external content generation
// service. The pipeline depends only on the Generator interface.
package generator

import (
	"context"

	"content-engine/services/content/internal/entity"
)

// AnnouncementMaxChars bounds chat announcements.
const AnnouncementMaxChars = 200

type ClientContext struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name,omitempty"`
	Voice    string `json:"voice,omitempty"`
}

type ExpandResult struct {
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Checks    map[string]bool `json:"checks"`
	WordCount int             `json:"word_count"`
}

type BlogResult struct {
	Content        string                 `json:"content"`
	StructuredData map[string]interface{} `json:"structured_data"`
}

type SocialPost struct {
	Content     string   `json:"content"`
	Type        string   `json:"type"`
	ThreadParts []string `json:"thread_parts,omitempty"`
	Slides      []string `json:"slides,omitempty"`
}

type PlatformSettings struct {
	PostCount int    `json:"post_count"`
	Voice     string `json:"voice,omitempty"`
}

type Generator interface {
	ExpandIdea(ctx context.Context, rawIdea string, client ClientContext, cta *entity.CTA) (*ExpandResult, error)
	GenerateArchiveVersion(ctx context.Context, content string) (string, error)
	GenerateBlogVersion(ctx context.Context, content string) (*BlogResult, error)
	GenerateSocialPosts(ctx context.Context, content string, platforms []string, settings map[string]PlatformSettings, cta *entity.CTA) (map[string][]SocialPost, error)
	GenerateTelegramAnnouncement(ctx context.Context, content string) (string, error)
}
