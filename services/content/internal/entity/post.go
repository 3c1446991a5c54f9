package entity

import (
	"strings"
	"time"
)

type PostStatus string

const (
	PostStatusIdea     PostStatus = "idea"
	PostStatusDrafted  PostStatus = "drafted"
	PostStatusBranched PostStatus = "branched"
	PostStatusApproved PostStatus = "approved"
	PostStatusFailed   PostStatus = "failed"
)

func (s PostStatus) Valid() bool {
	switch s {
	case PostStatusIdea, PostStatusDrafted, PostStatusBranched, PostStatusApproved, PostStatusFailed:
		return true
	}
	return false
}

type CenterPost struct {
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	WordCount int             `json:"word_count"`
	Checks    map[string]bool `json:"checks"`
}

type ArchiveVersion struct {
	Content       string    `json:"content"`
	ChapterNumber int       `json:"chapter_number"`
	GeneratedAt   time.Time `json:"generated_at"`
}

type BlogVersion struct {
	Content        string                 `json:"content"`
	StructuredData map[string]interface{} `json:"structured_data,omitempty"`
	GeneratedAt    time.Time              `json:"generated_at"`
}

type Post struct {
	ID                  string          `json:"id"`
	ClientID            string          `json:"client_id"`
	Status              PostStatus      `json:"status"`
	RawIdea             string          `json:"raw_idea"`
	PillarID            string          `json:"pillar_id,omitempty"`
	IncludeCTA          bool            `json:"include_cta"`
	TimeInvestedMinutes int             `json:"time_invested_minutes,omitempty"`
	CenterPost          *CenterPost     `json:"center_post,omitempty"`
	ArchiveVersion      *ArchiveVersion `json:"archive_version,omitempty"`
	BlogVersion         *BlogVersion    `json:"blog_version,omitempty"`
	Error               string          `json:"error,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// NewPost validates input and returns a post in the idea status. The id is
// assigned by the repository.
func NewPost(clientID, rawIdea, pillarID string, includeCTA bool) (*Post, error) {
	rawIdea = strings.TrimSpace(rawIdea)
	if rawIdea == "" {
		return nil, Invalid("raw_idea is required")
	}
	if strings.TrimSpace(clientID) == "" {
		return nil, Invalid("client_id is required")
	}
	return &Post{
		ClientID:   clientID,
		Status:     PostStatusIdea,
		RawIdea:    rawIdea,
		PillarID:   pillarID,
		IncludeCTA: includeCTA,
	}, nil
}

// Draft attaches the expanded center post. Only idea posts can be drafted.
func (p *Post) Draft(center CenterPost) error {
	if p.Status != PostStatusIdea {
		return &StateError{Kind: "post", ID: p.ID, Action: "expand", From: string(p.Status)}
	}
	p.CenterPost = &center
	p.Status = PostStatusDrafted
	p.Error = ""
	return nil
}

// RecordExpandFailure keeps the post in idea and stores the error text.
func (p *Post) RecordExpandFailure(msg string) error {
	if p.Status != PostStatusIdea {
		return &StateError{Kind: "post", ID: p.ID, Action: "record expansion failure on", From: string(p.Status)}
	}
	p.Error = msg
	return nil
}

// RecordError stores the last generation failure without changing status.
func (p *Post) RecordError(msg string) {
	p.Error = msg
}

// CanBranch reports whether the post has a center post to branch from.
func (p *Post) CanBranch() error {
	if p.CenterPost == nil {
		return &StateError{Kind: "post", ID: p.ID, Action: "branch", From: string(p.Status)}
	}
	return nil
}

// Branch sets both long-form variants. A post branched before keeps its chapter.
func (p *Post) Branch(archive ArchiveVersion, blog BlogVersion) error {
	if err := p.CanBranch(); err != nil {
		return err
	}
	if p.ArchiveVersion != nil && p.ArchiveVersion.ChapterNumber > 0 {
		archive.ChapterNumber = p.ArchiveVersion.ChapterNumber
	}
	p.ArchiveVersion = &archive
	p.BlogVersion = &blog
	p.Status = PostStatusBranched
	p.Error = ""
	return nil
}

// SourceContent is what derivatives are generated from: the blog version when
// present, else the center post.
func (p *Post) SourceContent() (string, bool) {
	if p.BlogVersion != nil && p.BlogVersion.Content != "" {
		return p.BlogVersion.Content, true
	}
	if p.CenterPost != nil && p.CenterPost.Content != "" {
		return p.CenterPost.Content, true
	}
	return "", false
}

// Title falls back to the raw idea for posts that were never expanded.
func (p *Post) Title() string {
	if p.CenterPost != nil && p.CenterPost.Title != "" {
		return p.CenterPost.Title
	}
	return p.RawIdea
}

func (p *Post) HasArchive() bool {
	return p.ArchiveVersion != nil
}
