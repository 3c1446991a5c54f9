package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

type Block struct {
	Type    string `json:"type"`
	Level   int    `json:"level,omitempty"`
	Content string `json:"content"`
	Bold    bool   `json:"bold,omitempty"`
}

const (
	BlockHeading   = "heading"
	BlockParagraph = "paragraph"
	BlockBullet    = "bullet"
)

var (
	numberedItem = regexp.MustCompile(`^\d+\.\s*`)
	bulletPrefix = regexp.MustCompile(`^[-*]\s+`)
)

// ToBlocks converts markdown-ish text into newsletter blocks. Text with no
// recognisable structure becomes a single paragraph.
func ToBlocks(content string) []Block {
	var blocks []Block
	var paragraph []string

	flush := func() {
		if len(paragraph) > 0 {
			blocks = append(blocks, Block{Type: BlockParagraph, Content: strings.Join(paragraph, "\n")})
			paragraph = nil
		}
	}

	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#"):
			flush()
			text := strings.TrimLeft(line, "#")
			level := len(line) - len(text)
			if level > 3 {
				level = 3
			}
			if text = strings.TrimSpace(text); text != "" {
				blocks = append(blocks, Block{Type: BlockHeading, Level: level, Content: text})
			}
		case len(line) > 4 && strings.HasPrefix(line, "**") && strings.HasSuffix(line, "**"):
			flush()
			blocks = append(blocks, Block{Type: BlockParagraph, Content: strings.TrimSpace(strings.Trim(line, "*")), Bold: true})
		case bulletPrefix.MatchString(line):
			flush()
			blocks = append(blocks, Block{Type: BlockBullet, Content: bulletPrefix.ReplaceAllString(line, "")})
		case numberedItem.MatchString(line):
			flush()
			blocks = append(blocks, Block{Type: BlockBullet, Content: numberedItem.ReplaceAllString(line, "")})
		default:
			paragraph = append(paragraph, line)
		}
	}
	flush()

	if len(blocks) == 0 {
		blocks = append(blocks, Block{Type: BlockParagraph, Content: content})
	}
	return blocks
}

// NewsletterPublisher creates posts through the newsletter platform API.
type NewsletterPublisher struct {
	apiURL        string
	defaultAPIKey string
	http          *http.Client
}

func NewNewsletterPublisher(apiURL, defaultAPIKey string) *NewsletterPublisher {
	return &NewsletterPublisher{
		apiURL:        strings.TrimRight(apiURL, "/"),
		defaultAPIKey: defaultAPIKey,
		http:          &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *NewsletterPublisher) Publish(ctx context.Context, target Target) Result {
	d := target.Derivative

	var pubID, apiKey string
	if target.Client != nil {
		pubID = target.Client.Newsletter.PublicationID
		apiKey = target.Client.Newsletter.APIKey
	}
	if apiKey == "" {
		apiKey = p.defaultAPIKey
	}
	if pubID == "" || apiKey == "" {
		return Failure("newsletter credentials not configured")
	}

	title := d.Metadata.Subject
	if title == "" && target.Post != nil {
		title = target.Post.Title()
	}

	body, err := json.Marshal(map[string]interface{}{
		"title":  title,
		"blocks": ToBlocks(d.Content),
	})
	if err != nil {
		return Failure("encode newsletter: %v", err)
	}

	url := fmt.Sprintf("%s/publications/%s/posts", p.apiURL, pubID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Failure("build newsletter request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.http.Do(req)
	if err != nil {
		return Failure("newsletter API unreachable: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &apiErr)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return Failure("newsletter API error: %d - %s", resp.StatusCode, apiErr.Message)
	}

	var created struct {
		ID     string `json:"id"`
		URL    string `json:"url"`
		WebURL string `json:"web_url"`
		Data   struct {
			ID     string `json:"id"`
			WebURL string `json:"web_url"`
		} `json:"data"`
	}
	_ = json.Unmarshal(raw, &created)

	published := created.URL
	if published == "" {
		published = created.WebURL
	}
	if published == "" {
		published = created.Data.WebURL
	}
	return Result{Success: true, PublishedURL: published, Message: "newsletter published"}
}
