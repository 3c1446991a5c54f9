package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"content-engine/services/content/internal/entity"
)

var errMalformed = errors.New("malformed generator response")

// HTTPClient calls a generation service that speaks JSON over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("generator %s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

func (c *HTTPClient) ExpandIdea(ctx context.Context, rawIdea string, client ClientContext, cta *entity.CTA) (*ExpandResult, error) {
	var out ExpandResult
	err := c.post(ctx, "/expand", map[string]interface{}{
		"raw_idea": rawIdea,
		"client":   client,
		"cta":      cta,
	}, &out)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.Content) == "" {
		return nil, fmt.Errorf("%w: empty content", errMalformed)
	}
	if out.WordCount == 0 {
		out.WordCount = len(strings.Fields(out.Content))
	}
	return &out, nil
}

func (c *HTTPClient) GenerateArchiveVersion(ctx context.Context, content string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.post(ctx, "/archive", map[string]string{"content": content}, &out); err != nil {
		return "", err
	}
	if out.Content == "" {
		return "", fmt.Errorf("%w: empty archive version", errMalformed)
	}
	return out.Content, nil
}

func (c *HTTPClient) GenerateBlogVersion(ctx context.Context, content string) (*BlogResult, error) {
	var out BlogResult
	if err := c.post(ctx, "/blog", map[string]string{"content": content}, &out); err != nil {
		return nil, err
	}
	if out.Content == "" {
		return nil, fmt.Errorf("%w: empty blog version", errMalformed)
	}
	return &out, nil
}

func (c *HTTPClient) GenerateSocialPosts(ctx context.Context, content string, platforms []string, settings map[string]PlatformSettings, cta *entity.CTA) (map[string][]SocialPost, error) {
	out := map[string][]SocialPost{}
	err := c.post(ctx, "/social", map[string]interface{}{
		"content":   content,
		"platforms": platforms,
		"settings":  settings,
		"cta":       cta,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GenerateTelegramAnnouncement(ctx context.Context, content string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := c.post(ctx, "/telegram-announcement", map[string]string{"content": content}, &out); err != nil {
		return "", err
	}
	text := strings.TrimSpace(out.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty announcement", errMalformed)
	}
	if r := []rune(text); len(r) > AnnouncementMaxChars {
		text = string(r[:AnnouncementMaxChars])
	}
	return text, nil
}
