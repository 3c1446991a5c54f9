package generator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"content-engine/services/content/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", 5*time.Second)
}

func TestExpandIdea(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/expand", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "5 habits", body["raw_idea"])
		assert.NotNil(t, body["cta"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"title":   "5 Habits",
			"content": "one two three",
			"checks":  map[string]bool{"hook": true},
		})
	})

	out, err := client.ExpandIdea(context.Background(), "5 habits", ClientContext{ClientID: "acme"}, &entity.CTA{Text: "Join", URL: "https://acme.test"})
	require.NoError(t, err)
	assert.Equal(t, "5 Habits", out.Title)
	assert.Equal(t, 3, out.WordCount)
	assert.True(t, out.Checks["hook"])
}

func TestExpandIdea_Errors(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unauthorized", http.StatusUnauthorized)
	})
	_, err := client.ExpandIdea(context.Background(), "idea", ClientContext{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	malformed := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})
	_, err = malformed.ExpandIdea(context.Background(), "idea", ClientContext{}, nil)
	assert.ErrorIs(t, err, errMalformed)

	empty := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title":"x","content":""}`))
	})
	_, err = empty.ExpandIdea(context.Background(), "idea", ClientContext{}, nil)
	assert.ErrorIs(t, err, errMalformed)
}

func TestExpandIdea_ContextTimeout(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.ExpandIdea(ctx, "idea", ClientContext{}, nil)
	assert.Error(t, err)
}

func TestGenerateSocialPosts(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/social", r.URL.Path)
		w.Write([]byte(`{"x":[{"content":"a","type":"thread","thread_parts":["a1","a2"]}]}`))
	})

	out, err := client.GenerateSocialPosts(context.Background(), "body", []string{"x"}, map[string]PlatformSettings{"x": {PostCount: 1}}, nil)
	require.NoError(t, err)
	require.Len(t, out["x"], 1)
	assert.Equal(t, []string{"a1", "a2"}, out["x"][0].ThreadParts)
}

func TestBranchVersions(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/archive":
			w.Write([]byte(`{"content":"chapter text"}`))
		case "/blog":
			w.Write([]byte(`{"content":"blog text","structured_data":{"slug":"five-habits"}}`))
		}
	})

	archive, err := client.GenerateArchiveVersion(context.Background(), "center")
	require.NoError(t, err)
	assert.Equal(t, "chapter text", archive)

	blog, err := client.GenerateBlogVersion(context.Background(), "center")
	require.NoError(t, err)
	assert.Equal(t, "five-habits", blog.StructuredData["slug"])
}

func TestGenerateTelegramAnnouncement_Truncates(t *testing.T) {
	long := strings.Repeat("é", AnnouncementMaxChars+50)
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content": long})
	})

	text, err := client.GenerateTelegramAnnouncement(context.Background(), "body")
	require.NoError(t, err)
	assert.Equal(t, AnnouncementMaxChars, len([]rune(text)))
}
