package clients

import (
	"os"
	"path/filepath"
	"testing"

	"content-engine/pkg/logger"
	"content-engine/services/content/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
clients:
  - client_id: acme
    name: Acme
    status: active
    chat_id: "-100123"
    brand:
      main_product:
        cta_text: Join the list
        cta_url: https://acme.test/join
      socials:
        x:
          post_count: 3
        linkedin:
          enabled: false
    newsletter:
      publication_id: pub_123
      api_key: secret
    report_settings:
      frequency: weekly
      day: friday
      time: "17:30"
      timezone: Europe/Berlin
  - client_id: globex
    name: Globex
    status: paused
`

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "clients.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	reg, err := Load(writeFile(t, sample), logger.NewNop())
	require.NoError(t, err)

	acme, ok := reg.Get("acme")
	require.True(t, ok)
	assert.Equal(t, "-100123", acme.ChatID)
	assert.Equal(t, 3, acme.PostCount("x"))
	assert.False(t, acme.PlatformEnabled("linkedin"))
	assert.Equal(t, "pub_123", acme.Newsletter.PublicationID)
	assert.Equal(t, "friday", acme.Report.Day)
	assert.Equal(t, "17:30", acme.Report.Time)
	assert.Equal(t, &entity.CTA{Text: "Join the list", URL: "https://acme.test/join"}, acme.CTA())

	active := reg.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "acme", active[0].ID)

	_, ok = reg.Get("initech")
	assert.False(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	reg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), logger.NewNop())
	require.NoError(t, err)
	assert.Empty(t, reg.Active())
}

func TestReload_KeepsPreviousOnError(t *testing.T) {
	path := writeFile(t, sample)
	reg, err := Load(path, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("clients:\n  - name: no id\n"), 0o644))
	assert.Error(t, reg.Reload())

	_, ok := reg.Get("acme")
	assert.True(t, ok)
}

func TestFromClients(t *testing.T) {
	reg := FromClients(entity.Client{ID: "acme"}, entity.Client{ID: "globex", Status: "inactive"})
	assert.Len(t, reg.Active(), 1)
	assert.NoError(t, reg.Reload())
}
