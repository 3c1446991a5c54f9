package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"content-engine/pkg/logger"
	"content-engine/pkg/queue"
	"content-engine/services/content/internal/clients"
	"content-engine/services/content/internal/entity"
	"content-engine/services/content/internal/scheduler"
	"content-engine/services/content/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPipeline struct {
	usecase.PipelineUseCase

	sweeps   []time.Time
	sweepErr error
	digestOf map[string]time.Time
}

func (s *stubPipeline) PublishQueuedDerivatives(_ context.Context, now time.Time) (*usecase.SweepResult, error) {
	s.sweeps = append(s.sweeps, now)
	if s.sweepErr != nil {
		return nil, s.sweepErr
	}
	return &usecase.SweepResult{Errors: []string{"d1 (x): boom"}}, nil
}

func (s *stubPipeline) ClientDigest(_ context.Context, clientID string, since time.Time) (string, error) {
	if s.digestOf == nil {
		s.digestOf = map[string]time.Time{}
	}
	s.digestOf[clientID] = since
	return "Content report for " + clientID, nil
}

type sentMessage struct {
	chatID string
	text   string
}

type stubNotifier struct {
	configured bool
	err        error
	sent       []sentMessage
}

func (n *stubNotifier) Configured() bool { return n.configured }

func (n *stubNotifier) Send(_ context.Context, chatID, text string) (int64, error) {
	if n.err != nil {
		return 0, n.err
	}
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return int64(len(n.sent)), nil
}

func newTestJobs(notifier *stubNotifier, list ...entity.Client) (*Jobs, *stubPipeline) {
	pipeline := &stubPipeline{}
	return &Jobs{
		Pipeline:      pipeline,
		Clients:       clients.FromClients(list...),
		Notifier:      notifier,
		SweepInterval: 5 * time.Minute,
		Log:           logger.NewNop(),
	}, pipeline
}

func TestJobs_ResyncRegistersSweepAndReports(t *testing.T) {
	jobs, _ := newTestJobs(&stubNotifier{},
		entity.Client{ID: "acme", Report: entity.ReportSettings{Frequency: "daily", Time: "08:30"}},
		entity.Client{ID: "paused", Status: "paused"},
		entity.Client{ID: "broken", Report: entity.ReportSettings{Frequency: "hourly"}},
		entity.Client{ID: "weekly"},
	)
	s := scheduler.New(time.Minute, logger.NewNop())

	require.NoError(t, jobs.Resync(s))

	assert.ElementsMatch(t, []string{"sweep", "client:acme", "client:weekly"}, s.Tags())
	_, ok := s.NextRun("client:broken")
	assert.False(t, ok)
}

func TestJobs_ResyncThroughSchedulerReplacesJobs(t *testing.T) {
	jobs, _ := newTestJobs(&stubNotifier{}, entity.Client{ID: "acme"})
	s := scheduler.New(time.Minute, logger.NewNop())
	s.OnResync(jobs.Resync)

	require.NoError(t, s.Sync())
	require.NoError(t, s.Sync())

	assert.ElementsMatch(t, []string{"sweep", "client:acme"}, s.Tags())
}

func TestJobs_Sweep(t *testing.T) {
	jobs, pipeline := newTestJobs(&stubNotifier{})
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, jobs.sweep(context.Background(), now))
	assert.Equal(t, []time.Time{now}, pipeline.sweeps)

	pipeline.sweepErr = errors.New("storage down")
	assert.Error(t, jobs.sweep(context.Background(), now))
}

func TestJobs_ReportSentToClientChat(t *testing.T) {
	notifier := &stubNotifier{configured: true}
	jobs, pipeline := newTestJobs(notifier, entity.Client{ID: "acme", ChatID: "-100"})
	now := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	err := jobs.report("acme", 7*24*time.Hour)(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, now.Add(-7*24*time.Hour), pipeline.digestOf["acme"])
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "-100", notifier.sent[0].chatID)
	assert.Equal(t, "Content report for acme", notifier.sent[0].text)
}

func TestJobs_ReportWithoutChatIsOnlyLogged(t *testing.T) {
	notifier := &stubNotifier{configured: true}
	jobs, pipeline := newTestJobs(notifier, entity.Client{ID: "acme"})

	err := jobs.report("acme", 24*time.Hour)(context.Background(), time.Now())

	require.NoError(t, err)
	assert.Contains(t, pipeline.digestOf, "acme")
	assert.Empty(t, notifier.sent)
}

func TestJobs_ReportUnconfiguredNotifier(t *testing.T) {
	notifier := &stubNotifier{configured: false}
	jobs, _ := newTestJobs(notifier, entity.Client{ID: "acme", ChatID: "-100"})

	require.NoError(t, jobs.report("acme", 24*time.Hour)(context.Background(), time.Now()))
	assert.Empty(t, notifier.sent)
}

func TestJobs_AlertFailure(t *testing.T) {
	notifier := &stubNotifier{configured: true}
	jobs, _ := newTestJobs(notifier, entity.Client{ID: "acme", ChatID: "-100"})

	err := jobs.AlertFailure(context.Background(), queue.Event{
		Type:         queue.EventDerivativePublished,
		DerivativeID: "d1",
		ClientID:     "acme",
	})
	require.NoError(t, err)
	assert.Empty(t, notifier.sent)

	err = jobs.AlertFailure(context.Background(), queue.Event{
		Type:         queue.EventDerivativeFailed,
		DerivativeID: "d2",
		PostID:       "p1",
		ClientID:     "acme",
		Platform:     "linkedin",
		Message:      "rate limited",
	})
	require.NoError(t, err)
	require.Len(t, notifier.sent, 1)
	assert.Contains(t, notifier.sent[0].text, "linkedin")
	assert.Contains(t, notifier.sent[0].text, "d2")
	assert.Contains(t, notifier.sent[0].text, "rate limited")
}

func TestJobs_AlertFailureSendError(t *testing.T) {
	notifier := &stubNotifier{configured: true, err: errors.New("chat not found")}
	jobs, _ := newTestJobs(notifier, entity.Client{ID: "acme", ChatID: "-100"})

	err := jobs.AlertFailure(context.Background(), queue.Event{Type: queue.EventDerivativeFailed, ClientID: "acme"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func writeClients(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestJobs_RefreshReregistersChangedClients(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.yaml")
	writeClients(t, path, `
clients:
  - client_id: acme
    report_settings:
      frequency: daily
      time: "08:00"
      timezone: UTC
  - client_id: globex
    report_settings:
      frequency: weekly
`)
	registry, err := clients.Load(path, logger.NewNop())
	require.NoError(t, err)

	jobs := &Jobs{
		Pipeline:        &stubPipeline{},
		Clients:         registry,
		Notifier:        &stubNotifier{},
		SweepInterval:   5 * time.Minute,
		RefreshInterval: 10 * time.Minute,
		Log:             logger.NewNop(),
	}
	s := scheduler.New(time.Minute, logger.NewNop())
	require.NoError(t, jobs.Resync(s))
	assert.ElementsMatch(t, []string{"sweep", "clients", "client:acme", "client:globex"}, s.Tags())

	next, ok := s.NextRun("client:acme")
	require.True(t, ok)
	assert.Equal(t, 8, next.UTC().Hour())

	writeClients(t, path, `
clients:
  - client_id: acme
    report_settings:
      frequency: daily
      time: "10:00"
      timezone: UTC
  - client_id: initech
    report_settings:
      frequency: daily
`)
	require.NoError(t, jobs.Refresh(s))

	assert.ElementsMatch(t, []string{"sweep", "clients", "client:acme", "client:initech"}, s.Tags())
	next, ok = s.NextRun("client:acme")
	require.True(t, ok)
	assert.Equal(t, 10, next.UTC().Hour())

	require.NoError(t, jobs.Refresh(s))
	assert.Equal(t, 1, s.Clear("client:acme"))
	assert.Equal(t, 1, s.Clear("client:initech"))
}

func TestJobs_RefreshKeepsJobsWhenFileIsBroken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.yaml")
	writeClients(t, path, "clients:\n  - client_id: acme\n")
	registry, err := clients.Load(path, logger.NewNop())
	require.NoError(t, err)

	jobs := &Jobs{Pipeline: &stubPipeline{}, Clients: registry, SweepInterval: time.Minute, Log: logger.NewNop()}
	s := scheduler.New(time.Minute, logger.NewNop())
	require.NoError(t, jobs.Resync(s))

	writeClients(t, path, "clients: [\n")
	assert.Error(t, jobs.Refresh(s))
	assert.ElementsMatch(t, []string{"sweep", "client:acme"}, s.Tags())
}
