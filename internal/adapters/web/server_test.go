package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/spam-stream/internal/adapters/cache"
	"github.com/mikey/spam-stream/internal/core"
	"github.com/mikey/spam-stream/internal/utils"
)

type memoryLoader struct {
	records []core.MessageRecord
	err     error
}

func (l *memoryLoader) Load(ctx context.Context) ([]core.MessageRecord, error) {
	return l.records, l.err
}

func (l *memoryLoader) Source() string { return "memory" }

func instantTimer(time.Duration) (<-chan time.Time, func()) {
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch, func() {}
}

func neverTimer(time.Duration) (<-chan time.Time, func()) {
	return nil, func() {}
}

type testServer struct {
	*Server
	sessions *cache.SessionCache
}

func newTestServer(t *testing.T, loader core.Loader, timer core.TimerFunc) *testServer {
	t.Helper()
	return newTestServerWithTTL(t, loader, timer, time.Hour, time.Hour)
}

func newTestServerWithTTL(t *testing.T, loader core.Loader, timer core.TimerFunc, ttl, cleanup time.Duration) *testServer {
	t.Helper()
	logger := zap.NewNop()
	sessions := cache.NewSessionCache(ttl, cleanup, logger)
	factory := func() (*core.Controller, error) {
		return core.NewController(
			core.DefaultStreamSettings(),
			loader,
			core.NewSimulatedScorer(rand.New(rand.NewSource(5))),
			utils.NewTextProcessor(logger),
			logger,
			core.WithTimer(timer),
		)
	}
	srv := NewServer(core.DefaultStreamSettings(), sessions, factory, "127.0.0.1:0", logger)
	t.Cleanup(sessions.Stop)
	return &testServer{Server: srv, sessions: sessions}
}

func sampleLoader() *memoryLoader {
	return &memoryLoader{records: []core.MessageRecord{
		{Sender: "a@x.com", Subject: "Win now", Body: "Click here. Get rich. Act fast.", Label: core.LabelSpam},
		{Sender: "bob@corp.com", Subject: "Lunch", Body: "See you at noon.", Label: core.LabelHam},
		{Sender: "promo@deals.biz", Subject: "Free", Body: "Free stuff. Really. No catch.", Label: core.LabelSpam},
	}}
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (s *testServer) createSession(t *testing.T) *core.Controller {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, status)

	var snap core.SessionSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.NotEmpty(t, snap.ID)
	assert.Equal(t, core.StateIdle, snap.State)

	ctrl, err := s.sessions.Get(snap.ID)
	require.NoError(t, err)
	return ctrl
}

func TestIndexServesDashboard(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), instantTimer)

	status, body := srv.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Real-Time Email Spam Detection")
}

func TestGetConfig(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), instantTimer)

	status, body := srv.do(t, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, status)

	var cfg map[string]float64
	require.NoError(t, json.Unmarshal(body, &cfg))
	assert.Equal(t, 0.7, cfg["threshold"])
	assert.Equal(t, 2.0, cfg["delay_seconds"])
	assert.Equal(t, 1.0, cfg["min_delay_seconds"])
	assert.Equal(t, 5.0, cfg["max_delay_seconds"])
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), instantTimer)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/sessions/nope"},
		{http.MethodPost, "/api/sessions/nope/start"},
		{http.MethodPost, "/api/sessions/nope/stop"},
		{http.MethodPost, "/api/sessions/nope/messages/0/toggle"},
		{http.MethodDelete, "/api/sessions/nope"},
		{http.MethodGet, "/ws/nope"},
	} {
		status, _ := srv.do(t, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, status, tc.path)
	}
}

func TestStreamRunsToCompletion(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), instantTimer)
	ctrl := srv.createSession(t)

	status, _ := srv.do(t, http.MethodPost, "/api/sessions/"+ctrl.ID()+"/start", "")
	require.Equal(t, http.StatusAccepted, status)
	ctrl.Wait()

	status, body := srv.do(t, http.MethodGet, "/api/sessions/"+ctrl.ID(), "")
	require.Equal(t, http.StatusOK, status)

	var snap core.SessionSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, core.StateCompleted, snap.State)
	require.Len(t, snap.Messages, 3)
	assert.True(t, snap.Messages[0].IsSpam)
	assert.False(t, snap.Messages[1].IsSpam)
	assert.Equal(t, "Click here. Get rich...", snap.Messages[0].Body)
}

func TestStartRejectsInvalidDelay(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), instantTimer)
	ctrl := srv.createSession(t)

	status, body := srv.do(t, http.MethodPost, "/api/sessions/"+ctrl.ID()+"/start", `{"delay_seconds": 9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(body), "delay")
	assert.Equal(t, core.StateIdle, ctrl.State())

	status, _ = srv.do(t, http.MethodPost, "/api/sessions/"+ctrl.ID()+"/start", `{"delay_seconds": 3}`)
	assert.Equal(t, http.StatusAccepted, status)
	ctrl.Wait()
	assert.Equal(t, 3*time.Second, ctrl.Settings().Delay)
}

func TestStartStopConflicts(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), neverTimer)
	ctrl := srv.createSession(t)
	base := "/api/sessions/" + ctrl.ID()

	status, _ := srv.do(t, http.MethodPost, base+"/stop", "")
	assert.Equal(t, http.StatusConflict, status)

	status, _ = srv.do(t, http.MethodPost, base+"/start", "")
	require.Equal(t, http.StatusAccepted, status)

	status, _ = srv.do(t, http.MethodPost, base+"/start", "")
	assert.Equal(t, http.StatusConflict, status)

	status, _ = srv.do(t, http.MethodPost, base+"/stop", "")
	assert.Equal(t, http.StatusAccepted, status)
	ctrl.Wait()
	assert.Equal(t, core.StateStopped, ctrl.State())

	snap := ctrl.Snapshot()
	assert.LessOrEqual(t, len(snap.Messages), 1)
}

func TestToggleAndExpand(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), instantTimer)
	ctrl := srv.createSession(t)
	base := "/api/sessions/" + ctrl.ID()

	status, _ := srv.do(t, http.MethodPost, base+"/messages/0/toggle", "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = srv.do(t, http.MethodPost, base+"/start", "")
	require.Equal(t, http.StatusAccepted, status)
	ctrl.Wait()
	before := ctrl.Snapshot().Messages[0]

	status, body := srv.do(t, http.MethodPost, base+"/messages/0/toggle", "")
	require.Equal(t, http.StatusOK, status)
	var view core.MessageView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.True(t, view.Expanded)
	assert.Equal(t, "Click here. Get rich. Act fast.", view.Body)
	assert.Equal(t, before.SpamScore, view.SpamScore)

	for i := 0; i < 2; i++ {
		status, body = srv.do(t, http.MethodPut, base+"/messages/0/expanded", `{"expanded": false}`)
		require.Equal(t, http.StatusOK, status)
		require.NoError(t, json.Unmarshal(body, &view))
		assert.Equal(t, before, view)
	}

	status, _ = srv.do(t, http.MethodPut, base+"/messages/0/expanded", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = srv.do(t, http.MethodPost, base+"/messages/abc/toggle", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = srv.do(t, http.MethodPost, base+"/messages/99/toggle", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestStartLoaderError(t *testing.T) {
	srv := newTestServer(t, &memoryLoader{err: errors.New("file vanished")}, instantTimer)
	ctrl := srv.createSession(t)

	status, body := srv.do(t, http.MethodPost, "/api/sessions/"+ctrl.ID()+"/start", "")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Contains(t, string(body), "file vanished")
	assert.Equal(t, core.StateIdle, ctrl.State())
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), instantTimer)
	ctrl := srv.createSession(t)

	status, _ := srv.do(t, http.MethodDelete, "/api/sessions/"+ctrl.ID(), "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = srv.do(t, http.MethodGet, "/api/sessions/"+ctrl.ID(), "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), instantTimer)
	ctrl := srv.createSession(t)

	status, _ := srv.do(t, http.MethodGet, "/ws/"+ctrl.ID(), "")
	assert.Equal(t, http.StatusUpgradeRequired, status)
}

func TestSessionLookupDoesNotAliasRequestBuffer(t *testing.T) {
	srv := newTestServer(t, sampleLoader(), instantTimer)
	ctrl := srv.createSession(t)
	base := "/api/sessions/" + ctrl.ID()
	other := "/api/sessions/" + strings.Repeat("z", len(ctrl.ID()))

	status, _ := srv.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, status)

	status, _ = srv.do(t, http.MethodGet, other, "")
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = srv.do(t, http.MethodPost, other+"/start", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, core.StateIdle, ctrl.State())

	status, body := srv.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, status)
	var snap core.SessionSnapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, ctrl.ID(), snap.ID)
}

func TestStreamKeepsSessionAlive(t *testing.T) {
	records := append(sampleLoader().records, sampleLoader().records...)
	tick := func(time.Duration) (<-chan time.Time, func()) {
		timer := time.NewTimer(50 * time.Millisecond)
		return timer.C, func() { timer.Stop() }
	}
	srv := newTestServerWithTTL(t, &memoryLoader{records: records}, tick, 150*time.Millisecond, 10*time.Millisecond)
	ctrl := srv.createSession(t)

	events, err := ctrl.Start(context.Background())
	require.NoError(t, err)
	go srv.pump(events)
	ctrl.Wait()

	assert.Equal(t, core.StateCompleted, ctrl.State())
	_, err = srv.sessions.Get(ctrl.ID())
	assert.NoError(t, err)
}
