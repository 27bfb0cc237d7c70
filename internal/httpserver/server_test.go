package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/sidemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
	"github.com/MrSnakeDoc/sidemark/internal/sink"
)

type fakePanel struct {
	mu        sync.Mutex
	bookmarks []panel.BookmarksRequest
	popular   []panel.PopularRequest
	err       error
	token     uint64
	ctxErr    error
}

func (f *fakePanel) RequestBookmarks(ctx context.Context, req panel.BookmarksRequest) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token++
	f.bookmarks = append(f.bookmarks, req)
	f.ctxErr = ctx.Err()
	return f.token, f.err
}

func (f *fakePanel) RequestOriginPopular(_ context.Context, req panel.PopularRequest) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token++
	f.popular = append(f.popular, req)
	return f.token, f.err
}

func (f *fakePanel) Stats() panel.Stats {
	return panel.Stats{BookmarkEntries: 2, BookmarksToken: f.token}
}

type fakePrewarm struct{ last time.Time }

func (f fakePrewarm) LastRun() (time.Time, int) { return f.last, 3 }

func testDeps(p *fakePanel) deps.Deps {
	return deps.Deps{
		Logger:         logger.Nop(),
		StartTime:      time.Now().Add(-time.Minute),
		Version:        "test",
		TimeNow:        time.Now,
		AllowedOrigins: []string{"chrome-extension://panel"},
		Panel:          p,
		Hub:            sink.NewHub(8, logger.Nop()),
		ReloadTrigger:  make(chan struct{}, 1),
		Prewarm:        fakePrewarm{last: time.Now()},
	}
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func TestBookmarksTrigger(t *testing.T) {
	p := &fakePanel{}
	r := NewRouter(logger.Nop(), testDeps(p))

	rec := do(t, r, http.MethodPost, "/api/bookmarks", `{"url":"https://example.com/","tabId":7}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "requestId": float64(1)}, decode(t, rec))
	require.Len(t, p.bookmarks, 1)
	assert.Equal(t, panel.BookmarksRequest{URL: "https://example.com/", TabID: 7}, p.bookmarks[0])
	assert.NoError(t, p.ctxErr)
}

func TestBookmarksTriggerError(t *testing.T) {
	p := &fakePanel{err: errors.New("Hatena Bookmark API error: 503 Service Unavailable")}
	r := NewRouter(logger.Nop(), testDeps(p))

	rec := do(t, r, http.MethodPost, "/api/bookmarks", `{"url":"https://example.com/"}`, nil)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Hatena Bookmark API error: 503 Service Unavailable", body["error"])
}

func TestBookmarksTriggerValidation(t *testing.T) {
	r := NewRouter(logger.Nop(), testDeps(&fakePanel{}))

	tests := []struct {
		name string
		body string
	}{
		{"missing url", `{}`},
		{"blank url", `{"url":"  "}`},
		{"not json", `url=x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, r, http.MethodPost, "/api/bookmarks", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "error", decode(t, rec)["status"])
		})
	}
}

func TestOriginPopularTrigger(t *testing.T) {
	p := &fakePanel{}
	r := NewRouter(logger.Nop(), testDeps(p))

	rec := do(t, r, http.MethodPost, "/api/origin-popular", `{"origin":"example.com"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, p.popular, 1)
	assert.Equal(t, "example.com", p.popular[0].Origin)

	rec = do(t, r, http.MethodPost, "/api/origin-popular", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerRateLimit(t *testing.T) {
	d := testDeps(&fakePanel{})
	d.RateLimit = 1
	d.RatePerMinute = 1
	r := NewRouter(logger.Nop(), d)

	first := do(t, r, http.MethodPost, "/api/bookmarks", `{"url":"https://example.com/"}`, nil)
	second := do(t, r, http.MethodPost, "/api/bookmarks", `{"url":"https://example.com/"}`, nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}

func TestCORSPreflight(t *testing.T) {
	r := NewRouter(logger.Nop(), testDeps(&fakePanel{}))

	rec := do(t, r, http.MethodOptions, "/api/bookmarks", "", map[string]string{
		"Origin":                        "chrome-extension://panel",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "chrome-extension://panel", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = do(t, r, http.MethodOptions, "/api/bookmarks", "", map[string]string{
		"Origin":                        "https://evil.example",
		"Access-Control-Request-Method": "POST",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestReload(t *testing.T) {
	d := testDeps(&fakePanel{})
	r := NewRouter(logger.Nop(), d)

	assert.Equal(t, http.StatusAccepted, do(t, r, http.MethodPost, "/reload", "", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, r, http.MethodPost, "/reload", "", nil).Code)

	<-d.ReloadTrigger
	assert.Equal(t, http.StatusAccepted, do(t, r, http.MethodPost, "/reload", "", nil).Code)

	d.ReloadTrigger = nil
	r = NewRouter(logger.Nop(), d)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodPost, "/reload", "", nil).Code)
}

func TestProbes(t *testing.T) {
	d := testDeps(&fakePanel{})
	ready := false
	d.Ready = func() bool { return ready }
	r := NewRouter(logger.Nop(), d)

	rec := do(t, r, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode(t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "test", health["version"])
	assert.GreaterOrEqual(t, health["uptime_seconds"].(float64), 59.0)

	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodGet, "/readyz", "", nil).Code)
	ready = true
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodGet, "/readyz", "", nil).Code)
}

func TestInfra(t *testing.T) {
	r := NewRouter(logger.Nop(), testDeps(&fakePanel{}))

	rec := do(t, r, http.MethodGet, "/infra", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "optimal", body["mode"])
	components := body["components"].(map[string]any)
	redis := components["redis"].(map[string]any)
	assert.Equal(t, "disabled", redis["mode"])
	stats := components["panel"].(map[string]any)["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["bookmarkEntries"])
	prewarm := components["prewarm"].(map[string]any)
	assert.Equal(t, true, prewarm["ok"])
	assert.Equal(t, float64(3), prewarm["targets"])
}

func TestInternalRoutesRestrictedByCIDR(t *testing.T) {
	d := testDeps(&fakePanel{})
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	r := NewRouter(logger.Nop(), d)

	for _, path := range []string{"/healthz", "/readyz", "/infra", "/metrics"} {
		rec := do(t, r, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := NewRouter(logger.Nop(), testDeps(&fakePanel{}))

	rec := do(t, r, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sidemark_hub_subscribers")
}

func TestEventsStream(t *testing.T) {
	d := testDeps(&fakePanel{})
	srv := httptest.NewServer(NewRouter(logger.Nop(), d))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events?stream=bookmarks", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	require.True(t, strings.HasPrefix(lines.Text(), ": subscribed "), lines.Text())

	// Filtered out by ?stream=bookmarks.
	d.Hub.Emit(ctx, sink.Message{Type: sink.OriginPopularLoading, Key: "example.com", Token: 1})
	d.Hub.Emit(ctx, sink.Message{Type: sink.BookmarksLoading, Key: "https://example.com/", Token: 2})

	var event, data string
	for lines.Scan() {
		line := lines.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
		if data != "" {
			break
		}
	}

	assert.Equal(t, "BOOKMARKS_LOADING", event)
	assert.JSONEq(t, `{"type":"BOOKMARKS_LOADING","url":"https://example.com/","requestId":2}`, data)
}

func TestEventsUnknownStream(t *testing.T) {
	r := NewRouter(logger.Nop(), testDeps(&fakePanel{}))

	rec := do(t, r, http.MethodGet, "/api/events?stream=nope", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
