package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/sidemark/internal/config"
	"github.com/MrSnakeDoc/sidemark/internal/sequencer"
)

const (
	testPage    = "https://example.com/article"
	starPrimary = "https://b.hatena.ne.jp/entry/123/comment/alice"
)

// fakeHatena serves the entry, star and entrylist endpoints.
func fakeHatena(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/entry/jsonlite/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") != testPage {
			_, _ = w.Write([]byte("null"))
			return
		}
		_, _ = w.Write([]byte(`{"eid": 123, "count": 2, "entry_url": "https://b.hatena.ne.jp/entry/s/example.com/article",
			"bookmarks": [
				{"user": "alice", "comment": "nice", "timestamp": "2021/07/19 23:36", "tags": []},
				{"user": "bob", "comment": "", "timestamp": "2021/07/20 08:00", "tags": []}
			]}`))
	})
	mux.HandleFunc("/entry.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"entries": [{"uri": "` + starPrimary + `", "stars": [{}, {}, {}]}]}`))
	})
	mux.HandleFunc("/entrylist/json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`([{"link": "https://example.com/top", "title": "Top page", "count": 42}]);`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testEnv(t *testing.T, srv *httptest.Server) (*env, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &env{
		stdout:  &out,
		version: "test",
		loadConfig: func() *config.Config {
			return &config.Config{
				UpstreamTimeout: 5 * time.Second,
				BookmarkBaseURL: srv.URL,
				StarBaseURL:     srv.URL,
				PopularSource:   config.PopularSourceJSON,
				BookmarkTTL:     time.Minute,
				PopularTTL:      time.Minute,
				StarTTL:         time.Minute,
				StarBatchSize:   30,
				RedisChannel:    "sidemark:events",
			}
		},
	}, &out
}

func TestVersionFlag(t *testing.T) {
	e, out := testEnv(t, fakeHatena(t))

	err := run(e, []string{"--version"})

	require.NoError(t, err)
	assert.Equal(t, "sidemarkctl test", strings.TrimSpace(out.String()))
}

func TestBookmarksText(t *testing.T) {
	e, out := testEnv(t, fakeHatena(t))

	err := run(e, []string{"bookmarks", "--url", testPage})

	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "loading bookmarks for "+testPage)
	assert.Contains(t, text, "2 users, 1 comments for "+testPage)
	assert.Contains(t, text, "[3] alice (2021/07/19 23:36): nice")
	assert.NotContains(t, text, "bob")
}

func TestBookmarksJSON(t *testing.T) {
	e, out := testEnv(t, fakeHatena(t))

	err := run(e, []string{"--json", "bookmarks", "--url", testPage})
	require.NoError(t, err)

	var types []string
	var last map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		types = append(types, m["type"].(string))
		last = m
	}

	require.NotEmpty(t, types)
	assert.Equal(t, "BOOKMARKS_LOADING", types[0])
	assert.Equal(t, "BOOKMARKS_UPDATE", types[len(types)-1])
	assert.Contains(t, types, "BOOKMARKS_STAR_PROGRESS")

	data := last["data"].(map[string]any)
	comments := data["comments"].([]any)
	require.Len(t, comments, 1)
	first := comments[0].(map[string]any)
	assert.Equal(t, float64(3), first["stars"])
	assert.Equal(t, starPrimary, first["starTargetUri"])
}

func TestBookmarksNoEntry(t *testing.T) {
	e, out := testEnv(t, fakeHatena(t))

	err := run(e, []string{"bookmarks", "--url", "https://example.com/unknown"})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "no bookmarks for https://example.com/unknown")
}

func TestBookmarksValidation(t *testing.T) {
	e, _ := testEnv(t, fakeHatena(t))

	assert.Error(t, run(e, []string{"bookmarks"}))
	assert.Error(t, run(e, []string{"bookmarks", "--url", testPage, "--sort", "random"}))
}

func TestPopularText(t *testing.T) {
	e, out := testEnv(t, fakeHatena(t))

	err := run(e, []string{"popular", "--origin", "example.com"})

	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "1 popular pages on example.com")
	assert.Contains(t, text, "Top page")
	assert.Contains(t, text, "https://example.com/top")
}

func TestPopularRequiresOrigin(t *testing.T) {
	e, _ := testEnv(t, fakeHatena(t))
	assert.Error(t, run(e, []string{"popular"}))
}

func TestWatchRequiresRedis(t *testing.T) {
	e, _ := testEnv(t, fakeHatena(t))

	err := run(e, []string{"watch"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SIDEMARK_REDIS_ADDR")
}

func TestWatchPrintFilters(t *testing.T) {
	e, out := testEnv(t, fakeHatena(t))
	c := &WatchCommand{env: e, globals: &GlobalFlags{}}
	stream := mustStream(t, "origin-popular")

	c.print(`{"type":"BOOKMARKS_UPDATE","url":"https://a.example/","requestId":4}`, &stream)
	c.print(`{"type":"ORIGIN_POPULAR_ERROR","origin":"a.example","requestId":2,"error":"boom"}`, &stream)
	c.print(`not json`, nil)

	assert.Equal(t, "#2 ORIGIN_POPULAR_ERROR a.example: boom\n", out.String())
}

func TestSubcommandsRecognized(t *testing.T) {
	parser, _, cmds := buildParser(&env{})
	for _, name := range []string{"bookmarks", "popular", "watch"} {
		assert.NotNil(t, parser.Find(name), name)
	}
	assert.NotNil(t, cmds.Bookmarks)
}

func mustStream(t *testing.T, name string) sequencer.Stream {
	t.Helper()
	s, ok := sequencer.ParseStream(name)
	require.True(t, ok)
	return s
}
