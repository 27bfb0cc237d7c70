package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
)

func TestMessage_MarshalJSON(t *testing.T) {
	eid := "1"
	tests := []struct {
		name string
		msg  Message
		want map[string]any
	}{
		{
			name: "bookmarks loading",
			msg:  Message{Type: BookmarksLoading, Key: "https://example.com/", Token: 3},
			want: map[string]any{"type": "BOOKMARKS_LOADING", "url": "https://example.com/", "requestId": float64(3)},
		},
		{
			name: "empty origin update keeps origin and items",
			msg:  Message{Type: OriginPopularUpdate, Key: "", Token: 2},
			want: map[string]any{"type": "ORIGIN_POPULAR_UPDATE", "origin": "", "items": []any{}, "requestId": float64(2)},
		},
		{
			name: "origin error",
			msg:  Message{Type: OriginPopularError, Key: "example.com", Error: "boom"},
			want: map[string]any{"type": "ORIGIN_POPULAR_ERROR", "origin": "example.com", "error": "boom", "requestId": float64(0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.msg)
			require.NoError(t, err)
			var got map[string]any
			require.NoError(t, json.Unmarshal(b, &got))
			assert.Equal(t, tt.want, got)
		})
	}

	vm := domain.BookmarkViewModel{TargetURL: "https://example.com/", EID: &eid, Comments: []domain.BookmarkComment{}}
	b, err := json.Marshal(Message{Type: BookmarksUpdate, Key: vm.TargetURL, Data: &vm, Token: 1})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"data":{"targetUrl":"https://example.com/","eid":"1","bookmarkCount":0,"comments":[],"entryUrl":null}`)
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, nil, b, Discard}.Emit(context.Background(), Message{Type: BookmarksLoading})
	assert.Len(t, a.Messages(), 1)
	assert.Len(t, b.Messages(), 1)
}

func TestWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf)
	w.Emit(context.Background(), Message{Type: BookmarksLoading, Key: "u", Token: 1})
	w.Emit(context.Background(), Message{Type: BookmarksError, Key: "u", Token: 1, Error: "x"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, json.Valid([]byte(lines[1])))
}

func TestWriter_Text(t *testing.T) {
	eid := "1"
	vm := domain.BookmarkViewModel{
		TargetURL:     "https://example.com/",
		EID:           &eid,
		BookmarkCount: 5,
		Comments: []domain.BookmarkComment{
			{User: "alice", Comment: "first", Timestamp: "2021/01/01 10:00", Stars: 1},
			{User: "bob", Comment: "second", Timestamp: "2021/01/02 10:00", Stars: 4, Tags: []string{"go"}},
		},
	}

	var buf bytes.Buffer
	NewTextWriter(&buf, domain.SortByStars).Emit(context.Background(), Message{Type: BookmarksUpdate, Data: &vm})

	out := buf.String()
	assert.Contains(t, out, "5 users, 2 comments")
	assert.Less(t, strings.Index(out, "bob"), strings.Index(out, "alice"))
	assert.Contains(t, out, "#go")
}

func TestRedisPublisher_UnreachableDoesNotPanic(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	p := NewRedisPublisher(rdb, "", logger.Nop())
	assert.Equal(t, DefaultChannel, p.Channel())
	p.Emit(context.Background(), Message{Type: BookmarksLoading, Key: "u"})
}
