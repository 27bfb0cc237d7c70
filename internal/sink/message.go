package sink

import (
	"context"
	"encoding/json"

	"github.com/MrSnakeDoc/sidemark/internal/domain"
	"github.com/MrSnakeDoc/sidemark/internal/sequencer"
)

// Type is the kind of a panel message. The names are the ones the side
// panel script switches on.
type Type string

const (
	BookmarksLoading      Type = "BOOKMARKS_LOADING"
	BookmarksUpdate       Type = "BOOKMARKS_UPDATE"
	BookmarksError        Type = "BOOKMARKS_ERROR"
	BookmarksStarProgress Type = "BOOKMARKS_STAR_PROGRESS"

	OriginPopularLoading Type = "ORIGIN_POPULAR_LOADING"
	OriginPopularUpdate  Type = "ORIGIN_POPULAR_UPDATE"
	OriginPopularError   Type = "ORIGIN_POPULAR_ERROR"
)

// Stream returns the request stream a message type belongs to.
func (t Type) Stream() sequencer.Stream {
	switch t {
	case OriginPopularLoading, OriginPopularUpdate, OriginPopularError:
		return sequencer.OriginPopular
	default:
		return sequencer.Bookmarks
	}
}

// Message is one update pushed to the panel. Key is the target URL for the
// bookmarks stream and the host for the origin-popular stream. Only the
// payload field matching Type is set.
type Message struct {
	Type     Type
	Key      string
	Token    uint64
	Data     *domain.BookmarkViewModel
	Items    []domain.PopularItem
	Progress *domain.ProgressReport
	Error    string
}

type wireMessage struct {
	Type      Type                      `json:"type"`
	URL       *string                   `json:"url,omitempty"`
	Origin    *string                   `json:"origin,omitempty"`
	Data      *domain.BookmarkViewModel `json:"data,omitempty"`
	Items     *[]domain.PopularItem     `json:"items,omitempty"`
	Progress  *domain.ProgressReport    `json:"progress,omitempty"`
	Error     string                    `json:"error,omitempty"`
	RequestID uint64                    `json:"requestId"`
}

// MarshalJSON renders the message in the panel's wire shape: the key is sent
// as "url" or "origin" depending on the stream.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		Type:      m.Type,
		Data:      m.Data,
		Progress:  m.Progress,
		Error:     m.Error,
		RequestID: m.Token,
	}
	key := m.Key
	if m.Type.Stream() == sequencer.OriginPopular {
		w.Origin = &key
		if m.Type == OriginPopularUpdate {
			items := m.Items
			if items == nil {
				items = []domain.PopularItem{}
			}
			w.Items = &items
		}
	} else {
		w.URL = &key
	}
	return json.Marshal(w)
}

// Sink receives panel messages. Emit must not block for long: it is called
// from the fetch pipeline.
type Sink interface {
	Emit(ctx context.Context, msg Message)
}

// Func adapts a function to Sink.
type Func func(ctx context.Context, msg Message)

func (f Func) Emit(ctx context.Context, msg Message) { f(ctx, msg) }

type discard struct{}

func (discard) Emit(context.Context, Message) {}

// Discard drops every message.
var Discard Sink = discard{}

// Multi fans each message out to all sinks, in order.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, msg Message) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, msg)
		}
	}
}
