package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/sidemark/internal/domain"
)

// Writer prints messages to an io.Writer, either as JSON lines or as text.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	json  bool
	order domain.SortOrder
}

// NewJSONWriter writes one JSON object per line.
func NewJSONWriter(w io.Writer) *Writer {
	return &Writer{w: w, json: true}
}

// NewTextWriter writes a human readable rendering, comments in the given order.
func NewTextWriter(w io.Writer, order domain.SortOrder) *Writer {
	return &Writer{w: w, order: order}
}

func (wr *Writer) Emit(_ context.Context, msg Message) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if wr.json {
		b, err := json.Marshal(msg)
		if err != nil {
			return
		}
		_, _ = fmt.Fprintf(wr.w, "%s\n", b)
		return
	}
	wr.writeText(msg)
}

func (wr *Writer) writeText(msg Message) {
	switch msg.Type {
	case BookmarksLoading:
		_, _ = fmt.Fprintf(wr.w, "loading bookmarks for %s\n", msg.Key)
	case OriginPopularLoading:
		_, _ = fmt.Fprintf(wr.w, "loading popular pages for %s\n", msg.Key)
	case BookmarksStarProgress:
		if p := msg.Progress; p != nil {
			_, _ = fmt.Fprintf(wr.w, "stars: %d%% (%d/%d batches)\n", p.Percent, p.DoneBatches, p.TotalBatches)
		}
	case BookmarksError, OriginPopularError:
		_, _ = fmt.Fprintf(wr.w, "error: %s\n", msg.Error)
	case BookmarksUpdate:
		wr.writeBookmarks(msg.Data)
	case OriginPopularUpdate:
		_, _ = fmt.Fprintf(wr.w, "%d popular pages on %s\n", len(msg.Items), msg.Key)
		for _, it := range msg.Items {
			_, _ = fmt.Fprintf(wr.w, "  %5d  %s\n         %s\n", it.Count, it.Title, it.Link)
		}
	}
}

func (wr *Writer) writeBookmarks(vm *domain.BookmarkViewModel) {
	if vm == nil {
		return
	}
	if !vm.HasEntry() {
		_, _ = fmt.Fprintf(wr.w, "no bookmarks for %s\n", vm.TargetURL)
		return
	}
	_, _ = fmt.Fprintf(wr.w, "%d users, %d comments for %s\n", vm.BookmarkCount, len(vm.Comments), vm.TargetURL)
	for _, c := range domain.SortComments(vm.Comments, wr.order) {
		line := fmt.Sprintf("  [%d] %s (%s): %s", c.Stars, c.User, c.Timestamp, c.Comment)
		if len(c.Tags) > 0 {
			line += " #" + strings.Join(c.Tags, " #")
		}
		_, _ = fmt.Fprintln(wr.w, line)
	}
}
