package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/sidemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/sequencer"
)

const heartbeatInterval = 15 * time.Second

// Events streams panel messages as server-sent events. ?stream=bookmarks or
// ?stream=origin-popular restricts the feed to one stream.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filter *sequencer.Stream
		if name := r.URL.Query().Get("stream"); name != "" {
			s, ok := sequencer.ParseStream(name)
			if !ok {
				http.Error(w, "unknown stream", http.StatusBadRequest)
				return
			}
			filter = &s
		}

		rc := http.NewResponseController(w)
		// The server write timeout would otherwise cut the stream.
		if err := rc.SetWriteDeadline(time.Time{}); err != nil {
			d.Logger.Debug("could not clear write deadline", logger.Error(err))
		}

		sub := d.Hub.Subscribe(filter)
		defer d.Hub.Unsubscribe(sub.ID)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		if _, err := fmt.Fprintf(w, ": subscribed %s\n\n", sub.ID); err != nil {
			return
		}
		if err := rc.Flush(); err != nil {
			d.Logger.Warn("event stream not flushable", logger.Error(err))
			return
		}

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-heartbeat.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
			case msg, ok := <-sub.C:
				if !ok {
					return
				}
				payload, err := json.Marshal(msg)
				if err != nil {
					d.Logger.Error("failed to encode event", logger.Error(err))
					continue
				}
				if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, payload); err != nil {
					return
				}
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
