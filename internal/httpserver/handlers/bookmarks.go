package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/sidemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
)

// Bookmarks starts a bookmark lookup for the page a panel is showing.
// The pipeline runs to completion even if the caller goes away, so the
// cache is filled for the next request.
func Bookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req panel.BookmarksRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeTriggerError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.URL = strings.TrimSpace(req.URL)
		if req.URL == "" {
			writeTriggerError(w, http.StatusBadRequest, "url is required")
			return
		}

		token, err := d.Panel.RequestBookmarks(context.WithoutCancel(r.Context()), req)
		if err != nil {
			d.Logger.Debug("bookmarks request failed",
				logger.String("url", req.URL),
				logger.Uint64("token", token),
				logger.Error(err))
			writeJSON(w, http.StatusBadGateway, triggerResponse{Status: "error", RequestID: token, Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, triggerResponse{Status: "ok", RequestID: token})
	}
}
