package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrSnakeDoc/sidemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sidemark/internal/logger"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
)

// OriginPopular starts a popularity lookup for a host. Either origin or
// url must be given; origin wins when both are.
func OriginPopular(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req panel.PopularRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeTriggerError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Origin) == "" && strings.TrimSpace(req.URL) == "" {
			writeTriggerError(w, http.StatusBadRequest, "origin or url is required")
			return
		}

		token, err := d.Panel.RequestOriginPopular(context.WithoutCancel(r.Context()), req)
		if err != nil {
			d.Logger.Debug("origin popular request failed",
				logger.String("origin", req.Origin),
				logger.String("url", req.URL),
				logger.Uint64("token", token),
				logger.Error(err))
			writeJSON(w, http.StatusBadGateway, triggerResponse{Status: "error", RequestID: token, Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, triggerResponse{Status: "ok", RequestID: token})
	}
}
