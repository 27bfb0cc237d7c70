package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/sidemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sidemark/internal/panel"
)

type componentStatus struct {
	OK          bool         `json:"ok"`
	Mode        string       `json:"mode,omitempty"`
	Impact      string       `json:"impact,omitempty"`
	Error       string       `json:"error,omitempty"`
	Channel     string       `json:"channel,omitempty"`
	Subscribers *int         `json:"subscribers,omitempty"`
	Targets     *int         `json:"targets,omitempty"`
	LastRun     string       `json:"last_run,omitempty"`
	Stats       *panel.Stats `json:"stats,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := d.Panel.Stats()
		subscribers := 0
		if d.Hub != nil {
			subscribers = d.Hub.Len()
		}

		components := map[string]componentStatus{
			"panel":   {OK: true, Stats: &stats},
			"events":  {OK: d.Hub != nil, Subscribers: &subscribers},
			"redis":   checkRedis(r.Context(), d),
			"prewarm": prewarmStatus(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

// determineMode is "optimal" when every optional component works and
// "degraded" otherwise. The panel pipelines never depend on them.
func determineMode(components map[string]componentStatus) string {
	for _, name := range []string{"redis", "prewarm"} {
		if c, ok := components[name]; ok && !c.OK && c.Mode != "disabled" {
			return "degraded"
		}
	}
	return "optimal"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "pubsub-publishing-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:      false,
			Mode:    "degraded",
			Impact:  "pubsub-publishing-failing",
			Error:   "timeout",
			Channel: d.RedisChannel,
		}
	}

	return componentStatus{
		OK:      true,
		Mode:    "optimal",
		Impact:  "pubsub-publishing-enabled",
		Channel: d.RedisChannel,
	}
}

func prewarmStatus(d deps.Deps) componentStatus {
	if d.Prewarm == nil {
		return componentStatus{OK: false, Mode: "disabled"}
	}

	last, targets := d.Prewarm.LastRun()
	lastStr := "never"
	if !last.IsZero() {
		lastStr = last.Format("2006-01-02 15:04:05")
	}
	return componentStatus{
		OK:      !last.IsZero(),
		Targets: &targets,
		LastRun: lastStr,
	}
}
