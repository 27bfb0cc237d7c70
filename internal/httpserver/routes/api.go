package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/sidemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sidemark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/sidemark/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))

		triggers := api.With()
		if d.RateLimit > 0 {
			triggers = api.With(mw.RateLimit(mw.RateLimitConfig{
				Burst:             d.RateLimit,
				RefillPerIPPerMin: d.RatePerMinute,
				MaxEntries:        10000,
				SweepInterval:     time.Minute,
				IdleTTL:           15 * time.Minute,
				TrustProxy:        d.TrustProxy,
			}))
		}
		triggers.Post("/bookmarks", handlers.Bookmarks(d))
		triggers.Post("/origin-popular", handlers.OriginPopular(d))

		api.Get("/events", handlers.Events(d))
	})
}
