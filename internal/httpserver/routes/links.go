package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/varlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/varlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/varlink/internal/httpserver/mw"
)

func init() { Register(registerLinks) }

func registerLinks(r chi.Router, d deps.Deps) {
	r = r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))

	// one bucket per client shared by every write
	limited := mw.RateLimit(mw.RateLimitConfig{
		Burst:      d.RateLimitBurst,
		PerMinute:  d.RateLimitPerMinute,
		TrustProxy: d.TrustProxy,
	})

	r.Get("/api/links", handlers.ListLinks(d))
	r.Get("/api/links/{id}/resolve", handlers.ResolveLink(d))

	w := r.With(limited)
	w.Post("/api/links", handlers.CreateLink(d))
	w.Post("/api/links/reorder", handlers.ReorderLinks(d))
	w.Put("/api/links/{id}", handlers.UpdateLink(d))
	w.Delete("/api/links/{id}", handlers.DeleteLink(d))

	r.Get("/go/{id}", handlers.Go(d))
}
