package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/varlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/varlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/varlink/internal/httpserver/mw"
)

func init() { RegisterStream(registerFeed) }

func registerFeed(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/api/links/feed", handlers.Feed(d))
}
