package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/varlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/varlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/varlink/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	admin := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	admin.Get("/readyz", handlers.Readyz(d))
	admin.Get("/infra", handlers.Infra(d))
}
