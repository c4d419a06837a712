package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/varlink/internal/httpserver/deps"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg    Registrar
	mws    []Middleware
	stream bool
}

var registry []entry

// Register a registrar with optional per-route middlewares. Its routes run
// under the request timeout.
func Register(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws})
}

// RegisterStream registers long-lived routes (websockets) that must not be
// cut by the request timeout.
func RegisterStream(reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{reg: reg, mws: mws, stream: true})
}

// Called once from server.New()
func RegisterAll(r chi.Router, d deps.Deps) {
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	r.Group(func(stream chi.Router) {
		for _, e := range registry {
			if e.stream {
				mount(stream, e, d)
			}
		}
	})

	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(timeout))
		for _, e := range registry {
			if !e.stream {
				mount(api, e, d)
			}
		}
	})
}

func mount(r chi.Router, e entry, d deps.Deps) {
	if len(e.mws) == 0 {
		e.reg(r, d)
		return
	}
	e.reg(r.With(e.mws...), d)
}
