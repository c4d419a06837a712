package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/varlink/internal/httpserver/deps"
)

const storePingTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool   `json:"ready"`
	Reason string `json:"reason,omitempty"`
}

// Readyz is ready once the first snapshot arrived and the store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)

		resp := readyzResponse{Ready: true}
		switch {
		case d.Session.Loading():
			resp = readyzResponse{Reason: "live feed not loaded"}
		case pingStore(r.Context(), d) != nil:
			resp = readyzResponse{Reason: "store unreachable"}
		}

		if !resp.Ready {
			render.Status(r, http.StatusServiceUnavailable)
		}
		render.JSON(w, r, resp)
	}
}

func pingStore(ctx context.Context, d deps.Deps) error {
	ctx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	return d.Store.Ping(ctx)
}
