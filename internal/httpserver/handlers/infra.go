package handlers

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/varlink/internal/httpserver/deps"
)

type componentStatus struct {
	OK      bool   `json:"ok"`
	Mode    string `json:"mode,omitempty"`
	Links   *int   `json:"links,omitempty"`
	Clients *int   `json:"clients,omitempty"`
	Impact  string `json:"impact,omitempty"`
	Error   string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra details the state of each moving part.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)

		links := len(d.Session.Links())
		clients := d.Feed.Clients()

		components := map[string]componentStatus{
			"store": storeStatus(r, d),
			"session": {
				OK:    !d.Session.Loading(),
				Links: &links,
			},
			"feed": {
				OK:      true,
				Clients: &clients,
			},
		}

		render.JSON(w, r, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func storeStatus(r *http.Request, d deps.Deps) componentStatus {
	if err := pingStore(r.Context(), d); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.StoreKind,
			Impact: "writes-failing-cache-stale",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: d.StoreKind}
}

// overallStatus is "critical" without a loaded session, "degraded" when the
// store is unreachable (the cache still serves reads) and "ok" otherwise.
func overallStatus(components map[string]componentStatus) string {
	if s, ok := components["session"]; ok && !s.OK {
		return "critical"
	}
	if s, ok := components["store"]; ok && !s.OK {
		return "degraded"
	}
	return "ok"
}
