package handlers

import (
	"net/http"

	"github.com/go-chi/render"
)

// errorResponse is the body of every non-2xx JSON answer.
type errorResponse struct {
	HTTPStatusCode int    `json:"-"`
	Error          string `json:"error"`
}

func (e *errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	_ = render.Render(w, r, &errorResponse{HTTPStatusCode: status, Error: msg})
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}
