package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/MrSnakeDoc/varlink/internal/domain"
	"github.com/MrSnakeDoc/varlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/varlink/internal/logger"
	"github.com/MrSnakeDoc/varlink/internal/vault"
)

// Notices shown to the user, kept as the page displays them.
const (
	msgMissingFields = "Missing Title or Target URL"
	msgDeleteFailed  = "Failed to delete link."
	msgSaveFailed    = "Failed to save link."
	msgNotFound      = "Link not found."
	msgFiltered      = "Clear the search to reorder links."
	msgEmptyValue    = "Enter a value."
)

type linksResponse struct {
	Links   []domain.Link `json:"links"`
	Count   int           `json:"count"`
	Loading bool          `json:"loading"`
}

func newLinksResponse(links []domain.Link, loading bool) linksResponse {
	if links == nil {
		links = []domain.Link{}
	}
	return linksResponse{Links: links, Count: len(links), Loading: loading}
}

// linkRequest is the create/edit body.
type linkRequest struct {
	domain.LinkInput
}

func (l *linkRequest) Bind(r *http.Request) error {
	l.Variables = domain.NormalizeVariables(l.Variables)
	return nil
}

type reorderRequest struct {
	DraggedID string `json:"draggedId"`
	TargetID  string `json:"targetId"`
	Query     string `json:"query"`
}

func (rr *reorderRequest) Bind(r *http.Request) error {
	if rr.DraggedID == "" || rr.TargetID == "" {
		return errors.New("draggedId and targetId are required")
	}
	return nil
}

// ListLinks returns the cached collection in display order, filtered by ?q=.
func ListLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		noStore(w)
		links := d.Session.Visible(r.URL.Query().Get("q"))
		render.JSON(w, r, newLinksResponse(links, d.Session.Loading()))
	}
}

// CreateLink stores a new link at the end of the collection.
func CreateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req linkRequest
		if err := render.Bind(r, &req); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		id, err := d.Session.Save(r.Context(), req.LinkInput, "")
		if err != nil {
			saveFailed(w, r, d, err)
			return
		}

		d.Logger.Info("link created", logger.String("id", id), logger.String("name", req.Name))
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]string{"id": id})
	}
}

// UpdateLink edits name, url and variables of a link. Order and creation
// time are left alone.
func UpdateLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req linkRequest
		if err := render.Bind(r, &req); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		if _, err := d.Session.Save(r.Context(), req.LinkInput, id); err != nil {
			saveFailed(w, r, d, err)
			return
		}

		d.Logger.Info("link updated", logger.String("id", id))
		render.NoContent(w, r)
	}
}

func saveFailed(w http.ResponseWriter, r *http.Request, d deps.Deps, err error) {
	if errors.Is(err, domain.ErrValidation) {
		renderError(w, r, http.StatusBadRequest, msgMissingFields)
		return
	}
	d.Logger.Warn("failed to save link", logger.Error(err))
	renderError(w, r, http.StatusInternalServerError, msgSaveFailed)
}

// DeleteLink removes a link. The live feed refreshes every client on success.
func DeleteLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := d.Session.Delete(r.Context(), id); err != nil {
			renderError(w, r, http.StatusInternalServerError, msgDeleteFailed)
			return
		}
		render.NoContent(w, r)
	}
}

// ReorderLinks drops draggedId onto targetId and persists the new order.
func ReorderLinks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reorderRequest
		if err := render.Bind(r, &req); err != nil {
			renderError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		links, err := d.Session.Reorder(r.Context(), req.Query, req.DraggedID, req.TargetID)
		if errors.Is(err, vault.ErrReorderWhileFiltered) {
			renderError(w, r, http.StatusConflict, msgFiltered)
			return
		}
		if err != nil {
			renderError(w, r, http.StatusInternalServerError, err.Error())
			return
		}

		render.JSON(w, r, newLinksResponse(links, false))
	}
}

type resolveResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ResolveLink returns the URL a link opens for the given value.
func ResolveLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, status, msg := resolveTarget(d, r)
		if status != http.StatusOK {
			renderError(w, r, status, msg)
			return
		}
		noStore(w)
		render.JSON(w, r, resolveResponse{ID: chi.URLParam(r, "id"), URL: target})
	}
}

// Go redirects to the resolved URL, the server side of "open in a new tab".
func Go(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target, status, msg := resolveTarget(d, r)
		if status != http.StatusOK {
			http.Error(w, msg, status)
			return
		}
		noStore(w)
		http.Redirect(w, r, target, http.StatusFound)
	}
}

// resolveTarget reads ?v= (a preset value, used as is) or ?custom= (typed
// by the user, trimmed and refused when blank).
func resolveTarget(d deps.Deps, r *http.Request) (string, int, string) {
	link, err := d.Session.Get(chi.URLParam(r, "id"))
	if err != nil {
		return "", http.StatusNotFound, msgNotFound
	}

	q := r.URL.Query()
	if q.Has("custom") {
		target, ok := domain.ResolveCustom(link.URL, q.Get("custom"))
		if !ok {
			return "", http.StatusBadRequest, msgEmptyValue
		}
		return target, http.StatusOK, ""
	}

	value := q.Get("v")
	d.Logger.Debug("resolving link",
		logger.String("id", link.ID),
		logger.Bool("has_value", strings.TrimSpace(value) != ""))
	return domain.Resolve(link.URL, value), http.StatusOK, ""
}
