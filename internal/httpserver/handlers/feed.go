package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/varlink/internal/httpserver/deps"
)

// Feed upgrades to the websocket live feed.
func Feed(d deps.Deps) http.HandlerFunc {
	return d.Feed.ServeHTTP
}
