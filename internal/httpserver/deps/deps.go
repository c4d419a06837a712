package deps

import (
	"time"

	"github.com/MrSnakeDoc/varlink/internal/feed"
	"github.com/MrSnakeDoc/varlink/internal/logger"
	"github.com/MrSnakeDoc/varlink/internal/store"
	"github.com/MrSnakeDoc/varlink/internal/vault"
	"github.com/MrSnakeDoc/varlink/internal/version"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Build     version.Build
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Session   *vault.Session // live view of the vault, shared by every handler
	Feed      *feed.Hub      // websocket fan-out of the session
	Store     store.Store    // pinged by readyz and infra
	StoreKind string         // "redis" | "memory"

	RequestTimeout time.Duration // API routes only, the live feed is long-lived
	AllowedHosts   []string      // Host headers allowed to access the server
	AllowedCIDRS   []string      // IPs allowed to access readyz/infra endpoints
	TrustProxy     bool          // true if running behind a trusted reverse proxy (e.g., cloudflared)
	AllowedOrigins []string      // CORS origins, empty = any

	RateLimitBurst     int // write endpoints, per client IP
	RateLimitPerMinute int
}

// Now returns TimeNow() or time.Now() when unset.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
