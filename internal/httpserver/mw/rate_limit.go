package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/varlink/internal/utils"
)

// RateLimitConfig sets the write budget of one client IP.
type RateLimitConfig struct {
	Burst      int // requests accepted back to back
	PerMinute  int // budget regained per minute
	IdleTTL    time.Duration
	TrustProxy bool
	Now        func() time.Time
}

// allowance is the budget left to one client at a point in time.
type allowance struct {
	left float64
	at   time.Time
}

// writeBudget tracks an allowance per client behind one lock. Clients idle
// for IdleTTL are forgotten, checked at most once per IdleTTL.
type writeBudget struct {
	mu        sync.Mutex
	perSecond float64
	burst     float64
	idle      time.Duration
	clients   map[string]allowance
	pruned    time.Time
}

func newWriteBudget(cfg RateLimitConfig, now time.Time) *writeBudget {
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = 15 * time.Minute
	}
	return &writeBudget{
		perSecond: float64(max(cfg.PerMinute, 1)) / 60,
		burst:     float64(max(cfg.Burst, 1)),
		idle:      idle,
		clients:   make(map[string]allowance),
		pruned:    now,
	}
}

// spend takes one request from ip's allowance. When none is left, wait is
// the whole number of seconds until the next request would pass.
func (wb *writeBudget) spend(ip string, now time.Time) (left int, wait int, ok bool) {
	wb.mu.Lock()
	defer wb.mu.Unlock()

	if now.Sub(wb.pruned) >= wb.idle {
		for k, a := range wb.clients {
			if now.Sub(a.at) >= wb.idle {
				delete(wb.clients, k)
			}
		}
		wb.pruned = now
	}

	a, seen := wb.clients[ip]
	if !seen {
		a = allowance{left: wb.burst, at: now}
	} else if d := now.Sub(a.at).Seconds(); d > 0 {
		a.left = min(wb.burst, a.left+d*wb.perSecond)
		a.at = now
	}

	if a.left < 1 {
		wb.clients[ip] = a
		return 0, max(int(math.Ceil((1-a.left)/wb.perSecond)), 1), false
	}
	a.left--
	wb.clients[ip] = a
	return int(a.left), 0, true
}

func (wb *writeBudget) tracked() int {
	wb.mu.Lock()
	defer wb.mu.Unlock()
	return len(wb.clients)
}

// RateLimit caps writes per client IP and answers 429 with Retry-After once
// the budget is spent.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return rateLimit(cfg, newWriteBudget(cfg, cfg.Now()))
}

func rateLimit(cfg RateLimitConfig, wb *writeBudget) func(http.Handler) http.Handler {
	limit := strconv.Itoa(int(wb.burst))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			left, wait, ok := wb.spend(utils.ClientIP(r, cfg.TrustProxy), cfg.Now())

			h := w.Header()
			h.Set("X-RateLimit-Limit", limit)
			h.Set("X-RateLimit-Remaining", strconv.Itoa(left))
			if !ok {
				h.Set("Retry-After", strconv.Itoa(wait))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
