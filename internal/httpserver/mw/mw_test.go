package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/varlink/internal/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{host: "links.example.com", pattern: "links.example.com", want: true},
		{host: "links.example.com", pattern: "*.example.com", want: true},
		{host: "example.com", pattern: "*.example.com", want: false},
		{host: "evil.com", pattern: "links.example.com", want: false},
	}
	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"Links.Example.com"}, logger.Nop())(okHandler())

	tests := []struct {
		name string
		host string
		want int
	}{
		{name: "allowed with port", host: "links.example.com:8080", want: http.StatusOK},
		{name: "allowed", host: "links.example.com", want: http.StatusOK},
		{name: "rejected", host: "other.example.com", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tt.host
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "192.168.1.5"}, true, logger.Nop())(okHandler())

	tests := []struct {
		name   string
		remote string
		xff    string
		want   int
	}{
		{name: "cidr match", remote: "10.1.2.3:1234", want: http.StatusOK},
		{name: "exact ip", remote: "192.168.1.5:1234", want: http.StatusOK},
		{name: "forwarded for trusted", remote: "127.0.0.1:1", xff: "10.9.9.9, 1.1.1.1", want: http.StatusOK},
		{name: "rejected", remote: "8.8.8.8:53", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	h := RateLimit(RateLimitConfig{
		Burst:     2,
		PerMinute: 60,
		Now:       func() time.Time { return now },
	})(okHandler())

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/links", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := do("1.2.3.4:1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, rec.Code)
		}
	}

	rec := do("1.2.3.4:1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", rec.Header().Get("X-RateLimit-Remaining"))
	}

	if rec := do("5.6.7.8:1"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}

	now = now.Add(time.Second)
	if rec := do("1.2.3.4:1"); rec.Code != http.StatusOK {
		t.Errorf("after refill status = %d, want 200", rec.Code)
	}
}

func TestRateLimitForgetsIdleClients(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cfg := RateLimitConfig{Burst: 1, PerMinute: 1, IdleTTL: time.Minute, Now: func() time.Time { return now }}
	wb := newWriteBudget(cfg, now)
	h := rateLimit(cfg, wb)(okHandler())

	do := func(remote string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/links", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	do("1.1.1.1:1")
	do("2.2.2.2:1")
	if got := wb.tracked(); got != 2 {
		t.Fatalf("tracked = %d, want 2", got)
	}

	now = now.Add(30 * time.Second)
	if code := do("2.2.2.2:1"); code != http.StatusTooManyRequests {
		t.Errorf("second write within budget window = %d, want 429", code)
	}

	now = now.Add(45 * time.Second)
	if code := do("3.3.3.3:1"); code != http.StatusOK {
		t.Errorf("new client status = %d, want 200", code)
	}
	if got := wb.tracked(); got != 2 {
		t.Errorf("tracked after idle pass = %d, want 2 (1.1.1.1 forgotten)", got)
	}
}

func TestLogRecordsStatus(t *testing.T) {
	var sw *statusWriter
	h := Log(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw = w.(*statusWriter)
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if sw.status != http.StatusTeapot || sw.bytes != len("short and stout") {
		t.Errorf("statusWriter = {%d, %d}", sw.status, sw.bytes)
	}
	if _, _, err := sw.Hijack(); err == nil {
		t.Error("Hijack() on a recorder should fail")
	}
}
