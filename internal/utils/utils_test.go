package utils

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/MrSnakeDoc/varlink/internal/logger"
)

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error {
	c.closed = true
	return c.err
}

func TestMustClose(t *testing.T) {
	ok := &closer{}
	MustClose("ok", ok, logger.Nop())
	if !ok.closed {
		t.Error("MustClose() did not close")
	}

	failing := &closer{err: errors.New("boom")}
	MustClose("failing", failing, logger.Nop())
	if !failing.closed {
		t.Error("MustClose() did not close the failing closer")
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "1.2.3.4:5678", want: "1.2.3.4"},
		{name: "proxy headers ignored", remote: "1.2.3.4:5678", headers: map[string]string{"X-Forwarded-For": "9.9.9.9"}, want: "1.2.3.4"},
		{name: "cloudflare first", remote: "127.0.0.1:1", headers: map[string]string{"CF-Connecting-IP": "8.8.8.8", "X-Forwarded-For": "9.9.9.9"}, trustProxy: true, want: "8.8.8.8"},
		{name: "left-most forwarded", remote: "127.0.0.1:1", headers: map[string]string{"X-Forwarded-For": " 9.9.9.9 , 10.0.0.1"}, trustProxy: true, want: "9.9.9.9"},
		{name: "real ip", remote: "127.0.0.1:1", headers: map[string]string{"X-Real-IP": "7.7.7.7"}, trustProxy: true, want: "7.7.7.7"},
		{name: "ipv6 remote", remote: "[::1]:8080", want: "::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := ClientIP(req, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := NewIPMatcher([]string{"10.0.0.0/8", " 192.168.1.1 ", "garbage", ""})
	if m.IsEmpty() {
		t.Fatal("IsEmpty() = true")
	}

	tests := map[string]bool{
		"10.20.30.40": true,
		"192.168.1.1": true,
		"192.168.1.2": false,
		"not-an-ip":   false,
		"2001:db8::1": false,
	}
	for ip, want := range tests {
		if got := m.Allow(ip); got != want {
			t.Errorf("Allow(%q) = %v, want %v", ip, got, want)
		}
	}

	if !NewIPMatcher(nil).IsEmpty() {
		t.Error("empty matcher should report IsEmpty")
	}
}
