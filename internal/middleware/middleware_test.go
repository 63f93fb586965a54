package middleware

import (
	"net/http"
	"net/netip"
	"net/http/httptest"
	"testing"
	"time"

	"rnb-admin/internal/config"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestCORSHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	CORS("", okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/items", nil))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,PATCH,OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestTokenBucketRefillsEachSecond(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	tb := NewTokenBucket(2)
	tb.now = func() time.Time { return now }
	tb.lastSec = now.Unix()

	h := RateLimit(tb, okHandler())
	codes := func() int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, codes())
	assert.Equal(t, http.StatusOK, codes())
	assert.Equal(t, http.StatusTooManyRequests, codes())

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, codes())
}

func TestWrapRespectsConfig(t *testing.T) {
	cfg := config.Config{CORSOrigin: "https://admin.example", RateLimitEnabled: true, RateLimitQPS: 1}
	h := Wrap(cfg, okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://admin.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWrapRateLimitKeepsCORS(t *testing.T) {
	cfg := config.Config{RateLimitEnabled: true, RateLimitQPS: 1}
	h := Wrap(cfg, okHandler())
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Equal(t, "*", last.Header().Get("Access-Control-Allow-Origin"))
}

func TestAllowlistAllowed(t *testing.T) {
	a := NewAllowlist([]string{"203.0.113.7", "bogus"}, []string{"10.1.0.0/16", "not-a-cidr"}, false, "")
	tests := []struct {
		ip   string
		want bool
	}{
		{"203.0.113.7", true},
		{"::ffff:203.0.113.7", true},
		{"10.1.200.3", true},
		{"10.2.0.1", false},
		{"127.0.0.1", false},
	}
	for _, tc := range tests {
		t.Run(tc.ip, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Allowed(netip.MustParseAddr(tc.ip)))
		})
	}
	assert.True(t, NewAllowlist(nil, nil, true, "").Allowed(netip.MustParseAddr("::1")))
}

func TestAllowlistGuardsWritesOnly(t *testing.T) {
	h := NewAllowlist([]string{"192.0.2.1"}, nil, false, "X-Forwarded-For").Wrap(okHandler())

	serve := func(method, remote, xff string) int {
		req := httptest.NewRequest(method, "/items/1", nil)
		req.RemoteAddr = remote
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "198.51.100.9:5000", ""))
	assert.Equal(t, http.StatusOK, serve(http.MethodOptions, "198.51.100.9:5000", ""))
	assert.Equal(t, http.StatusForbidden, serve(http.MethodPatch, "198.51.100.9:5000", ""))
	assert.Equal(t, http.StatusOK, serve(http.MethodPatch, "192.0.2.1:5000", ""))
	assert.Equal(t, http.StatusOK, serve(http.MethodPatch, "198.51.100.9:5000", "192.0.2.1, 10.0.0.1"))
	assert.Equal(t, http.StatusForbidden, serve(http.MethodPatch, "garbage", ""))
}

func TestWrapAllowlistFromConfig(t *testing.T) {
	cfg := config.Config{WriteAllowlistEnabled: true, WriteAllowIPs: []string{"192.0.2.1"}}
	h := Wrap(cfg, okHandler())
	req := httptest.NewRequest(http.MethodPatch, "/items/1", nil)
	req.RemoteAddr = "198.51.100.9:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"forbidden"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
