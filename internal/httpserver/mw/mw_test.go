package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/videostream/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, remote string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8", "192.0.2.7"}, false, logger.NewNop())(okHandler)

	tests := []struct {
		remote string
		want   int
	}{
		{"10.1.2.3:4000", http.StatusOK},
		{"192.0.2.7:80", http.StatusOK},
		{"192.0.2.8:80", http.StatusForbidden},
		{"[2001:db8::1]:80", http.StatusForbidden},
	}
	for _, tt := range tests {
		if rec := serve(h, tt.remote, nil); rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.remote, rec.Code, tt.want)
		}
	}
}

func TestAllowOnlyCIDRSEmptyIsPassthrough(t *testing.T) {
	h := AllowOnlyCIDRS(nil, false, logger.NewNop())(okHandler)
	if rec := serve(h, "203.0.113.1:1", nil); rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 1})(okHandler)

	for i := 0; i < 2; i++ {
		if rec := serve(h, "192.0.2.1:1", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := serve(h, "192.0.2.1:1", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if got := rec.Header().Get("X-RateLimit-Limit"); got != "2" {
		t.Errorf("X-RateLimit-Limit = %q, want 2", got)
	}

	// Another client has its own bucket.
	if rec := serve(h, "192.0.2.2:1", nil); rec.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", rec.Code)
	}
}

func TestRateLimitKeysOnProxyHeaderWhenTrusted(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, TrustProxy: true})(okHandler)

	a := map[string]string{"X-Forwarded-For": "203.0.113.1"}
	b := map[string]string{"X-Forwarded-For": "203.0.113.2"}

	if rec := serve(h, "10.0.0.1:1", a); rec.Code != http.StatusOK {
		t.Fatalf("first: status = %d", rec.Code)
	}
	if rec := serve(h, "10.0.0.1:1", b); rec.Code != http.StatusOK {
		t.Errorf("second client behind same proxy: status = %d, want 200", rec.Code)
	}
	if rec := serve(h, "10.0.0.1:1", a); rec.Code != http.StatusTooManyRequests {
		t.Errorf("repeat client: status = %d, want 429", rec.Code)
	}
}

func TestLimiterSweepsIdleClients(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, IdleTTL: time.Minute, SweepInterval: time.Second})
	now := time.Now()

	l.reserve("a", now)
	l.reserve("b", now)
	if len(l.clients) != 2 {
		t.Fatalf("tracked = %d, want 2", len(l.clients))
	}

	l.reserve("c", now.Add(2*time.Minute))
	if len(l.clients) != 1 {
		t.Errorf("tracked after sweep = %d, want 1", len(l.clients))
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	h := CORS()(okHandler)

	rec := serve(h, "192.0.2.1:1", map[string]string{"Origin": "https://example.org"})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS()(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/videos", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != http.MethodPost {
		t.Errorf("Access-Control-Allow-Methods = %q, want POST", got)
	}
}

func TestLogPassesThroughStatus(t *testing.T) {
	h := Log(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	if rec := serve(h, "192.0.2.1:1", nil); rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}
