package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JonMunkholm/rollcall/internal/config"
	"github.com/JonMunkholm/rollcall/internal/core"
	"github.com/JonMunkholm/rollcall/internal/metrics"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAdminOnly(t *testing.T) {
	enabled := config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"alpha", "beta"}}

	tests := []struct {
		name   string
		cfg    config.SecurityConfig
		key    string
		status int
	}{
		{"disabled passes", config.SecurityConfig{}, "", http.StatusOK},
		{"missing key", enabled, "", http.StatusUnauthorized},
		{"wrong key", enabled, "gamma", http.StatusForbidden},
		{"first key", enabled, "alpha", http.StatusOK},
		{"second key", enabled, "beta", http.StatusOK},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, "alpha", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
			if tt.key != "" {
				req.Header.Set(APIKeyHeader, tt.key)
			}
			rec := httptest.NewRecorder()
			AdminOnly(tt.cfg)(okHandler).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{"no proxies configured", nil, "10.0.0.1:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.0.0.1"},
		{"untrusted source", []string{"192.168.0.0/16"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "10.0.0.1"},
		{"trusted real ip", []string{"10.0.0.0/8"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted forwarded for", []string{"10.0.0.1"}, "10.0.0.1:5000", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "5.6.7.8"},
		{"garbage header ignored", []string{"10.0.0.0/8"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "not-an-ip"}, "10.0.0.1"},
		{"invalid cidr skipped", []string{"bogus", "10.0.0.0/8"}, "10.0.0.1:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = ClientIP(r)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("client ip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	m := metrics.New()
	rl := NewRateLimiter(config.RateLimitConfig{Enabled: true, RequestsPerMinute: 60, Burst: 2}, m)
	h := rl.Middleware(okHandler)

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("1.1.1.1:1000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	rec := send("1.1.1.1:1001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
	if !strings.Contains(rec.Body.String(), "RATE001") {
		t.Errorf("body = %s, want RATE001 code", rec.Body.String())
	}

	// Another client has its own bucket.
	if rec := send("2.2.2.2:1000"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}

	if got := testutil.ToFloat64(m.RateLimitedTotal); got != 1 {
		t.Errorf("rate limited counter = %v, want 1", got)
	}
}

func TestSession(t *testing.T) {
	store := core.NewSessionStore(time.Minute, time.Minute)
	var seen string
	h := Session(store, "sid")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = core.SessionIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/curate/users", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "sid" {
		t.Fatalf("cookies = %v, want one sid cookie", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	if seen == "" || seen != cookies[0].Value {
		t.Fatalf("context session = %q, cookie = %q", seen, cookies[0].Value)
	}
	first := seen

	t.Run("existing session reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/curate/users", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: first})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen != first {
			t.Errorf("session = %q, want %q", seen, first)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Error("cookie should not be reissued for a live session")
		}
	})

	t.Run("unknown session replaced", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/curate/users", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: "stale"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen == "stale" || seen == "" {
			t.Errorf("session = %q, want a fresh ID", seen)
		}
		if len(rec.Result().Cookies()) != 1 {
			t.Error("expected a new cookie")
		}
	})

	if store.Count() != 2 {
		t.Errorf("sessions = %d, want 2", store.Count())
	}
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}

	got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/items/{id}", "418"))
	if got != 3 {
		t.Errorf("requests for /items/{id} = %v, want 3", got)
	}
}

func TestLoggerCapturesStatus(t *testing.T) {
	sw := newStatusWriter(httptest.NewRecorder())
	sw.WriteHeader(http.StatusNotFound)
	sw.WriteHeader(http.StatusOK)
	n, _ := sw.Write([]byte("gone"))

	if sw.status != http.StatusNotFound {
		t.Errorf("status = %d, want first header 404", sw.status)
	}
	if sw.bytes != n || n != 4 {
		t.Errorf("bytes = %d, want 4", sw.bytes)
	}

	rec := httptest.NewRecorder()
	Logger(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
