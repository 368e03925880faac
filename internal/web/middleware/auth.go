package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/JonMunkholm/rollcall/internal/config"
	"github.com/JonMunkholm/rollcall/internal/logging"
)

// APIKeyHeader carries the admin API key.
const APIKeyHeader = "X-API-Key"

// AdminOnly guards admin routes (event and member creation) with an API key.
// When RequireAPIKey is off every request passes. When it is on and no keys
// are configured, every request is rejected.
func AdminOnly(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.RequireAPIKey {
				next.ServeHTTP(w, r)
				return
			}

			logger := logging.WithFields(r.Context(), "path", r.URL.Path, "method", r.Method, "ip", ClientIP(r))

			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				logger.Warn("admin route: missing API key")
				denyJSON(w, http.StatusUnauthorized, "missing API key", "AUTH001")
				return
			}
			if !matchesAny([]byte(key), keys) {
				logger.Warn("admin route: invalid API key")
				denyJSON(w, http.StatusForbidden, "invalid API key", "AUTH002")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// matchesAny compares key against every candidate in constant time.
func matchesAny(key []byte, candidates [][]byte) bool {
	match := 0
	for _, c := range candidates {
		match |= subtle.ConstantTimeCompare(key, c)
	}
	return match == 1
}

func denyJSON(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   message,
		"message": message,
		"code":    code,
	})
}
