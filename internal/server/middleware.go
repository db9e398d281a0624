package server

import (
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "github.com/skillmatch/skill-match/internal/pkg/errors"
)

// CORSMiddleware adds CORS headers. origins is a comma-separated
// allowlist; "*" or empty allows any origin.
func CORSMiddleware(origins string, next http.Handler) http.Handler {
	allowAll := origins == "" || origins == "*"

	allowed := make(map[string]bool)
	if !allowAll {
		for _, o := range strings.Split(origins, ",") {
			allowed[strings.TrimSpace(o)] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case allowed[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// APIKeyMiddleware enforces the X-API-Key header on /v1/* routes when a
// key is configured. Health and metrics endpoints stay open.
func APIKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/v1/") {
			next.ServeHTTP(w, r)
			return
		}

		got := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(apiKey)) != 1 {
			apperrors.WriteErrorWithStatus(w, http.StatusUnauthorized,
				apperrors.New(apperrors.CodeUnauthorized, "invalid or missing API key"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
