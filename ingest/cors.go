package ingest

import (
	"net/http"
	"net/url"
)

// allowedOrigin admits empty origins (curl, same-origin), localhost variants
// and the origins configured with WithAllowedOrigins.
func (h *Handler) allowedOrigin(origin string) bool {
	if origin == "" || h.origins["*"] || h.origins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	hostname := u.Hostname()
	return hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"
}

// cors rejects disallowed origins, echoes allowed ones (never "*") and
// answers preflight requests.
func (h *Handler) cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !h.allowedOrigin(origin) {
			http.Error(w, `{"error":"forbidden: invalid origin"}`, http.StatusForbidden)
			return
		}
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}
