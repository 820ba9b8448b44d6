package server

import (
	"encoding/json"
	"net/http"

	"github.com/matheuscscp/cms-git-backend/internal/logging"
)

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromRequest(r).WithError(err).Error("failed to write response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, map[string]string{"error": msg})
}

// scheme honours TLS-terminating proxies in front of the server when they
// are trusted.
func scheme(r *http.Request, trustProxy bool) string {
	if proto := r.Header.Get("X-Forwarded-Proto"); trustProxy && (proto == "http" || proto == "https") {
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func origin(r *http.Request, trustProxy bool) string {
	return scheme(r, trustProxy) + "://" + r.Host
}
