package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/matheuscscp/cms-git-backend/internal/store"
)

const (
	localCookieName   = "cms-local"
	sessionCookieName = "cms-session"

	localStorageTTL = 30 * 24 * time.Hour
)

// browserID returns the identifier stored in the named cookie, minting and
// setting a fresh one when the browser has none. A zero maxAge yields a
// session cookie.
func browserID(w http.ResponseWriter, r *http.Request, name string, maxAge time.Duration, secure bool) (string, error) {
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return c.Value, nil
	}
	id, err := store.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate %s id: %w", name, err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    id,
		Path:     pathAdmin,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}
