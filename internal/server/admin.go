package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/matheuscscp/cms-git-backend/internal/auth/client"
	"github.com/matheuscscp/cms-git-backend/internal/config"
	"github.com/matheuscscp/cms-git-backend/internal/logging"
	"github.com/matheuscscp/cms-git-backend/internal/store"
)

const (
	pathAdmin       = "/admin"
	pathAdminUser   = "/admin/user"
	pathAdminToken  = "/admin/token"
	pathAdminLogout = "/admin/logout"
)

// requestLocation is the window.location of a browser talking to the admin
// host. Navigations are recorded and turned into redirects by the handler.
type requestLocation struct {
	r          *http.Request
	trustProxy bool
	assigned   string
	replaced   string
}

func (l *requestLocation) URL() *url.URL {
	u := *l.r.URL
	u.Scheme = scheme(l.r, l.trustProxy)
	u.Host = l.r.Host
	return &u
}

func (l *requestLocation) Origin() string { return origin(l.r, l.trustProxy) }
func (l *requestLocation) Assign(target string) { l.assigned = target }
func (l *requestLocation) ReplaceState(path string) { l.replaced = path }

// authenticatorFactory builds the authenticator for one browser.
type authenticatorFactory func(b *client.Browser) client.Authenticator

// adminRoutes hosts the client authenticator for browsers. Local and session
// storage are emulated with cookie-identified namespaces of st.
func adminRoutes(r chi.Router, conf *config.Config, st store.Store, newAuthenticator authenticatorFactory) {
	browser := func(w http.ResponseWriter, r *http.Request) (*client.Browser, *requestLocation, error) {
		trustProxy := conf.Server.TrustProxy
		secure := scheme(r, trustProxy) == "https"
		localID, err := browserID(w, r, localCookieName, localStorageTTL, secure)
		if err != nil {
			return nil, nil, err
		}
		sessionID, err := browserID(w, r, sessionCookieName, 0, secure)
		if err != nil {
			return nil, nil, err
		}
		loc := &requestLocation{r: r, trustProxy: trustProxy}
		return &client.Browser{
			Local:    store.Namespace(st, "local:"+localID, localStorageTTL),
			Session:  store.Namespace(st, "session:"+sessionID, conf.Session.StateTTL),
			Location: loc,
		}, loc, nil
	}

	withAuthenticator := func(h func(w http.ResponseWriter, r *http.Request, a client.Authenticator, loc *requestLocation)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			b, loc, err := browser(w, r)
			if err != nil {
				logging.FromRequest(r).WithError(err).Error("failed to set up browser storage")
				respondError(w, r, http.StatusInternalServerError, "Failed to set up browser storage")
				return
			}
			h(w, r, newAuthenticator(b), loc)
		}
	}

	r.Get(pathAdmin, withAuthenticator(func(w http.ResponseWriter, r *http.Request, a client.Authenticator, loc *requestLocation) {
		l := logging.FromRequest(r)

		user, err := a.Authenticate(r.Context())
		switch {
		case errors.Is(err, client.ErrRedirected):
			http.Redirect(w, r, loc.assigned, http.StatusSeeOther)
		case errors.Is(err, client.ErrAuthenticationFailed):
			l.WithError(err).Error("authentication failed")
			respondError(w, r, http.StatusUnauthorized, "Authentication failed")
		case err != nil:
			l.WithError(err).Error("failed to authenticate")
			respondError(w, r, http.StatusInternalServerError, "Failed to authenticate")
		case user == nil:
			respondError(w, r, http.StatusUnauthorized, "Not authenticated")
		case loc.replaced != "":
			// Drop the callback parameters from the address bar.
			http.Redirect(w, r, loc.replaced, http.StatusSeeOther)
		default:
			respondJSON(w, r, http.StatusOK, user)
		}
	}))

	r.Get(pathAdminUser, withAuthenticator(func(w http.ResponseWriter, r *http.Request, a client.Authenticator, _ *requestLocation) {
		user, err := a.GetUser(r.Context())
		if err != nil {
			logging.FromRequest(r).WithError(err).Error("failed to get user")
			respondError(w, r, http.StatusInternalServerError, "Failed to get user")
			return
		}
		if user == nil {
			respondError(w, r, http.StatusUnauthorized, "Not authenticated")
			return
		}
		respondJSON(w, r, http.StatusOK, user)
	}))

	r.Get(pathAdminToken, withAuthenticator(func(w http.ResponseWriter, r *http.Request, a client.Authenticator, _ *requestLocation) {
		tok, err := a.GetToken(r.Context())
		if err != nil {
			logging.FromRequest(r).WithError(err).Error("failed to get token")
			respondError(w, r, http.StatusInternalServerError, "Failed to get token")
			return
		}
		if tok == nil {
			respondError(w, r, http.StatusUnauthorized, "Not authenticated")
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		respondJSON(w, r, http.StatusOK, tok)
	}))

	r.Post(pathAdminLogout, withAuthenticator(func(w http.ResponseWriter, r *http.Request, a client.Authenticator, loc *requestLocation) {
		if err := a.Logout(r.Context()); err != nil {
			logging.FromRequest(r).WithError(err).Error("failed to log out")
			respondError(w, r, http.StatusInternalServerError, "Failed to log out")
			return
		}
		if loc.assigned != "" {
			http.Redirect(w, r, loc.assigned, http.StatusSeeOther)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
}
