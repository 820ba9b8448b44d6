package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/matheuscscp/cms-git-backend/internal/config"
	"github.com/matheuscscp/cms-git-backend/internal/constants"
	"github.com/matheuscscp/cms-git-backend/internal/logging"
	"github.com/matheuscscp/cms-git-backend/internal/provider"
	"github.com/matheuscscp/cms-git-backend/internal/store"
)

var (
	// ErrRedirected is returned by Authenticate when the browser was sent
	// to the identity provider. The caller must stop handling the page.
	ErrRedirected = errors.New("browser redirected to the identity provider")

	ErrAuthenticationFailed = errors.New("authentication failed")
)

// Token is the token object handed to the CMS. The identity provider
// issues a single opaque token, exposed under both fields.
type Token struct {
	IDToken     string `json:"id_token"`
	AccessToken string `json:"access_token"`
}

type Authenticator interface {
	Authenticate(ctx context.Context) (*provider.UserInfo, error)
	IsAuthenticated(ctx context.Context) bool
	GetUser(ctx context.Context) (*provider.UserInfo, error)
	GetToken(ctx context.Context) (*Token, error)
	Logout(ctx context.Context) error
}

type oidcAuthenticator struct {
	provider  provider.Interface
	logoutURL string
	browser   *Browser
	newState  func() (string, error)
	now       func() time.Time
}

// New returns the authenticator for one browser context.
func New(p provider.Interface, conf *config.OIDCConfig, b *Browser) Authenticator {
	return &oidcAuthenticator{
		provider:  p,
		logoutURL: conf.LogoutURL,
		browser:   b,
		newState:  store.GenerateKey,
		now:       time.Now,
	}
}

// Authenticate implements Authenticator.
func (a *oidcAuthenticator) Authenticate(ctx context.Context) (*provider.UserInfo, error) {
	if !a.browser.present() {
		return nil, nil
	}

	user, err := a.verifyStoredToken(ctx)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	u := a.browser.Location.URL()
	q := u.Query()
	code := q.Get(constants.QueryParamAuthorizationCode)
	state := q.Get(constants.QueryParamState)
	if code != "" && state != "" {
		storedState, ok, err := a.browser.getSession(ctx, constants.StorageKeyState)
		if err != nil {
			return nil, fmt.Errorf("failed to read oauth state: %w", err)
		}
		if ok && storedState != "" && storedState == state {
			if err := a.browser.removeSession(ctx, constants.StorageKeyState); err != nil {
				return nil, fmt.Errorf("failed to remove oauth state: %w", err)
			}
			return a.completeLogin(ctx, code, u)
		}
		logging.FromContext(ctx).Warn("oauth state mismatch, restarting login")
	}

	if err := a.redirectToLogin(ctx); err != nil {
		return nil, err
	}
	return nil, ErrRedirected
}

func (a *oidcAuthenticator) completeLogin(ctx context.Context, code string, u *url.URL) (*provider.UserInfo, error) {
	tok, err := a.provider.OAuth2Config().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: token exchange failed: %w", ErrAuthenticationFailed, err)
	}
	if err := a.storeToken(ctx, tok); err != nil {
		return nil, err
	}

	user, err := a.provider.VerifyUser(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		a.clearAuthState(ctx)
		return nil, fmt.Errorf("%w: failed to fetch user profile: %w", ErrAuthenticationFailed, err)
	}
	if err := a.cacheUser(ctx, user); err != nil {
		return nil, err
	}

	a.browser.Location.ReplaceState(u.Path)

	logging.FromContext(ctx).WithField("user", user.Subject).Info("login completed")
	return user, nil
}

func (a *oidcAuthenticator) redirectToLogin(ctx context.Context) error {
	state, err := a.newState()
	if err != nil {
		return fmt.Errorf("failed to generate oauth state: %w", err)
	}
	if err := a.browser.setSession(ctx, constants.StorageKeyState, state); err != nil {
		return fmt.Errorf("failed to store oauth state: %w", err)
	}
	a.browser.assign(a.provider.OAuth2Config().AuthCodeURL(state))
	return nil
}

// IsAuthenticated implements Authenticator.
func (a *oidcAuthenticator) IsAuthenticated(ctx context.Context) bool {
	user, err := a.verifyStoredToken(ctx)
	if err != nil {
		logging.FromContext(ctx).WithError(err).Error("error checking authentication")
		return false
	}
	return user != nil
}

// GetUser implements Authenticator.
func (a *oidcAuthenticator) GetUser(ctx context.Context) (*provider.UserInfo, error) {
	cached, ok, err := a.browser.getLocal(ctx, constants.StorageKeyUser)
	if err != nil {
		return nil, fmt.Errorf("failed to read cached user: %w", err)
	}
	if ok {
		var user provider.UserInfo
		if err := json.Unmarshal([]byte(cached), &user); err == nil {
			return &user, nil
		}
		logging.FromContext(ctx).Warn("discarding unreadable cached user")
	}
	return a.verifyStoredToken(ctx)
}

// GetToken implements Authenticator.
func (a *oidcAuthenticator) GetToken(ctx context.Context) (*Token, error) {
	t, ok, err := a.browser.getLocal(ctx, constants.StorageKeyToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if !ok || t == "" {
		return nil, nil
	}
	return &Token{IDToken: t, AccessToken: t}, nil
}

// Logout implements Authenticator.
func (a *oidcAuthenticator) Logout(ctx context.Context) error {
	if err := a.clearAuthState(ctx); err != nil {
		return err
	}
	if a.logoutURL == "" || !a.browser.present() {
		return nil
	}

	u, err := url.Parse(a.logoutURL)
	if err != nil {
		return fmt.Errorf("failed to parse logout URL: %w", err)
	}
	q := u.Query()
	q.Set(constants.QueryParamPostLogoutRedirectURI, a.browser.Location.Origin())
	u.RawQuery = q.Encode()
	a.browser.assign(u.String())
	return nil
}

// verifyStoredToken returns the profile behind the stored token, or nil when
// there is no usable token. A token that fails verification is cleared
// together with everything derived from it and any pending login nonce.
func (a *oidcAuthenticator) verifyStoredToken(ctx context.Context) (*provider.UserInfo, error) {
	t, ok, err := a.browser.getLocal(ctx, constants.StorageKeyToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	if !ok || t == "" {
		return nil, nil
	}

	l := logging.FromContext(ctx)

	if a.tokenExpired(ctx) {
		l.Info("stored token expired")
		return nil, a.clearAuthState(ctx)
	}

	user, err := a.provider.VerifyUser(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: t}))
	if err != nil {
		l.WithError(err).Info("stored token rejected")
		return nil, a.clearAuthState(ctx)
	}
	if err := a.cacheUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *oidcAuthenticator) tokenExpired(ctx context.Context) bool {
	s, ok, err := a.browser.getLocal(ctx, constants.StorageKeyTokenExpiry)
	if err != nil || !ok {
		return false
	}
	exp, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return false
	}
	return !a.now().Before(exp)
}

func (a *oidcAuthenticator) storeToken(ctx context.Context, tok *oauth2.Token) error {
	if err := a.browser.setLocal(ctx, constants.StorageKeyToken, tok.AccessToken); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if tok.Expiry.IsZero() {
		if err := a.browser.removeLocal(ctx, constants.StorageKeyTokenExpiry); err != nil {
			return fmt.Errorf("failed to remove token expiry: %w", err)
		}
		return nil
	}
	if err := a.browser.setLocal(ctx, constants.StorageKeyTokenExpiry, tok.Expiry.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to store token expiry: %w", err)
	}
	return nil
}

func (a *oidcAuthenticator) cacheUser(ctx context.Context, user *provider.UserInfo) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := a.browser.setLocal(ctx, constants.StorageKeyUser, string(b)); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

func (a *oidcAuthenticator) clearAuthState(ctx context.Context) error {
	for _, key := range []string{
		constants.StorageKeyToken,
		constants.StorageKeyTokenExpiry,
		constants.StorageKeyUser,
	} {
		if err := a.browser.removeLocal(ctx, key); err != nil {
			return fmt.Errorf("failed to remove '%s': %w", key, err)
		}
	}
	if err := a.browser.removeSession(ctx, constants.StorageKeyState); err != nil {
		return fmt.Errorf("failed to remove oauth state: %w", err)
	}
	return nil
}
