package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matheuscscp/cms-git-backend/internal/issuer"
	"github.com/matheuscscp/cms-git-backend/internal/provider"
)

const (
	LocalEditorSubject = "local-editor"
	LocalEditorEmail   = "editor@localhost"
	LocalEditorName    = "Local Editor"
)

type localAuthenticator struct {
	issuer issuer.Issuer
	now    func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewLocal returns the authenticator used in local mode: the user is always
// signed in as a fixed local editor holding a token minted by iss.
func NewLocal(iss issuer.Issuer) Authenticator {
	return &localAuthenticator{
		issuer: iss,
		now:    time.Now,
	}
}

func localUser() *provider.UserInfo {
	return &provider.UserInfo{
		Subject:       LocalEditorSubject,
		Email:         LocalEditorEmail,
		EmailVerified: true,
		Name:          LocalEditorName,
		Username:      LocalEditorSubject,
	}
}

// Authenticate implements Authenticator.
func (l *localAuthenticator) Authenticate(context.Context) (*provider.UserInfo, error) {
	return localUser(), nil
}

// IsAuthenticated implements Authenticator.
func (l *localAuthenticator) IsAuthenticated(context.Context) bool {
	return true
}

// GetUser implements Authenticator.
func (l *localAuthenticator) GetUser(context.Context) (*provider.UserInfo, error) {
	return localUser(), nil
}

// GetToken implements Authenticator. Tokens are reissued once expired.
func (l *localAuthenticator) GetToken(context.Context) (*Token, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.token == "" || !now.Before(l.expiry) {
		token, exp, err := l.issuer.Issue(issuer.Claims{
			Subject: LocalEditorSubject,
			Email:   LocalEditorEmail,
			Name:    LocalEditorName,
		}, now)
		if err != nil {
			return nil, fmt.Errorf("failed to issue local token: %w", err)
		}
		l.token, l.expiry = token, exp
	}
	return &Token{IDToken: l.token, AccessToken: l.token}, nil
}

// Logout implements Authenticator.
func (l *localAuthenticator) Logout(context.Context) error {
	return nil
}
