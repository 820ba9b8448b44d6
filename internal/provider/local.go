package provider

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"github.com/matheuscscp/cms-git-backend/internal/constants"
	"github.com/matheuscscp/cms-git-backend/internal/issuer"
)

type localProvider struct {
	issuer issuer.Issuer
	now    func() time.Time
}

// NewLocal returns the provider used in local mode, where tokens are minted
// by this process instead of an identity provider.
func NewLocal(iss issuer.Issuer) Interface {
	return &localProvider{
		issuer: iss,
		now:    time.Now,
	}
}

// OAuth2Config implements Interface.
func (l *localProvider) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{ClientID: constants.CMSGitBackend}
}

// VerifyUser implements Interface.
func (l *localProvider) VerifyUser(ctx context.Context, ts oauth2.TokenSource) (*UserInfo, error) {
	tok, err := ts.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	claims, ok := l.issuer.Verify(tok.AccessToken, l.now())
	if !ok {
		return nil, fmt.Errorf("invalid local token")
	}
	return &UserInfo{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.Email != "",
		Name:          claims.Name,
		Username:      claims.Subject,
	}, nil
}
