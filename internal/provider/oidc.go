package provider

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/matheuscscp/cms-git-backend/internal/config"
)

type oidcProvider struct {
	conf     *config.OIDCConfig
	endpoint oauth2.Endpoint
	provider *oidc.Provider
}

// NewOIDC builds a generic OpenID Connect provider. When an issuer is
// configured the endpoints are discovered from it, and explicitly configured
// endpoints take precedence over discovered ones.
func NewOIDC(ctx context.Context, conf *config.OIDCConfig) (Interface, error) {
	var pc oidc.ProviderConfig
	if conf.Issuer != "" {
		discovered, err := oidc.NewProvider(ctx, conf.Issuer)
		if err != nil {
			return nil, fmt.Errorf("failed to discover oidc provider '%s': %w", conf.Issuer, err)
		}
		if err := discovered.Claims(&pc); err != nil {
			return nil, fmt.Errorf("failed to decode discovery document of '%s': %w", conf.Issuer, err)
		}
	}
	if conf.AuthorizeURL != "" {
		pc.AuthURL = conf.AuthorizeURL
	}
	if conf.TokenURL != "" {
		pc.TokenURL = conf.TokenURL
	}
	if conf.UserInfoURL != "" {
		pc.UserInfoURL = conf.UserInfoURL
	}

	switch {
	case pc.AuthURL == "":
		return nil, fmt.Errorf("oidc provider has no authorization endpoint")
	case pc.TokenURL == "":
		return nil, fmt.Errorf("oidc provider has no token endpoint")
	case pc.UserInfoURL == "":
		return nil, fmt.Errorf("oidc provider has no userinfo endpoint")
	}

	return &oidcProvider{
		conf: conf,
		endpoint: oauth2.Endpoint{
			AuthURL:  pc.AuthURL,
			TokenURL: pc.TokenURL,
			// The code exchange is a form-encoded POST carrying client_id.
			AuthStyle: oauth2.AuthStyleInParams,
		},
		provider: pc.NewProvider(ctx),
	}, nil
}

// OAuth2Config implements Interface.
func (o *oidcProvider) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     o.conf.ClientID,
		ClientSecret: o.conf.ClientSecret,
		RedirectURL:  o.conf.RedirectURI,
		Endpoint:     o.endpoint,
		Scopes:       o.conf.Scopes(),
	}
}

// VerifyUser implements Interface.
func (o *oidcProvider) VerifyUser(ctx context.Context, ts oauth2.TokenSource) (*UserInfo, error) {
	info, err := o.provider.UserInfo(ctx, ts)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}

	var claims map[string]any
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("error unmarshaling userinfo claims: %w", err)
	}

	return &UserInfo{
		Subject:       info.Subject,
		Email:         info.Email,
		EmailVerified: info.EmailVerified,
		Name:          stringClaim(claims, "name"),
		Username:      stringClaim(claims, "preferred_username"),
		Claims:        claims,
	}, nil
}

func stringClaim(claims map[string]any, name string) string {
	s, _ := claims[name].(string)
	return s
}
