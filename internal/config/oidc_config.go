package config

import (
	"fmt"
	"strings"

	"github.com/matheuscscp/cms-git-backend/internal/constants"
)

// OIDCConfig holds everything the client authenticator and the backend
// authorizer need to talk to the identity provider and the role API.
type OIDCConfig struct {
	ClientID       string `yaml:"clientID" json:"clientID" env:"OIDC_CLIENT_ID"`
	ClientSecret   string `yaml:"clientSecret" json:"clientSecret" env:"OIDC_CLIENT_SECRET"`
	Issuer         string `yaml:"issuer" json:"issuer" env:"OIDC_ISSUER"`
	AuthorizeURL   string `yaml:"authorizeURL" json:"authorizeURL" env:"OIDC_AUTHORIZE_URL"`
	TokenURL       string `yaml:"tokenURL" json:"tokenURL" env:"OIDC_TOKEN_URL"`
	UserInfoURL    string `yaml:"userInfoURL" json:"userInfoURL" env:"OIDC_USERINFO_URL"`
	LogoutURL      string `yaml:"logoutURL" json:"logoutURL" env:"OIDC_LOGOUT_URL"`
	RedirectURI    string `yaml:"redirectURI" json:"redirectURI" env:"OIDC_REDIRECT_URI"`
	Scope          string `yaml:"scope" json:"scope" env:"OIDC_SCOPE"`
	IsInRoleAPIURL string `yaml:"isInRoleAPIURL" json:"isInRoleAPIURL" env:"OIDC_IS_IN_ROLE_API_URL"`
	RoleCode       string `yaml:"roleCode" json:"roleCode" env:"OIDC_ROLE_CODE"`
}

func (o *OIDCConfig) Scopes() []string {
	return strings.Fields(o.Scope)
}

func (o *OIDCConfig) applyDefaults() {
	if strings.TrimSpace(o.Scope) == "" {
		o.Scope = constants.AuthorizationServerDefaultScope
	}
}

func (o *OIDCConfig) validate() error {
	if o.ClientID == "" {
		return fmt.Errorf("oidc.clientID must be set")
	}
	if o.RedirectURI == "" {
		return fmt.Errorf("oidc.redirectURI must be set")
	}
	if o.IsInRoleAPIURL == "" {
		return fmt.Errorf("oidc.isInRoleAPIURL must be set")
	}
	if o.RoleCode == "" {
		return fmt.Errorf("oidc.roleCode must be set")
	}

	// Without discovery every endpoint must be explicit.
	if o.Issuer == "" {
		if o.AuthorizeURL == "" {
			return fmt.Errorf("oidc.authorizeURL must be set")
		}
		if o.TokenURL == "" {
			return fmt.Errorf("oidc.tokenURL must be set")
		}
		if o.UserInfoURL == "" {
			return fmt.Errorf("oidc.userInfoURL must be set")
		}
	}

	urls := []struct{ field, value string }{
		{"oidc.issuer", o.Issuer},
		{"oidc.authorizeURL", o.AuthorizeURL},
		{"oidc.tokenURL", o.TokenURL},
		{"oidc.userInfoURL", o.UserInfoURL},
		{"oidc.logoutURL", o.LogoutURL},
		{"oidc.redirectURI", o.RedirectURI},
		{"oidc.isInRoleAPIURL", o.IsInRoleAPIURL},
	}
	for _, u := range urls {
		if u.value == "" {
			continue
		}
		if err := validateAbsoluteURL(u.field, u.value); err != nil {
			return err
		}
	}
	return nil
}
