package provider

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/matheuscscp/cms-git-backend/internal/auth"
)

// UserInfo is the profile returned by the identity provider. The client
// authenticator caches it as JSON in browser storage.
type UserInfo struct {
	Subject       string         `json:"sub"`
	Email         string         `json:"email,omitempty"`
	EmailVerified bool           `json:"email_verified,omitempty"`
	Name          string         `json:"name,omitempty"`
	Username      string         `json:"preferred_username,omitempty"`
	Claims        map[string]any `json:"claims,omitempty"`
}

// Editor returns the request-scoped identity derived from the profile.
func (u *UserInfo) Editor() *auth.Editor {
	if u == nil {
		return nil
	}
	return &auth.Editor{
		Subject: u.Subject,
		Email:   u.Email,
		Name:    u.Name,
	}
}

type Interface interface {
	OAuth2Config() *oauth2.Config
	VerifyUser(ctx context.Context, ts oauth2.TokenSource) (*UserInfo, error)
}

// RoleChecker answers whether the bearer of a token holds a role.
type RoleChecker interface {
	IsInRole(ctx context.Context, ts oauth2.TokenSource, roleCode string) (bool, error)
}
