package factory

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/matheuscscp/cms-git-backend/internal/config"
	"github.com/matheuscscp/cms-git-backend/internal/issuer"
	"github.com/matheuscscp/cms-git-backend/internal/provider"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.Config
		expectError bool
		expectLocal bool
	}{
		{
			name:        "local mode",
			config:      &config.Config{Local: true},
			expectLocal: true,
		},
		{
			name: "explicit oidc endpoints",
			config: &config.Config{
				OIDC: config.OIDCConfig{
					ClientID:       "client",
					AuthorizeURL:   "https://idp.example.com/connect/authorize",
					TokenURL:       "https://idp.example.com/connect/token",
					UserInfoURL:    "https://idp.example.com/connect/userinfo",
					RedirectURI:    "http://localhost:3000/admin",
					IsInRoleAPIURL: "https://idm.example.com/IsInRole",
					RoleCode:       "Editor",
				},
			},
		},
		{
			name: "missing userinfo endpoint",
			config: &config.Config{
				OIDC: config.OIDCConfig{
					ClientID:     "client",
					AuthorizeURL: "https://idp.example.com/connect/authorize",
					TokenURL:     "https://idp.example.com/connect/token",
				},
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			p, roles, err := New(context.Background(), tt.config, issuer.New())

			if tt.expectError {
				g.Expect(err).To(HaveOccurred())
				g.Expect(p).To(BeNil())
				g.Expect(roles).To(BeNil())
				return
			}
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(p).ToNot(BeNil())
			g.Expect(roles).ToNot(BeNil())
			if tt.expectLocal {
				g.Expect(roles).To(Equal(provider.GrantAll{}))
			} else {
				g.Expect(roles).ToNot(Equal(provider.GrantAll{}))
			}
		})
	}
}
