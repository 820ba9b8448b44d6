package factory

import (
	"context"

	"github.com/matheuscscp/cms-git-backend/internal/config"
	"github.com/matheuscscp/cms-git-backend/internal/issuer"
	"github.com/matheuscscp/cms-git-backend/internal/provider"
)

// New selects the identity provider and the role checker for the configured
// mode. Local mode verifies tokens minted by iss and grants every role.
func New(ctx context.Context, conf *config.Config, iss issuer.Issuer) (provider.Interface, provider.RoleChecker, error) {
	if conf.Local {
		return provider.NewLocal(iss), provider.GrantAll{}, nil
	}

	p, err := provider.NewOIDC(ctx, &conf.OIDC)
	if err != nil {
		return nil, nil, err
	}
	roles, err := provider.NewRoleAPI(conf.OIDC.IsInRoleAPIURL)
	if err != nil {
		return nil, nil, err
	}
	return p, roles, nil
}
