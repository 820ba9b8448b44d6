package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/matheuscscp/cms-git-backend/internal/constants"
	"github.com/matheuscscp/cms-git-backend/internal/logging"
)

type roleAPI struct {
	url *url.URL
}

// NewRoleAPI returns a RoleChecker backed by an external role-membership API
// answering GET <apiURL>?roleCode=<code> with {"accessGranted": bool}.
func NewRoleAPI(apiURL string) (RoleChecker, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse role API URL: %w", err)
	}
	return &roleAPI{url: u}, nil
}

// IsInRole implements RoleChecker. Only a 2xx response whose body carries
// accessGranted set to true grants the role. Denials, unexpected statuses and
// malformed bodies are all reported as (false, nil); only transport failures
// are errors.
func (r *roleAPI) IsInRole(ctx context.Context, ts oauth2.TokenSource, roleCode string) (bool, error) {
	u := *r.url
	q := u.Query()
	q.Set(constants.QueryParamRoleCode, roleCode)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("failed to create role request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := oauth2.NewClient(ctx, ts).Do(req)
	if err != nil {
		return false, fmt.Errorf("role request failed: %w", err)
	}
	defer resp.Body.Close()

	l := logging.FromContext(ctx).WithField("role", logrus.Fields{
		"code":   roleCode,
		"status": resp.StatusCode,
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		l.Warn("role API returned unexpected status")
		return false, nil
	}

	var body struct {
		AccessGranted *bool `json:"accessGranted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		l.WithError(err).Warn("role API returned malformed body")
		return false, nil
	}

	return body.AccessGranted != nil && *body.AccessGranted, nil
}

// GrantAll is a RoleChecker that grants every role. Used in local mode.
type GrantAll struct{}

// IsInRole implements RoleChecker.
func (GrantAll) IsInRole(context.Context, oauth2.TokenSource, string) (bool, error) {
	return true, nil
}
