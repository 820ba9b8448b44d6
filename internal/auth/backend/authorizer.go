package backend

import (
	"fmt"
	"net/http"
	"regexp"

	"golang.org/x/oauth2"

	"github.com/matheuscscp/cms-git-backend/internal/auth"
	"github.com/matheuscscp/cms-git-backend/internal/logging"
	"github.com/matheuscscp/cms-git-backend/internal/provider"
)

const (
	MessageNoToken       = "No authorization token provided"
	MessageInvalidToken  = "Invalid or expired token"
	MessageForbidden     = "User not authorized to access the CMS"
	MessageCheckFailed   = "Authorization check failed"
	authorizedStatusCode = http.StatusOK
)

var bearerRegex = regexp.MustCompile(`(?i)^Bearer\s+(.+)$`)

// Decision is the outcome of one authorization check.
type Decision struct {
	Authorized   bool   `json:"isAuthorized"`
	ErrorCode    int    `json:"errorCode,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

func deny(code int, msg string) Decision {
	return Decision{ErrorCode: code, ErrorMessage: msg}
}

// StatusCode is the HTTP status that reports the decision.
func (d Decision) StatusCode() int {
	if d.Authorized {
		return authorizedStatusCode
	}
	return d.ErrorCode
}

// Authorizer decides whether a request may reach the CMS API. Decisions are
// computed on every call and never cached, so role changes apply at once.
type Authorizer interface {
	IsAuthorized(r *http.Request) (Decision, *auth.Editor)
}

type authorizer struct {
	provider provider.Interface
	roles    provider.RoleChecker
	roleCode string
}

func New(p provider.Interface, roles provider.RoleChecker, roleCode string) Authorizer {
	return &authorizer{
		provider: p,
		roles:    roles,
		roleCode: roleCode,
	}
}

// IsAuthorized implements Authorizer. The token is first validated against
// the identity provider and only then checked for role membership.
func (a *authorizer) IsAuthorized(r *http.Request) (d Decision, editor *auth.Editor) {
	l := logging.FromRequest(r)

	defer func() {
		if rec := recover(); rec != nil {
			l.WithError(fmt.Errorf("panic: %v", rec)).Error("authorization check panicked")
			d, editor = deny(http.StatusInternalServerError, MessageCheckFailed), nil
		}
	}()

	token := bearerToken(r)
	if token == "" {
		return deny(http.StatusUnauthorized, MessageNoToken), nil
	}

	ctx := r.Context()
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})

	user, err := a.provider.VerifyUser(ctx, ts)
	if err != nil {
		l.WithError(err).Debug("token verification failed")
		return deny(http.StatusUnauthorized, MessageInvalidToken), nil
	}

	granted, err := a.roles.IsInRole(ctx, ts, a.roleCode)
	if err != nil {
		l.WithError(err).Error("role check failed")
		return deny(http.StatusInternalServerError, MessageCheckFailed), nil
	}
	if !granted {
		l.WithField("user", user.Subject).Info("user lacks the editor role")
		return deny(http.StatusForbidden, MessageForbidden), nil
	}

	return Decision{Authorized: true}, user.Editor()
}

func bearerToken(r *http.Request) string {
	m := bearerRegex.FindStringSubmatch(r.Header.Get("Authorization"))
	if m == nil {
		return ""
	}
	return m[1]
}
