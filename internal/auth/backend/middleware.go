package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matheuscscp/cms-git-backend/internal/auth"
	"github.com/matheuscscp/cms-git-backend/internal/constants"
	"github.com/matheuscscp/cms-git-backend/internal/logging"
)

// Middleware rejects requests the authorizer denies, replying with the
// decision as JSON. Authorized requests proceed with the editor in their
// context.
func Middleware(a Authorizer, promRegisterer prometheus.Registerer) func(http.Handler) http.Handler {
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cms_authorization_decisions_total",
		Help: "Total authorization decisions by HTTP status code",
	}, []string{"code"})
	promRegisterer.MustRegister(decisions)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, editor := a.IsAuthorized(r)
			status := d.StatusCode()
			decisions.WithLabelValues(strconv.Itoa(status)).Inc()

			if !d.Authorized {
				if status == http.StatusUnauthorized {
					w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Bearer realm="%s"`, constants.CMSGitBackend))
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				if err := json.NewEncoder(w).Encode(d); err != nil {
					logging.FromRequest(r).WithError(err).Error("failed to write response")
				}
				return
			}

			ctx := auth.WithEditor(r.Context(), editor)
			ctx = logging.WithEditor(ctx, editor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
