package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/matheuscscp/cms-git-backend/internal/config"
	"github.com/matheuscscp/cms-git-backend/internal/provider"
)

// Exercises the authorizer against HTTP fakes of the identity provider and
// the role API.
func TestAuthorizer_OverHTTP(t *testing.T) {
	tests := []struct {
		name              string
		token             string
		roleBody          string
		expectedCode      int
		expectedRoleCalls int32
	}{
		{
			name:              "granted",
			token:             "good-token",
			roleBody:          `{"accessGranted": true}`,
			expectedCode:      http.StatusOK,
			expectedRoleCalls: 1,
		},
		{
			name:              "denied",
			token:             "good-token",
			roleBody:          `{"accessGranted": false}`,
			expectedCode:      http.StatusForbidden,
			expectedRoleCalls: 1,
		},
		{
			name:              "malformed role body",
			token:             "good-token",
			roleBody:          `not json`,
			expectedCode:      http.StatusForbidden,
			expectedRoleCalls: 1,
		},
		{
			name:         "userinfo rejects token",
			token:        "expired-token",
			roleBody:     `{"accessGranted": true}`,
			expectedCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			var roleCalls atomic.Int32
			mux := http.NewServeMux()
			mux.HandleFunc("/connect/userinfo", func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("Authorization") != "Bearer good-token" {
					w.WriteHeader(http.StatusUnauthorized)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"sub":"user-1","email":"editor@example.com"}`))
			})
			mux.HandleFunc("/api/v1/Authorization/IsInRole", func(w http.ResponseWriter, r *http.Request) {
				roleCalls.Add(1)
				if r.URL.Query().Get("roleCode") != "Documentation.Editor" {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(tt.roleBody))
			})
			srv := httptest.NewServer(mux)
			defer srv.Close()

			p, err := provider.NewOIDC(context.Background(), &config.OIDCConfig{
				ClientID:     "test-client",
				AuthorizeURL: srv.URL + "/connect/authorize",
				TokenURL:     srv.URL + "/connect/token",
				UserInfoURL:  srv.URL + "/connect/userinfo",
			})
			g.Expect(err).ToNot(HaveOccurred())
			roles, err := provider.NewRoleAPI(srv.URL + "/api/v1/Authorization/IsInRole")
			g.Expect(err).ToNot(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/api/cms/content", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)

			d, _ := New(p, roles, "Documentation.Editor").IsAuthorized(req)
			g.Expect(d.StatusCode()).To(Equal(tt.expectedCode))
			g.Expect(roleCalls.Load()).To(Equal(tt.expectedRoleCalls))
		})
	}
}
