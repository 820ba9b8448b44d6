package backend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matheuscscp/cms-git-backend/internal/auth"
	"github.com/matheuscscp/cms-git-backend/internal/issuer"
	"github.com/matheuscscp/cms-git-backend/internal/provider"
)

func TestMiddleware(t *testing.T) {
	g := NewWithT(t)

	p := &mockProvider{validToken: "good-token"}
	roles := &mockRoleChecker{}
	registry := prometheus.NewRegistry()

	var seen *auth.Editor
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.EditorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Middleware(New(p, roles, "Editor"), registry)(next)

	serve := func(authorization string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/cms/content/posts/hello.md", strings.NewReader("hello"))
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	// Missing token.
	rec := serve("")
	g.Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	g.Expect(rec.Header().Get("WWW-Authenticate")).To(Equal(`Bearer realm="cms-git-backend"`))
	g.Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
	var d Decision
	g.Expect(json.Unmarshal(rec.Body.Bytes(), &d)).To(Succeed())
	g.Expect(d).To(Equal(Decision{ErrorCode: http.StatusUnauthorized, ErrorMessage: MessageNoToken}))
	g.Expect(seen).To(BeNil())

	// Role denied.
	rec = serve("Bearer good-token")
	g.Expect(rec.Code).To(Equal(http.StatusForbidden))
	g.Expect(rec.Header().Get("WWW-Authenticate")).To(BeEmpty())
	g.Expect(rec.Body.String()).To(ContainSubstring(MessageForbidden))
	g.Expect(seen).To(BeNil())

	// Authorized.
	roles.granted = true
	rec = serve("Bearer good-token")
	g.Expect(rec.Code).To(Equal(http.StatusNoContent))
	g.Expect(seen).To(Equal(&auth.Editor{Subject: "user-1", Email: "editor@example.com", Name: "Jane Editor"}))

	g.Expect(testutil.GatherAndCompare(registry, strings.NewReader(`
# HELP cms_authorization_decisions_total Total authorization decisions by HTTP status code
# TYPE cms_authorization_decisions_total counter
cms_authorization_decisions_total{code="200"} 1
cms_authorization_decisions_total{code="401"} 1
cms_authorization_decisions_total{code="403"} 1
`), "cms_authorization_decisions_total")).To(Succeed())
}

func TestLocalAuthorizer(t *testing.T) {
	g := NewWithT(t)

	iss := issuer.New()
	token, _, err := iss.Issue(issuer.Claims{Subject: "local-editor", Name: "Local Editor"}, time.Now())
	g.Expect(err).ToNot(HaveOccurred())

	a := New(provider.NewLocal(iss), provider.GrantAll{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/cms/content", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	d, editor := a.IsAuthorized(req)
	g.Expect(d).To(Equal(Decision{Authorized: true}))
	g.Expect(editor).To(Equal(&auth.Editor{Subject: "local-editor", Name: "Local Editor"}))

	req.Header.Set("Authorization", "Bearer forged")
	d, editor = a.IsAuthorized(req)
	g.Expect(d.ErrorCode).To(Equal(http.StatusUnauthorized))
	g.Expect(editor).To(BeNil())
}
