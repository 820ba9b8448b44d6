package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	. "github.com/onsi/gomega"
	"golang.org/x/oauth2"
)

func TestRoleAPI_IsInRole(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		expected    bool
		expectError bool
	}{
		{
			name:     "access granted",
			status:   http.StatusOK,
			body:     `{"accessGranted": true}`,
			expected: true,
		},
		{
			name:   "access denied",
			status: http.StatusOK,
			body:   `{"accessGranted": false}`,
		},
		{
			name:   "missing field",
			status: http.StatusOK,
			body:   `{}`,
		},
		{
			name:   "string instead of boolean",
			status: http.StatusOK,
			body:   `{"accessGranted": "true"}`,
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `<html>`,
		},
		{
			name:   "unexpected status",
			status: http.StatusUnauthorized,
			body:   `{"accessGranted": true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				g.Expect(r.Method).To(Equal(http.MethodGet))
				g.Expect(r.Header.Get("Authorization")).To(Equal("Bearer tok"))
				g.Expect(r.URL.Query().Get("roleCode")).To(Equal("Documentation.Editor"))
				g.Expect(r.URL.Query().Get("tenant")).To(Equal("docs"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			roles, err := NewRoleAPI(srv.URL + "/IsInRole?tenant=docs")
			g.Expect(err).ToNot(HaveOccurred())

			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})
			granted, err := roles.IsInRole(context.Background(), ts, "Documentation.Editor")

			g.Expect(calls.Load()).To(Equal(int32(1)))
			if tt.expectError {
				g.Expect(err).To(HaveOccurred())
				return
			}
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(granted).To(Equal(tt.expected))
		})
	}
}

func TestRoleAPI_TransportError(t *testing.T) {
	g := NewWithT(t)

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	roles, err := NewRoleAPI(srv.URL)
	g.Expect(err).ToNot(HaveOccurred())

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok"})
	granted, err := roles.IsInRole(context.Background(), ts, "Editor")
	g.Expect(err).To(HaveOccurred())
	g.Expect(err.Error()).To(ContainSubstring("role request failed"))
	g.Expect(granted).To(BeFalse())
}

func TestGrantAll(t *testing.T) {
	g := NewWithT(t)

	granted, err := GrantAll{}.IsInRole(context.Background(), nil, "anything")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(granted).To(BeTrue())
}
