package client

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/matheuscscp/cms-git-backend/internal/issuer"
)

func TestLocalAuthenticator(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	iss := issuer.New()
	a := NewLocal(iss).(*localAuthenticator)
	now := time.Now()
	a.now = func() time.Time { return now }

	user, err := a.Authenticate(ctx)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(user.Subject).To(Equal(LocalEditorSubject))
	g.Expect(a.IsAuthenticated(ctx)).To(BeTrue())

	tok, err := a.GetToken(ctx)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(tok.IDToken).To(Equal(tok.AccessToken))

	claims, ok := iss.Verify(tok.AccessToken, now)
	g.Expect(ok).To(BeTrue())
	g.Expect(claims.Subject).To(Equal(LocalEditorSubject))
	g.Expect(claims.Email).To(Equal(LocalEditorEmail))

	again, err := a.GetToken(ctx)
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(again.AccessToken).To(Equal(tok.AccessToken))

	g.Expect(a.Logout(ctx)).To(Succeed())
	g.Expect(a.IsAuthenticated(ctx)).To(BeTrue())
}
