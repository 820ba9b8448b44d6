package store

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestNamespaced(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	backing := newTestMemoryStore(&now)

	alice := Namespace(backing, "local:alice", 0)
	bob := Namespace(backing, "local:bob", 0)
	session := Namespace(backing, "session:alice", time.Minute)

	g.Expect(alice.SetItem(ctx, "cms_oidc_token", "alice-token")).To(Succeed())
	g.Expect(bob.SetItem(ctx, "cms_oidc_token", "bob-token")).To(Succeed())
	g.Expect(session.SetItem(ctx, "cms_oidc_state", "nonce")).To(Succeed())

	v, ok, err := alice.GetItem(ctx, "cms_oidc_token")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(ok).To(BeTrue())
	g.Expect(v).To(Equal("alice-token"))

	v, _, _ = bob.GetItem(ctx, "cms_oidc_token")
	g.Expect(v).To(Equal("bob-token"))
	g.Expect(backing.entries).To(HaveKey("local:alice:cms_oidc_token"))

	g.Expect(alice.RemoveItem(ctx, "cms_oidc_token")).To(Succeed())
	_, ok, _ = alice.GetItem(ctx, "cms_oidc_token")
	g.Expect(ok).To(BeFalse())
	_, ok, _ = bob.GetItem(ctx, "cms_oidc_token")
	g.Expect(ok).To(BeTrue())

	now = now.Add(time.Minute)
	_, ok, _ = session.GetItem(ctx, "cms_oidc_state")
	g.Expect(ok).To(BeFalse())
}
