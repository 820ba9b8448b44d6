package store

import (
	"context"
	"time"
)

// Namespaced is a view of a Store restricted to one namespace, shaped like
// the browser Web Storage API (getItem/setItem/removeItem).
type Namespaced struct {
	st  Store
	ns  string
	ttl time.Duration
}

func Namespace(st Store, ns string, ttl time.Duration) *Namespaced {
	return &Namespaced{st: st, ns: ns, ttl: ttl}
}

func (n *Namespaced) key(key string) string {
	return n.ns + ":" + key
}

func (n *Namespaced) GetItem(ctx context.Context, key string) (string, bool, error) {
	return n.st.Get(ctx, n.key(key))
}

func (n *Namespaced) SetItem(ctx context.Context, key, value string) error {
	return n.st.Set(ctx, n.key(key), value, n.ttl)
}

func (n *Namespaced) RemoveItem(ctx context.Context, key string) error {
	return n.st.Delete(ctx, n.key(key))
}
