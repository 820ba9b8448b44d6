package client

import (
	"context"
	"net/url"
)

// Storage is the Web Storage surface the authenticator relies on.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// Location is the window.location and history surface the authenticator
// relies on.
type Location interface {
	URL() *url.URL
	Origin() string
	Assign(target string)
	ReplaceState(path string)
}

// Browser is the browser context the authenticator runs in. A nil Browser
// means there is no browser (server-side rendering): reads find nothing and
// writes and navigations are dropped.
type Browser struct {
	Local    Storage
	Session  Storage
	Location Location
}

func (b *Browser) present() bool {
	return b != nil && b.Local != nil && b.Session != nil && b.Location != nil
}

func (b *Browser) getLocal(ctx context.Context, key string) (string, bool, error) {
	if !b.present() {
		return "", false, nil
	}
	return b.Local.GetItem(ctx, key)
}

func (b *Browser) setLocal(ctx context.Context, key, value string) error {
	if !b.present() {
		return nil
	}
	return b.Local.SetItem(ctx, key, value)
}

func (b *Browser) removeLocal(ctx context.Context, key string) error {
	if !b.present() {
		return nil
	}
	return b.Local.RemoveItem(ctx, key)
}

func (b *Browser) getSession(ctx context.Context, key string) (string, bool, error) {
	if !b.present() {
		return "", false, nil
	}
	return b.Session.GetItem(ctx, key)
}

func (b *Browser) setSession(ctx context.Context, key, value string) error {
	if !b.present() {
		return nil
	}
	return b.Session.SetItem(ctx, key, value)
}

func (b *Browser) removeSession(ctx context.Context, key string) error {
	if !b.present() {
		return nil
	}
	return b.Session.RemoveItem(ctx, key)
}

func (b *Browser) assign(target string) {
	if b.present() {
		b.Location.Assign(target)
	}
}
