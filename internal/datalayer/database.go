package datalayer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matheuscscp/cms-git-backend/internal/gitprovider"
)

var ErrNotFound = errors.New("document not found")

// GitProvider persists content edits to version control.
type GitProvider interface {
	OnPut(ctx context.Context, key, value string) error
	OnDelete(ctx context.Context, key string) error
}

// Document is one content record as seen by the index.
type Document struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DatabaseAdapter is the document index, partitioned by namespace.
type DatabaseAdapter interface {
	Put(ctx context.Context, namespace string, doc Document) error
	Get(ctx context.Context, namespace, key string) (*Document, error)
	Delete(ctx context.Context, namespace, key string) error
	List(ctx context.Context, namespace, prefix string) ([]Document, error)
}

// Database is the CMS data layer: reads are served from the index and
// writes go through git first, so a failed commit is a failed save.
type Database struct {
	adapter   DatabaseAdapter
	git       GitProvider
	namespace string
	now       func() time.Time
}

func New(adapter DatabaseAdapter, git GitProvider, namespace string) *Database {
	return &Database{
		adapter:   adapter,
		git:       git,
		namespace: namespace,
		now:       time.Now,
	}
}

// Put commits value under the canonical form of key and indexes it there.
func (d *Database) Put(ctx context.Context, key, value string) error {
	key, err := gitprovider.CleanKey(key)
	if err != nil {
		return err
	}
	if err := d.git.OnPut(ctx, key, value); err != nil {
		return fmt.Errorf("failed to save '%s': %w", key, err)
	}
	doc := Document{Key: key, Value: value, UpdatedAt: d.now()}
	if err := d.adapter.Put(ctx, d.namespace, doc); err != nil {
		return fmt.Errorf("failed to index '%s': %w", key, err)
	}
	return nil
}

func (d *Database) Delete(ctx context.Context, key string) error {
	key, err := gitprovider.CleanKey(key)
	if err != nil {
		return err
	}
	if err := d.git.OnDelete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete '%s': %w", key, err)
	}
	if err := d.adapter.Delete(ctx, d.namespace, key); err != nil {
		return fmt.Errorf("failed to unindex '%s': %w", key, err)
	}
	return nil
}

// Get returns ErrNotFound when key is not indexed.
func (d *Database) Get(ctx context.Context, key string) (*Document, error) {
	key, err := gitprovider.CleanKey(key)
	if err != nil {
		return nil, err
	}
	return d.adapter.Get(ctx, d.namespace, key)
}

func (d *Database) List(ctx context.Context, prefix string) ([]Document, error) {
	return d.adapter.List(ctx, d.namespace, prefix)
}
