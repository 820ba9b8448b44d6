package datalayer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/matheuscscp/cms-git-backend/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS cms_documents (
	namespace  TEXT   NOT NULL,
	key        TEXT   NOT NULL,
	value      TEXT   NOT NULL,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (namespace, key)
)`

// SQLAdapter is a DatabaseAdapter over database/sql. Queries are written
// with ? placeholders and rebound for drivers that number them.
type SQLAdapter struct {
	db       *sql.DB
	numbered bool
}

// OpenSQL opens the configured database and creates the documents table.
func OpenSQL(ctx context.Context, conf *config.DatabaseConfig) (*SQLAdapter, error) {
	var driverName string
	switch conf.Driver {
	case config.DatabaseDriverSQLite:
		driverName = "sqlite"
	case config.DatabaseDriverPostgres:
		driverName = "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", conf.Driver)
	}

	db, err := sql.Open(driverName, conf.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", conf.Driver, err)
	}
	if conf.Driver == config.DatabaseDriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", conf.Driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLAdapter{
		db:       db,
		numbered: conf.Driver == config.DatabaseDriverPostgres,
	}, nil
}

func (s *SQLAdapter) Close() error {
	return s.db.Close()
}

// Ping implements a readiness check.
func (s *SQLAdapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLAdapter) Put(ctx context.Context, namespace string, doc Document) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO cms_documents (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (namespace, key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), namespace, doc.Key, doc.Value, doc.UpdatedAt.UnixMilli())
	return err
}

func (s *SQLAdapter) Get(ctx context.Context, namespace, key string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT key, value, updated_at FROM cms_documents WHERE namespace = ? AND key = ?
	`), namespace, key)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLAdapter) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		DELETE FROM cms_documents WHERE namespace = ? AND key = ?
	`), namespace, key)
	return err
}

func (s *SQLAdapter) List(ctx context.Context, namespace, prefix string) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT key, value, updated_at FROM cms_documents
		WHERE namespace = ? AND key LIKE ? ESCAPE '\'
		ORDER BY key
	`), namespace, likePrefix(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*Document, error) {
	var doc Document
	var updatedAt int64
	if err := row.Scan(&doc.Key, &doc.Value, &updatedAt); err != nil {
		return nil, err
	}
	doc.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &doc, nil
}

func (s *SQLAdapter) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
