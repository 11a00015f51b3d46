package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DataFileName is the embedded database every snapshot directory carries.
const DataFileName = "products.db"

// ErrOpenSnapshot marks a snapshot whose embedded database is missing or
// unreadable.
var ErrOpenSnapshot = errors.New("cannot open snapshot database")

// Row is one product sighting inside a category table.
type Row struct {
	Price int64
	URL   string
}

// Source is one snapshot's embedded SQLite database. A source is opened,
// fully drained and closed before the next snapshot is considered.
type Source struct {
	path string
	db   *sql.DB
}

// OpenSource opens the embedded database inside a snapshot directory.
func OpenSource(dir string) (*Source, error) {
	path := filepath.Join(dir, DataFileName)
	// sqlite would create a missing file on open; require it up front.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", ErrOpenSnapshot, path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrOpenSnapshot, path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrOpenSnapshot, path, err)
	}
	return &Source{path: path, db: db}, nil
}

// Path returns the path of the embedded database file.
func (s *Source) Path() string {
	return s.path
}

// Close closes the embedded database.
func (s *Source) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Tables lists the category tables in catalog order, skipping sqlite's own
// bookkeeping tables (sqlite_sequence and friends).
func (s *Source) Tables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", s.path, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables in %s: %w", s.path, err)
	}
	return tables, nil
}

// Rows streams the (price, link) rows of one category table, invoking fn for
// each. Iteration stops on the first error fn returns.
func (s *Source) Rows(ctx context.Context, table string, fn func(Row) error) error {
	q := fmt.Sprintf(`SELECT price, link FROM %s`, quoteIdent(table))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("read table %s in %s: %w", table, s.path, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Price, &r.URL); err != nil {
			return fmt.Errorf("scan row in %s: %w", table, err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("read table %s in %s: %w", table, s.path, err)
	}
	return nil
}

// quoteIdent double-quotes a table name so crawl categories with unusual
// characters stay valid identifiers.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
