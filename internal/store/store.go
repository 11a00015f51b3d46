// Package store is the target side of a migration run: the central Postgres
// database holding the normalized categories, products and price history.
// It goes through database/sql with pgx registered as the driver, so tests
// can substitute an in-memory sqlite target with the same SQL.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// DefaultDriver is the production driver name.
const DefaultDriver = "pgx"

// Store wraps the target database handle.
type Store struct {
	db *sql.DB
}

// Open connects to the target database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if driver == "" {
		driver = DefaultDriver
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open target db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping target db: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the target database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin starts the run-scoped transaction. A migration run executes every
// statement on this one transaction: its own inserts stay visible to later
// lookups, and a failure anywhere rolls the whole run back.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin target tx: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Tx is the single transaction a migration run writes through.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

// CategoryByName looks up a category id by its unique name.
func (t *Tx) CategoryByName(ctx context.Context, name string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = $1`, name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select category %q: %w", name, err)
	}
	return id, true, nil
}

// InsertCategory creates a category and returns its generated id.
func (t *Tx) InsertCategory(ctx context.Context, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert category %q: %w", name, err)
	}
	return id, nil
}

// ProductByURL looks up a product id by its unique URL.
func (t *Tx) ProductByURL(ctx context.Context, url string) (int64, bool, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx, `SELECT id FROM products WHERE url = $1`, url).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select product %q: %w", url, err)
	}
	return id, true, nil
}

// InsertProduct creates a product under the given category and returns its
// generated id.
func (t *Tx) InsertProduct(ctx context.Context, url string, categoryID int64) (int64, error) {
	var id int64
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO products (url, category_id) VALUES ($1, $2) RETURNING id`,
		url, categoryID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert product %q: %w", url, err)
	}
	return id, nil
}

// InsertPrice appends one price observation. Every call produces a new row;
// there is no upsert by (product, date).
func (t *Tx) InsertPrice(ctx context.Context, productID int64, at time.Time, price int64) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO product_prices (product_id, date, price) VALUES ($1, $2, $3)`,
		productID, at, price)
	if err != nil {
		return fmt.Errorf("insert price for product %d: %w", productID, err)
	}
	return nil
}
