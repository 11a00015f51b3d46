package store

import (
	"context"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// The production schema lives in Postgres; tests run the same statements the
// migration issues against an in-memory sqlite with an equivalent schema.
var testSchema = []string{
	`CREATE TABLE categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		category_id INTEGER NOT NULL REFERENCES categories(id)
	)`,
	`CREATE TABLE product_prices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id),
		date TIMESTAMP NOT NULL,
		price INTEGER NOT NULL
	)`,
}

func newTestStore(t *testing.T, ctx context.Context) *Store {
	t.Helper()
	st, err := Open(ctx, "sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	// A pooled :memory: database is a fresh database per connection; pin
	// the pool to one connection so schema and data stay visible.
	st.DB().SetMaxOpenConns(1)
	for _, stmt := range testSchema {
		if _, err := st.DB().ExecContext(ctx, stmt); err != nil {
			t.Fatal(err)
		}
	}
	return st
}

func TestTxCategoryGetOrCreate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, ctx)

	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if _, found, err := tx.CategoryByName(ctx, "electronics"); err != nil {
		t.Fatal(err)
	} else if found {
		t.Fatal("expected empty store")
	}

	id, err := tx.InsertCategory(ctx, "electronics")
	if err != nil {
		t.Fatal(err)
	}
	if id <= 0 {
		t.Fatalf("expected generated id, got %d", id)
	}

	got, found, err := tx.CategoryByName(ctx, "electronics")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != id {
		t.Errorf("expected id %d visible inside tx, got %d (found=%t)", id, got, found)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}
}

func TestTxProductAndPrice(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, ctx)

	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	catID, err := tx.InsertCategory(ctx, "books")
	if err != nil {
		t.Fatal(err)
	}
	prodID, err := tx.InsertProduct(ctx, "http://a", catID)
	if err != nil {
		t.Fatal(err)
	}

	got, found, err := tx.ProductByURL(ctx, "http://a")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != prodID {
		t.Errorf("expected product id %d, got %d (found=%t)", prodID, got, found)
	}

	at := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	// No upsert: identical observations append.
	if err := tx.InsertPrice(ctx, prodID, at, 100); err != nil {
		t.Fatal(err)
	}
	if err := tx.InsertPrice(ctx, prodID, at, 100); err != nil {
		t.Fatal(err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := st.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM product_prices WHERE product_id = $1`, prodID).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("expected 2 price rows, got %d", count)
	}
}

func TestTxRollbackDiscardsEverything(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, ctx)

	tx, err := st.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	catID, err := tx.InsertCategory(ctx, "toys")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tx.InsertProduct(ctx, "http://t", catID); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}

	for _, table := range []string{"categories", "products"} {
		var count int
		if err := st.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Errorf("%s: expected 0 rows after rollback, got %d", table, count)
		}
	}
}
