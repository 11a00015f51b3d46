package store

import (
	"context"
	"fmt"
)

// The target schema normally pre-exists; these statements back the
// create_tables/drop_tables operator commands. Statements run one at a time
// because pgx's extended protocol rejects multi-statement strings.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		url TEXT NOT NULL UNIQUE,
		category_id BIGINT NOT NULL REFERENCES categories(id)
	)`,
	`CREATE TABLE IF NOT EXISTS product_prices (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		date TIMESTAMPTZ NOT NULL,
		price BIGINT NOT NULL CHECK (price >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS product_prices_product_idx
		ON product_prices (product_id, date)`,
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS product_prices`,
	`DROP TABLE IF EXISTS products`,
	`DROP TABLE IF EXISTS categories`,
}

// CreateTables ensures the normalized target schema exists.
func (s *Store) CreateTables(ctx context.Context) error {
	return s.execAll(ctx, schemaStatements)
}

// DropTables removes the target schema, facts first to respect FKs.
func (s *Store) DropTables(ctx context.Context) error {
	return s.execAll(ctx, dropStatements)
}

func (s *Store) execAll(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}
