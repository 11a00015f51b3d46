// Package migrate folds timestamped snapshot directories into the normalized
// target schema: one category per source table, one product per URL, one
// price-history row per product sighting.
package migrate

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ivankuzmin/pricearchive/internal/cache"
	"github.com/ivankuzmin/pricearchive/internal/hashutil"
	"github.com/ivankuzmin/pricearchive/internal/logging"
	"github.com/ivankuzmin/pricearchive/internal/snapshot"
	"github.com/ivankuzmin/pricearchive/internal/store"
)

// Report describes one migrated snapshot.
type Report struct {
	Snapshot   string    `json:"snapshot"`
	TakenAt    time.Time `json:"taken_at"`
	Categories []string  `json:"categories"`
	Rows       int       `json:"rows"`
	Checksum   string    `json:"checksum"`
}

// Result summarizes a committed run.
type Result struct {
	Snapshots []Report
	Rows      int
}

// Migrator walks every snapshot under Root and folds it into the target
// store. The whole run executes on one transaction: any failure rolls
// everything back, success commits at the end.
type Migrator struct {
	Store *store.Store
	Root  string
	// Loc interprets snapshot directory names; nil means local time.
	Loc *time.Location
	// Cats optionally backs category resolution across runs (Redis). The
	// run itself always works off a fresh run-local cache; nil disables
	// the cross-run layer entirely.
	Cats cache.CategoryCache
}

// Run performs the migration. Snapshots are processed strictly one after
// another, sorted by directory name.
func (m *Migrator) Run(ctx context.Context) (Result, error) {
	dirs, err := snapshot.Locate(m.Root)
	if err != nil {
		// Source problems abort before any target-store work.
		return Result{}, err
	}

	tx, err := m.Store.Begin(ctx)
	if err != nil {
		return Result{}, err
	}
	resolver := NewResolver(tx, m.Cats)

	res, err := m.walk(ctx, tx, resolver, dirs)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Errorf("[migrate] rollback failed: %v", rbErr)
		}
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit run: %w", err)
	}
	// Cross-run cache entries become visible only once the ids they
	// reference are committed. The run itself already succeeded, so a
	// flush failure only logs.
	if err := resolver.FlushCache(ctx); err != nil {
		logging.Errorf("[migrate] flush category cache: %v", err)
	}
	return res, nil
}

func (m *Migrator) walk(ctx context.Context, tx *store.Tx, resolver *Resolver, dirs []snapshot.Dir) (Result, error) {
	var res Result
	for _, dir := range dirs {
		rep, err := m.processSnapshot(ctx, resolver, tx, dir)
		if err != nil {
			return Result{}, err
		}
		res.Snapshots = append(res.Snapshots, rep)
		res.Rows += rep.Rows
	}
	return res, nil
}

func (m *Migrator) processSnapshot(ctx context.Context, resolver *Resolver, tx Target, dir snapshot.Dir) (Report, error) {
	takenAt, err := snapshot.ParseDirTime(dir.Name, m.Loc)
	if err != nil {
		return Report{}, err
	}

	src, err := snapshot.OpenSource(dir.Path)
	if err != nil {
		return Report{}, err
	}
	defer src.Close()

	tables, err := src.Tables(ctx)
	if err != nil {
		return Report{}, err
	}

	rep := Report{Snapshot: dir.Name, TakenAt: takenAt, Categories: tables}
	for _, table := range tables {
		categoryID, err := resolver.Category(ctx, table)
		if err != nil {
			return Report{}, err
		}
		err = src.Rows(ctx, table, func(row snapshot.Row) error {
			productID, err := resolver.Product(ctx, row.URL, categoryID)
			if err != nil {
				return err
			}
			if err := tx.InsertPrice(ctx, productID, takenAt, row.Price); err != nil {
				return err
			}
			rep.Rows++
			return nil
		})
		if err != nil {
			return Report{}, err
		}
	}

	rep.Checksum = checksum(rep)
	logging.Debugf("[migrate] snapshot %s: %d tables, %d rows", dir.Name, len(tables), rep.Rows)
	return rep, nil
}

func checksum(rep Report) string {
	parts := make([]string, 0, len(rep.Categories)+3)
	parts = append(parts, rep.Snapshot, rep.TakenAt.UTC().Format(time.RFC3339), strconv.Itoa(rep.Rows))
	parts = append(parts, rep.Categories...)
	return hashutil.HashStrings(parts...)
}
