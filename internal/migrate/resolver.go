package migrate

import (
	"context"
	"fmt"
	"time"

	"github.com/ivankuzmin/pricearchive/internal/cache"
	"github.com/ivankuzmin/pricearchive/internal/logging"
)

// Target is the slice of the target transaction the migration writes
// through. *store.Tx implements it.
type Target interface {
	CategoryByName(ctx context.Context, name string) (int64, bool, error)
	InsertCategory(ctx context.Context, name string) (int64, error)
	ProductByURL(ctx context.Context, url string) (int64, bool, error)
	InsertProduct(ctx context.Context, url string, categoryID int64) (int64, error)
	InsertPrice(ctx context.Context, productID int64, at time.Time, price int64) error
}

// Resolver provides get-or-create identity resolution for categories and
// products. It assumes a single-goroutine run on a single transaction, so
// check-then-insert cannot race.
//
// Category ids resolved on this run's transaction live in a run-local cache
// that is trusted outright. The optional backing cache survives across runs,
// so its entries are only hints: a hint never bypasses the store lookup, and
// nothing is written back until FlushCache runs after the transaction has
// committed. A rolled-back run therefore cannot poison the backing cache
// with ids the target never kept.
type Resolver struct {
	target  Target
	local   cache.CategoryCache
	backing cache.CategoryCache
	staged  map[string]int64
}

// NewResolver builds a resolver over the run's transaction. backing is the
// optional cross-run category cache; nil runs with just the run-local cache.
func NewResolver(target Target, backing cache.CategoryCache) *Resolver {
	return &Resolver{
		target:  target,
		local:   cache.NewMemoryCategoryCache(),
		backing: backing,
		staged:  make(map[string]int64),
	}
}

// Category returns the id for a category name, inserting it on first
// sighting. Each name hits the store at most once per run; repeat sightings
// come from the run-local cache.
func (r *Resolver) Category(ctx context.Context, name string) (int64, error) {
	if id, ok, err := r.local.Get(ctx, name); err != nil {
		return 0, fmt.Errorf("category cache get %q: %w", name, err)
	} else if ok {
		return id, nil
	}

	var hint int64
	var hinted bool
	if r.backing != nil {
		var err error
		if hint, hinted, err = r.backing.Get(ctx, name); err != nil {
			return 0, fmt.Errorf("category cache get %q: %w", name, err)
		}
	}

	// The store decides; a backing entry can outlive the row it points at
	// (rolled-back run, rebuilt target), so a hint the store does not
	// confirm is dropped and the normal get-or-create path runs.
	id, found, err := r.target.CategoryByName(ctx, name)
	if err != nil {
		return 0, err
	}
	if !found {
		if id, err = r.target.InsertCategory(ctx, name); err != nil {
			return 0, err
		}
	}
	if hinted && hint != id {
		logging.Debugf("[migrate] stale cached id %d for category %q, store has %d", hint, name, id)
	}

	if err := r.local.Set(ctx, name, id); err != nil {
		return 0, fmt.Errorf("category cache set %q: %w", name, err)
	}
	if r.backing != nil {
		r.staged[name] = id
	}
	return id, nil
}

// FlushCache publishes the run's resolved category ids to the backing cache.
// Only call it after the run's transaction has committed: ids from a
// rolled-back run must never become visible to later runs.
func (r *Resolver) FlushCache(ctx context.Context) error {
	if r.backing == nil {
		return nil
	}
	for name, id := range r.staged {
		if err := r.backing.Set(ctx, name, id); err != nil {
			return fmt.Errorf("category cache set %q: %w", name, err)
		}
	}
	return nil
}

// Product returns the id for a product URL, inserting it under categoryID on
// first sighting. A URL seen before keeps its original category; the later
// categoryID is ignored.
func (r *Resolver) Product(ctx context.Context, url string, categoryID int64) (int64, error) {
	id, found, err := r.target.ProductByURL(ctx, url)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}
	return r.target.InsertProduct(ctx, url, categoryID)
}
