// Package refdata interns Zone and Interface names into surrogate ids,
// mirroring the C4 component: a mutex-guarded in-process cache in front of
// a database unique constraint that adjudicates concurrent first-inserts.
package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
)

// Kind distinguishes the two reference tables the resolver manages; both
// follow the identical intern-or-insert pattern.
type Kind string

const (
	KindZone      Kind = "zones"
	KindInterface Kind = "interfaces"
)

// Resolver interns Zone/Interface names to surrogate ids. Safe for
// concurrent use; reads after the first successful insert never touch the
// database.
type Resolver struct {
	db *sqlx.DB

	mu    sync.RWMutex
	cache map[Kind]map[string]int64
}

func New(db *sqlx.DB) *Resolver {
	return &Resolver{
		db: db,
		cache: map[Kind]map[string]int64{
			KindZone:      {},
			KindInterface: {},
		},
	}
}

// ZoneID resolves name (already canonical-cased by the caller) to a
// surrogate id, inserting on first observation within tx.
func (r *Resolver) ZoneID(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	return r.resolve(ctx, tx, KindZone, name)
}

// InterfaceID resolves name to a surrogate id, inserting on first
// observation within tx.
func (r *Resolver) InterfaceID(ctx context.Context, tx *sqlx.Tx, name string) (int64, error) {
	return r.resolve(ctx, tx, KindInterface, name)
}

func (r *Resolver) resolve(ctx context.Context, tx *sqlx.Tx, kind Kind, name string) (int64, error) {
	if id, ok := r.cachedID(kind, name); ok {
		return id, nil
	}

	id, err := r.insertOrRead(ctx, tx, kind, name)
	if err != nil {
		return 0, err
	}

	r.setCachedID(kind, name, id)
	return id, nil
}

func (r *Resolver) cachedID(kind Kind, name string) (int64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.cache[kind][name]
	return id, ok
}

func (r *Resolver) setCachedID(kind Kind, name string, id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[kind][name] = id
}

// insertOrRead tries the read-then-insert path a DB-backed cache needs:
// SELECT first (another job may have already committed this name), then
// INSERT, and on a unique-violation re-SELECT — a concurrent job finished
// the insert between our SELECT and our INSERT (spec.md §4.4).
func (r *Resolver) insertOrRead(ctx context.Context, tx *sqlx.Tx, kind Kind, name string) (int64, error) {
	if id, err := r.selectID(ctx, tx, kind, name); err == nil {
		return id, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}

	insertQuery := tx.Rebind(fmt.Sprintf(`INSERT INTO %s (name) VALUES (?) ON CONFLICT (name) DO NOTHING RETURNING id`, kind))
	var id int64
	err := tx.GetContext(ctx, &id, insertQuery, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("refdata: insert %s %q: %w", kind, name, err)
	}

	// ON CONFLICT DO NOTHING returned no row: another transaction won the
	// race. The name is now guaranteed visible to us within this tx.
	id, err = r.selectID(ctx, tx, kind, name)
	if err != nil {
		return 0, fmt.Errorf("refdata: re-read %s %q after conflict: %w", kind, name, err)
	}
	return id, nil
}

func (r *Resolver) selectID(ctx context.Context, tx *sqlx.Tx, kind Kind, name string) (int64, error) {
	query := tx.Rebind(fmt.Sprintf(`SELECT id FROM %s WHERE name = ?`, kind))
	var id int64
	err := tx.GetContext(ctx, &id, query, name)
	return id, err
}
