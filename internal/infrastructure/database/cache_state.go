package database

import (
	"context"
	"fmt"
)

// createCacheStateTable is additive and idempotent so it can run on every
// startup regardless of whether the database already exists.
const createCacheStateTable = `
CREATE TABLE IF NOT EXISTS cache_state (
	ga         TEXT PRIMARY KEY,
	value_json BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// CacheStateRecord is one persisted cache entry. It mirrors cache.Snapshot
// without importing the cache package, keeping this package usable by
// anything that wants a simple key-value table.
type CacheStateRecord struct {
	Address   string
	ValueJSON []byte
	UpdatedAt int64
}

// EnsureCacheStateTable creates the cache_state table if it does not already
// exist. Safe to call on every startup.
func (db *DB) EnsureCacheStateTable(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, createCacheStateTable); err != nil {
		return fmt.Errorf("creating cache_state table: %w", err)
	}
	return nil
}

// LoadCacheState returns every persisted cache record.
func (db *DB) LoadCacheState(ctx context.Context) ([]CacheStateRecord, error) {
	rows, err := db.DB.QueryContext(ctx, `SELECT ga, value_json, updated_at FROM cache_state`)
	if err != nil {
		return nil, fmt.Errorf("loading cache_state: %w", err)
	}
	defer rows.Close()

	var records []CacheStateRecord
	for rows.Next() {
		var r CacheStateRecord
		if err := rows.Scan(&r.Address, &r.ValueJSON, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning cache_state row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading cache_state rows: %w", err)
	}
	return records, nil
}

// SaveCacheState replaces the entire cache_state table contents with
// records in a single transaction. It is called on a periodic ticker and on
// clean shutdown, not on every telegram, so a full replace is cheap enough
// and avoids reconciling stale rows for addresses no longer configured.
func (db *DB) SaveCacheState(ctx context.Context, records []CacheStateRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op if committed

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_state`); err != nil {
		return fmt.Errorf("clearing cache_state: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cache_state (ga, value_json, updated_at) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing cache_state insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Address, r.ValueJSON, r.UpdatedAt); err != nil {
			return fmt.Errorf("inserting cache_state row for %s: %w", r.Address, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache_state: %w", err)
	}
	return nil
}
