package postgres

import (
	"context"
	"fmt"
)

const createBriefs = `CREATE TABLE IF NOT EXISTS briefs (
  id TEXT PRIMARY KEY,
  created_at BIGINT NOT NULL,
  title TEXT NOT NULL,
  category TEXT,
  budget_min INT,
  budget_max INT,
  timeline TEXT,
  details TEXT,
  name TEXT,
  email TEXT
)`

const createBriefsIdx = `CREATE INDEX IF NOT EXISTS briefs_created_at_idx ON briefs (created_at DESC)`

const createUnlocks = `CREATE TABLE IF NOT EXISTS unlocks (
  brief_id TEXT PRIMARY KEY,
  unlocked_at BIGINT NOT NULL
)`

var schemaStmts = []string{createBriefs, createBriefsIdx, createUnlocks}

// EnsureSchema creates the briefs and unlocks tables if absent.
// Safe to call concurrently; after the first success it is a no-op.
func (db *DB) EnsureSchema(ctx context.Context) error {
	if db.schemaReady.Load() {
		return nil
	}
	for _, stmt := range schemaStmts {
		// Concurrent IF NOT EXISTS can still race on the catalog.
		if _, err := db.Pool.Exec(ctx, stmt); err != nil && !isUniqueViolation(err) && !isDuplicateTable(err) {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	db.schemaReady.Store(true)
	return nil
}
