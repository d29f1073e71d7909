package database

import (
	"context"
	"fmt"
)

// schema is the full Lovi Core schema. Statements are idempotent so
// Bootstrap can run on every startup.
const schema = `
CREATE TABLE IF NOT EXISTS state_history (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	device_id TEXT NOT NULL,
	state TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'poll',
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
) STRICT;

CREATE INDEX IF NOT EXISTS idx_state_history_device
	ON state_history(device_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_state_history_time
	ON state_history(created_at DESC);
`

// Bootstrap creates the schema if it does not exist.
// Safe to call on every startup.
func (db *DB) Bootstrap(ctx context.Context) error {
	if _, err := db.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("bootstrapping schema: %w", err)
	}
	return nil
}
