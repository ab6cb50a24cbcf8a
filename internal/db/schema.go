package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Tags and images are stored as
// comma-joined TEXT; the store layer splits and joins at the boundary.
const schema = `
CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT,
    room        TEXT NOT NULL,
    furniture   TEXT,
    location    TEXT,
    category    TEXT,
    tags        TEXT,
    images      TEXT,
    favorite    INTEGER NOT NULL DEFAULT 0,
    view_count  INTEGER NOT NULL DEFAULT 0 CHECK (view_count >= 0),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_room ON items(room);

CREATE INDEX IF NOT EXISTS idx_items_updated_at ON items(updated_at DESC);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
