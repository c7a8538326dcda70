package db

import (
	"database/sql"
	"fmt"
)

// Base schema - uses Snowflake IDs (no AUTOINCREMENT)
const baseSchema = `
CREATE TABLE IF NOT EXISTS feeds (
  id INTEGER PRIMARY KEY,
  title TEXT,
  feed_link TEXT NOT NULL,
  site_link TEXT,
  refreshed_at TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entries (
  id INTEGER PRIMARY KEY,
  feed_id INTEGER NOT NULL,
  title TEXT,
  author TEXT,
  pub_date TEXT,
  description TEXT,
  content TEXT,
  link TEXT,
  read_on TEXT,
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  FOREIGN KEY (feed_id) REFERENCES feeds(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_entries_feed_id ON entries(feed_id);
`

// Migrate initializes the schema. Safe to run repeatedly; existing rows
// are never altered.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(baseSchema); err != nil {
		return fmt.Errorf("migrate base schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	// Migration 1: unique index on (feed_id, link) for non-NULL links.
	// NULL links stay free to duplicate; entries without a link are never
	// deduplicated.
	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_feed_link
		ON entries(feed_id, link) WHERE link IS NOT NULL`); err != nil {
		return fmt.Errorf("create idx_entries_feed_link: %w", err)
	}

	// Migration 2: add read_on column for databases created before it existed
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM pragma_table_info('entries') WHERE name = 'read_on'
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("check read_on column: %w", err)
	}

	if count == 0 {
		if _, err := db.Exec(`ALTER TABLE entries ADD COLUMN read_on TEXT`); err != nil {
			return fmt.Errorf("add read_on column: %w", err)
		}
	}

	return nil
}
