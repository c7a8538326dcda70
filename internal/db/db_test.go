package db_test

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"feedbox/internal/db"
	"feedbox/internal/model"
	"feedbox/internal/repository/testutil"

	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "feedbox-db-test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	database, err := db.Open(dbPath)
	require.NoError(t, err)
	require.NotNil(t, database)
	defer database.Close()

	var name string
	err = database.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='feeds'").Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "feeds", name)
}

func TestBuildDSN(t *testing.T) {
	dsn := db.BuildDSN("test.db")
	require.Contains(t, dsn, "file:test.db")

	decodedDSN, err := url.QueryUnescape(dsn)
	require.NoError(t, err)

	expectedPragmas := []string{
		"journal_mode(WAL)",
		"foreign_keys(ON)",
		"busy_timeout(30000)",
		"synchronous(NORMAL)",
	}
	for _, pragma := range expectedPragmas {
		require.Contains(t, decodedDSN, pragma, "DSN must contain pragma: "+pragma)
	}

	// Transactions must start as writers so concurrent writers queue on
	// busy_timeout instead of failing on a read-to-write upgrade.
	require.Contains(t, dsn, "_txlock=immediate")
}

// Migrating an existing database must leave its rows untouched.
func TestMigrate_Idempotent(t *testing.T) {
	database, err := sql.Open("sqlite", db.BuildDSN(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, db.Migrate(database))

	_, err = database.Exec(
		`INSERT INTO feeds (id, title, feed_link, created_at, updated_at)
		 VALUES (1, 'A Feed', 'https://example.com/feed', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
	)
	require.NoError(t, err)
	_, err = database.Exec(
		`INSERT INTO entries (id, feed_id, link, created_at, updated_at)
		 VALUES (2, 1, 'https://example.com/1', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
	)
	require.NoError(t, err)

	require.NoError(t, db.Migrate(database))

	var feedCount, entryCount int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM feeds`).Scan(&feedCount))
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&entryCount))
	require.Equal(t, 1, feedCount)
	require.Equal(t, 1, entryCount)

	var title string
	require.NoError(t, database.QueryRow(`SELECT title FROM feeds WHERE id = 1`).Scan(&title))
	require.Equal(t, "A Feed", title)
}

func TestMigrate_UniqueLinkIndex(t *testing.T) {
	database, err := sql.Open("sqlite", db.BuildDSN(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, db.Migrate(database))

	_, err = database.Exec(
		`INSERT INTO feeds (id, title, feed_link, created_at, updated_at)
		 VALUES (1, 'F', 'u', '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
	)
	require.NoError(t, err)

	insertEntry := func(id int64, link interface{}) error {
		_, err := database.Exec(
			`INSERT INTO entries (id, feed_id, link, created_at, updated_at)
			 VALUES (?, 1, ?, '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
			id, link,
		)
		return err
	}

	require.NoError(t, insertEntry(10, "https://example.com/1"))
	require.Error(t, insertEntry(11, "https://example.com/1"), "duplicate non-NULL link must be rejected")

	// NULL links are exempt from the uniqueness guarantee
	require.NoError(t, insertEntry(12, nil))
	require.NoError(t, insertEntry(13, nil))
}

// Two refreshes of different feeds each read their link snapshot and
// then insert inside one transaction. With immediate transaction
// locking the writers serialize on busy_timeout; without it the later
// read-to-write upgrade fails with a busy error.
func TestWithTx_ConcurrentReadThenWrite(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	feedA := testutil.SeedFeed(t, database, model.Feed{FeedLink: "https://example.com/a"})
	feedB := testutil.SeedFeed(t, database, model.Feed{FeedLink: "https://example.com/b"})

	readThenInsert := func(feedID, entryID int64) error {
		return db.WithTx(ctx, database, func(tx *sql.Tx) error {
			var count int
			if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE feed_id = ?`, feedID).Scan(&count); err != nil {
				return err
			}
			// widen the window between the read and the write
			time.Sleep(10 * time.Millisecond)
			_, err := tx.ExecContext(
				ctx,
				`INSERT INTO entries (id, feed_id, created_at, updated_at)
				 VALUES (?, ?, '2025-01-01T00:00:00Z', '2025-01-01T00:00:00Z')`,
				entryID, feedID,
			)
			return err
		})
	}

	for i := int64(0); i < 5; i++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs[0] = readThenInsert(feedA, 1000+i)
		}()
		go func() {
			defer wg.Done()
			errs[1] = readThenInsert(feedB, 2000+i)
		}()
		wg.Wait()
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
	}
}

func TestMigrate_ClosedDB(t *testing.T) {
	database, err := sql.Open("sqlite", "file::memory:?cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Close())

	err = db.Migrate(database)
	require.Error(t, err)
}
