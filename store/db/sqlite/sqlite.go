package sqlite

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/paperseek/internal/profile"
	"github.com/hrygo/paperseek/store"
)

// SQLite is supported for development and single-user instances. Vectors
// are stored as BLOBs and similarity is computed in the application layer;
// use PostgreSQL (pgvector) for large corpora.

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

// NewDB opens a database specified by a driver-specific data source name.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	// WAL journal mode prevents most locking issues; with the
	// modernc.org/sqlite driver each pragma must be prefixed with _pragma=.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite: a single connection is optimal with WAL.
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	driver := DB{db: sqliteDB, profile: profile}

	return &driver, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the index/record tables.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vector_index (
			name TEXT PRIMARY KEY,
			dimension INTEGER NOT NULL,
			metric TEXT NOT NULL,
			created_ts BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vector_record (
			index_name TEXT NOT NULL,
			namespace TEXT NOT NULL,
			id TEXT NOT NULL,
			embedding BLOB NOT NULL,
			metadata TEXT,
			created_ts BIGINT NOT NULL,
			updated_ts BIGINT NOT NULL,
			PRIMARY KEY (index_name, namespace, id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to migrate: %s", stmt)
		}
	}
	return nil
}
