package store

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"go.klb.dev/shotcast/internal/crypto"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// DBName is the database file created inside the data directory.
const DBName = "shotcast.db"

// keyCheck is sealed with the content key so a wrong passphrase is caught at
// open time rather than on the first read.
var keyCheck = []byte("shotcast key check")

// openDB initializes the SQLite database at dir/shotcast.db.
// The dir parameter allows tests to use t.TempDir().
func openDB(dir string) (*sql.DB, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	_ = os.Chmod(dir, 0o700)

	dbPath := filepath.Join(dir, DBName)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0o600)
	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: initial schema
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS items (
		  id           TEXT PRIMARY KEY,
		  fingerprint  BLOB NOT NULL UNIQUE,
		  category     TEXT NOT NULL,
		  title        TEXT NOT NULL,
		  source_app   TEXT NOT NULL DEFAULT '',
		  mime         TEXT NOT NULL DEFAULT '',
		  file_path    TEXT NOT NULL DEFAULT '',
		  file_size    INTEGER NOT NULL,
		  favorite     INTEGER NOT NULL DEFAULT 0,
		  captured_at  INTEGER NOT NULL,
		  content      BLOB NOT NULL,
		  thumbnail    BLOB
		);

		CREATE INDEX IF NOT EXISTS idx_items_captured
		ON items(captured_at DESC);

		CREATE INDEX IF NOT EXISTS idx_items_category_captured
		ON items(category, captured_at DESC);

		CREATE TABLE IF NOT EXISTS tags (
		  id          TEXT PRIMARY KEY,
		  name        TEXT NOT NULL UNIQUE COLLATE NOCASE,
		  color       TEXT NOT NULL,
		  created_at  INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS item_tags (
		  item_id  TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		  tag_id   TEXT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		  PRIMARY KEY (item_id, tag_id)
		);

		CREATE TABLE IF NOT EXISTS meta (
		  key    TEXT PRIMARY KEY,
		  value  BLOB NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

func getMeta(db *sql.DB, key string) ([]byte, bool, error) {
	var v []byte
	err := db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read meta %s: %w", key, err)
	}
	return v, true, nil
}

func setMeta(db *sql.DB, key string, value []byte) error {
	if _, err := db.Exec("INSERT OR REPLACE INTO meta(key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}

// contentKey returns the content key for passphrase, initializing the salt,
// KDF parameters and key check on first use. An empty passphrase is only
// accepted for a database that was never encrypted, and vice versa.
func contentKey(db *sql.DB, passphrase string, params crypto.KDFParams) (*crypto.Key, error) {
	check, encrypted, err := getMeta(db, "key_check")
	if err != nil {
		return nil, err
	}
	if passphrase == "" {
		if encrypted {
			return nil, fmt.Errorf("database is encrypted; a passphrase is required")
		}
		return nil, nil
	}

	var salt []byte
	if encrypted {
		var ok bool
		if salt, ok, err = getMeta(db, "kdf_salt"); err != nil {
			return nil, err
		} else if !ok {
			return nil, fmt.Errorf("database key check present without salt")
		}
		raw, ok, err := getMeta(db, "kdf_params")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("database key check present without kdf parameters")
		}
		if params, err = crypto.ParseKDFParams(string(raw)); err != nil {
			return nil, err
		}
	} else {
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM items").Scan(&n); err != nil {
			return nil, fmt.Errorf("count items: %w", err)
		}
		if n > 0 {
			return nil, fmt.Errorf("database holds unencrypted items; refusing to enable a passphrase")
		}
		if salt, err = crypto.NewSalt(); err != nil {
			return nil, err
		}
	}

	key, err := crypto.DeriveKey(passphrase, salt, params, crypto.PurposeContent)
	if err != nil {
		return nil, err
	}

	if encrypted {
		plain, err := crypto.Open(check, key)
		if err != nil || !bytes.Equal(plain, keyCheck) {
			return nil, fmt.Errorf("wrong passphrase")
		}
		return key, nil
	}

	sealed, err := crypto.Seal(keyCheck, key)
	if err != nil {
		return nil, err
	}
	if err := setMeta(db, "kdf_salt", salt); err != nil {
		return nil, err
	}
	if err := setMeta(db, "kdf_params", []byte(params.String())); err != nil {
		return nil, err
	}
	if err := setMeta(db, "key_check", sealed); err != nil {
		return nil, err
	}
	return key, nil
}
