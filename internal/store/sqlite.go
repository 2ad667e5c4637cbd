package store

import (
	"database/sql"
	"strings"

	_ "modernc.org/sqlite" // pure-Go sqlite driver, registered as "sqlite"
)

const sqliteDDL = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	first_name    TEXT NOT NULL,
	last_name     TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	user_type     TEXT NOT NULL,
	farm_location TEXT,
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// openSQLite opens a file-backed SQLite store. The pool is capped at a
// single connection; modernc/sqlite serializes writers anyway and one
// connection avoids SQLITE_BUSY churn.
func openSQLite(dsn string, hasher Hasher) (*sqlStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &sqlStore{
		db:        db,
		hasher:    hasher,
		createDDL: sqliteDDL,
		insertSQL: `INSERT INTO users (id, first_name, last_name, email, password_hash, user_type, farm_location, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		selectSQL: `SELECT id, first_name, last_name, email, password_hash, user_type, farm_location, created_at
			FROM users WHERE email = ? LIMIT 1`,
		isDuplicate: sqliteIsDuplicate,
	}, nil
}

// sqliteIsDuplicate matches the UNIQUE constraint failure text. modernc
// surfaces constraint errors as strings like
// "constraint failed: UNIQUE constraint failed: users.email (2067)".
func sqliteIsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
