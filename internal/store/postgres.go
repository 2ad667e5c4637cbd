package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver, registered as "pgx"
)

const postgresDDL = `
CREATE TABLE IF NOT EXISTS users (
	id            VARCHAR(36) PRIMARY KEY,
	first_name    VARCHAR(100) NOT NULL,
	last_name     VARCHAR(100) NOT NULL,
	email         VARCHAR(255) UNIQUE NOT NULL,
	password_hash VARCHAR(255) NOT NULL,
	user_type     VARCHAR(50) NOT NULL,
	farm_location VARCHAR(255),
	created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// uniqueViolation is the SQLSTATE code PostgreSQL reports when an insert
// breaks a unique constraint.
const uniqueViolation = "23505"

func openPostgres(dsn string, hasher Hasher) (*sqlStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &sqlStore{
		db:        db,
		hasher:    hasher,
		createDDL: postgresDDL,
		insertSQL: `INSERT INTO users (id, first_name, last_name, email, password_hash, user_type, farm_location, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		selectSQL: `SELECT id, first_name, last_name, email, password_hash, user_type, farm_location, created_at
			FROM users WHERE email = $1 LIMIT 1`,
		isDuplicate: postgresIsDuplicate,
	}, nil
}

func postgresIsDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
