package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

const mysqlDDL = `
CREATE TABLE IF NOT EXISTS users (
	id            VARCHAR(36) PRIMARY KEY,
	first_name    VARCHAR(100) NOT NULL,
	last_name     VARCHAR(100) NOT NULL,
	email         VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	user_type     VARCHAR(50) NOT NULL,
	farm_location VARCHAR(255),
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// mysqlDuplicateEntry is MySQL error 1062 (ER_DUP_ENTRY).
const mysqlDuplicateEntry = 1062

// openMySQL connects with the same pool settings the service has always
// used for MySQL. The DSN should carry parseTime=true so DATETIME columns
// scan into time.Time.
func openMySQL(dsn string, hasher Hasher) (*sqlStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &sqlStore{
		db:        db,
		hasher:    hasher,
		createDDL: mysqlDDL,
		insertSQL: `INSERT INTO users (id, first_name, last_name, email, password_hash, user_type, farm_location, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		selectSQL: `SELECT id, first_name, last_name, email, password_hash, user_type, farm_location, created_at
			FROM users WHERE email = ? LIMIT 1`,
		isDuplicate: mysqlIsDuplicate,
	}, nil
}

func mysqlIsDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
