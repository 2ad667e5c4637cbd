// Package store persists user accounts and verifies login credentials. One
// implementation covers three SQL backends (SQLite, PostgreSQL, MySQL); they
// differ only in DDL, placeholder style and how a duplicate-key error is
// recognized. Email uniqueness is enforced by the database constraint, never
// by an application-level check-then-insert, so concurrent signups with the
// same address cannot race past each other.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User mirrors the 'users' table.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	UserType     string
	FarmLocation *string
	CreatedAt    time.Time
}

// NewUser carries the signup form fields. FarmLocation is optional.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	UserType     string
	FarmLocation *string
}

// Store is the credential store exposed to the handlers. Expected business
// outcomes (duplicate email, failed verification) are boolean returns;
// anything else is an error the caller should treat as fatal for the
// request.
type Store interface {
	// Init idempotently ensures the users table exists.
	Init(ctx context.Context) error
	// Reset drops and recreates the users table, discarding all accounts.
	// It is never called implicitly; the caller must opt in via config.
	Reset(ctx context.Context) error
	// AddUser inserts a new account. ok is false when the email is already
	// taken; any other persistence failure is returned as an error.
	AddUser(ctx context.Context, u NewUser) (ok bool, err error)
	// VerifyUser reports whether the email/password pair matches a stored
	// account. Unknown email and wrong password are indistinguishable.
	VerifyUser(ctx context.Context, email, password string) (bool, error)
	// GetByEmail fetches a user by normalized email.
	GetByEmail(ctx context.Context, email string) (User, error)
	Close() error
}

// Open connects to the backend named by driver ("sqlite", "postgres" or
// "mysql") and returns a Store using the given hasher. The connection is
// pinged with a timeout before being returned.
func Open(driver, dsn string, hasher Hasher) (Store, error) {
	var s *sqlStore
	var err error
	switch driver {
	case "sqlite":
		s, err = openSQLite(dsn, hasher)
	case "postgres":
		s, err = openPostgres(dsn, hasher)
	case "mysql":
		s, err = openMySQL(dsn, hasher)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		_ = s.db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return s, nil
}

// sqlStore implements Store over database/sql. The backend-specific pieces
// are injected by the open* constructors.
type sqlStore struct {
	db          *sql.DB
	hasher      Hasher
	createDDL   string
	insertSQL   string
	selectSQL   string
	isDuplicate func(error) bool
}

func (s *sqlStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.createDDL); err != nil {
		return fmt.Errorf("init users table: %w", err)
	}
	return nil
}

func (s *sqlStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS users"); err != nil {
		return fmt.Errorf("drop users table: %w", err)
	}
	return s.Init(ctx)
}

func (s *sqlStore) AddUser(ctx context.Context, u NewUser) (bool, error) {
	hash, err := s.hasher.Hash(u.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	// created_at is written from Go rather than left to a column default so
	// the value round-trips identically through all three drivers.
	_, err = s.db.ExecContext(ctx, s.insertSQL,
		uuid.NewString(), u.FirstName, u.LastName, normalizeEmail(u.Email), hash, u.UserType, u.FarmLocation, time.Now().UTC())
	if err != nil {
		if s.isDuplicate(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert user: %w", err)
	}
	return true, nil
}

func (s *sqlStore) VerifyUser(ctx context.Context, email, password string) (bool, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return s.hasher.Verify(u.PasswordHash, password), nil
}

func (s *sqlStore) GetByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, s.selectSQL, normalizeEmail(email)).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.UserType, &u.FarmLocation, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
		return User{}, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

func (s *sqlStore) Close() error { return s.db.Close() }

// normalizeEmail lowercases and trims an address. Uniqueness and lookups are
// therefore case-insensitive; the decision is recorded in DESIGN.md.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
