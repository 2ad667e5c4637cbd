package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore opens a SQLite store in a temp directory with the legacy
// deterministic hasher (fast, and its contract is part of what we test).
func openTestStore(t *testing.T) Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "users.db")
	s, err := Open("sqlite", dsn, SHA256Hasher{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Init(context.Background()))
	return s
}

func newTestUser(email string) NewUser {
	return NewUser{
		FirstName: "Asha",
		LastName:  "Patel",
		Email:     email,
		Password:  "plant-lover-42",
		UserType:  "farmer",
	}
}

func TestInitIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, newTestUser("a@x.com"))
	require.NoError(t, err)
	require.True(t, ok)

	// A second Init must not disturb existing data.
	require.NoError(t, s.Init(ctx))

	verified, err := s.VerifyUser(ctx, "a@x.com", "plant-lover-42")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestAddUserDuplicateEmail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, newTestUser("a@x.com"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AddUser(ctx, newTestUser("a@x.com"))
	require.NoError(t, err, "a duplicate email is an expected outcome, not a fault")
	assert.False(t, ok)
}

func TestAddUserNormalizesEmail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, newTestUser("  Asha@Example.COM "))
	require.NoError(t, err)
	require.True(t, ok)

	// The differently-cased variant hits the same unique constraint.
	ok, err = s.AddUser(ctx, newTestUser("asha@example.com"))
	require.NoError(t, err)
	assert.False(t, ok)

	verified, err := s.VerifyUser(ctx, "ASHA@example.com", "plant-lover-42")
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestVerifyUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, newTestUser("a@x.com"))
	require.NoError(t, err)
	require.True(t, ok)

	t.Run("correct password", func(t *testing.T) {
		verified, err := s.VerifyUser(ctx, "a@x.com", "plant-lover-42")
		require.NoError(t, err)
		assert.True(t, verified)
	})
	t.Run("wrong password", func(t *testing.T) {
		verified, err := s.VerifyUser(ctx, "a@x.com", "wrong")
		require.NoError(t, err)
		assert.False(t, verified)
	})
	t.Run("unknown email", func(t *testing.T) {
		verified, err := s.VerifyUser(ctx, "nobody@x.com", "plant-lover-42")
		require.NoError(t, err)
		assert.False(t, verified, "unknown email and wrong password are indistinguishable")
	})
}

func TestPasswordNeverStoredInClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, newTestUser("a@x.com"))
	require.NoError(t, err)
	require.True(t, ok)

	u, err := s.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "plant-lover-42", u.PasswordHash)
	assert.Len(t, u.PasswordHash, 64)
}

func TestGetByEmailFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	nu := newTestUser("a@x.com")
	loc := "Nashik, Maharashtra"
	nu.FarmLocation = &loc
	ok, err := s.AddUser(ctx, nu)
	require.NoError(t, err)
	require.True(t, ok)

	u, err := s.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.NotEmpty(t, u.ID, "id is assigned at creation")
	assert.Equal(t, "Asha", u.FirstName)
	assert.Equal(t, "Patel", u.LastName)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, "farmer", u.UserType)
	require.NotNil(t, u.FarmLocation)
	assert.Equal(t, loc, *u.FarmLocation)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestFarmLocationOptional(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, newTestUser("a@x.com"))
	require.NoError(t, err)
	require.True(t, ok)

	u, err := s.GetByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Nil(t, u.FarmLocation)
}

func TestResetDiscardsAccounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ok, err := s.AddUser(ctx, newTestUser("a@x.com"))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Reset(ctx))

	verified, err := s.VerifyUser(ctx, "a@x.com", "plant-lover-42")
	require.NoError(t, err)
	assert.False(t, verified)

	// The table exists again and accepts new signups.
	ok, err = s.AddUser(ctx, newTestUser("a@x.com"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", SHA256Hasher{})
	require.Error(t, err)
}

func TestDuplicateDetectors(t *testing.T) {
	assert.False(t, sqliteIsDuplicate(nil))
	assert.False(t, postgresIsDuplicate(nil))
	assert.False(t, mysqlIsDuplicate(nil))
	assert.False(t, sqliteIsDuplicate(context.Canceled))
	assert.False(t, postgresIsDuplicate(context.Canceled))
	assert.False(t, mysqlIsDuplicate(context.Canceled))
}
