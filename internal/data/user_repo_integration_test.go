package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/sajansharmanz/accountd/internal/domain/auth"
	"github.com/sajansharmanz/accountd/internal/domain/model"
	apperrors "github.com/sajansharmanz/accountd/internal/errors"
	"github.com/sajansharmanz/accountd/internal/testutil"
)

func createTestUser(t *testing.T, repo *UserRepo, email string) model.User {
	t.Helper()
	u, err := repo.Create(context.Background(), model.CreateUserParams{
		Email:        email,
		PasswordHash: "hashed-password",
		RoleNames:    []string{"User"},
	})
	require.NoError(t, err)
	return u
}

func TestUserRepo_Integration_CreateAndFind(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)

		created := createTestUser(t, repo, "  Mixed.Case@Example.COM ")

		// Email normalized on write: lower-cased and trimmed.
		assert.Equal(t, "mixed.case@example.com", created.Email)
		assert.Equal(t, domainauth.StatusEnabled, created.Status)
		require.Len(t, created.Roles, 1)
		assert.Equal(t, "User", created.Roles[0].Name)
		assert.Len(t, created.Roles[0].Permissions, 3)

		// Lookup normalizes too.
		byEmail, err := repo.FindByEmail(context.Background(), " MIXED.CASE@example.com ")
		require.NoError(t, err)
		assert.Equal(t, created.ID, byEmail.ID)

		byID, err := repo.FindByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Email, byID.Email)

		principal, err := repo.FindPrincipalByID(context.Background(), created.ID)
		require.NoError(t, err)
		assert.True(t, principal.HasPermissions("user:read", "user:update", "user:delete"))
	})
}

func TestUserRepo_Integration_DuplicateEmail(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		createTestUser(t, repo, "dup@example.com")

		_, err := repo.Create(context.Background(), model.CreateUserParams{
			Email:        "DUP@example.com",
			PasswordHash: "x",
		})

		require.True(t, apperrors.IsConflict(err))
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "email", appErr.Field)
	})
}

func TestUserRepo_Integration_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)

		_, err := repo.FindByEmail(context.Background(), "nobody@example.com")
		assert.True(t, apperrors.IsNotFound(err))

		err = repo.UpdatePassword(context.Background(), "00000000-0000-0000-0000-000000000000", "x")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestUserRepo_Integration_LoginAttemptsAndStatus(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		u := createTestUser(t, repo, "user@example.com")

		require.NoError(t, repo.UpdateLoginAttempts(context.Background(), u.ID, 5, domainauth.StatusLocked))

		got, err := repo.FindByID(context.Background(), u.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.FailedLoginAttempts)
		assert.Equal(t, domainauth.StatusLocked, got.Status)
	})
}

func TestUserRepo_Integration_OTPSecretLifecycle(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		u := createTestUser(t, repo, "user@example.com")

		secret := model.EncryptedSecret{Ciphertext: "aabb", IV: "ccdd", AuthTag: "eeff"}
		require.NoError(t, repo.SetOTPSecret(context.Background(), u.ID, secret))

		got, err := repo.FindByID(context.Background(), u.ID)
		require.NoError(t, err)
		assert.Equal(t, secret, got.OTPSecret)
		assert.False(t, got.OTPEnabled)

		require.NoError(t, repo.MarkOTPVerified(context.Background(), u.ID))
		got, err = repo.FindByID(context.Background(), u.ID)
		require.NoError(t, err)
		assert.True(t, got.OTPEnabled)

		require.NoError(t, repo.DisableOTP(context.Background(), u.ID))
		got, err = repo.FindByID(context.Background(), u.ID)
		require.NoError(t, err)
		assert.False(t, got.OTPEnabled)
		assert.True(t, got.OTPSecret.IsZero())
	})
}

func TestUserRepo_Integration_UpdateEmailPassword(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		repo := NewUserRepo(db)
		u := createTestUser(t, repo, "user@example.com")

		updated, err := repo.UpdateEmailPassword(context.Background(), u.ID, "Renamed@Example.com", "")
		require.NoError(t, err)
		assert.Equal(t, "renamed@example.com", updated.Email)
		assert.Equal(t, "hashed-password", updated.PasswordHash)

		updated, err = repo.UpdateEmailPassword(context.Background(), u.ID, "", "new-hash")
		require.NoError(t, err)
		assert.Equal(t, "renamed@example.com", updated.Email)
		assert.Equal(t, "new-hash", updated.PasswordHash)
	})
}

func TestUserRepo_Integration_DeleteCascadesTokens(t *testing.T) {
	testutil.SkipIfNoTestDB(t)

	testutil.WithTestDB(t, func(db *sql.DB) {
		users := NewUserRepo(db)
		tokens := NewTokenRepo(db)
		u := createTestUser(t, users, "user@example.com")

		require.NoError(t, tokens.Create(context.Background(), u.ID, "hash-1", domainauth.TokenTypeSession))

		require.NoError(t, users.Delete(context.Background(), u.ID))

		_, err := tokens.FindByHash(context.Background(), "hash-1", domainauth.TokenTypeSession)
		assert.True(t, apperrors.IsNotFound(err))
	})
}
