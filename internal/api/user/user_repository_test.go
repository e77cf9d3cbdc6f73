package user

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster-platform/auth-service/internal/types"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresUserRepo) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	repo := NewPostgresUserRepo(mockPool, slog.New(slog.NewTextHandler(testWriter{t}, nil)))
	return mockPool, repo
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func userRow(mockPool pgxmock.PgxPoolIface, u *types.User) *pgxmock.Rows {
	var lastName *string
	if u.LastName != "" {
		lastName = &u.LastName
	}
	return mockPool.NewRows([]string{
		"user_id", "first_name", "last_name", "username", "email",
		"password_hash", "role", "is_verified", "created_at", "updated_at",
	}).AddRow(u.UserID, u.FirstName, lastName, u.Username, u.Email,
		u.PasswordHash, u.Role, u.IsVerified, u.CreatedAt, u.UpdatedAt)
}

func sampleUser() *types.User {
	now := time.Now()
	return &types.User{
		UserID:       42,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Username:     "ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$dummyhash",
		Role:         types.RoleUser,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPostgresUserRepo_Insert(t *testing.T) {
	t.Run("Should insert user and return new id", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		u := sampleUser()
		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs(u.FirstName, &u.LastName, u.Username, u.Email, u.PasswordHash, u.Role, u.IsVerified).
			WillReturnRows(mockPool.NewRows([]string{"user_id"}).AddRow(int64(7)))

		id, err := repo.Insert(context.Background(), u)
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should map username constraint violation", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		u := sampleUser()
		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs(u.FirstName, &u.LastName, u.Username, u.Email, u.PasswordHash, u.Role, u.IsVerified).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

		_, err := repo.Insert(context.Background(), u)
		assert.ErrorIs(t, err, types.ErrUsernameTaken)
	})
	t.Run("Should map email constraint violation", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		u := sampleUser()
		mockPool.ExpectQuery("INSERT INTO users").
			WithArgs(u.FirstName, &u.LastName, u.Username, u.Email, u.PasswordHash, u.Role, u.IsVerified).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

		_, err := repo.Insert(context.Background(), u)
		assert.ErrorIs(t, err, types.ErrEmailTaken)
	})
}

func TestPostgresUserRepo_FindByID(t *testing.T) {
	t.Run("Should return user by id", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		u := sampleUser()
		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE user_id = \\$1").
			WithArgs(u.UserID).
			WillReturnRows(userRow(mockPool, u))

		got, err := repo.FindByID(context.Background(), u.UserID)
		require.NoError(t, err)
		assert.Equal(t, u.Username, got.Username)
		assert.Equal(t, u.LastName, got.LastName)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should return ErrNotFound for missing id", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE user_id = \\$1").
			WithArgs(int64(999)).
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.FindByID(context.Background(), 999)
		assert.Nil(t, got)
		assert.True(t, errors.Is(err, types.ErrNotFound))
	})
}

func TestPostgresUserRepo_FindByUsernameAndEmail(t *testing.T) {
	t.Run("Should return user by username", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		u := sampleUser()
		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE username = \\$1").
			WithArgs(u.Username).
			WillReturnRows(userRow(mockPool, u))

		got, err := repo.FindByUsername(context.Background(), u.Username)
		require.NoError(t, err)
		assert.Equal(t, u.UserID, got.UserID)
	})
	t.Run("Should return user by email", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		u := sampleUser()
		mockPool.ExpectQuery("SELECT (.+) FROM users WHERE email = \\$1").
			WithArgs(u.Email).
			WillReturnRows(userRow(mockPool, u))

		got, err := repo.FindByEmail(context.Background(), u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.UserID, got.UserID)
	})
}

func TestPostgresUserRepo_UpdateFields(t *testing.T) {
	t.Run("Should update only provided fields", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		username := "ada2"
		mockPool.ExpectExec("UPDATE users SET username = \\$1, updated_at = now\\(\\) WHERE user_id = \\$2").
			WithArgs(username, int64(42)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateFields(context.Background(), 42, types.UpdateUserParams{Username: &username})
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should be a no-op when nothing changes", func(t *testing.T) {
		_, repo := newMockRepo(t)
		err := repo.UpdateFields(context.Background(), 42, types.UpdateUserParams{})
		assert.NoError(t, err)
	})
	t.Run("Should return ErrNotFound when no row matches", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		email := "new@example.com"
		mockPool.ExpectExec("UPDATE users SET email = \\$1, updated_at = now\\(\\) WHERE user_id = \\$2").
			WithArgs(email, int64(999)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateFields(context.Background(), 999, types.UpdateUserParams{Email: &email})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
	t.Run("Should map conflicting username change", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		username := "taken"
		mockPool.ExpectExec("UPDATE users SET username = \\$1, updated_at = now\\(\\) WHERE user_id = \\$2").
			WithArgs(username, int64(42)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

		err := repo.UpdateFields(context.Background(), 42, types.UpdateUserParams{Username: &username})
		assert.ErrorIs(t, err, types.ErrUsernameTaken)
	})
}

func TestPostgresUserRepo_MarkVerified(t *testing.T) {
	t.Run("Should flip verification flag", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectExec("UPDATE users SET is_verified = TRUE").
			WithArgs(int64(42)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.MarkVerified(context.Background(), 42))
	})
	t.Run("Should return ErrNotFound for missing user", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectExec("UPDATE users SET is_verified = TRUE").
			WithArgs(int64(999)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, repo.MarkVerified(context.Background(), 999), types.ErrNotFound)
	})
}

func TestPostgresUserRepo_Delete(t *testing.T) {
	t.Run("Should delete user row", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectExec("DELETE FROM users WHERE user_id = \\$1").
			WithArgs(int64(42)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(context.Background(), 42))
	})
	t.Run("Should return ErrNotFound for missing user", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectExec("DELETE FROM users WHERE user_id = \\$1").
			WithArgs(int64(999)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), 999), types.ErrNotFound)
	})
}

func TestPostgresUserRepo_ListAll(t *testing.T) {
	t.Run("Should list users in creation order", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		now := time.Now()
		var noLastName *string
		rows := mockPool.NewRows([]string{
			"user_id", "first_name", "last_name", "username", "email",
			"password_hash", "role", "is_verified", "created_at", "updated_at",
		}).
			AddRow(int64(1), "Admin", noLastName, "admin", "admin@example.com", "hash1", types.RoleAdmin, true, now, now).
			AddRow(int64(2), "Ada", noLastName, "ada", "ada@example.com", "hash2", types.RoleUser, false, now, now)
		mockPool.ExpectQuery("SELECT (.+) FROM users ORDER BY created_at").
			WillReturnRows(rows)

		users, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "admin", users[0].Username)
		assert.Equal(t, "ada", users[1].Username)
	})
	t.Run("Should return empty slice for empty table", func(t *testing.T) {
		mockPool, repo := newMockRepo(t)
		mockPool.ExpectQuery("SELECT (.+) FROM users ORDER BY created_at").
			WillReturnRows(mockPool.NewRows([]string{
				"user_id", "first_name", "last_name", "username", "email",
				"password_hash", "role", "is_verified", "created_at", "updated_at",
			}))

		users, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, users)
	})
}
