package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taskmaster-platform/auth-service/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user directory persistence. Username
// and email arguments are expected case-normalized (lowercase) by callers.
type UserRepo interface {
	// Insert creates a new user row and returns its assigned id.
	// Uniqueness violations surface as types.ErrUsernameTaken or
	// types.ErrEmailTaken.
	Insert(ctx context.Context, user *types.User) (int64, error)

	// FindByID retrieves a user by id. Returns types.ErrNotFound if absent.
	FindByID(ctx context.Context, userID int64) (*types.User, error)

	// FindByUsername retrieves a user by username. Returns types.ErrNotFound if absent.
	FindByUsername(ctx context.Context, username string) (*types.User, error)

	// FindByEmail retrieves a user by email. Returns types.ErrNotFound if absent.
	FindByEmail(ctx context.Context, email string) (*types.User, error)

	// UpdateFields applies a partial update; only non-nil params change.
	// Returns types.ErrNotFound when the row does not exist.
	UpdateFields(ctx context.Context, userID int64, params types.UpdateUserParams) error

	// MarkVerified flips is_verified to true. Idempotent.
	MarkVerified(ctx context.Context, userID int64) error

	// Delete removes the user row. Returns types.ErrNotFound when absent.
	Delete(ctx context.Context, userID int64) error

	// ListAll returns every user ordered by creation time.
	ListAll(ctx context.Context) ([]types.User, error)
}

// PGXPool is the subset of pgxpool.Pool the repository needs; pgxmock
// satisfies it in tests.
type PGXPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool PGXPool
}

func NewPostgresUserRepo(pgpool PGXPool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = "user_id, first_name, last_name, username, email, password_hash, role, is_verified, created_at, updated_at"

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	var lastName *string
	err := row.Scan(&u.UserID, &u.FirstName, &lastName, &u.Username, &u.Email,
		&u.PasswordHash, &u.Role, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning user row: %w", err)
	}
	if lastName != nil {
		u.LastName = *lastName
	}
	return &u, nil
}

// mapUniqueViolation translates a unique-constraint failure into the
// matching conflict sentinel by constraint name.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return types.ErrUsernameTaken
		case strings.Contains(pgErr.ConstraintName, "email"):
			return types.ErrEmailTaken
		default:
			return types.ErrConflict
		}
	}
	return nil
}

func (r *PostgresUserRepo) Insert(ctx context.Context, user *types.User) (int64, error) {
	var lastName *string
	if user.LastName != "" {
		lastName = &user.LastName
	}

	var userID int64
	err := r.pgpool.QueryRow(ctx,
		`INSERT INTO users (first_name, last_name, username, email, password_hash, role, is_verified)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING user_id`,
		user.FirstName, lastName, user.Username, user.Email, user.PasswordHash,
		user.Role, user.IsVerified).Scan(&userID)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return 0, conflict
		}
		return 0, fmt.Errorf("error inserting user: %w", err)
	}
	return userID, nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, userID int64) (*types.User, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE user_id = $1", userID)
	return scanUser(row)
}

func (r *PostgresUserRepo) FindByUsername(ctx context.Context, username string) (*types.User, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE username = $1", username)
	return scanUser(row)
}

func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*types.User, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", email)
	return scanUser(row)
}

func (r *PostgresUserRepo) UpdateFields(ctx context.Context, userID int64, params types.UpdateUserParams) error {
	setClauses := []string{}
	args := []any{}
	argID := 1

	addSet := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argID))
		args = append(args, value)
		argID++
	}

	if params.FirstName != nil {
		addSet("first_name", *params.FirstName)
	}
	if params.LastName != nil {
		addSet("last_name", *params.LastName)
	}
	if params.Username != nil {
		addSet("username", *params.Username)
	}
	if params.Email != nil {
		addSet("email", *params.Email)
	}
	if params.PasswordHash != nil {
		addSet("password_hash", *params.PasswordHash)
	}
	if len(setClauses) == 0 {
		return nil
	}
	setClauses = append(setClauses, "updated_at = now()")

	query := fmt.Sprintf("UPDATE users SET %s WHERE user_id = $%d",
		strings.Join(setClauses, ", "), argID)
	args = append(args, userID)

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		if conflict := mapUniqueViolation(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) MarkVerified(ctx context.Context, userID int64) error {
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET is_verified = TRUE, updated_at = now() WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("error marking user verified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) Delete(ctx context.Context, userID int64) error {
	tag, err := r.pgpool.Exec(ctx, "DELETE FROM users WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) ListAll(ctx context.Context) ([]types.User, error) {
	rows, err := r.pgpool.Query(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		var u types.User
		var lastName *string
		if err := rows.Scan(&u.UserID, &u.FirstName, &lastName, &u.Username, &u.Email,
			&u.PasswordHash, &u.Role, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		if lastName != nil {
			u.LastName = *lastName
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
