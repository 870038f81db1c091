package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mleroux/taskforge/internal/apperror"
)

// UserRepository defines the data access contract for user records.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// Password reset. Only the SHA-256 hash of the token is stored, on the
	// user record itself, together with its expiry.
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	FindByResetHash(ctx context.Context, tokenHash string) (*User, error)
	ClearResetToken(ctx context.Context, userID string) error
}

// TokenRepository defines the data access contract for refresh tokens.
// Lookups only return live rows; expired rows are invisible even before
// the periodic sweep physically removes them.
type TokenRepository interface {
	Insert(ctx context.Context, token *RefreshToken) error
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)

	// Rotate overwrites the same row in place: new token value, new
	// timestamps, same row identity. The old value is invalid immediately.
	Rotate(ctx context.Context, id, newToken string, createdAt, expiresAt time.Time) error

	DeleteByToken(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)

	// Sweep operations run by the background cleaner.
	DeleteExpired(ctx context.Context) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
}

// --- MariaDB implementations ---

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, firstname, lastname, email, password_hash,
	          reset_hash, reset_expires, created_at, updated_at`

// scanUser reads one user row into a User struct.
func scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Firstname,
		&user.Lastname,
		&user.Email,
		&user.PasswordHash,
		&user.ResetHash,
		&user.ResetExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user row: %w", err)
	}
	return user, nil
}

// Create inserts a new user row into the users table.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, firstname, lastname, email, password_hash, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Firstname,
		user.Lastname,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByID retrieves a user by their UUID.
// Returns apperror.NewNotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByEmail retrieves a user by their normalized email address.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// EmailExists returns true if a user with the given email already exists.
// Used during registration to check for duplicates before hashing the password.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// UpdatePassword sets a new password hash for a user.
func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = ?, updated_at = NOW() WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// SetResetToken stores the hash and expiry of a pending password reset.
// Any previous pending reset is overwritten.
func (r *userRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `UPDATE users SET reset_hash = ?, reset_expires = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, tokenHash, expiresAt, userID)
	if err != nil {
		return fmt.Errorf("setting reset token: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// FindByResetHash looks up a user by a non-expired reset token hash.
func (r *userRepository) FindByResetHash(ctx context.Context, tokenHash string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users
	          WHERE reset_hash = ? AND reset_expires > NOW()`
	return scanUser(r.db.QueryRowContext(ctx, query, tokenHash))
}

// ClearResetToken removes a pending reset so the token can't be reused.
func (r *userRepository) ClearResetToken(ctx context.Context, userID string) error {
	query := `UPDATE users SET reset_hash = NULL, reset_expires = NULL WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("clearing reset token: %w", err)
	}
	return nil
}

// tokenRepository implements TokenRepository with hand-written MariaDB queries.
type tokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a new refresh-token repository backed by the
// given DB pool.
func NewTokenRepository(db *sql.DB) TokenRepository {
	return &tokenRepository{db: db}
}

// Insert stores a new refresh token row.
func (r *tokenRepository) Insert(ctx context.Context, token *RefreshToken) error {
	query := `INSERT INTO refresh_tokens (id, token, user_id, created_at, expires_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.Token,
		token.UserID,
		token.CreatedAt,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting refresh token: %w", err)
	}

	return nil
}

// FindByToken retrieves a live refresh token by its value. Expired rows are
// treated as absent even if the sweep hasn't removed them yet.
func (r *tokenRepository) FindByToken(ctx context.Context, token string) (*RefreshToken, error) {
	query := `SELECT id, token, user_id, created_at, expires_at
	          FROM refresh_tokens WHERE token = ? AND expires_at > NOW()`

	rt := &RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rt.ID,
		&rt.Token,
		&rt.UserID,
		&rt.CreatedAt,
		&rt.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("refresh token not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying refresh token: %w", err)
	}

	return rt, nil
}

// Rotate replaces the token value and timestamps of an existing row.
func (r *tokenRepository) Rotate(ctx context.Context, id, newToken string, createdAt, expiresAt time.Time) error {
	query := `UPDATE refresh_tokens SET token = ?, created_at = ?, expires_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, newToken, createdAt, expiresAt, id)
	if err != nil {
		return fmt.Errorf("rotating refresh token: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("refresh token not found")
	}
	return nil
}

// DeleteByToken removes the single row matching the token value.
func (r *tokenRepository) DeleteByToken(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("deleting refresh token: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("refresh token not found")
	}
	return nil
}

// DeleteByUser removes every refresh token owned by the given user and
// returns how many were deleted.
func (r *tokenRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("deleting user tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// DeleteExpired removes rows past their expiry.
func (r *tokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("deleting expired tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// DeleteOrphans removes tokens whose owning user no longer exists.
// Account deletion does not cascade transactionally; this sweep is the
// eventual cleanup.
func (r *tokenRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	query := `DELETE rt FROM refresh_tokens rt
	          LEFT JOIN users u ON u.id = rt.user_id
	          WHERE u.id IS NULL`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("deleting orphaned tokens: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
