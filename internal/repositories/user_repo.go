package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vibecord/storefront-auth/internal/database"
	"github.com/vibecord/storefront-auth/internal/models"
)

const userColumns = `id, email, username, password_hash, roles, email_verified, is_active,
	failed_login_attempts, locked_until, two_factor_enabled, two_factor_secret, two_factor_nonce,
	created_at, updated_at, last_login_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var lockedUntil, lastLoginAt *time.Time

	err := scanner.Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.Roles,
		&user.EmailVerified, &user.IsActive,
		&user.FailedLoginAttempts, &lockedUntil,
		&user.TwoFactorEnabled, &user.TwoFactorSecret, &user.TwoFactorNonce,
		&user.CreatedAt, &user.UpdatedAt, &lastLoginAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.LockedUntil = lockedUntil
	user.LastLoginAt = lastLoginAt
	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	if len(user.Roles) == 0 {
		user.Roles = []string{"user"}
	}

	query := `
		INSERT INTO users (id, email, username, password_hash, roles, email_verified, is_active,
			two_factor_enabled, two_factor_secret, two_factor_nonce)
		VALUES ($1, $2, $3, $4, $5, $6, true, $7, $8, $9)
		RETURNING ` + userColumns

	created, err := scanUserRow(r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.Roles,
		user.EmailVerified, user.TwoFactorEnabled, user.TwoFactorSecret, user.TwoFactorNonce,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUserRow(r.pool.QueryRow(ctx, query, username))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2,
			updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, passwordHash)
	return database.MapPostgresError(err)
}

// IncrementFailedAttempts bumps the failed-login counter cache. lockedUntil is
// non-nil only once the lockout threshold has been crossed; the derived count
// in login_attempts stays the source of truth.
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, id string, lockedUntil *time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
			locked_until = COALESCE($2, locked_until),
			updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id, lockedUntil)
	return database.MapPostgresError(err)
}

// ResetLoginState clears the counter cache and lockout flag after a
// successful login, and stamps last_login_at.
func (r *UserRepository) ResetLoginState(ctx context.Context, id string) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0,
			locked_until = NULL,
			last_login_at = now(),
			updated_at = now()
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// SetTwoFactor stores or clears the encrypted TOTP secret
func (r *UserRepository) SetTwoFactor(ctx context.Context, id string, enabled bool, secret, nonce []byte) error {
	query := `
		UPDATE users
		SET two_factor_enabled = $2,
			two_factor_secret = $3,
			two_factor_nonce = $4,
			updated_at = now()
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query, id, enabled, secret, nonce)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
