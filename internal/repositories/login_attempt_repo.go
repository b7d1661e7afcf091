package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vibecord/storefront-auth/internal/database"
	"github.com/vibecord/storefront-auth/internal/models"
)

// LoginAttemptRepository handles database operations for login attempts
type LoginAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{pool: db.Pool}
}

// Record appends a login attempt. occurred_at is store-assigned.
func (r *LoginAttemptRepository) Record(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (identifier, ip_hash, user_agent, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		attempt.Identifier,
		attempt.IPHash,
		attempt.UserAgent,
		attempt.ExpiresAt,
	)

	return database.MapPostgresError(err)
}

// CountSince returns the number of attempts for an identifier strictly after
// the cutoff. A record exactly at the cutoff does not count.
func (r *LoginAttemptRepository) CountSince(ctx context.Context, identifier string, cutoff time.Time) (int, error) {
	query := `
		SELECT COUNT(*) FROM login_attempts
		WHERE identifier = $1 AND occurred_at > $2
	`

	var count int
	err := r.pool.QueryRow(ctx, query, identifier, cutoff).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}

// DeleteForIdentifier removes all attempts for an identifier (successful login)
func (r *LoginAttemptRepository) DeleteForIdentifier(ctx context.Context, identifier string) error {
	query := `DELETE FROM login_attempts WHERE identifier = $1`

	_, err := r.pool.Exec(ctx, query, identifier)
	return database.MapPostgresError(err)
}

// DeleteExpired removes attempts past their physical retention bound
func (r *LoginAttemptRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM login_attempts WHERE expires_at <= now()`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
