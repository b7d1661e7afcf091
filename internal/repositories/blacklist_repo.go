package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vibecord/storefront-auth/internal/database"
)

// BlacklistRepository stores revoked token identifiers in Postgres.
// Entries are retained until the token they refer to would have
// expired anyway, then swept by the cleanup job.
type BlacklistRepository struct {
	pool *pgxpool.Pool
}

func NewBlacklistRepository(db *database.DB) *BlacklistRepository {
	return &BlacklistRepository{pool: db.Pool}
}

// Blacklist records a token JTI as revoked until expiresAt
func (r *BlacklistRepository) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	query := `
		INSERT INTO blacklisted_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, jti, expiresAt)
	return database.MapPostgresError(err)
}

// IsBlacklisted reports whether the JTI has been revoked and is still
// within its retention window.
func (r *BlacklistRepository) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	query := `
		SELECT 1 FROM blacklisted_tokens
		WHERE jti = $1 AND expires_at > now()
	`

	var one int
	err := r.pool.QueryRow(ctx, query, jti).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, database.MapPostgresError(err)
	}
	return true, nil
}

// DeleteExpired sweeps entries whose tokens have already expired
func (r *BlacklistRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM blacklisted_tokens WHERE expires_at <= now()`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
