package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vibecord/storefront-auth/internal/database"
	"github.com/vibecord/storefront-auth/internal/models"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{pool: db.Pool}
}

// Create persists a new active session. created_at is store-assigned so that
// eviction ordering does not depend on application clocks.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (id, user_id, ip_hash, user_agent, is_active, expires_at)
		VALUES ($1, $2, $3, $4, true, $5)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		session.ID, session.UserID, session.IPHash, session.UserAgent, session.ExpiresAt,
	).Scan(&session.CreatedAt)
	if err != nil {
		return database.MapPostgresError(err)
	}

	session.IsActive = true
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	query := `
		SELECT id, user_id, ip_hash, user_agent, is_active, created_at, expires_at
		FROM sessions WHERE id = $1
	`
	return scanSessionRow(r.pool.QueryRow(ctx, query, id))
}

// Deactivate marks a session inactive. Idempotent: deactivating a missing or
// already-inactive session is not an error.
func (r *SessionRepository) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE sessions
		SET is_active = false, deactivated_at = now()
		WHERE id = $1 AND is_active = true
	`

	_, err := r.pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// ListActiveByUser returns active sessions newest-first. The seq column
// breaks created_at ties by insertion order.
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	query := `
		SELECT id, user_id, ip_hash, user_agent, is_active, created_at, expires_at
		FROM sessions
		WHERE user_id = $1 AND is_active = true
		ORDER BY created_at DESC, seq DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	return scanSessionRows(rows)
}

// DeactivateMany marks a batch of sessions inactive (eviction)
func (r *SessionRepository) DeactivateMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE sessions
		SET is_active = false, deactivated_at = now()
		WHERE id = ANY($1) AND is_active = true
	`

	_, err := r.pool.Exec(ctx, query, ids)
	return database.MapPostgresError(err)
}

// DeleteExpired removes session rows past their expiry; lazy expiry at
// validation time remains the correctness mechanism, this is hygiene
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= now()`

	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

func scanSessionRow(scanner rowScanner) (*models.Session, error) {
	var session models.Session

	err := scanner.Scan(
		&session.ID, &session.UserID, &session.IPHash, &session.UserAgent,
		&session.IsActive, &session.CreatedAt, &session.ExpiresAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &session, nil
}

func scanSessionRows(rows pgx.Rows) ([]*models.Session, error) {
	defer rows.Close()

	sessions := make([]*models.Session, 0)

	for rows.Next() {
		session, err := scanSessionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sessions, nil
}
