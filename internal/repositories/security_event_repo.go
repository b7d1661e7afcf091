package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vibecord/storefront-auth/internal/database"
	"github.com/vibecord/storefront-auth/internal/models"
)

// SecurityEventRepository persists the audit trail of authentication events
type SecurityEventRepository struct {
	pool *pgxpool.Pool
}

func NewSecurityEventRepository(db *database.DB) *SecurityEventRepository {
	return &SecurityEventRepository{pool: db.Pool}
}

func (r *SecurityEventRepository) Record(ctx context.Context, event *models.SecurityEvent) error {
	event.ID = uuid.New().String()

	query := `
		INSERT INTO security_events (id, event_type, user_id, identifier, ip_hash, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.EventType,
		nullString(event.UserID),
		event.Identifier,
		event.IPHash,
		event.Reason,
	)

	return database.MapPostgresError(err)
}

// List returns the most recent events, newest first
func (r *SecurityEventRepository) List(ctx context.Context, limit, offset int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, COALESCE(user_id::text, ''), identifier, ip_hash, reason, occurred_at
		FROM security_events
		ORDER BY occurred_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	var events []*models.SecurityEvent
	for rows.Next() {
		event := &models.SecurityEvent{}
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.UserID,
			&event.Identifier,
			&event.IPHash,
			&event.Reason,
			&event.OccurredAt,
		)
		if err != nil {
			return nil, database.MapPostgresError(err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return events, nil
}

// ListByUser returns events for a single user, newest first
func (r *SecurityEventRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.SecurityEvent, error) {
	query := `
		SELECT id, event_type, COALESCE(user_id::text, ''), identifier, ip_hash, reason, occurred_at
		FROM security_events
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	var events []*models.SecurityEvent
	for rows.Next() {
		event := &models.SecurityEvent{}
		err := rows.Scan(
			&event.ID,
			&event.EventType,
			&event.UserID,
			&event.Identifier,
			&event.IPHash,
			&event.Reason,
			&event.OccurredAt,
		)
		if err != nil {
			return nil, database.MapPostgresError(err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return events, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
