package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists audit events durably. The schema is created on
// startup so deployments without a migration step still work.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema creates the audit table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS audit_events (
			id BIGSERIAL PRIMARY KEY,
			occurred_at TIMESTAMPTZ NOT NULL,
			user_id TEXT NOT NULL,
			flow_id TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			device TEXT NOT NULL DEFAULT '',
			request_id TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS audit_events_user_idx ON audit_events (user_id, occurred_at);
	`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	const query = `
		INSERT INTO audit_events (occurred_at, user_id, flow_id, action, subject, reason, device, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.pool.Exec(ctx, query,
		event.Timestamp, event.UserID, event.FlowID, event.Action,
		event.Subject, event.Reason, event.Device, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Event, error) {
	const query = `
		SELECT occurred_at, user_id, flow_id, action, subject, reason, device, request_id
		FROM audit_events
		WHERE user_id = $1
		ORDER BY occurred_at
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Timestamp, &e.UserID, &e.FlowID, &e.Action, &e.Subject, &e.Reason, &e.Device, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
