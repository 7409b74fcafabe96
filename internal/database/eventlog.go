// internal/database/eventlog.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EventLog appends session lifecycle and action rows to the
// session_events table. Rows are insert-only; nothing in the server reads
// them back (they feed offline reporting).
//
// Schema:
//
//	CREATE TABLE session_events (
//	    id          BIGSERIAL PRIMARY KEY,
//	    session_key TEXT        NOT NULL,
//	    actor_id    TEXT        NOT NULL DEFAULT '',
//	    event_type  TEXT        NOT NULL,
//	    payload     JSONB       NOT NULL DEFAULT '{}',
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
type EventLog struct {
	pool *pgxpool.Pool
}

// NewEventLog wraps a connected pool.
func NewEventLog(pool *pgxpool.Pool) *EventLog {
	return &EventLog{pool: pool}
}

// Record inserts one event row.
func (l *EventLog) Record(ctx context.Context, sessionKey, actorID, eventType string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO session_events (session_key, actor_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		sessionKey, actorID, eventType, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert session event: %w", err)
	}
	return nil
}
