package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS chat_audit (
    id          BIGSERIAL PRIMARY KEY,
    session_id  TEXT        NOT NULL,
    path        TEXT[]      NOT NULL,
    tool_calls  JSONB       NOT NULL DEFAULT '[]'::jsonb,
    outcome     TEXT        NOT NULL,
    error       TEXT        NOT NULL DEFAULT '',
    has_token   BOOLEAN     NOT NULL,
    subject     TEXT        NOT NULL DEFAULT '',
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ms BIGINT      NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_audit_started_at_idx ON chat_audit (started_at DESC);
`

// PostgresRecorder writes records to the chat_audit table.
type PostgresRecorder struct {
	DB *pgxpool.Pool
}

// NewPostgresRecorder connects and ensures the schema exists.
func NewPostgresRecorder(ctx context.Context, connStr string) (*PostgresRecorder, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	if _, err := db.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &PostgresRecorder{DB: db}, nil
}

func (p *PostgresRecorder) Record(ctx context.Context, rec Record) error {
	if p == nil || p.DB == nil {
		return nil
	}
	calls := rec.ToolCalls
	if calls == nil {
		calls = []ToolCall{}
	}
	callsJSON, err := json.Marshal(calls)
	if err != nil {
		return err
	}
	path := rec.Path
	if path == nil {
		path = []string{}
	}
	_, err = p.DB.Exec(ctx, `
        INSERT INTO chat_audit (session_id, path, tool_calls, outcome, error, has_token, subject, started_at, duration_ms)
        VALUES ($1, $2, $3::jsonb, $4, $5, $6, $7, $8, $9);
        `, rec.SessionID, path, string(callsJSON), rec.Outcome, rec.Error, rec.HasToken, rec.Subject, rec.StartedAt, rec.Duration.Milliseconds())
	return err
}

// Recent returns the latest records, newest first.
func (p *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.DB.Query(ctx, `
        SELECT session_id, path, tool_calls::text, outcome, error, has_token, subject, started_at, duration_ms
        FROM chat_audit
        ORDER BY started_at DESC
        LIMIT $1;
        `, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var (
			rec       Record
			callsJSON string
			millis    int64
		)
		if err := row.Scan(&rec.SessionID, &rec.Path, &callsJSON, &rec.Outcome, &rec.Error, &rec.HasToken, &rec.Subject, &rec.StartedAt, &millis); err != nil {
			return Record{}, err
		}
		if err := json.Unmarshal([]byte(callsJSON), &rec.ToolCalls); err != nil {
			return Record{}, fmt.Errorf("decode tool calls: %w", err)
		}
		rec.Duration = time.Duration(millis) * time.Millisecond
		return rec, nil
	})
}

// Close releases the pool.
func (p *PostgresRecorder) Close() {
	if p != nil && p.DB != nil {
		p.DB.Close()
	}
}
