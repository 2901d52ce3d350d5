package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the pipeline tables when they do not exist yet.
// The bot runs against a single database it owns, so migrations stay inline.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS processed_messages (
			message_id         TEXT PRIMARY KEY,
			sender             TEXT NOT NULL,
			sender_name        TEXT,
			subject            TEXT NOT NULL DEFAULT '',
			intent             TEXT,
			disposition        TEXT NOT NULL,
			reason             TEXT,
			response_sent      BOOLEAN NOT NULL DEFAULT FALSE,
			flagged_for_review BOOLEAN NOT NULL DEFAULT FALSE,
			order_number       TEXT,
			priority           TEXT,
			processed_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_processed_messages_processed_at
			ON processed_messages (processed_at)`,
		`CREATE TABLE IF NOT EXISTS review_queue (
			id             UUID PRIMARY KEY,
			message_id     TEXT NOT NULL,
			customer_email TEXT NOT NULL,
			order_number   TEXT,
			reason         TEXT NOT NULL,
			priority       TEXT NOT NULL DEFAULT 'medium',
			status         TEXT NOT NULL DEFAULT 'pending',
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			resolved_at    TIMESTAMPTZ,
			resolved_by    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_queue_status
			ON review_queue (status, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
