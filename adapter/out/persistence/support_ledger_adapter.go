package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"support_server/core/domain"
	"support_server/core/port/out"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = "23505"

// LedgerRepository implements out.LedgerRepository on Postgres.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) out.LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Exists(ctx context.Context, messageID string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_messages WHERE message_id = $1)",
		messageID)
	if err != nil {
		return false, fmt.Errorf("ledger exists: %w", err)
	}
	return exists, nil
}

func (r *LedgerRepository) Get(ctx context.Context, messageID string) (*domain.LedgerEntry, error) {
	query := `
		SELECT message_id, sender, sender_name, subject, intent, disposition,
		       reason, response_sent, flagged_for_review, order_number,
		       priority, processed_at
		FROM processed_messages
		WHERE message_id = $1`

	var row ledgerRow
	if err := r.db.GetContext(ctx, &row, query, messageID); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return row.toDomain(), nil
}

// Record inserts the entry. The primary key on message_id makes the insert
// the at-most-once guarantee for the whole pipeline.
func (r *LedgerRepository) Record(ctx context.Context, entry *domain.LedgerEntry) error {
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now()
	}

	query := `
		INSERT INTO processed_messages (
			message_id, sender, sender_name, subject, intent, disposition,
			reason, response_sent, flagged_for_review, order_number,
			priority, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		entry.MessageID, entry.Sender, nullString(entry.SenderName),
		entry.Subject, nullString(string(entry.Intent)),
		string(entry.Disposition), nullString(entry.Reason),
		entry.ResponseSent, entry.FlaggedForReview,
		nullString(entry.OrderNumber), nullString(string(entry.Priority)),
		entry.ProcessedAt,
	)
	if err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && string(pgErr.Code) == uniqueViolation {
			return out.ErrAlreadyProcessed
		}
		return fmt.Errorf("record ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepository) CountsSince(ctx context.Context, since time.Time) (*out.LedgerCounts, error) {
	return r.counts(ctx, "WHERE processed_at >= $1", since)
}

func (r *LedgerRepository) Totals(ctx context.Context) (*out.LedgerCounts, error) {
	return r.counts(ctx, "")
}

func (r *LedgerRepository) counts(ctx context.Context, where string, args ...interface{}) (*out.LedgerCounts, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE response_sent) AS responses_sent,
		       COUNT(*) FILTER (WHERE disposition = 'spam') AS spam_detected,
		       COUNT(*) FILTER (WHERE flagged_for_review) AS flagged
		FROM processed_messages %s`, where)

	var row struct {
		Total         int `db:"total"`
		ResponsesSent int `db:"responses_sent"`
		SpamDetected  int `db:"spam_detected"`
		Flagged       int `db:"flagged"`
	}
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return nil, fmt.Errorf("ledger counts: %w", err)
	}

	return &out.LedgerCounts{
		Total:         row.Total,
		ResponsesSent: row.ResponsesSent,
		SpamDetected:  row.SpamDetected,
		Flagged:       row.Flagged,
	}, nil
}

// =============================================================================
// Row Types
// =============================================================================

type ledgerRow struct {
	MessageID        string         `db:"message_id"`
	Sender           string         `db:"sender"`
	SenderName       sql.NullString `db:"sender_name"`
	Subject          string         `db:"subject"`
	Intent           sql.NullString `db:"intent"`
	Disposition      string         `db:"disposition"`
	Reason           sql.NullString `db:"reason"`
	ResponseSent     bool           `db:"response_sent"`
	FlaggedForReview bool           `db:"flagged_for_review"`
	OrderNumber      sql.NullString `db:"order_number"`
	Priority         sql.NullString `db:"priority"`
	ProcessedAt      time.Time      `db:"processed_at"`
}

func (r *ledgerRow) toDomain() *domain.LedgerEntry {
	return &domain.LedgerEntry{
		MessageID:        r.MessageID,
		Sender:           r.Sender,
		SenderName:       r.SenderName.String,
		Subject:          r.Subject,
		Intent:           domain.Intent(r.Intent.String),
		Disposition:      domain.DispositionKind(r.Disposition),
		Reason:           r.Reason.String,
		ResponseSent:     r.ResponseSent,
		FlaggedForReview: r.FlaggedForReview,
		OrderNumber:      r.OrderNumber.String,
		Priority:         domain.ReviewPriority(r.Priority.String),
		ProcessedAt:      r.ProcessedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
