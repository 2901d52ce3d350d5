package out

import (
	"context"
	"errors"
	"time"

	"support_server/core/domain"
)

// ErrAlreadyProcessed is returned by Record when an entry for the message ID
// already exists. The insert is atomic; racing writers lose cleanly.
var ErrAlreadyProcessed = errors.New("message already processed")

// LedgerCounts aggregates ledger rows for reporting.
type LedgerCounts struct {
	Total         int `json:"total"`
	ResponsesSent int `json:"responses_sent"`
	SpamDetected  int `json:"spam_detected"`
	Flagged       int `json:"flagged"`
}

// LedgerRepository is the append-only disposition ledger.
// Entries are never updated or deleted.
type LedgerRepository interface {
	Exists(ctx context.Context, messageID string) (bool, error)
	Get(ctx context.Context, messageID string) (*domain.LedgerEntry, error)
	Record(ctx context.Context, entry *domain.LedgerEntry) error
	CountsSince(ctx context.Context, since time.Time) (*LedgerCounts, error)
	Totals(ctx context.Context) (*LedgerCounts, error)
}
