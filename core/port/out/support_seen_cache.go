package out

import "context"

// SeenCache is a fast-path duplicate filter in front of the ledger.
// It may forget entries (TTL expiry, eviction); the ledger check is the
// source of truth for at-most-once.
type SeenCache interface {
	// FirstSeen atomically marks the ID and reports whether it was new.
	FirstSeen(ctx context.Context, messageID string) (bool, error)

	// Forget removes the mark so a failed message can be retried next poll.
	Forget(ctx context.Context, messageID string) error
}
