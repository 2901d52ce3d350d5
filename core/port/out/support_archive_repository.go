package out

import (
	"context"
	"time"
)

// MessageArchive is the raw inbound body and generated reply kept for audit.
type MessageArchive struct {
	MessageID   string    `bson:"message_id" json:"message_id"`
	Sender      string    `bson:"sender" json:"sender"`
	Subject     string    `bson:"subject" json:"subject"`
	Body        string    `bson:"body" json:"body"`
	Reply       string    `bson:"reply,omitempty" json:"reply,omitempty"`
	Disposition string    `bson:"disposition" json:"disposition"`
	ArchivedAt  time.Time `bson:"archived_at" json:"archived_at"`
}

// ArchiveRepository stores full message bodies outside the ledger.
// Writes are best effort; the pipeline never blocks on the archive.
type ArchiveRepository interface {
	Save(ctx context.Context, archive *MessageArchive) error
	Get(ctx context.Context, messageID string) (*MessageArchive, error)
}
