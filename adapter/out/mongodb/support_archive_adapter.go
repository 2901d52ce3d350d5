package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"support_server/core/port/out"
)

const collectionArchive = "message_archive"

// ErrArchiveNotFound is returned when no archive exists for the message ID.
var ErrArchiveNotFound = errors.New("archive not found")

// ArchiveAdapter implements out.ArchiveRepository using MongoDB.
type ArchiveAdapter struct {
	collection *mongo.Collection
}

// NewArchiveAdapter creates a new MongoDB archive adapter.
func NewArchiveAdapter(db *mongo.Database) *ArchiveAdapter {
	return &ArchiveAdapter{
		collection: db.Collection(collectionArchive),
	}
}

// EnsureIndexes creates necessary indexes for the collection.
func (a *ArchiveAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "archived_at", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Save upserts the archive by message ID so reprocessed messages do not
// produce duplicates.
func (a *ArchiveAdapter) Save(ctx context.Context, archive *out.MessageArchive) error {
	if archive.ArchivedAt.IsZero() {
		archive.ArchivedAt = time.Now()
	}

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"message_id": archive.MessageID}
	if _, err := a.collection.ReplaceOne(ctx, filter, archive, opts); err != nil {
		return fmt.Errorf("save archive: %w", err)
	}
	return nil
}

// Get returns the archive for a message ID.
func (a *ArchiveAdapter) Get(ctx context.Context, messageID string) (*out.MessageArchive, error) {
	var archive out.MessageArchive
	err := a.collection.FindOne(ctx, bson.M{"message_id": messageID}).Decode(&archive)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrArchiveNotFound
		}
		return nil, fmt.Errorf("get archive: %w", err)
	}
	return &archive, nil
}

var _ out.ArchiveRepository = (*ArchiveAdapter)(nil)
