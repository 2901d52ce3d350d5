package out

import (
	"context"

	"support_server/core/domain"

	"github.com/google/uuid"
)

// ReviewQueueRepository stores escalated messages for human follow-up.
type ReviewQueueRepository interface {
	Create(ctx context.Context, item *domain.ReviewItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewItem, error)
	ListPending(ctx context.Context) ([]*domain.ReviewItem, error)
	Resolve(ctx context.Context, id uuid.UUID, resolvedBy string) error
	CountByStatus(ctx context.Context) (pending, resolved int, err error)
}
