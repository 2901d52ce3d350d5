package in

import (
	"context"

	"support_server/core/domain"
	"support_server/core/port/out"

	"github.com/google/uuid"
)

// ReviewService exposes the human review workflow.
type ReviewService interface {
	ListPending(ctx context.Context) ([]*domain.ReviewItem, error)
	Detail(ctx context.Context, id uuid.UUID) (*domain.ReviewDetail, error)
	Resolve(ctx context.Context, id uuid.UUID, resolvedBy string) error
	Stats(ctx context.Context) (*domain.ReviewStats, error)

	// UpdateAddress applies an address change a customer asked for.
	UpdateAddress(ctx context.Context, orderNumber string, addr *out.ShippingAddress) error
}
