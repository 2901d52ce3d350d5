// Package review implements the human review workflow over the queue and ledger.
package review

import (
	"context"
	"errors"
	"fmt"

	"support_server/core/domain"
	"support_server/core/port/in"
	"support_server/core/port/out"
	"support_server/pkg/apperr"
	"support_server/pkg/logger"

	"github.com/google/uuid"
)

// Service answers dashboard queries and resolves queue items.
type Service struct {
	reviews out.ReviewQueueRepository
	ledger  out.LedgerRepository
	orders  out.OrderStorePort
	log     *logger.Logger
}

// NewService creates the review service. The order store may be nil; address
// updates are then rejected.
func NewService(reviews out.ReviewQueueRepository, ledger out.LedgerRepository, orders out.OrderStorePort) *Service {
	return &Service{
		reviews: reviews,
		ledger:  ledger,
		orders:  orders,
		log:     logger.Default().WithField("component", "review_service"),
	}
}

// ListPending returns open review items, most urgent first.
func (s *Service) ListPending(ctx context.Context) ([]*domain.ReviewItem, error) {
	items, err := s.reviews.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending reviews: %w", err)
	}
	return items, nil
}

// Detail returns a review item joined with its ledger entry. A missing ledger
// entry is not an error; the item is returned alone.
func (s *Service) Detail(ctx context.Context, id uuid.UUID) (*domain.ReviewDetail, error) {
	item, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("review item")
	}

	detail := &domain.ReviewDetail{Review: item}
	entry, err := s.ledger.Get(ctx, item.MessageID)
	if err != nil {
		s.log.WithMessageID(item.MessageID).WithError(err).Warn("Ledger entry missing for review item")
		return detail, nil
	}
	detail.Ledger = entry
	return detail, nil
}

// Resolve closes a pending review item.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, resolvedBy string) error {
	item, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return apperr.NotFound("review item")
	}
	if item.Status == domain.ReviewResolved {
		return apperr.BadRequest("review item already resolved")
	}
	if err := s.reviews.Resolve(ctx, id, resolvedBy); err != nil {
		return fmt.Errorf("resolve review %s: %w", id, err)
	}
	s.log.WithField("review_id", id.String()).Info("Review resolved by %s", resolvedBy)
	return nil
}

// Stats aggregates the queue and the ledger into dashboard numbers.
// The automation rate is the share of all processed messages answered
// without a human.
func (s *Service) Stats(ctx context.Context) (*domain.ReviewStats, error) {
	pending, resolved, err := s.reviews.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	totals, err := s.ledger.Totals(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger totals: %w", err)
	}

	stats := &domain.ReviewStats{
		Pending:       pending,
		Resolved:      resolved,
		Automated:     totals.ResponsesSent,
		TotalMessages: totals.Total,
	}
	if totals.Total > 0 {
		stats.AutomationRate = float64(totals.ResponsesSent) / float64(totals.Total) * 100
	}
	return stats, nil
}

// UpdateAddress applies a customer's address change to an open order. This
// backs the action-required alerts; the pipeline never changes orders on its
// own.
func (s *Service) UpdateAddress(ctx context.Context, orderNumber string, addr *out.ShippingAddress) error {
	if s.orders == nil {
		return apperr.New(apperr.CodeExternalError, "order store not configured", 503)
	}
	if addr == nil || addr.Address1 == "" || addr.City == "" || addr.Zip == "" || addr.Country == "" {
		return apperr.BadRequest("address1, city, zip and country are required")
	}

	if err := s.orders.UpdateShippingAddress(ctx, orderNumber, addr); err != nil {
		if errors.Is(err, out.ErrOrderNotFound) {
			return apperr.NotFound("open order " + orderNumber)
		}
		return fmt.Errorf("update address for order %s: %w", orderNumber, err)
	}

	s.log.WithField("order_number", orderNumber).Info("Shipping address updated")
	return nil
}

var _ in.ReviewService = (*Service)(nil)
