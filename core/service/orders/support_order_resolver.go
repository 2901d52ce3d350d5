// Package orders resolves order context for inbound messages.
package orders

import (
	"context"
	"errors"
	"regexp"

	"support_server/core/domain"
	"support_server/core/port/out"
	"support_server/pkg/logger"
)

// Patterns are tried in order; the first capture wins.
var orderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`#(\d{4,6})`),
	regexp.MustCompile(`(?i)order\s*#?\s*(\d{4,6})`),
	regexp.MustCompile(`\b(\d{4,6})\b`),
}

// ExtractOrderNumber pulls an order number out of free text.
// Returns "" when no pattern matches.
func ExtractOrderNumber(text string) string {
	for _, p := range orderPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// Resolver attaches order context to messages.
type Resolver struct {
	store out.OrderStorePort
	log   *logger.Logger
}

// NewResolver creates a resolver backed by the given order store.
func NewResolver(store out.OrderStorePort) *Resolver {
	return &Resolver{
		store: store,
		log:   logger.Default().WithField("component", "order_resolver"),
	}
}

// Resolve finds the order a message refers to. An extracted order number is
// looked up first; a miss falls back to the customer's most recent order.
// Lookup failure of any kind yields nil context, never an error.
func (r *Resolver) Resolve(ctx context.Context, msg *domain.InboundMessage) *domain.OrderContext {
	if r.store == nil {
		return nil
	}

	number := ExtractOrderNumber(msg.Subject + " " + msg.Body)
	if number != "" {
		order, err := r.store.FindByNumber(ctx, number)
		if err == nil {
			return order
		}
		if !errors.Is(err, out.ErrOrderNotFound) {
			r.log.WithMessageID(msg.ID).WithError(err).Warn("Order lookup by number %s failed", number)
			return nil
		}
		// Unknown number, fall back to the sender's latest order
	}

	order, err := r.store.FindByEmail(ctx, msg.Sender)
	if err != nil {
		if !errors.Is(err, out.ErrOrderNotFound) {
			r.log.WithMessageID(msg.ID).WithError(err).Warn("Order lookup by email failed")
		}
		return nil
	}
	return order
}
