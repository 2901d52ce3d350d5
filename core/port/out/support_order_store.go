package out

import (
	"context"
	"errors"

	"support_server/core/domain"
)

// ErrOrderNotFound is returned when no order matches the lookup.
var ErrOrderNotFound = errors.New("order not found")

// ShippingAddress is the update payload for an address change.
type ShippingAddress struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	Province string `json:"province,omitempty"`
	Zip      string `json:"zip"`
	Country  string `json:"country"`
	Phone    string `json:"phone,omitempty"`
}

// OrderStorePort defines the outbound port for the order record service.
type OrderStorePort interface {
	// FindByNumber looks an order up by its store-facing order number.
	FindByNumber(ctx context.Context, number string) (*domain.OrderContext, error)

	// FindByEmail returns the customer's most recent order.
	FindByEmail(ctx context.Context, email string) (*domain.OrderContext, error)

	// UpdateShippingAddress changes the shipping address of an open order.
	UpdateShippingAddress(ctx context.Context, orderNumber string, addr *ShippingAddress) error
}
