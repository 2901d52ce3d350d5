package domain

import "time"

// LineItem is a single purchased product on an order.
type LineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// OrderContext is the order information attached to a message before the
// policy engine runs. A nil OrderContext means no order could be resolved.
type OrderContext struct {
	OrderNumber         string     `json:"order_number"`
	OrderName           string     `json:"order_name"`
	CustomerEmail       string     `json:"customer_email"`
	CreatedAt           time.Time  `json:"created_at"`
	FinancialStatus     string     `json:"financial_status"`
	FulfillmentStatus   string     `json:"fulfillment_status"`
	TrackingNumbers     []string   `json:"tracking_numbers,omitempty"`
	TrackingURLs        []string   `json:"tracking_urls,omitempty"`
	TrackingCompany     string     `json:"tracking_company,omitempty"`
	ExpectedDeliveryMin time.Time  `json:"expected_delivery_min"`
	ExpectedDeliveryMax time.Time  `json:"expected_delivery_max"`
	TotalPrice          string     `json:"total_price"`
	Currency            string     `json:"currency"`
	LineItems           []LineItem `json:"line_items,omitempty"`
}

// IsUnfulfilled reports whether the order has no fulfillment yet.
func (o *OrderContext) IsUnfulfilled() bool {
	return o.FulfillmentStatus == "" || o.FulfillmentStatus == "unfulfilled" || o.FulfillmentStatus == "null"
}

// DaysOverdue returns whole days past the latest expected delivery date,
// clamped at zero.
func (o *OrderContext) DaysOverdue(now time.Time) int {
	if o.ExpectedDeliveryMax.IsZero() {
		return 0
	}
	days := int(now.Sub(o.ExpectedDeliveryMax).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
