// Package shopify implements the order store port on the Shopify Admin API.
package shopify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"

	"support_server/core/domain"
	"support_server/core/port/out"
)

const apiVersion = "2024-01"

// Delivery window applied to fulfilled orders without carrier estimates.
const (
	deliveryWindowMinDays = 10
	deliveryWindowMaxDays = 14
)

// Config carries the Admin API credentials.
type Config struct {
	// StoreURL is the myshopify domain, e.g. "thread-and-hem.myshopify.com".
	StoreURL    string
	AccessToken string
}

// Adapter implements out.OrderStorePort against the Admin REST API.
type Adapter struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewAdapter creates the adapter.
func NewAdapter(cfg Config) *Adapter {
	return &Adapter{
		baseURL: fmt.Sprintf("https://%s/admin/api/%s", cfg.StoreURL, apiVersion),
		token:   cfg.AccessToken,
		client:  &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "shopify-admin",
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.ConsecutiveFailures > 5 ||
					(counts.Requests >= 10 && failureRatio >= 0.6)
			},
		}),
	}
}

// FindByNumber looks an order up by its store-facing number.
func (a *Adapter) FindByNumber(ctx context.Context, number string) (*domain.OrderContext, error) {
	params := url.Values{}
	params.Set("name", "#"+number)
	params.Set("status", "any")

	orders, err := a.listOrders(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, out.ErrOrderNotFound
	}
	return convertOrder(&orders[0]), nil
}

// FindByEmail returns the customer's most recent order.
func (a *Adapter) FindByEmail(ctx context.Context, email string) (*domain.OrderContext, error) {
	params := url.Values{}
	params.Set("email", email)
	params.Set("status", "any")
	params.Set("limit", "1")
	params.Set("order", "created_at desc")

	orders, err := a.listOrders(ctx, params)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, out.ErrOrderNotFound
	}
	return convertOrder(&orders[0]), nil
}

// UpdateShippingAddress changes the shipping address of an open order.
func (a *Adapter) UpdateShippingAddress(ctx context.Context, orderNumber string, addr *out.ShippingAddress) error {
	params := url.Values{}
	params.Set("name", "#"+orderNumber)
	params.Set("status", "open")

	orders, err := a.listOrders(ctx, params)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		return out.ErrOrderNotFound
	}

	payload := map[string]interface{}{
		"order": map[string]interface{}{
			"id":               orders[0].ID,
			"shipping_address": addr,
		},
	}
	path := fmt.Sprintf("/orders/%d.json", orders[0].ID)
	return a.do(ctx, "PUT", path, payload, nil)
}

func (a *Adapter) listOrders(ctx context.Context, params url.Values) ([]shopifyOrder, error) {
	var resp struct {
		Orders []shopifyOrder `json:"orders"`
	}
	if err := a.do(ctx, "GET", "/orders.json?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

func (a *Adapter) do(ctx context.Context, method, path string, body, result interface{}) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		var reader io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Shopify-Access-Token", a.token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := a.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil, out.ErrOrderNotFound
		}
		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("shopify API error: %d - %s", resp.StatusCode, string(data))
		}

		if result != nil {
			return nil, json.NewDecoder(resp.Body).Decode(result)
		}
		return nil, nil
	})
	return err
}

// =============================================================================
// Admin API types
// =============================================================================

type shopifyOrder struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	OrderNumber       int               `json:"order_number"`
	Email             string            `json:"email"`
	CreatedAt         string            `json:"created_at"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	TotalPrice        string            `json:"total_price"`
	Currency          string            `json:"currency"`
	LineItems         []shopifyLineItem `json:"line_items"`
	Fulfillments      []struct {
		TrackingNumbers []string `json:"tracking_numbers"`
		TrackingURLs    []string `json:"tracking_urls"`
		TrackingCompany string   `json:"tracking_company"`
	} `json:"fulfillments"`
}

type shopifyLineItem struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

func convertOrder(o *shopifyOrder) *domain.OrderContext {
	createdAt, _ := time.Parse(time.RFC3339, o.CreatedAt)

	order := &domain.OrderContext{
		OrderNumber:       fmt.Sprintf("%d", o.OrderNumber),
		OrderName:         o.Name,
		CustomerEmail:     o.Email,
		CreatedAt:         createdAt,
		FinancialStatus:   o.FinancialStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		TotalPrice:        o.TotalPrice,
		Currency:          o.Currency,
	}

	if !createdAt.IsZero() {
		order.ExpectedDeliveryMin = createdAt.AddDate(0, 0, deliveryWindowMinDays)
		order.ExpectedDeliveryMax = createdAt.AddDate(0, 0, deliveryWindowMaxDays)
	}

	for _, f := range o.Fulfillments {
		order.TrackingNumbers = append(order.TrackingNumbers, f.TrackingNumbers...)
		order.TrackingURLs = append(order.TrackingURLs, f.TrackingURLs...)
		if order.TrackingCompany == "" {
			order.TrackingCompany = f.TrackingCompany
		}
	}

	for _, item := range o.LineItems {
		order.LineItems = append(order.LineItems, domain.LineItem{
			Title:    item.Title,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	return order
}

var _ out.OrderStorePort = (*Adapter)(nil)
