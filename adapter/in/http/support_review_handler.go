// Package http contains the Fiber handlers for the review dashboard API.
package http

import (
	"errors"

	"support_server/core/port/in"
	"support_server/core/port/out"
	"support_server/pkg/apperr"
	"support_server/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ReviewHandler handles review dashboard requests.
type ReviewHandler struct {
	reviewService  in.ReviewService
	summaryService in.SummaryService
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(reviewService in.ReviewService, summaryService in.SummaryService) *ReviewHandler {
	return &ReviewHandler{
		reviewService:  reviewService,
		summaryService: summaryService,
	}
}

// Register registers review routes.
func (h *ReviewHandler) Register(router fiber.Router) {
	reviews := router.Group("/reviews")
	reviews.Get("/", h.ListPending)
	reviews.Get("/stats", h.Stats)
	reviews.Get("/:id", h.Detail)
	reviews.Post("/:id/resolve", h.Resolve)

	router.Get("/stats/daily", h.DailyStats)
	router.Post("/orders/:number/address", h.UpdateAddress)
}

// ListPending returns open review items, most urgent first.
func (h *ReviewHandler) ListPending(c *fiber.Ctx) error {
	items, err := h.reviewService.ListPending(c.Context())
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, items, &response.Meta{Total: len(items)})
}

// Detail returns a review item with its ledger entry.
func (h *ReviewHandler) Detail(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.BadRequest("invalid review id")
	}

	detail, err := h.reviewService.Detail(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, detail)
}

// ResolveRequest is the resolve payload. ResolvedBy falls back to the
// authenticated reviewer.
type ResolveRequest struct {
	ResolvedBy string `json:"resolved_by"`
}

// Resolve closes a pending review item.
func (h *ReviewHandler) Resolve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return apperr.BadRequest("invalid review id")
	}

	var req ResolveRequest
	if err := c.BodyParser(&req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return apperr.BadRequest("invalid request body")
	}

	resolvedBy := req.ResolvedBy
	if resolvedBy == "" {
		resolvedBy, _ = c.Locals("reviewer").(string)
	}
	if resolvedBy == "" {
		return apperr.BadRequest("resolved_by is required")
	}

	if err := h.reviewService.Resolve(c.Context(), id, resolvedBy); err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"resolved": true})
}

// UpdateAddress applies a customer's shipping address change to an open
// order, acting on an action-required alert.
func (h *ReviewHandler) UpdateAddress(c *fiber.Ctx) error {
	number := c.Params("number")
	if number == "" {
		return apperr.BadRequest("order number is required")
	}

	var addr out.ShippingAddress
	if err := c.BodyParser(&addr); err != nil {
		return apperr.BadRequest("invalid request body")
	}

	if err := h.reviewService.UpdateAddress(c.Context(), number, &addr); err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"updated": true})
}

// Stats returns all-time queue and automation numbers.
func (h *ReviewHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.reviewService.Stats(c.Context())
	if err != nil {
		return err
	}
	return response.OK(c, stats)
}

// DailyStats returns the trailing 24 hour window.
func (h *ReviewHandler) DailyStats(c *fiber.Ctx) error {
	stats, err := h.summaryService.BuildStats(c.Context())
	if err != nil {
		return err
	}
	return response.OK(c, stats)
}
