package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewStatus tracks the lifecycle of a review queue item.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewResolved ReviewStatus = "resolved"
)

// ReviewItem is an escalated message waiting for a human.
type ReviewItem struct {
	ID            uuid.UUID      `json:"id"`
	MessageID     string         `json:"message_id"`
	CustomerEmail string         `json:"customer_email"`
	OrderNumber   string         `json:"order_number,omitempty"`
	Reason        string         `json:"reason"`
	Priority      ReviewPriority `json:"priority"`
	Status        ReviewStatus   `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	ResolvedAt    *time.Time     `json:"resolved_at,omitempty"`
	ResolvedBy    string         `json:"resolved_by,omitempty"`
}

// ReviewDetail joins a review item with its ledger entry.
type ReviewDetail struct {
	Review *ReviewItem  `json:"review"`
	Ledger *LedgerEntry `json:"ledger,omitempty"`
}
