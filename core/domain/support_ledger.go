package domain

import "time"

// LedgerEntry is the append-only record of one processed message.
// Exactly one entry exists per message ID.
type LedgerEntry struct {
	MessageID        string          `json:"message_id"`
	Sender           string          `json:"sender"`
	SenderName       string          `json:"sender_name,omitempty"`
	Subject          string          `json:"subject"`
	Intent           Intent          `json:"intent,omitempty"`
	Disposition      DispositionKind `json:"disposition"`
	Reason           string          `json:"reason,omitempty"`
	ResponseSent     bool            `json:"response_sent"`
	FlaggedForReview bool            `json:"flagged_for_review"`
	OrderNumber      string          `json:"order_number,omitempty"`
	Priority         ReviewPriority  `json:"priority,omitempty"`
	ProcessedAt      time.Time       `json:"processed_at"`
}
