package out

import (
	"context"

	"support_server/core/domain"
)

// AlertKind distinguishes notifier alerts.
type AlertKind string

const (
	AlertReview AlertKind = "review"
	AlertAction AlertKind = "action"
)

// Alert is a team-facing notification about a message that needs attention.
type Alert struct {
	Kind          AlertKind             `json:"kind"`
	CustomerEmail string                `json:"customer_email"`
	Subject       string                `json:"subject"`
	Reason        string                `json:"reason"`
	OrderNumber   string                `json:"order_number,omitempty"`
	Priority      domain.ReviewPriority `json:"priority"`
}

// NotifierPort defines the outbound port for team notifications.
// Failures are never fatal to the pipeline; callers log and continue.
type NotifierPort interface {
	NotifyAlert(ctx context.Context, alert *Alert) error
	NotifyError(ctx context.Context, where string, err error) error
	NotifySummary(ctx context.Context, stats *domain.DailyStats) error
}
