// Package notify implements the notifier port on Slack incoming webhooks.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"support_server/core/domain"
	"support_server/core/port/out"
)

// Attachment colors by priority.
const (
	colorHigh   = "#FF0000"
	colorMedium = "#FFD700"
	colorLow    = "#36A64F"
)

// SlackNotifier posts alerts and summaries to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates the notifier.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text        string            `json:"text,omitempty"`
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color  string       `json:"color,omitempty"`
	Title  string       `json:"title,omitempty"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NotifyAlert posts an attention alert for an escalated or actioned message.
func (n *SlackNotifier) NotifyAlert(ctx context.Context, alert *out.Alert) error {
	title := ":rotating_light: Human review needed"
	if alert.Kind == out.AlertAction {
		title = ":wrench: Action taken on an order"
	}

	fields := []slackField{
		{Title: "Customer", Value: alert.CustomerEmail, Short: true},
		{Title: "Priority", Value: string(alert.Priority), Short: true},
		{Title: "Subject", Value: alert.Subject},
		{Title: "Reason", Value: alert.Reason},
	}
	if alert.OrderNumber != "" {
		fields = append(fields, slackField{Title: "Order", Value: "#" + alert.OrderNumber, Short: true})
	}

	return n.post(ctx, &slackPayload{
		Attachments: []slackAttachment{{
			Color:  priorityColor(alert.Priority),
			Title:  title,
			Fields: fields,
		}},
	})
}

// NotifyError posts a pipeline failure.
func (n *SlackNotifier) NotifyError(ctx context.Context, where string, err error) error {
	return n.post(ctx, &slackPayload{
		Attachments: []slackAttachment{{
			Color: colorHigh,
			Title: ":x: Support bot error",
			Text:  fmt.Sprintf("*%s*: %v", where, err),
		}},
	})
}

// NotifySummary posts the daily activity report.
func (n *SlackNotifier) NotifySummary(ctx context.Context, stats *domain.DailyStats) error {
	return n.post(ctx, &slackPayload{
		Attachments: []slackAttachment{{
			Color: colorLow,
			Title: ":bar_chart: Daily support summary",
			Fields: []slackField{
				{Title: "Processed", Value: fmt.Sprintf("%d", stats.TotalProcessed), Short: true},
				{Title: "Responses sent", Value: fmt.Sprintf("%d", stats.ResponsesSent), Short: true},
				{Title: "Spam", Value: fmt.Sprintf("%d", stats.SpamDetected), Short: true},
				{Title: "Flagged", Value: fmt.Sprintf("%d", stats.FlaggedForReview), Short: true},
				{Title: "Pending reviews", Value: fmt.Sprintf("%d", stats.PendingReviews), Short: true},
				{Title: "Automation rate", Value: fmt.Sprintf("%.1f%%", stats.AutomationRate), Short: true},
			},
		}},
	})
}

func (n *SlackNotifier) post(ctx context.Context, payload *slackPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("slack webhook: %d - %s", resp.StatusCode, string(body))
	}
	return nil
}

func priorityColor(p domain.ReviewPriority) string {
	switch p {
	case domain.PriorityHigh:
		return colorHigh
	case domain.PriorityLow:
		return colorLow
	default:
		return colorMedium
	}
}

var _ out.NotifierPort = (*SlackNotifier)(nil)
