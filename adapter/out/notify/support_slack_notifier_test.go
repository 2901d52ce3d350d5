package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"support_server/core/domain"
	"support_server/core/port/out"
)

func captureWebhook(t *testing.T) (*SlackNotifier, *slackPayload) {
	t.Helper()
	payload := &slackPayload{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, payload); err != nil {
			t.Errorf("payload did not parse: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return NewSlackNotifier(srv.URL), payload
}

func TestNotifyAlertPayload(t *testing.T) {
	notifier, payload := captureWebhook(t)

	err := notifier.NotifyAlert(context.Background(), &out.Alert{
		Kind:          out.AlertReview,
		CustomerEmail: "jamie@example.com",
		Subject:       "Where is my order?",
		Reason:        "order overdue",
		OrderNumber:   "10234",
		Priority:      domain.PriorityHigh,
	})
	if err != nil {
		t.Fatalf("NotifyAlert() error = %v", err)
	}

	if len(payload.Attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(payload.Attachments))
	}
	att := payload.Attachments[0]
	if att.Color != colorHigh {
		t.Errorf("color = %s, want %s", att.Color, colorHigh)
	}
	if !strings.Contains(att.Title, "Human review") {
		t.Errorf("title = %q, want review alert title", att.Title)
	}

	var gotOrder string
	for _, f := range att.Fields {
		if f.Title == "Order" {
			gotOrder = f.Value
		}
	}
	if gotOrder != "#10234" {
		t.Errorf("order field = %q, want %q", gotOrder, "#10234")
	}
}

func TestNotifyAlertActionTitle(t *testing.T) {
	notifier, payload := captureWebhook(t)

	err := notifier.NotifyAlert(context.Background(), &out.Alert{
		Kind:          out.AlertAction,
		CustomerEmail: "jamie@example.com",
		Subject:       "Please change my address",
		Reason:        "shipping address updated",
		Priority:      domain.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("NotifyAlert() error = %v", err)
	}

	att := payload.Attachments[0]
	if !strings.Contains(att.Title, "Action taken") {
		t.Errorf("title = %q, want action title", att.Title)
	}
	if att.Color != colorMedium {
		t.Errorf("color = %s, want %s", att.Color, colorMedium)
	}
	for _, f := range att.Fields {
		if f.Title == "Order" {
			t.Error("order field present without an order number")
		}
	}
}

func TestNotifyErrorPayload(t *testing.T) {
	notifier, payload := captureWebhook(t)

	err := notifier.NotifyError(context.Background(), "poll cycle", errors.New("boom"))
	if err != nil {
		t.Fatalf("NotifyError() error = %v", err)
	}

	att := payload.Attachments[0]
	if att.Color != colorHigh {
		t.Errorf("color = %s, want %s", att.Color, colorHigh)
	}
	if !strings.Contains(att.Text, "poll cycle") || !strings.Contains(att.Text, "boom") {
		t.Errorf("text = %q, want location and cause", att.Text)
	}
}

func TestNotifySummaryFields(t *testing.T) {
	notifier, payload := captureWebhook(t)

	err := notifier.NotifySummary(context.Background(), &domain.DailyStats{
		TotalProcessed: 12,
		ResponsesSent:  9,
		AutomationRate: 75,
	})
	if err != nil {
		t.Fatalf("NotifySummary() error = %v", err)
	}

	att := payload.Attachments[0]
	if len(att.Fields) != 6 {
		t.Fatalf("fields = %d, want 6", len(att.Fields))
	}
	var gotRate string
	for _, f := range att.Fields {
		if f.Title == "Automation rate" {
			gotRate = f.Value
		}
	}
	if gotRate != "75.0%" {
		t.Errorf("automation rate = %q, want %q", gotRate, "75.0%")
	}
}

func TestPostRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	notifier := NewSlackNotifier(srv.URL)
	err := notifier.NotifyError(context.Background(), "poll cycle", errors.New("boom"))
	if err == nil {
		t.Fatal("NotifyError() error = nil, want webhook failure")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %v, want status code in message", err)
	}
}
