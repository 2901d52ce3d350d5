// Package provider implements the mailbox port for Outlook and Gmail.
package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"

	"support_server/core/domain"
	"support_server/core/port/out"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// OutlookConfig carries the app-only Graph credentials for the support inbox.
type OutlookConfig struct {
	ClientID     string
	ClientSecret string
	TenantID     string

	// Mailbox is the address of the shared support inbox.
	Mailbox string
}

// OutlookAdapter implements out.MailboxPort on the Microsoft Graph API using
// the client credentials flow. All calls go through a circuit breaker so a
// Graph outage does not hammer the API on every poll.
type OutlookAdapter struct {
	client  *http.Client
	mailbox string
	breaker *gobreaker.CircuitBreaker
}

// NewOutlookAdapter creates the adapter. The token source refreshes itself.
func NewOutlookAdapter(ctx context.Context, cfg OutlookConfig) *OutlookAdapter {
	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     microsoft.AzureADEndpoint(cfg.TenantID).TokenURL,
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}

	return &OutlookAdapter{
		client:  cc.Client(ctx),
		mailbox: cfg.Mailbox,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "outlook-graph",
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

// ProviderType returns the provider name.
func (a *OutlookAdapter) ProviderType() string {
	return "outlook"
}

// FetchUnread returns up to limit unread messages from the inbox.
func (a *OutlookAdapter) FetchUnread(ctx context.Context, limit int) ([]*domain.InboundMessage, error) {
	params := url.Values{}
	params.Set("$filter", "isRead eq false")
	params.Set("$top", fmt.Sprintf("%d", limit))
	params.Set("$orderby", "receivedDateTime desc")
	params.Set("$select", "id,subject,body,bodyPreview,from,receivedDateTime")

	var resp struct {
		Value []graphMessage `json:"value"`
	}
	path := fmt.Sprintf("/users/%s/mailFolders/inbox/messages?%s", a.mailbox, params.Encode())
	if err := a.get(ctx, path, &resp); err != nil {
		return nil, out.NewMailboxError("outlook", mailboxCode(err), "fetch unread failed", err, retryable(err))
	}

	messages := make([]*domain.InboundMessage, 0, len(resp.Value))
	for _, m := range resp.Value {
		messages = append(messages, convertGraphMessage(&m))
	}
	return messages, nil
}

// Reply sends a reply on the message thread. Graph keeps the subject and
// recipients of the original message.
func (a *OutlookAdapter) Reply(ctx context.Context, messageID, body string) error {
	payload := map[string]string{"comment": body}
	path := fmt.Sprintf("/users/%s/messages/%s/reply", a.mailbox, messageID)
	if err := a.post(ctx, path, payload, nil); err != nil {
		return out.NewMailboxError("outlook", mailboxCode(err), "reply failed", err, retryable(err))
	}
	return nil
}

// MarkRead marks a message as read so the next poll skips it.
func (a *OutlookAdapter) MarkRead(ctx context.Context, messageID string) error {
	path := fmt.Sprintf("/users/%s/messages/%s", a.mailbox, messageID)
	if err := a.patch(ctx, path, map[string]bool{"isRead": true}); err != nil {
		return out.NewMailboxError("outlook", mailboxCode(err), "mark read failed", err, retryable(err))
	}
	return nil
}

// SendMail sends a standalone HTML mail from the support inbox.
func (a *OutlookAdapter) SendMail(ctx context.Context, to, subject, htmlBody string) error {
	payload := struct {
		Message         graphMessage `json:"message"`
		SaveToSentItems bool         `json:"saveToSentItems"`
	}{
		Message: graphMessage{
			Subject: subject,
			Body:    graphBody{ContentType: "html", Content: htmlBody},
			ToRecipients: []graphRecipient{
				{EmailAddress: graphEmailAddress{Address: to}},
			},
		},
		SaveToSentItems: true,
	}

	path := fmt.Sprintf("/users/%s/sendMail", a.mailbox)
	if err := a.post(ctx, path, payload, nil); err != nil {
		return out.NewMailboxError("outlook", mailboxCode(err), "send mail failed", err, retryable(err))
	}
	return nil
}

// =============================================================================
// HTTP helpers
// =============================================================================

func (a *OutlookAdapter) get(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", graphBaseURL+path, nil)
	if err != nil {
		return err
	}
	return a.doRequest(req, result)
}

func (a *OutlookAdapter) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", graphBaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.doRequest(req, result)
}

func (a *OutlookAdapter) patch(ctx context.Context, path string, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "PATCH", graphBaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.doRequest(req, nil)
}

func (a *OutlookAdapter) doRequest(req *http.Request, result interface{}) error {
	_, err := a.breaker.Execute(func() (interface{}, error) {
		resp, err := a.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			return nil, &graphError{Status: resp.StatusCode, Body: string(body)}
		}

		if result != nil && resp.StatusCode != http.StatusNoContent {
			return nil, json.NewDecoder(resp.Body).Decode(result)
		}
		return nil, nil
	})
	return err
}

// graphError preserves the HTTP status for error code mapping.
type graphError struct {
	Status int
	Body   string
}

func (e *graphError) Error() string {
	return fmt.Sprintf("graph API error: %d - %s", e.Status, e.Body)
}

func mailboxCode(err error) out.MailboxErrorCode {
	var ge *graphError
	if !errors.As(err, &ge) {
		return out.MailboxErrNetwork
	}
	switch {
	case ge.Status == http.StatusUnauthorized:
		return out.MailboxErrAuth
	case ge.Status == http.StatusNotFound:
		return out.MailboxErrNotFound
	case ge.Status == http.StatusTooManyRequests:
		return out.MailboxErrRateLimit
	case ge.Status >= 500:
		return out.MailboxErrServer
	default:
		return out.MailboxErrNetwork
	}
}

func retryable(err error) bool {
	switch mailboxCode(err) {
	case out.MailboxErrRateLimit, out.MailboxErrServer, out.MailboxErrNetwork:
		return true
	}
	return false
}

// =============================================================================
// Graph API types
// =============================================================================

type graphMessage struct {
	ID               string           `json:"id,omitempty"`
	Subject          string           `json:"subject"`
	BodyPreview      string           `json:"bodyPreview,omitempty"`
	Body             graphBody        `json:"body"`
	From             graphRecipient   `json:"from,omitempty"`
	ToRecipients     []graphRecipient `json:"toRecipients,omitempty"`
	ReceivedDateTime string           `json:"receivedDateTime,omitempty"`
}

type graphBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphRecipient struct {
	EmailAddress graphEmailAddress `json:"emailAddress"`
}

type graphEmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

func convertGraphMessage(m *graphMessage) *domain.InboundMessage {
	receivedAt, _ := time.Parse(time.RFC3339, m.ReceivedDateTime)
	body := m.Body.Content
	if m.Body.ContentType == "html" && m.BodyPreview != "" {
		// Keyword matching and prompts want text, not markup.
		body = m.BodyPreview
	}
	return &domain.InboundMessage{
		ID:         m.ID,
		Sender:     m.From.EmailAddress.Address,
		SenderName: m.From.EmailAddress.Name,
		Subject:    m.Subject,
		Body:       body,
		ReceivedAt: receivedAt,
	}
}

var _ out.MailboxPort = (*OutlookAdapter)(nil)
