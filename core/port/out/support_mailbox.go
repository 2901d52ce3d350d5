// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"

	"support_server/core/domain"
)

// =============================================================================
// Mailbox Port (Outlook, Gmail)
// =============================================================================

// MailboxPort defines the outbound port for the support mailbox.
type MailboxPort interface {
	// ProviderType returns "outlook" or "gmail".
	ProviderType() string

	// FetchUnread returns up to limit unread messages from the inbox.
	FetchUnread(ctx context.Context, limit int) ([]*domain.InboundMessage, error)

	// Reply sends a reply on the thread of the given message.
	Reply(ctx context.Context, messageID, body string) error

	// MarkRead marks a message as read so it is not fetched again.
	MarkRead(ctx context.Context, messageID string) error

	// SendMail sends a standalone mail (used for the daily summary report).
	SendMail(ctx context.Context, to, subject, htmlBody string) error
}

// =============================================================================
// Mailbox Error
// =============================================================================

// MailboxErrorCode represents error codes.
type MailboxErrorCode string

const (
	MailboxErrAuth         MailboxErrorCode = "auth_error"
	MailboxErrTokenExpired MailboxErrorCode = "token_expired"
	MailboxErrRateLimit    MailboxErrorCode = "rate_limit"
	MailboxErrNotFound     MailboxErrorCode = "not_found"
	MailboxErrNetwork      MailboxErrorCode = "network_error"
	MailboxErrServer       MailboxErrorCode = "server_error"
)

// MailboxError represents a mailbox provider error.
type MailboxError struct {
	Provider  string
	Code      MailboxErrorCode
	Message   string
	Err       error
	Retryable bool
}

func (e *MailboxError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *MailboxError) Unwrap() error {
	return e.Err
}

// NewMailboxError creates a new mailbox error.
func NewMailboxError(provider string, code MailboxErrorCode, message string, err error, retryable bool) *MailboxError {
	return &MailboxError{
		Provider:  provider,
		Code:      code,
		Message:   message,
		Err:       err,
		Retryable: retryable,
	}
}
