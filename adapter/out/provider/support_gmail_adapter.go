package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"support_server/core/domain"
	"support_server/core/port/out"
)

// GmailAdapter implements out.MailboxPort on the Gmail API.
type GmailAdapter struct {
	service *gmail.Service
	mailbox string
}

// NewGmailAdapter creates the adapter from an authorized token source.
func NewGmailAdapter(ctx context.Context, ts oauth2.TokenSource) (*GmailAdapter, error) {
	service, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	profile, err := service.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get gmail profile: %w", err)
	}

	return &GmailAdapter{
		service: service,
		mailbox: profile.EmailAddress,
	}, nil
}

// ProviderType returns the provider name.
func (a *GmailAdapter) ProviderType() string {
	return "gmail"
}

// FetchUnread returns up to limit unread inbox messages.
func (a *GmailAdapter) FetchUnread(ctx context.Context, limit int) ([]*domain.InboundMessage, error) {
	resp, err := a.service.Users.Messages.List("me").
		LabelIds("INBOX", "UNREAD").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, gmailError("fetch unread failed", err)
	}

	messages := make([]*domain.InboundMessage, 0, len(resp.Messages))
	for _, ref := range resp.Messages {
		msg, err := a.service.Users.Messages.Get("me", ref.Id).
			Format("full").
			Context(ctx).
			Do()
		if err != nil {
			return nil, gmailError("fetch message failed", err)
		}
		messages = append(messages, parseGmailMessage(msg))
	}
	return messages, nil
}

// Reply sends a reply on the thread of the given message.
func (a *GmailAdapter) Reply(ctx context.Context, messageID, body string) error {
	orig, err := a.service.Users.Messages.Get("me", messageID).
		Format("metadata").
		MetadataHeaders("From", "Subject", "Message-ID").
		Context(ctx).
		Do()
	if err != nil {
		return gmailError("load original message failed", err)
	}

	var to, subject, origMsgID string
	if orig.Payload != nil {
		for _, h := range orig.Payload.Headers {
			switch h.Name {
			case "From":
				to = h.Value
			case "Subject":
				subject = h.Value
			case "Message-ID":
				origMsgID = h.Value
			}
		}
	}
	if !strings.HasPrefix(strings.ToUpper(subject), "RE:") {
		subject = "RE: " + subject
	}

	raw := buildRawReply(to, subject, origMsgID, body)
	msg := &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(raw)),
		ThreadId: orig.ThreadId,
	}

	if _, err := a.service.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return gmailError("reply failed", err)
	}
	return nil
}

// MarkRead removes the UNREAD label.
func (a *GmailAdapter) MarkRead(ctx context.Context, messageID string) error {
	_, err := a.service.Users.Messages.Modify("me", messageID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return gmailError("mark read failed", err)
	}
	return nil
}

// SendMail sends a standalone HTML mail.
func (a *GmailAdapter) SendMail(ctx context.Context, to, subject, htmlBody string) error {
	var sb strings.Builder
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(htmlBody)

	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(sb.String())),
	}
	if _, err := a.service.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return gmailError("send mail failed", err)
	}
	return nil
}

// =============================================================================
// Helpers
// =============================================================================

func buildRawReply(to, subject, origMsgID, body string) string {
	var sb strings.Builder
	sb.WriteString("To: " + to + "\r\n")
	sb.WriteString("Subject: " + subject + "\r\n")
	if origMsgID != "" {
		sb.WriteString("In-Reply-To: " + origMsgID + "\r\n")
		sb.WriteString("References: " + origMsgID + "\r\n")
	}
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	return sb.String()
}

func parseGmailMessage(msg *gmail.Message) *domain.InboundMessage {
	m := &domain.InboundMessage{
		ID:         msg.Id,
		ReceivedAt: time.Unix(msg.InternalDate/1000, 0),
	}

	if msg.Payload != nil {
		for _, header := range msg.Payload.Headers {
			switch header.Name {
			case "From":
				if addr, err := mail.ParseAddress(header.Value); err == nil {
					m.Sender = addr.Address
					m.SenderName = addr.Name
				} else {
					m.Sender = header.Value
				}
			case "Subject":
				m.Subject = header.Value
			}
		}
		m.Body = extractPlainText(msg.Payload)
	}
	if m.Body == "" {
		m.Body = msg.Snippet
	}
	return m
}

func extractPlainText(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}
	if payload.MimeType == "text/plain" && payload.Body != nil {
		data, _ := base64.URLEncoding.DecodeString(payload.Body.Data)
		return string(data)
	}
	for _, part := range payload.Parts {
		if text := extractPlainText(part); text != "" {
			return text
		}
	}
	return ""
}

func gmailError(message string, err error) *out.MailboxError {
	code := out.MailboxErrNetwork
	retry := true
	if ge, ok := err.(*googleapi.Error); ok {
		switch {
		case ge.Code == 401:
			code, retry = out.MailboxErrAuth, false
		case ge.Code == 404:
			code, retry = out.MailboxErrNotFound, false
		case ge.Code == 429:
			code = out.MailboxErrRateLimit
		case ge.Code >= 500:
			code = out.MailboxErrServer
		default:
			retry = false
		}
	}
	return out.NewMailboxError("gmail", code, message, err, retry)
}

var _ out.MailboxPort = (*GmailAdapter)(nil)
