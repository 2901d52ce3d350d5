// Package domain contains the core business entities.
package domain

import (
	"strings"
	"time"
)

// InboundMessage is a support mail pulled from the mailbox.
type InboundMessage struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	SenderName string    `json:"sender_name"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// Text returns the lowercased subject and body used for keyword matching.
func (m *InboundMessage) Text() string {
	return strings.ToLower(m.Subject + " " + m.Body)
}

// SenderDomain returns the part of the sender address after '@'.
func (m *InboundMessage) SenderDomain() string {
	at := strings.LastIndex(m.Sender, "@")
	if at < 0 {
		return ""
	}
	return strings.ToLower(m.Sender[at+1:])
}
