// Package in defines inbound ports (driving ports) for the application.
package in

import (
	"context"

	"support_server/core/domain"
)

// BatchResult summarizes one pass over the mailbox.
type BatchResult struct {
	Fetched   int `json:"fetched"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

// PipelineService drives the intake pipeline.
type PipelineService interface {
	// RunOnce fetches unread mail and processes the batch sequentially.
	RunOnce(ctx context.Context) (*BatchResult, error)

	// ProcessBatch processes already-fetched messages in order.
	ProcessBatch(ctx context.Context, msgs []*domain.InboundMessage) []*domain.LedgerEntry
}
