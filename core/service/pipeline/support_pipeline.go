// Package pipeline orchestrates the intake flow for inbound support mail.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"support_server/core/domain"
	"support_server/core/port/in"
	"support_server/core/port/out"
	"support_server/pkg/logger"

	"github.com/google/uuid"
)

// Consumer-side views of the pipeline stages.
type (
	// SenderFilter decides whether a sender is a real customer.
	SenderFilter interface {
		Evaluate(address, name string) domain.SenderVerdict
	}

	// IntentClassifier assigns an intent to a message.
	IntentClassifier interface {
		Classify(subject, body string) domain.Classification
	}

	// OrderResolver attaches order context to a message.
	OrderResolver interface {
		Resolve(ctx context.Context, msg *domain.InboundMessage) *domain.OrderContext
	}

	// PolicyDecider produces the disposition for a classified message.
	PolicyDecider interface {
		Decide(ctx context.Context, msg *domain.InboundMessage, cls domain.Classification, order *domain.OrderContext) *domain.Disposition
	}
)

// Service runs the per-message state machine:
// dedup gate, sender filter, classify, resolve order, decide, side effects,
// single ledger write. Batches are strictly sequential.
type Service struct {
	mailbox    out.MailboxPort
	filter     SenderFilter
	classifier IntentClassifier
	resolver   OrderResolver
	engine     PolicyDecider
	ledger     out.LedgerRepository
	reviews    out.ReviewQueueRepository
	archive    out.ArchiveRepository
	seen       out.SeenCache
	notifier   out.NotifierPort
	fetchLimit int
	log        *logger.Logger
	now        func() time.Time
}

// Options carries the optional collaborators.
type Options struct {
	Archive    out.ArchiveRepository
	Seen       out.SeenCache
	Notifier   out.NotifierPort
	FetchLimit int
}

// NewService wires the pipeline. Archive, seen cache and notifier may be nil.
func NewService(
	mailbox out.MailboxPort,
	filter SenderFilter,
	classifier IntentClassifier,
	resolver OrderResolver,
	engine PolicyDecider,
	ledger out.LedgerRepository,
	reviews out.ReviewQueueRepository,
	opts Options,
) *Service {
	limit := opts.FetchLimit
	if limit <= 0 {
		limit = 20
	}
	return &Service{
		mailbox:    mailbox,
		filter:     filter,
		classifier: classifier,
		resolver:   resolver,
		engine:     engine,
		ledger:     ledger,
		reviews:    reviews,
		archive:    opts.Archive,
		seen:       opts.Seen,
		notifier:   opts.Notifier,
		fetchLimit: limit,
		log:        logger.Default().WithField("component", "pipeline"),
		now:        time.Now,
	}
}

// RunOnce fetches unread mail and processes the batch.
func (s *Service) RunOnce(ctx context.Context) (*in.BatchResult, error) {
	msgs, err := s.mailbox.FetchUnread(ctx, s.fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch unread: %w", err)
	}

	result := &in.BatchResult{Fetched: len(msgs)}
	entries := s.ProcessBatch(ctx, msgs)
	for _, entry := range entries {
		switch {
		case entry == nil:
			result.Skipped++
		case entry.Disposition == domain.DispositionError:
			result.Errors++
			result.Processed++
		default:
			result.Processed++
		}
	}
	return result, nil
}

// ProcessBatch processes messages in order. One slot per input message; a nil
// slot means the message was skipped (duplicate) or could not be recorded.
// A failing message never aborts the batch; cancellation is honored only at
// message boundaries.
func (s *Service) ProcessBatch(ctx context.Context, msgs []*domain.InboundMessage) []*domain.LedgerEntry {
	entries := make([]*domain.LedgerEntry, 0, len(msgs))
	for _, msg := range msgs {
		if ctx.Err() != nil {
			s.log.Warn("Batch cancelled with %d of %d messages processed", len(entries), len(msgs))
			break
		}
		entries = append(entries, s.processOne(ctx, msg))
	}
	return entries
}

func (s *Service) processOne(ctx context.Context, msg *domain.InboundMessage) *domain.LedgerEntry {
	log := s.log.WithMessageID(msg.ID)
	start := s.now()

	// Dedup gate: seen cache first, ledger second. The cache may forget;
	// the ledger is authoritative.
	if s.seen != nil {
		fresh, err := s.seen.FirstSeen(ctx, msg.ID)
		if err != nil {
			log.WithError(err).Warn("Seen cache unavailable, falling through to ledger")
		} else if !fresh {
			log.Debug("Skipping message already seen this window")
			existing, _ := s.ledger.Get(ctx, msg.ID)
			return existing
		}
	}

	exists, err := s.ledger.Exists(ctx, msg.ID)
	if err != nil {
		// The atomic insert below still guarantees at-most-once.
		log.WithError(err).Warn("Ledger existence check failed, relying on atomic insert")
	} else if exists {
		log.Debug("Skipping message with existing ledger entry")
		existing, _ := s.ledger.Get(ctx, msg.ID)
		return existing
	}

	entry := s.dispose(ctx, msg, log)
	entry.ProcessedAt = s.now()

	if err := s.ledger.Record(ctx, entry); err != nil {
		if errors.Is(err, out.ErrAlreadyProcessed) {
			// A racing writer won after our existence check.
			log.WithError(err).Error("Duplicate ledger write detected for message %s", msg.ID)
			existing, _ := s.ledger.Get(ctx, msg.ID)
			return existing
		}
		log.WithError(err).Error("Ledger write failed, message will be retried")
		s.forgetSeen(ctx, msg.ID)
		return nil
	}

	log.WithDuration(s.now().Sub(start)).Info("Message disposed as %s", entry.Disposition)
	return entry
}

// dispose runs filter, classification, order resolution, policy and side
// effects, and returns the ledger entry to record.
func (s *Service) dispose(ctx context.Context, msg *domain.InboundMessage, log *logger.Logger) *domain.LedgerEntry {
	entry := &domain.LedgerEntry{
		MessageID:  msg.ID,
		Sender:     msg.Sender,
		SenderName: msg.SenderName,
		Subject:    msg.Subject,
	}

	verdict := s.filter.Evaluate(msg.Sender, msg.SenderName)
	if verdict.Blocked {
		log.Info("Sender blocked: %s", verdict.Reason)
		entry.Disposition = domain.DispositionBlockedSender
		entry.Reason = verdict.Reason
		s.markRead(ctx, msg, log)
		return entry
	}

	cls := s.classifier.Classify(msg.Subject, msg.Body)
	entry.Intent = cls.Intent

	var order *domain.OrderContext
	if !cls.IsSpam {
		order = s.resolver.Resolve(ctx, msg)
		if order != nil {
			entry.OrderNumber = order.OrderNumber
		}
	}

	disposition := s.engine.Decide(ctx, msg, cls, order)

	if disposition.ResponseSent && disposition.Reply != "" {
		if err := s.mailbox.Reply(ctx, msg.ID, disposition.Reply); err != nil {
			log.WithError(err).Error("Reply send failed")
			disposition = &domain.Disposition{
				Kind:         domain.DispositionError,
				Reason:       fmt.Sprintf("reply send failed: %v", err),
				FlagForHuman: true,
				Priority:     domain.PriorityMedium,
			}
		}
	}

	entry.Disposition = disposition.Kind
	entry.Reason = disposition.Reason
	entry.ResponseSent = disposition.ResponseSent && disposition.Kind != domain.DispositionError
	entry.FlaggedForReview = disposition.FlagForHuman
	entry.Priority = disposition.Priority

	s.markRead(ctx, msg, log)

	if disposition.Kind == domain.DispositionEscalated {
		s.createReview(ctx, msg, entry, log)
	}
	if disposition.FlagForHuman || disposition.Kind == domain.DispositionActionRequired {
		s.alert(ctx, msg, entry, disposition, log)
	}

	s.archiveMessage(ctx, msg, disposition, log)

	return entry
}

func (s *Service) markRead(ctx context.Context, msg *domain.InboundMessage, log *logger.Logger) {
	if err := s.mailbox.MarkRead(ctx, msg.ID); err != nil {
		log.WithError(err).Warn("Mark read failed")
	}
}

func (s *Service) createReview(ctx context.Context, msg *domain.InboundMessage, entry *domain.LedgerEntry, log *logger.Logger) {
	item := &domain.ReviewItem{
		ID:            uuid.New(),
		MessageID:     msg.ID,
		CustomerEmail: msg.Sender,
		OrderNumber:   entry.OrderNumber,
		Reason:        entry.Reason,
		Priority:      entry.Priority,
		Status:        domain.ReviewPending,
		CreatedAt:     s.now(),
	}
	if err := s.reviews.Create(ctx, item); err != nil {
		log.WithError(err).Error("Review queue write failed, escalation only visible in ledger")
	}
}

func (s *Service) alert(ctx context.Context, msg *domain.InboundMessage, entry *domain.LedgerEntry, d *domain.Disposition, log *logger.Logger) {
	if s.notifier == nil {
		return
	}
	kind := out.AlertReview
	if d.Kind == domain.DispositionActionRequired {
		kind = out.AlertAction
	}
	alert := &out.Alert{
		Kind:          kind,
		CustomerEmail: msg.Sender,
		Subject:       msg.Subject,
		Reason:        entry.Reason,
		OrderNumber:   entry.OrderNumber,
		Priority:      entry.Priority,
	}
	if err := s.notifier.NotifyAlert(ctx, alert); err != nil {
		log.WithError(err).Warn("Alert notification failed")
	}
}

func (s *Service) archiveMessage(ctx context.Context, msg *domain.InboundMessage, d *domain.Disposition, log *logger.Logger) {
	if s.archive == nil {
		return
	}
	err := s.archive.Save(ctx, &out.MessageArchive{
		MessageID:   msg.ID,
		Sender:      msg.Sender,
		Subject:     msg.Subject,
		Body:        msg.Body,
		Reply:       d.Reply,
		Disposition: string(d.Kind),
		ArchivedAt:  s.now(),
	})
	if err != nil {
		log.WithError(err).Warn("Archive write failed")
	}
}

func (s *Service) forgetSeen(ctx context.Context, messageID string) {
	if s.seen == nil {
		return
	}
	if err := s.seen.Forget(ctx, messageID); err != nil {
		s.log.WithMessageID(messageID).WithError(err).Warn("Seen cache forget failed")
	}
}

var _ in.PipelineService = (*Service)(nil)
