package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"support_server/core/domain"
	"support_server/core/port/out"
	"support_server/core/service/classification"
	"support_server/core/service/senderfilter"

	"github.com/google/uuid"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeMailbox struct {
	unread    []*domain.InboundMessage
	replies   map[string]string
	readIDs   map[string]bool
	replyErr  error
	fetchErr  error
	markErr   error
	sentMails int
}

func newFakeMailbox(msgs ...*domain.InboundMessage) *fakeMailbox {
	return &fakeMailbox{
		unread:  msgs,
		replies: make(map[string]string),
		readIDs: make(map[string]bool),
	}
}

func (f *fakeMailbox) ProviderType() string { return "fake" }

func (f *fakeMailbox) FetchUnread(_ context.Context, limit int) ([]*domain.InboundMessage, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if len(f.unread) > limit {
		return f.unread[:limit], nil
	}
	return f.unread, nil
}

func (f *fakeMailbox) Reply(_ context.Context, messageID, body string) error {
	if f.replyErr != nil {
		return f.replyErr
	}
	f.replies[messageID] = body
	return nil
}

func (f *fakeMailbox) MarkRead(_ context.Context, messageID string) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.readIDs[messageID] = true
	return nil
}

func (f *fakeMailbox) SendMail(_ context.Context, _, _, _ string) error {
	f.sentMails++
	return nil
}

type fakeLedger struct {
	mu      sync.Mutex
	entries map[string]*domain.LedgerEntry
	recErr  error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{entries: make(map[string]*domain.LedgerEntry)}
}

func (f *fakeLedger) Exists(_ context.Context, messageID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[messageID]
	return ok, nil
}

func (f *fakeLedger) Get(_ context.Context, messageID string) (*domain.LedgerEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.entries[messageID]; ok {
		return e, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeLedger) Record(_ context.Context, entry *domain.LedgerEntry) error {
	if f.recErr != nil {
		return f.recErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[entry.MessageID]; ok {
		return out.ErrAlreadyProcessed
	}
	f.entries[entry.MessageID] = entry
	return nil
}

func (f *fakeLedger) CountsSince(_ context.Context, _ time.Time) (*out.LedgerCounts, error) {
	return &out.LedgerCounts{}, nil
}

func (f *fakeLedger) Totals(_ context.Context) (*out.LedgerCounts, error) {
	return &out.LedgerCounts{}, nil
}

type fakeReviews struct {
	created []*domain.ReviewItem
	err     error
}

func (f *fakeReviews) Create(_ context.Context, item *domain.ReviewItem) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, item)
	return nil
}

func (f *fakeReviews) GetByID(_ context.Context, _ uuid.UUID) (*domain.ReviewItem, error) {
	return nil, errors.New("not found")
}

func (f *fakeReviews) ListPending(_ context.Context) ([]*domain.ReviewItem, error) {
	return f.created, nil
}

func (f *fakeReviews) Resolve(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (f *fakeReviews) CountByStatus(_ context.Context) (int, int, error) {
	return len(f.created), 0, nil
}

type fakeNotifier struct {
	alerts []*out.Alert
	err    error
}

func (f *fakeNotifier) NotifyAlert(_ context.Context, alert *out.Alert) error {
	if f.err != nil {
		return f.err
	}
	f.alerts = append(f.alerts, alert)
	return nil
}

func (f *fakeNotifier) NotifyError(_ context.Context, _ string, _ error) error { return nil }
func (f *fakeNotifier) NotifySummary(_ context.Context, _ *domain.DailyStats) error {
	return nil
}

type fakeSeen struct {
	seen      map[string]bool
	forgotten []string
}

func newFakeSeen() *fakeSeen { return &fakeSeen{seen: make(map[string]bool)} }

func (f *fakeSeen) FirstSeen(_ context.Context, id string) (bool, error) {
	if f.seen[id] {
		return false, nil
	}
	f.seen[id] = true
	return true, nil
}

func (f *fakeSeen) Forget(_ context.Context, id string) error {
	delete(f.seen, id)
	f.forgotten = append(f.forgotten, id)
	return nil
}

type staticResolver struct {
	order *domain.OrderContext
}

func (r *staticResolver) Resolve(_ context.Context, _ *domain.InboundMessage) *domain.OrderContext {
	return r.order
}

type staticDecider struct {
	disposition *domain.Disposition
	calls       int
}

func (d *staticDecider) Decide(_ context.Context, _ *domain.InboundMessage, cls domain.Classification, _ *domain.OrderContext) *domain.Disposition {
	d.calls++
	if cls.IsSpam {
		return &domain.Disposition{Kind: domain.DispositionSpam, Reason: "spam"}
	}
	return d.disposition
}

// =============================================================================
// Helpers
// =============================================================================

type pipelineFixture struct {
	svc      *Service
	mailbox  *fakeMailbox
	ledger   *fakeLedger
	reviews  *fakeReviews
	notifier *fakeNotifier
	seen     *fakeSeen
	decider  *staticDecider
}

func newFixture(decider *staticDecider, msgs ...*domain.InboundMessage) *pipelineFixture {
	mailbox := newFakeMailbox(msgs...)
	ledger := newFakeLedger()
	reviews := &fakeReviews{}
	notifier := &fakeNotifier{}
	seen := newFakeSeen()

	svc := NewService(
		mailbox,
		senderfilter.NewDefaultFilter(),
		classification.NewDefaultClassifier(),
		&staticResolver{},
		decider,
		ledger,
		reviews,
		Options{Seen: seen, Notifier: notifier, FetchLimit: 10},
	)
	return &pipelineFixture{svc: svc, mailbox: mailbox, ledger: ledger, reviews: reviews, notifier: notifier, seen: seen, decider: decider}
}

func customerMessage(id string) *domain.InboundMessage {
	return &domain.InboundMessage{
		ID:         id,
		Sender:     "jane@customer.com",
		SenderName: "Jane",
		Subject:    "Where is my order #1234?",
		Body:       "Still waiting on delivery.",
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestProcessBlockedSender(t *testing.T) {
	decider := &staticDecider{disposition: &domain.Disposition{Kind: domain.DispositionAutoResolved, Reply: "hi", ResponseSent: true}}
	msg := &domain.InboundMessage{
		ID:         "m-blocked",
		Sender:     "noreply@shopify.com",
		SenderName: "Shopify",
		Subject:    "Your store report",
	}
	fx := newFixture(decider, msg)

	result, err := fx.svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("Processed = %d, want 1", result.Processed)
	}

	entry := fx.ledger.entries["m-blocked"]
	if entry == nil {
		t.Fatal("no ledger entry recorded")
	}
	if entry.Disposition != domain.DispositionBlockedSender {
		t.Errorf("Disposition = %q, want blocked_sender", entry.Disposition)
	}
	if decider.calls != 0 {
		t.Error("policy engine must not run for blocked senders")
	}
	if len(fx.mailbox.replies) != 0 {
		t.Error("no reply must be sent to a blocked sender")
	}
	if !fx.mailbox.readIDs["m-blocked"] {
		t.Error("blocked message must still be marked read")
	}
}

func TestProcessAutoResolvedSendsReply(t *testing.T) {
	decider := &staticDecider{disposition: &domain.Disposition{
		Kind: domain.DispositionAutoResolved, Reply: "Thanks for reaching out!", ResponseSent: true,
	}}
	fx := newFixture(decider, customerMessage("m-1"))

	if _, err := fx.svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if got := fx.mailbox.replies["m-1"]; got != "Thanks for reaching out!" {
		t.Errorf("reply = %q", got)
	}
	entry := fx.ledger.entries["m-1"]
	if entry == nil || entry.Disposition != domain.DispositionAutoResolved || !entry.ResponseSent {
		t.Errorf("entry = %+v, want auto_resolved with response sent", entry)
	}
	if len(fx.reviews.created) != 0 {
		t.Error("auto resolved must not create review items")
	}
}

func TestProcessEscalationCreatesReviewAndAlert(t *testing.T) {
	decider := &staticDecider{disposition: &domain.Disposition{
		Kind:         domain.DispositionEscalated,
		Reason:       "Not received - 9 days overdue",
		Reply:        "draft",
		FlagForHuman: true,
		Priority:     domain.PriorityHigh,
	}}
	fx := newFixture(decider, customerMessage("m-2"))

	if _, err := fx.svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(fx.mailbox.replies) != 0 {
		t.Error("escalated draft must not be sent to the customer")
	}
	if len(fx.reviews.created) != 1 {
		t.Fatalf("review items = %d, want 1", len(fx.reviews.created))
	}
	item := fx.reviews.created[0]
	if item.MessageID != "m-2" || item.Priority != domain.PriorityHigh || item.Status != domain.ReviewPending {
		t.Errorf("review item = %+v", item)
	}
	if len(fx.notifier.alerts) != 1 || fx.notifier.alerts[0].Kind != out.AlertReview {
		t.Errorf("alerts = %+v, want one review alert", fx.notifier.alerts)
	}
	entry := fx.ledger.entries["m-2"]
	if entry == nil || !entry.FlaggedForReview || entry.ResponseSent {
		t.Errorf("entry = %+v, want flagged without response", entry)
	}
}

func TestProcessSpamSkipsEverything(t *testing.T) {
	decider := &staticDecider{disposition: &domain.Disposition{Kind: domain.DispositionAutoResolved, Reply: "x", ResponseSent: true}}
	msg := &domain.InboundMessage{
		ID:      "m-spam",
		Sender:  "rep@agency.com",
		Subject: "Boost your sales",
		Body:    "We offer an SEO service.",
	}
	fx := newFixture(decider, msg)

	if _, err := fx.svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	entry := fx.ledger.entries["m-spam"]
	if entry == nil || entry.Disposition != domain.DispositionSpam {
		t.Errorf("entry = %+v, want spam", entry)
	}
	if len(fx.mailbox.replies) != 0 {
		t.Error("spam must never be answered")
	}
}

func TestProcessDuplicateIsSkipped(t *testing.T) {
	decider := &staticDecider{disposition: &domain.Disposition{
		Kind: domain.DispositionAutoResolved, Reply: "hello", ResponseSent: true,
	}}
	fx := newFixture(decider, customerMessage("m-dup"))

	if _, err := fx.svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("first RunOnce: %v", err)
	}
	result, err := fx.svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}

	if decider.calls != 1 {
		t.Errorf("decider calls = %d, want 1 (duplicate must not be reprocessed)", decider.calls)
	}
	if result.Skipped != 0 && result.Processed != 1 {
		// The duplicate returns the existing entry, counted as processed.
		t.Errorf("result = %+v", result)
	}
	if len(fx.ledger.entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(fx.ledger.entries))
	}
}

func TestProcessReplyFailureBecomesErrorEntry(t *testing.T) {
	decider := &staticDecider{disposition: &domain.Disposition{
		Kind: domain.DispositionAutoResolved, Reply: "hello", ResponseSent: true,
	}}
	fx := newFixture(decider, customerMessage("m-err"))
	fx.mailbox.replyErr = errors.New("smtp down")

	if _, err := fx.svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	entry := fx.ledger.entries["m-err"]
	if entry == nil {
		t.Fatal("error outcome must still be recorded")
	}
	if entry.Disposition != domain.DispositionError {
		t.Errorf("Disposition = %q, want error", entry.Disposition)
	}
	if entry.ResponseSent {
		t.Error("failed reply must not be recorded as sent")
	}
	if !entry.FlaggedForReview {
		t.Error("failed reply must be flagged for review")
	}
}

func TestProcessBatchIsolation(t *testing.T) {
	decider := &staticDecider{disposition: &domain.Disposition{
		Kind: domain.DispositionAutoResolved, Reply: "ok", ResponseSent: true,
	}}
	bad := &domain.InboundMessage{
		ID:      "m-bad",
		Sender:  "rep@agency.com",
		Subject: "Boost your sales",
		Body:    "seo service",
	}
	fx := newFixture(decider, bad, customerMessage("m-good"))

	result, err := fx.svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if result.Processed != 2 {
		t.Errorf("Processed = %d, want 2", result.Processed)
	}
	if fx.ledger.entries["m-good"] == nil {
		t.Error("later message must be processed despite earlier outcome")
	}
}

func TestProcessLedgerWriteFailureForgetsSeen(t *testing.T) {
	decider := &staticDecider{disposition: &domain.Disposition{
		Kind: domain.DispositionAutoResolved, Reply: "ok", ResponseSent: true,
	}}
	fx := newFixture(decider, customerMessage("m-retry"))
	fx.ledger.recErr = errors.New("pg down")

	if _, err := fx.svc.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(fx.seen.forgotten) != 1 || fx.seen.forgotten[0] != "m-retry" {
		t.Errorf("forgotten = %v, want [m-retry] so the message retries next poll", fx.seen.forgotten)
	}
}
