package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"support_server/core/domain"
	"support_server/core/port/out"

	"github.com/google/uuid"
)

type fakeLedger struct {
	counts    out.LedgerCounts
	gotSince  time.Time
	countsErr error
}

func (f *fakeLedger) Exists(_ context.Context, _ string) (bool, error) { return false, nil }
func (f *fakeLedger) Get(_ context.Context, _ string) (*domain.LedgerEntry, error) {
	return nil, errors.New("not found")
}
func (f *fakeLedger) Record(_ context.Context, _ *domain.LedgerEntry) error { return nil }

func (f *fakeLedger) CountsSince(_ context.Context, since time.Time) (*out.LedgerCounts, error) {
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	f.gotSince = since
	return &f.counts, nil
}

func (f *fakeLedger) Totals(_ context.Context) (*out.LedgerCounts, error) {
	return &f.counts, nil
}

type fakeReviews struct {
	pending int
}

func (f *fakeReviews) Create(_ context.Context, _ *domain.ReviewItem) error { return nil }
func (f *fakeReviews) GetByID(_ context.Context, _ uuid.UUID) (*domain.ReviewItem, error) {
	return nil, errors.New("not found")
}
func (f *fakeReviews) ListPending(_ context.Context) ([]*domain.ReviewItem, error) { return nil, nil }
func (f *fakeReviews) Resolve(_ context.Context, _ uuid.UUID, _ string) error      { return nil }
func (f *fakeReviews) CountByStatus(_ context.Context) (int, int, error) {
	return f.pending, 0, nil
}

type fakeMailbox struct {
	to, subject, body string
	sendErr           error
	sends             int
}

func (f *fakeMailbox) ProviderType() string { return "fake" }
func (f *fakeMailbox) FetchUnread(_ context.Context, _ int) ([]*domain.InboundMessage, error) {
	return nil, nil
}
func (f *fakeMailbox) Reply(_ context.Context, _, _ string) error    { return nil }
func (f *fakeMailbox) MarkRead(_ context.Context, _ string) error    { return nil }
func (f *fakeMailbox) SendMail(_ context.Context, to, subject, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sends++
	f.to, f.subject, f.body = to, subject, body
	return nil
}

type fakeNotifier struct {
	stats *domain.DailyStats
	err   error
}

func (f *fakeNotifier) NotifyAlert(_ context.Context, _ *out.Alert) error     { return nil }
func (f *fakeNotifier) NotifyError(_ context.Context, _ string, _ error) error { return nil }
func (f *fakeNotifier) NotifySummary(_ context.Context, stats *domain.DailyStats) error {
	if f.err != nil {
		return f.err
	}
	f.stats = stats
	return nil
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 20, 18, 30, 0, 0, time.UTC)
}

func newTestService(ledger *fakeLedger, reviews *fakeReviews, mailbox *fakeMailbox, notifier *fakeNotifier) *Service {
	svc := NewService(ledger, reviews, mailbox, notifier, Options{
		Recipient: "ops@example.com",
		Hour:      18,
		StoreName: "Thread & Hem",
	})
	svc.now = fixedNow
	return svc
}

func TestBuildStats(t *testing.T) {
	ledger := &fakeLedger{counts: out.LedgerCounts{Total: 20, ResponsesSent: 15, SpamDetected: 3, Flagged: 2}}
	reviews := &fakeReviews{pending: 4}
	svc := newTestService(ledger, reviews, &fakeMailbox{}, &fakeNotifier{})

	stats, err := svc.BuildStats(context.Background())
	if err != nil {
		t.Fatalf("BuildStats: %v", err)
	}
	wantSince := fixedNow().Add(-24 * time.Hour)
	if !ledger.gotSince.Equal(wantSince) {
		t.Errorf("since = %v, want %v", ledger.gotSince, wantSince)
	}
	if stats.TotalProcessed != 20 || stats.ResponsesSent != 15 || stats.SpamDetected != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.PendingReviews != 4 {
		t.Errorf("PendingReviews = %d, want 4", stats.PendingReviews)
	}
	if stats.AutomationRate != 75 {
		t.Errorf("AutomationRate = %v, want 75", stats.AutomationRate)
	}
}

func TestBuildStatsQuietDay(t *testing.T) {
	svc := newTestService(&fakeLedger{}, &fakeReviews{}, &fakeMailbox{}, &fakeNotifier{})

	stats, err := svc.BuildStats(context.Background())
	if err != nil {
		t.Fatalf("BuildStats: %v", err)
	}
	if stats.AutomationRate != 0 {
		t.Errorf("AutomationRate = %v, want 0 with no traffic", stats.AutomationRate)
	}
}

func TestRunDeliversReport(t *testing.T) {
	ledger := &fakeLedger{counts: out.LedgerCounts{Total: 10, ResponsesSent: 9}}
	mailbox := &fakeMailbox{}
	notifier := &fakeNotifier{}
	svc := newTestService(ledger, &fakeReviews{pending: 1}, mailbox, notifier)

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if mailbox.to != "ops@example.com" {
		t.Errorf("mail to = %q", mailbox.to)
	}
	if !strings.Contains(mailbox.subject, "2026-03-20") {
		t.Errorf("subject = %q, want dated subject", mailbox.subject)
	}
	for _, want := range []string{"Thread & Hem", "Emails processed", "90.0%"} {
		if !strings.Contains(mailbox.body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if notifier.stats == nil || notifier.stats.TotalProcessed != 10 {
		t.Errorf("notifier stats = %+v", notifier.stats)
	}
}

func TestRunPartialDeliveryFailure(t *testing.T) {
	mailbox := &fakeMailbox{sendErr: errors.New("graph down")}
	notifier := &fakeNotifier{}
	svc := newTestService(&fakeLedger{counts: out.LedgerCounts{Total: 1}}, &fakeReviews{}, mailbox, notifier)

	err := svc.Run(context.Background())
	if err == nil {
		t.Fatal("Run must report the failed channel")
	}
	if notifier.stats == nil {
		t.Error("notifier channel must still be attempted")
	}
	if svc.Due(fixedNow()) != true {
		t.Error("failed delivery must leave the report due")
	}
}

func TestDue(t *testing.T) {
	svc := newTestService(&fakeLedger{}, &fakeReviews{}, &fakeMailbox{}, &fakeNotifier{})

	if svc.Due(time.Date(2026, 3, 20, 17, 59, 0, 0, time.UTC)) {
		t.Error("report must not be due before the scheduled hour")
	}
	if !svc.Due(fixedNow()) {
		t.Error("report must be due after the scheduled hour")
	}

	if err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.Due(fixedNow().Add(time.Hour)) {
		t.Error("report must not be due twice in one day")
	}
	if !svc.Due(fixedNow().AddDate(0, 0, 1)) {
		t.Error("report must be due again the next day")
	}
}
