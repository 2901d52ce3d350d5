// Package summary builds and delivers the daily activity report.
package summary

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"support_server/core/domain"
	"support_server/core/port/in"
	"support_server/core/port/out"
	"support_server/pkg/logger"
)

const statsWindow = 24 * time.Hour

// Options configures report delivery.
type Options struct {
	// Recipient receives the HTML report. Empty disables the mail.
	Recipient string

	// Hour is the local hour (0-23) after which the report is due.
	Hour int

	// StoreName appears in the report heading.
	StoreName string
}

// Service aggregates the trailing day of pipeline activity and sends the
// report once per day.
type Service struct {
	ledger   out.LedgerRepository
	reviews  out.ReviewQueueRepository
	mailbox  out.MailboxPort
	notifier out.NotifierPort
	opts     Options
	log      *logger.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastSent time.Time
}

// NewService creates the summary service. Mailbox and notifier may be nil;
// whichever is present receives the report.
func NewService(ledger out.LedgerRepository, reviews out.ReviewQueueRepository, mailbox out.MailboxPort, notifier out.NotifierPort, opts Options) *Service {
	return &Service{
		ledger:   ledger,
		reviews:  reviews,
		mailbox:  mailbox,
		notifier: notifier,
		opts:     opts,
		log:      logger.Default().WithField("component", "summary_service"),
		now:      time.Now,
	}
}

// BuildStats aggregates the trailing 24 hour window.
func (s *Service) BuildStats(ctx context.Context) (*domain.DailyStats, error) {
	end := s.now()
	start := end.Add(-statsWindow)

	counts, err := s.ledger.CountsSince(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("ledger counts: %w", err)
	}
	pending, _, err := s.reviews.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}

	stats := &domain.DailyStats{
		WindowStart:      start,
		WindowEnd:        end,
		TotalProcessed:   counts.Total,
		ResponsesSent:    counts.ResponsesSent,
		SpamDetected:     counts.SpamDetected,
		FlaggedForReview: counts.Flagged,
		PendingReviews:   pending,
	}
	if counts.Total > 0 {
		stats.AutomationRate = float64(counts.ResponsesSent) / float64(counts.Total) * 100
	}
	return stats, nil
}

// Run builds the stats and delivers the report. Delivery failures on one
// channel do not block the other.
func (s *Service) Run(ctx context.Context) error {
	stats, err := s.BuildStats(ctx)
	if err != nil {
		return err
	}

	var failures []string
	if s.mailbox != nil && s.opts.Recipient != "" {
		subject := fmt.Sprintf("Daily Support Summary - %s", s.now().Format("2006-01-02"))
		if err := s.mailbox.SendMail(ctx, s.opts.Recipient, subject, s.renderHTML(stats)); err != nil {
			s.log.WithError(err).Error("Summary mail delivery failed")
			failures = append(failures, fmt.Sprintf("mail: %v", err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifySummary(ctx, stats); err != nil {
			s.log.WithError(err).Error("Summary notification failed")
			failures = append(failures, fmt.Sprintf("notifier: %v", err))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("summary delivery: %s", strings.Join(failures, "; "))
	}

	s.mu.Lock()
	s.lastSent = s.now()
	s.mu.Unlock()

	s.log.WithField("total", stats.TotalProcessed).Info("Daily summary delivered")
	return nil
}

// Due reports whether the scheduled hour has passed and no report has been
// sent yet today.
func (s *Service) Due(now time.Time) bool {
	if now.Hour() < s.opts.Hour {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	y1, m1, d1 := s.lastSent.Date()
	y2, m2, d2 := now.Date()
	return !(y1 == y2 && m1 == m2 && d1 == d2)
}

func (s *Service) renderHTML(stats *domain.DailyStats) string {
	store := s.opts.StoreName
	if store == "" {
		store = "Support"
	}
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	fmt.Fprintf(&b, "<h2>%s Daily Summary</h2>", store)
	fmt.Fprintf(&b, "<p>%s to %s</p>",
		stats.WindowStart.Format("Jan 2 15:04"), stats.WindowEnd.Format("Jan 2 15:04"))
	b.WriteString("<table border=\"0\" cellpadding=\"6\">")
	writeRow(&b, "Emails processed", stats.TotalProcessed)
	writeRow(&b, "Responses sent", stats.ResponsesSent)
	writeRow(&b, "Spam detected", stats.SpamDetected)
	writeRow(&b, "Flagged for review", stats.FlaggedForReview)
	writeRow(&b, "Pending reviews", stats.PendingReviews)
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<p><strong>Automation rate: %.1f%%</strong></p>", stats.AutomationRate)
	b.WriteString("</body></html>")
	return b.String()
}

func writeRow(b *strings.Builder, label string, value int) {
	fmt.Fprintf(b, "<tr><td>%s</td><td><strong>%d</strong></td></tr>", label, value)
}

var _ in.SummaryService = (*Service)(nil)
