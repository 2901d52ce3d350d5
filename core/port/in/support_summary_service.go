package in

import (
	"context"
	"time"

	"support_server/core/domain"
)

// SummaryService builds and delivers the daily activity report.
type SummaryService interface {
	// BuildStats aggregates the trailing 24 hour window.
	BuildStats(ctx context.Context) (*domain.DailyStats, error)

	// Run builds the stats and delivers the report by mail and notifier.
	Run(ctx context.Context) error

	// Due reports whether the scheduled send time has arrived and the
	// report has not been sent today.
	Due(now time.Time) bool
}
