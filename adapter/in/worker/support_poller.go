// Package worker contains the inbox poller driving the intake pipeline.
package worker

import (
	"context"
	"os"
	"time"

	"support_server/core/port/in"
	"support_server/core/port/out"

	"github.com/rs/zerolog"
)

// =============================================================================
// Poller
// =============================================================================
//
// The mailbox has no push channel for app-only access, so the poller drives
// the pipeline on a fixed interval. The daily summary piggybacks on the same
// loop.

type Poller struct {
	pipeline in.PipelineService
	summary  in.SummaryService
	notifier out.NotifierPort
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	zlog     zerolog.Logger
}

// NewPoller creates a new inbox poller. Summary and notifier may be nil.
func NewPoller(pipeline in.PipelineService, summary in.SummaryService, notifier out.NotifierPort, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Str("component", "poller").Logger()
	return &Poller{
		pipeline: pipeline,
		summary:  summary,
		notifier: notifier,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		zlog:     zlog,
	}
}

// Start starts the poll loop.
func (p *Poller) Start() {
	p.zlog.Info().Dur("interval", p.interval).Msg("Starting poller")
	go p.run()
}

// Stop stops the poll loop and waits for the current cycle to finish.
func (p *Poller) Stop() {
	p.zlog.Info().Msg("Stopping poller...")
	p.cancel()
	<-p.done
}

func (p *Poller) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Run once at startup so a restart does not wait a full interval.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			p.zlog.Info().Msg("Poller stopped")
			return
		case <-ticker.C:
			p.poll()
			p.maybeSummary()
		}
	}
}

func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(p.ctx, 5*time.Minute)
	defer cancel()

	start := time.Now()
	result, err := p.pipeline.RunOnce(ctx)
	if err != nil {
		p.zlog.Error().Err(err).Msg("Poll cycle failed")
		p.notifyError(ctx, "poll cycle", err)
		return
	}

	p.zlog.Info().
		Dur("duration", time.Since(start)).
		Int("fetched", result.Fetched).
		Int("processed", result.Processed).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Msg("Poll cycle finished")
}

func (p *Poller) maybeSummary() {
	if p.summary == nil || !p.summary.Due(time.Now()) {
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, 2*time.Minute)
	defer cancel()

	if err := p.summary.Run(ctx); err != nil {
		p.zlog.Error().Err(err).Msg("Daily summary failed")
		p.notifyError(ctx, "daily summary", err)
	}
}

func (p *Poller) notifyError(ctx context.Context, where string, err error) {
	if p.notifier == nil {
		return
	}
	if nerr := p.notifier.NotifyError(ctx, where, err); nerr != nil {
		p.zlog.Warn().Err(nerr).Msg("Error notification failed")
	}
}
