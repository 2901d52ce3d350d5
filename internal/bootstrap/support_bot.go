package bootstrap

import (
	"fmt"

	"support_server/adapter/in/worker"
	"support_server/config"
	"support_server/core/port/in"
	"support_server/pkg/logger"
)

// Bot is the polling process that drains the support inbox.
type Bot struct {
	poller *worker.Poller
	deps   *Dependencies
}

func NewBot(cfg *config.Config) (*Bot, func(), error) {
	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	if deps.PipelineService == nil {
		cleanup()
		return nil, nil, fmt.Errorf("pipeline not available: mailbox and OpenAI credentials are required")
	}

	var summarySvc in.SummaryService
	if cfg.SummaryEnabled && cfg.SummaryRecipient != "" {
		summarySvc = deps.SummaryService
	} else {
		logger.Info("Daily summary disabled")
	}

	poller := worker.NewPoller(deps.PipelineService, summarySvc, deps.Notifier, cfg.PollInterval)

	logger.Info("Bot %s initialized (provider: %s)", cfg.BotID, deps.Mailbox.ProviderType())
	return &Bot{poller: poller, deps: deps}, cleanup, nil
}

func (b *Bot) Start() {
	b.poller.Start()
}

func (b *Bot) Stop() {
	b.poller.Stop()
}

func (b *Bot) Dependencies() *Dependencies {
	return b.deps
}
