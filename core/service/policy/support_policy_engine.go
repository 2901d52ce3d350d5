package policy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"support_server/core/domain"
	"support_server/core/port/out"
	"support_server/pkg/logger"
)

// Days past the expected delivery window before an escalation is urgent.
const overdueHighWatermark = 7

// Engine applies the response policy to a classified message.
// It decides the disposition but performs no side effects.
type Engine struct {
	gen out.GenerationPort
	log *logger.Logger
	now func() time.Time
}

// NewEngine creates a policy engine backed by the generation port.
func NewEngine(gen out.GenerationPort) *Engine {
	return &Engine{
		gen: gen,
		log: logger.Default().WithField("component", "policy_engine"),
		now: time.Now,
	}
}

// Decide produces the disposition for a message. Spam never reaches the
// generation service; generation failure produces an error disposition with
// the human flag set, never a dropped message.
func (e *Engine) Decide(ctx context.Context, msg *domain.InboundMessage, cls domain.Classification, order *domain.OrderContext) *domain.Disposition {
	if cls.IsSpam {
		return &domain.Disposition{
			Kind:   domain.DispositionSpam,
			Reason: "spam detected - sales/marketing email",
		}
	}

	userPrompt := BuildUserPrompt(msg, order, e.now())

	text, err := e.gen.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		e.log.WithMessageID(msg.ID).WithError(err).Error("Response generation failed")
		return &domain.Disposition{
			Kind:         domain.DispositionError,
			Reason:       fmt.Sprintf("generation failed: %v", err),
			FlagForHuman: true,
			Priority:     domain.PriorityMedium,
		}
	}

	result := ParseMarkers(text)
	switch result.Kind {
	case MarkerHumanReview:
		return &domain.Disposition{
			Kind:         domain.DispositionEscalated,
			Reason:       result.Reason,
			Reply:        result.Body,
			FlagForHuman: true,
			Priority:     e.priority(order, result.Reason),
		}

	case MarkerSpamDetected:
		return &domain.Disposition{
			Kind:   domain.DispositionSpam,
			Reason: result.Reason,
		}

	case MarkerActionRequired:
		return &domain.Disposition{
			Kind:         domain.DispositionActionRequired,
			Reason:       result.Reason,
			Reply:        result.Body,
			ResponseSent: result.Body != "",
			Priority:     domain.PriorityMedium,
		}

	default:
		return &domain.Disposition{
			Kind:         domain.DispositionAutoResolved,
			Reply:        result.Body,
			ResponseSent: true,
		}
	}
}

// priority grades an escalation. Orders well past the delivery window and
// unfulfilled orders are urgent; everything else defaults to medium.
func (e *Engine) priority(order *domain.OrderContext, reason string) domain.ReviewPriority {
	if order != nil {
		if order.DaysOverdue(e.now()) >= overdueHighWatermark || order.IsUnfulfilled() {
			return domain.PriorityHigh
		}
	}
	lower := strings.ToLower(reason)
	if strings.Contains(lower, "overdue") || strings.Contains(lower, "unfulfilled") {
		return domain.PriorityHigh
	}
	return domain.PriorityMedium
}
