package out

import "context"

// GenerationPort defines the outbound port for the response generation service.
// The returned text may start with a control marker line that the policy
// engine interprets.
type GenerationPort interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
