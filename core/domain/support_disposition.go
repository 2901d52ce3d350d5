package domain

// DispositionKind is the terminal outcome for a processed message.
type DispositionKind string

const (
	DispositionBlockedSender  DispositionKind = "blocked_sender"
	DispositionSpam           DispositionKind = "spam"
	DispositionAutoResolved   DispositionKind = "auto_resolved"
	DispositionEscalated      DispositionKind = "escalated"
	DispositionActionRequired DispositionKind = "action_required"
	DispositionError          DispositionKind = "error"
)

// ReviewPriority orders the human review queue.
type ReviewPriority string

const (
	PriorityHigh   ReviewPriority = "high"
	PriorityMedium ReviewPriority = "medium"
	PriorityLow    ReviewPriority = "low"
)

// Weight maps priority to a sortable rank. Higher is more urgent.
func (p ReviewPriority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Disposition is the policy engine's decision for a single message.
type Disposition struct {
	Kind         DispositionKind `json:"kind"`
	Reason       string          `json:"reason,omitempty"`
	Reply        string          `json:"reply,omitempty"`
	ResponseSent bool            `json:"response_sent"`
	FlagForHuman bool            `json:"flag_for_human"`
	Priority     ReviewPriority  `json:"priority,omitempty"`
}
