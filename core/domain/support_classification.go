package domain

// Intent is the coarse category assigned to a customer message.
type Intent string

const (
	IntentTracking      Intent = "tracking"
	IntentReturnRefund  Intent = "return_refund"
	IntentDefective     Intent = "defective"
	IntentAddressChange Intent = "address_change"
	IntentSizing        Intent = "sizing"
	IntentGeneral       Intent = "general"
	IntentSpam          Intent = "spam"
)

// Classification is the result of keyword-based intent detection.
type Classification struct {
	IsSpam        bool   `json:"is_spam"`
	Intent        Intent `json:"intent"`
	MatchedSignal string `json:"matched_signal,omitempty"`
}

// SenderVerdict is the result of the sender filter.
// A blocked sender carries a human-readable reason naming the rule that fired.
type SenderVerdict struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason,omitempty"`
}
