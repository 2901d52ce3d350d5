package policy

import "testing"

func TestParseMarkers(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantKind   MarkerKind
		wantReason string
		wantBody   string
	}{
		{
			name:     "plain reply has no marker",
			text:     "Thank you for reaching out! Your package is on its way.",
			wantKind: MarkerNone,
			wantBody: "Thank you for reaching out! Your package is on its way.",
		},
		{
			name:       "review marker on first line",
			text:       "NEEDS_HUMAN_REVIEW: Not received - Order #1234 - 9 days overdue\nI'm so sorry for the delay!",
			wantKind:   MarkerHumanReview,
			wantReason: "Not received - Order #1234 - 9 days overdue",
			wantBody:   "I'm so sorry for the delay!",
		},
		{
			name:       "review marker without body",
			text:       "NEEDS_HUMAN_REVIEW: Unfulfilled - Order #555",
			wantKind:   MarkerHumanReview,
			wantReason: "Unfulfilled - Order #555",
			wantBody:   "",
		},
		{
			name:       "spam marker",
			text:       "SPAM_DETECTED: SEO outreach",
			wantKind:   MarkerSpamDetected,
			wantReason: "SEO outreach",
			wantBody:   "",
		},
		{
			name:       "action marker on first line",
			text:       "ACTION_REQUIRED: update_address\nAbsolutely! I've updated your shipping address.",
			wantKind:   MarkerActionRequired,
			wantReason: "update_address",
			wantBody:   "Absolutely! I've updated your shipping address.",
		},
		{
			name:       "action marker mid-text",
			text:       "Happy to help!\nACTION_REQUIRED: update_address to 12 Oak St\nWe're here anytime!",
			wantKind:   MarkerActionRequired,
			wantReason: "update_address to 12 Oak St",
			wantBody:   "Happy to help!\nWe're here anytime!",
		},
		{
			name:     "review marker mid-text is not an escalation",
			text:     "As a note, NEEDS_HUMAN_REVIEW: is only a marker on the first line.",
			wantKind: MarkerNone,
			wantBody: "As a note, NEEDS_HUMAN_REVIEW: is only a marker on the first line.",
		},
		{
			name:       "leading whitespace before marker",
			text:       "  NEEDS_HUMAN_REVIEW: delayed\nDraft reply.",
			wantKind:   MarkerHumanReview,
			wantReason: "delayed",
			wantBody:   "Draft reply.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMarkers(tt.text)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if got.Body != tt.wantBody {
				t.Errorf("Body = %q, want %q", got.Body, tt.wantBody)
			}
		})
	}
}
