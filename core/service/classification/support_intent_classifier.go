// Package classification implements keyword-based intent detection.
package classification

import (
	"strings"

	"support_server/core/domain"
)

// IntentGroup binds an intent to its trigger keywords.
type IntentGroup struct {
	Intent   domain.Intent
	Keywords []string
}

// KeywordTable holds the spam list and the ordered intent groups.
// Group order is a contract: the first group with a hit wins.
type KeywordTable struct {
	Spam    []string
	Intents []IntentGroup
}

// DefaultKeywordTable returns the production keyword lists.
func DefaultKeywordTable() KeywordTable {
	return KeywordTable{
		Spam: []string{
			"seo service", "boost your sales", "increase traffic",
			"marketing service", "grow your business", "website optimization",
			"google ranking", "social media marketing", "advertising opportunity",
			"partner with us", "collaboration opportunity", "influencer",
			"backlinks", "web design", "app development", "consulting",
		},
		Intents: []IntentGroup{
			{domain.IntentTracking, []string{"where is my order", "tracking", "shipped", "delivery", "havent received", "not arrived"}},
			{domain.IntentReturnRefund, []string{"return", "refund", "money back", "send back", "exchange"}},
			{domain.IntentDefective, []string{"defective", "broken", "damaged", "wrong item", "missing", "torn"}},
			{domain.IntentAddressChange, []string{"change address", "wrong address", "update address", "different address", "ship to"}},
			{domain.IntentSizing, []string{"too small", "too big", "doesnt fit", "wrong size", "size issue", "fit"}},
			{domain.IntentGeneral, []string{"question", "info", "how long", "when will", "sizing", "kids"}},
		},
	}
}

// Classifier assigns an intent to a message. Deterministic, total, no I/O.
type Classifier struct {
	table KeywordTable
}

// NewClassifier creates a classifier with the given table.
func NewClassifier(table KeywordTable) *Classifier {
	return &Classifier{table: table}
}

// NewDefaultClassifier creates a classifier with the production table.
func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultKeywordTable())
}

// Classify matches the lowercased subject and body against the spam list
// first, then the intent groups in declared order. Messages matching nothing
// fall through to the general intent.
func (c *Classifier) Classify(subject, body string) domain.Classification {
	text := strings.ToLower(body + " " + subject)

	for _, kw := range c.table.Spam {
		if strings.Contains(text, kw) {
			return domain.Classification{
				IsSpam:        true,
				Intent:        domain.IntentSpam,
				MatchedSignal: kw,
			}
		}
	}

	for _, group := range c.table.Intents {
		for _, kw := range group.Keywords {
			if strings.Contains(text, kw) {
				return domain.Classification{
					Intent:        group.Intent,
					MatchedSignal: kw,
				}
			}
		}
	}

	return domain.Classification{Intent: domain.IntentGeneral}
}
