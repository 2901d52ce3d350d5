// Package senderfilter decides whether a sender is a real customer.
package senderfilter

import (
	"fmt"
	"strings"

	"support_server/core/domain"
)

// Rules holds the ordered block lists. Domain rules are substring matches
// against the sender address; keyword rules match the sender address or
// display name. Declaration order is the evaluation order and first match
// wins.
type Rules struct {
	Domains  []string
	Keywords []string
}

// DefaultRules returns the production block lists.
func DefaultRules() Rules {
	return Rules{
		Domains: []string{
			"aliexpress.com",
			"shopify.com",
			"myshopify.com",
			"noreply",
			"no-reply",
			"donotreply",
			"notifications@",
			"marketing@",
			"sales@",
			"support@shopify",
			"alerts@",
		},
		Keywords: []string{
			"aliexpress",
			"shopify notification",
			"shopify alert",
			"automatic notification",
			"system notification",
		},
	}
}

// Filter evaluates senders against the block lists. Pure, no I/O.
type Filter struct {
	rules Rules
}

// NewFilter creates a filter with the given rules.
func NewFilter(rules Rules) *Filter {
	return &Filter{rules: rules}
}

// NewDefaultFilter creates a filter with the production rules.
func NewDefaultFilter() *Filter {
	return NewFilter(DefaultRules())
}

// Evaluate checks the sender address against domain rules, then the address
// and display name against keyword rules. Domain rules always win over
// keyword rules.
func (f *Filter) Evaluate(address, name string) domain.SenderVerdict {
	addr := strings.ToLower(strings.TrimSpace(address))
	for _, rule := range f.rules.Domains {
		if rule != "" && strings.Contains(addr, rule) {
			return domain.SenderVerdict{
				Blocked: true,
				Reason:  fmt.Sprintf("blocked domain: %s", rule),
			}
		}
	}

	displayName := strings.ToLower(strings.TrimSpace(name))
	for _, rule := range f.rules.Keywords {
		if rule != "" && (strings.Contains(addr, rule) || strings.Contains(displayName, rule)) {
			return domain.SenderVerdict{
				Blocked: true,
				Reason:  fmt.Sprintf("blocked keyword: %s", rule),
			}
		}
	}

	return domain.SenderVerdict{}
}
