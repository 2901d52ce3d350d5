// Package policy turns classified messages into dispositions.
package policy

import "strings"

// Control markers the generation service may emit.
//
// Marker grammar:
//
//	reply      = marker-line NL body | body
//	marker-line = ("NEEDS_HUMAN_REVIEW:" | "SPAM_DETECTED:") reason
//
// Review and spam markers are only honored on the first line.
// "ACTION_REQUIRED:" is honored on any line; the line carrying it is
// removed from the customer-facing body.
const (
	markerReview = "NEEDS_HUMAN_REVIEW:"
	markerSpam   = "SPAM_DETECTED:"
	markerAction = "ACTION_REQUIRED:"
)

// MarkerKind identifies which control marker a reply carried.
type MarkerKind int

const (
	MarkerNone MarkerKind = iota
	MarkerHumanReview
	MarkerSpamDetected
	MarkerActionRequired
)

// MarkerResult is the parsed reply: the marker, its reason, and the body
// with the marker line stripped.
type MarkerResult struct {
	Kind   MarkerKind
	Reason string
	Body   string
}

// ParseMarkers interprets a generated reply.
func ParseMarkers(text string) MarkerResult {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, markerReview) {
		first, rest := splitFirstLine(trimmed)
		return MarkerResult{
			Kind:   MarkerHumanReview,
			Reason: strings.TrimSpace(strings.TrimPrefix(first, markerReview)),
			Body:   rest,
		}
	}

	if strings.HasPrefix(trimmed, markerSpam) {
		first, rest := splitFirstLine(trimmed)
		return MarkerResult{
			Kind:   MarkerSpamDetected,
			Reason: strings.TrimSpace(strings.TrimPrefix(first, markerSpam)),
			Body:   rest,
		}
	}

	if idx := strings.Index(trimmed, markerAction); idx >= 0 {
		lines := strings.Split(trimmed, "\n")
		var reason string
		kept := make([]string, 0, len(lines))
		for _, line := range lines {
			if reason == "" && strings.Contains(line, markerAction) {
				pos := strings.Index(line, markerAction)
				reason = strings.TrimSpace(line[pos+len(markerAction):])
				continue
			}
			kept = append(kept, line)
		}
		return MarkerResult{
			Kind:   MarkerActionRequired,
			Reason: reason,
			Body:   strings.TrimSpace(strings.Join(kept, "\n")),
		}
	}

	return MarkerResult{Kind: MarkerNone, Body: trimmed}
}

func splitFirstLine(text string) (first, rest string) {
	if i := strings.Index(text, "\n"); i >= 0 {
		return text[:i], strings.TrimSpace(text[i+1:])
	}
	return text, ""
}
