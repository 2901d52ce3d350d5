package domain

import "time"

// DailyStats aggregates pipeline activity over a 24 hour window.
type DailyStats struct {
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	TotalProcessed   int       `json:"total_processed"`
	ResponsesSent    int       `json:"responses_sent"`
	SpamDetected     int       `json:"spam_detected"`
	FlaggedForReview int       `json:"flagged_for_review"`
	PendingReviews   int       `json:"pending_reviews"`
	AutomationRate   float64   `json:"automation_rate"`
}

// ReviewStats aggregates review queue activity over all time.
type ReviewStats struct {
	Pending        int     `json:"pending"`
	Resolved       int     `json:"resolved"`
	Automated      int     `json:"automated_responses"`
	TotalMessages  int     `json:"total_messages"`
	AutomationRate float64 `json:"automation_rate"`
}
